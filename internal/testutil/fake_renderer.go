package testutil

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/TheSilvered/Cursors/internal/render"
)

// FakeRenderer implements render.Renderer for testing. It writes real
// PNG files so the pipeline can decode and assemble them, and can be
// told to fail a number of times per source to exercise retry logic.
type FakeRenderer struct {
	// CrashesFor maps an SVG path to how many times Export fails with
	// render.ErrRendererCrash before succeeding.
	CrashesFor map[string]int
	// FailFor maps an SVG path to a permanent export error.
	FailFor map[string]error
	// StaticFor maps an SVG path to its HasObject("static") answer.
	StaticFor map[string]bool
	// Pixel is the opaque color written at (0, 0). Zero value means
	// a fully transparent frame.
	Pixel color.RGBA

	ExportCalls int
}

var _ render.Renderer = (*FakeRenderer)(nil)

func (f *FakeRenderer) Export(_ context.Context, svgPath string, jobs []render.ExportJob) error {
	f.ExportCalls++

	if err, ok := f.FailFor[svgPath]; ok {
		return err
	}
	if f.CrashesFor[svgPath] > 0 {
		f.CrashesFor[svgPath]--
		return fmt.Errorf("inkscape %s: %w", svgPath, render.ErrRendererCrash)
	}

	for _, job := range jobs {
		if err := os.MkdirAll(filepath.Dir(job.OutFile), 0o755); err != nil {
			return err
		}
		img := image.NewRGBA(image.Rect(0, 0, job.Size, job.Size))
		if f.Pixel.A != 0 {
			img.SetRGBA(0, 0, f.Pixel)
		}
		out, err := os.Create(job.OutFile)
		if err != nil {
			return err
		}
		if err := png.Encode(out, img); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeRenderer) HasObject(_ context.Context, svgPath, id string) (bool, error) {
	return f.StaticFor[svgPath], nil
}
