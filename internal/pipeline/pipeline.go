// Package pipeline turns SVG cursor designs into packaged cursor
// files: render PNG frames through the external renderer, assemble
// them into CUR/ANI containers, and finalize the output directory with
// the installation manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TheSilvered/Cursors/internal/config"
	"github.com/TheSilvered/Cursors/internal/ico"
	"github.com/TheSilvered/Cursors/internal/render"
	"github.com/TheSilvered/Cursors/internal/source"
)

// errWrite marks filesystem failures in the output directory. These
// abort the whole run, unlike per-cursor render failures.
var errWrite = errors.New("output write failed")

// staticLayerID is the optional always-visible layer of animated SVGs.
const staticLayerID = "static"

// Batch runs the generation pipeline over every source in the
// configured directory. Sources are processed strictly one at a time:
// the renderer is known to destabilize under concurrent invocation.
type Batch struct {
	cfg      config.Config
	renderer render.Renderer

	// Force regenerates cursors even when the output is newer than the
	// source.
	Force bool
}

// NewBatch creates a batch over the given renderer and configuration.
func NewBatch(r render.Renderer, cfg config.Config) *Batch {
	return &Batch{cfg: cfg, renderer: r}
}

// Run executes the whole pipeline. report receives presentation events
// and may be nil. The returned error is non-nil only for unrecoverable
// failures (unreadable source dir, output directory writes); per-cursor
// failures land in the summary instead.
func (b *Batch) Run(ctx context.Context, report func(Event)) (Summary, error) {
	if report == nil {
		report = func(Event) {}
	}
	var sum Summary

	if err := os.MkdirAll(b.cfg.Dirs.Output, 0o755); err != nil {
		return sum, fmt.Errorf("%w: %v", errWrite, err)
	}

	sources, err := source.Discover(b.cfg.Dirs.Sources, func(path string, err error) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		report(Event{Name: name, Status: StatusFailed, Err: err})
		sum.Failed = append(sum.Failed, Failure{Name: name, Err: err})
	})
	if err != nil {
		return sum, err
	}

	for _, src := range sources {
		for _, w := range src.Warnings {
			report(Event{Name: src.Name, Warning: w})
		}
		status, err := b.generateOne(ctx, src, report)
		switch {
		case err == nil && status == StatusSkipped:
			sum.Skipped++
			report(Event{Name: src.Name, Status: StatusSkipped})
		case err == nil:
			sum.Generated++
			report(Event{Name: src.Name, Status: StatusDone})
		case errors.Is(err, errWrite):
			report(Event{Name: src.Name, Status: StatusFailed, Err: err})
			return sum, err
		default:
			sum.Failed = append(sum.Failed, Failure{Name: src.Name, Err: err})
			report(Event{Name: src.Name, Status: StatusFailed, Err: err})
		}
	}

	if err := b.copyManifest(); err != nil {
		return sum, err
	}
	return sum, nil
}

// generateOne produces the cursor file for a single source.
func (b *Batch) generateOne(ctx context.Context, src *source.Source, report func(Event)) (Status, error) {
	outFile := filepath.Join(b.cfg.Dirs.Output, src.OutputName())
	if !b.Force && isFresh(outFile, src.Path) {
		return StatusSkipped, nil
	}

	report(Event{Name: src.Name, Status: StatusRendering})
	if src.Animated() {
		return StatusDone, b.generateAni(ctx, src, outFile, report)
	}
	return StatusDone, b.generateCur(ctx, src, outFile, report)
}

func (b *Batch) generateCur(ctx context.Context, src *source.Source, outFile string, report func(Event)) error {
	pngDir := filepath.Join(b.cfg.Dirs.Intermediate, src.Name)

	jobs := make([]render.ExportJob, len(b.cfg.Resolutions))
	for i, res := range b.cfg.Resolutions {
		jobs[i] = render.ExportJob{
			OutFile: filepath.Join(pngDir, strconv.Itoa(res)+".png"),
			Size:    res,
		}
	}
	if err := b.exportWithRetry(ctx, src.Path, jobs); err != nil {
		return err
	}

	report(Event{Name: src.Name, Status: StatusAssembling})
	images := make([]image.Image, len(jobs))
	for i, job := range jobs {
		img, err := loadFrame(job.OutFile, job.Size)
		if err != nil {
			return err
		}
		images[i] = img
	}

	return writeAtomic(outFile, func(w io.Writer) error {
		return ico.EncodeCUR(w, images, src.Hotspot)
	})
}

func (b *Batch) generateAni(ctx context.Context, src *source.Source, outFile string, report func(Event)) error {
	pngDir := filepath.Join(b.cfg.Dirs.Intermediate, src.Name)

	// A failing probe just means no static layer; the export below
	// surfaces real renderer trouble.
	hasStatic, err := b.renderer.HasObject(ctx, src.Path, staticLayerID)
	if err != nil {
		hasStatic = false
	}

	var jobs []render.ExportJob
	for _, res := range b.cfg.Resolutions {
		resDir := filepath.Join(pngDir, strconv.Itoa(res))
		if hasStatic {
			jobs = append(jobs, render.ExportJob{
				OutFile:  filepath.Join(resDir, "static.png"),
				Size:     res,
				ObjectID: staticLayerID,
			})
		}
		for i := 0; i < src.Ani.FrameCount; i++ {
			jobs = append(jobs, render.ExportJob{
				OutFile:  filepath.Join(resDir, strconv.Itoa(i)+".png"),
				Size:     res,
				ObjectID: fmt.Sprintf("frame_%d", i+1),
			})
		}
	}
	if err := b.exportWithRetry(ctx, src.Path, jobs); err != nil {
		return err
	}

	report(Event{Name: src.Name, Status: StatusAssembling})
	frames := make([][]image.Image, src.Ani.FrameCount)
	for i := range frames {
		frames[i] = make([]image.Image, len(b.cfg.Resolutions))
	}
	for ri, res := range b.cfg.Resolutions {
		resDir := filepath.Join(pngDir, strconv.Itoa(res))

		var static *image.RGBA
		if hasStatic {
			static, err = loadFrame(filepath.Join(resDir, "static.png"), res)
			if err != nil {
				return err
			}
		}

		for i := 0; i < src.Ani.FrameCount; i++ {
			frame, err := loadFrame(filepath.Join(resDir, strconv.Itoa(i)+".png"), res)
			if err != nil {
				return err
			}
			if static != nil {
				frame = compositeOver(static, frame)
			}
			frames[i][ri] = frame
		}
	}

	return writeAtomic(outFile, func(w io.Writer) error {
		return ico.EncodeANI(w, frames, src.Hotspot, *src.Ani)
	})
}

// exportWithRetry re-runs an export when it failed with the known
// renderer crash, up to the configured retry count. Other failures are
// deterministic and returned immediately.
func (b *Batch) exportWithRetry(ctx context.Context, svgPath string, jobs []render.ExportJob) error {
	for attempt := 0; ; attempt++ {
		err := b.renderer.Export(ctx, svgPath, jobs)
		if err == nil {
			return nil
		}
		if attempt >= b.cfg.Render.Retries || !errors.Is(err, render.ErrRendererCrash) {
			return err
		}
	}
}

// copyManifest copies every static manifest file into the output
// directory so it is self-contained for installation.
func (b *Batch) copyManifest() error {
	for _, path := range b.cfg.Manifest {
		if err := copyFile(path, filepath.Join(b.cfg.Dirs.Output, filepath.Base(path))); err != nil {
			return fmt.Errorf("%w: copy manifest %s: %v", errWrite, path, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeAtomic encodes into a temp file and renames it into place, so a
// failed run never leaves a partial cursor behind.
func writeAtomic(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", errWrite, err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", errWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", errWrite, err)
	}
	return nil
}

// isFresh reports whether out already exists and is newer than src.
func isFresh(out, src string) bool {
	outInfo, err := os.Stat(out)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	return outInfo.ModTime().After(srcInfo.ModTime())
}
