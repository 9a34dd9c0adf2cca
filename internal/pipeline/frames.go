package pipeline

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// loadFrame decodes a rendered PNG and guarantees the exact target
// size. Inkscape rounds non-square pages, so any off-size raster is
// rescaled rather than rejected.
func loadFrame(path string, size int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	} else {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	}
	return out, nil
}

// compositeOver paints frame over static and returns the result.
// Used for animated cursors that declare an always-visible base layer.
func compositeOver(static, frame *image.RGBA) *image.RGBA {
	out := image.NewRGBA(static.Bounds())
	draw.Draw(out, out.Bounds(), static, static.Bounds().Min, draw.Src)
	draw.Draw(out, out.Bounds(), frame, frame.Bounds().Min, draw.Over)
	return out
}
