// Package render is the boundary to the external SVG rasterizer.
package render

import (
	"context"
	"errors"
)

// ExportJob asks for one PNG rendered from a source SVG.
type ExportJob struct {
	OutFile  string // destination PNG path
	Size     int    // edge length in pixels, output is Size x Size
	ObjectID string // export only this object; empty exports the page
}

// Renderer rasterizes SVG sources. Inkscape implements this interface.
// Tests provide fake implementations.
type Renderer interface {
	// Export renders every job from the given SVG in one invocation.
	Export(ctx context.Context, svgPath string, jobs []ExportJob) error
	// HasObject reports whether the SVG contains an object with the id.
	HasObject(ctx context.Context, svgPath, id string) (bool, error)
}

// ErrRendererCrash marks the known Inkscape instability where the
// process dies under repeated invocation. Failures wrapping it are
// worth retrying; other export failures are not.
var ErrRendererCrash = errors.New("renderer crashed")
