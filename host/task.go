package host

import (
	"context"
	"image"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/renderer/raster"
)

// LayoutTask draws l with the raster backend at the host's content size.
func LayoutTask(l *layout.Layout, r *raster.Renderer) DisplayTask {
	return PageTask(renderer.Page{Layout: l}, r)
}

// PageTask draws page with the raster backend. The page size is replaced by the
// host's content size on every display, and the host's debug option, when set,
// replaces the page's.
func PageTask(page renderer.Page, r *raster.Renderer) DisplayTask {
	return DisplayTask{
		Display: func(ctx context.Context, size geom.Size, isCancelled func() bool) image.Image {
			p := page
			p.Size = size
			if d := DebugOptionFrom(ctx); d != nil {
				p.Debug = d
			}
			img, err := r.RenderImage(p, isCancelled)
			if err != nil {
				layout.Logger().Warn("host: render failed", "err", err)
				return nil
			}
			return img
		},
	}
}
