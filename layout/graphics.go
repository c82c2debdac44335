package layout

import (
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// LineCap 线端样式
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// Graphics is the drawing surface the layout paints onto.
//
// Coordinates are layout space: origin top-left, y grows downward, units in points.
// Save/Restore bracket the whole state: transform, colors, stroke parameters, clip,
// shadow, blend mode and alpha.
type Graphics interface {
	Save()
	Restore()

	Translate(x, y float64)
	Scale(sx, sy float64)
	// Rotate 以弧度旋转，正值在 y 向下的坐标系里表现为顺时针
	Rotate(angle float64)
	Concat(m geom.Matrix)

	SetFillColor(c styled.Color)
	SetStrokeColor(c styled.Color)
	SetLineWidth(w float64)
	SetLineCap(c LineCap)
	SetLineJoin(j styled.LineJoin)
	// SetLineDash 传入空 lengths 表示实线
	SetLineDash(phase float64, lengths []float64)

	FillPath(p *geom.Path, evenOdd bool)
	StrokePath(p *geom.Path)
	// ClipPath intersects the current clip with p.
	ClipPath(p *geom.Path, evenOdd bool)

	// SetShadow sets the shadow of subsequent drawing. The offset is fixed in the
	// coordinate space current at the call; later transforms move the shape, not the
	// offset. A zero-alpha color disables the shadow.
	SetShadow(offset geom.Size, blur float64, c styled.Color)
	SetBlendMode(m styled.BlendMode)
	SetAlpha(a float64)

	// BeginLayer starts a transparency layer; EndLayer composites it with the blend
	// mode, alpha and shadow that were current at BeginLayer.
	BeginLayer()
	EndLayer()

	// ShowGlyphs draws glyphs with the current fill color. A glyph's baseline origin is
	// (origin.X+g.Position.X, origin.Y-g.Position.Y).
	ShowGlyphs(font styled.Font, glyphs []Glyph, origin geom.Point)
}

// AttachmentDrawer paints attachment content into rect. The layout never inspects
// the content handle.
type AttachmentDrawer func(g Graphics, a *styled.Attachment, rect geom.Rect)

// AttachmentMounter receives live attachment contents (views, layers) that must be
// placed by the host instead of drawn.
type AttachmentMounter interface {
	MountAttachment(a *styled.Attachment, frame geom.Rect)
	UnmountAttachment(a *styled.Attachment)
}
