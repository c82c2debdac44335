// Package selection turns layout caret and selection queries into the overlay
// geometry of a text view: the caret bar, translucent selection marks and the two
// grabbers with their dots, plus the touch hit-tests the view needs.
package selection

import (
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

const (
	// MarkAlpha 是选区底色的透明度
	MarkAlpha = 0.2
	// LineWidth 是光标与抓手竖条的粗细
	LineWidth = 2.0
	// TouchTestExtend 向外扩展光标与抓手的触摸区域
	TouchTestExtend = 14.0
	// TouchDotExtend 在圆点一侧额外扩展的触摸区域
	TouchDotExtend = 7.0
	// DotSize 是抓手圆点的直径
	DotSize = 10.0
)

// Edge is a set of rect edges.
type Edge uint8

const (
	EdgeTop Edge = 1 << iota
	EdgeRight
	EdgeBottom
	EdgeLeft

	EdgeNone Edge = 0
)

// Grabber is a selection handle: a stick along the caret with a dot on one end.
type Grabber struct {
	Visible bool
	// Frame 是竖条区域
	Frame geom.Rect
	// DotDirection 指明圆点位于竖条的哪一端
	DotDirection Edge
}

// Dot returns the dot rect, centred on the stick and sitting just past its dotted end.
func (g Grabber) Dot() geom.Rect {
	const ofs = 0.5
	f := g.Frame
	d := geom.R(0, 0, DotSize, DotSize)
	switch {
	case g.DotDirection&EdgeTop != 0:
		d.X, d.Y = f.MidX()-DotSize/2, f.Y-DotSize+ofs
	case g.DotDirection&EdgeBottom != 0:
		d.X, d.Y = f.MidX()-DotSize/2, f.MaxY()-ofs
	case g.DotDirection&EdgeLeft != 0:
		d.X, d.Y = f.X-DotSize+ofs, f.MidY()-DotSize/2
	case g.DotDirection&EdgeRight != 0:
		d.X, d.Y = f.MaxX()-ofs, f.MidY()-DotSize/2
	default:
		return geom.Rect{}
	}
	return d
}

// TouchRect returns the area that accepts touches for the grabber.
func (g Grabber) TouchRect() geom.Rect {
	r := g.Frame.InsetBy(-TouchTestExtend, -TouchTestExtend)
	var in geom.Insets
	if g.DotDirection&EdgeTop != 0 {
		in.Top = -TouchDotExtend
	}
	if g.DotDirection&EdgeRight != 0 {
		in.Right = -TouchDotExtend
	}
	if g.DotDirection&EdgeBottom != 0 {
		in.Bottom = -TouchDotExtend
	}
	if g.DotDirection&EdgeLeft != 0 {
		in.Left = -TouchDotExtend
	}
	return r.Inset(in)
}

// View holds the overlay state for one layout. It is not safe for concurrent use.
type View struct {
	Layout *layout.Layout
	Color  styled.Color
	// Scale 是像素取整使用的设备缩放，<= 0 时为 1
	Scale float64

	vertical     bool
	bounds       geom.Size
	caretVisible bool
	caret        geom.Rect
	rects        []layout.SelectionRect
	marks        []geom.Rect
	start, end   Grabber
}

// New returns a view over l. The view bounds are the container size.
func New(l *layout.Layout, c styled.Color) *View {
	v := &View{Layout: l, Color: c, Scale: 1}
	if l != nil {
		v.bounds = l.Container().Size()
		v.SetVerticalForm(l.Container().IsVerticalForm())
	} else {
		v.SetVerticalForm(false)
	}
	return v
}

// SetVerticalForm switches the grabber dots between the horizontal (top/bottom)
// and vertical (right/left) arrangement.
func (v *View) SetVerticalForm(vertical bool) {
	v.vertical = vertical
	if vertical {
		v.start.DotDirection, v.end.DotDirection = EdgeRight, EdgeLeft
	} else {
		v.start.DotDirection, v.end.DotDirection = EdgeTop, EdgeBottom
	}
}

func (v *View) IsVerticalForm() bool { return v.vertical }

// SetCaret places a visible caret at pos. It reports false when the layout has no
// line for pos; the caret is hidden then.
func (v *View) SetCaret(pos layout.TextPosition) bool {
	if v.Layout == nil {
		v.caretVisible = false
		return false
	}
	r, ok := v.Layout.CaretRect(pos)
	if !ok {
		v.caretVisible = false
		return false
	}
	v.SetCaretRect(r)
	return true
}

// SetCaretRect shows the caret at r (zero width, or zero height in vertical form).
func (v *View) SetCaretRect(r geom.Rect) {
	v.caret = v.standardCaretRect(r)
	v.caretVisible = true
}

// HideCaret hides the caret.
func (v *View) HideCaret() { v.caretVisible = false }

// CaretVisible reports whether the caret is shown.
func (v *View) CaretVisible() bool { return v.caretVisible }

// CaretRect returns the caret bar rect.
func (v *View) CaretRect() geom.Rect { return v.caret }

// Select replaces the selection with the rects of r.
func (v *View) Select(r layout.TextRange) {
	if v.Layout == nil {
		v.SetSelectionRects(nil)
		return
	}
	v.SetSelectionRects(v.Layout.SelectionRects(r))
}

// SetSelectionRects lays out marks and grabbers for rects. Caret rects become
// grabbers, the others become marks when they have area.
func (v *View) SetSelectionRects(rects []layout.SelectionRect) {
	v.rects = append(v.rects[:0], rects...)
	v.marks = v.marks[:0]
	v.start.Visible, v.end.Visible = false, false
	for _, sr := range rects {
		r := geom.PixelRound(sr.Rect.Standardize(), v.scale())
		if sr.ContainsStart || sr.ContainsEnd {
			r = v.standardCaretRect(r)
			if sr.ContainsStart {
				v.start.Visible, v.start.Frame = true, r
			}
			if sr.ContainsEnd {
				v.end.Visible, v.end.Frame = true, r
			}
			continue
		}
		if r.W > 0 && r.H > 0 {
			v.marks = append(v.marks, r)
		}
	}
}

// ClearSelection removes marks and grabbers.
func (v *View) ClearSelection() { v.SetSelectionRects(nil) }

// SelectionRects returns the rects last passed to SetSelectionRects.
func (v *View) SelectionRects() []layout.SelectionRect { return v.rects }

// Marks returns the selection mark rects.
func (v *View) Marks() []geom.Rect { return v.marks }

// MarkColor returns Color at MarkAlpha.
func (v *View) MarkColor() styled.Color { return styled.WithAlpha(v.Color, MarkAlpha) }

func (v *View) StartGrabber() Grabber { return v.start }
func (v *View) EndGrabber() Grabber   { return v.end }

// IsGrabberContains reports whether p hits either grabber.
func (v *View) IsGrabberContains(p geom.Point) bool {
	return v.IsStartGrabberContains(p) || v.IsEndGrabberContains(p)
}

// IsStartGrabberContains reports whether p hits the start grabber. When the two
// touch rects overlap, the grabber whose centre is nearer wins; ties go to the end.
func (v *View) IsStartGrabberContains(p geom.Point) bool {
	if !v.start.Visible {
		return false
	}
	sr, er := v.start.TouchRect(), v.end.TouchRect()
	if _, overlap := sr.Intersect(er); overlap && v.end.Visible {
		if geom.Distance(p, center(er)) <= geom.Distance(p, center(sr)) {
			return false
		}
	}
	return sr.Contains(p)
}

// IsEndGrabberContains reports whether p hits the end grabber.
func (v *View) IsEndGrabberContains(p geom.Point) bool {
	if !v.end.Visible {
		return false
	}
	sr, er := v.start.TouchRect(), v.end.TouchRect()
	if _, overlap := sr.Intersect(er); overlap && v.start.Visible {
		if geom.Distance(p, center(er)) > geom.Distance(p, center(sr)) {
			return false
		}
	}
	return er.Contains(p)
}

// IsCaretContains reports whether p hits the visible caret, extended for touch.
func (v *View) IsCaretContains(p geom.Point) bool {
	if !v.caretVisible {
		return false
	}
	return v.caret.InsetBy(-TouchTestExtend, -TouchTestExtend).Contains(p)
}

// IsSelectionRectsContains reports whether p lies in any selection rect.
func (v *View) IsSelectionRectsContains(p geom.Point) bool {
	for _, sr := range v.rects {
		if sr.Rect.Contains(p) {
			return true
		}
	}
	return false
}

// Draw paints marks, grabbers and the caret onto g in layout coordinates.
func (v *View) Draw(g layout.Graphics) {
	g.Save()
	defer g.Restore()
	if len(v.marks) > 0 {
		p := geom.NewPath()
		for _, m := range v.marks {
			p.AddRect(m)
		}
		g.SetFillColor(v.MarkColor())
		g.FillPath(p, false)
	}
	g.SetFillColor(v.Color)
	for _, gr := range []Grabber{v.start, v.end} {
		if !gr.Visible {
			continue
		}
		p := geom.RoundedRectPath(gr.Frame, min(gr.Frame.W, gr.Frame.H)/2)
		if dot := gr.Dot(); !dot.IsEmpty() {
			p.AddEllipse(dot)
		}
		g.FillPath(p, false)
	}
	if v.caretVisible {
		g.FillPath(geom.RoundedRectPath(v.caret, min(v.caret.W, v.caret.H)/2), false)
	}
}

// standardCaretRect 把零宽（竖排为零高）的光标扩成 LineWidth 粗的竖条，并夹在视图范围内。
func (v *View) standardCaretRect(r geom.Rect) geom.Rect {
	r = r.Standardize()
	if v.vertical {
		if r.H == 0 {
			r.H = LineWidth
			r.Y -= LineWidth / 2
		}
		if r.Y < 0 {
			r.Y = 0
		} else if v.bounds.H > 0 && r.Y+r.H > v.bounds.H {
			r.Y = v.bounds.H - r.H
		}
	} else {
		if r.W == 0 {
			r.W = LineWidth
			r.X -= LineWidth / 2
		}
		if r.X < 0 {
			r.X = 0
		} else if v.bounds.W > 0 && r.X+r.W > v.bounds.W {
			r.X = v.bounds.W - r.W
		}
	}
	r = geom.PixelRound(r, v.scale())
	finite := func(f float64) float64 {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return geom.R(finite(r.X), finite(r.Y), finite(r.W), finite(r.H))
}

func (v *View) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func center(r geom.Rect) geom.Point { return geom.Pt(r.MidX(), r.MidY()) }
