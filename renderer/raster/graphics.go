package raster

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

type shadowState struct {
	// offset 为设备像素，SetShadow 时固定
	offset geom.Point
	blur   float64
	color  styled.Color
}

type gstate struct {
	ctm       geom.Matrix
	fill      styled.Color
	stroke    styled.Color
	width     float64
	cap       layout.LineCap
	join      styled.LineJoin
	dashPhase float64
	dashes    []float64
	alpha     float64
	blend     styled.BlendMode
	shadow    *shadowState
	// clip 是设备像素上的覆盖率，nil 表示不裁剪
	clip *gg.Mask
}

type surface struct {
	pm *gg.Pixmap
	dc *gg.Context
	// 以下是 BeginLayer 时记录的合成参数
	blend  styled.BlendMode
	alpha  float64
	shadow *shadowState
	clip   *gg.Mask
}

// Graphics implements layout.Graphics by rasterising each operation with gg into a
// scratch surface and compositing it onto the current layer.
type Graphics struct {
	r    *Renderer
	w, h int
	base geom.Matrix

	layers  []*surface // layers[0] 是页面本身
	scratch *surface
	shade   *gg.Pixmap

	cur   gstate
	stack []gstate
}

var _ layout.Graphics = (*Graphics)(nil)

func newSurface(w, h int) *surface {
	pm := gg.NewPixmap(w, h)
	return &surface{pm: pm, dc: gg.NewContext(w, h, gg.WithPixmap(pm))}
}

// NewGraphics returns a transparent w×h pixel surface; scale maps points to pixels.
func (r *Renderer) NewGraphics(w, h int, scale float64) *Graphics {
	return &Graphics{
		r:       r,
		w:       w,
		h:       h,
		base:    geom.Scale(scale, scale),
		layers:  []*surface{newSurface(w, h)},
		scratch: newSurface(w, h),
		shade:   gg.NewPixmap(w, h),
		cur: gstate{
			ctm:    geom.Identity(),
			fill:   styled.Black,
			stroke: styled.Black,
			width:  1,
			alpha:  1,
		},
	}
}

// Image returns a copy of the page surface.
func (g *Graphics) Image() *image.NRGBA { return toNRGBA(g.layers[0].pm) }

// Clear fills the page surface with c.
func (g *Graphics) Clear(c styled.Color) { g.layers[0].dc.ClearWithColor(straight(c)) }

func (g *Graphics) Save() {
	s := g.cur
	s.dashes = append([]float64(nil), g.cur.dashes...)
	g.stack = append(g.stack, s)
}

func (g *Graphics) Restore() {
	n := len(g.stack)
	if n == 0 {
		return
	}
	g.cur = g.stack[n-1]
	g.stack = g.stack[:n-1]
}

func (g *Graphics) Translate(x, y float64) { g.Concat(geom.Translate(x, y)) }
func (g *Graphics) Scale(sx, sy float64)   { g.Concat(geom.Scale(sx, sy)) }
func (g *Graphics) Rotate(angle float64)   { g.Concat(geom.Rotate(angle)) }
func (g *Graphics) Concat(m geom.Matrix)   { g.cur.ctm = g.cur.ctm.Multiply(m) }

func (g *Graphics) SetFillColor(c styled.Color)    { g.cur.fill = c }
func (g *Graphics) SetStrokeColor(c styled.Color)  { g.cur.stroke = c }
func (g *Graphics) SetLineWidth(w float64)         { g.cur.width = w }
func (g *Graphics) SetLineCap(c layout.LineCap)    { g.cur.cap = c }
func (g *Graphics) SetLineJoin(j styled.LineJoin)  { g.cur.join = j }
func (g *Graphics) SetBlendMode(m styled.BlendMode) { g.cur.blend = m }
func (g *Graphics) SetAlpha(a float64)             { g.cur.alpha = min(max(a, 0), 1) }

func (g *Graphics) SetLineDash(phase float64, lengths []float64) {
	g.cur.dashPhase = phase
	g.cur.dashes = append([]float64(nil), lengths...)
}

func (g *Graphics) SetShadow(offset geom.Size, blur float64, c styled.Color) {
	if c.A == 0 {
		g.cur.shadow = nil
		return
	}
	m := g.device()
	g.cur.shadow = &shadowState{
		offset: m.ApplyVector(geom.Pt(offset.W, offset.H)),
		blur:   blur * g.base.A,
		color:  c,
	}
}

func (g *Graphics) ClipPath(p *geom.Path, evenOdd bool) {
	mask := gg.NewMask(g.w, g.h)
	if !p.IsEmpty() {
		s := g.scratch
		clearRect(s.pm, s.pm.Bounds())
		trace(s.dc, g.device(), p)
		s.dc.SetFillRule(fillRule(evenOdd))
		s.dc.SetRGBA(1, 1, 1, 1)
		_ = s.dc.Fill()
		data, src := mask.Data(), s.pm.Data()
		for i := range data {
			data[i] = src[i*4+3]
		}
		clearRect(s.pm, s.pm.Bounds())
	}
	if old := g.cur.clip; old != nil {
		data, prev := mask.Data(), old.Data()
		for i := range data {
			data[i] = uint8(int(data[i]) * int(prev[i]) / 255)
		}
	}
	g.cur.clip = mask
}

func (g *Graphics) BeginLayer() {
	g.Save()
	l := newSurface(g.w, g.h)
	l.blend, l.alpha, l.shadow, l.clip = g.cur.blend, g.cur.alpha, g.cur.shadow, g.cur.clip
	g.layers = append(g.layers, l)
	// 图层内部从干净的合成状态开始
	g.cur.blend, g.cur.alpha, g.cur.shadow, g.cur.clip = styled.BlendNormal, 1, nil, nil
}

func (g *Graphics) EndLayer() {
	if len(g.layers) < 2 {
		return
	}
	l := g.layers[len(g.layers)-1]
	g.layers = g.layers[:len(g.layers)-1]
	g.Restore()
	g.compositeOnto(g.top(), l.pm, l.pm.Bounds(), l.blend, l.alpha, l.shadow, l.clip)
}

func (g *Graphics) FillPath(p *geom.Path, evenOdd bool) {
	if p.IsEmpty() || g.cur.fill.A == 0 {
		return
	}
	g.draw(p, 0, func(dc *gg.Context) {
		dc.SetFillRule(fillRule(evenOdd))
		dc.SetRGBA(rgba(g.cur.fill))
		_ = dc.Fill()
	})
}

func (g *Graphics) StrokePath(p *geom.Path) {
	if p.IsEmpty() || g.cur.stroke.A == 0 || g.cur.width <= 0 {
		return
	}
	g.draw(p, g.cur.width, func(dc *gg.Context) {
		dc.SetRGBA(rgba(g.cur.stroke))
		dc.SetLineWidth(g.cur.width)
		dc.SetLineCap(lineCap(g.cur.cap))
		dc.SetLineJoin(lineJoin(g.cur.join))
		if len(g.cur.dashes) > 0 {
			dc.SetDash(g.cur.dashes...)
			dc.SetDashOffset(g.cur.dashPhase)
		} else {
			dc.ClearDash()
		}
		_ = dc.Stroke()
	})
}

func (g *Graphics) ShowGlyphs(font styled.Font, glyphs []layout.Glyph, origin geom.Point) {
	if g.cur.fill.A == 0 || len(glyphs) == 0 {
		return
	}
	p := geom.NewPath()
	for _, gl := range glyphs {
		at := geom.Pt(origin.X+gl.Position.X, origin.Y-gl.Position.Y)
		if len(gl.Shaped) > 0 {
			if err := g.r.shapedPath(p, font, gl.Shaped, at); err != nil {
				layout.Logger().Warn("raster: glyph outline unavailable", "family", font.Family, "text", gl.Text, "err", err)
				return
			}
			continue
		}
		if gl.Text == "" {
			continue
		}
		if err := g.r.glyphPath(p, font, gl.Text, at); err != nil {
			layout.Logger().Warn("raster: glyph outline unavailable", "family", font.Family, "text", gl.Text, "err", err)
			return
		}
	}
	g.FillPath(p, false)
}

func (g *Graphics) top() *surface { return g.layers[len(g.layers)-1] }

func (g *Graphics) device() geom.Matrix { return g.base.Multiply(g.cur.ctm) }

// draw 在 scratch 上光栅化 p，再按当前混合模式、透明度、阴影与裁剪合成到当前图层。
func (g *Graphics) draw(p *geom.Path, strokeWidth float64, render func(dc *gg.Context)) {
	m := g.device()
	pad := strokeWidth*math.Max(m.ScaleFactor(), 1) + 2
	bounds := pixelRect(m.ApplyRect(p.Bounds()), pad)
	s := g.scratch
	clearRect(s.pm, bounds)
	trace(s.dc, m, p)
	render(s.dc)
	rect := bounds
	if unbounded(g.cur.blend) {
		rect = s.pm.Bounds()
	}
	g.compositeOnto(g.top(), s.pm, rect, g.cur.blend, g.cur.alpha, g.cur.shadow, g.cur.clip)
	clearRect(s.pm, bounds)
}

func (g *Graphics) compositeOnto(dst *surface, src *gg.Pixmap, rect image.Rectangle, mode styled.BlendMode, alpha float64, shadow *shadowState, clip *gg.Mask) {
	if shadow != nil {
		dx, dy := int(math.Round(shadow.offset.X)), int(math.Round(shadow.offset.Y))
		spread := int(math.Ceil(shadow.blur)) + 1
		srect := rect.Add(image.Pt(dx, dy)).Inset(-spread).Intersect(src.Bounds())
		castShadow(g.shade, src, srect, dx, dy, shadow.blur, shadow.color)
		composite(dst.pm, g.shade, srect, mode, alpha, clip)
		clearRect(g.shade, srect)
	}
	composite(dst.pm, src, rect, mode, alpha, clip)
}

// trace 把 p 经 m 变换后写入 dc 的当前路径。
func trace(dc *gg.Context, m geom.Matrix, p *geom.Path) {
	dc.ClearPath()
	dc.SetTransform(gg.Matrix{A: m.A, B: m.B, C: m.C, D: m.D, E: m.E, F: m.F})
	for _, el := range p.Elements() {
		switch e := el.(type) {
		case geom.MoveTo:
			dc.MoveTo(e.Point.X, e.Point.Y)
		case geom.LineTo:
			dc.LineTo(e.Point.X, e.Point.Y)
		case geom.QuadTo:
			dc.QuadraticTo(e.Control.X, e.Control.Y, e.Point.X, e.Point.Y)
		case geom.CubeTo:
			dc.CubicTo(e.Control1.X, e.Control1.Y, e.Control2.X, e.Control2.Y, e.Point.X, e.Point.Y)
		case geom.Close:
			dc.ClosePath()
		}
	}
}

func pixelRect(r geom.Rect, pad float64) image.Rectangle {
	r = r.Standardize()
	return image.Rect(
		int(math.Floor(r.MinX()-pad)), int(math.Floor(r.MinY()-pad)),
		int(math.Ceil(r.MaxX()+pad)), int(math.Ceil(r.MaxY()+pad)),
	)
}

func rgba(c styled.Color) (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

func straight(c styled.Color) gg.RGBA {
	r, g, b, a := rgba(c)
	return gg.RGBA{R: r, G: g, B: b, A: a}
}

func fillRule(evenOdd bool) gg.FillRule {
	if evenOdd {
		return gg.FillRuleEvenOdd
	}
	return gg.FillRuleNonZero
}

func lineCap(c layout.LineCap) gg.LineCap {
	switch c {
	case layout.CapRound:
		return gg.LineCapRound
	case layout.CapSquare:
		return gg.LineCapSquare
	default:
		return gg.LineCapButt
	}
}

func lineJoin(j styled.LineJoin) gg.LineJoin {
	switch j {
	case styled.JoinRound:
		return gg.LineJoinRound
	case styled.JoinBevel:
		return gg.LineJoinBevel
	default:
		return gg.LineJoinMiter
	}
}
