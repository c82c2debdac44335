package canvasrenderer

import (
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

type shadowState struct {
	// offset 已换算到设备空间（pt），不随之后的变换旋转
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
	// hidden 表示处于无法在矢量输出中表达的图层内，绘制被丢弃
	hidden bool
}

// Graphics implements layout.Graphics on a tdewolff/canvas context.
//
// Layout coordinates are points; the canvas works in millimetres, so every draw
// composes base (pt→mm plus page origin) with the current transform. Canvas has no
// clipping, blur or Porter-Duff compositing: clips are ignored, shadows are drawn
// as an unblurred offset copy, and layers whose blend mode is not a separable
// colour blend are dropped.
type Graphics struct {
	ctx   *canvas.Context
	r     *Renderer
	base  geom.Matrix
	cur   gstate
	stack []gstate

	clipOnce sync.Once
}

var _ layout.Graphics = (*Graphics)(nil)

// NewGraphics wraps ctx. ctx must use canvas.CartesianIV so that y grows downward.
func (r *Renderer) NewGraphics(ctx *canvas.Context) *Graphics {
	return &Graphics{
		ctx:  ctx,
		r:    r,
		base: geom.Scale(toMm(1), toMm(1)),
		cur: gstate{
			ctm:    geom.Identity(),
			fill:   styled.Black,
			stroke: styled.Black,
			width:  1,
			alpha:  1,
		},
	}
}

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

func (g *Graphics) SetAlpha(a float64) { g.cur.alpha = min(max(a, 0), 1) }

func (g *Graphics) SetLineDash(phase float64, lengths []float64) {
	g.cur.dashPhase = phase
	g.cur.dashes = append([]float64(nil), lengths...)
}

func (g *Graphics) SetShadow(offset geom.Size, blur float64, c styled.Color) {
	if c.A == 0 {
		g.cur.shadow = nil
		return
	}
	g.cur.shadow = &shadowState{
		offset: g.cur.ctm.ApplyVector(geom.Pt(offset.W, offset.H)),
		blur:   blur,
		color:  c,
	}
}

// ClipPath is not supported by the vector backend; drawing stays unclipped.
func (g *Graphics) ClipPath(p *geom.Path, evenOdd bool) {
	g.clipOnce.Do(func() {
		layout.Logger().Debug("canvasrenderer: clip ignored", "bounds", p.Bounds())
	})
}

func (g *Graphics) BeginLayer() {
	g.Save()
	switch g.cur.blend {
	case styled.BlendNormal, styled.BlendMultiply, styled.BlendScreen, styled.BlendOverlay:
	default:
		layout.Logger().Debug("canvasrenderer: layer dropped", "blend", g.cur.blend.String())
		g.cur.hidden = true
	}
	g.cur.blend = styled.BlendNormal
}

func (g *Graphics) EndLayer() { g.Restore() }

func (g *Graphics) FillPath(p *geom.Path, evenOdd bool) {
	if g.cur.hidden || p.IsEmpty() {
		return
	}
	cp := toCanvasPath(p)
	g.paint(func(m geom.Matrix, shadow bool) {
		c := g.cur.fill
		if shadow {
			c = g.cur.shadow.color
		}
		g.ctx.Push()
		defer g.ctx.Pop()
		g.ctx.SetView(toCanvasMatrix(m))
		g.ctx.SetFillColor(g.withAlpha(c))
		g.ctx.SetStrokeColor(canvas.Transparent)
		g.ctx.FillRule = canvas.NonZero
		if evenOdd {
			g.ctx.FillRule = canvas.EvenOdd
		}
		g.ctx.DrawPath(0, 0, cp)
	})
}

func (g *Graphics) StrokePath(p *geom.Path) {
	if g.cur.hidden || p.IsEmpty() || g.cur.width <= 0 {
		return
	}
	cp := toCanvasPath(p)
	g.paint(func(m geom.Matrix, shadow bool) {
		c := g.cur.stroke
		if shadow {
			c = g.cur.shadow.color
		}
		g.ctx.Push()
		defer g.ctx.Pop()
		g.ctx.SetView(toCanvasMatrix(m))
		g.ctx.SetFillColor(canvas.Transparent)
		g.ctx.SetStrokeColor(g.withAlpha(c))
		g.ctx.SetStrokeWidth(g.cur.width)
		g.ctx.SetStrokeCapper(capper(g.cur.cap))
		g.ctx.SetStrokeJoiner(joiner(g.cur.join))
		if len(g.cur.dashes) > 0 {
			g.ctx.SetDashes(g.cur.dashPhase, g.cur.dashes...)
		}
		g.ctx.DrawPath(0, 0, cp)
	})
}

func (g *Graphics) ShowGlyphs(font styled.Font, glyphs []layout.Glyph, origin geom.Point) {
	if g.cur.hidden || len(glyphs) == 0 {
		return
	}
	g.paint(func(m geom.Matrix, shadow bool) {
		c := g.cur.fill
		if shadow {
			c = g.cur.shadow.color
		}
		face, err := g.r.face(font, g.withAlpha(c))
		if err != nil {
			layout.Logger().Warn("canvasrenderer: font unavailable", "family", font.Family, "err", err)
			return
		}
		for _, gl := range glyphs {
			if gl.Text == "" {
				continue
			}
			at := m.Multiply(geom.Translate(origin.X+gl.Position.X, origin.Y-gl.Position.Y))
			g.ctx.Push()
			g.ctx.SetView(toCanvasMatrix(at))
			g.ctx.DrawText(0, 0, canvas.NewTextLine(face, gl.Text, canvas.Left))
			g.ctx.Pop()
		}
	})
}

// paint 先绘制阴影副本，再绘制本体。draw 收到的矩阵已包含 base。
func (g *Graphics) paint(draw func(m geom.Matrix, shadow bool)) {
	if s := g.cur.shadow; s != nil {
		m := g.base.Multiply(geom.Translate(s.offset.X, s.offset.Y)).Multiply(g.cur.ctm)
		draw(m, true)
	}
	draw(g.base.Multiply(g.cur.ctm), false)
}

func (g *Graphics) withAlpha(c styled.Color) styled.Color {
	if g.cur.alpha < 1 {
		c.A = uint8(float64(c.A)*g.cur.alpha + 0.5)
	}
	return c
}

func toCanvasMatrix(m geom.Matrix) canvas.Matrix {
	return canvas.Matrix{{m.A, m.B, m.C}, {m.D, m.E, m.F}}
}

func toCanvasPath(p *geom.Path) *canvas.Path {
	out := &canvas.Path{}
	for _, el := range p.Elements() {
		switch e := el.(type) {
		case geom.MoveTo:
			out.MoveTo(e.Point.X, e.Point.Y)
		case geom.LineTo:
			out.LineTo(e.Point.X, e.Point.Y)
		case geom.QuadTo:
			out.QuadTo(e.Control.X, e.Control.Y, e.Point.X, e.Point.Y)
		case geom.CubeTo:
			out.CubeTo(e.Control1.X, e.Control1.Y, e.Control2.X, e.Control2.Y, e.Point.X, e.Point.Y)
		case geom.Close:
			out.Close()
		}
	}
	return out
}

func capper(c layout.LineCap) canvas.Capper {
	switch c {
	case layout.CapRound:
		return canvas.RoundCap
	case layout.CapSquare:
		return canvas.SquareCap
	default:
		return canvas.ButtCap
	}
}

func joiner(j styled.LineJoin) canvas.Joiner {
	switch j {
	case styled.JoinRound:
		return canvas.RoundJoin
	case styled.JoinBevel:
		return canvas.BevelJoin
	default:
		return canvas.MiterJoin
	}
}
