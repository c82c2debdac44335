package layout

import (
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// lineMetrics 取一行内所有 run 的最大 x 高度、最低下划线位置与最粗下划线
func lineMetrics(runs []Run) (xHeight, underlinePos, thickness float64) {
	for i := range runs {
		xHeight = max(xHeight, runs[i].XHeight)
		underlinePos = min(underlinePos, runs[i].UnderlinePosition)
		thickness = max(thickness, runs[i].UnderlineThickness)
	}
	return
}

func (l *Layout) drawDecoration(g Graphics, opts DrawOptions, kind styled.Kind) {
	vertical := l.container.verticalForm
	vOff := l.verticalOffset(opts.Size)
	alter := offsetAlterX(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X+vOff, opts.Origin.Y)

	for i := range l.lines {
		if opts.cancelled() {
			return
		}
		line := l.displayLine(i)
		xHeight, underlinePos, thickness := lineMetrics(line.shaped.Runs)
		for r := range line.shaped.Runs {
			run := &line.shaped.Runs[r]
			if len(run.Glyphs) == 0 {
				continue
			}
			deco := run.Attrs.Underline
			if kind == styled.KindStrikethrough {
				deco = run.Attrs.Strikethrough
			}
			if deco == nil || deco.Style.Weight() == 0 {
				continue
			}

			var start geom.Point
			rp := run.Position()
			if vertical {
				start.Y = rp.X + line.Position.Y
				if kind == styled.KindUnderline {
					start.X = line.Position.X + underlinePos
				} else {
					start.X = line.Position.X + xHeight/2
				}
			} else {
				start.X = rp.X + line.Position.X
				if kind == styled.KindUnderline {
					start.Y = line.Position.Y - underlinePos
				} else {
					start.Y = line.Position.Y - xHeight/2
				}
			}

			c := deco.Color
			if c.A == 0 {
				c = run.Attrs.ColorOrDefault()
			}
			width := thickness
			if deco.Width > 0 {
				width = deco.Width
			}
			for s := deco.Shadow; s != nil; s = s.SubShadow {
				if s.Color.A == 0 {
					continue
				}
				g.Save()
				g.SetShadow(geom.Size{W: s.Offset.W - alter, H: s.Offset.H}, s.Radius, s.Color)
				g.SetBlendMode(s.BlendMode)
				g.Translate(alter, 0)
				drawLineStyle(g, run.Width, width, deco.Style, start, c, vertical)
				g.Restore()
			}
			drawLineStyle(g, run.Width, width, deco.Style, start, c, vertical)
		}
	}
}

// crossAxis 让奇数像素宽的线落在像素中心，偶数像素宽的线落在像素边界
func crossAxis(v, w float64) float64 {
	if math.Abs(w-math.Floor(w)) < 0.1 {
		px := int(w)
		if px == 0 || px%2 == 1 {
			return geom.PixelHalf(v, 1)
		}
		return geom.PixelFloor(v, 1)
	}
	return v
}

// drawLineStyle 从 pos 起沿行方向绘制长度为 length 的装饰线。
func drawLineStyle(g Graphics, length, lineWidth float64, style styled.LineStyle, pos geom.Point, c styled.Color, vertical bool) {
	weight := style.Weight()
	if weight == 0 {
		return
	}
	w := lineWidth
	if weight == styled.LineStyleThick {
		w = lineWidth * 2
	}
	g.Save()
	defer g.Restore()
	g.SetStrokeColor(c)

	p := geom.NewPath()
	if vertical {
		y1 := math.Round(pos.Y)
		y2 := math.Round(pos.Y + length)
		x := crossAxis(pos.X, w)
		setLinePattern(g, style, lineWidth, pos.Y)
		g.SetLineWidth(w)
		if weight == styled.LineStyleDouble {
			p.MoveTo(x-w, y1)
			p.LineTo(x-w, y2)
			p.MoveTo(x+w, y1)
			p.LineTo(x+w, y2)
		} else {
			p.MoveTo(x, y1)
			p.LineTo(x, y2)
		}
	} else {
		x1 := math.Round(pos.X)
		x2 := math.Round(pos.X + length)
		y := crossAxis(pos.Y, w)
		setLinePattern(g, style, lineWidth, pos.X)
		g.SetLineWidth(w)
		if weight == styled.LineStyleDouble {
			p.MoveTo(x1, y-w)
			p.LineTo(x2, y-w)
			p.MoveTo(x1, y+w)
			p.LineTo(x2, y+w)
		} else {
			p.MoveTo(x1, y)
			p.LineTo(x2, y)
		}
	}
	g.StrokePath(p)
}
