package layout

import (
	"strconv"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// debugFont 用于行号与 run 序号
var debugFont = styled.Font{Family: styled.DefaultFont.Family, Size: 6}

func fillRect(g Graphics, c styled.Color, r geom.Rect) {
	g.SetFillColor(c)
	g.FillPath(geom.RectPath(geom.PixelRound(r, 1)), false)
}

func strokeRect(g Graphics, c styled.Color, r geom.Rect) {
	g.SetStrokeColor(c)
	g.StrokePath(geom.RectPath(geom.PixelHalfRect(r, 1)))
}

func strokeSegment(g Graphics, c styled.Color, a, b geom.Point) {
	p := geom.NewPath()
	p.MoveTo(a.X, a.Y)
	p.LineTo(b.X, b.Y)
	g.SetStrokeColor(c)
	g.StrokePath(p)
}

func drawLabel(g Graphics, c styled.Color, label string, at geom.Point) {
	g.SetFillColor(c)
	g.ShowGlyphs(debugFont, []Glyph{{Text: label, Length: len(label)}}, at)
}

// drawDebug 绘制调试信息：区域、行框、基线、行号、run 框与字形框。
func (l *Layout) drawDebug(g Graphics, opts DrawOptions) {
	op := opts.Debug
	c := l.container
	vertical := c.verticalForm
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)
	g.SetLineWidth(1)
	g.SetLineDash(0, nil)
	g.SetLineJoin(styled.JoinMiter)
	g.SetLineCap(CapButt)
	g.Translate(l.verticalOffset(opts.Size), 0)

	if op.CTFrameBorder.A > 0 || op.CTFrameFill.A > 0 {
		path := c.path.Clone()
		if path == nil {
			rect := geom.R(0, 0, c.size.W, c.size.H).Inset(c.insets)
			if op.CTFrameBorder.A > 0 {
				rect = geom.PixelHalfRect(rect, 1)
			} else {
				rect = geom.PixelRound(rect, 1)
			}
			path = geom.RectPath(rect)
		}
		for _, ex := range c.exclusionPaths {
			path.AddPath(ex)
		}
		if op.CTFrameFill.A > 0 {
			g.SetFillColor(op.CTFrameFill)
			g.FillPath(path, c.pathFillEvenOdd)
		}
		if op.CTFrameBorder.A > 0 {
			g.SetStrokeColor(op.CTFrameBorder)
			g.StrokePath(path)
		}
	}

	for i := range l.lines {
		if opts.cancelled() {
			return
		}
		line := l.displayLine(i)
		bounds := line.Bounds()
		if op.CTLineFill.A > 0 {
			fillRect(g, op.CTLineFill, bounds)
		}
		if op.CTLineBorder.A > 0 {
			strokeRect(g, op.CTLineBorder, bounds)
		}
		if op.Baseline.A > 0 {
			if vertical {
				x := geom.PixelHalf(line.Position.X, 1)
				strokeSegment(g, op.Baseline, geom.Pt(x, geom.PixelHalf(line.Top(), 1)), geom.Pt(x, geom.PixelHalf(line.Bottom(), 1)))
			} else {
				y := geom.PixelHalf(line.Position.Y, 1)
				x1 := geom.PixelHalf(bounds.X, 1)
				strokeSegment(g, op.Baseline, geom.Pt(x1, y), geom.Pt(geom.PixelHalf(x1+bounds.W, 1), y))
			}
		}
		if op.CTLineNumber.A > 0 {
			dy := 6.0
			if vertical {
				dy = 1
			}
			drawLabel(g, op.CTLineNumber, strconv.Itoa(i), geom.Pt(line.Position.X, line.Position.Y-dy))
		}
		if op.CTRunFill.A == 0 && op.CTRunBorder.A == 0 && op.CTRunNumber.A == 0 &&
			op.CGGlyphFill.A == 0 && op.CGGlyphBorder.A == 0 {
			continue
		}
		for r := range line.shaped.Runs {
			if opts.cancelled() {
				return
			}
			run := &line.shaped.Runs[r]
			if len(run.Glyphs) == 0 {
				continue
			}
			box := line.runRect(run)
			if op.CTRunFill.A > 0 {
				fillRect(g, op.CTRunFill, box)
			}
			if op.CTRunBorder.A > 0 {
				strokeRect(g, op.CTRunBorder, box)
			}
			if op.CTRunNumber.A > 0 {
				drawLabel(g, op.CTRunNumber, strconv.Itoa(r), geom.Pt(box.X, box.Y-2))
			}
			if op.CGGlyphFill.A == 0 && op.CGGlyphBorder.A == 0 {
				continue
			}
			for _, gl := range run.Glyphs {
				var rect geom.Rect
				if vertical {
					rect = geom.R(box.X, line.Position.Y+gl.Position.X, box.W, gl.Advance)
				} else {
					rect = geom.R(line.Position.X+gl.Position.X, box.Y, gl.Advance, box.H)
				}
				if op.CGGlyphFill.A > 0 {
					fillRect(g, op.CGGlyphFill, rect)
				}
				if op.CGGlyphBorder.A > 0 {
					strokeRect(g, op.CGGlyphBorder, rect)
				}
			}
		}
	}
}
