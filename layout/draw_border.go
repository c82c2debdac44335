package layout

import (
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// 线型基准长度，实际长度乘以线宽
const (
	patternDash  = 12.0
	patternDot   = 5.0
	patternSpace = 3.0
)

// setLinePattern 设置线宽、端点与虚线样式。
func setLinePattern(g Graphics, style styled.LineStyle, width, phase float64) {
	g.SetLineWidth(width)
	g.SetLineCap(CapButt)
	g.SetLineJoin(styled.JoinMiter)
	dash, dot, space := patternDash*width, patternDot*width, patternSpace*width
	switch style.Pattern() {
	case styled.PatternSolid:
		g.SetLineDash(phase, nil)
	case styled.PatternDot:
		g.SetLineDash(phase, []float64{dot, space})
	case styled.PatternDash:
		g.SetLineDash(phase, []float64{dash, space})
	case styled.PatternDashDot:
		g.SetLineDash(phase, []float64{dash, space, dot, space})
	case styled.PatternDashDotDot:
		g.SetLineDash(phase, []float64{dash, space, dot, space, dot, space})
	case styled.PatternCircleDot:
		g.SetLineDash(phase, []float64{0, 3 * width})
		g.SetLineCap(CapRound)
		g.SetLineJoin(styled.JoinRound)
	}
}

// mergeRectInSameLine 合并同一视觉行上的两个矩形，副轴沿用 a 的原点。
func mergeRectInSameLine(a, b geom.Rect, vertical bool) geom.Rect {
	if vertical {
		top := min(a.Y, b.Y)
		bottom := max(a.MaxY(), b.MaxY())
		return geom.R(a.X, top, max(a.W, b.W), bottom-top)
	}
	left := min(a.X, b.X)
	right := max(a.MaxX(), b.MaxX())
	return geom.R(left, a.Y, right-left, max(a.H, b.H))
}

// mergeBorderRects folds per-line rectangles whose secondary-axis origin differs by
// less than one unit.
func mergeBorderRects(rects []geom.Rect, vertical bool) []geom.Rect {
	if len(rects) == 0 {
		return nil
	}
	var out []geom.Rect
	cur := rects[0]
	for _, r := range rects[1:] {
		d := r.Y - cur.Y
		if vertical {
			d = r.X - cur.X
		}
		if math.Abs(d) < 1 {
			cur = mergeRectInSameLine(r, cur, vertical)
			continue
		}
		out = append(out, cur)
		cur = r
	}
	if cur != (geom.Rect{}) {
		out = append(out, cur)
	}
	return out
}

type runRef struct {
	line *Line
	run  int
}

func (l *Layout) runRefs() []runRef {
	var refs []runRef
	for i := range l.lines {
		line := l.displayLine(i)
		for r := range line.shaped.Runs {
			refs = append(refs, runRef{line: line, run: r})
		}
	}
	return refs
}

func borderOf(a *styled.Attributes, background bool) *styled.Border {
	if background {
		return a.BackgroundBorder
	}
	return a.Border
}

// borderRunRect 是边框计算使用的 run 框，竖排时横向位置取自所在行
func borderRunRect(line *Line, run *Run, vOff float64) geom.Rect {
	rp := run.Position()
	if line.Vertical {
		return geom.R(vOff+line.Position.X-run.Descent, rp.X+line.Position.Y, run.Ascent+run.Descent, run.Width)
	}
	return geom.R(rp.X+line.Position.X, line.Position.Y-run.Ascent, run.Width, run.Ascent+run.Descent)
}

// drawBorder 绘制文字边框或背景边框。属性相同的连续 run（可跨行）合并为一组矩形一起绘制。
func (l *Layout) drawBorder(g Graphics, opts DrawOptions, background bool) {
	vertical := l.container.verticalForm
	vOff := l.verticalOffset(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)

	refs := l.runRefs()
	textLen := l.text.Len()
	for i := 0; i < len(refs); i++ {
		if opts.cancelled() {
			return
		}
		ref := refs[i]
		run := &ref.line.shaped.Runs[ref.run]
		if len(run.Glyphs) == 0 {
			continue
		}
		border := borderOf(&run.Attrs, background)
		if border == nil || run.Range.Length == 0 || run.Range.End() > textLen {
			continue
		}

		var rects []geom.Rect
		var ext geom.Rect
		var extLine *Line
		j := i
		for ; j < len(refs); j++ {
			iRef := refs[j]
			iRun := &iRef.line.shaped.Runs[iRef.run]
			if !border.Equal(borderOf(&iRun.Attrs, background)) {
				break
			}
			rect := borderRunRect(iRef.line, iRun, vOff)
			if iRef.line != extLine {
				if extLine != nil {
					rects = append(rects, ext)
				}
				extLine, ext = iRef.line, rect
				continue
			}
			ext = ext.Union(rect)
		}
		if extLine != nil {
			rects = append(rects, ext)
		}
		drawBorderRects(g, opts.Size, border, mergeBorderRects(rects, vertical), vertical)
		i = j - 1
	}
}

// drawBlockBorder 绘制整行宽度的块边框，连续多行共享同一边框时合并为一个矩形。
func (l *Layout) drawBlockBorder(g Graphics, opts DrawOptions) {
	c := l.container
	vertical := c.verticalForm
	vOff := l.verticalOffset(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)

	n := len(l.lines)
	for li := 0; li < n; li++ {
		if opts.cancelled() {
			return
		}
		line := l.displayLine(li)
		for _, run := range line.shaped.Runs {
			if len(run.Glyphs) == 0 || run.Attrs.BlockBorder == nil {
				continue
			}
			border := run.Attrs.BlockBorder

			start := li
			for start > 0 && l.lines[start-1].Row == line.Row {
				start--
			}
			union := l.lines[start].Bounds()
			cont := start
			contRow := l.lines[start].Row
			for {
				union = union.Union(l.lines[cont].Bounds())
				if cont+1 == n {
					break
				}
				next := l.lines[cont+1]
				if next.Row != contRow {
					attrs, _ := l.text.AttributesAt(next.Range().Location)
					if !border.Equal(attrs.BlockBorder) {
						break
					}
					contRow++
				}
				cont++
			}

			if vertical {
				union.Y = c.insets.Top
				union.H = c.size.H - c.insets.Top - c.insets.Bottom
			} else {
				union.X = c.insets.Left
				union.W = c.size.W - c.insets.Left - c.insets.Right
			}
			union.X += vOff
			drawBorderRects(g, opts.Size, border, []geom.Rect{union}, vertical)
			li = cont
			break
		}
	}
}

func borderInsets(b *styled.Border, vertical bool) geom.Insets {
	if vertical {
		return geom.RotateVertical(b.Insets)
	}
	return b.Insets
}

// outsideClip 返回“画布外框 + 路径”的组合，配合奇偶规则裁掉路径内部
func outsideClip(path *geom.Path, size geom.Size, strokeWidth float64) *geom.Path {
	bounds := path.Bounds().Union(geom.R(0, 0, size.W, size.H))
	bounds = bounds.InsetBy(-2*strokeWidth, -2*strokeWidth)
	clip := geom.RectPath(bounds)
	clip.AddPath(path)
	return clip
}

// drawBorderRects 绘制一组边框矩形：填充、单/粗线描边、双线的第二条线，阴影通过透明图层整体投射。
func drawBorderRects(g Graphics, size geom.Size, b *styled.Border, rects []geom.Rect, vertical bool) {
	if len(rects) == 0 {
		return
	}
	insets := borderInsets(b, vertical)
	shadow := b.Shadow != nil && b.Shadow.Color.A > 0
	if shadow {
		g.Save()
		g.SetShadow(b.Shadow.Offset, b.Shadow.Radius, b.Shadow.Color)
		g.BeginLayer()
	}

	paths := make([]*geom.Path, 0, len(rects))
	for _, r := range rects {
		r = geom.PixelRound(r.Inset(insets), 1)
		paths = append(paths, geom.RoundedRectPath(r, b.CornerRadius))
	}

	if b.FillColor.A > 0 {
		g.Save()
		g.SetFillColor(b.FillColor)
		fill := geom.NewPath()
		for _, p := range paths {
			fill.AddPath(p)
		}
		g.FillPath(fill, false)
		g.Restore()
	}

	if b.StrokeColor.A > 0 && b.LineStyle.Weight() > 0 && b.StrokeWidth > 0 {
		g.Save()
		for _, p := range paths {
			g.ClipPath(outsideClip(p, size, b.StrokeWidth), true)
		}
		g.SetStrokeColor(b.StrokeColor)
		setLinePattern(g, b.LineStyle, b.StrokeWidth, 0)
		inset := -b.StrokeWidth * 0.5
		if b.LineStyle.Weight() == styled.LineStyleThick {
			inset *= 2
			g.SetLineWidth(b.StrokeWidth * 2)
		}
		radiusDelta := -inset
		if b.CornerRadius <= 0 {
			radiusDelta = 0
		}
		g.SetLineJoin(b.LineJoin)
		stroke := geom.NewPath()
		for _, r := range rects {
			r = r.Inset(insets).InsetBy(inset, inset)
			stroke.AddRoundedRect(r, b.CornerRadius+radiusDelta)
		}
		g.StrokePath(stroke)
		g.Restore()

		if b.LineStyle.Weight() == styled.LineStyleDouble {
			g.Save()
			for _, r := range rects {
				r = r.Inset(insets).InsetBy(-b.StrokeWidth*2, -b.StrokeWidth*2)
				p := geom.RoundedRectPath(r, b.CornerRadius+2*b.StrokeWidth)
				g.ClipPath(outsideClip(p, size, b.StrokeWidth), true)
			}
			g.SetStrokeColor(b.StrokeColor)
			setLinePattern(g, b.LineStyle, b.StrokeWidth, 0)
			g.SetLineJoin(b.LineJoin)
			inset := -b.StrokeWidth * 2.5
			radiusDelta := b.StrokeWidth * 2
			if b.CornerRadius <= 0 {
				radiusDelta = 0
			}
			stroke := geom.NewPath()
			for _, r := range rects {
				r = r.Inset(insets).InsetBy(inset, inset)
				stroke.AddRoundedRect(r, b.CornerRadius+radiusDelta)
			}
			g.StrokePath(stroke)
			g.Restore()
		}
	}

	if shadow {
		g.EndLayer()
		g.Restore()
	}
}
