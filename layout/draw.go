package layout

import (
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// DrawOptions 配置一次绘制。
type DrawOptions struct {
	// Size 是目标画布尺寸，为零时使用容器尺寸
	Size geom.Size
	// Origin 是布局原点在画布中的位置
	Origin geom.Point
	Debug  *DebugOption
	// Cancel 在每个绘制阶段和每个 run 之前轮询，返回 true 时立即停止
	Cancel func() bool
	// AttachmentDrawer 绘制附件内容，为 nil 时跳过附件
	AttachmentDrawer AttachmentDrawer
}

func (o DrawOptions) cancelled() bool { return o.Cancel != nil && o.Cancel() }

// Draw paints the layout in the fixed pass order: block border, background border,
// shadow, underline, text, attachments, inner shadow, strikethrough, border, debug.
// A cancelled draw stops silently.
func (l *Layout) Draw(g Graphics, opts DrawOptions) {
	if opts.Size.IsEmpty() {
		opts.Size = l.container.size
	}
	type pass struct {
		need bool
		fn   func(Graphics, DrawOptions)
	}
	passes := []pass{
		{l.needDrawBlockBorder, l.drawBlockBorder},
		{l.needDrawBackgroundBorder, func(g Graphics, o DrawOptions) { l.drawBorder(g, o, true) }},
		{l.needDrawShadow, l.drawShadow},
		{l.needDrawUnderline, func(g Graphics, o DrawOptions) { l.drawDecoration(g, o, styled.KindUnderline) }},
		{l.needDrawText, l.drawText},
		{l.needDrawAttachment && opts.AttachmentDrawer != nil, l.drawAttachments},
		{l.needDrawInnerShadow, l.drawInnerShadow},
		{l.needDrawStrikethrough, func(g Graphics, o DrawOptions) { l.drawDecoration(g, o, styled.KindStrikethrough) }},
		{l.needDrawBorder, func(g Graphics, o DrawOptions) { l.drawBorder(g, o, false) }},
		{opts.Debug.NeedDrawDebug(), l.drawDebug},
	}
	for _, p := range passes {
		if !p.need {
			continue
		}
		if opts.cancelled() {
			Logger().Debug("layout: draw cancelled")
			return
		}
		p.fn(g, opts)
	}
}

// verticalOffset 是竖排时画布宽于容器的部分，内容贴右对齐
func (l *Layout) verticalOffset(size geom.Size) float64 {
	if l.container.verticalForm {
		return size.W - l.container.size.W
	}
	return 0
}

func (l *Layout) drawText(g Graphics, opts DrawOptions) {
	vOff := l.verticalOffset(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)
	for i := range l.lines {
		line := l.displayLine(i)
		for r := range line.shaped.Runs {
			if opts.cancelled() {
				return
			}
			drawRun(g, line, r, vOff)
		}
	}
}

// offsetAlterX 把实际图形移出画布，只留下偏移回来的阴影
func offsetAlterX(size geom.Size) float64 { return size.W + 0xFFFF }

func (l *Layout) drawShadow(g Graphics, opts DrawOptions) {
	alter := offsetAlterX(opts.Size)
	vOff := l.verticalOffset(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)
	for i := range l.lines {
		line := l.displayLine(i)
		for r := range line.shaped.Runs {
			if opts.cancelled() {
				return
			}
			run := &line.shaped.Runs[r]
			for s := run.Attrs.Shadow; s != nil; s = s.SubShadow {
				if s.Color.A == 0 {
					continue
				}
				g.Save()
				g.SetShadow(geom.Size{W: s.Offset.W - alter, H: s.Offset.H}, s.Radius, s.Color)
				g.SetBlendMode(s.BlendMode)
				g.Translate(alter, 0)
				drawRun(g, line, r, vOff)
				g.Restore()
			}
		}
	}
}

func (l *Layout) drawInnerShadow(g Graphics, opts DrawOptions) {
	vOff := l.verticalOffset(opts.Size)
	g.Save()
	defer g.Restore()
	g.Translate(opts.Origin.X, opts.Origin.Y)
	for i := range l.lines {
		line := l.displayLine(i)
		for r := range line.shaped.Runs {
			if opts.cancelled() {
				return
			}
			run := &line.shaped.Runs[r]
			if len(run.Glyphs) == 0 {
				continue
			}
			for s := run.Attrs.InnerShadow; s != nil; s = s.SubShadow {
				if s.Color.A == 0 {
					continue
				}
				bounds := line.runRect(run).Offset(vOff, 0)
				if run.Attrs.GlyphTransform != nil {
					bounds = geom.R(0, 0, opts.Size.W, opts.Size.H)
				}
				if bounds.W < 0.1 || bounds.H < 0.1 {
					continue
				}
				opaque := s.Color
				opaque.A = 255

				g.Save()
				g.SetBlendMode(s.BlendMode)
				g.SetShadow(geom.Size{}, 0, styled.Color{})
				g.SetAlpha(float64(s.Color.A) / 255)
				g.ClipPath(geom.RectPath(bounds), false)
				g.BeginLayer()
				g.SetShadow(s.Offset, s.Radius, opaque)
				g.SetFillColor(opaque)
				g.SetBlendMode(styled.BlendSourceOut)
				g.BeginLayer()
				g.FillPath(geom.RectPath(bounds), false)
				g.SetBlendMode(styled.BlendDestinationIn)
				g.BeginLayer()
				drawRun(g, line, r, vOff)
				g.EndLayer()
				g.EndLayer()
				g.EndLayer()
				g.Restore()
			}
		}
	}
}

func (l *Layout) drawAttachments(g Graphics, opts DrawOptions) {
	vOff := l.verticalOffset(opts.Size)
	for i, a := range l.attachments {
		if opts.cancelled() {
			return
		}
		if a == nil || a.Content.ID == "" {
			continue
		}
		rect := l.attachmentFrame(i, vOff).Offset(opts.Origin.X, opts.Origin.Y)
		opts.AttachmentDrawer(g, a, rect)
	}
}

// attachmentFrame 返回附件内容在布局坐标中的最终位置（已应用内边距与填充模式）
func (l *Layout) attachmentFrame(i int, vOff float64) geom.Rect {
	a := l.attachments[i]
	rect := l.attachmentRects[i]
	if l.container.verticalForm {
		rect = rect.Inset(geom.RotateVertical(a.ContentInsets))
	} else {
		rect = rect.Inset(a.ContentInsets)
	}
	rect = styled.ContentRect(rect, a.Content.Size, a.ContentMode)
	rect = geom.PixelRound(rect, 1).Standardize()
	return rect.Offset(vOff, 0)
}

// AddAttachments mounts view and layer attachments on m, placed for a canvas of the
// given size with the layout drawn at origin. Image attachments are drawn, not mounted.
func (l *Layout) AddAttachments(m AttachmentMounter, size geom.Size, origin geom.Point) {
	if size.IsEmpty() {
		size = l.container.size
	}
	vOff := l.verticalOffset(size)
	for i, a := range l.attachments {
		if a == nil || a.Content.Kind == styled.ContentImage {
			continue
		}
		m.MountAttachment(a, l.attachmentFrame(i, vOff).Offset(origin.X, origin.Y))
	}
}

// RemoveAttachments unmounts what AddAttachments mounted.
func (l *Layout) RemoveAttachments(m AttachmentMounter) {
	for _, a := range l.attachments {
		if a == nil || a.Content.Kind == styled.ContentImage {
			continue
		}
		m.UnmountAttachment(a)
	}
}

// drawRun 绘制单个 run，竖排时按 VerticalRotateRanges 逐字形决定是否直立。
func drawRun(g Graphics, line *Line, r int, vOff float64) {
	run := &line.shaped.Runs[r]
	if len(run.Glyphs) == 0 {
		return
	}
	g.Save()
	defer g.Restore()
	g.SetFillColor(run.Attrs.ColorOrDefault())
	pos := line.Position

	if !line.Vertical {
		if run.Attrs.GlyphTransform == nil {
			g.Translate(pos.X, pos.Y)
			if m := run.Matrix; m != (geom.Matrix{}) && !m.IsIdentity() {
				g.Concat(m)
			}
			g.ShowGlyphs(run.Font, run.Glyphs, geom.Point{})
			return
		}
		for _, gl := range run.Glyphs {
			g.Save()
			g.Translate(pos.X+gl.Position.X, pos.Y-gl.Position.Y)
			g.Concat(*run.Attrs.GlyphTransform)
			gl.Position = geom.Point{}
			g.ShowGlyphs(run.Font, []Glyph{gl}, geom.Point{})
			g.Restore()
		}
		return
	}

	var ranges []RunGlyphRange
	if r < len(line.VerticalRotateRanges) {
		ranges = line.VerticalRotateRanges[r]
	}
	if ranges == nil {
		ranges = []RunGlyphRange{{Range: styled.NewRange(0, len(run.Glyphs))}}
	}
	ofs := (run.Ascent - run.Descent) * 0.5
	for _, rg := range ranges {
		for i := rg.Range.Location; i < rg.Range.End() && i < len(run.Glyphs); i++ {
			gl := run.Glyphs[i]
			g.Save()
			if rg.DrawMode != DrawHorizontal {
				w := gl.Advance * 0.5
				x := pos.X + vOff + gl.Position.Y + (ofs - w)
				y := pos.Y + gl.Position.X + ofs + w
				if rg.DrawMode == DrawVerticalRotateMove {
					x += w
					y -= w
				}
				g.Translate(x, y)
			} else {
				g.Translate(pos.X+vOff+gl.Position.Y, pos.Y+gl.Position.X)
				g.Rotate(math.Pi / 2)
			}
			if run.Attrs.GlyphTransform != nil {
				g.Concat(*run.Attrs.GlyphTransform)
			}
			gl.Position = geom.Point{}
			g.ShowGlyphs(run.Font, []Glyph{gl}, geom.Point{})
			g.Restore()
		}
	}
}
