package layout

import (
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// GlyphDrawMode 描述竖排时字形的绘制方式。
type GlyphDrawMode int

const (
	// DrawHorizontal 不单独旋转，随整行侧躺绘制
	DrawHorizontal GlyphDrawMode = iota
	// DrawVerticalRotate 单个字形直立绘制
	DrawVerticalRotate
	// DrawVerticalRotateMove 直立绘制并平移，用于全角标点
	DrawVerticalRotateMove
)

// RunGlyphRange is a run-relative glyph range sharing one draw mode.
type RunGlyphRange struct {
	Range    styled.Range  `json:"range"`
	DrawMode GlyphDrawMode `json:"drawMode"`
}

// Line is a shaped line placed in layout space (origin top-left, y down).
type Line struct {
	Index    int        `json:"index"`
	Row      int        `json:"row"`
	Position geom.Point `json:"position"`
	Vertical bool       `json:"vertical"`

	shaped        ShapedLine
	firstGlyphPos float64
	bounds        geom.Rect

	attachments      []*styled.Attachment
	attachmentRanges []styled.Range
	attachmentRects  []geom.Rect

	// VerticalRotateRanges 只在竖排时填充，按 run 顺序对应
	VerticalRotateRanges [][]RunGlyphRange `json:"-"`
}

// NewLine places a shaped line at the given baseline origin.
func NewLine(s ShapedLine, position geom.Point, vertical bool) *Line {
	l := &Line{shaped: s, Position: position, Vertical: vertical}
	l.firstGlyphPos = s.FirstGlyphX()
	l.reloadBounds()
	if vertical {
		l.VerticalRotateRanges = verticalRanges(&l.shaped)
	}
	return l
}

// SetPosition moves the line and recomputes bounds and attachment rects.
func (l *Line) SetPosition(p geom.Point) {
	l.Position = p
	l.reloadBounds()
}

func (l *Line) reloadBounds() {
	s := &l.shaped
	if l.Vertical {
		l.bounds = geom.R(l.Position.X-s.Descent, l.Position.Y+l.firstGlyphPos, s.Ascent+s.Descent, s.Width)
	} else {
		l.bounds = geom.R(l.Position.X+l.firstGlyphPos, l.Position.Y-s.Ascent, s.Width, s.Ascent+s.Descent)
	}

	l.attachments = l.attachments[:0]
	l.attachmentRanges = l.attachmentRanges[:0]
	l.attachmentRects = l.attachmentRects[:0]
	for i := range s.Runs {
		run := &s.Runs[i]
		if len(run.Glyphs) == 0 || run.Attrs.Attachment == nil {
			continue
		}
		l.attachments = append(l.attachments, run.Attrs.Attachment)
		l.attachmentRanges = append(l.attachmentRanges, run.Range)
		l.attachmentRects = append(l.attachmentRects, l.runRect(run))
	}
}

// runRect returns the typographic box of a run in layout space.
func (l *Line) runRect(run *Run) geom.Rect {
	rp := run.Position()
	if l.Vertical {
		return geom.R(l.Position.X+rp.Y-run.Descent, l.Position.Y+rp.X, run.Ascent+run.Descent, run.Width)
	}
	x := l.Position.X + rp.X
	y := l.Position.Y - rp.Y
	return geom.R(x, y-run.Ascent, run.Width, run.Ascent+run.Descent)
}

// RunRect returns the typographic box of run i in layout space.
func (l *Line) RunRect(i int) geom.Rect { return l.runRect(&l.shaped.Runs[i]) }

func (l *Line) Shaped() *ShapedLine { return &l.shaped }
func (l *Line) Runs() []Run { return l.shaped.Runs }
func (l *Line) Range() styled.Range { return l.shaped.Range }
func (l *Line) Bounds() geom.Rect { return l.bounds }
func (l *Line) Size() geom.Size { return l.bounds.Size() }
func (l *Line) Width() float64 { return l.bounds.W }
func (l *Line) Height() float64 { return l.bounds.H }
func (l *Line) Top() float64 { return l.bounds.MinY() }
func (l *Line) Bottom() float64 { return l.bounds.MaxY() }
func (l *Line) Left() float64 { return l.bounds.MinX() }
func (l *Line) Right() float64 { return l.bounds.MaxX() }
func (l *Line) Ascent() float64 { return l.shaped.Ascent }
func (l *Line) Descent() float64 { return l.shaped.Descent }
func (l *Line) Leading() float64 { return l.shaped.Leading }
func (l *Line) LineWidth() float64 { return l.shaped.Width }
func (l *Line) TrailingWhitespaceWidth() float64 {
	return l.shaped.TrailingWhitespace
}

func (l *Line) Attachments() []*styled.Attachment { return l.attachments }
func (l *Line) AttachmentRanges() []styled.Range { return l.attachmentRanges }
func (l *Line) AttachmentRects() []geom.Rect { return l.attachmentRects }

// glyphs returns all glyphs in visual order with their run.
func (l *Line) eachGlyph(fn func(run *Run, g *Glyph) bool) {
	for i := range l.shaped.Runs {
		run := &l.shaped.Runs[i]
		for j := range run.Glyphs {
			if !fn(run, &run.Glyphs[j]) {
				return
			}
		}
	}
}

// OffsetForIndex returns the line-relative caret offset, along the line, for text index i.
func (l *Line) OffsetForIndex(i int) float64 {
	r := l.shaped.Range
	if l.shaped.GlyphCount() == 0 {
		return 0
	}
	if i <= r.Location {
		return l.startOffset()
	}
	if i >= r.End() {
		return l.endOffset()
	}
	off, found := 0.0, false
	l.eachGlyph(func(run *Run, g *Glyph) bool {
		if run.IsToken {
			return true
		}
		if g.Index <= i && i < g.Index+max(g.Length, 1) {
			frac := 0.0
			if g.Length > 1 {
				frac = float64(i-g.Index) / float64(g.Length)
			}
			if run.RTL {
				off = g.Position.X + g.Advance*(1-frac)
			} else {
				off = g.Position.X + g.Advance*frac
			}
			found = true
			return false
		}
		return true
	})
	if !found {
		return l.endOffset()
	}
	return off
}

func (l *Line) startOffset() float64 {
	runs := l.shaped.Runs
	if len(runs) > 0 && runs[0].RTL && len(runs[0].Glyphs) > 0 {
		g := runs[0].Glyphs[len(runs[0].Glyphs)-1]
		return g.Position.X + g.Advance
	}
	return l.firstGlyphPos
}

func (l *Line) endOffset() float64 {
	end := l.firstGlyphPos
	l.eachGlyph(func(run *Run, g *Glyph) bool {
		end = max(end, g.Position.X+g.Advance)
		return true
	})
	return end
}

// IndexForOffset returns the text index whose caret is closest to the line-relative offset x.
func (l *Line) IndexForOffset(x float64) int {
	r := l.shaped.Range
	if l.shaped.GlyphCount() == 0 {
		return r.Location
	}
	idx := -1
	var last *Glyph
	var lastRun *Run
	l.eachGlyph(func(run *Run, g *Glyph) bool {
		if run.IsToken {
			return true
		}
		last, lastRun = g, run
		if x < g.Position.X+g.Advance {
			mid := g.Position.X + g.Advance/2
			before := x < mid
			if run.RTL {
				before = !before
			}
			if before {
				idx = g.Index
			} else {
				idx = g.Index + g.Length
			}
			return false
		}
		return true
	})
	if idx >= 0 {
		return idx
	}
	if last == nil {
		return r.Location
	}
	if lastRun.RTL {
		return last.Index
	}
	return min(last.Index+last.Length, r.End())
}

// IsRTLAt reports whether the run under the line-relative offset x is right-to-left.
func (l *Line) IsRTLAt(x float64) bool {
	rtl := false
	for i := range l.shaped.Runs {
		run := &l.shaped.Runs[i]
		if len(run.Glyphs) == 0 {
			continue
		}
		start := run.Glyphs[0].Position.X
		if start <= x && x <= start+run.Width {
			return run.RTL
		}
		rtl = run.RTL
	}
	return rtl
}

func verticalRanges(s *ShapedLine) [][]RunGlyphRange {
	out := make([][]RunGlyphRange, len(s.Runs))
	for i := range s.Runs {
		glyphs := s.Runs[i].Glyphs
		if len(glyphs) == 0 {
			continue
		}
		var ranges []RunGlyphRange
		prevIdx, prevMode := 0, glyphMode(&glyphs[0])
		for g := 1; g < len(glyphs); g++ {
			mode := glyphMode(&glyphs[g])
			if mode != prevMode {
				ranges = append(ranges, RunGlyphRange{Range: styled.NewRange(prevIdx, g-prevIdx), DrawMode: prevMode})
				prevIdx, prevMode = g, mode
			}
		}
		ranges = append(ranges, RunGlyphRange{Range: styled.NewRange(prevIdx, len(glyphs)-prevIdx), DrawMode: prevMode})
		out[i] = ranges
	}
	return out
}

func glyphMode(g *Glyph) GlyphDrawMode {
	switch {
	case g.Upright && g.Centered:
		return DrawVerticalRotateMove
	case g.Upright:
		return DrawVerticalRotate
	default:
		return DrawHorizontal
	}
}
