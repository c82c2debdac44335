// Package shaping 实现 layout.Shaper：按区域断行、生成字形位置与度量。
//
// 断行遵循 UAX#14（go-text segmenter），字形簇按 UAX#29 划分。字体度量由 FaceMetrics
// 提供，渲染器各自实现，保证排版与绘制使用同一套度量。
package shaping

import (
	"slices"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

const (
	// bandStep 是不规则区域中找不到可用区间时向下试探的步长
	bandStep = 1.0
	epsilon  = 1e-6
)

// toColumns 把竖排问题转换为横排：列从右向左推进变成行自上而下推进，沿列向下变成沿行向右。
var toColumns = geom.Matrix{A: 0, B: -1, D: 1, E: 0}

// Framesetter frames styled text into regions.
type Framesetter struct {
	Metrics FaceMetrics
}

// New returns a Framesetter over m.
func New(m FaceMetrics) *Framesetter { return &Framesetter{Metrics: m} }

var _ layout.Shaper = (*Framesetter)(nil)

// Frame shapes req.Range into req.Path. Lines are stacked from the top of the region;
// in an irregular region each row band may hold several lines, one per usable span.
// Vertical text stacks columns from right to left.
func (f *Framesetter) Frame(req layout.FrameRequest) (*layout.Frame, error) {
	if f.Metrics == nil {
		return nil, ErrNoMetrics
	}
	frame := &layout.Frame{Visible: styled.NewRange(req.Range.Location, 0)}
	if req.Path.IsEmpty() || req.Text == nil {
		return frame, nil
	}
	cs := f.clusters(req.Text, req.Range, req.Vertical)
	bbox := req.Path.Bounds()
	rowPath := req.Path
	if req.Vertical {
		rowPath = req.Path.Transform(toColumns)
	}
	rb := rowPath.Bounds()
	rect, isRect := rowPath.IsRect()

	top := rb.MaxY()
	paraStart := true
	i := 0
	for i < len(cs) {
		h := cs[i].ascent() + cs[i].descent()
		if top-h < rb.MinY()-epsilon {
			break
		}
		var spans []geom.Span
		if isRect {
			spans = []geom.Span{{Min: rect.MinX(), Max: rect.MaxX()}}
		} else {
			spans = rowPath.Spans(top-h, top, req.FillEvenOdd)
		}
		next := top - h
		placed, full := false, false
		for _, sp := range spans {
			if i >= len(cs) {
				break
			}
			if !isRect && sp.Length() < max(cs[i].adv, 1) {
				continue
			}
			para := paragraphOf(&cs[i])
			indent := 0.0
			if paraStart {
				indent = para.FirstLineHeadIndent
			}
			avail := sp.Length() - indent
			end := breakLine(cs, i, avail, para.LineBreakMode)
			sl := makeLine(cs[i:end])
			baseline := top - sl.Ascent
			if baseline-sl.Descent < rb.MinY()-epsilon {
				full = true
				break
			}
			x := sp.Min + indent + alignOffset(para.Alignment, avail, sl.Width-sl.TrailingWhitespace)
			origin := geom.Pt(x, baseline)
			if req.Vertical {
				origin = geom.Pt(baseline, -x)
			}
			frame.Lines = append(frame.Lines, sl)
			frame.Origins = append(frame.Origins, geom.Pt(origin.X-bbox.MinX(), origin.Y-bbox.MinY()))
			paraStart = cs[end-1].newline
			next = min(next, baseline-sl.Descent-sl.Leading-para.LineSpacing)
			frame.Visible.Length = sl.Range.End() - req.Range.Location
			i = end
			placed = true
		}
		if full {
			break
		}
		if !placed {
			top -= bandStep
			continue
		}
		top = next
	}
	layout.Logger().Debug("shaping: frame",
		"range", req.Range.String(),
		"lines", len(frame.Lines),
		"visible", frame.Visible.String(),
		"vertical", req.Vertical)
	return frame, nil
}

// Line shapes r as one line without width constraint.
func (f *Framesetter) Line(t *styled.Text, r styled.Range, vertical bool) (layout.ShapedLine, error) {
	if f.Metrics == nil {
		return layout.ShapedLine{}, ErrNoMetrics
	}
	sl := makeLine(f.clusters(t, r, vertical))
	sl.Range = r
	return sl, nil
}

func paragraphOf(c *cluster) styled.Paragraph {
	if c.attrs.Paragraph != nil {
		return *c.attrs.Paragraph
	}
	return styled.Paragraph{}
}

func alignOffset(a styled.Alignment, avail, w float64) float64 {
	switch a {
	case styled.AlignRight:
		return max(avail-w, 0)
	case styled.AlignCenterText:
		return max((avail-w)/2, 0)
	}
	return 0
}

// breakLine returns the exclusive end of the line starting at cs[start] that fits avail.
// Trailing spaces hang past the edge; a line holds at least one cluster.
func breakLine(cs []cluster, start int, avail float64, mode styled.LineBreakMode) int {
	w := 0.0
	lastBreak := -1
	for j := start; j < len(cs); j++ {
		c := &cs[j]
		if c.newline {
			return j + 1
		}
		if mode != styled.BreakByClipping && !c.space && j > start && w+c.adv > avail+epsilon {
			if mode == styled.BreakByCharWrapping || lastBreak < 0 {
				return j
			}
			return lastBreak + 1
		}
		w += c.adv
		if c.breakAfter {
			if c.mandatory {
				return j + 1
			}
			lastBreak = j
		}
	}
	return len(cs)
}

func sameRun(a, b *cluster) bool {
	return a.rtl == b.rtl && a.token == b.token && a.attrs.Equal(b.attrs)
}

// makeLine builds a shaped line from clusters in logical order.
func makeLine(cs []cluster) layout.ShapedLine {
	var sl layout.ShapedLine
	if len(cs) == 0 {
		return sl
	}
	lo, hi := -1, -1
	for i := range cs {
		if cs[i].token {
			continue
		}
		if lo < 0 {
			lo = cs[i].index
		}
		hi = cs[i].index + cs[i].length
	}
	if lo >= 0 {
		sl.Range = styled.NewRange(lo, hi-lo)
	} else {
		sl.Range = styled.NewRange(cs[0].index, 0)
	}

	x := 0.0
	for i := 0; i < len(cs); {
		j := i + 1
		for j < len(cs) && sameRun(&cs[i], &cs[j]) {
			j++
		}
		run := makeRun(cs[i:j], x)
		x += run.Width
		sl.Ascent = max(sl.Ascent, run.Ascent)
		sl.Descent = max(sl.Descent, run.Descent)
		sl.Leading = max(sl.Leading, run.Leading)
		sl.Runs = append(sl.Runs, run)
		i = j
	}
	sl.Width = x
	for k := len(cs) - 1; k >= 0 && (cs[k].space || cs[k].newline); k-- {
		sl.TrailingWhitespace += cs[k].adv
	}
	return sl
}

// unitIntact 判断 cs[i] 起始的整形单元是否完整落在 cs 中。断行、截断或属性变化切开的单元
// 退回逐簇绘制。
func unitIntact(cs []cluster, i int) bool {
	c := &cs[i]
	if c.span == 0 || i+c.span > len(cs) {
		return false
	}
	for k := i + 1; k < i+c.span; k++ {
		p, q := &cs[k-1], &cs[k]
		if !q.shaped || q.span != 0 || q.token != c.token || q.index != p.index+p.length {
			return false
		}
	}
	return true
}

// makeRun 生成一个 run，字形按视觉顺序排列（RTL 反转），x 为 run 在行内的起点。
func makeRun(cs []cluster, x float64) layout.Run {
	first, last := &cs[0], &cs[len(cs)-1]
	run := layout.Run{
		Range:              styled.NewRange(first.index, last.index+last.length-first.index),
		Attrs:              first.attrs,
		Font:               first.font,
		Leading:            first.fm.Leading,
		UnderlinePosition:  first.fm.UnderlinePosition,
		UnderlineThickness: first.fm.UnderlineThickness,
		XHeight:            first.fm.XHeight,
		RTL:                first.rtl,
		IsToken:            first.token,
		Matrix:             geom.Identity(),
	}
	glyphs := make([]layout.Glyph, 0, len(cs))
	for i := 0; i < len(cs); {
		c := &cs[i]
		g := layout.Glyph{
			Index:    c.index,
			Length:   c.length,
			Text:     c.text,
			Advance:  c.adv,
			Upright:  c.upright,
			Centered: c.centered,
		}
		n := 1
		if unitIntact(cs, i) {
			n = c.span
			g.Shaped = c.glyphs
			for k := i + 1; k < i+n; k++ {
				g.Length += cs[k].length
				g.Text += cs[k].text
				g.Advance += cs[k].adv
			}
		}
		for k := i; k < i+n; k++ {
			run.Ascent = max(run.Ascent, cs[k].ascent())
			run.Descent = max(run.Descent, cs[k].descent())
			run.Width += cs[k].adv
		}
		glyphs = append(glyphs, g)
		i += n
	}
	if run.RTL {
		slices.Reverse(glyphs)
	}
	pen := x
	for i := range glyphs {
		glyphs[i].Position = geom.Pt(pen, 0)
		pen += glyphs[i].Advance
	}
	run.Glyphs = glyphs
	return run
}
