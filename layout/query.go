package layout

import (
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// 避免点击命中字形左边缘时落入连字内部
const hitNudge = 0.00001234

// LineIndexForPoint returns the line whose bounds contain p, or -1.
func (l *Layout) LineIndexForPoint(p geom.Point) int {
	if len(l.lines) == 0 || l.rowCount == 0 {
		return -1
	}
	edge := p.Y
	if l.container.verticalForm {
		edge = p.X
	}
	row := l.RowIndexForEdge(edge)
	if row < 0 {
		return -1
	}
	first, last := l.rowLines(row)
	for i := first; i <= last; i++ {
		if l.lines[i].Bounds().Contains(p) {
			return i
		}
	}
	return -1
}

// ClosestLineIndexForPoint returns the line nearest to p, or -1 for an empty layout.
func (l *Layout) ClosestLineIndexForPoint(p geom.Point) int {
	if len(l.lines) == 0 || l.rowCount == 0 {
		return -1
	}
	vertical := l.container.verticalForm
	edge := p.Y
	if vertical {
		edge = p.X
	}
	row := l.ClosestRowIndexForEdge(edge)
	if row < 0 {
		return -1
	}
	first, last := l.rowLines(row)
	if first == last {
		return first
	}
	minDistance, minIndex := math.Inf(1), first
	for i := first; i <= last; i++ {
		b := l.lines[i].Bounds()
		lo, hi, v := b.X, b.X+b.W, p.X
		if vertical {
			lo, hi, v = b.Y, b.Y+b.H, p.Y
		}
		if lo <= v && v <= hi {
			return i
		}
		d := v - hi
		if v < lo {
			d = lo - v
		}
		if d < minDistance {
			minDistance, minIndex = d, i
		}
	}
	return minIndex
}

// LineIndexForPosition returns the line holding pos, or -1.
// A backward position at a line end belongs to that line; a forward one to the next.
func (l *Layout) LineIndexForPosition(pos TextPosition) int {
	if len(l.lines) == 0 {
		return -1
	}
	location := pos.Offset
	lo, hi := 0, len(l.lines)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := l.lines[mid].Range()
		if pos.Affinity == AffinityBackward {
			if r.Location < location && location <= r.End() {
				return mid
			}
		} else if r.Location <= location && location < r.End() {
			return mid
		}
		if location <= r.Location {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return -1
}

// OffsetForPosition returns the caret coordinate of text offset pos on a line,
// x for horizontal form and y for vertical form.
func (l *Layout) OffsetForPosition(pos int, lineIndex int) (float64, bool) {
	if lineIndex < 0 || lineIndex >= len(l.lines) {
		return 0, false
	}
	line := l.lines[lineIndex]
	r := line.Range()
	if pos < r.Location || pos > r.End() {
		return 0, false
	}
	off := line.OffsetForIndex(pos)
	if l.container.verticalForm {
		return off + line.Position.Y, true
	}
	return off + line.Position.X, true
}

// PositionForPoint returns the text offset nearest to p on the given line, or -1.
func (l *Layout) PositionForPoint(p geom.Point, lineIndex int) int {
	if lineIndex < 0 || lineIndex >= len(l.lines) {
		return -1
	}
	line := l.lines[lineIndex]
	x := p.X - line.Position.X
	if l.container.verticalForm {
		x = p.Y - line.Position.Y
	}
	return line.IndexForOffset(x)
}

func (l *Layout) isRTLAt(line *Line, p geom.Point) bool {
	x := p.X - line.Position.X
	if l.container.verticalForm {
		x = p.Y - line.Position.Y
	}
	return line.IsRTLAt(x)
}

func (l *Layout) visibleBounds() (int, int) {
	return l.visibleRange.Location, l.visibleRange.End()
}

// ClosestPosition returns the caret position nearest to p, clamped to the visible range.
func (l *Layout) ClosestPosition(p geom.Point) (TextPosition, bool) {
	vertical := l.container.verticalForm
	if vertical {
		p.Y += hitNudge
	} else {
		p.X += hitNudge
	}
	lineIndex := l.ClosestLineIndexForPoint(p)
	if lineIndex < 0 {
		return TextPosition{}, false
	}
	line := l.lines[lineIndex]
	lr := line.Range()
	position := l.PositionForPoint(p, lineIndex)
	if position < 0 {
		position = lr.Location
	}
	visStart, visEnd := l.visibleBounds()
	if position <= visStart {
		return TextPosition{Offset: visStart, Affinity: AffinityForward}, true
	}
	if position >= visEnd {
		return TextPosition{Offset: visEnd, Affinity: AffinityBackward}, true
	}

	affinity := AffinityForward
	detected := false

	if b, br := l.bindingAt(position); b != nil && br.Length > 0 {
		head := l.LineIndexForPosition(Pos(br.Location))
		tail := l.LineIndexForPosition(TextPosition{Offset: br.End(), Affinity: AffinityBackward})
		v := p.X
		if vertical {
			v = p.Y
		}
		switch {
		case head == lineIndex && lineIndex == tail:
			left, okL := l.OffsetForPosition(br.Location, lineIndex)
			right, okR := l.OffsetForPosition(br.End(), lineIndex)
			switch {
			case okL && okR:
				if math.Abs(v-left) < math.Abs(v-right) {
					position, affinity = br.Location, AffinityForward
				} else {
					position, affinity = br.End(), AffinityBackward
				}
			case okL:
				position, affinity = br.Location, AffinityForward
			case okR:
				position, affinity = br.End(), AffinityBackward
			}
		case head == lineIndex:
			position, affinity = br.Location, AffinityForward
		case tail == lineIndex:
			position, affinity = br.End(), AffinityBackward
		default:
			if head < lineIndex && lineIndex < tail && head >= 0 && tail >= 0 {
				hb, tb := l.lines[head].Bounds(), l.lines[tail].Bounds()
				var onTop bool
				if vertical {
					onTop = math.Abs(p.X-hb.MaxX()) < math.Abs(p.X-tb.MinX())
				} else {
					onTop = math.Abs(p.Y-hb.MinY()) < math.Abs(p.Y-tb.MaxY())
				}
				if onTop {
					position, affinity = br.Location, AffinityForward
				} else {
					position, affinity = br.End(), AffinityBackward
				}
			}
		}
		detected = true
	}

	if !detected {
		if lr.Length == 0 {
			behind := len(l.lines) > 1 && lineIndex == len(l.lines)-1
			if behind {
				return TextPosition{Offset: lr.Location, Affinity: AffinityBackward}, true
			}
			return Pos(lr.Location), true
		}
		if lr.Length <= 2 && isLinebreakString(l.text.Substring(lr)) {
			return Pos(lr.Location), true
		}
		if lineIndex == 0 && ((vertical && p.X > line.Right()) || (!vertical && p.Y < line.Top())) {
			position, affinity, detected = visStart, AffinityForward, true
		}
		if lineIndex == len(l.lines)-1 && ((vertical && p.X < line.Left()) || (!vertical && p.Y > line.Bottom())) {
			position, affinity, detected = lr.End(), AffinityBackward, true
		}
	}

	// 行尾的换行符不可作为落点
	if position == lr.End() && position > lr.Location {
		if c, _ := l.text.RuneAt(position - 1); isLinebreak(c) {
			position--
			if position > lr.Location {
				if c0, _ := l.text.RuneAt(position - 1); c0 == '\r' && c == '\n' {
					position--
				}
			}
		}
	}

	if !detected {
		if ofs, ok := l.OffsetForPosition(position, lineIndex); ok {
			rtl := l.isRTLAt(line, p)
			v := p.X
			if vertical {
				v = p.Y
			}
			switch {
			case position >= lr.End():
				affinity = AffinityBackward
				if rtl {
					affinity = AffinityForward
				}
			case position <= lr.Location:
				affinity = AffinityForward
				if rtl {
					affinity = AffinityBackward
				}
			default:
				if ofs < v && !rtl {
					affinity = AffinityForward
				} else {
					affinity = AffinityBackward
				}
			}
		}
	}
	// 绑定范围可能越过可见范围
	position = min(max(position, visStart), visEnd)
	return TextPosition{Offset: position, Affinity: affinity}, true
}

func (l *Layout) bindingAt(i int) (*styled.Binding, styled.Range) {
	if i < 0 || i >= l.text.Len() {
		return nil, styled.Range{}
	}
	a, _ := l.text.AttributesAt(i)
	if a.Binding == nil {
		return nil, styled.Range{}
	}
	return a.Binding, l.text.EffectiveRange(i, styled.KindBinding, l.text.FullRange())
}

func isLinebreak(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029', '\u0085':
		return true
	}
	return false
}

func isLinebreakString(s string) bool {
	switch s {
	case "\n", "\r", "\r\n", "\u2028", "\u2029", "\u0085":
		return true
	}
	return false
}

// linebreakTailLength returns the length of the line break sequence ending s.
func linebreakTailLength(s string) int {
	n := len(s)
	switch {
	case n >= 2 && s[n-2:] == "\r\n":
		return 2
	case n >= 1 && (s[n-1] == '\n' || s[n-1] == '\r'):
		return 1
	}
	for _, sep := range []string{"\u2028", "\u2029", "\u0085"} {
		if len(s) >= len(sep) && s[len(s)-len(sep):] == sep {
			return 1
		}
	}
	return 0
}

// correctedRange fixes the affinity of positions touching the visible range edges.
func (l *Layout) correctedRange(r TextRange) TextRange {
	visStart, visEnd := l.visibleBounds()
	if r.Start.Offset == visStart && r.Start.Affinity == AffinityBackward {
		r.Start = Pos(r.Start.Offset)
	}
	if r.End.Offset == visEnd && r.End.Affinity == AffinityForward {
		r.End = TextPosition{Offset: r.End.Offset, Affinity: AffinityBackward}
	}
	return r
}

// TextRangeAt returns the one-character range under p, or false when p hits no line.
func (l *Layout) TextRangeAt(p geom.Point) (TextRange, bool) {
	lineIndex := l.LineIndexForPoint(p)
	if lineIndex < 0 {
		return TextRange{}, false
	}
	if l.PositionForPoint(p, lineIndex) < 0 {
		return TextRange{}, false
	}
	pos, ok := l.ClosestPosition(p)
	if !ok {
		return TextRange{}, false
	}
	rtl := l.isRTLAt(l.lines[lineIndex], p)
	rect, ok := l.CaretRect(pos)
	if !ok {
		return TextRange{}, false
	}
	var dir Direction
	if l.container.verticalForm {
		dir = DirectionDown
		if rect.Y >= p.Y && !rtl {
			dir = DirectionUp
		}
	} else {
		dir = DirectionRight
		if rect.X >= p.X && !rtl {
			dir = DirectionLeft
		}
	}
	return l.TextRangeByExtending(pos, dir, 1)
}

// ClosestTextRangeAt returns the one-character range nearest to p.
func (l *Layout) ClosestTextRangeAt(p geom.Point) (TextRange, bool) {
	pos, ok := l.ClosestPosition(p)
	if !ok {
		return TextRange{}, false
	}
	lineIndex := l.LineIndexForPosition(pos)
	if lineIndex < 0 {
		return TextRange{}, false
	}
	line := l.lines[lineIndex]
	rtl := l.isRTLAt(line, p)
	rect, _ := l.CaretRect(pos)
	vertical := l.container.verticalForm
	back, fwd := DirectionLeft, DirectionRight
	if vertical {
		back, fwd = DirectionUp, DirectionDown
	}
	dir := fwd
	lr := line.Range()
	switch {
	case pos.Offset >= lr.End():
		if !rtl {
			dir = back
		}
	case pos.Offset <= lr.Location:
		if rtl {
			dir = back
		}
	case vertical:
		if rect.Y >= p.Y && !rtl {
			dir = back
		}
	default:
		if rect.X >= p.X && !rtl {
			dir = back
		}
	}
	return l.TextRangeByExtending(pos, dir, 1)
}

// TextRangeByExtending extends pos by offset units (or rows) in direction.
// Negative offsets reverse the direction.
func (l *Layout) TextRangeByExtending(pos TextPosition, dir Direction, offset int) (TextRange, bool) {
	visStart, visEnd := l.visibleBounds()
	if pos.Offset < visStart || pos.Offset > visEnd {
		return TextRange{}, false
	}
	if offset == 0 {
		return TextRange{Start: pos, End: pos}, true
	}
	vertical := l.container.verticalForm
	var verticalMove, forwardMove bool
	if vertical {
		verticalMove = dir == DirectionLeft || dir == DirectionRight
		forwardMove = dir == DirectionLeft || dir == DirectionDown
	} else {
		verticalMove = dir == DirectionUp || dir == DirectionDown
		forwardMove = dir == DirectionDown || dir == DirectionRight
	}
	if offset < 0 {
		forwardMove = !forwardMove
		offset = -offset
	}

	if !forwardMove && pos.Offset == visStart {
		return RangeOf(styled.NewRange(visStart, 0), AffinityForward), true
	}
	if forwardMove && pos.Offset == visEnd {
		return RangeOf(styled.NewRange(visEnd, 0), AffinityBackward), true
	}

	from := l.correctedRange(TextRange{Start: pos, End: pos})
	allForward := TextRange{Start: from.Start, End: TextPosition{Offset: visEnd, Affinity: AffinityBackward}}
	allBackward := TextRange{Start: Pos(visStart), End: from.End}

	if verticalMove {
		lineIndex := l.LineIndexForPosition(pos)
		if lineIndex < 0 {
			return TextRange{}, false
		}
		line := l.lines[lineIndex]
		target := line.Row - offset
		if forwardMove {
			target = line.Row + offset
		}
		if target < 0 {
			return allBackward, true
		}
		if target >= l.rowCount {
			return allForward, true
		}
		ofs, ok := l.OffsetForPosition(pos.Offset, lineIndex)
		if !ok {
			return TextRange{}, false
		}
		first, count := l.LineIndexForRow(target), l.LineCountForRow(target)
		if first < 0 || count <= 0 {
			return TextRange{}, false
		}
		mostLeft, mostRight := math.Inf(1), math.Inf(-1)
		var mostLeftLine, mostRightLine *Line
		inside := -1
		for i := first; i < first+count; i++ {
			cand := l.lines[i]
			lo, hi := cand.Left(), cand.Right()
			if vertical {
				lo, hi = cand.Top(), cand.Bottom()
			}
			if lo <= ofs && ofs <= hi {
				inside = cand.Index
				break
			}
			if lo < mostLeft {
				mostLeft, mostLeftLine = lo, cand
			}
			if hi > mostRight {
				mostRight, mostRightLine = hi, cand
			}
		}
		edge := false
		if inside < 0 {
			if ofs <= mostLeft {
				inside = mostLeftLine.Index
			} else {
				inside = mostRightLine.Index
			}
			edge = true
		}
		insideLine := l.lines[inside]
		var p geom.Point
		if vertical {
			p = geom.Pt(insideLine.Position.X, ofs)
		} else {
			p = geom.Pt(ofs, insideLine.Position.Y)
		}
		target = l.PositionForPoint(p, inside)
		if target < 0 {
			return TextRange{}, false
		}
		ext := Pos(target)
		if edge && target == insideLine.Range().End() {
			ext = Pos(target - linebreakTailLength(l.text.Substring(insideLine.Range())))
		}
		return l.correctedRange(NewTextRange(pos, ext)), true
	}

	to := pos.Offset - offset
	if forwardMove {
		to = pos.Offset + offset
	}
	if to <= visStart {
		return allBackward, true
	}
	if to >= visEnd {
		return allForward, true
	}
	// 不落在代理对中间
	if l.text.IsTrailingSurrogate(to) {
		if forwardMove {
			to++
		} else {
			to--
		}
	}
	toRange := l.correctedRange(TextRange{Start: Pos(to), End: Pos(to)})
	start := min(from.Start.Offset, toRange.Start.Offset)
	end := max(from.End.Offset, toRange.End.Offset)
	return RangeOf(styled.NewRange(start, end-start), AffinityForward), true
}

// CaretRect returns a zero-width (zero-height for vertical form) rect at pos.
func (l *Layout) CaretRect(pos TextPosition) (geom.Rect, bool) {
	lineIndex := l.LineIndexForPosition(pos)
	if lineIndex < 0 {
		return geom.Rect{}, false
	}
	line := l.lines[lineIndex]
	off, ok := l.OffsetForPosition(pos.Offset, lineIndex)
	if !ok {
		return geom.Rect{}, false
	}
	b := line.Bounds()
	if l.container.verticalForm {
		return geom.R(b.X, off, b.W, 0), true
	}
	return geom.R(off, b.Y, 0, b.H), true
}

// FirstRect returns the rect of the part of r on its first line.
func (l *Layout) FirstRect(r TextRange) (geom.Rect, bool) {
	r = l.correctedRange(r)
	startIdx := l.LineIndexForPosition(r.Start)
	endIdx := l.LineIndexForPosition(r.End)
	if startIdx < 0 || endIdx < 0 || startIdx > endIdx {
		return geom.Rect{}, false
	}
	startLine := l.lines[startIdx]
	a, okA := l.OffsetForPosition(r.Start.Offset, startIdx)
	var b float64
	okB := true
	if startIdx == endIdx {
		b, okB = l.OffsetForPosition(r.End.Offset, startIdx)
	} else if l.container.verticalForm {
		b = startLine.Bottom()
	} else {
		b = startLine.Right()
	}
	if !okA || !okB {
		return geom.Rect{}, false
	}
	if a > b {
		a, b = b, a
	}
	if l.container.verticalForm {
		return geom.R(startLine.Left(), a, startLine.Width(), b-a), true
	}
	return geom.R(a, startLine.Top(), b-a, startLine.Height()), true
}

// RectForRange returns the union of the selection rects of r.
func (l *Layout) RectForRange(r TextRange) geom.Rect {
	rects := l.SelectionRects(r)
	if len(rects) == 0 {
		return geom.Rect{}
	}
	u := rects[0].Rect
	for _, sr := range rects[1:] {
		u = u.Union(sr.Rect)
	}
	return u
}

// SelectionRects returns the start caret, the end caret and the body rects of r.
func (l *Layout) SelectionRects(r TextRange) []SelectionRect {
	r = l.correctedRange(r)
	vertical := l.container.verticalForm
	startIdx := l.LineIndexForPosition(r.Start)
	endIdx := l.LineIndexForPosition(r.End)
	if startIdx < 0 || endIdx < 0 {
		return nil
	}
	if startIdx > endIdx {
		startIdx, endIdx = endIdx, startIdx
	}
	startLine, endLine := l.lines[startIdx], l.lines[endIdx]
	offStart, okS := l.OffsetForPosition(r.Start.Offset, startIdx)
	offEnd, okE := l.OffsetForPosition(r.End.Offset, endIdx)
	if !okS || !okE {
		return nil
	}

	caret := func(line *Line, off float64) geom.Rect {
		if vertical {
			return geom.R(line.Left(), off, line.Width(), 0)
		}
		return geom.R(off, line.Top(), 0, line.Height())
	}
	rects := []SelectionRect{
		{Rect: caret(startLine, offStart), ContainsStart: true, IsVertical: vertical},
		{Rect: caret(endLine, offEnd), ContainsEnd: true, IsVertical: vertical},
	}
	if r.IsEmpty() {
		return rects
	}

	if startLine.Row == endLine.Row {
		a, b := offStart, offEnd
		if a > b {
			a, b = b, a
		}
		var rect geom.Rect
		if vertical {
			rect = geom.R(startLine.Left(), a, max(startLine.Width(), endLine.Width()), b-a)
		} else {
			rect = geom.R(a, startLine.Top(), b-a, max(startLine.Height(), endLine.Height()))
		}
		return append(rects, SelectionRect{Rect: rect, IsVertical: vertical})
	}

	c := l.container
	var top, bottom geom.Rect
	if vertical {
		top = geom.R(startLine.Left(), offStart, startLine.Width(), c.size.H-c.insets.Bottom-offStart)
		bottom = geom.R(endLine.Left(), c.insets.Top, endLine.Width(), offEnd-c.insets.Top)
	} else {
		top = geom.R(offStart, startLine.Top(), c.size.W-c.insets.Right-offStart, startLine.Height())
		bottom = geom.R(c.insets.Left, endLine.Top(), offEnd-c.insets.Left, endLine.Height())
	}
	rects = append(rects, SelectionRect{Rect: top.Standardize(), IsVertical: vertical})

	var middle geom.Rect
	found := false
	for i := startIdx + 1; i < endIdx; i++ {
		line := l.lines[i]
		if line.Row == startLine.Row || line.Row == endLine.Row {
			continue
		}
		if !found {
			middle, found = line.Bounds(), true
		} else {
			middle = middle.Union(line.Bounds())
		}
	}
	if found {
		plain := c.path == nil && len(c.exclusionPaths) == 0
		if vertical {
			if plain {
				middle.Y = c.insets.Top
				middle.H = c.size.H - c.insets.Bottom - c.insets.Top
			}
			middle.X = bottom.MaxX()
			middle.W = top.MinX() - bottom.MaxX()
		} else {
			if plain {
				middle.X = c.insets.Left
				middle.W = c.size.W - c.insets.Right - c.insets.Left
			}
			middle.Y = top.MaxY()
			middle.H = bottom.Y - middle.Y
		}
		rects = append(rects, SelectionRect{Rect: middle.Standardize(), IsVertical: vertical})
	}
	return append(rects, SelectionRect{Rect: bottom.Standardize(), IsVertical: vertical})
}

// SelectionRectsWithoutStartAndEnd drops the caret rects.
func (l *Layout) SelectionRectsWithoutStartAndEnd(r TextRange) []SelectionRect {
	var out []SelectionRect
	for _, sr := range l.SelectionRects(r) {
		if !sr.ContainsStart && !sr.ContainsEnd {
			out = append(out, sr)
		}
	}
	return out
}

// SelectionRectsWithOnlyStartAndEnd keeps only the caret rects.
func (l *Layout) SelectionRectsWithOnlyStartAndEnd(r TextRange) []SelectionRect {
	var out []SelectionRect
	for _, sr := range l.SelectionRects(r) {
		if sr.ContainsStart || sr.ContainsEnd {
			out = append(out, sr)
		}
	}
	return out
}
