package layout

import (
	"fmt"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// ShrinkLayout builds the single-row fallback for a layout that produced no lines
// although its text is not empty. It returns nil when l needs no fallback.
// A nil shaper reuses the one l was built with.
func ShrinkLayout(l *Layout, shaper Shaper) (*Layout, error) {
	if l == nil || l.text.IsEmpty() || len(l.lines) > 0 {
		return nil, nil
	}
	if shaper == nil {
		shaper = l.shaper
	}
	c := l.container.Clone()
	c.SetMaximumNumberOfRows(1)
	size := c.Size()
	if c.IsVerticalForm() {
		size.W = MaxExtent
	} else {
		size.H = MaxExtent
	}
	c.SetSize(size)
	rng := l.rng
	return Build(c, l.text, BuildOptions{Shaper: shaper, Range: &rng})
}

// HighlightLayout lays out a scratch copy of l's text with h's attributes applied to r.
// l itself is left untouched.
func HighlightLayout(l *Layout, h *styled.Highlight, r styled.Range, shaper Shaper) (*Layout, error) {
	if shaper == nil {
		shaper = l.shaper
	}
	text, err := h.Apply(l.text, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	rng := l.rng
	return Build(l.container, text, BuildOptions{Shaper: shaper, Range: &rng})
}

// HighlightAt returns the highlight under p (layout space) and its longest effective
// range in the whole text.
func (l *Layout) HighlightAt(p geom.Point) (*styled.Highlight, styled.Range, bool) {
	if !l.containsHighlight {
		return nil, styled.Range{}, false
	}
	tr, ok := l.TextRangeAt(p)
	if !ok {
		return nil, styled.Range{}, false
	}
	start := tr.Start.Offset
	if start == l.text.Len() && start > 0 {
		start--
	}
	attrs, _ := l.text.AttributesAt(start)
	if attrs.Highlight == nil {
		return nil, styled.Range{}, false
	}
	return attrs.Highlight, l.text.EffectiveRange(start, styled.KindHighlight, l.text.FullRange()), true
}
