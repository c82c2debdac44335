package layout

import (
	"fmt"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// Affinity 决定换行处的光标属于前一行还是后一行。
type Affinity int

const (
	// AffinityForward 光标贴在后一个字符（下一行行首）
	AffinityForward Affinity = iota
	// AffinityBackward 光标贴在前一个字符（上一行行尾）
	AffinityBackward
)

// TextPosition is a caret position in UTF-16 units.
type TextPosition struct {
	Offset   int      `json:"offset"`
	Affinity Affinity `json:"affinity"`
}

// Pos returns a forward position at offset.
func Pos(offset int) TextPosition { return TextPosition{Offset: offset} }

func (p TextPosition) String() string {
	if p.Affinity == AffinityBackward {
		return fmt.Sprintf("%d<", p.Offset)
	}
	return fmt.Sprintf("%d>", p.Offset)
}

// Compare orders positions by offset, then forward before backward.
func (p TextPosition) Compare(o TextPosition) int {
	switch {
	case p.Offset < o.Offset:
		return -1
	case p.Offset > o.Offset:
		return 1
	case p.Affinity == o.Affinity:
		return 0
	case p.Affinity == AffinityForward:
		return -1
	default:
		return 1
	}
}

// TextRange is a range between two positions; Start never sorts after End.
type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

// NewTextRange orders a and b into a range.
func NewTextRange(a, b TextPosition) TextRange {
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	return TextRange{Start: a, End: b}
}

// RangeOf converts a character range into a TextRange. An empty range takes affinity.
func RangeOf(r styled.Range, affinity Affinity) TextRange {
	if r.Length == 0 {
		p := TextPosition{Offset: r.Location, Affinity: affinity}
		return TextRange{Start: p, End: p}
	}
	return TextRange{Start: Pos(r.Location), End: TextPosition{Offset: r.End(), Affinity: AffinityBackward}}
}

// AsRange returns the character range covered.
func (r TextRange) AsRange() styled.Range {
	return styled.NewRange(r.Start.Offset, r.End.Offset-r.Start.Offset)
}

// IsEmpty reports whether start and end share an offset.
func (r TextRange) IsEmpty() bool { return r.Start.Offset == r.End.Offset }

// Direction is a caret movement direction in the text layout.
type Direction int

const (
	DirectionRight Direction = iota
	DirectionLeft
	DirectionUp
	DirectionDown
)

// SelectionRect is one rectangle of a selection highlight.
type SelectionRect struct {
	Rect          geom.Rect `json:"rect"`
	RTL           bool      `json:"rtl,omitempty"`
	ContainsStart bool      `json:"containsStart,omitempty"`
	ContainsEnd   bool      `json:"containsEnd,omitempty"`
	IsVertical    bool      `json:"isVertical,omitempty"`
}
