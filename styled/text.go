package styled

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrRangeOutOfBounds is returned when a range does not fit in the text.
var ErrRangeOutOfBounds = errors.New("styled: range out of bounds")

// AttachmentCharacter is the placeholder character occupied by an attachment.
const AttachmentCharacter = '￼'

// TruncationToken is the default truncation token string.
const TruncationToken = "…"

type span struct {
	r     Range
	attrs Attributes
}

// Text is an immutable attributed string indexed in UTF-16 code units.
// Every operation that changes attributes returns a new Text.
type Text struct {
	s string
	// offsets[i] 是第 i 个 UTF-16 单元对应的字节偏移；代理对的第二个单元为 -1
	offsets []int
	spans   []span
}

// New returns a Text whose whole string carries attrs.
func New(s string, attrs Attributes) *Text {
	t := &Text{s: s, offsets: utf16Offsets(s)}
	if n := t.Len(); n > 0 {
		t.spans = []span{{r: Range{Length: n}, attrs: attrs}}
		t.normalize()
	}
	return t
}

// Plain returns a Text without attributes.
func Plain(s string) *Text { return New(s, Attributes{}) }

// AttachmentText returns a one-character Text holding an attachment placeholder.
func AttachmentText(att *Attachment, font Font) *Text {
	return New(string(AttachmentCharacter), Attributes{Attachment: att, Font: &font})
}

// Concat joins texts keeping each part's attributes.
func Concat(parts ...*Text) *Text {
	var b strings.Builder
	for _, p := range parts {
		if p != nil {
			b.WriteString(p.s)
		}
	}
	out := &Text{s: b.String()}
	out.offsets = utf16Offsets(out.s)
	base := 0
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, sp := range p.spans {
			out.spans = append(out.spans, span{r: sp.r.Shift(base), attrs: sp.attrs})
		}
		base += p.Len()
	}
	out.normalize()
	return out
}

func utf16Offsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		offsets = append(offsets, i)
		if utf16.RuneLen(r) == 2 {
			offsets = append(offsets, -1)
		}
	}
	return append(offsets, len(s))
}

// Len returns the length in UTF-16 code units.
func (t *Text) Len() int {
	if t == nil || len(t.offsets) == 0 {
		return 0
	}
	return len(t.offsets) - 1
}

// IsEmpty reports whether the text has no characters.
func (t *Text) IsEmpty() bool { return t.Len() == 0 }

// String returns the underlying UTF-8 string.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return t.s
}

// FullRange returns {0, Len()}.
func (t *Text) FullRange() Range { return Range{Length: t.Len()} }

// byteOffset maps a UTF-16 index to a byte offset, snapping a split surrogate pair forward.
func (t *Text) byteOffset(i int) int {
	if i <= 0 {
		return 0
	}
	if i >= t.Len() {
		return len(t.s)
	}
	if off := t.offsets[i]; off >= 0 {
		return off
	}
	return t.offsets[i+1]
}

// Substring returns the UTF-8 text of r clamped to the text bounds.
func (t *Text) Substring(r Range) string {
	if t == nil {
		return ""
	}
	return t.s[t.byteOffset(r.Location):t.byteOffset(r.End())]
}

// RuneAt returns the rune starting at UTF-16 index i and its width in code units.
// A trailing surrogate index yields the full rune and width 1.
func (t *Text) RuneAt(i int) (rune, int) {
	if i < 0 || i >= t.Len() {
		return utf8.RuneError, 0
	}
	if t.offsets[i] < 0 {
		r, _ := utf8.DecodeRuneInString(t.s[t.offsets[i-1]:])
		return r, 1
	}
	r, _ := utf8.DecodeRuneInString(t.s[t.offsets[i]:])
	return r, utf16.RuneLen(r)
}

// IsTrailingSurrogate reports whether index i sits inside a surrogate pair.
func (t *Text) IsTrailingSurrogate(i int) bool {
	return i > 0 && i < t.Len() && t.offsets[i] < 0
}

// IndexOfByte maps a UTF-8 byte offset to a UTF-16 index.
func (t *Text) IndexOfByte(b int) int {
	lo, hi := 0, t.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		off := t.offsets[mid]
		if off < 0 {
			off = t.offsets[mid-1] + 1
		}
		if off < b {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// AttributesAt returns the attributes at index i and the range over which they hold.
func (t *Text) AttributesAt(i int) (Attributes, Range) {
	if t == nil {
		return Attributes{}, Range{}
	}
	prev := 0
	for _, sp := range t.spans {
		if sp.r.Contains(i) {
			return sp.attrs, sp.r
		}
		if sp.r.Location > i {
			return Attributes{}, Range{Location: prev, Length: sp.r.Location - prev}
		}
		prev = sp.r.End()
	}
	return Attributes{}, Range{Location: prev, Length: t.Len() - prev}
}

// Enumerate calls fn for each maximal run of equal attributes intersecting r, in order.
// Unattributed gaps are reported with empty Attributes. Returning false stops the walk.
func (t *Text) Enumerate(r Range, fn func(a Attributes, r Range) bool) {
	if t == nil {
		return
	}
	r, ok := r.Intersect(t.FullRange())
	if !ok {
		return
	}
	for i := r.Location; i < r.End(); {
		a, ar := t.AttributesAt(i)
		sub, _ := ar.Intersect(r)
		if sub.Length <= 0 {
			break
		}
		if !fn(a, sub) {
			return
		}
		i = sub.End()
	}
}

// PlainText returns the text of r with every backed range replaced by its backed
// string, so a range replaced by an image copies as the string it stands for.
func (t *Text) PlainText(r Range) string {
	var b strings.Builder
	var last *BackedString
	t.Enumerate(r, func(a Attributes, sr Range) bool {
		switch {
		case a.BackedString == nil:
			b.WriteString(t.Substring(sr))
		case last == nil || *last != *a.BackedString:
			// 同一备份串拆成的相邻 run 只输出一次
			b.WriteString(a.BackedString.String)
		}
		last = a.BackedString
		return true
	})
	return b.String()
}

// EffectiveRange returns the longest range around i, inside within, over which the
// attribute of kind k stays equal.
func (t *Text) EffectiveRange(i int, k Kind, within Range) Range {
	a, r := t.AttributesAt(i)
	lo, hi := r.Location, r.End()
	for lo > within.Location {
		b, br := t.AttributesAt(lo - 1)
		if !a.kindEqual(b, k) {
			break
		}
		lo = br.Location
	}
	for hi < within.End() {
		b, br := t.AttributesAt(hi)
		if !a.kindEqual(b, k) || br.Length == 0 {
			break
		}
		hi = br.End()
	}
	lo = max(lo, within.Location)
	hi = min(hi, within.End())
	return Range{Location: lo, Length: hi - lo}
}

// Apply returns a copy of t where fn edits the attributes of every run in r.
// fn receives a deep copy it may modify freely.
func (t *Text) Apply(r Range, fn func(a *Attributes)) (*Text, error) {
	if !r.Valid(t.Len()) {
		return nil, fmt.Errorf("%w: %s in %d", ErrRangeOutOfBounds, r, t.Len())
	}
	out := &Text{s: t.s, offsets: t.offsets}
	t.Enumerate(t.FullRange(), func(a Attributes, sr Range) bool {
		if in, ok := sr.Intersect(r); ok {
			if sr.Location < in.Location {
				out.spans = append(out.spans, span{r: Range{Location: sr.Location, Length: in.Location - sr.Location}, attrs: a})
			}
			edited := a.Clone()
			fn(&edited)
			out.spans = append(out.spans, span{r: in, attrs: edited})
			if in.End() < sr.End() {
				out.spans = append(out.spans, span{r: Range{Location: in.End(), Length: sr.End() - in.End()}, attrs: a})
			}
		} else {
			out.spans = append(out.spans, span{r: sr, attrs: a})
		}
		return true
	})
	out.normalize()
	return out, nil
}

// Set returns a copy of t with attrs merged over r.
func (t *Text) Set(r Range, attrs Attributes) (*Text, error) {
	return t.Apply(r, func(a *Attributes) { *a = a.Merge(attrs) })
}

// Remove returns a copy of t without the given kinds over r.
func (t *Text) Remove(r Range, kinds ...Kind) (*Text, error) {
	return t.Apply(r, func(a *Attributes) { *a = a.Without(kinds...) })
}

// Slice returns the sub-text covered by r, clamped to the text bounds.
func (t *Text) Slice(r Range) *Text {
	r, ok := r.Intersect(t.FullRange())
	if !ok {
		return Plain("")
	}
	out := &Text{s: t.Substring(r)}
	out.offsets = utf16Offsets(out.s)
	t.Enumerate(r, func(a Attributes, sr Range) bool {
		out.spans = append(out.spans, span{r: sr.Shift(-r.Location), attrs: a})
		return true
	})
	out.normalize()
	return out
}

// Replace returns a copy of t with r replaced by with.
func (t *Text) Replace(r Range, with *Text) (*Text, error) {
	if !r.Valid(t.Len()) {
		return nil, fmt.Errorf("%w: %s in %d", ErrRangeOutOfBounds, r, t.Len())
	}
	head := t.Slice(Range{Length: r.Location})
	tail := t.Slice(Range{Location: r.End(), Length: t.Len() - r.End()})
	return Concat(head, with, tail), nil
}

// normalize drops empty and unattributed spans and merges equal neighbours.
func (t *Text) normalize() {
	out := t.spans[:0]
	for _, sp := range t.spans {
		if sp.r.Length <= 0 || sp.attrs.IsEmpty() {
			continue
		}
		if n := len(out); n > 0 && out[n-1].r.End() == sp.r.Location && out[n-1].attrs.Equal(sp.attrs) {
			out[n-1].r.Length += sp.r.Length
			continue
		}
		out = append(out, sp)
	}
	t.spans = out
}
