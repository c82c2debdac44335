package styled

import "fmt"

// Range is a span of UTF-16 code units.
type Range struct {
	Location int `json:"location"`
	Length   int `json:"length"`
}

// NewRange returns Range{Location: loc, Length: length}.
func NewRange(loc, length int) Range { return Range{Location: loc, Length: length} }

// End returns the exclusive end offset.
func (r Range) End() int { return r.Location + r.Length }

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool { return r.Length <= 0 }

// Contains reports whether i lies in [Location, End).
func (r Range) Contains(i int) bool { return i >= r.Location && i < r.End() }

// ContainsRange reports whether o lies fully inside r.
func (r Range) ContainsRange(o Range) bool { return o.Location >= r.Location && o.End() <= r.End() }

// Valid reports whether the range is well-formed inside a string of n units.
func (r Range) Valid(n int) bool {
	return r.Location >= 0 && r.Length >= 0 && r.End() <= n
}

// Intersect returns the overlap of r and o; ok is false when they do not overlap.
func (r Range) Intersect(o Range) (Range, bool) {
	lo := max(r.Location, o.Location)
	hi := min(r.End(), o.End())
	if hi <= lo {
		return Range{Location: lo}, false
	}
	return Range{Location: lo, Length: hi - lo}, true
}

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	lo := min(r.Location, o.Location)
	hi := max(r.End(), o.End())
	return Range{Location: lo, Length: hi - lo}
}

// Shift moves the range by delta units.
func (r Range) Shift(delta int) Range { return Range{Location: r.Location + delta, Length: r.Length} }

func (r Range) String() string { return fmt.Sprintf("{%d, %d}", r.Location, r.Length) }
