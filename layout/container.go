package layout

import (
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// MaxExtent 是无约束方向上临时使用的哨兵长度。
const MaxExtent = 0x100000

// TruncationType selects where elided text is replaced by the token.
type TruncationType int

const (
	TruncateNone TruncationType = iota
	TruncateStart
	TruncateEnd
	TruncateMiddle
)

func (t TruncationType) String() string {
	switch t {
	case TruncateStart:
		return "start"
	case TruncateEnd:
		return "end"
	case TruncateMiddle:
		return "middle"
	default:
		return "none"
	}
}

// ParseTruncationType parses "none", "start", "end" or "middle".
func ParseTruncationType(s string) (TruncationType, bool) {
	switch s {
	case "", "none":
		return TruncateNone, true
	case "start", "head":
		return TruncateStart, true
	case "end", "tail":
		return TruncateEnd, true
	case "middle":
		return TruncateMiddle, true
	}
	return TruncateNone, false
}

// LinePositionModifier may move lines after they are placed and before rows are computed.
// It runs on the build goroutine and must not retain the lines.
type LinePositionModifier interface {
	ModifyLines(lines []*Line, text *styled.Text, c *Container)
}

// LinePositionModifierFunc adapts a function to LinePositionModifier.
type LinePositionModifierFunc func(lines []*Line, text *styled.Text, c *Container)

func (f LinePositionModifierFunc) ModifyLines(lines []*Line, text *styled.Text, c *Container) {
	f(lines, text, c)
}

// Container describes the region text flows into.
// A container handed to Build is cloned and frozen; setters on a frozen container panic.
type Container struct {
	size            geom.Size
	insets          geom.Insets
	path            *geom.Path
	exclusionPaths  []*geom.Path
	pathFillEvenOdd bool
	pathLineWidth   float64
	verticalForm    bool
	maxRows         int
	truncationType  TruncationType
	truncationToken *styled.Text
	modifier        LinePositionModifier
	readOnly        bool
}

// NewContainer returns a container of the given size.
func NewContainer(size geom.Size) *Container {
	return &Container{size: size, pathFillEvenOdd: true}
}

// NewContainerWithInsets returns a container of the given size and insets.
func NewContainerWithInsets(size geom.Size, insets geom.Insets) *Container {
	c := NewContainer(size)
	c.insets = insets
	return c
}

// NewContainerWithPath returns a container whose flow region is path.
func NewContainerWithPath(path *geom.Path) *Container {
	c := NewContainer(geom.Size{})
	c.SetPath(path)
	return c
}

func (c *Container) mutate() {
	if c.readOnly {
		panic("layout: cannot change a container that is already in use by a layout")
	}
}

// Clone returns a mutable deep copy.
func (c *Container) Clone() *Container {
	out := *c
	out.readOnly = false
	out.path = c.path.Clone()
	if c.exclusionPaths != nil {
		out.exclusionPaths = make([]*geom.Path, len(c.exclusionPaths))
		for i, p := range c.exclusionPaths {
			out.exclusionPaths[i] = p.Clone()
		}
	}
	return &out
}

func (c *Container) freeze() { c.readOnly = true }

// IsFrozen reports whether the container belongs to a Layout.
func (c *Container) IsFrozen() bool { return c.readOnly }

func (c *Container) Size() geom.Size { return c.size }
func (c *Container) Insets() geom.Insets { return c.insets }
func (c *Container) Path() *geom.Path { return c.path }
func (c *Container) ExclusionPaths() []*geom.Path { return c.exclusionPaths }
func (c *Container) PathFillEvenOdd() bool { return c.pathFillEvenOdd }
func (c *Container) PathLineWidth() float64 { return c.pathLineWidth }
func (c *Container) IsVerticalForm() bool { return c.verticalForm }
func (c *Container) MaximumNumberOfRows() int { return c.maxRows }
func (c *Container) TruncationType() TruncationType { return c.truncationType }
func (c *Container) TruncationToken() *styled.Text { return c.truncationToken }
func (c *Container) Modifier() LinePositionModifier { return c.modifier }

// SetSize 在设置了 path 时无效，尺寸由 path 决定。
func (c *Container) SetSize(size geom.Size) {
	c.mutate()
	if c.path == nil {
		c.size = size
	}
}

// SetInsets 在设置了 path 时无效。
func (c *Container) SetInsets(insets geom.Insets) {
	c.mutate()
	if c.path != nil {
		return
	}
	if insets.Top < 0 {
		insets.Top = 0
	}
	if insets.Left < 0 {
		insets.Left = 0
	}
	if insets.Bottom < 0 {
		insets.Bottom = 0
	}
	if insets.Right < 0 {
		insets.Right = 0
	}
	c.insets = insets
}

// SetPath sets the flow path; size becomes the path's max corner and insets are cleared.
func (c *Container) SetPath(path *geom.Path) {
	c.mutate()
	c.path = path.Clone()
	if c.path != nil {
		b := c.path.Bounds()
		c.size = geom.Size{W: b.MaxX(), H: b.MaxY()}
		c.insets = geom.Insets{}
	}
}

func (c *Container) SetExclusionPaths(paths []*geom.Path) {
	c.mutate()
	c.exclusionPaths = make([]*geom.Path, 0, len(paths))
	for _, p := range paths {
		if p != nil {
			c.exclusionPaths = append(c.exclusionPaths, p.Clone())
		}
	}
}

func (c *Container) SetPathFillEvenOdd(v bool) {
	c.mutate()
	c.pathFillEvenOdd = v
}

func (c *Container) SetPathLineWidth(w float64) {
	c.mutate()
	c.pathLineWidth = w
}

func (c *Container) SetVerticalForm(v bool) {
	c.mutate()
	c.verticalForm = v
}

// SetMaximumNumberOfRows 0 表示不限行数。
func (c *Container) SetMaximumNumberOfRows(n int) {
	c.mutate()
	if n < 0 {
		n = 0
	}
	c.maxRows = n
}

func (c *Container) SetTruncationType(t TruncationType) {
	c.mutate()
	c.truncationType = t
}

// SetTruncationToken sets a custom token; nil derives "…" from the last run.
func (c *Container) SetTruncationToken(t *styled.Text) {
	c.mutate()
	c.truncationToken = t
}

func (c *Container) SetLinePositionModifier(m LinePositionModifier) {
	c.mutate()
	c.modifier = m
}
