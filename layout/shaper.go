package layout

import (
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// Glyph is one shaped cluster of a run.
type Glyph struct {
	// Index 是簇在文本中的起始位置（UTF-16），Length 是簇的长度
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Text   string `json:"text"`
	// Position 相对于行原点，X 沿行方向
	Position geom.Point `json:"position"`
	Advance  float64    `json:"advance"`
	// Upright 用于竖排：为 true 的字形保持直立，否则随行旋转
	Upright bool `json:"upright,omitempty"`
	// Centered 用于竖排的全角标点，旋转后需平移到更合适的位置
	Centered bool `json:"centered,omitempty"`
	// Shaped 是整形后的字形（连字时多个簇合为一个 Glyph）。为空时后端按 Text 逐字符绘制
	Shaped []ShapedGlyph `json:"shaped,omitempty"`
}

// ShapedGlyph is one font glyph produced by shaping, in visual order.
type ShapedGlyph struct {
	ID uint32 `json:"id"`
	// Offset 相对 Glyph.Position，X 沿行方向，Y 向上
	Offset  geom.Point `json:"offset"`
	Advance float64    `json:"advance"`
}

// Run is a sequence of glyphs sharing one attribute set.
type Run struct {
	Range   styled.Range      `json:"range"`
	Attrs   styled.Attributes `json:"-"`
	Font    styled.Font       `json:"font"`
	Glyphs  []Glyph           `json:"glyphs"`
	Width   float64           `json:"width"`
	Ascent  float64           `json:"ascent"`
	Descent float64           `json:"descent"`
	Leading float64           `json:"leading"`
	// UnderlinePosition 相对基线，基线以下为负
	UnderlinePosition  float64 `json:"underlinePosition"`
	UnderlineThickness float64 `json:"underlineThickness"`
	XHeight            float64 `json:"xHeight"`
	RTL                bool    `json:"rtl,omitempty"`
	// IsToken 标记截断符号产生的 run
	IsToken bool        `json:"isToken,omitempty"`
	Matrix  geom.Matrix `json:"-"`
}

// Position returns the first glyph position, or zero for an empty run.
func (r *Run) Position() geom.Point {
	if len(r.Glyphs) == 0 {
		return geom.Point{}
	}
	return r.Glyphs[0].Position
}

// ShapedLine is a shaped line as produced by a Shaper, before placement.
type ShapedLine struct {
	Range              styled.Range `json:"range"`
	Width              float64      `json:"width"`
	Ascent             float64      `json:"ascent"`
	Descent            float64      `json:"descent"`
	Leading            float64      `json:"leading"`
	TrailingWhitespace float64      `json:"trailingWhitespace"`
	Runs               []Run        `json:"runs"`
}

// GlyphCount returns the number of glyphs in all runs.
func (s *ShapedLine) GlyphCount() int {
	n := 0
	for i := range s.Runs {
		n += len(s.Runs[i].Glyphs)
	}
	return n
}

// FirstGlyphX returns the line-relative offset of the first glyph.
func (s *ShapedLine) FirstGlyphX() float64 {
	for i := range s.Runs {
		if len(s.Runs[i].Glyphs) > 0 {
			return s.Runs[i].Glyphs[0].Position.X
		}
	}
	return 0
}

// FrameRequest asks a Shaper to fill a region with text.
// Path is expressed in shaping space (y grows upward).
type FrameRequest struct {
	Text          *styled.Text
	Range         styled.Range
	Path          *geom.Path
	Vertical      bool
	FillEvenOdd   bool
	PathLineWidth float64
}

// Frame is the shaping result for one region. Origins are baseline origins relative to
// the bottom-left corner of the path bounding box, in shaping space.
type Frame struct {
	Lines   []ShapedLine
	Origins []geom.Point
	Visible styled.Range
}

// Shaper is the external shaping service: it breaks text into lines that fit a region
// and reports glyph positions and metrics.
type Shaper interface {
	Frame(req FrameRequest) (*Frame, error)
	// Line shapes r as one unconstrained line.
	Line(t *styled.Text, r styled.Range, vertical bool) (ShapedLine, error)
	// TruncatedLine shapes line r of t followed by token, elided to fit width.
	TruncatedLine(t *styled.Text, r styled.Range, token *styled.Text, width float64, mode TruncationType, vertical bool) (ShapedLine, error)
}
