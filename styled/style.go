package styled

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ByLCY/scribe/geom"
)

// Color is a non-premultiplied RGBA color; zero alpha means "no color".
type Color = color.NRGBA

// Black is the default foreground color.
var Black = Color{A: 255}

// RGBA returns a Color from 8-bit components.
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// ParseHex parses #rgb, #rrggbb or #rrggbbaa.
func ParseHex(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]}) + "ff"
	case 6:
		v += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("styled: 颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("styled: 颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// WithAlpha returns c with alpha replaced, a in [0,1].
func WithAlpha(c Color, a float64) Color {
	c.A = uint8(clamp01(a)*255 + 0.5)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LineStyle combines a line weight (low byte) and a dash pattern (second byte).
type LineStyle int

const (
	LineStyleNone   LineStyle = 0x00
	LineStyleSingle LineStyle = 0x01
	LineStyleThick  LineStyle = 0x02
	LineStyleDouble LineStyle = 0x09

	PatternSolid      LineStyle = 0x000
	PatternDot        LineStyle = 0x100
	PatternDash       LineStyle = 0x200
	PatternDashDot    LineStyle = 0x300
	PatternDashDotDot LineStyle = 0x400
	PatternCircleDot  LineStyle = 0x900
)

// Weight returns the style part (none/single/thick/double).
func (s LineStyle) Weight() LineStyle { return s & 0xFF }

// Pattern returns the dash pattern part.
func (s LineStyle) Pattern() LineStyle { return s & 0xF00 }

var lineStyleNames = map[string]LineStyle{
	"none":       LineStyleNone,
	"single":     LineStyleSingle,
	"thick":      LineStyleThick,
	"double":     LineStyleDouble,
	"solid":      PatternSolid,
	"dot":        PatternDot,
	"dash":       PatternDash,
	"dashdot":    PatternDashDot,
	"dashdotdot": PatternDashDotDot,
	"circledot":  PatternCircleDot,
}

// ParseLineStyle parses names joined by "|", e.g. "thick|dash".
func ParseLineStyle(s string) (LineStyle, error) {
	var out LineStyle
	for _, part := range strings.Split(s, "|") {
		name := strings.ToLower(strings.TrimSpace(part))
		name = strings.ReplaceAll(name, "-", "")
		if name == "" {
			continue
		}
		v, ok := lineStyleNames[name]
		if !ok {
			return 0, fmt.Errorf("styled: 未知线型 %q", part)
		}
		out |= v
	}
	return out, nil
}

// BlendMode selects how drawn pixels are composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendClear
	BlendCopy
	BlendSourceIn
	BlendSourceOut
	BlendDestinationIn
	BlendDestinationOut
)

func (m BlendMode) String() string {
	switch m {
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendOverlay:
		return "overlay"
	case BlendClear:
		return "clear"
	case BlendCopy:
		return "copy"
	case BlendSourceIn:
		return "source-in"
	case BlendSourceOut:
		return "source-out"
	case BlendDestinationIn:
		return "destination-in"
	case BlendDestinationOut:
		return "destination-out"
	default:
		return "normal"
	}
}

// LineJoin is the stroke corner style.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Shadow describes a drop or inner shadow.
type Shadow struct {
	Color     Color     `json:"color"`
	Offset    geom.Size `json:"offset"`
	Radius    float64   `json:"radius"`
	BlendMode BlendMode `json:"blendMode"`
	SubShadow *Shadow   `json:"subShadow,omitempty"`
}

// Clone returns a deep copy.
func (s *Shadow) Clone() *Shadow {
	if s == nil {
		return nil
	}
	out := *s
	out.SubShadow = s.SubShadow.Clone()
	return &out
}

// Equal compares shadows structurally.
func (s *Shadow) Equal(o *Shadow) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Color == o.Color && s.Offset == o.Offset && s.Radius == o.Radius &&
		s.BlendMode == o.BlendMode && s.SubShadow.Equal(o.SubShadow)
}

// Decoration is an underline or strikethrough.
type Decoration struct {
	Style LineStyle `json:"style"`
	// Width 为 0 时使用字体的下划线粗细
	Width  float64 `json:"width"`
	Color  Color   `json:"color"`
	Shadow *Shadow `json:"shadow,omitempty"`
}

// NewDecoration returns a decoration with the given style, width and color.
func NewDecoration(style LineStyle, width float64, c Color) *Decoration {
	return &Decoration{Style: style, Width: width, Color: c}
}

func (d *Decoration) Clone() *Decoration {
	if d == nil {
		return nil
	}
	out := *d
	out.Shadow = d.Shadow.Clone()
	return &out
}

func (d *Decoration) Equal(o *Decoration) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Style == o.Style && d.Width == o.Width && d.Color == o.Color && d.Shadow.Equal(o.Shadow)
}

// Border is a rounded box drawn behind or in front of a run of text.
type Border struct {
	LineStyle    LineStyle   `json:"lineStyle"`
	StrokeWidth  float64     `json:"strokeWidth"`
	StrokeColor  Color       `json:"strokeColor"`
	LineJoin     LineJoin    `json:"lineJoin"`
	Insets       geom.Insets `json:"insets"`
	CornerRadius float64     `json:"cornerRadius"`
	Shadow       *Shadow     `json:"shadow,omitempty"`
	FillColor    Color       `json:"fillColor"`
}

// NewBorder returns a stroked border.
func NewBorder(style LineStyle, width float64, c Color) *Border {
	return &Border{LineStyle: style, StrokeWidth: width, StrokeColor: c}
}

// NewFillBorder returns a filled border slightly larger than the glyph box.
func NewFillBorder(c Color, cornerRadius float64) *Border {
	return &Border{
		LineStyle:    LineStyleSingle,
		FillColor:    c,
		CornerRadius: cornerRadius,
		Insets:       geom.Insets{Top: -2, Left: 0, Bottom: 0, Right: -2},
	}
}

func (b *Border) Clone() *Border {
	if b == nil {
		return nil
	}
	out := *b
	out.Shadow = b.Shadow.Clone()
	return &out
}

func (b *Border) Equal(o *Border) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.LineStyle == o.LineStyle && b.StrokeWidth == o.StrokeWidth && b.StrokeColor == o.StrokeColor &&
		b.LineJoin == o.LineJoin && b.Insets == o.Insets && b.CornerRadius == o.CornerRadius &&
		b.FillColor == o.FillColor && b.Shadow.Equal(o.Shadow)
}

// ContentKind tags an opaque attachment content handle.
type ContentKind int

const (
	ContentImage ContentKind = iota
	ContentView
	ContentLayer
)

func (k ContentKind) String() string {
	switch k {
	case ContentView:
		return "view"
	case ContentLayer:
		return "layer"
	default:
		return "image"
	}
}

// ContentHandle identifies external attachment content. The layout engine never dereferences it.
type ContentHandle struct {
	ID   string      `json:"id"`
	Kind ContentKind `json:"kind"`
	Size geom.Size   `json:"size"`
}

// ContentMode controls how content fills its attachment box.
type ContentMode int

const (
	ContentModeScaleToFill ContentMode = iota
	ContentModeScaleAspectFit
	ContentModeScaleAspectFill
	ContentModeCenter
	ContentModeTop
	ContentModeBottom
	ContentModeLeft
	ContentModeRight
)

// VerticalAlignment positions an attachment against the font's baseline.
type VerticalAlignment int

const (
	AlignBottom VerticalAlignment = iota
	AlignCenter
	AlignTop
)

// Attachment is inline content occupying one placeholder character.
type Attachment struct {
	ID            string            `json:"id"`
	Content       ContentHandle     `json:"content"`
	ContentMode   ContentMode       `json:"contentMode"`
	ContentInsets geom.Insets       `json:"contentInsets"`
	Alignment     VerticalAlignment `json:"alignment"`
	UserInfo      map[string]any    `json:"userInfo,omitempty"`
}

// Box returns the placeholder size including content insets.
func (a *Attachment) Box() geom.Size {
	in := a.ContentInsets
	return geom.Size{W: a.Content.Size.W + in.Left + in.Right, H: a.Content.Size.H + in.Top + in.Bottom}
}

// Metrics computes the placeholder run ascent/descent against the font metrics.
// fontDescent is positive below the baseline.
func (a *Attachment) Metrics(fontAscent, fontDescent float64) (ascent, descent, width float64) {
	box := a.Box()
	width = box.W
	switch a.Alignment {
	case AlignTop:
		ascent = fontAscent
		descent = box.H - ascent
	case AlignCenter:
		yOffset := -fontDescent + (fontAscent+fontDescent)/2
		ascent = box.H/2 + yOffset
		descent = box.H - ascent
	default:
		descent = fontDescent
		ascent = box.H - descent
	}
	if ascent < 0 {
		ascent = 0
	}
	if descent < 0 {
		descent = 0
	}
	return ascent, descent, width
}

func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	out := *a
	if a.UserInfo != nil {
		out.UserInfo = make(map[string]any, len(a.UserInfo))
		for k, v := range a.UserInfo {
			out.UserInfo[k] = v
		}
	}
	return &out
}

func (a *Attachment) Equal(o *Attachment) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.ID == o.ID && a.Content == o.Content && a.ContentMode == o.ContentMode &&
		a.ContentInsets == o.ContentInsets && a.Alignment == o.Alignment
}

// ContentRect fits content of the given size into box according to the mode.
func ContentRect(box geom.Rect, content geom.Size, mode ContentMode) geom.Rect {
	if content.W <= 0 || content.H <= 0 {
		return box
	}
	switch mode {
	case ContentModeScaleAspectFit, ContentModeScaleAspectFill:
		sx, sy := box.W/content.W, box.H/content.H
		s := min(sx, sy)
		if mode == ContentModeScaleAspectFill {
			s = max(sx, sy)
		}
		w, h := content.W*s, content.H*s
		return geom.R(box.MidX()-w/2, box.MidY()-h/2, w, h)
	case ContentModeCenter:
		return geom.R(box.MidX()-content.W/2, box.MidY()-content.H/2, content.W, content.H)
	case ContentModeTop:
		return geom.R(box.MidX()-content.W/2, box.Y, content.W, content.H)
	case ContentModeBottom:
		return geom.R(box.MidX()-content.W/2, box.MaxY()-content.H, content.W, content.H)
	case ContentModeLeft:
		return geom.R(box.X, box.MidY()-content.H/2, content.W, content.H)
	case ContentModeRight:
		return geom.R(box.MaxX()-content.W, box.MidY()-content.H/2, content.W, content.H)
	default:
		return box
	}
}

// Action is invoked when a highlight is tapped or long-pressed.
type Action func(text *Text, r Range, rect geom.Rect)

// Highlight bundles attribute overrides shown while a pointer is down over a range.
type Highlight struct {
	Attributes      Attributes     `json:"attributes"`
	TapAction       Action         `json:"-"`
	LongPressAction Action         `json:"-"`
	UserInfo        map[string]any `json:"userInfo,omitempty"`
}

// NewColorHighlight returns a highlight that recolors text and fills a rounded background.
func NewColorHighlight(c Color) *Highlight {
	h := &Highlight{}
	h.Attributes.Color = &c
	bg := NewFillBorder(WithAlpha(c, 0.2), 3)
	h.Attributes.BackgroundBorder = bg
	return h
}

// Apply returns a scratch copy of t with the highlight attributes merged over r.
func (h *Highlight) Apply(t *Text, r Range) (*Text, error) {
	return t.Apply(r, func(a *Attributes) {
		*a = a.Merge(h.Attributes)
	})
}

func (h *Highlight) Clone() *Highlight {
	if h == nil {
		return nil
	}
	out := *h
	out.Attributes = h.Attributes.Clone()
	return &out
}

// Equal compares highlights by their attribute overrides and action presence.
func (h *Highlight) Equal(o *Highlight) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.Attributes.Equal(o.Attributes) &&
		(h.TapAction == nil) == (o.TapAction == nil) &&
		(h.LongPressAction == nil) == (o.LongPressAction == nil)
}

// BackedString keeps the original string of a replaced range (e.g. emoji images).
type BackedString struct {
	String string `json:"string"`
}

// Binding keeps a range together during selection and deletion.
type Binding struct {
	DeleteConfirm bool `json:"deleteConfirm"`
}

// Font names a typeface; the shaping service resolves it to metrics.
type Font struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// DefaultFont is used when a run has no font attribute.
var DefaultFont = Font{Family: "Go", Size: 12}

// WithSize returns a copy of f at another size.
func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

// Alignment is the paragraph text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenterText
	AlignJustified
	AlignNatural
)

// LineBreakMode controls where lines break.
type LineBreakMode int

const (
	BreakByWordWrapping LineBreakMode = iota
	BreakByCharWrapping
	BreakByClipping
)

// Paragraph holds paragraph-level attributes.
type Paragraph struct {
	Alignment           Alignment     `json:"alignment"`
	LineBreakMode       LineBreakMode `json:"lineBreakMode"`
	LineSpacing         float64       `json:"lineSpacing"`
	FirstLineHeadIndent float64       `json:"firstLineHeadIndent"`
}
