package styled

import "github.com/ByLCY/scribe/geom"

// Kind enumerates the attribute kinds a run may carry.
type Kind int

const (
	KindFont Kind = iota
	KindColor
	KindParagraph
	KindShadow
	KindInnerShadow
	KindUnderline
	KindStrikethrough
	KindBorder
	KindBackgroundBorder
	KindBlockBorder
	KindAttachment
	KindHighlight
	KindGlyphTransform
	KindBackedString
	KindBinding
	kindCount
)

// DiscontinuousKinds are dropped when attributes are extended to adjacent text.
var DiscontinuousKinds = []Kind{KindBackedString, KindBinding, KindAttachment}

// Attributes is the closed set of typed attributes applied to a run. A nil field is absent.
type Attributes struct {
	Font             *Font         `json:"font,omitempty"`
	Color            *Color        `json:"color,omitempty"`
	Paragraph        *Paragraph    `json:"paragraph,omitempty"`
	Shadow           *Shadow       `json:"shadow,omitempty"`
	InnerShadow      *Shadow       `json:"innerShadow,omitempty"`
	Underline        *Decoration   `json:"underline,omitempty"`
	Strikethrough    *Decoration   `json:"strikethrough,omitempty"`
	Border           *Border       `json:"border,omitempty"`
	BackgroundBorder *Border       `json:"backgroundBorder,omitempty"`
	BlockBorder      *Border       `json:"blockBorder,omitempty"`
	Attachment       *Attachment   `json:"attachment,omitempty"`
	Highlight        *Highlight    `json:"highlight,omitempty"`
	GlyphTransform   *geom.Matrix  `json:"glyphTransform,omitempty"`
	BackedString     *BackedString `json:"backedString,omitempty"`
	Binding          *Binding      `json:"binding,omitempty"`
}

// Has reports whether the attribute of kind k is present.
func (a Attributes) Has(k Kind) bool {
	switch k {
	case KindFont:
		return a.Font != nil
	case KindColor:
		return a.Color != nil
	case KindParagraph:
		return a.Paragraph != nil
	case KindShadow:
		return a.Shadow != nil
	case KindInnerShadow:
		return a.InnerShadow != nil
	case KindUnderline:
		return a.Underline != nil
	case KindStrikethrough:
		return a.Strikethrough != nil
	case KindBorder:
		return a.Border != nil
	case KindBackgroundBorder:
		return a.BackgroundBorder != nil
	case KindBlockBorder:
		return a.BlockBorder != nil
	case KindAttachment:
		return a.Attachment != nil
	case KindHighlight:
		return a.Highlight != nil
	case KindGlyphTransform:
		return a.GlyphTransform != nil
	case KindBackedString:
		return a.BackedString != nil
	case KindBinding:
		return a.Binding != nil
	}
	return false
}

// Kinds lists the present attribute kinds in declaration order.
func (a Attributes) Kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < kindCount; k++ {
		if a.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// IsEmpty reports whether no attribute is present.
func (a Attributes) IsEmpty() bool { return len(a.Kinds()) == 0 }

// Without returns a copy with the given kinds removed.
func (a Attributes) Without(kinds ...Kind) Attributes {
	for _, k := range kinds {
		switch k {
		case KindFont:
			a.Font = nil
		case KindColor:
			a.Color = nil
		case KindParagraph:
			a.Paragraph = nil
		case KindShadow:
			a.Shadow = nil
		case KindInnerShadow:
			a.InnerShadow = nil
		case KindUnderline:
			a.Underline = nil
		case KindStrikethrough:
			a.Strikethrough = nil
		case KindBorder:
			a.Border = nil
		case KindBackgroundBorder:
			a.BackgroundBorder = nil
		case KindBlockBorder:
			a.BlockBorder = nil
		case KindAttachment:
			a.Attachment = nil
		case KindHighlight:
			a.Highlight = nil
		case KindGlyphTransform:
			a.GlyphTransform = nil
		case KindBackedString:
			a.BackedString = nil
		case KindBinding:
			a.Binding = nil
		}
	}
	return a
}

// StripDiscontinuous removes attributes that must not extend past their original range.
func (a Attributes) StripDiscontinuous() Attributes { return a.Without(DiscontinuousKinds...) }

// Merge returns a copy where every attribute present in o overrides the one in a.
func (a Attributes) Merge(o Attributes) Attributes {
	if o.Font != nil {
		a.Font = o.Font
	}
	if o.Color != nil {
		a.Color = o.Color
	}
	if o.Paragraph != nil {
		a.Paragraph = o.Paragraph
	}
	if o.Shadow != nil {
		a.Shadow = o.Shadow
	}
	if o.InnerShadow != nil {
		a.InnerShadow = o.InnerShadow
	}
	if o.Underline != nil {
		a.Underline = o.Underline
	}
	if o.Strikethrough != nil {
		a.Strikethrough = o.Strikethrough
	}
	if o.Border != nil {
		a.Border = o.Border
	}
	if o.BackgroundBorder != nil {
		a.BackgroundBorder = o.BackgroundBorder
	}
	if o.BlockBorder != nil {
		a.BlockBorder = o.BlockBorder
	}
	if o.Attachment != nil {
		a.Attachment = o.Attachment
	}
	if o.Highlight != nil {
		a.Highlight = o.Highlight
	}
	if o.GlyphTransform != nil {
		a.GlyphTransform = o.GlyphTransform
	}
	if o.BackedString != nil {
		a.BackedString = o.BackedString
	}
	if o.Binding != nil {
		a.Binding = o.Binding
	}
	return a
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	out := a
	if a.Font != nil {
		f := *a.Font
		out.Font = &f
	}
	if a.Color != nil {
		c := *a.Color
		out.Color = &c
	}
	if a.Paragraph != nil {
		p := *a.Paragraph
		out.Paragraph = &p
	}
	out.Shadow = a.Shadow.Clone()
	out.InnerShadow = a.InnerShadow.Clone()
	out.Underline = a.Underline.Clone()
	out.Strikethrough = a.Strikethrough.Clone()
	out.Border = a.Border.Clone()
	out.BackgroundBorder = a.BackgroundBorder.Clone()
	out.BlockBorder = a.BlockBorder.Clone()
	out.Attachment = a.Attachment.Clone()
	out.Highlight = a.Highlight.Clone()
	if a.GlyphTransform != nil {
		m := *a.GlyphTransform
		out.GlyphTransform = &m
	}
	if a.BackedString != nil {
		b := *a.BackedString
		out.BackedString = &b
	}
	if a.Binding != nil {
		b := *a.Binding
		out.Binding = &b
	}
	return out
}

// Equal compares attribute sets structurally.
func (a Attributes) Equal(o Attributes) bool {
	return eqPtr(a.Font, o.Font) &&
		eqPtr(a.Color, o.Color) &&
		eqPtr(a.Paragraph, o.Paragraph) &&
		a.Shadow.Equal(o.Shadow) &&
		a.InnerShadow.Equal(o.InnerShadow) &&
		a.Underline.Equal(o.Underline) &&
		a.Strikethrough.Equal(o.Strikethrough) &&
		a.Border.Equal(o.Border) &&
		a.BackgroundBorder.Equal(o.BackgroundBorder) &&
		a.BlockBorder.Equal(o.BlockBorder) &&
		a.Attachment.Equal(o.Attachment) &&
		a.Highlight.Equal(o.Highlight) &&
		eqPtr(a.GlyphTransform, o.GlyphTransform) &&
		eqPtr(a.BackedString, o.BackedString) &&
		eqPtr(a.Binding, o.Binding)
}

// kindEqual compares a single attribute kind.
func (a Attributes) kindEqual(o Attributes, k Kind) bool {
	return a.Without(allBut(k)...).Equal(o.Without(allBut(k)...))
}

func allBut(k Kind) []Kind {
	out := make([]Kind, 0, kindCount-1)
	for i := Kind(0); i < kindCount; i++ {
		if i != k {
			out = append(out, i)
		}
	}
	return out
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FontOrDefault returns the run font or DefaultFont.
func (a Attributes) FontOrDefault() Font {
	if a.Font != nil {
		return *a.Font
	}
	return DefaultFont
}

// ColorOrDefault returns the foreground color or Black.
func (a Attributes) ColorOrDefault() Color {
	if a.Color != nil {
		return *a.Color
	}
	return Black
}
