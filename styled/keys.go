package styled

import (
	"errors"
	"fmt"

	"github.com/ByLCY/scribe/geom"
)

// ErrUnknownKey is returned by FromMap for keys outside the attribute set.
var ErrUnknownKey = errors.New("styled: unknown attribute key")

// 字符串键，供需要 map 形式属性的调用方使用
const (
	KeyFont             = "Font"
	KeyForegroundColor  = "ForegroundColor"
	KeyParagraphStyle   = "ParagraphStyle"
	KeyShadow           = "TextShadow"
	KeyInnerShadow      = "TextInnerShadow"
	KeyUnderline        = "TextUnderline"
	KeyStrikethrough    = "TextStrikethrough"
	KeyBorder           = "TextBorder"
	KeyBackgroundBorder = "TextBackgroundBorder"
	KeyBlockBorder      = "TextBlockBorder"
	KeyAttachment       = "TextAttachment"
	KeyHighlight        = "TextHighlight"
	KeyGlyphTransform   = "TextGlyphTransform"
	KeyBackedString     = "TextBackedString"
	KeyBinding          = "TextBinding"
)

var kindKeys = [kindCount]string{
	KindFont:             KeyFont,
	KindColor:            KeyForegroundColor,
	KindParagraph:        KeyParagraphStyle,
	KindShadow:           KeyShadow,
	KindInnerShadow:      KeyInnerShadow,
	KindUnderline:        KeyUnderline,
	KindStrikethrough:    KeyStrikethrough,
	KindBorder:           KeyBorder,
	KindBackgroundBorder: KeyBackgroundBorder,
	KindBlockBorder:      KeyBlockBorder,
	KindAttachment:       KeyAttachment,
	KindHighlight:        KeyHighlight,
	KindGlyphTransform:   KeyGlyphTransform,
	KindBackedString:     KeyBackedString,
	KindBinding:          KeyBinding,
}

// Key returns the string key of a kind.
func (k Kind) Key() string {
	if k < 0 || k >= kindCount {
		return ""
	}
	return kindKeys[k]
}

func (k Kind) String() string { return k.Key() }

// KindForKey maps a string key back to its kind.
func KindForKey(key string) (Kind, bool) {
	for k, v := range kindKeys {
		if v == key {
			return Kind(k), true
		}
	}
	return 0, false
}

// ToMap returns the present attributes keyed by their string keys.
func (a Attributes) ToMap() map[string]any {
	m := make(map[string]any)
	put := func(k Kind, v any) {
		if a.Has(k) {
			m[k.Key()] = v
		}
	}
	put(KindFont, a.Font)
	put(KindColor, a.Color)
	put(KindParagraph, a.Paragraph)
	put(KindShadow, a.Shadow)
	put(KindInnerShadow, a.InnerShadow)
	put(KindUnderline, a.Underline)
	put(KindStrikethrough, a.Strikethrough)
	put(KindBorder, a.Border)
	put(KindBackgroundBorder, a.BackgroundBorder)
	put(KindBlockBorder, a.BlockBorder)
	put(KindAttachment, a.Attachment)
	put(KindHighlight, a.Highlight)
	put(KindGlyphTransform, a.GlyphTransform)
	put(KindBackedString, a.BackedString)
	put(KindBinding, a.Binding)
	return m
}

// FromMap builds Attributes from string-keyed values. Values must have the
// pointer types ToMap produces.
func FromMap(m map[string]any) (Attributes, error) {
	var a Attributes
	for key, v := range m {
		k, ok := KindForKey(key)
		if !ok {
			return Attributes{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		var typed bool
		switch k {
		case KindFont:
			a.Font, typed = v.(*Font)
		case KindColor:
			a.Color, typed = v.(*Color)
		case KindParagraph:
			a.Paragraph, typed = v.(*Paragraph)
		case KindShadow:
			a.Shadow, typed = v.(*Shadow)
		case KindInnerShadow:
			a.InnerShadow, typed = v.(*Shadow)
		case KindUnderline:
			a.Underline, typed = v.(*Decoration)
		case KindStrikethrough:
			a.Strikethrough, typed = v.(*Decoration)
		case KindBorder:
			a.Border, typed = v.(*Border)
		case KindBackgroundBorder:
			a.BackgroundBorder, typed = v.(*Border)
		case KindBlockBorder:
			a.BlockBorder, typed = v.(*Border)
		case KindAttachment:
			a.Attachment, typed = v.(*Attachment)
		case KindHighlight:
			a.Highlight, typed = v.(*Highlight)
		case KindGlyphTransform:
			a.GlyphTransform, typed = v.(*geom.Matrix)
		case KindBackedString:
			a.BackedString, typed = v.(*BackedString)
		case KindBinding:
			a.Binding, typed = v.(*Binding)
		}
		if !typed {
			return Attributes{}, fmt.Errorf("styled: 属性 %s 的值类型 %T 不匹配", key, v)
		}
	}
	return a, nil
}
