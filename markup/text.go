package markup

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// arg is one `key value` pair of a command; flags have no value.
type arg struct {
	key   string
	value []string
	pos   string
}

func (a arg) first() string {
	if len(a.value) == 0 {
		return ""
	}
	return a.value[0]
}

var flagArgs = map[string]bool{"bold": true, "italic": true, "regular": true}

// parseArgs 将参数切分为 key/value；数组值 `[ ... ]` 作为一个整体。
func parseArgs(args []*dsl.Lexeme) ([]arg, error) {
	var out []arg
	for i := 0; i < len(args); i++ {
		key := args[i]
		a := arg{key: key.Value, pos: key.Pos.String()}
		if flagArgs[a.key] {
			out = append(out, a)
			continue
		}
		i++
		if i >= len(args) {
			return nil, fmt.Errorf("%s: %w: %s needs a value", a.pos, ErrInvalidValue, a.key)
		}
		if !args[i].Is("[") {
			a.value = []string{args[i].Value}
			out = append(out, a)
			continue
		}
		end := i + 1
		for end < len(args) && !args[end].Is("]") {
			end++
		}
		if end == len(args) {
			return nil, fmt.Errorf("%s: %w: unclosed array", a.pos, ErrInvalidValue)
		}
		a.value = arrayItems(args[i : end+1])
		i = end
		out = append(out, a)
	}
	return out, nil
}

func buildText(sec *dsl.TextSection, res *Resources) (*styled.Text, error) {
	font := styled.DefaultFont
	base := styled.Attributes{Font: &font}
	attrs, err := applyArgs(base, sec.Args, res)
	if err != nil {
		return nil, err
	}
	return buildBlock(sec.Block, attrs, res)
}

func buildBlock(block *dsl.Block, attrs styled.Attributes, res *Resources) (*styled.Text, error) {
	if block == nil {
		return styled.Plain(""), nil
	}
	var parts []*styled.Text
	for _, st := range block.Statements {
		switch {
		case st.Text != nil:
			parts = append(parts, styled.New(string(st.Text.Value), attrs.Clone()))
		case st.Command != nil:
			t, err := buildCommand(st.Command, attrs, res)
			if err != nil {
				return nil, err
			}
			parts = append(parts, t)
		case st.Assignment != nil:
			return nil, fmt.Errorf("%s: %w: assignment %q inside text", st.Assignment.Pos, ErrInvalidValue, st.Assignment.Key)
		}
	}
	return styled.Concat(parts...), nil
}

func buildCommand(cmd *dsl.Command, attrs styled.Attributes, res *Resources) (*styled.Text, error) {
	switch cmd.Name {
	case "span":
		inner, err := applyArgs(attrs, cmd.Args, res)
		if err != nil {
			return nil, err
		}
		return buildBlock(cmd.Block, inner, res)
	case "attachment":
		att, err := buildAttachment(cmd.Args)
		if err != nil {
			return nil, err
		}
		a := attrs.StripDiscontinuous()
		a.Attachment = att
		return styled.New(string(styled.AttachmentCharacter), a), nil
	case "br":
		return styled.New("\n", attrs.StripDiscontinuous()), nil
	}
	return nil, fmt.Errorf("%s: %w: unknown command %q", cmd.Pos, ErrInvalidValue, cmd.Name)
}

// applyArgs 返回在 base 之上叠加参数后的属性副本。
func applyArgs(base styled.Attributes, lexemes []*dsl.Lexeme, res *Resources) (styled.Attributes, error) {
	args, err := parseArgs(lexemes)
	if err != nil {
		return base, err
	}
	a := base.Clone()
	font := a.FontOrDefault()
	para := styled.Paragraph{}
	if a.Paragraph != nil {
		para = *a.Paragraph
	}
	var spacing *LineSpacing
	touchedPara := false
	for _, ar := range args {
		if err := applyArg(&a, &font, &para, &spacing, &touchedPara, ar, res); err != nil {
			return base, fmt.Errorf("%s: %s: %w", ar.pos, ar.key, err)
		}
	}
	a.Font = &font
	if spacing != nil {
		para.LineSpacing = spacing.Resolve(font.Size)
	}
	if touchedPara {
		a.Paragraph = &para
	}
	return a, nil
}

func applyArg(a *styled.Attributes, font *styled.Font, para *styled.Paragraph, spacing **LineSpacing, touchedPara *bool, ar arg, res *Resources) error {
	var err error
	switch ar.key {
	case "font":
		if f, ok := res.Fonts[ar.first()]; ok {
			*font = f
		} else {
			font.Family = ar.first()
		}
	case "size":
		font.Size, err = pointValue(ar.first(), font.Size)
	case "bold":
		font.Bold = true
	case "italic":
		font.Italic = true
	case "regular":
		font.Bold, font.Italic = false, false
	case "color":
		var c styled.Color
		if c, err = res.color(ar.first()); err == nil {
			a.Color = &c
		}
	case "underline":
		a.Underline, err = res.decoration(ar.first())
	case "strikethrough":
		a.Strikethrough, err = res.decoration(ar.first())
	case "border":
		a.Border, err = res.border(ar.first())
	case "background-border":
		a.BackgroundBorder, err = res.fillBorder(ar.first())
	case "block-border":
		a.BlockBorder, err = res.fillBorder(ar.first())
	case "shadow":
		a.Shadow, err = res.shadow(ar.first())
	case "inner-shadow":
		a.InnerShadow, err = res.shadow(ar.first())
	case "highlight":
		var c styled.Color
		if c, err = res.color(ar.first()); err == nil {
			a.Highlight = styled.NewColorHighlight(c)
		}
	case "align":
		*touchedPara = true
		para.Alignment, err = parseAlignment(ar.first())
	case "break":
		*touchedPara = true
		para.LineBreakMode, err = parseBreakMode(ar.first())
	case "indent":
		*touchedPara = true
		para.FirstLineHeadIndent, err = pointValue(ar.first(), 0)
	case "line-spacing":
		*touchedPara = true
		var s LineSpacing
		if s, err = ParseLineSpacing(ar.first()); err == nil {
			*spacing = &s
		}
	case "backed":
		a.BackedString = &styled.BackedString{String: ar.first()}
	case "bind":
		a.Binding = &styled.Binding{DeleteConfirm: ar.first() == "confirm"}
	case "rotate":
		var deg float64
		if deg, err = strconv.ParseFloat(ar.first(), 64); err == nil {
			m := geom.Rotate(deg * math.Pi / 180)
			a.GlyphTransform = &m
		}
	default:
		err = fmt.Errorf("%w: unknown attribute", ErrInvalidValue)
	}
	return err
}

func pointValue(s string, ref float64) (float64, error) {
	l, err := ParseLength(s)
	if err != nil {
		return 0, err
	}
	return l.Points(ref), nil
}

// decoration 接受资源名或线型字符串，如 "thick|dash"。
func (r *Resources) decoration(v string) (*styled.Decoration, error) {
	if d, ok := r.Decorations[v]; ok {
		return d.Clone(), nil
	}
	style, err := styled.ParseLineStyle(v)
	if err != nil {
		return nil, fmt.Errorf("%w: decoration %q", ErrUnknownResource, v)
	}
	return styled.NewDecoration(style, 0, styled.Black), nil
}

func (r *Resources) border(v string) (*styled.Border, error) {
	if b, ok := r.Borders[v]; ok {
		return b.Clone(), nil
	}
	return nil, fmt.Errorf("%w: border %q", ErrUnknownResource, v)
}

// fillBorder 接受边框资源名，或颜色（生成圆角填充背景）。
func (r *Resources) fillBorder(v string) (*styled.Border, error) {
	if b, ok := r.Borders[v]; ok {
		return b.Clone(), nil
	}
	c, err := r.color(v)
	if err != nil {
		return nil, fmt.Errorf("%w: border %q", ErrUnknownResource, v)
	}
	return styled.NewFillBorder(c, 3), nil
}

func parseAlignment(s string) (styled.Alignment, error) {
	switch strings.ToLower(s) {
	case "left":
		return styled.AlignLeft, nil
	case "right":
		return styled.AlignRight, nil
	case "center":
		return styled.AlignCenterText, nil
	case "justified", "justify":
		return styled.AlignJustified, nil
	case "natural":
		return styled.AlignNatural, nil
	}
	return styled.AlignLeft, fmt.Errorf("%w: alignment %q", ErrInvalidValue, s)
}

func parseBreakMode(s string) (styled.LineBreakMode, error) {
	switch strings.ToLower(s) {
	case "word":
		return styled.BreakByWordWrapping, nil
	case "char":
		return styled.BreakByCharWrapping, nil
	case "clip":
		return styled.BreakByClipping, nil
	}
	return styled.BreakByWordWrapping, fmt.Errorf("%w: line break %q", ErrInvalidValue, s)
}

var contentKinds = map[string]styled.ContentKind{
	"image": styled.ContentImage,
	"view":  styled.ContentView,
	"layer": styled.ContentLayer,
}

var contentModes = map[string]styled.ContentMode{
	"fill":        styled.ContentModeScaleToFill,
	"aspect-fit":  styled.ContentModeScaleAspectFit,
	"aspect-fill": styled.ContentModeScaleAspectFill,
	"center":      styled.ContentModeCenter,
	"top":         styled.ContentModeTop,
	"bottom":      styled.ContentModeBottom,
	"left":        styled.ContentModeLeft,
	"right":       styled.ContentModeRight,
}

var verticalAlignments = map[string]styled.VerticalAlignment{
	"bottom": styled.AlignBottom,
	"center": styled.AlignCenter,
	"top":    styled.AlignTop,
}

// buildAttachment 解析 `attachment id "logo" size [20, 20] kind view mode center align center`。
func buildAttachment(lexemes []*dsl.Lexeme) (*styled.Attachment, error) {
	args, err := parseArgs(lexemes)
	if err != nil {
		return nil, err
	}
	att := &styled.Attachment{}
	for _, ar := range args {
		var ok bool
		switch ar.key {
		case "id":
			att.ID = ar.first()
		case "content":
			att.Content.ID = ar.first()
		case "size":
			n, err := lengths(ar.value, 2)
			if err != nil {
				return nil, fmt.Errorf("%s: size: %w", ar.pos, err)
			}
			att.Content.Size = geom.Sz(n[0], n[1])
		case "insets":
			n, err := lengths(ar.value, 4)
			if err != nil {
				return nil, fmt.Errorf("%s: insets: %w", ar.pos, err)
			}
			att.ContentInsets = geom.Insets{Top: n[0], Left: n[1], Bottom: n[2], Right: n[3]}
		case "kind":
			if att.Content.Kind, ok = contentKinds[ar.first()]; !ok {
				return nil, fmt.Errorf("%s: %w: kind %q", ar.pos, ErrInvalidValue, ar.first())
			}
		case "mode":
			if att.ContentMode, ok = contentModes[ar.first()]; !ok {
				return nil, fmt.Errorf("%s: %w: mode %q", ar.pos, ErrInvalidValue, ar.first())
			}
		case "align":
			if att.Alignment, ok = verticalAlignments[ar.first()]; !ok {
				return nil, fmt.Errorf("%s: %w: align %q", ar.pos, ErrInvalidValue, ar.first())
			}
		default:
			return nil, fmt.Errorf("%s: %w: unknown attachment attribute %q", ar.pos, ErrInvalidValue, ar.key)
		}
	}
	if att.ID == "" {
		return nil, fmt.Errorf("%w: attachment without id", ErrInvalidValue)
	}
	if att.Content.ID == "" {
		att.Content.ID = att.ID
	}
	return att, nil
}
