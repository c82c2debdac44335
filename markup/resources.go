package markup

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// Resources are the named values declared in `resources { ... }`.
type Resources struct {
	Colors      map[string]styled.Color
	Fonts       map[string]styled.Font
	Borders     map[string]*styled.Border
	Shadows     map[string]*styled.Shadow
	Decorations map[string]*styled.Decoration
}

func newResources() *Resources {
	return &Resources{
		Colors:      map[string]styled.Color{},
		Fonts:       map[string]styled.Font{},
		Borders:     map[string]*styled.Border{},
		Shadows:     map[string]*styled.Shadow{},
		Decorations: map[string]*styled.Decoration{},
	}
}

// collectResources 按声明顺序解析资源；后声明的资源可以引用先声明的颜色和阴影。
func collectResources(doc *dsl.Document) (*Resources, error) {
	res := newResources()
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			cmd := stmt.Command
			if cmd == nil {
				continue
			}
			if len(cmd.Args) == 0 {
				return nil, fmt.Errorf("%s: %w: %s resource without a name", cmd.Pos, ErrInvalidValue, cmd.Name)
			}
			name := cmd.Args[0].Value
			props := cmd.Block.Assignments()
			var err error
			switch cmd.Name {
			case "color":
				err = res.addColor(name, cmd.Args[1:])
			case "font":
				res.Fonts[name], err = res.parseFont(props)
			case "shadow":
				res.Shadows[name], err = res.parseShadow(props)
			case "border":
				res.Borders[name], err = res.parseBorder(props)
			case "decoration":
				res.Decorations[name], err = res.parseDecoration(props)
			default:
				err = fmt.Errorf("%w: resource kind %q", ErrInvalidValue, cmd.Name)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %s %s: %w", cmd.Pos, cmd.Name, name, err)
			}
		}
	}
	return res, nil
}

// addColor 接受 `color Name = #hex` 或 `color Name #hex`。
func (r *Resources) addColor(name string, args []*dsl.Lexeme) error {
	if len(args) > 0 && args[0].Is("=") {
		args = args[1:]
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: color needs exactly one value", ErrInvalidValue)
	}
	c, err := r.color(args[0].Value)
	if err != nil {
		return err
	}
	r.Colors[name] = c
	return nil
}

// color 依次尝试十六进制、资源名和 CSS 颜色名。
func (r *Resources) color(value string) (styled.Color, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "#") {
		return styled.ParseHex(value)
	}
	if c, ok := r.Colors[value]; ok {
		return c, nil
	}
	if c, ok := colornames.Map[strings.ToLower(value)]; ok {
		return styled.Color{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return styled.Color{}, fmt.Errorf("%w: color %q", ErrUnknownResource, value)
}

func (r *Resources) parseFont(props map[string]*dsl.Value) (styled.Font, error) {
	f := styled.DefaultFont
	if v, ok := props["family"]; ok {
		f.Family = valueString(v)
	}
	if v, ok := props["size"]; ok {
		n, err := valueLength(v)
		if err != nil {
			return f, err
		}
		f.Size = n
	}
	var err error
	if v, ok := props["bold"]; ok {
		if f.Bold, err = valueBool(v); err != nil {
			return f, err
		}
	}
	if v, ok := props["italic"]; ok {
		if f.Italic, err = valueBool(v); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (r *Resources) parseShadow(props map[string]*dsl.Value) (*styled.Shadow, error) {
	s := &styled.Shadow{Color: styled.WithAlpha(styled.Black, 0.33)}
	var err error
	if v, ok := props["color"]; ok {
		if s.Color, err = r.color(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["offset"]; ok {
		nums, err := valueNumbers(v, 2)
		if err != nil {
			return nil, err
		}
		s.Offset = geom.Sz(nums[0], nums[1])
	}
	if v, ok := props["radius"]; ok {
		if s.Radius, err = valueLength(v); err != nil {
			return nil, err
		}
	}
	if v, ok := props["blend"]; ok {
		if s.BlendMode, err = parseBlendMode(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["sub"]; ok {
		sub, ok := r.Shadows[valueString(v)]
		if !ok {
			return nil, fmt.Errorf("%w: shadow %q", ErrUnknownResource, valueString(v))
		}
		s.SubShadow = sub.Clone()
	}
	return s, nil
}

func (r *Resources) parseBorder(props map[string]*dsl.Value) (*styled.Border, error) {
	b := &styled.Border{LineStyle: styled.LineStyleSingle, StrokeColor: styled.Black}
	var err error
	if v, ok := props["style"]; ok {
		if b.LineStyle, err = styled.ParseLineStyle(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["width"]; ok {
		if b.StrokeWidth, err = valueLength(v); err != nil {
			return nil, err
		}
	}
	if v, ok := props["color"]; ok {
		if b.StrokeColor, err = r.color(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["fill"]; ok {
		if b.FillColor, err = r.color(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["insets"]; ok {
		if b.Insets, err = valueInsets(v); err != nil {
			return nil, err
		}
	}
	if v, ok := props["radius"]; ok {
		if b.CornerRadius, err = valueLength(v); err != nil {
			return nil, err
		}
	}
	if v, ok := props["join"]; ok {
		if b.LineJoin, err = parseLineJoin(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["shadow"]; ok {
		if b.Shadow, err = r.shadow(valueString(v)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (r *Resources) parseDecoration(props map[string]*dsl.Value) (*styled.Decoration, error) {
	d := &styled.Decoration{Style: styled.LineStyleSingle, Color: styled.Black}
	var err error
	if v, ok := props["style"]; ok {
		if d.Style, err = styled.ParseLineStyle(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["width"]; ok {
		if d.Width, err = valueLength(v); err != nil {
			return nil, err
		}
	}
	if v, ok := props["color"]; ok {
		if d.Color, err = r.color(valueString(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := props["shadow"]; ok {
		if d.Shadow, err = r.shadow(valueString(v)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (r *Resources) shadow(name string) (*styled.Shadow, error) {
	s, ok := r.Shadows[name]
	if !ok {
		return nil, fmt.Errorf("%w: shadow %q", ErrUnknownResource, name)
	}
	return s.Clone(), nil
}

func parseBlendMode(s string) (styled.BlendMode, error) {
	for m := styled.BlendNormal; m <= styled.BlendDestinationOut; m++ {
		if m.String() == strings.ToLower(s) {
			return m, nil
		}
	}
	return styled.BlendNormal, fmt.Errorf("%w: blend mode %q", ErrInvalidValue, s)
}

func parseLineJoin(s string) (styled.LineJoin, error) {
	switch strings.ToLower(s) {
	case "miter":
		return styled.JoinMiter, nil
	case "round":
		return styled.JoinRound, nil
	case "bevel":
		return styled.JoinBevel, nil
	}
	return styled.JoinMiter, fmt.Errorf("%w: line join %q", ErrInvalidValue, s)
}

// --- dsl.Value helpers ---

func valueString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		return val.Expr.String()
	}
	return ""
}

func valueStrings(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array == nil {
		if s := valueString(val); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(val.Array.Values))
	for _, item := range val.Array.Values {
		if s := valueString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func valueLength(val *dsl.Value) (float64, error) {
	l, err := ParseLength(valueString(val))
	if err != nil {
		return 0, err
	}
	return l.Points(0), nil
}

func valueBool(val *dsl.Value) (bool, error) {
	b, err := strconv.ParseBool(valueString(val))
	if err != nil {
		return false, fmt.Errorf("%w: bool %q", ErrInvalidValue, valueString(val))
	}
	return b, nil
}

func valueInt(val *dsl.Value) (int, error) {
	n, err := strconv.Atoi(valueString(val))
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q", ErrInvalidValue, valueString(val))
	}
	return n, nil
}

// valueNumbers 解析 [a, b, ...]；want > 0 时要求元素个数一致。
func valueNumbers(val *dsl.Value, want int) ([]float64, error) {
	return lengths(valueStrings(val), want)
}

func lengths(items []string, want int) ([]float64, error) {
	if want > 0 && len(items) != want {
		return nil, fmt.Errorf("%w: expected %d numbers, got %d", ErrInvalidValue, want, len(items))
	}
	out := make([]float64, len(items))
	for i, s := range items {
		l, err := ParseLength(s)
		if err != nil {
			return nil, err
		}
		out[i] = l.Points(0)
	}
	return out, nil
}

// valueInsets 接受单个数值或 [top, left, bottom, right]。
func valueInsets(val *dsl.Value) (geom.Insets, error) {
	items := valueStrings(val)
	if len(items) == 1 {
		n, err := lengths(items, 1)
		if err != nil {
			return geom.Insets{}, err
		}
		return geom.Insets{Top: n[0], Left: n[0], Bottom: n[0], Right: n[0]}, nil
	}
	n, err := lengths(items, 4)
	if err != nil {
		return geom.Insets{}, err
	}
	return geom.Insets{Top: n[0], Left: n[1], Bottom: n[2], Right: n[3]}, nil
}
