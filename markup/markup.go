// Package markup compiles a parsed `.scribe` document into a text container and attributed text.
package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/scribe/binding"
	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

var (
	// ErrUnknownResource 表示引用了未声明的资源。
	ErrUnknownResource = errors.New("markup: unknown resource")
	// ErrInvalidValue 表示属性值无法解析。
	ErrInvalidValue = errors.New("markup: invalid value")
	// ErrMissingSection 表示文档缺少 container 段。
	ErrMissingSection = errors.New("markup: missing section")
)

// Meta is the document metadata.
type Meta struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
}

// Document is a compiled `.scribe` file ready for layout.Build.
type Document struct {
	Name      string
	Version   string
	Meta      Meta
	Resources *Resources
	Container *layout.Container
	Text      *styled.Text
	// Missing 列出 data 中找不到的 ${path}
	Missing []string
}

// Compile resolves resources, builds the container and the attributed text,
// then substitutes ${path} placeholders from data.
func Compile(doc *dsl.Document, data any) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMissingSection)
	}
	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	out := &Document{Name: doc.Name, Version: doc.Version, Meta: collectMeta(doc), Resources: res}

	var parts []*styled.Text
	for _, section := range doc.Sections {
		switch {
		case section.Container != nil:
			if out.Container, err = buildContainer(section.Container, res); err != nil {
				return nil, err
			}
		case section.Text != nil:
			t, err := buildText(section.Text, res)
			if err != nil {
				return nil, err
			}
			parts = append(parts, t)
		}
	}
	if out.Container == nil {
		return nil, fmt.Errorf("%w: container", ErrMissingSection)
	}

	text := styled.Concat(parts...)
	out.Missing = binding.Missing(text.String(), data)
	if out.Text, err = binding.InterpolateText(text, data); err != nil {
		return nil, err
	}
	return out, nil
}

func collectMeta(doc *dsl.Document) Meta {
	var meta Meta
	for _, section := range doc.Sections {
		if section.Meta == nil {
			continue
		}
		for key, val := range section.Meta.Block.Assignments() {
			switch strings.ToLower(key) {
			case "title":
				meta.Title = valueString(val)
			case "author":
				meta.Author = valueString(val)
			case "subject":
				meta.Subject = valueString(val)
			case "keywords":
				meta.Keywords = valueStrings(val)
			}
		}
	}
	return meta
}

func buildContainer(sec *dsl.ContainerSection, res *Resources) (*layout.Container, error) {
	props := sec.Block.Assignments()
	wrap := func(key string, err error) error {
		return fmt.Errorf("%s: container %s: %w", sec.Pos, key, err)
	}

	var path, exclusions []*geom.Path
	for _, st := range sec.Block.Statements {
		cmd := st.Command
		if cmd == nil {
			continue
		}
		p, err := shapePath(cmd.Args)
		if err != nil {
			return nil, wrap(cmd.Name, err)
		}
		switch cmd.Name {
		case "path":
			path = append(path, p)
		case "exclude":
			exclusions = append(exclusions, p)
		default:
			return nil, wrap(cmd.Name, fmt.Errorf("%w: unknown command", ErrInvalidValue))
		}
	}

	var c *layout.Container
	if len(path) > 0 {
		combined := geom.NewPath()
		for _, p := range path {
			combined.AddPath(p)
		}
		c = layout.NewContainerWithPath(combined)
	} else {
		v, ok := props["size"]
		if !ok {
			return nil, wrap("size", fmt.Errorf("%w: size or path required", ErrInvalidValue))
		}
		size, err := valueNumbers(v, 2)
		if err != nil {
			return nil, wrap("size", err)
		}
		c = layout.NewContainer(geom.Sz(size[0], size[1]))
		if v, ok := props["insets"]; ok {
			in, err := valueInsets(v)
			if err != nil {
				return nil, wrap("insets", err)
			}
			c.SetInsets(in)
		}
	}
	if len(exclusions) > 0 {
		c.SetExclusionPaths(exclusions)
	}
	if v, ok := props["rows"]; ok {
		n, err := valueInt(v)
		if err != nil {
			return nil, wrap("rows", err)
		}
		c.SetMaximumNumberOfRows(n)
	}
	if v, ok := props["truncation"]; ok {
		tt, ok := layout.ParseTruncationType(valueString(v))
		if !ok {
			return nil, wrap("truncation", fmt.Errorf("%w: %q", ErrInvalidValue, valueString(v)))
		}
		c.SetTruncationType(tt)
	}
	if v, ok := props["token"]; ok {
		c.SetTruncationToken(styled.Plain(valueString(v)))
	}
	if v, ok := props["vertical"]; ok {
		b, err := valueBool(v)
		if err != nil {
			return nil, wrap("vertical", err)
		}
		c.SetVerticalForm(b)
	}
	if v, ok := props["even-odd"]; ok {
		b, err := valueBool(v)
		if err != nil {
			return nil, wrap("even-odd", err)
		}
		c.SetPathFillEvenOdd(b)
	}
	if v, ok := props["path-width"]; ok {
		w, err := valueLength(v)
		if err != nil {
			return nil, wrap("path-width", err)
		}
		c.SetPathLineWidth(w)
	}
	return c, nil
}

// shapePath 解析 `rect [x, y, w, h]`、`ellipse [...]` 或 `rounded [x, y, w, h, r]`。
func shapePath(args []*dsl.Lexeme) (*geom.Path, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing shape", ErrInvalidValue)
	}
	nums, err := lengths(arrayItems(args[1:]), 0)
	if err != nil {
		return nil, err
	}
	shape := args[0].Value
	want := 4
	if shape == "rounded" {
		want = 5
	}
	if len(nums) != want {
		return nil, fmt.Errorf("%w: %s needs %d numbers", ErrInvalidValue, shape, want)
	}
	r := geom.R(nums[0], nums[1], nums[2], nums[3])
	switch shape {
	case "rect":
		return geom.RectPath(r), nil
	case "ellipse":
		return geom.EllipsePath(r), nil
	case "rounded":
		return geom.RoundedRectPath(r, nums[4]), nil
	}
	return nil, fmt.Errorf("%w: shape %q", ErrInvalidValue, shape)
}

// arrayItems 返回 `[ a , b ]` 形式参数中的元素值。
func arrayItems(args []*dsl.Lexeme) []string {
	var out []string
	for _, l := range args {
		if l.Is("[") || l.Is("]") || l.Is(",") {
			continue
		}
		out = append(out, l.Value)
	}
	return out
}
