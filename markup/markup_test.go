package markup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/markup"
	"github.com/ByLCY/scribe/styled"
)

const badge = `
doc Demo v1 {
  meta { title: "Badges"; keywords: ["border", "link"] }
  resources {
    color Pink = #FF69B4
    shadow Soft { color: #00000055; offset: [0, 1]; radius: 2 }
    border Pill { style: "single|circleDot"; width: 3; color: Pink; insets: [0, -4, 0, -4]; radius: 6; shadow: Soft }
  }
  container { size: [200, 200]; insets: [0,0,0,0]; rows: 1; truncation: "end"; vertical: false }
  text font "Go" size 30 bold {
    span background-border Pill { "Border" }
    span underline "thick" highlight "#0000FF" { " Link ${user.name}" }
    attachment id "logo" size [20, 20]
  }
}
`

func compile(t *testing.T, src string, data any) *markup.Document {
	t.Helper()
	doc, err := dsl.ParseString(src)
	require.NoError(t, err)
	out, err := markup.Compile(doc, data)
	require.NoError(t, err)
	return out
}

func TestCompileBadge(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "Ada"}}
	doc := compile(t, badge, data)

	assert.Equal(t, "Demo", doc.Name)
	assert.Equal(t, "Badges", doc.Meta.Title)
	assert.Equal(t, []string{"border", "link"}, doc.Meta.Keywords)
	assert.Empty(t, doc.Missing)

	c := doc.Container
	assert.Equal(t, geom.Sz(200, 200), c.Size())
	assert.Equal(t, 1, c.MaximumNumberOfRows())
	assert.Equal(t, layout.TruncateEnd, c.TruncationType())
	assert.False(t, c.IsVerticalForm())

	txt := doc.Text
	assert.Equal(t, "Border Link Ada"+string(styled.AttachmentCharacter), txt.String())

	pink := styled.RGBA(0xFF, 0x69, 0xB4, 0xFF)
	a, r := txt.AttributesAt(0)
	assert.Equal(t, styled.NewRange(0, 6), r)
	require.NotNil(t, a.BackgroundBorder)
	assert.Equal(t, pink, a.BackgroundBorder.StrokeColor)
	assert.Equal(t, styled.LineStyleSingle|styled.PatternCircleDot, a.BackgroundBorder.LineStyle)
	assert.Equal(t, geom.Insets{Left: -4, Right: -4}, a.BackgroundBorder.Insets)
	require.NotNil(t, a.BackgroundBorder.Shadow)
	assert.Equal(t, geom.Sz(0, 1), a.BackgroundBorder.Shadow.Offset)
	assert.Equal(t, styled.Font{Family: "Go", Size: 30, Bold: true}, *a.Font)

	a, r = txt.AttributesAt(8)
	assert.Equal(t, styled.NewRange(6, 9), r)
	assert.Nil(t, a.BackgroundBorder)
	require.NotNil(t, a.Underline)
	assert.Equal(t, styled.LineStyleThick, a.Underline.Style)
	require.NotNil(t, a.Highlight)
	assert.Equal(t, styled.RGBA(0, 0, 0xFF, 0xFF), *a.Highlight.Attributes.Color)

	a, _ = txt.AttributesAt(15)
	require.NotNil(t, a.Attachment)
	assert.Equal(t, "logo", a.Attachment.ID)
	assert.Equal(t, "logo", a.Attachment.Content.ID)
	assert.Equal(t, geom.Sz(20, 20), a.Attachment.Content.Size)
	assert.Nil(t, a.Underline)
}

func TestCompileReportsMissingBindings(t *testing.T) {
	doc := compile(t, badge, nil)
	assert.Equal(t, []string{"user.name"}, doc.Missing)
	assert.Contains(t, doc.Text.String(), "${user.name}")
}

func TestCompilePathContainer(t *testing.T) {
	src := `
doc Shapes v1 {
  container {
    path ellipse [0, 0, 100, 80]
    exclude rect [40, 0, 20, 80]
    vertical: true
    even-odd: false
    token: "..."
  }
  text size 12pt line-spacing 0.5x align center { "round" }
}
`
	doc := compile(t, src, nil)
	c := doc.Container
	assert.Equal(t, geom.Sz(100, 80), c.Size())
	require.Len(t, c.ExclusionPaths(), 1)
	assert.Equal(t, geom.R(40, 0, 20, 80), c.ExclusionPaths()[0].Bounds())
	assert.True(t, c.IsVerticalForm())
	assert.False(t, c.PathFillEvenOdd())
	assert.Equal(t, "...", c.TruncationToken().String())

	a, _ := doc.Text.AttributesAt(0)
	require.NotNil(t, a.Paragraph)
	assert.Equal(t, 6.0, a.Paragraph.LineSpacing)
	assert.Equal(t, styled.AlignCenterText, a.Paragraph.Alignment)
	assert.Equal(t, 12.0, a.Font.Size)
}

func TestCompileNestedSpansAndNamedColors(t *testing.T) {
	src := `
doc Nest v1 {
  resources {
    font Title { family: "Go Mono"; size: 18; italic: true }
    decoration Wavy { style: "double|dash"; width: 2; color: teal }
  }
  container { size: [300, 100]; insets: 5 }
  text font Title color navy {
    "a"
    span strikethrough Wavy { "b"; span color #f00 { "c" } }
    br
  }
}
`
	doc := compile(t, src, nil)
	assert.Equal(t, geom.Insets{Top: 5, Left: 5, Bottom: 5, Right: 5}, doc.Container.Insets())
	assert.Equal(t, "abc\n", doc.Text.String())

	a, _ := doc.Text.AttributesAt(0)
	assert.Equal(t, styled.Font{Family: "Go Mono", Size: 18, Italic: true}, *a.Font)
	assert.Equal(t, styled.RGBA(0, 0, 0x80, 0xFF), *a.Color)
	assert.Nil(t, a.Strikethrough)

	a, _ = doc.Text.AttributesAt(2)
	require.NotNil(t, a.Strikethrough)
	assert.Equal(t, styled.LineStyleDouble|styled.PatternDash, a.Strikethrough.Style)
	assert.Equal(t, styled.RGBA(0, 0x80, 0x80, 0xFF), a.Strikethrough.Color)
	assert.Equal(t, styled.RGBA(0xFF, 0, 0, 0xFF), *a.Color)
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]struct {
		src string
		err error
	}{
		"unknown border": {
			src: `doc X v1 { container { size: [10, 10] }
  text { span border Nope { "x" } } }`,
			err: markup.ErrUnknownResource,
		},
		"unknown color": {
			src: `doc X v1 { resources { color A = notacolor } }`,
			err: markup.ErrUnknownResource,
		},
		"no container": {
			src: `doc X v1 { text { "x" } }`,
			err: markup.ErrMissingSection,
		},
		"bad rows": {
			src: `doc X v1 { container { size: [10, 10]; rows: "many" } }`,
			err: markup.ErrInvalidValue,
		},
		"bad size": {
			src: `doc X v1 { container { size: [10] } }`,
			err: markup.ErrInvalidValue,
		},
		"unknown attribute": {
			src: `doc X v1 { container { size: [10, 10] }
  text sparkle 3 { "x" } }`,
			err: markup.ErrInvalidValue,
		},
		"attachment without id": {
			src: `doc X v1 { container { size: [10, 10] }
  text { attachment size [1, 1] } }`,
			err: markup.ErrInvalidValue,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := dsl.ParseString(c.src)
			require.NoError(t, err)
			_, err = markup.Compile(doc, nil)
			assert.ErrorIs(t, err, c.err)
		})
	}
}
