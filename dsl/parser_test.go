package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/scribe/dsl"
)

const sampleDSL = `
doc Demo v1 {
  meta {
    title: "Badges"
    keywords: [
      "border"
      "link"
    ]
  }

  resources {
    color Pink = #FF69B4
    border Pill { style: "single|circleDot"; width: 3; color: Pink; insets: [0, -4, 0, -4]; radius: 6 }
  }

  // 单行，超出部分截断
  container { size: [200, 200]; insets: [0,0,0,0]; rows: 1; truncation: "end"; vertical: false }

  text font "Go" size 30 bold {
    span background-border Pill { "Border" }
    span underline "thick" highlight "#0000FF" { " Link ${user.name}" }
    attachment id "logo" size [20, 20]
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Name != "Demo" || doc.Version != "v1" {
		t.Fatalf("unexpected header %s %s", doc.Name, doc.Version)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,resources,container,text" {
		t.Fatalf("unexpected section order %s", got)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" || string(*title.Value.String) != "Badges" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array, got %+v", meta.Block.Statements[1])
	}
}

func TestParseResources(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res := doc.Sections[1].Resources
	if res == nil || len(res.Block.Statements) != 2 {
		t.Fatalf("resources missing")
	}

	color := res.Block.Statements[0].Command
	if color == nil || color.Name != "color" || len(color.Args) != 3 {
		t.Fatalf("unexpected color command %+v", color)
	}
	if color.Args[1].Value != "=" || color.Args[2].Type != "Color" || color.Args[2].Value != "#FF69B4" {
		t.Fatalf("unexpected color args: %s", lexemes(color.Args))
	}

	border := res.Block.Statements[1].Command
	if border == nil || border.Name != "border" || border.Args[0].Value != "Pill" || border.Block == nil {
		t.Fatalf("unexpected border command %+v", border)
	}
	props := border.Block.Assignments()
	if len(props) != 5 {
		t.Fatalf("expected 5 border properties, got %d", len(props))
	}
	if props["color"].Expr == nil || props["color"].Expr.String() != "Pink" {
		t.Fatalf("color should be a reference expression, got %+v", props["color"])
	}
	insets := props["insets"].Array
	if insets == nil || len(insets.Values) != 4 || *insets.Values[1].Number != "-4" {
		t.Fatalf("negative numbers should lex as numbers: %+v", insets)
	}
	if *props["radius"].Number != "6" {
		t.Fatalf("unexpected radius %v", *props["radius"].Number)
	}
}

func TestParseContainerAndText(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	props := doc.Sections[2].Container.Block.Assignments()
	if props["vertical"].Expr == nil || props["vertical"].Expr.String() != "false" {
		t.Fatalf("vertical should be an identifier, got %+v", props["vertical"])
	}
	if size := props["size"].Array; size == nil || len(size.Values) != 2 {
		t.Fatalf("size should be a pair")
	}

	text := doc.Sections[3].Text
	if got := lexemes(text.Args); got != "font Go size 30 bold" {
		t.Fatalf("unexpected text args: %s", got)
	}
	if len(text.Block.Statements) != 3 {
		t.Fatalf("expected 3 text statements, got %d", len(text.Block.Statements))
	}

	span := text.Block.Statements[1].Command
	if span == nil || span.Name != "span" || span.Block == nil {
		t.Fatalf("expected span command, got %+v", text.Block.Statements[1])
	}
	if span.Args[1].Type != "String" || span.Args[1].Raw != `"thick"` {
		t.Fatalf("string args should keep raw form: %+v", span.Args[1])
	}
	lit := span.Block.Statements[0].Text
	if lit == nil || !strings.Contains(string(lit.Value), "${user.name}") {
		t.Fatalf("expected interpolation in literal, got %+v", lit)
	}

	att := text.Block.Statements[2].Command
	if att == nil || att.Name != "attachment" || att.Block != nil {
		t.Fatalf("expected attachment command, got %+v", att)
	}
	if got := lexemes(att.Args); got != "id logo size [ 20 , 20 ]" {
		t.Fatalf("unexpected attachment args: %s", got)
	}
}

func TestParseError(t *testing.T) {
	if _, err := dsl.ParseString("doc Broken v1 { text { \"open }"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := dsl.Parse("empty.scribe", strings.NewReader("doc Empty v1 {}")); err != nil {
		t.Fatalf("empty document should parse: %v", err)
	}
}

func lexemes(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
