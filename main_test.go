package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/selection"
	"github.com/ByLCY/scribe/styled"
)

func testConfig(t *testing.T, out string) config {
	t.Helper()
	return config{
		input:  filepath.Join("examples", "demo.scribe"),
		output: filepath.Join(t.TempDir(), out),
		data:   map[string]any{"user": map[string]any{"name": "Ada"}},
		scale:  1,
		fonts:  fonts.Default().Clone(),
	}
}

func TestRunWritesPNG(t *testing.T) {
	cfg := testConfig(t, "demo.png")
	r := styled.NewRange(0, 6)
	cfg.selectRange = &r
	cfg.debugPath = filepath.Join(filepath.Dir(cfg.output), "debug", "layout.json")
	cfg.tracePath = filepath.Join(filepath.Dir(cfg.output), "trace.txt")

	doc, l, err := run(cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if doc.Name != "Demo" {
		t.Fatalf("doc name = %q", doc.Name)
	}
	if len(l.Lines()) == 0 {
		t.Fatalf("expected lines")
	}
	data, err := os.ReadFile(cfg.output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
	for _, p := range []string{cfg.debugPath, cfg.tracePath} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("expected non-empty %s: %v", p, err)
		}
	}
}

func TestRunWritesPDF(t *testing.T) {
	cfg := testConfig(t, "demo.pdf")
	if _, _, err := run(cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(cfg.output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	cfg := testConfig(t, "demo.svg")
	if _, _, err := run(cfg); err == nil {
		t.Fatalf("expected error for .svg output")
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("3:4")
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if r != styled.NewRange(3, 4) {
		t.Fatalf("range = %v", r)
	}
	for _, bad := range []string{"3", "a:1", "1:b", "-1:2"} {
		if _, err := parseRange(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestREPLSelect(t *testing.T) {
	cfg := testConfig(t, "demo.png")
	_, l, err := run(cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	q := &queryREPL{l: l, view: selection.New(l, styled.Black)}
	if _, err := q.exec("select", []string{"0", "3"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(q.view.SelectionRects()) == 0 {
		t.Fatalf("expected selection rects")
	}
	if _, err := q.exec("select", []string{"0"}); err == nil {
		t.Fatalf("expected usage error")
	}
}

func TestRunDebugDraw(t *testing.T) {
	plain := testConfig(t, "plain.png")
	debug := testConfig(t, "debug.png")
	debug.debugDraw = true
	for _, cfg := range []config{plain, debug} {
		if _, _, err := run(cfg); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	a, err := os.ReadFile(plain.output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(debug.output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("debug drawing should change the output")
	}
}
