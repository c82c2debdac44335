package canvasrenderer

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/markup"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

func body(size float64) *styled.Font {
	f := styled.Font{Family: "Go", Size: size}
	return &f
}

func buildWith(t *testing.T, r *Renderer, width float64, s string) *layout.Layout {
	t.Helper()
	txt := styled.New(s, styled.Attributes{Font: body(12)})
	c := layout.NewContainer(geom.Sz(width, 400))
	l, err := layout.Build(c, txt, layout.BuildOptions{Shaper: shaping.New(r.Metrics())})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	return l
}

func lineTexts(l *layout.Layout) []string {
	var out []string
	for _, line := range l.Lines() {
		out = append(out, l.Text().Substring(line.Range()))
	}
	return out
}

func TestMetricsFromFaces(t *testing.T) {
	m := NewRenderer().Metrics()
	f := styled.Font{Family: "Go", Size: 12}
	fm := m.FontMetrics(f)
	if fm.Ascent <= 0 || fm.Descent <= 0 {
		t.Fatalf("上升/下降部应为正: %+v", fm)
	}
	if h := fm.Ascent + fm.Descent; h < 0.8*f.Size || h > 1.6*f.Size {
		t.Fatalf("行高与字号不符: %g (size %g)", h, f.Size)
	}
	if fm.UnderlinePosition >= 0 || fm.UnderlineThickness <= 0 {
		t.Fatalf("下划线度量不合理: %+v", fm)
	}
	if m.Advance(f, "W") <= m.Advance(f, "i") {
		t.Fatalf("比例字体中 W 应宽于 i")
	}
	small, big := m.Advance(f, "a"), m.Advance(f.WithSize(24), "a")
	if math.Abs(big-2*small) > 1e-6 {
		t.Fatalf("字宽应随字号线性缩放: 12pt=%g 24pt=%g", small, big)
	}
}

func TestLayoutWrapsWithFaceMetrics(t *testing.T) {
	l := buildWith(t, NewRenderer(), 60, "hello world again")
	if len(l.Lines()) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %v", lineTexts(l))
	}
}

func TestNewlinesKeepBlankLine(t *testing.T) {
	l := buildWith(t, NewRenderer(), 200, "foo\n\nbar")
	got := lineTexts(l)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines including blank, got %q", got)
	}
	if got[1] != "\n" {
		t.Fatalf("expected middle line to be blank, got %q", got[1])
	}
}

// TestWrapWidthLimit 验证每行宽度不超过容器宽度（含词内断行）。
func TestWrapWidthLimit(t *testing.T) {
	const limit = 85.0
	l := buildWith(t, NewRenderer(), limit, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if len(l.Lines()) < 2 {
		t.Fatalf("expected emergency breaks, got %q", lineTexts(l))
	}
	for i, line := range l.Lines() {
		if line.Width()-limit > 1e-6 {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, line.Width(), limit)
		}
	}
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer()
	first := "SAMPLE-A"
	measured := styled.New(first, styled.Attributes{Font: body(12)})
	sl, err := shaping.New(r.Metrics()).Line(measured, measured.FullRange(), false)
	if err != nil {
		t.Fatalf("Line 失败: %v", err)
	}
	limit := sl.Width
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	got := lineTexts(buildWith(t, r, limit, first+"\n"+"SAMPLE-B"))
	if len(got) != 2 {
		t.Fatalf("expected 2 lines without blank, got %q", got)
	}
	if got[0] != first+"\n" {
		t.Fatalf("first line mismatch: got=%q", got[0])
	}
	if got[1] != "SAMPLE-B" {
		t.Fatalf("second line mismatch: got=%q want=%q", got[1], "SAMPLE-B")
	}
}

func TestRenderPDF(t *testing.T) {
	r := NewRendererWithOptions(Options{Meta: markup.Meta{Title: "Badges", Keywords: []string{"a", "b"}}})
	b := styled.NewFillBorder(styled.RGBA(0xFF, 0x69, 0xB4, 0xFF), 3)
	b.Shadow = &styled.Shadow{Color: styled.WithAlpha(styled.Black, 0.3), Offset: geom.Sz(0, 1), Radius: 2}
	txt := styled.New("Border", styled.Attributes{Font: body(30), BackgroundBorder: b})
	l, err := layout.Build(layout.NewContainer(geom.Sz(200, 60)), txt, layout.BuildOptions{Shaper: shaping.New(r.Metrics())})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	out, err := r.Render(renderer.Page{Layout: l, Background: styled.RGBA(255, 255, 255, 255), Debug: layout.DefaultDebugOption()})
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF: %q", out[:min(len(out), 8)])
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(renderer.Page{}); !errors.Is(err, renderer.ErrNoLayout) {
		t.Fatalf("缺少布局应返回 ErrNoLayout，实际 %v", err)
	}
	if _, err := r.RenderPages(nil); err == nil {
		t.Fatalf("空页面列表应报错")
	}
}
