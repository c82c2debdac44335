package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/layout/record"
	"github.com/ByLCY/scribe/markup"
	"github.com/ByLCY/scribe/renderer"
	canvasrenderer "github.com/ByLCY/scribe/renderer/canvas"
	"github.com/ByLCY/scribe/renderer/raster"
	"github.com/ByLCY/scribe/selection"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

type config struct {
	input, output string
	debugPath     string
	tracePath     string
	data          any
	scale         float64
	debugDraw     bool
	selectRange   *styled.Range
	fonts         *fonts.Registry
}

func main() {
	input := flag.String("in", "examples/demo.scribe", "标记文件路径")
	output := flag.String("out", "output/demo.pdf", "输出路径，.pdf 或 .png")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到标记文件的 JSON 数据")
	trace := flag.String("trace", "", "绘制操作记录输出路径")
	repl := flag.Bool("repl", false, "渲染后进入交互式查询")
	scale := flag.Float64("scale", 2, "PNG 每 pt 的像素数")
	verbose := flag.Bool("v", false, "输出调试日志")
	debugDraw := flag.Bool("debug-draw", false, "在输出中绘制调试辅助线")
	sel := flag.String("select", "", "在输出上绘制选区，格式 start:length（UTF-16）")
	reg := fonts.Default().Clone()
	flag.Func("font", "注册字体 family=path，可重复", func(v string) error {
		family, path, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("字体参数应为 family=path: %q", v)
		}
		return reg.RegisterFile(family, fonts.Regular, path)
	})
	flag.Parse()

	if *verbose {
		layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := config{
		input:     *input,
		output:    *output,
		debugPath: *debug,
		tracePath: *trace,
		scale:     *scale,
		debugDraw: *debugDraw,
		fonts:     reg,
	}
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &cfg.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}
	if *sel != "" {
		r, err := parseRange(*sel)
		if err != nil {
			log.Fatalf("解析 -select 失败: %v", err)
		}
		cfg.selectRange = &r
	}

	doc, l, err := run(cfg)
	if err != nil {
		log.Fatalf("生成 %s 失败: %v", cfg.output, err)
	}
	summarize(doc, l, cfg.output)
	if *repl {
		if err := runREPL(l); err != nil {
			log.Fatalf("交互式查询失败: %v", err)
		}
	}
}

// run 串联解析、编译、排版与渲染。
func run(cfg config) (*markup.Document, *layout.Layout, error) {
	file, err := os.Open(cfg.input)
	if err != nil {
		return nil, nil, fmt.Errorf("无法打开标记文件 %s: %w", cfg.input, err)
	}
	defer file.Close()

	parsed, err := dsl.Parse(filepath.Base(cfg.input), file)
	if err != nil {
		return nil, nil, fmt.Errorf("解析标记文件失败: %w", err)
	}
	doc, err := markup.Compile(parsed, cfg.data)
	if err != nil {
		return nil, nil, fmt.Errorf("编译标记文件失败: %w", err)
	}
	for _, path := range doc.Missing {
		pterm.Warning.Printf("数据中缺少 ${%s}\n", path)
	}

	r, err := newRenderer(cfg, doc.Meta)
	if err != nil {
		return nil, nil, err
	}
	l, err := layout.Build(doc.Container, doc.Text, layout.BuildOptions{Shaper: shaping.New(r.Metrics())})
	if err != nil {
		return nil, nil, fmt.Errorf("布局计算失败: %w", err)
	}

	if cfg.debugPath != "" {
		if err := writeDebug(l, cfg.debugPath); err != nil {
			return nil, nil, err
		}
	}

	page := renderer.Page{
		Layout:           l,
		Background:       styled.RGBA(255, 255, 255, 255),
		AttachmentDrawer: drawPlaceholder,
	}
	var observers layout.DebugObservers
	observers.Add(&page)
	if cfg.debugDraw {
		observers.SetOption(layout.DefaultDebugOption())
	}
	if cfg.selectRange != nil {
		v := selection.New(l, styled.RGBA(0x00, 0x7A, 0xFF, 0xFF))
		v.Select(layout.RangeOf(*cfg.selectRange, layout.AffinityForward))
		page.Overlay = v.Draw
	}

	if cfg.tracePath != "" {
		if err := writeTrace(page, cfg.tracePath); err != nil {
			return nil, nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.output), 0o755); err != nil {
		return nil, nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := r.Render(page)
	if err != nil {
		return nil, nil, fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(cfg.output, out, 0o644); err != nil {
		return nil, nil, fmt.Errorf("写入输出文件失败: %w", err)
	}
	return doc, l, nil
}

// newRenderer 按输出扩展名选择后端。
func newRenderer(cfg config, meta markup.Meta) (renderer.Renderer, error) {
	switch strings.ToLower(filepath.Ext(cfg.output)) {
	case ".pdf":
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fonts: cfg.fonts, Meta: meta}), nil
	case ".png":
		return raster.NewRendererWithOptions(raster.Options{Fonts: cfg.fonts, Scale: cfg.scale}), nil
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", filepath.Ext(cfg.output))
	}
}

// drawPlaceholder 用虚线框标出附件位置。
func drawPlaceholder(g layout.Graphics, _ *styled.Attachment, rect geom.Rect) {
	g.Save()
	defer g.Restore()
	g.SetStrokeColor(styled.RGBA(0x99, 0x99, 0x99, 0xFF))
	g.SetLineWidth(0.5)
	g.SetLineDash(0, []float64{2, 2})
	g.StrokePath(geom.RectPath(rect))
}

func writeDebug(l *layout.Layout, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(l, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writeTrace(page renderer.Page, path string) error {
	rec := record.New()
	page.Draw(rec, page.DrawOptions())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建记录目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建记录文件失败: %w", err)
	}
	defer f.Close()
	if _, err := rec.WriteTo(f); err != nil {
		return fmt.Errorf("写入绘制记录失败: %w", err)
	}
	return nil
}

func parseRange(s string) (styled.Range, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return styled.Range{}, fmt.Errorf("应为 start:length: %q", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return styled.Range{}, err
	}
	n, err := strconv.Atoi(b)
	if err != nil {
		return styled.Range{}, err
	}
	if start < 0 || n < 0 {
		return styled.Range{}, fmt.Errorf("范围不能为负: %q", s)
	}
	return styled.NewRange(start, n), nil
}

func summarize(doc *markup.Document, l *layout.Layout, output string) {
	pterm.Success.Printf("已生成 %s\n", output)
	data := [][]string{
		{"文档", "行数", "行组", "可见范围", "截断", "尺寸"},
		{
			doc.Name + " " + doc.Version,
			strconv.Itoa(len(l.Lines())),
			strconv.Itoa(l.RowCount()),
			l.VisibleRange().String(),
			strconv.FormatBool(l.TruncatedLine() != nil),
			fmt.Sprintf("%gx%g", l.TextBoundingSize().W, l.TextBoundingSize().H),
		},
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if l.ContainsHighlight() {
		pterm.Info.Println("包含可点击的高亮区域")
	}
}
