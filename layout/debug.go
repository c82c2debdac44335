package layout

import (
	"encoding/json"
	"os"
	"slices"
	"sync"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// DebugOption 配置调试绘制使用的颜色，零透明度的颜色不绘制。
type DebugOption struct {
	Baseline      styled.Color `json:"baseline"`
	CTFrameBorder styled.Color `json:"frameBorder"`
	CTFrameFill   styled.Color `json:"frameFill"`
	CTLineBorder  styled.Color `json:"lineBorder"`
	CTLineFill    styled.Color `json:"lineFill"`
	CTLineNumber  styled.Color `json:"lineNumber"`
	CTRunBorder   styled.Color `json:"runBorder"`
	CTRunFill     styled.Color `json:"runFill"`
	CTRunNumber   styled.Color `json:"runNumber"`
	CGGlyphBorder styled.Color `json:"glyphBorder"`
	CGGlyphFill   styled.Color `json:"glyphFill"`
}

// DefaultDebugOption returns the palette used by the CLI -debug flag.
func DefaultDebugOption() *DebugOption {
	return &DebugOption{
		Baseline:      styled.RGBA(0xFF, 0x00, 0x00, 0x80),
		CTFrameBorder: styled.RGBA(0x00, 0x80, 0xFF, 0x80),
		CTLineBorder:  styled.RGBA(0xFF, 0x80, 0x00, 0x60),
		CTLineNumber:  styled.RGBA(0xFF, 0x00, 0x00, 0xCC),
		CTRunFill:     styled.RGBA(0x00, 0xFF, 0x00, 0x20),
		CGGlyphBorder: styled.RGBA(0xFF, 0x00, 0xFF, 0x40),
	}
}

func (o *DebugOption) colors() []styled.Color {
	return []styled.Color{
		o.Baseline, o.CTFrameBorder, o.CTFrameFill, o.CTLineBorder, o.CTLineFill, o.CTLineNumber,
		o.CTRunBorder, o.CTRunFill, o.CTRunNumber, o.CGGlyphBorder, o.CGGlyphFill,
	}
}

// NeedDrawDebug reports whether any color is set.
func (o *DebugOption) NeedDrawDebug() bool {
	if o == nil {
		return false
	}
	for _, c := range o.colors() {
		if c.A > 0 {
			return true
		}
	}
	return false
}

// Clone returns a copy, nil for nil.
func (o *DebugOption) Clone() *DebugOption {
	if o == nil {
		return nil
	}
	out := *o
	return &out
}

// Equal compares two options; nil equals an option with no colors set.
func (o *DebugOption) Equal(other *DebugOption) bool {
	if o == nil || other == nil {
		return !o.NeedDrawDebug() && !other.NeedDrawDebug()
	}
	return *o == *other
}

// DebugTarget 接收调试选项变化，通常是显示布局的视图。
type DebugTarget interface {
	SetDebugOption(o *DebugOption)
}

// DebugObservers is an explicit registry of debug targets. The owner decides its
// lifetime; there is no process-wide instance.
type DebugObservers struct {
	mu      sync.Mutex
	option  *DebugOption
	targets []DebugTarget
}

// Add registers t and immediately sends it the current option.
func (d *DebugObservers) Add(t DebugTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slices.Contains(d.targets, t) {
		return
	}
	d.targets = append(d.targets, t)
	t.SetDebugOption(d.option.Clone())
}

// Remove unregisters t.
func (d *DebugObservers) Remove(t DebugTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = slices.DeleteFunc(d.targets, func(x DebugTarget) bool { return x == t })
}

// Option returns a copy of the shared option.
func (d *DebugObservers) Option() *DebugOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.option.Clone()
}

// SetOption stores o and notifies every target with its own copy.
func (d *DebugObservers) SetOption(o *DebugOption) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.option = o.Clone()
	for _, t := range d.targets {
		t.SetDebugOption(d.option.Clone())
	}
}

// snapshot 是 WriteDebugJSON 输出的结构
type snapshot struct {
	Size             geom.Size    `json:"size"`
	Insets           geom.Insets  `json:"insets"`
	Vertical         bool         `json:"vertical"`
	MaxRows          int          `json:"maxRows"`
	Truncation       string       `json:"truncation"`
	Range            styled.Range `json:"range"`
	VisibleRange     styled.Range `json:"visibleRange"`
	TextBoundingRect geom.Rect    `json:"textBoundingRect"`
	TextBoundingSize geom.Size    `json:"textBoundingSize"`
	RowCount         int          `json:"rowCount"`
	RowIndex         []int        `json:"rowIndex"`
	RowEdges         []RowEdge    `json:"rowEdges"`
	Flags            Flags        `json:"flags"`
	Lines            []lineDump   `json:"lines"`
	Truncated        *lineDump    `json:"truncated,omitempty"`
	Attachments      []geom.Rect  `json:"attachments,omitempty"`
}

type lineDump struct {
	Index    int          `json:"index"`
	Row      int          `json:"row"`
	Range    styled.Range `json:"range"`
	Text     string       `json:"text"`
	Position geom.Point   `json:"position"`
	Bounds   geom.Rect    `json:"bounds"`
	Runs     []runDump    `json:"runs"`
}

type runDump struct {
	Range  styled.Range `json:"range"`
	Font   styled.Font  `json:"font"`
	Rect   geom.Rect    `json:"rect"`
	Glyphs int          `json:"glyphs"`
	RTL    bool         `json:"rtl,omitempty"`
	Token  bool         `json:"token,omitempty"`
}

func dumpLine(l *Layout, line *Line) lineDump {
	d := lineDump{
		Index:    line.Index,
		Row:      line.Row,
		Range:    line.Range(),
		Text:     l.text.Substring(line.Range()),
		Position: line.Position,
		Bounds:   line.Bounds(),
	}
	for i, run := range line.Runs() {
		d.Runs = append(d.Runs, runDump{
			Range:  run.Range,
			Font:   run.Font,
			Rect:   line.RunRect(i),
			Glyphs: len(run.Glyphs),
			RTL:    run.RTL,
			Token:  run.IsToken,
		})
	}
	return d
}

// WriteDebugJSON 将布局快照输出为 JSON，便于调试或可视化。
func WriteDebugJSON(l *Layout, path string) error {
	if l == nil {
		return nil
	}
	c := l.container
	s := snapshot{
		Size:             c.size,
		Insets:           c.insets,
		Vertical:         c.verticalForm,
		MaxRows:          c.maxRows,
		Truncation:       c.truncationType.String(),
		Range:            l.rng,
		VisibleRange:     l.visibleRange,
		TextBoundingRect: l.textBoundingRect,
		TextBoundingSize: l.textBoundingSize,
		RowCount:         l.rowCount,
		RowIndex:         l.lineRowsIndex,
		RowEdges:         l.lineRowsEdge,
		Flags:            l.Flags(),
		Attachments:      l.attachmentRects,
	}
	for _, line := range l.lines {
		s.Lines = append(s.Lines, dumpLine(l, line))
	}
	if l.truncatedLine != nil {
		d := dumpLine(l, l.truncatedLine)
		s.Truncated = &d
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
