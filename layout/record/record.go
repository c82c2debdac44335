// Package record 提供记录绘制指令的 layout.Graphics 实现，用于测试与 -trace 输出。
package record

import (
	"fmt"
	"io"
	"strings"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

// Op is one recorded call.
type Op struct {
	Name string
	Args []any
	// CTM 是调用时的变换矩阵
	CTM geom.Matrix
	// Fill/Stroke 是调用时的颜色
	Fill   styled.Color
	Stroke styled.Color
	// Text 仅 ShowGlyphs 填写，为所有字形文本的拼接
	Text string
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Name)
	for _, a := range o.Args {
		fmt.Fprintf(&b, " %v", a)
	}
	if o.Text != "" {
		fmt.Fprintf(&b, " %q", o.Text)
	}
	return b.String()
}

type state struct {
	ctm    geom.Matrix
	fill   styled.Color
	stroke styled.Color
}

// Recorder implements layout.Graphics by appending every call to Ops.
type Recorder struct {
	Ops []Op

	cur    state
	stack  []state
	layers int
}

var _ layout.Graphics = (*Recorder)(nil)

// New returns an empty recorder with an identity transform.
func New() *Recorder {
	return &Recorder{cur: state{ctm: geom.Identity(), fill: styled.Black, stroke: styled.Black}}
}

func (r *Recorder) add(name string, args ...any) *Op {
	r.Ops = append(r.Ops, Op{Name: name, Args: args, CTM: r.cur.ctm, Fill: r.cur.fill, Stroke: r.cur.stroke})
	return &r.Ops[len(r.Ops)-1]
}

func (r *Recorder) Save() {
	r.stack = append(r.stack, r.cur)
	r.add("Save")
}

func (r *Recorder) Restore() {
	if n := len(r.stack); n > 0 {
		r.cur = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
	r.add("Restore")
}

func (r *Recorder) concat(m geom.Matrix) { r.cur.ctm = r.cur.ctm.Multiply(m) }

func (r *Recorder) Translate(x, y float64) {
	r.concat(geom.Translate(x, y))
	r.add("Translate", x, y)
}

func (r *Recorder) Scale(sx, sy float64) {
	r.concat(geom.Scale(sx, sy))
	r.add("Scale", sx, sy)
}

func (r *Recorder) Rotate(angle float64) {
	r.concat(geom.Rotate(angle))
	r.add("Rotate", angle)
}

func (r *Recorder) Concat(m geom.Matrix) {
	r.concat(m)
	r.add("Concat", m)
}

func (r *Recorder) SetFillColor(c styled.Color) {
	r.cur.fill = c
	r.add("SetFillColor", c)
}

func (r *Recorder) SetStrokeColor(c styled.Color) {
	r.cur.stroke = c
	r.add("SetStrokeColor", c)
}

func (r *Recorder) SetLineWidth(w float64)         { r.add("SetLineWidth", w) }
func (r *Recorder) SetLineCap(c layout.LineCap)    { r.add("SetLineCap", c) }
func (r *Recorder) SetLineJoin(j styled.LineJoin)  { r.add("SetLineJoin", j) }
func (r *Recorder) SetBlendMode(m styled.BlendMode) { r.add("SetBlendMode", m) }
func (r *Recorder) SetAlpha(a float64)             { r.add("SetAlpha", a) }

func (r *Recorder) SetLineDash(phase float64, lengths []float64) {
	r.add("SetLineDash", phase, append([]float64(nil), lengths...))
}

func (r *Recorder) FillPath(p *geom.Path, evenOdd bool) {
	r.add("FillPath", p.Bounds(), evenOdd)
}

func (r *Recorder) StrokePath(p *geom.Path) { r.add("StrokePath", p.Bounds()) }

func (r *Recorder) ClipPath(p *geom.Path, evenOdd bool) {
	r.add("ClipPath", p.Bounds(), evenOdd)
}

func (r *Recorder) SetShadow(offset geom.Size, blur float64, c styled.Color) {
	r.add("SetShadow", offset, blur, c)
}

func (r *Recorder) BeginLayer() {
	r.layers++
	r.add("BeginLayer")
}

func (r *Recorder) EndLayer() {
	r.layers--
	r.add("EndLayer")
}

func (r *Recorder) ShowGlyphs(font styled.Font, glyphs []layout.Glyph, origin geom.Point) {
	var b strings.Builder
	for _, g := range glyphs {
		b.WriteString(g.Text)
	}
	op := r.add("ShowGlyphs", font.Family, font.Size, origin)
	op.Text = b.String()
}

// Count returns how many ops named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// Filter returns the ops named name in call order.
func (r *Recorder) Filter(name string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Balanced reports whether every Save and BeginLayer was matched.
func (r *Recorder) Balanced() bool { return len(r.stack) == 0 && r.layers == 0 }

// Text returns the concatenated text of all ShowGlyphs calls.
func (r *Recorder) Text() string {
	var b strings.Builder
	for _, op := range r.Filter("ShowGlyphs") {
		b.WriteString(op.Text)
	}
	return b.String()
}

// WriteTo writes one op per line, indented by save depth.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	depth := 0
	for _, op := range r.Ops {
		if op.Name == "Restore" || op.Name == "EndLayer" {
			depth = max(depth-1, 0)
		}
		n, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), op)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if op.Name == "Save" || op.Name == "BeginLayer" {
			depth++
		}
	}
	return total, nil
}
