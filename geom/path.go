package geom

import (
	"math"
	"sort"
)

// PathElement is one drawing command of a Path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new subpath.
type MoveTo struct{ Point Point }

// LineTo draws a straight segment.
type LineTo struct{ Point Point }

// QuadTo draws a quadratic Bézier segment.
type QuadTo struct{ Control, Point Point }

// CubeTo draws a cubic Bézier segment.
type CubeTo struct{ Control1, Control2, Point Point }

// Close closes the current subpath.
type Close struct{}

func (MoveTo) isPathElement() {}
func (LineTo) isPathElement() {}
func (QuadTo) isPathElement() {}
func (CubeTo) isPathElement() {}
func (Close) isPathElement()  {}

// kappa approximates a quarter circle with a cubic Bézier.
const kappa = 0.5522847498

// Path is an ordered list of path elements. The zero value is an empty path.
type Path struct {
	elements []PathElement
	current  Point
	start    Point
}

// NewPath returns an empty path.
func NewPath() *Path { return &Path{} }

// RectPath returns a closed rectangle path.
func RectPath(r Rect) *Path {
	p := NewPath()
	p.AddRect(r)
	return p
}

// RoundedRectPath returns a closed rounded rectangle; radius is clamped to half the shorter side.
func RoundedRectPath(r Rect, radius float64) *Path {
	p := NewPath()
	p.AddRoundedRect(r, radius)
	return p
}

// EllipsePath returns a closed ellipse inscribed in r.
func EllipsePath(r Rect) *Path {
	p := NewPath()
	p.AddEllipse(r)
	return p
}

func (p *Path) MoveTo(x, y float64) {
	p.current = Point{X: x, Y: y}
	p.start = p.current
	p.elements = append(p.elements, MoveTo{Point: p.current})
}

func (p *Path) LineTo(x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.current = Point{X: x, Y: y}
	p.elements = append(p.elements, LineTo{Point: p.current})
}

func (p *Path) QuadTo(cx, cy, x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(cx, cy)
	}
	p.current = Point{X: x, Y: y}
	p.elements = append(p.elements, QuadTo{Control: Point{X: cx, Y: cy}, Point: p.current})
}

func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(c1x, c1y)
	}
	p.current = Point{X: x, Y: y}
	p.elements = append(p.elements, CubeTo{
		Control1: Point{X: c1x, Y: c1y},
		Control2: Point{X: c2x, Y: c2y},
		Point:    p.current,
	})
}

func (p *Path) Close() {
	if len(p.elements) == 0 {
		return
	}
	if _, ok := p.elements[len(p.elements)-1].(Close); ok {
		return
	}
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// AddRect appends a closed rectangle subpath.
func (p *Path) AddRect(r Rect) {
	r = r.Standardize()
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.X+r.W, r.Y)
	p.LineTo(r.X+r.W, r.Y+r.H)
	p.LineTo(r.X, r.Y+r.H)
	p.Close()
}

// AddRoundedRect appends a closed rounded rectangle subpath.
func (p *Path) AddRoundedRect(r Rect, radius float64) {
	r = r.Standardize()
	radius = math.Min(radius, math.Min(r.W, r.H)/2)
	if radius <= 0 {
		p.AddRect(r)
		return
	}
	k := radius * kappa
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	p.MoveTo(x0+radius, y0)
	p.LineTo(x1-radius, y0)
	p.CubeTo(x1-radius+k, y0, x1, y0+radius-k, x1, y0+radius)
	p.LineTo(x1, y1-radius)
	p.CubeTo(x1, y1-radius+k, x1-radius+k, y1, x1-radius, y1)
	p.LineTo(x0+radius, y1)
	p.CubeTo(x0+radius-k, y1, x0, y1-radius+k, x0, y1-radius)
	p.LineTo(x0, y0+radius)
	p.CubeTo(x0, y0+radius-k, x0+radius-k, y0, x0+radius, y0)
	p.Close()
}

// AddEllipse appends a closed ellipse inscribed in r.
func (p *Path) AddEllipse(r Rect) {
	r = r.Standardize()
	rx, ry := r.W/2, r.H/2
	cx, cy := r.X+rx, r.Y+ry
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
}

// AddPath appends all subpaths of o.
func (p *Path) AddPath(o *Path) {
	if o == nil {
		return
	}
	p.elements = append(p.elements, o.elements...)
	p.current, p.start = o.current, o.start
}

// Elements returns the path commands. The slice must not be modified.
func (p *Path) Elements() []PathElement {
	if p == nil {
		return nil
	}
	return p.elements
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool { return p == nil || len(p.elements) == 0 }

// Clone returns an independent copy.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	out := &Path{current: p.current, start: p.start}
	out.elements = append([]PathElement(nil), p.elements...)
	return out
}

// Transform returns a transformed copy.
func (p *Path) Transform(m Matrix) *Path {
	if p == nil {
		return nil
	}
	out := &Path{current: m.Apply(p.current), start: m.Apply(p.start)}
	out.elements = make([]PathElement, 0, len(p.elements))
	for _, el := range p.elements {
		switch e := el.(type) {
		case MoveTo:
			out.elements = append(out.elements, MoveTo{Point: m.Apply(e.Point)})
		case LineTo:
			out.elements = append(out.elements, LineTo{Point: m.Apply(e.Point)})
		case QuadTo:
			out.elements = append(out.elements, QuadTo{Control: m.Apply(e.Control), Point: m.Apply(e.Point)})
		case CubeTo:
			out.elements = append(out.elements, CubeTo{
				Control1: m.Apply(e.Control1),
				Control2: m.Apply(e.Control2),
				Point:    m.Apply(e.Point),
			})
		case Close:
			out.elements = append(out.elements, e)
		}
	}
	return out
}

// IsRect reports whether the path is a single axis-aligned rectangle and returns it.
func (p *Path) IsRect() (Rect, bool) {
	if p == nil {
		return Rect{}, false
	}
	var pts []Point
	closed := false
	for i, el := range p.elements {
		switch e := el.(type) {
		case MoveTo:
			if i != 0 {
				return Rect{}, false
			}
			pts = append(pts, e.Point)
		case LineTo:
			if closed {
				return Rect{}, false
			}
			pts = append(pts, e.Point)
		case Close:
			closed = true
		default:
			return Rect{}, false
		}
	}
	if len(pts) == 5 && pts[4] == pts[0] {
		pts = pts[:4]
	}
	if len(pts) != 4 {
		return Rect{}, false
	}
	for i := 0; i < 4; i++ {
		a, b := pts[i], pts[(i+1)%4]
		if a.X != b.X && a.Y != b.Y {
			return Rect{}, false
		}
	}
	// 相邻边必须交替水平/竖直
	if (pts[0].X == pts[1].X) == (pts[1].X == pts[2].X) {
		return Rect{}, false
	}
	r := RectFromPoints(pts[0], pts[2])
	if r.IsEmpty() {
		return Rect{}, false
	}
	return r, true
}

// Bounds returns the bounding box of the flattened outline.
func (p *Path) Bounds() Rect {
	if p.IsEmpty() {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(q Point) {
		minX = math.Min(minX, q.X)
		minY = math.Min(minY, q.Y)
		maxX = math.Max(maxX, q.X)
		maxY = math.Max(maxY, q.Y)
	}
	for _, poly := range p.Flatten(0.25) {
		for _, q := range poly {
			add(q)
		}
	}
	if math.IsInf(minX, 1) {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Flatten converts the path into closed polygons. tolerance bounds the curve approximation error.
func (p *Path) Flatten(tolerance float64) [][]Point {
	if p.IsEmpty() {
		return nil
	}
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var polys [][]Point
	var cur []Point
	var last Point
	flush := func() {
		if len(cur) >= 2 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	for _, el := range p.elements {
		switch e := el.(type) {
		case MoveTo:
			flush()
			cur = []Point{e.Point}
			last = e.Point
		case LineTo:
			cur = append(cur, e.Point)
			last = e.Point
		case QuadTo:
			n := curveSteps(Distance(last, e.Control)+Distance(e.Control, e.Point), tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				cur = append(cur, Point{
					X: mt*mt*last.X + 2*mt*t*e.Control.X + t*t*e.Point.X,
					Y: mt*mt*last.Y + 2*mt*t*e.Control.Y + t*t*e.Point.Y,
				})
			}
			last = e.Point
		case CubeTo:
			n := curveSteps(Distance(last, e.Control1)+Distance(e.Control1, e.Control2)+Distance(e.Control2, e.Point), tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
				cur = append(cur, Point{
					X: a*last.X + b*e.Control1.X + c*e.Control2.X + d*e.Point.X,
					Y: a*last.Y + b*e.Control1.Y + c*e.Control2.Y + d*e.Point.Y,
				})
			}
			last = e.Point
		case Close:
			flush()
		}
	}
	flush()
	return polys
}

func curveSteps(length, tolerance float64) int {
	n := int(math.Ceil(math.Sqrt(length / tolerance)))
	if n < 4 {
		n = 4
	}
	if n > 64 {
		n = 64
	}
	return n
}

// Contains reports whether q is inside the filled region.
func (p *Path) Contains(q Point, evenOdd bool) bool {
	for _, span := range scanline(p.Flatten(0.25), q.Y, evenOdd) {
		if q.X >= span.Min && q.X <= span.Max {
			return true
		}
	}
	return false
}

// Span is a closed interval on one axis.
type Span struct {
	Min float64
	Max float64
}

// Length returns Max-Min.
func (s Span) Length() float64 { return s.Max - s.Min }

// Spans returns the horizontal intervals that stay inside the filled region for every y in [y0, y1].
func (p *Path) Spans(y0, y1 float64, evenOdd bool) []Span {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	polys := p.Flatten(0.25)
	if len(polys) == 0 {
		return nil
	}
	samples := []float64{y0, y1, (y0 + y1) / 2}
	for _, poly := range polys {
		for _, q := range poly {
			if q.Y > y0 && q.Y < y1 {
				samples = append(samples, q.Y)
			}
		}
	}
	// 顶点恰好落在扫描线上时取内侧微小偏移，避免水平边造成的空区间
	const nudge = 1e-7
	samples[0] += nudge
	samples[1] -= nudge
	var result []Span
	for i, y := range samples {
		spans := scanline(polys, y, evenOdd)
		if i == 0 {
			result = spans
			continue
		}
		result = intersectSpans(result, spans)
		if len(result) == 0 {
			return nil
		}
	}
	return result
}

// HasArea reports whether the filled region covers any area. Between two consecutive
// vertex heights the scanline crossings keep their order, so one sample per band decides it.
func (p *Path) HasArea(evenOdd bool) bool {
	polys := p.Flatten(0.25)
	var ys []float64
	for _, poly := range polys {
		for _, q := range poly {
			ys = append(ys, q.Y)
		}
	}
	sort.Float64s(ys)
	for i := 1; i < len(ys); i++ {
		if ys[i] <= ys[i-1] {
			continue
		}
		for _, span := range scanline(polys, (ys[i-1]+ys[i])/2, evenOdd) {
			if span.Length() > 0 {
				return true
			}
		}
	}
	return false
}

type crossing struct {
	x   float64
	dir int
}

func scanline(polys [][]Point, y float64, evenOdd bool) []Span {
	var xs []crossing
	for _, poly := range polys {
		n := len(poly)
		for i := 0; i < n; i++ {
			a, b := poly[i], poly[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			dir := 1
			if a.Y > b.Y {
				a, b = b, a
				dir = -1
			}
			if y < a.Y || y >= b.Y {
				continue
			}
			t := (y - a.Y) / (b.Y - a.Y)
			xs = append(xs, crossing{x: a.X + t*(b.X-a.X), dir: dir})
		}
	}
	if len(xs) < 2 {
		return nil
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i].x < xs[j].x })
	var spans []Span
	winding := 0
	count := 0
	for i, c := range xs {
		winding += c.dir
		count++
		inside := winding != 0
		if evenOdd {
			inside = count%2 == 1
		}
		if inside && i+1 < len(xs) && xs[i+1].x > c.x {
			s := Span{Min: c.x, Max: xs[i+1].x}
			if n := len(spans); n > 0 && spans[n-1].Max == s.Min {
				spans[n-1].Max = s.Max
			} else {
				spans = append(spans, s)
			}
		}
	}
	return spans
}

func intersectSpans(a, b []Span) []Span {
	var out []Span
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := math.Max(a[i].Min, b[j].Min)
		hi := math.Min(a[i].Max, b[j].Max)
		if hi > lo {
			out = append(out, Span{Min: lo, Max: hi})
		}
		if a[i].Max < b[j].Max {
			i++
		} else {
			j++
		}
	}
	return out
}
