// Package geom 提供排版与绘制共用的几何类型：点、尺寸、矩形、内边距、仿射矩阵与路径。
//
// 坐标系约定：布局空间原点在左上角，y 轴向下；排版（shaping）空间原点在左下角，y 轴向上。
package geom

import "math"

// Point is a location in a 2D space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Swap exchanges the two components.
func (p Point) Swap() Point { return Point{X: p.Y, Y: p.X} }

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Sz is shorthand for Size{W: w, H: h}.
func Sz(w, h float64) Size { return Size{W: w, H: h} }

// Ceil rounds both components up.
func (s Size) Ceil() Size { return Size{W: math.Ceil(s.W), H: math.Ceil(s.H)} }

// IsEmpty reports whether either component is not positive.
func (s Size) IsEmpty() bool { return s.W <= 0 || s.H <= 0 }

// Insets describes edge offsets, positive values shrink a rectangle.
type Insets struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// InvertInsets negates all four edges.
func InvertInsets(in Insets) Insets {
	return Insets{Top: -in.Top, Left: -in.Left, Bottom: -in.Bottom, Right: -in.Right}
}

// RotateVertical maps horizontal-form insets onto vertical-form geometry.
func RotateVertical(in Insets) Insets {
	return Insets{Top: in.Left, Left: in.Bottom, Bottom: in.Right, Right: in.Top}
}

// IsZero reports whether all edges are zero.
func (in Insets) IsZero() bool { return in == Insets{} }

// Rect is an axis-aligned rectangle. Width/height may be negative until Standardize is called.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// R is shorthand for Rect{X: x, Y: y, W: w, H: h}.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// RectFromPoints returns the rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{X: a.X, Y: a.Y, W: b.X - a.X, H: b.Y - a.Y}.Standardize()
}

func (r Rect) MinX() float64 { return math.Min(r.X, r.X+r.W) }
func (r Rect) MaxX() float64 { return math.Max(r.X, r.X+r.W) }
func (r Rect) MinY() float64 { return math.Min(r.Y, r.Y+r.H) }
func (r Rect) MaxY() float64 { return math.Max(r.Y, r.Y+r.H) }
func (r Rect) MidX() float64 { return r.X + r.W/2 }
func (r Rect) MidY() float64 { return r.Y + r.H/2 }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle extent.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.W == 0 || r.H == 0 }

// Standardize returns an equivalent rectangle with non-negative width and height.
func (r Rect) Standardize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	r, o = r.Standardize(), o.Standardize()
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Intersect returns the overlap of r and o and whether it is non-empty.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	r, o = r.Standardize(), o.Standardize()
	minX := math.Max(r.X, o.X)
	minY := math.Max(r.Y, o.Y)
	maxX := math.Min(r.MaxX(), o.MaxX())
	maxY := math.Min(r.MaxY(), o.MaxY())
	if maxX < minX || maxY < minY {
		return Rect{}, false
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// Inset shrinks the rectangle by the given insets.
func (r Rect) Inset(in Insets) Rect {
	return Rect{
		X: r.X + in.Left,
		Y: r.Y + in.Top,
		W: r.W - in.Left - in.Right,
		H: r.H - in.Top - in.Bottom,
	}
}

// InsetBy shrinks the rectangle by dx on both horizontal edges and dy on both vertical edges.
func (r Rect) InsetBy(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Offset moves the rectangle.
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	r = r.Standardize()
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ContainsRect reports whether o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	o = o.Standardize()
	return r.Contains(o.Origin()) && r.Contains(Point{X: o.MaxX(), Y: o.MaxY()})
}

// FlipY mirrors the rectangle across the x axis.
func (r Rect) FlipY() Rect {
	return Rect{X: r.X, Y: -r.Y - r.H, W: r.W, H: r.H}
}

// PixelRound snaps the rectangle edges to the nearest device pixel for the given scale.
func PixelRound(r Rect, scale float64) Rect {
	if scale <= 0 {
		scale = 1
	}
	x0 := math.Round(r.X*scale) / scale
	y0 := math.Round(r.Y*scale) / scale
	x1 := math.Round((r.X+r.W)*scale) / scale
	y1 := math.Round((r.Y+r.H)*scale) / scale
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// PixelFloor floors a value to the device pixel grid.
func PixelFloor(v, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return math.Floor(v*scale) / scale
}

// PixelCeil ceils a value to the device pixel grid.
func PixelCeil(v, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return math.Ceil(v*scale) / scale
}

// PixelHalf moves a value to the center of its device pixel, so one-pixel strokes stay crisp.
func PixelHalf(v, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return (math.Floor(v*scale) + 0.5) / scale
}

// PixelHalfRect applies PixelHalf to every edge of r.
func PixelHalfRect(r Rect, scale float64) Rect {
	x0 := PixelHalf(r.X, scale)
	y0 := PixelHalf(r.Y, scale)
	x1 := PixelHalf(r.X+r.W, scale)
	y1 := PixelHalf(r.Y+r.H, scale)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// DistanceToRect returns the distance from p to the nearest edge of r, 0 when inside.
func DistanceToRect(p Point, r Rect) float64 {
	r = r.Standardize()
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-r.MaxX())
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-r.MaxY())
	return math.Hypot(dx, dy)
}
