package geom

import "math"

// Matrix is a 2D affine transform in row-major order:
//
//	| A  B  C |
//	| D  E  F |
//
// x' = A*x + B*y + C, y' = D*x + E*y + F.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{A: 1, E: 1} }

// Translate returns a translation.
func Translate(x, y float64) Matrix { return Matrix{A: 1, C: x, E: 1, F: y} }

// Scale returns a scale.
func Scale(x, y float64) Matrix { return Matrix{A: x, E: y} }

// Rotate returns a rotation by angle radians (clockwise on a y-down surface).
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns m*o, applying o first.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Point) Point {
	return Point{X: m.A*p.X + m.B*p.Y + m.C, Y: m.D*p.X + m.E*p.Y + m.F}
}

// ApplyVector transforms a vector, ignoring translation.
func (m Matrix) ApplyVector(p Point) Point {
	return Point{X: m.A*p.X + m.B*p.Y, Y: m.D*p.X + m.E*p.Y}
}

// ApplyRect returns the bounding box of the transformed rectangle.
func (m Matrix) ApplyRect(r Rect) Rect {
	pts := [4]Point{
		m.Apply(Point{X: r.X, Y: r.Y}),
		m.Apply(Point{X: r.X + r.W, Y: r.Y}),
		m.Apply(Point{X: r.X, Y: r.Y + r.H}),
		m.Apply(Point{X: r.X + r.W, Y: r.Y + r.H}),
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// IsIdentity reports whether m is the identity transform.
func (m Matrix) IsIdentity() bool { return m == Identity() }

// IsTranslation reports whether m only translates.
func (m Matrix) IsTranslation() bool { return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1 }

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 { return m.A*m.E - m.B*m.D }

// Invert returns the inverse transform; ok is false for singular matrices.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if det == 0 {
		return Matrix{}, false
	}
	inv := 1 / det
	return Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.E*m.C) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.D*m.C - m.A*m.F) * inv,
	}, true
}

// ScaleFactor returns the average scale applied to lengths.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}
