package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
)

func TestRectUnionAndInset(t *testing.T) {
	a := geom.R(0, 0, 10, 10)
	b := geom.R(5, -5, 10, 10)
	assert.Equal(t, geom.R(0, -5, 15, 15), a.Union(b))

	in := geom.Insets{Top: 1, Left: 2, Bottom: 3, Right: 4}
	assert.Equal(t, geom.R(2, 1, 4, 6), a.Inset(in))
	assert.Equal(t, a, a.Inset(in).Inset(geom.InvertInsets(in)))
}

func TestRectStandardize(t *testing.T) {
	r := geom.R(10, 10, -4, -6).Standardize()
	assert.Equal(t, geom.R(6, 4, 4, 6), r)
}

func TestRotateVertical(t *testing.T) {
	in := geom.Insets{Top: 1, Left: 2, Bottom: 3, Right: 4}
	assert.Equal(t, geom.Insets{Top: 2, Left: 3, Bottom: 4, Right: 1}, geom.RotateVertical(in))
}

func TestPixelRound(t *testing.T) {
	r := geom.PixelRound(geom.R(0.4, 0.6, 10.2, 9.7), 1)
	assert.Equal(t, geom.R(0, 1, 11, 9), r)
	r = geom.PixelRound(geom.R(0.3, 0.3, 1, 1), 2)
	assert.Equal(t, geom.R(0.5, 0.5, 1, 1), r)
}

func TestMatrixInvert(t *testing.T) {
	m := geom.Translate(3, 4).Multiply(geom.Scale(2, -1))
	inv, ok := m.Invert()
	require.True(t, ok)
	p := geom.Pt(7, -2)
	got := inv.Apply(m.Apply(p))
	assert.InDelta(t, p.X, got.X, 1e-9)
	assert.InDelta(t, p.Y, got.Y, 1e-9)

	rot := geom.Rotate(math.Pi / 2).Apply(geom.Pt(1, 0))
	assert.InDelta(t, 0, rot.X, 1e-9)
	assert.InDelta(t, 1, rot.Y, 1e-9)
}

func TestDistanceToRect(t *testing.T) {
	r := geom.R(0, 0, 10, 10)
	assert.Equal(t, 0.0, geom.DistanceToRect(geom.Pt(5, 5), r))
	assert.Equal(t, 5.0, geom.DistanceToRect(geom.Pt(15, 5), r))
	assert.Equal(t, 5.0, geom.DistanceToRect(geom.Pt(13, 14), r))
}
