package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
)

func TestMergeBorderRects(t *testing.T) {
	a := geom.R(0, 0, 10, 10)
	b := geom.R(10.5, 0, 10, 10)
	merged := mergeBorderRects([]geom.Rect{a, b}, false)
	require.Len(t, merged, 1)
	assert.Equal(t, a.Union(b), merged[0])

	// 副轴原点相差不足 1 仍视为同一行
	merged = mergeBorderRects([]geom.Rect{a, geom.R(12, 0.6, 4, 10)}, false)
	require.Len(t, merged, 1)
	assert.Equal(t, geom.R(0, 0.6, 16, 10), merged[0])

	merged = mergeBorderRects([]geom.Rect{a, geom.R(0, 12, 10, 10)}, false)
	assert.Len(t, merged, 2)

	assert.Nil(t, mergeBorderRects(nil, false))
}

func TestMergeBorderRectsVertical(t *testing.T) {
	a := geom.R(90, 0, 10, 20)
	b := geom.R(90.4, 20, 10, 15)
	merged := mergeBorderRects([]geom.Rect{a, b}, true)
	require.Len(t, merged, 1)
	assert.Equal(t, geom.R(90.4, 0, 10, 35), merged[0])

	merged = mergeBorderRects([]geom.Rect{a, geom.R(78, 0, 10, 20)}, true)
	assert.Len(t, merged, 2)
}
