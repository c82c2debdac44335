package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/layout/record"
	"github.com/ByLCY/scribe/selection"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

var blue = styled.RGBA(0, 0, 255, 255)

// threeLines 在 50pt 宽的容器里排成 "aaaa " "bbbb " "cccc" 三行，每行高 10、每字宽 6
func threeLines(t *testing.T) *layout.Layout {
	t.Helper()
	f := styled.DefaultFont.WithSize(10)
	txt := styled.New("aaaa bbbb cccc", styled.Attributes{Font: &f})
	l, err := layout.Build(layout.NewContainer(geom.Sz(50, 100)), txt, layout.BuildOptions{Shaper: shaping.New(shaping.Monospace{})})
	require.NoError(t, err)
	return l
}

func selected(t *testing.T) *selection.View {
	v := selection.New(threeLines(t), blue)
	v.Select(layout.RangeOf(styled.NewRange(2, 10), layout.AffinityForward))
	return v
}

func TestCaretRect(t *testing.T) {
	v := selection.New(threeLines(t), blue)
	require.True(t, v.SetCaret(layout.Pos(2)))
	assert.True(t, v.CaretVisible())
	assert.Equal(t, geom.R(11, 0, 2, 10), v.CaretRect())

	// 行首的光标被夹回视图内
	require.True(t, v.SetCaret(layout.Pos(0)))
	assert.Equal(t, geom.R(0, 0, 2, 10), v.CaretRect())

	assert.False(t, v.SetCaret(layout.Pos(40)))
	assert.False(t, v.CaretVisible())
}

func TestCaretRectVertical(t *testing.T) {
	v := selection.New(nil, blue)
	v.SetVerticalForm(true)
	v.SetCaretRect(geom.R(0, 12, 10, 0))
	assert.Equal(t, geom.R(0, 11, 10, 2), v.CaretRect())
	assert.Equal(t, selection.EdgeRight, v.StartGrabber().DotDirection)
	assert.Equal(t, selection.EdgeLeft, v.EndGrabber().DotDirection)
}

func TestIsCaretContains(t *testing.T) {
	v := selection.New(threeLines(t), blue)
	assert.False(t, v.IsCaretContains(geom.Pt(12, 5)))

	v.SetCaret(layout.Pos(2))
	assert.True(t, v.IsCaretContains(geom.Pt(25, 5)))
	assert.False(t, v.IsCaretContains(geom.Pt(40, 5)))

	v.HideCaret()
	assert.False(t, v.IsCaretContains(geom.Pt(12, 5)))
}

func TestSelectMarksAndGrabbers(t *testing.T) {
	v := selected(t)

	assert.Equal(t, []geom.Rect{
		geom.R(12, 0, 38, 10),
		geom.R(0, 10, 50, 10),
		geom.R(0, 20, 12, 10),
	}, v.Marks())

	start, end := v.StartGrabber(), v.EndGrabber()
	require.True(t, start.Visible)
	require.True(t, end.Visible)
	assert.Equal(t, geom.R(11, 0, 2, 10), start.Frame)
	assert.Equal(t, geom.R(11, 20, 2, 10), end.Frame)
	assert.Equal(t, geom.R(7, -9.5, selection.DotSize, selection.DotSize), start.Dot())
	assert.Equal(t, geom.R(7, 29.5, selection.DotSize, selection.DotSize), end.Dot())

	assert.InDelta(t, selection.MarkAlpha*255, float64(v.MarkColor().A), 1)

	v.ClearSelection()
	assert.Empty(t, v.Marks())
	assert.False(t, v.StartGrabber().Visible)
}

func TestGrabberTouchRect(t *testing.T) {
	g := selection.Grabber{Frame: geom.R(10, 10, 2, 10), DotDirection: selection.EdgeTop}
	assert.Equal(t, geom.R(-4, -11, 30, 45), g.TouchRect())
}

func TestIsGrabberContains(t *testing.T) {
	v := selected(t)

	assert.True(t, v.IsStartGrabberContains(geom.Pt(12, -10)))
	assert.False(t, v.IsEndGrabberContains(geom.Pt(12, -10)))

	assert.True(t, v.IsEndGrabberContains(geom.Pt(12, 40)))
	assert.False(t, v.IsStartGrabberContains(geom.Pt(12, 40)))

	// 两个触摸区重叠且距离相同时归结束抓手
	assert.False(t, v.IsStartGrabberContains(geom.Pt(12, 15)))
	assert.True(t, v.IsEndGrabberContains(geom.Pt(12, 15)))

	assert.True(t, v.IsGrabberContains(geom.Pt(12, -10)))
	assert.False(t, v.IsGrabberContains(geom.Pt(45, 80)))

	assert.False(t, selection.New(threeLines(t), blue).IsGrabberContains(geom.Pt(12, 0)))
}

func TestIsSelectionRectsContains(t *testing.T) {
	v := selected(t)
	assert.True(t, v.IsSelectionRectsContains(geom.Pt(20, 5)))
	assert.True(t, v.IsSelectionRectsContains(geom.Pt(40, 15)))
	assert.False(t, v.IsSelectionRectsContains(geom.Pt(40, 25)))
	assert.False(t, selection.New(threeLines(t), blue).IsSelectionRectsContains(geom.Pt(20, 5)))
}

func TestDraw(t *testing.T) {
	v := selected(t)
	v.SetCaret(layout.Pos(2))
	rec := record.New()
	v.Draw(rec)
	assert.True(t, rec.Balanced())
	// 选区底色、两个抓手、光标
	assert.Equal(t, 4, rec.Count("FillPath"))
}
