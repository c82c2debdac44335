package shaping

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

func text10(s string) *styled.Text {
	f := styled.DefaultFont.WithSize(10)
	return styled.New(s, styled.Attributes{Font: &f})
}

func shapingPath(r geom.Rect) *geom.Path {
	return geom.RectPath(r).Transform(geom.Scale(1, -1))
}

func lineTexts(t *styled.Text, f *layout.Frame) []string {
	var out []string
	for _, l := range f.Lines {
		out = append(out, t.Substring(l.Range))
	}
	return out
}

func TestMonospaceAdvance(t *testing.T) {
	m := Monospace{}
	f := styled.DefaultFont.WithSize(10)
	assert.InDelta(t, 6, m.Advance(f, "a"), 1e-9)
	assert.InDelta(t, 10, m.Advance(f, "中"), 1e-9)
	assert.Zero(t, m.Advance(f, "\n"))
	fm := m.FontMetrics(f)
	assert.InDelta(t, 8, fm.Ascent, 1e-9)
	assert.InDelta(t, 2, fm.Descent, 1e-9)
}

func TestFrameWrapsAtWordBoundaries(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("aaaa bbbb cccc")
	frame, err := fs.Frame(layout.FrameRequest{
		Text:        txt,
		Range:       txt.FullRange(),
		Path:        shapingPath(geom.R(0, 0, 50, 100)),
		FillEvenOdd: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa ", "bbbb ", "cccc"}, lineTexts(txt, frame))
	require.Len(t, frame.Origins, 3)
	assert.InDelta(t, 92, frame.Origins[0].Y, 1e-9)
	assert.InDelta(t, 82, frame.Origins[1].Y, 1e-9)
	assert.InDelta(t, 72, frame.Origins[2].Y, 1e-9)
	assert.Equal(t, txt.FullRange(), frame.Visible)
	assert.InDelta(t, 6, frame.Lines[0].TrailingWhitespace, 1e-9)
}

func TestFrameStopsWhenRegionIsFull(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("aaaa bbbb cccc")
	frame, err := fs.Frame(layout.FrameRequest{
		Text:  txt,
		Range: txt.FullRange(),
		Path:  shapingPath(geom.R(0, 0, 50, 25)),
	})
	require.NoError(t, err)
	assert.Len(t, frame.Lines, 2)
	assert.Equal(t, styled.NewRange(0, 10), frame.Visible)
}

func TestFrameMandatoryBreak(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("ab\ncd")
	frame, err := fs.Frame(layout.FrameRequest{
		Text:  txt,
		Range: txt.FullRange(),
		Path:  shapingPath(geom.R(0, 0, 200, 100)),
	})
	require.NoError(t, err)
	require.Len(t, frame.Lines, 2)
	assert.Equal(t, styled.NewRange(0, 3), frame.Lines[0].Range)
	assert.Equal(t, styled.NewRange(3, 2), frame.Lines[1].Range)
}

func TestFrameIrregularRegionPlacesSeveralLinesPerBand(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("aaaa bbbb cccc dddd")
	p := geom.RectPath(geom.R(0, 0, 100, 100))
	p.AddRect(geom.R(40, 0, 20, 100))
	frame, err := fs.Frame(layout.FrameRequest{
		Text:        txt,
		Range:       txt.FullRange(),
		Path:        p.Transform(geom.Scale(1, -1)),
		FillEvenOdd: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa ", "bbbb ", "cccc ", "dddd"}, lineTexts(txt, frame))
	require.Len(t, frame.Origins, 4)
	assert.InDelta(t, 0, frame.Origins[0].X, 1e-6)
	assert.InDelta(t, 60, frame.Origins[1].X, 1e-6)
	assert.InDelta(t, frame.Origins[0].Y, frame.Origins[1].Y, 1e-9)
	assert.Less(t, frame.Origins[2].Y, frame.Origins[0].Y)
}

func TestFrameVerticalColumnsRunRightToLeft(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("中文字，")
	frame, err := fs.Frame(layout.FrameRequest{
		Text:     txt,
		Range:    txt.FullRange(),
		Path:     shapingPath(geom.R(0, 0, 100, 20)),
		Vertical: true,
	})
	require.NoError(t, err)
	require.Len(t, frame.Lines, 2)
	// 第一列贴右边缘
	assert.InDelta(t, 92, frame.Origins[0].X, 1e-9)
	assert.InDelta(t, 82, frame.Origins[1].X, 1e-9)
	g := frame.Lines[0].Runs[0].Glyphs
	require.Len(t, g, 2)
	assert.True(t, g[0].Upright)
	assert.False(t, g[0].Centered)
	last := frame.Lines[1].Runs[0].Glyphs
	assert.True(t, last[len(last)-1].Centered)
}

func TestRTLRunIsVisuallyOrdered(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("שלום")
	sl, err := fs.Line(txt, txt.FullRange(), false)
	require.NoError(t, err)
	require.Len(t, sl.Runs, 1)
	run := sl.Runs[0]
	assert.True(t, run.RTL)
	assert.Equal(t, 3, run.Glyphs[0].Index)
	assert.Equal(t, 0, run.Glyphs[3].Index)
	assert.InDelta(t, 0, run.Glyphs[0].Position.X, 1e-9)
}

func TestAttachmentClusterUsesAttachmentMetrics(t *testing.T) {
	fs := New(Monospace{})
	att := &styled.Attachment{ID: "a", Content: styled.ContentHandle{ID: "img", Size: geom.Sz(20, 30)}}
	txt := styled.AttachmentText(att, styled.DefaultFont.WithSize(10))
	sl, err := fs.Line(txt, txt.FullRange(), false)
	require.NoError(t, err)
	require.Len(t, sl.Runs, 1)
	assert.InDelta(t, 20, sl.Width, 1e-9)
	assert.InDelta(t, 28, sl.Ascent, 1e-9)
	assert.InDelta(t, 2, sl.Descent, 1e-9)
	assert.Empty(t, sl.Runs[0].Glyphs[0].Text)
}

func TestTruncatedLine(t *testing.T) {
	fs := New(Monospace{})
	txt := text10("abcdefghij")
	token := text10(styled.TruncationToken)

	tests := []struct {
		name   string
		mode   layout.TruncationType
		ranges []styled.Range
		token  int
	}{
		{"end", layout.TruncateEnd, []styled.Range{{Location: 0, Length: 4}, {Location: 4}}, 1},
		{"start", layout.TruncateStart, []styled.Range{{Location: 6}, {Location: 6, Length: 4}}, 0},
		{"middle", layout.TruncateMiddle, []styled.Range{{Location: 0, Length: 2}, {Location: 2}, {Location: 8, Length: 2}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl, err := fs.TruncatedLine(txt, txt.FullRange(), token, 30, tt.mode, false)
			require.NoError(t, err)
			assert.Equal(t, txt.FullRange(), sl.Range)
			assert.InDelta(t, 30, sl.Width, 1e-9)
			var got []styled.Range
			for _, r := range sl.Runs {
				got = append(got, r.Range)
			}
			assert.Equal(t, tt.ranges, got)
			assert.True(t, sl.Runs[tt.token].IsToken)
		})
	}
}

func TestNoMetrics(t *testing.T) {
	fs := &Framesetter{}
	_, err := fs.Frame(layout.FrameRequest{})
	assert.ErrorIs(t, err, ErrNoMetrics)
}

// ligatureMetrics 把 "fi" 整形为一个字形，其余字符一一对应。
type ligatureMetrics struct{ Monospace }

const ligatureFI = 1000

func (ligatureMetrics) ShapeRun(f styled.Font, text []rune, rtl bool) ([]ClusterGlyph, error) {
	var out []ClusterGlyph
	for i := 0; i < len(text); i++ {
		g := ClusterGlyph{Cluster: i}
		g.ID = uint32(text[i])
		g.Advance = f.Size * 0.6
		if text[i] == 'f' && i+1 < len(text) && text[i+1] == 'i' {
			g.ID = ligatureFI
			g.Advance = f.Size * 0.9
			i++
		}
		out = append(out, g)
	}
	if rtl {
		slices.Reverse(out)
	}
	return out, nil
}

func TestLigatureMergesClusters(t *testing.T) {
	fs := New(ligatureMetrics{})
	txt := text10("fit")
	sl, err := fs.Line(txt, txt.FullRange(), false)
	require.NoError(t, err)
	require.Len(t, sl.Runs, 1)
	g := sl.Runs[0].Glyphs
	require.Len(t, g, 2)

	assert.Equal(t, 0, g[0].Index)
	assert.Equal(t, 2, g[0].Length)
	assert.Equal(t, "fi", g[0].Text)
	assert.InDelta(t, 9, g[0].Advance, 1e-9)
	require.Len(t, g[0].Shaped, 1)
	assert.Equal(t, uint32(ligatureFI), g[0].Shaped[0].ID)

	assert.Equal(t, 2, g[1].Index)
	assert.InDelta(t, 9, g[1].Position.X, 1e-9)
	require.Len(t, g[1].Shaped, 1)
	assert.Equal(t, uint32('t'), g[1].Shaped[0].ID)
	assert.InDelta(t, 15, sl.Width, 1e-9)
	assert.InDelta(t, 15, sl.Runs[0].Width, 1e-9)
}

func TestLigatureCutByAttributesFallsBack(t *testing.T) {
	fs := New(ligatureMetrics{})
	red := styled.RGBA(255, 0, 0, 255)
	txt, err := text10("fit").Set(styled.NewRange(1, 1), styled.Attributes{Color: &red})
	require.NoError(t, err)
	sl, err := fs.Line(txt, txt.FullRange(), false)
	require.NoError(t, err)
	require.Len(t, sl.Runs, 3)
	for _, run := range sl.Runs {
		require.Len(t, run.Glyphs, 1)
		assert.Equal(t, 1, run.Glyphs[0].Length)
	}
	assert.Empty(t, sl.Runs[0].Glyphs[0].Shaped)
	assert.Empty(t, sl.Runs[1].Glyphs[0].Shaped)
	// 连字宽度平分到被切开的簇上，行宽不变
	assert.InDelta(t, 4.5, sl.Runs[0].Width, 1e-9)
	assert.InDelta(t, 15, sl.Width, 1e-9)
	assert.NotEmpty(t, sl.Runs[2].Glyphs[0].Shaped)
}

func TestShapedRTLKeepsVisualOrder(t *testing.T) {
	fs := New(ligatureMetrics{})
	txt := text10("שלום")
	sl, err := fs.Line(txt, txt.FullRange(), false)
	require.NoError(t, err)
	require.Len(t, sl.Runs, 1)
	g := sl.Runs[0].Glyphs
	require.Len(t, g, 4)
	assert.Equal(t, 3, g[0].Index)
	assert.Equal(t, uint32('ם'), g[0].Shaped[0].ID)
	assert.Equal(t, 0, g[3].Index)
	assert.Equal(t, uint32('ש'), g[3].Shaped[0].ID)
	assert.InDelta(t, 18, g[3].Position.X, 1e-9)
}
