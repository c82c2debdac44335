package styled_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

func red() *styled.Color {
	c := styled.RGBA(255, 0, 0, 255)
	return &c
}

func TestUTF16Length(t *testing.T) {
	txt := styled.Plain("a😀b")
	assert.Equal(t, 4, txt.Len())
	r, w := txt.RuneAt(1)
	assert.Equal(t, '😀', r)
	assert.Equal(t, 2, w)
	assert.True(t, txt.IsTrailingSurrogate(2))
	assert.Equal(t, "😀", txt.Substring(styled.NewRange(1, 2)))
	assert.Equal(t, "b", txt.Substring(styled.NewRange(3, 1)))
	assert.Equal(t, 3, txt.IndexOfByte(5))
}

func TestApplyIsCopyOnWrite(t *testing.T) {
	base := styled.Plain("hello world")
	colored, err := base.Set(styled.NewRange(6, 5), styled.Attributes{Color: red()})
	require.NoError(t, err)

	a, _ := base.AttributesAt(7)
	assert.Nil(t, a.Color)

	a, r := colored.AttributesAt(7)
	require.NotNil(t, a.Color)
	assert.Equal(t, styled.NewRange(6, 5), r)

	_, err = base.Set(styled.NewRange(8, 10), styled.Attributes{})
	assert.ErrorIs(t, err, styled.ErrRangeOutOfBounds)
}

func TestEnumerateCoversGaps(t *testing.T) {
	txt, err := styled.Plain("abcdef").Set(styled.NewRange(2, 2), styled.Attributes{Color: red()})
	require.NoError(t, err)

	var ranges []styled.Range
	txt.Enumerate(txt.FullRange(), func(a styled.Attributes, r styled.Range) bool {
		ranges = append(ranges, r)
		return true
	})
	assert.Equal(t, []styled.Range{styled.NewRange(0, 2), styled.NewRange(2, 2), styled.NewRange(4, 2)}, ranges)
}

func TestAdjacentEqualSpansMerge(t *testing.T) {
	txt := styled.Plain("abcdef")
	txt, _ = txt.Set(styled.NewRange(0, 3), styled.Attributes{Color: red()})
	txt, _ = txt.Set(styled.NewRange(3, 3), styled.Attributes{Color: red()})
	_, r := txt.AttributesAt(0)
	assert.Equal(t, styled.NewRange(0, 6), r)
}

func TestEffectiveRangeByKind(t *testing.T) {
	hl := styled.NewColorHighlight(styled.RGBA(0, 0, 255, 255))
	txt := styled.Plain("tap here now")
	txt, _ = txt.Set(styled.NewRange(4, 4), styled.Attributes{Highlight: hl})
	txt, _ = txt.Set(styled.NewRange(6, 6), styled.Attributes{Color: red()})

	r := txt.EffectiveRange(5, styled.KindHighlight, txt.FullRange())
	assert.Equal(t, styled.NewRange(4, 4), r)
}

func TestSliceConcatReplace(t *testing.T) {
	txt, _ := styled.Plain("abcdef").Set(styled.NewRange(1, 4), styled.Attributes{Color: red()})
	s := txt.Slice(styled.NewRange(3, 3))
	assert.Equal(t, "def", s.String())
	a, r := s.AttributesAt(0)
	assert.NotNil(t, a.Color)
	assert.Equal(t, styled.NewRange(0, 2), r)

	joined := styled.Concat(styled.Plain("x"), s)
	assert.Equal(t, "xdef", joined.String())
	_, r = joined.AttributesAt(1)
	assert.Equal(t, styled.NewRange(1, 2), r)

	rep, err := txt.Replace(styled.NewRange(1, 2), styled.Plain("ZZZ"))
	require.NoError(t, err)
	assert.Equal(t, "aZZZdef", rep.String())
	a, _ = rep.AttributesAt(4)
	assert.NotNil(t, a.Color)
}

func TestStripDiscontinuous(t *testing.T) {
	a := styled.Attributes{
		Color:        red(),
		Attachment:   &styled.Attachment{ID: "x"},
		Binding:      &styled.Binding{},
		BackedString: &styled.BackedString{String: ":)"},
	}
	got := a.StripDiscontinuous()
	assert.Equal(t, []styled.Kind{styled.KindColor}, got.Kinds())
}

func TestMapRoundTrip(t *testing.T) {
	a := styled.Attributes{Color: red(), Underline: styled.NewDecoration(styled.LineStyleSingle, 1, styled.Black)}
	m := a.ToMap()
	assert.Contains(t, m, styled.KeyForegroundColor)
	assert.Contains(t, m, styled.KeyUnderline)

	back, err := styled.FromMap(m)
	require.NoError(t, err)
	assert.True(t, a.Equal(back))

	_, err = styled.FromMap(map[string]any{"Bogus": 1})
	assert.ErrorIs(t, err, styled.ErrUnknownKey)
}

func TestParseLineStyle(t *testing.T) {
	s, err := styled.ParseLineStyle("thick|dash-dot")
	require.NoError(t, err)
	assert.Equal(t, styled.LineStyleThick, s.Weight())
	assert.Equal(t, styled.PatternDashDot, s.Pattern())

	_, err = styled.ParseLineStyle("wavy")
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	c, err := styled.ParseHex("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, styled.RGBA(255, 0, 0, 128), c)
	c, err = styled.ParseHex("#0f0")
	require.NoError(t, err)
	assert.Equal(t, styled.RGBA(0, 255, 0, 255), c)
}

func TestAttachmentMetrics(t *testing.T) {
	att := &styled.Attachment{Content: styled.ContentHandle{Size: geom.Sz(20, 30)}}
	asc, desc, w := att.Metrics(10, 4)
	assert.Equal(t, 20.0, w)
	assert.Equal(t, 4.0, desc)
	assert.Equal(t, 26.0, asc)

	att.Alignment = styled.AlignTop
	asc, desc, _ = att.Metrics(10, 4)
	assert.Equal(t, 10.0, asc)
	assert.Equal(t, 20.0, desc)
}

func TestPlainTextSubstitutesBackedStrings(t *testing.T) {
	txt := styled.New("I ￼ you :-)", styled.Attributes{})
	txt, err := txt.Set(styled.NewRange(2, 1), styled.Attributes{BackedString: &styled.BackedString{String: "love"}})
	require.NoError(t, err)
	txt, err = txt.Set(styled.NewRange(8, 3), styled.Attributes{BackedString: &styled.BackedString{String: "😀"}})
	require.NoError(t, err)
	// 备份区间内的颜色变化不重复输出备份串
	txt, err = txt.Set(styled.NewRange(9, 1), styled.Attributes{Color: red()})
	require.NoError(t, err)

	assert.Equal(t, "I love you 😀", txt.PlainText(txt.FullRange()))
	assert.Equal(t, "love you", txt.PlainText(styled.NewRange(2, 5)))
	assert.Equal(t, "I ", txt.PlainText(styled.NewRange(0, 2)))
	assert.Empty(t, txt.PlainText(styled.NewRange(20, 2)))
	assert.Equal(t, "abc", styled.New("abc", styled.Attributes{}).PlainText(styled.NewRange(0, 3)))
}
