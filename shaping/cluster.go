package shaping

import (
	"slices"
	"unicode"
	"unicode/utf16"

	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/bidi"

	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

// cluster is one grapheme cluster with its resolved attributes and metrics.
type cluster struct {
	index  int // UTF-16
	length int
	text   string
	attrs  styled.Attributes
	font   styled.Font
	fm     FontMetrics
	adv    float64

	breakAfter bool
	mandatory  bool
	space      bool
	newline    bool
	rtl        bool
	upright    bool
	centered   bool
	token      bool

	// shaped 表示 adv 来自 RunShaper；单元首簇的 span 为单元包含的簇数，glyphs 为单元字形
	shaped bool
	span   int
	glyphs []layout.ShapedGlyph
}

func (c *cluster) ascent() float64  { return c.fm.Ascent }
func (c *cluster) descent() float64 { return c.fm.Descent }

// clusters splits range r of t into grapheme clusters and marks UAX#14 break
// opportunities.
func (f *Framesetter) clusters(t *styled.Text, r styled.Range, vertical bool) []cluster {
	if r.Length <= 0 {
		return nil
	}
	runes := []rune(t.Substring(r))
	if len(runes) == 0 {
		return nil
	}
	// 每个 rune 的 UTF-16 起始位置
	index := make([]int, len(runes)+1)
	index[0] = r.Location
	for i, ru := range runes {
		index[i+1] = index[i] + max(utf16.RuneLen(ru), 1)
	}

	var seg segmenter.Segmenter
	seg.Init(runes)
	// 记录每个断行机会所在的 rune 末尾
	breaks := make(map[int]bool)
	lines := seg.LineIterator()
	for lines.Next() {
		line := lines.Line()
		breaks[line.Offset+len(line.Text)] = line.IsMandatoryBreak
	}

	var out []cluster
	graphemes := seg.GraphemeIterator()
	for graphemes.Next() {
		g := graphemes.Grapheme()
		start, end := g.Offset, g.Offset+len(g.Text)
		first := g.Text[0]
		c := cluster{
			index:  index[start],
			length: index[end] - index[start],
			text:   string(g.Text),
		}
		c.attrs, _ = t.AttributesAt(c.index)
		c.font = c.attrs.FontOrDefault()
		c.fm = f.Metrics.FontMetrics(c.font)
		c.newline = isLinebreak(first)
		c.space = !c.newline && unicode.IsSpace(first)
		if c.newline {
			c.text = ""
		} else {
			c.adv = f.Metrics.Advance(c.font, c.text)
		}
		if a := c.attrs.Attachment; a != nil && first == styled.AttachmentCharacter {
			c.fm.Ascent, c.fm.Descent, c.adv = a.Metrics(c.fm.Ascent, c.fm.Descent)
			c.text = ""
		}
		if mandatory, ok := breaks[end]; ok {
			c.breakAfter = true
			c.mandatory = mandatory
		}
		c.rtl = isRTL(first)
		if vertical {
			c.upright = isUpright(first)
			c.centered = c.upright && unicode.IsPunct(first) && isWide(first)
		}
		out = append(out, c)
	}
	f.shape(out)
	return out
}

// shape 用 RunShaper 整形同字体同方向的连续簇，把字形与宽度写回簇上。
func (f *Framesetter) shape(cs []cluster) {
	rs, ok := f.Metrics.(RunShaper)
	if !ok {
		return
	}
	for i := 0; i < len(cs); {
		if !shapeable(&cs[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(cs) && shapeable(&cs[j]) && cs[j].font == cs[i].font && cs[j].rtl == cs[i].rtl {
			j++
		}
		shapeRun(rs, cs[i:j])
		i = j
	}
}

// 竖排直立的字形逐个绘制，不参与整形
func shapeable(c *cluster) bool { return c.text != "" && !c.upright }

type shapeUnit struct {
	first, end int // 簇下标 [first, end)
	glyphs     []ClusterGlyph
}

// shapeRun 整形 cs 并按单元分配字形。单元的边界既是字形簇边界也是整形簇边界，
// 连字因此合为一个单元。
func shapeRun(rs RunShaper, cs []cluster) {
	var runes []rune
	owner := []int{} // rune 下标 → 簇下标
	for k := range cs {
		for _, r := range cs[k].text {
			runes = append(runes, r)
			owner = append(owner, k)
		}
	}
	rtl := cs[0].rtl
	out, err := rs.ShapeRun(cs[0].font, runes, rtl)
	if err != nil || len(out) == 0 {
		layout.Logger().Debug("shaping: run not shaped", "family", cs[0].font.Family, "err", err)
		return
	}
	logical := out
	if rtl {
		logical = slices.Clone(out)
		slices.Reverse(logical)
	}

	var units []shapeUnit
	for gi := 0; gi < len(logical); {
		c := min(max(logical[gi].Cluster, 0), len(runes)-1)
		gj := gi + 1
		for gj < len(logical) && logical[gj].Cluster == logical[gi].Cluster {
			gj++
		}
		next := len(runes)
		if gj < len(logical) {
			next = min(max(logical[gj].Cluster, c+1), len(runes))
		}
		first, end := owner[c], owner[next-1]+1
		if n := len(units); n > 0 && first < units[n-1].end {
			units[n-1].end = max(units[n-1].end, end)
			units[n-1].glyphs = append(units[n-1].glyphs, logical[gi:gj]...)
		} else {
			units = append(units, shapeUnit{first: first, end: end, glyphs: slices.Clone(logical[gi:gj])})
		}
		gi = gj
	}

	for _, u := range units {
		if rtl {
			slices.Reverse(u.glyphs)
		}
		glyphs := make([]layout.ShapedGlyph, len(u.glyphs))
		pen := 0.0
		for k, g := range u.glyphs {
			glyphs[k] = g.ShapedGlyph
			glyphs[k].Offset.X += pen
			pen += g.Advance
		}
		n := u.end - u.first
		for k := u.first; k < u.end; k++ {
			cs[k].shaped = true
			cs[k].adv = pen / float64(n)
		}
		cs[u.first].span = n
		cs[u.first].glyphs = glyphs
	}
}

func isRTL(r rune) bool {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.R, bidi.AL:
		return true
	}
	return false
}

// isUpright 判断竖排时字形是否保持直立：中日韩文字与全角字符直立，其余随行旋转
func isUpright(r rune) bool {
	switch language.LookupScript(r) {
	case language.Han, language.Hiragana, language.Katakana, language.Hangul, language.Bopomofo:
		return true
	}
	return isWide(r)
}
