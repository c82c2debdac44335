package shaping

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

// RunShaper is implemented by FaceMetrics that can shape a run of text into font
// glyphs. Framesetter uses it for ligatures, kerning and cursive joining; clusters it
// cannot shape fall back to per-cluster Advance.
type RunShaper interface {
	// ShapeRun returns the glyphs of text in visual order.
	ShapeRun(f styled.Font, text []rune, rtl bool) ([]ClusterGlyph, error)
}

// ClusterGlyph is a shaped glyph and the index of the first rune it was shaped from.
type ClusterGlyph struct {
	layout.ShapedGlyph
	Cluster int
}

// Harfbuzz shapes runs with go-text's HarfBuzz port over the faces of a font registry.
// FontMetrics and Advance come from the wrapped FaceMetrics, so vertical metrics stay
// those of the drawing backend.
//
// Harfbuzz is safe for concurrent use: parsed fonts are shared, faces and shapers are
// per call.
type Harfbuzz struct {
	FaceMetrics
	fonts *fonts.Registry

	shapers sync.Pool
	mu      sync.RWMutex
	cache   map[string]*font.Font // by fonts.Registry key
}

var _ RunShaper = (*Harfbuzz)(nil)

// NewHarfbuzz wraps m with HarfBuzz shaping over reg. A nil reg uses fonts.Default().
func NewHarfbuzz(m FaceMetrics, reg *fonts.Registry) *Harfbuzz {
	if reg == nil {
		reg = fonts.Default()
	}
	return &Harfbuzz{
		FaceMetrics: m,
		fonts:       reg,
		shapers:     sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		cache:       make(map[string]*font.Font),
	}
}

func (h *Harfbuzz) ShapeRun(f styled.Font, text []rune, rtl bool) ([]ClusterGlyph, error) {
	if len(text) == 0 {
		return nil, nil
	}
	ft, err := h.font(f)
	if err != nil {
		return nil, err
	}
	dir := di.DirectionLTR
	if rtl {
		dir = di.DirectionRTL
	}
	input := shaping.Input{
		Text:      text,
		RunStart:  0,
		RunEnd:    len(text),
		Direction: dir,
		Face:      font.NewFace(ft),
		Size:      fixed.Int26_6(f.Size * 64),
		Script:    scriptOf(text),
		Language:  language.NewLanguage("en"),
	}
	hb := h.shapers.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	h.shapers.Put(hb)

	glyphs := make([]ClusterGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = ClusterGlyph{
			ShapedGlyph: layout.ShapedGlyph{
				ID:      uint32(g.GlyphID),
				Offset:  geom.Pt(fixedToFloat(g.XOffset), fixedToFloat(g.YOffset)),
				Advance: fixedToFloat(g.Advance),
			},
			Cluster: g.TextIndex(),
		}
	}
	return glyphs, nil
}

// font 返回 f 对应的已解析字体。font.Font 只读，可并发共享。
func (h *Harfbuzz) font(f styled.Font) (*font.Font, error) {
	key, err := h.fonts.Key(f)
	if err != nil {
		return nil, err
	}
	h.mu.RLock()
	ft, ok := h.cache[key]
	h.mu.RUnlock()
	if ok {
		return ft, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ft, ok := h.cache[key]; ok {
		return ft, nil
	}
	data, err := h.fonts.Load(f)
	if err != nil {
		return nil, err
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shaping: parse %s: %w", key, err)
	}
	h.cache[key] = face.Font
	return face.Font, nil
}

// scriptOf 取第一个非空白字符的文字系统。
func scriptOf(text []rune) language.Script {
	for _, r := range text {
		switch r {
		case ' ', '\t', '\u00a0', '\u3000':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
