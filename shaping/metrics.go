package shaping

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/ByLCY/scribe/styled"
)

// ErrNoMetrics 表示 Framesetter 没有配置字体度量。
var ErrNoMetrics = errors.New("shaping: no face metrics configured")

// FontMetrics are the vertical metrics of a font at its size. Descent is positive
// below the baseline; UnderlinePosition is negative below the baseline.
type FontMetrics struct {
	Ascent             float64
	Descent            float64
	Leading            float64
	UnderlinePosition  float64
	UnderlineThickness float64
	XHeight            float64
}

// FaceMetrics resolves fonts to metrics. Renderers provide implementations backed by
// real faces so that shaping and drawing agree.
type FaceMetrics interface {
	FontMetrics(f styled.Font) FontMetrics
	// Advance returns the horizontal advance of one grapheme cluster.
	Advance(f styled.Font, cluster string) float64
}

// Monospace is a deterministic FaceMetrics: narrow clusters advance 0.6 em, East Asian
// wide clusters 1 em.
type Monospace struct{}

func (Monospace) FontMetrics(f styled.Font) FontMetrics {
	s := f.Size
	return FontMetrics{
		Ascent:             0.8 * s,
		Descent:            0.2 * s,
		UnderlinePosition:  -0.1 * s,
		UnderlineThickness: max(0.05*s, 0.5),
		XHeight:            0.5 * s,
	}
}

func (Monospace) Advance(f styled.Font, cluster string) float64 {
	r, _ := utf8.DecodeRuneInString(cluster)
	if r == utf8.RuneError || isLinebreak(r) {
		return 0
	}
	if isWide(r) {
		return f.Size
	}
	return 0.6 * f.Size
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

func isLinebreak(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029', '\u0085':
		return true
	}
	return false
}
