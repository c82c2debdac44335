// Package fonts 管理渲染器使用的字体数据：内置 Go 字体家族，以及运行时注册的 TTF/OTF。
package fonts

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/scribe/styled"
)

// ErrUnknownFont 表示注册表中没有可用的字体，且回退家族也不存在。
var ErrUnknownFont = errors.New("fonts: unknown font")

// Style 是家族内的字重/斜体组合。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// StyleOf maps the Bold/Italic flags of f.
func StyleOf(f styled.Font) Style {
	switch {
	case f.Bold && f.Italic:
		return BoldItalic
	case f.Bold:
		return Bold
	case f.Italic:
		return Italic
	}
	return Regular
}

type face struct {
	data []byte
	font *sfnt.Font
}

// Registry resolves styled.Font values to font data. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string]map[Style]*face
	names    map[string]string // 小写 → 注册时的名字
	fallback string
}

// New returns an empty registry that falls back to family "Go".
func New() *Registry {
	return &Registry{
		families: map[string]map[Style]*face{},
		names:    map[string]string{},
		fallback: styled.DefaultFont.Family,
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry holding the Go font families
// ("Go", "Go Medium", "Go Mono", "Go Smallcaps").
func Default() *Registry {
	defaultOnce.Do(func() {
		r := New()
		builtin := []struct {
			family string
			style  Style
			data   []byte
		}{
			{"Go", Regular, goregular.TTF},
			{"Go", Bold, gobold.TTF},
			{"Go", Italic, goitalic.TTF},
			{"Go", BoldItalic, gobolditalic.TTF},
			{"Go Medium", Regular, gomedium.TTF},
			{"Go Medium", Italic, gomediumitalic.TTF},
			{"Go Mono", Regular, gomono.TTF},
			{"Go Mono", Bold, gomonobold.TTF},
			{"Go Mono", Italic, gomonoitalic.TTF},
			{"Go Mono", BoldItalic, gomonobolditalic.TTF},
			{"Go Smallcaps", Regular, gosmallcaps.TTF},
			{"Go Smallcaps", Italic, gosmallcapsitalic.TTF},
		}
		for _, b := range builtin {
			if err := r.Register(b.family, b.style, b.data); err != nil {
				panic(fmt.Sprintf("fonts: builtin %s %s: %v", b.family, b.style, err))
			}
		}
		defaultReg = r
	})
	return defaultReg
}

// Clone returns an independent copy; registering into it leaves r unchanged.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := New()
	out.fallback = r.fallback
	for key, styles := range r.families {
		m := make(map[Style]*face, len(styles))
		for s, f := range styles {
			m[s] = f
		}
		out.families[key] = m
	}
	for k, v := range r.names {
		out.names[k] = v
	}
	return out
}

// Register adds font data for family/style. The data must parse as TrueType or OpenType.
func (r *Registry) Register(family string, style Style, data []byte) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return fmt.Errorf("fonts: empty family name")
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("fonts: parse %s %s: %w", family, style, err)
	}
	key := strings.ToLower(family)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families[key] == nil {
		r.families[key] = map[Style]*face{}
		r.names[key] = family
	}
	r.families[key][style] = &face{data: data, font: f}
	return nil
}

// RegisterFile 读取磁盘上的字体文件并注册。
func (r *Registry) RegisterFile(family string, style Style, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fonts: 读取字体 %s 失败: %w", path, err)
	}
	return r.Register(family, style, data)
}

// SetFallback changes the family used when a requested family is missing.
func (r *Registry) SetFallback(family string) {
	r.mu.Lock()
	r.fallback = family
	r.mu.Unlock()
}

// Families lists registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Key identifies the font data Load picks for f; fonts resolving to the same data share
// a key, so renderers can cache parsed faces by it.
func (r *Registry) Key(f styled.Font) (string, error) {
	family, style, _, err := r.resolve(f)
	if err != nil {
		return "", err
	}
	return family + "|" + style.String(), nil
}

// Load returns the font data for f. A missing style falls back to Regular within the
// family; a missing family falls back to the registry fallback.
func (r *Registry) Load(f styled.Font) ([]byte, error) {
	_, _, fc, err := r.resolve(f)
	if err != nil {
		return nil, err
	}
	return fc.data, nil
}

func (r *Registry) resolve(f styled.Font) (string, Style, *face, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	style := StyleOf(f)
	for _, family := range []string{f.Family, r.fallback} {
		key := strings.ToLower(strings.TrimSpace(family))
		styles, ok := r.families[key]
		if !ok {
			continue
		}
		if fc, ok := styles[style]; ok {
			return key, style, fc, nil
		}
		// 先退到同字重/同斜体的近似，再退到 Regular
		for _, alt := range []Style{style &^ Italic, style &^ Bold, Regular} {
			if fc, ok := styles[alt]; ok {
				return key, alt, fc, nil
			}
		}
	}
	return "", Regular, nil, fmt.Errorf("%w: %q", ErrUnknownFont, f.Family)
}

// Decoration returns the underline position (negative below the baseline) and thickness
// of f at its size, read from the font's post table.
func (r *Registry) Decoration(f styled.Font) (position, thickness float64, err error) {
	_, _, fc, err := r.resolve(f)
	if err != nil {
		return 0, 0, err
	}
	upem := float64(fc.font.UnitsPerEm())
	post := fc.font.PostTable()
	if post == nil || upem <= 0 || post.UnderlineThickness == 0 {
		return -0.1 * f.Size, max(0.05*f.Size, 0.5), nil
	}
	scale := f.Size / upem
	return float64(post.UnderlinePosition) * scale, float64(post.UnderlineThickness) * scale, nil
}
