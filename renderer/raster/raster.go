// Package raster renders layouts to bitmaps with github.com/gogpu/gg.
//
// gg rasterises paths and extracts glyph outlines; clipping, Porter-Duff layers
// and blurred shadows are composited by this package on top of gg's pixmaps.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/gogpu/gg/text"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

// Options configures the raster renderer.
type Options struct {
	// Fonts 为 nil 时使用 fonts.Default()
	Fonts *fonts.Registry
	// Scale 是每 pt 对应的像素数，<= 0 时为 1
	Scale float64
}

// Renderer draws layouts into images and encodes PNG.
type Renderer struct {
	opts Options

	mu        sync.Mutex
	sources   map[string]*text.FontSource // by fonts.Registry key
	outlines  map[outlineKey]*outline
	extractor *text.OutlineExtractor

	shaper *shaping.Harfbuzz
}

var _ renderer.Renderer = (*Renderer)(nil)

type outlineKey struct {
	font string
	size float64
	gid  uint32
}

// outline 是字形在 size 下的轮廓，坐标 y 向下、原点在基线上。
type outline struct {
	path    *geom.Path
	advance float64
}

// NewRenderer creates a renderer over the built-in fonts at one pixel per point.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected fonts and pixel scale.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Fonts == nil {
		opts.Fonts = fonts.Default()
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	r := &Renderer{
		opts:      opts,
		sources:   map[string]*text.FontSource{},
		outlines:  map[outlineKey]*outline{},
		extractor: text.NewOutlineExtractor(),
	}
	r.shaper = shaping.NewHarfbuzz(faceMetrics{r: r}, opts.Fonts)
	return r
}

// Scale returns the number of pixels per point.
func (r *Renderer) Scale() float64 { return r.opts.Scale }

// Render renders the page and encodes it as PNG.
func (r *Renderer) Render(page renderer.Page) ([]byte, error) {
	img, err := r.RenderImage(page, nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderImage draws the page into a new image. cancel is polled between lines and
// runs; a cancelled render returns the partially drawn image.
func (r *Renderer) RenderImage(page renderer.Page, cancel func() bool) (*image.NRGBA, error) {
	if page.Layout == nil {
		return nil, renderer.ErrNoLayout
	}
	size := page.CanvasSize()
	if size.IsEmpty() {
		return nil, fmt.Errorf("画布尺寸无效 %gx%g", size.W, size.H)
	}
	s := r.opts.Scale
	w, h := int(math.Ceil(size.W*s)), int(math.Ceil(size.H*s))
	g := r.NewGraphics(w, h, s)
	if page.Background.A > 0 {
		g.Clear(page.Background)
	}
	opts := page.DrawOptions()
	opts.Cancel = cancel
	page.Draw(g, opts)
	return g.Image(), nil
}

// sourceLocked 返回 font 对应的注册表键，并确保其字体源已加载。调用方须持有 r.mu。
func (r *Renderer) sourceLocked(font styled.Font) (string, error) {
	key, err := r.opts.Fonts.Key(font)
	if err != nil {
		return "", err
	}
	if _, ok := r.sources[key]; ok {
		return key, nil
	}
	data, err := r.opts.Fonts.Load(font)
	if err != nil {
		return "", err
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return "", fmt.Errorf("加载字体 %s 失败: %w", key, err)
	}
	r.sources[key] = src
	return key, nil
}

func (r *Renderer) face(font styled.Font) (text.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, err := r.sourceLocked(font)
	if err != nil {
		return nil, err
	}
	return r.sources[key].Face(font.Size), nil
}

// glyphPath 把 cluster 中每个字符的轮廓追加到 p，at 为笔位（基线上，y 向下）。
func (r *Renderer) glyphPath(p *geom.Path, font styled.Font, cluster string, at geom.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, err := r.sourceLocked(font)
	if err != nil {
		return err
	}
	parsed := r.sources[key].Parsed()
	x := at.X
	for _, ch := range cluster {
		if ch == '\n' || ch == '\r' {
			continue
		}
		o, err := r.outlineLocked(key, font.Size, uint32(parsed.GlyphIndex(ch)))
		if err != nil {
			return err
		}
		if !o.path.IsEmpty() {
			p.AddPath(o.path.Transform(geom.Translate(x, at.Y)))
		}
		x += o.advance
	}
	return nil
}

// shapedPath 按整形结果的字形号追加轮廓。偏移的 Y 向上，at 的 Y 向下。
func (r *Renderer) shapedPath(p *geom.Path, font styled.Font, glyphs []layout.ShapedGlyph, at geom.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, err := r.sourceLocked(font)
	if err != nil {
		return err
	}
	for _, sg := range glyphs {
		o, err := r.outlineLocked(key, font.Size, sg.ID)
		if err != nil {
			return err
		}
		if !o.path.IsEmpty() {
			p.AddPath(o.path.Transform(geom.Translate(at.X+sg.Offset.X, at.Y-sg.Offset.Y)))
		}
	}
	return nil
}

// outlineLocked 返回缓存的字形轮廓。OutlineExtractor 复用内部缓冲，调用方须持有 r.mu。
func (r *Renderer) outlineLocked(key string, size float64, gid uint32) (*outline, error) {
	k := outlineKey{font: key, size: size, gid: gid}
	if o, ok := r.outlines[k]; ok {
		return o, nil
	}
	gl, err := r.extractor.ExtractOutline(r.sources[key].Parsed(), text.GlyphID(gid), size)
	if err != nil {
		return nil, err
	}
	o := &outline{path: outlinePath(gl), advance: float64(gl.Advance)}
	r.outlines[k] = o
	return o, nil
}

func outlinePath(gl *text.GlyphOutline) *geom.Path {
	p := geom.NewPath()
	f := func(v float32) float64 { return float64(v) }
	open := false
	for _, seg := range gl.Segments {
		switch seg.Op {
		case text.OutlineOpMoveTo:
			if open {
				p.Close()
			}
			p.MoveTo(f(seg.Points[0].X), f(seg.Points[0].Y))
			open = true
		case text.OutlineOpLineTo:
			p.LineTo(f(seg.Points[0].X), f(seg.Points[0].Y))
		case text.OutlineOpQuadTo:
			p.QuadTo(f(seg.Points[0].X), f(seg.Points[0].Y), f(seg.Points[1].X), f(seg.Points[1].Y))
		case text.OutlineOpCubicTo:
			pts := seg.Points
			p.CubeTo(f(pts[0].X), f(pts[0].Y), f(pts[1].X), f(pts[1].Y), f(pts[2].X), f(pts[2].Y))
		}
	}
	if open {
		p.Close()
	}
	return p
}

// Metrics returns font metrics measured with the same font sources Render draws with.
// Runs are shaped with HarfBuzz and drawn by glyph id.
func (r *Renderer) Metrics() shaping.FaceMetrics { return r.shaper }

type faceMetrics struct{ r *Renderer }

func (m faceMetrics) FontMetrics(f styled.Font) shaping.FontMetrics {
	face, err := m.r.face(f)
	if err != nil {
		layout.Logger().Warn("raster: metrics fallback", "family", f.Family, "err", err)
		return shaping.Monospace{}.FontMetrics(f)
	}
	fm := face.Metrics()
	out := shaping.FontMetrics{
		Ascent:  fm.Ascent,
		Descent: fm.Descent,
		Leading: fm.LineGap,
		XHeight: fm.XHeight,
	}
	out.UnderlinePosition, out.UnderlineThickness, err = m.r.opts.Fonts.Decoration(f)
	if err != nil {
		fallback := shaping.Monospace{}.FontMetrics(f)
		out.UnderlinePosition, out.UnderlineThickness = fallback.UnderlinePosition, fallback.UnderlineThickness
	}
	return out
}

func (m faceMetrics) Advance(f styled.Font, cluster string) float64 {
	if cluster == "" || cluster == "\n" || cluster == "\r\n" {
		return 0
	}
	face, err := m.r.face(f)
	if err != nil {
		return shaping.Monospace{}.Advance(f, cluster)
	}
	return face.Advance(cluster)
}
