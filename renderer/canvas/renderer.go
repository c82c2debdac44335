package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/markup"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

// Renderer draws layouts via github.com/tdewolff/canvas and writes PDF.
type Renderer struct {
	opts Options

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily // by fonts.Registry key
	faces    map[faceKey]*canvas.FontFace

	shaper *shaping.Harfbuzz
}

var _ renderer.Renderer = (*Renderer)(nil)

type faceKey struct {
	font  string
	size  float64
	color color.NRGBA
}

// Options configures the canvas renderer.
type Options struct {
	// Fonts 为 nil 时使用 fonts.Default()
	Fonts *fonts.Registry
	Meta  markup.Meta
	// Creator 写入 PDF 信息字典
	Creator string
}

// NewRenderer creates a renderer over the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected fonts and document metadata.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Fonts == nil {
		opts.Fonts = fonts.Default()
	}
	if opts.Creator == "" {
		opts.Creator = "scribe"
	}
	r := &Renderer{
		opts:     opts,
		families: map[string]*canvas.FontFamily{},
		faces:    map[faceKey]*canvas.FontFace{},
	}
	r.shaper = shaping.NewHarfbuzz(faceMetrics{r: r}, opts.Fonts)
	return r
}

// Render renders one page into a PDF byte slice.
func (r *Renderer) Render(page renderer.Page) ([]byte, error) {
	return r.RenderPages([]renderer.Page{page})
}

// RenderPages renders each page onto its own PDF page.
func (r *Renderer) RenderPages(pages []renderer.Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	var buf bytes.Buffer
	var writer *pdf.PDF
	for i, page := range pages {
		if page.Layout == nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, renderer.ErrNoLayout)
		}
		size := page.CanvasSize()
		if size.IsEmpty() {
			return nil, fmt.Errorf("第 %d 页: 画布尺寸无效 %gx%g", i+1, size.W, size.H)
		}
		w, h := toMm(size.W), toMm(size.H)
		if i == 0 {
			writer = pdf.New(&buf, w, h, nil)
			r.applyMeta(writer)
		} else {
			writer.NewPage(w, h)
		}
		c := canvas.New(w, h)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
		r.drawPage(ctx, page)
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page renderer.Page) {
	g := r.NewGraphics(ctx)
	opts := page.DrawOptions()
	if page.Background.A > 0 {
		g.Save()
		g.SetFillColor(page.Background)
		g.FillPath(geom.RectPath(geom.R(0, 0, opts.Size.W, opts.Size.H)), false)
		g.Restore()
	}
	page.Draw(g, opts)
}

func (r *Renderer) applyMeta(writer *pdf.PDF) {
	meta := r.opts.Meta
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, r.opts.Creator)
}

// face 返回字号与 styled.Font 一致（以 pt 计）的字体面。
// canvas 以 mm 为单位，字体面按 font.Size mm 创建后再由视图缩放回 pt。
func (r *Renderer) face(font styled.Font, col color.NRGBA) (*canvas.FontFace, error) {
	key, err := r.opts.Fonts.Key(font)
	if err != nil {
		return nil, err
	}
	fk := faceKey{font: key, size: font.Size, color: col}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if f, ok := r.faces[fk]; ok {
		return f, nil
	}
	family, ok := r.families[key]
	if !ok {
		data, err := r.opts.Fonts.Load(font)
		if err != nil {
			return nil, err
		}
		family = canvas.NewFontFamily(key)
		if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", key, err)
		}
		r.families[key] = family
	}
	f := family.Face(toPt(font.Size), col, canvas.FontRegular, canvas.FontNormal)
	r.faces[fk] = f
	return f, nil
}

// Metrics returns font metrics measured with the same faces Render draws with. Runs are
// shaped with HarfBuzz over the same font files; a merged glyph is drawn from its text,
// which canvas shapes again.
func (r *Renderer) Metrics() shaping.FaceMetrics { return r.shaper }

type faceMetrics struct{ r *Renderer }

func (m faceMetrics) FontMetrics(f styled.Font) shaping.FontMetrics {
	face, err := m.r.face(f, styled.Black)
	if err != nil {
		layout.Logger().Warn("canvasrenderer: metrics fallback", "family", f.Family, "err", err)
		return shaping.Monospace{}.FontMetrics(f)
	}
	fm := face.Metrics()
	out := shaping.FontMetrics{
		Ascent:  math.Abs(fm.Ascent),
		Descent: math.Abs(fm.Descent),
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
	face, err := m.r.face(f, styled.Black)
	if err != nil {
		return shaping.Monospace{}.Advance(f, cluster)
	}
	return face.TextWidth(cluster)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * markup.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * markup.PtToMm }
