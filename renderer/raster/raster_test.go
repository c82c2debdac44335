package raster

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

var red = styled.RGBA(255, 0, 0, 255)

func alphaAt(img *image.NRGBA, x, y int) uint8 { return img.NRGBAAt(x, y).A }

func TestBlendModes(t *testing.T) {
	s := px{r: 0.5, a: 0.5} // 半透明红（预乘）
	d := px{b: 1, a: 1}

	over := blend(styled.BlendNormal, s, d)
	assert.InDelta(t, 0.5, over.r, 1e-9)
	assert.InDelta(t, 0.5, over.b, 1e-9)
	assert.InDelta(t, 1, over.a, 1e-9)

	assert.Equal(t, px{}, blend(styled.BlendClear, s, d))
	assert.Equal(t, s, blend(styled.BlendCopy, s, d))
	assert.InDelta(t, 0.5, blend(styled.BlendSourceIn, s, d).a, 1e-9)
	assert.InDelta(t, 0, blend(styled.BlendSourceOut, s, d).a, 1e-9)
	assert.InDelta(t, 0.5, blend(styled.BlendDestinationIn, s, d).b, 1e-9)
	assert.InDelta(t, 0.5, blend(styled.BlendDestinationOut, s, d).a, 1e-9)

	// Multiply 白色源不改变目标
	white := px{1, 1, 1, 1}
	assert.InDelta(t, 1, blend(styled.BlendMultiply, white, d).b, 1e-9)
	assert.InDelta(t, 0, blend(styled.BlendMultiply, white, d).r, 1e-9)
	// Screen 黑色源不改变目标
	black := px{a: 1}
	assert.InDelta(t, 1, blend(styled.BlendScreen, black, d).b, 1e-9)
}

func TestStoreRoundTrip(t *testing.T) {
	data := make([]uint8, 4)
	store(data, 0, px{r: 0.25, g: 0, b: 0.25, a: 0.5})
	assert.Equal(t, []uint8{128, 0, 128, 128}, data)
	p := load(data, 0)
	assert.InDelta(t, 0.25, p.r, 0.01)
	assert.InDelta(t, 0.5, p.a, 0.01)
}

func TestCompositeRespectsClip(t *testing.T) {
	dst, src := gg.NewPixmap(2, 1), gg.NewPixmap(2, 1)
	src.SetPixel(0, 0, gg.RGBA{R: 1, A: 1})
	src.SetPixel(1, 0, gg.RGBA{R: 1, A: 1})
	clip := gg.NewMask(2, 1)
	clip.Data()[0] = 255

	composite(dst, src, dst.Bounds(), styled.BlendNormal, 1, clip)
	assert.Equal(t, uint8(255), dst.Data()[3])
	assert.Equal(t, uint8(0), dst.Data()[7], "clip 外的像素不应被写入")
}

func TestCompositeUnboundedClearsOutsideSource(t *testing.T) {
	dst, src := gg.NewPixmap(2, 1), gg.NewPixmap(2, 1)
	dst.SetPixel(0, 0, gg.RGBA{B: 1, A: 1})
	dst.SetPixel(1, 0, gg.RGBA{B: 1, A: 1})
	src.SetPixel(0, 0, gg.RGBA{R: 1, A: 1})

	composite(dst, src, dst.Bounds(), styled.BlendSourceIn, 1, nil)
	assert.Equal(t, []uint8{255, 0, 0, 255, 0, 0, 0, 0}, dst.Data())
}

func TestFillPathPixels(t *testing.T) {
	g := NewRenderer().NewGraphics(20, 20, 1)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(5, 5, 10, 10)), false)
	img := g.Image()

	c := img.NRGBAAt(10, 10)
	assert.InDelta(t, 255, int(c.R), 2)
	assert.InDelta(t, 255, int(c.A), 2)
	assert.Zero(t, alphaAt(img, 1, 1))
	assert.Zero(t, alphaAt(img, 18, 18))
}

func TestScaleMapsPointsToPixels(t *testing.T) {
	g := NewRenderer().NewGraphics(40, 40, 2)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(0, 0, 10, 10)), false)
	img := g.Image()
	assert.NotZero(t, alphaAt(img, 15, 15))
	assert.Zero(t, alphaAt(img, 25, 25))
}

func TestClipLimitsFill(t *testing.T) {
	g := NewRenderer().NewGraphics(20, 20, 1)
	g.ClipPath(geom.RectPath(geom.R(0, 0, 10, 20)), false)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(0, 0, 20, 20)), false)
	img := g.Image()
	assert.NotZero(t, alphaAt(img, 5, 10))
	assert.Zero(t, alphaAt(img, 15, 10))
}

func TestClipRestoredWithState(t *testing.T) {
	g := NewRenderer().NewGraphics(20, 20, 1)
	g.Save()
	g.ClipPath(geom.RectPath(geom.R(0, 0, 10, 20)), false)
	g.Restore()
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(0, 0, 20, 20)), false)
	assert.NotZero(t, alphaAt(g.Image(), 15, 10))
}

func TestShadowOffset(t *testing.T) {
	g := NewRenderer().NewGraphics(20, 10, 1)
	g.SetShadow(geom.Sz(8, 0), 0, styled.Black)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(2, 2, 4, 4)), false)
	img := g.Image()

	body := img.NRGBAAt(4, 4)
	assert.InDelta(t, 255, int(body.R), 2)
	shadow := img.NRGBAAt(12, 4)
	assert.InDelta(t, 255, int(shadow.A), 2)
	assert.InDelta(t, 0, int(shadow.R), 2)
	assert.Zero(t, alphaAt(img, 8, 4))
}

func TestShadowBlurSpreads(t *testing.T) {
	g := NewRenderer().NewGraphics(30, 10, 1)
	g.SetShadow(geom.Sz(12, 0), 4, styled.Black)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(2, 2, 6, 6)), false)
	img := g.Image()
	// 模糊后阴影超出原形状边缘
	assert.NotZero(t, alphaAt(img, 13, 5))
	assert.Less(t, alphaAt(img, 13, 5), uint8(255))
}

func TestLayerDestinationOut(t *testing.T) {
	g := NewRenderer().NewGraphics(20, 20, 1)
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(0, 0, 20, 20)), false)

	g.Save()
	g.SetBlendMode(styled.BlendDestinationOut)
	g.BeginLayer()
	g.SetFillColor(styled.Black)
	g.FillPath(geom.RectPath(geom.R(0, 0, 10, 20)), false)
	g.EndLayer()
	g.Restore()

	img := g.Image()
	assert.Zero(t, alphaAt(img, 5, 10))
	assert.InDelta(t, 255, int(alphaAt(img, 15, 10)), 2)
}

func TestLayerAlpha(t *testing.T) {
	g := NewRenderer().NewGraphics(10, 10, 1)
	g.SetAlpha(0.5)
	g.BeginLayer()
	g.SetFillColor(red)
	g.FillPath(geom.RectPath(geom.R(0, 0, 10, 10)), false)
	g.FillPath(geom.RectPath(geom.R(0, 0, 10, 10)), false)
	g.EndLayer()
	// 图层内两次不透明填充，整体透明度只应用一次
	assert.InDelta(t, 128, int(alphaAt(g.Image(), 5, 5)), 2)
}

func TestMetricsFromFontSources(t *testing.T) {
	m := NewRenderer().Metrics()
	f := styled.Font{Family: "Go", Size: 12}
	fm := m.FontMetrics(f)
	assert.Positive(t, fm.Ascent)
	assert.Positive(t, fm.Descent)
	assert.Negative(t, fm.UnderlinePosition)
	assert.Positive(t, fm.UnderlineThickness)
	assert.Greater(t, m.Advance(f, "W"), m.Advance(f, "i"))
	assert.InDelta(t, 2*m.Advance(f, "a"), m.Advance(f.WithSize(24), "a"), 1e-6)
	assert.Zero(t, m.Advance(f, "\n"))
}

func buildLayout(t *testing.T, r *Renderer, s string, size geom.Size) *layout.Layout {
	t.Helper()
	font := styled.Font{Family: "Go", Size: 24}
	txt := styled.New(s, styled.Attributes{Font: &font})
	l, err := layout.Build(layout.NewContainer(size), txt, layout.BuildOptions{Shaper: shaping.New(r.Metrics())})
	require.NoError(t, err)
	return l
}

func inkPixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && bb < 0x8000 {
				n++
			}
		}
	}
	return n
}

func TestRenderPNG(t *testing.T) {
	r := NewRendererWithOptions(Options{Scale: 2})
	l := buildLayout(t, r, "Hello", geom.Sz(120, 40))
	out, err := r.Render(renderer.Page{Layout: l, Background: styled.RGBA(255, 255, 255, 255)})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 240, 80), img.Bounds())
	assert.Positive(t, inkPixels(img), "文字应在白底上留下深色像素")
}

func TestRenderImageCancelled(t *testing.T) {
	r := NewRenderer()
	l := buildLayout(t, r, "Hello", geom.Sz(120, 40))
	img, err := r.RenderImage(renderer.Page{Layout: l, Background: styled.RGBA(255, 255, 255, 255)}, func() bool { return true })
	require.NoError(t, err)
	assert.Zero(t, inkPixels(img))
	assert.Equal(t, uint8(255), alphaAt(img, 0, 0))
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(renderer.Page{})
	assert.ErrorIs(t, err, renderer.ErrNoLayout)
}

func TestGlyphPathAdvances(t *testing.T) {
	r := NewRenderer()
	font := styled.Font{Family: "Go", Size: 20}
	one, two := geom.NewPath(), geom.NewPath()
	require.NoError(t, r.glyphPath(one, font, "l", geom.Pt(0, 20)))
	require.NoError(t, r.glyphPath(two, font, "ll", geom.Pt(0, 20)))
	require.False(t, one.IsEmpty())

	adv := r.Metrics().Advance(font, "l")
	b1, b2 := one.Bounds(), two.Bounds()
	assert.InDelta(t, b1.MaxX()+adv, b2.MaxX(), 0.01)
	// 字形在基线之上
	assert.LessOrEqual(t, b1.MaxY(), 20.5)
}

func TestShapedGlyphsDrawByID(t *testing.T) {
	r := NewRenderer()
	l := buildLayout(t, r, "Hello", geom.Sz(200, 40))
	require.NotEmpty(t, l.Lines())
	g := l.Lines()[0].Runs()[0].Glyphs
	require.NotEmpty(t, g)
	require.NotEmpty(t, g[0].Shaped, "glyphs should carry shaped IDs")

	font := styled.Font{Family: "Go", Size: 24}
	byText, byID := geom.NewPath(), geom.NewPath()
	require.NoError(t, r.glyphPath(byText, font, g[0].Text, geom.Pt(0, 24)))
	require.NoError(t, r.shapedPath(byID, font, g[0].Shaped, geom.Pt(0, 24)))
	require.False(t, byID.IsEmpty())
	a, b := byText.Bounds(), byID.Bounds()
	assert.InDelta(t, a.MinX(), b.MinX(), 0.01)
	assert.InDelta(t, a.MaxY(), b.MaxY(), 0.01)

	img, err := r.RenderImage(renderer.Page{Layout: l, Background: styled.RGBA(255, 255, 255, 255)}, nil)
	require.NoError(t, err)
	assert.Positive(t, inkPixels(img))
}
