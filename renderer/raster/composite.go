package raster

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/ByLCY/scribe/styled"
)

// 像素缓冲区按 gg 软件光栅器的约定存储非预乘 RGBA。合成时转换为预乘分量计算。

type px struct{ r, g, b, a float64 }

func load(data []uint8, i int) px {
	a := float64(data[i+3]) / 255
	return px{
		r: float64(data[i]) / 255 * a,
		g: float64(data[i+1]) / 255 * a,
		b: float64(data[i+2]) / 255 * a,
		a: a,
	}
}

func store(data []uint8, i int, p px) {
	a := min(max(p.a, 0), 1)
	if a <= 0 {
		data[i], data[i+1], data[i+2], data[i+3] = 0, 0, 0, 0
		return
	}
	data[i] = unit8(p.r / a)
	data[i+1] = unit8(p.g / a)
	data[i+2] = unit8(p.b / a)
	data[i+3] = unit8(a)
}

func unit8(v float64) uint8 { return uint8(min(max(v, 0), 1)*255 + 0.5) }

func (p px) scale(k float64) px { return px{p.r * k, p.g * k, p.b * k, p.a * k} }

func lerp(d, o px, t float64) px {
	return px{d.r + (o.r-d.r)*t, d.g + (o.g-d.g)*t, d.b + (o.b-d.b)*t, d.a + (o.a-d.a)*t}
}

// blend 计算单个预乘像素在 mode 下的合成结果。
func blend(mode styled.BlendMode, s, d px) px {
	switch mode {
	case styled.BlendClear:
		return px{}
	case styled.BlendCopy:
		return s
	case styled.BlendSourceIn:
		return s.scale(d.a)
	case styled.BlendSourceOut:
		return s.scale(1 - d.a)
	case styled.BlendDestinationIn:
		return d.scale(s.a)
	case styled.BlendDestinationOut:
		return d.scale(1 - s.a)
	case styled.BlendMultiply, styled.BlendScreen, styled.BlendOverlay:
		f := func(sc, dc float64) float64 {
			var b float64
			switch mode {
			case styled.BlendMultiply:
				b = sc * dc
			case styled.BlendScreen:
				b = sc*d.a + dc*s.a - sc*dc
			default:
				if 2*dc <= d.a {
					b = 2 * sc * dc
				} else {
					b = s.a*d.a - 2*(d.a-dc)*(s.a-sc)
				}
			}
			return b + sc*(1-d.a) + dc*(1-s.a)
		}
		return px{f(s.r, d.r), f(s.g, d.g), f(s.b, d.b), s.a + d.a - s.a*d.a}
	default:
		k := 1 - s.a
		return px{s.r + d.r*k, s.g + d.g*k, s.b + d.b*k, s.a + d.a*k}
	}
}

// unbounded 的模式会改写源像素透明之处，需要在整个裁剪区域内合成。
func unbounded(mode styled.BlendMode) bool {
	switch mode {
	case styled.BlendClear, styled.BlendCopy, styled.BlendSourceIn, styled.BlendSourceOut, styled.BlendDestinationIn:
		return true
	}
	return false
}

// composite 把 src 按 mode/alpha 合成到 dst 的 rect 区域；clip 为 nil 表示不裁剪。
func composite(dst, src *gg.Pixmap, rect image.Rectangle, mode styled.BlendMode, alpha float64, clip *gg.Mask) {
	rect = rect.Intersect(image.Rect(0, 0, dst.Width(), dst.Height()))
	if rect.Empty() || alpha <= 0 {
		return
	}
	dd, sd := dst.Data(), src.Data()
	var cd []uint8
	if clip != nil {
		cd = clip.Data()
	}
	w := dst.Width()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			j := y*w + x
			cover := 1.0
			if cd != nil {
				if cd[j] == 0 {
					continue
				}
				cover = float64(cd[j]) / 255
			}
			i := j * 4
			s := load(sd, i).scale(alpha)
			if s.a == 0 && !unbounded(mode) {
				continue
			}
			d := load(dd, i)
			store(dd, i, lerp(d, blend(mode, s, d), cover))
		}
	}
}

// castShadow 把 src 的 alpha 偏移、模糊并着色后写入 out（out 会先被清空）。
func castShadow(out, src *gg.Pixmap, rect image.Rectangle, dx, dy int, radius float64, c styled.Color) {
	w, h := src.Width(), src.Height()
	alpha := make([]float64, w*h)
	sd := src.Data()
	sr := rect.Sub(image.Pt(dx, dy)).Intersect(image.Rect(0, 0, w, h))
	for y := sr.Min.Y; y < sr.Max.Y; y++ {
		for x := sr.Min.X; x < sr.Max.X; x++ {
			tx, ty := x+dx, y+dy
			if tx < 0 || ty < 0 || tx >= w || ty >= h {
				continue
			}
			alpha[ty*w+tx] = float64(sd[(y*w+x)*4+3]) / 255
		}
	}
	if r := int(radius/2 + 0.5); r > 0 {
		// 三次盒式模糊近似高斯
		for range 3 {
			boxBlur(alpha, w, h, r, rect)
		}
	}
	od := out.Data()
	clear(od)
	ca := float64(c.A) / 255
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			a := alpha[y*w+x] * ca
			if a <= 0 {
				continue
			}
			i := (y*w + x) * 4
			od[i], od[i+1], od[i+2], od[i+3] = c.R, c.G, c.B, unit8(a)
		}
	}
}

func boxBlur(a []float64, w, h, r int, rect image.Rectangle) {
	tmp := make([]float64, max(w, h))
	n := float64(2*r + 1)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := a[y*w : y*w+w]
		sum := 0.0
		for x := -r; x <= r; x++ {
			sum += at(row, x)
		}
		for x := 0; x < w; x++ {
			tmp[x] = sum / n
			sum += at(row, x+r+1) - at(row, x-r)
		}
		copy(row, tmp[:w])
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		col := func(y int) float64 {
			if y < 0 || y >= h {
				return 0
			}
			return a[y*w+x]
		}
		sum := 0.0
		for y := -r; y <= r; y++ {
			sum += col(y)
		}
		for y := 0; y < h; y++ {
			tmp[y] = sum / n
			sum += col(y+r+1) - col(y-r)
		}
		for y := 0; y < h; y++ {
			a[y*w+x] = tmp[y]
		}
	}
}

func at(row []float64, x int) float64 {
	if x < 0 || x >= len(row) {
		return 0
	}
	return row[x]
}

// clearRect 把 rect 内的像素置为全透明。
func clearRect(pm *gg.Pixmap, rect image.Rectangle) {
	rect = rect.Intersect(image.Rect(0, 0, pm.Width(), pm.Height()))
	d, w := pm.Data(), pm.Width()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		clear(d[(y*w+rect.Min.X)*4 : (y*w+rect.Max.X)*4])
	}
}

// toNRGBA copies the pixmap into an image without reinterpreting its straight alpha.
func toNRGBA(pm *gg.Pixmap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, pm.Width(), pm.Height()))
	copy(img.Pix, pm.Data())
	return img
}
