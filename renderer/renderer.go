package renderer

import (
	"errors"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/shaping"
	"github.com/ByLCY/scribe/styled"
)

// ErrNoLayout 表示 Page 没有可绘制的布局。
var ErrNoLayout = errors.New("renderer: page has no layout")

// Page 描述一次输出：布局、画布尺寸（pt）以及布局原点在画布中的位置。
type Page struct {
	Layout *layout.Layout
	// Size 为零时使用容器尺寸
	Size   geom.Size
	Origin geom.Point
	Debug  *layout.DebugOption
	// Background 的透明度为零时不填充背景
	Background styled.Color
	// AttachmentDrawer 绘制附件内容，为 nil 时跳过附件
	AttachmentDrawer layout.AttachmentDrawer
	// Overlay 在布局之上绘制，坐标与布局相同（例如选区与光标）
	Overlay func(g layout.Graphics)
}

// SetDebugOption implements layout.DebugTarget.
func (p *Page) SetDebugOption(o *layout.DebugOption) { p.Debug = o }

// CanvasSize returns Size, or the container size when Size is empty.
func (p Page) CanvasSize() geom.Size {
	if !p.Size.IsEmpty() || p.Layout == nil {
		return p.Size
	}
	return p.Layout.Container().Size()
}

// DrawOptions returns the layout draw options for this page.
func (p Page) DrawOptions() layout.DrawOptions {
	return layout.DrawOptions{
		Size:             p.CanvasSize(),
		Origin:           p.Origin,
		Debug:            p.Debug,
		AttachmentDrawer: p.AttachmentDrawer,
	}
}

// Draw paints the layout and then the overlay onto g.
func (p Page) Draw(g layout.Graphics, opts layout.DrawOptions) {
	p.Layout.Draw(g, opts)
	if p.Overlay == nil || (opts.Cancel != nil && opts.Cancel()) {
		return
	}
	g.Save()
	g.Translate(opts.Origin.X, opts.Origin.Y)
	p.Overlay(g)
	g.Restore()
}

// Renderer 将布局输出为最终文件，例如 PDF 或 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(page Page) ([]byte, error)
	// Metrics 返回与绘制一致的字体度量，供 shaping 排版使用
	Metrics() shaping.FaceMetrics
}
