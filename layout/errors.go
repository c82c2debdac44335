package layout

import "errors"

var (
	// ErrInvalidRange 表示传入的范围超出文本长度。
	ErrInvalidRange = errors.New("layout: range out of text bounds")
	// ErrEmptyRegion 表示容器尺寸或路径无法容纳任何文本。
	ErrEmptyRegion = errors.New("layout: empty layout region")
	// ErrShapingUnavailable 表示排版服务未能生成 frame。
	ErrShapingUnavailable = errors.New("layout: shaping service unavailable")
)
