package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/styled"
)

// BuildOptions 配置布局阶段所需的依赖。
type BuildOptions struct {
	Shaper Shaper
	// Range 为空时布局整段文本
	Range *styled.Range
}

// RowEdge is the extent of a visual row along the secondary axis.
// For vertical form Head is the right edge and Foot the left edge.
type RowEdge struct {
	Head float64 `json:"head"`
	Foot float64 `json:"foot"`
}

// Layout is the immutable result of laying out text in a container.
// It is safe for concurrent reads.
type Layout struct {
	container *Container
	text      *styled.Text
	rng       styled.Range
	shaper    Shaper

	lines         []*Line
	truncatedLine *Line

	attachments      []*styled.Attachment
	attachmentRanges []styled.Range
	attachmentRects  []geom.Rect
	// attachmentContents 以内容 ID 去重
	attachmentContents map[string]styled.ContentHandle

	rowCount         int
	visibleRange     styled.Range
	textBoundingRect geom.Rect
	textBoundingSize geom.Size

	containsHighlight        bool
	needDrawBlockBorder      bool
	needDrawBackgroundBorder bool
	needDrawShadow           bool
	needDrawUnderline        bool
	needDrawText             bool
	needDrawAttachment       bool
	needDrawInnerShadow      bool
	needDrawStrikethrough    bool
	needDrawBorder           bool

	lineRowsIndex []int
	lineRowsEdge  []RowEdge
}

// Build lays out the whole text, or opts.Range of it, inside c.
// c is cloned and frozen; the caller keeps its own instance.
func Build(c *Container, t *styled.Text, opts BuildOptions) (*Layout, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil container", ErrEmptyRegion)
	}
	if t == nil {
		t = styled.Plain("")
	}
	rng := t.FullRange()
	if opts.Range != nil {
		rng = *opts.Range
	}
	if !rng.Valid(t.Len()) {
		return nil, fmt.Errorf("%w: %s in %d", ErrInvalidRange, rng, t.Len())
	}
	if opts.Shaper == nil {
		return nil, fmt.Errorf("%w: no shaper configured", ErrShapingUnavailable)
	}

	container := c.Clone()
	container.freeze()
	l := &Layout{container: container, text: t, rng: rng, shaper: opts.Shaper}
	vertical := container.verticalForm
	maxRows := container.maxRows

	// 计算 flow path 与其包围盒（布局坐标系）
	var (
		path                 *geom.Path
		pathBox              geom.Rect
		rowMaySeparated      bool
		constraintExtended   bool
		constraintBeforeExt  geom.Rect
		truncationWidthLimit = -1.0
	)
	flip := geom.Scale(1, -1)
	switch {
	case container.path == nil && len(container.exclusionPaths) == 0:
		if container.size.W <= 0 || container.size.H <= 0 {
			return nil, fmt.Errorf("%w: container size %gx%g", ErrEmptyRegion, container.size.W, container.size.H)
		}
		rect := geom.R(0, 0, container.size.W, container.size.H).Inset(container.insets)
		if rect.W <= 0 || rect.H <= 0 {
			return nil, fmt.Errorf("%w: insets %v leave %gx%g", ErrEmptyRegion, container.insets, rect.W, rect.H)
		}
		constraintExtended = true
		constraintBeforeExt = rect
		if vertical {
			// 竖排从右向左推进，向左扩展以保留起始的右边缘
			rect = geom.R(rect.MaxX()-MaxExtent, rect.Y, MaxExtent, rect.H)
			truncationWidthLimit = rect.H
		} else {
			rect.H = MaxExtent
			truncationWidthLimit = rect.W
		}
		pathBox = rect
		path = geom.RectPath(rect).Transform(flip)
	case container.path != nil && len(container.exclusionPaths) == 0 && isRectPath(container.path, &pathBox):
		// 截断宽度取末行宽度，只有扩展过的容器矩形才用约束宽度
		path = geom.RectPath(pathBox).Transform(flip)
	default:
		rowMaySeparated = true
		var union *geom.Path
		if container.path != nil {
			union = container.path.Clone()
		} else {
			rect := geom.R(0, 0, container.size.W, container.size.H).Inset(container.insets)
			if rect.W <= 0 || rect.H <= 0 {
				return nil, fmt.Errorf("%w: insets %v leave %gx%g", ErrEmptyRegion, container.insets, rect.W, rect.H)
			}
			union = geom.RectPath(rect)
		}
		for _, ex := range container.exclusionPaths {
			union.AddPath(ex)
		}
		// 排除路径完全覆盖时没有可排版的区域
		if !union.HasArea(container.pathFillEvenOdd) {
			return nil, fmt.Errorf("%w: flow region fully excluded", ErrEmptyRegion)
		}
		pathBox = union.Bounds()
		path = union.Transform(flip)
	}
	if pathBox.W <= 0 || pathBox.H <= 0 {
		return nil, fmt.Errorf("%w: flow region %v", ErrEmptyRegion, pathBox)
	}

	frame, err := opts.Shaper.Frame(FrameRequest{
		Text:          t,
		Range:         rng,
		Path:          path,
		Vertical:      vertical,
		FillEvenOdd:   container.pathFillEvenOdd,
		PathLineWidth: container.pathLineWidth,
	})
	if err != nil {
		Logger().Warn("layout: shaping failed", "range", rng.String(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrShapingUnavailable, err)
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: no frame", ErrShapingUnavailable)
	}

	// 行定位与分行组
	var (
		lines        []*Line
		boundingRect geom.Rect
		rowIdx       = -1
		rowCount     int
		lastRect     = geom.R(0, -math.MaxFloat64, 0, 0)
		lastPosition = geom.Pt(0, -math.MaxFloat64)
	)
	if vertical {
		lastRect = geom.R(math.MaxFloat64, 0, 0, 0)
		lastPosition = geom.Pt(math.MaxFloat64, 0)
	}
	for i, shaped := range frame.Lines {
		if len(shaped.Runs) == 0 {
			continue
		}
		origin := frame.Origins[i]
		position := geom.Pt(pathBox.X+origin.X, pathBox.H+pathBox.Y-origin.Y)
		line := NewLine(shaped, position, vertical)
		rect := line.Bounds()

		if constraintExtended {
			if vertical {
				if rect.X < constraintBeforeExt.X {
					break
				}
			} else if rect.Y+rect.H > constraintBeforeExt.Y+constraintBeforeExt.H {
				break
			}
		}

		newRow := true
		if rowMaySeparated && position.X != lastPosition.X {
			newRow = !sameRow(rect, lastRect, position, lastPosition, vertical)
		}
		if newRow {
			rowIdx++
		}
		lastRect = rect
		lastPosition = position

		line.Index = len(lines)
		line.Row = rowIdx
		lines = append(lines, line)
		rowCount = rowIdx + 1

		if len(lines) == 1 {
			boundingRect = rect
		} else if maxRows == 0 || rowIdx < maxRows {
			boundingRect = boundingRect.Union(rect)
		}
	}

	needTruncation := false
	if rowCount > 0 {
		if maxRows > 0 && rowCount > maxRows {
			needTruncation = true
			rowCount = maxRows
			for len(lines) > 0 && lines[len(lines)-1].Row >= rowCount {
				lines = lines[:len(lines)-1]
			}
		}
		last := lines[len(lines)-1]
		if !needTruncation && last.Range().End() < rng.End() {
			needTruncation = true
		}

		if container.modifier != nil {
			container.modifier.ModifyLines(lines, t, container)
			for i, line := range lines {
				if i == 0 {
					boundingRect = line.Bounds()
				} else {
					boundingRect = boundingRect.Union(line.Bounds())
				}
			}
		}
		l.lineRowsIndex, l.lineRowsEdge = rowTables(lines, rowCount, vertical)
	}

	l.lines = lines
	l.rowCount = rowCount
	l.textBoundingRect = boundingRect
	if len(lines) > 0 {
		l.textBoundingSize = boundingSize(boundingRect, container)
	}

	l.visibleRange = frame.Visible
	if len(lines) == 0 {
		// 超出约束区域被丢弃的行不算可见
		l.visibleRange = styled.NewRange(rng.Location, 0)
	}
	var truncationToken *styled.Text
	if needTruncation && len(lines) > 0 {
		last := lines[len(lines)-1]
		l.visibleRange.Length = last.Range().End() - l.visibleRange.Location
		if container.truncationType != TruncateNone {
			truncationToken = container.truncationToken
			if truncationToken == nil {
				truncationToken = defaultTruncationToken(last)
			}
			width := last.LineWidth()
			if truncationWidthLimit >= 0 {
				width = truncationWidthLimit
			}
			shaped, err := opts.Shaper.TruncatedLine(t, last.Range(), truncationToken, width, container.truncationType, vertical)
			if err != nil {
				Logger().Warn("layout: truncation shaping failed", "line", last.Index, "err", err)
				return nil, fmt.Errorf("%w: truncated line: %w", ErrShapingUnavailable, err)
			}
			tl := NewLine(shaped, last.Position, vertical)
			tl.Index = last.Index
			tl.Row = last.Row
			l.truncatedLine = tl
		}
	}

	if l.visibleRange.Length > 0 {
		l.needDrawText = true
		scan := func(a styled.Attributes, _ styled.Range) bool {
			if a.Highlight != nil {
				l.containsHighlight = true
			}
			if a.BlockBorder != nil {
				l.needDrawBlockBorder = true
			}
			if a.BackgroundBorder != nil {
				l.needDrawBackgroundBorder = true
			}
			if a.Shadow != nil {
				l.needDrawShadow = true
			}
			if a.Underline != nil {
				l.needDrawUnderline = true
			}
			if a.Attachment != nil {
				l.needDrawAttachment = true
			}
			if a.InnerShadow != nil {
				l.needDrawInnerShadow = true
			}
			if a.Strikethrough != nil {
				l.needDrawStrikethrough = true
			}
			if a.Border != nil {
				l.needDrawBorder = true
			}
			return true
		}
		t.Enumerate(l.visibleRange, scan)
		if l.truncatedLine != nil && truncationToken != nil {
			truncationToken.Enumerate(truncationToken.FullRange(), scan)
		}
	}

	for _, line := range lines {
		if l.truncatedLine != nil && line.Index == l.truncatedLine.Index {
			line = l.truncatedLine
		}
		if len(line.Attachments()) == 0 {
			continue
		}
		l.attachments = append(l.attachments, line.Attachments()...)
		l.attachmentRanges = append(l.attachmentRanges, line.AttachmentRanges()...)
		l.attachmentRects = append(l.attachmentRects, line.AttachmentRects()...)
		for _, a := range line.Attachments() {
			if l.attachmentContents == nil {
				l.attachmentContents = make(map[string]styled.ContentHandle)
			}
			l.attachmentContents[a.Content.ID] = a.Content
		}
	}

	Logger().Debug("layout: built",
		"lines", len(lines),
		"rows", rowCount,
		"visible", l.visibleRange.String(),
		"truncated", l.truncatedLine != nil,
		"vertical", vertical)
	return l, nil
}

func isRectPath(p *geom.Path, out *geom.Rect) bool {
	r, ok := p.IsRect()
	if ok {
		*out = r
	}
	return ok
}

// sameRow 判断新行是否与上一行处于同一视觉行（被路径空隙分隔的情况）。
func sameRow(rect, lastRect geom.Rect, pos, lastPos geom.Point, vertical bool) bool {
	if vertical {
		if rect.W > lastRect.W {
			return rect.X > lastPos.X && lastPos.X > rect.X-rect.W
		}
		return lastRect.X > pos.X && pos.X > lastRect.X-lastRect.W
	}
	if rect.H > lastRect.H {
		return rect.Y < lastPos.Y && lastPos.Y < rect.Y+rect.H
	}
	return lastRect.Y < pos.Y && pos.Y < lastRect.Y+lastRect.H
}

func boundingSize(rect geom.Rect, c *Container) geom.Size {
	if c.path != nil {
		if c.pathLineWidth > 0 {
			inset := c.pathLineWidth / 2
			rect = rect.InsetBy(-inset, -inset)
		}
	} else {
		rect = rect.Inset(geom.InvertInsets(c.insets))
	}
	rect = rect.Standardize()
	size := rect.Size()
	if c.verticalForm {
		size.W += c.size.W - rect.MaxX()
	} else {
		size.W += rect.X
	}
	size.H += rect.Y
	size.W = max(size.W, 0)
	size.H = max(size.H, 0)
	return size.Ceil()
}

// defaultTruncationToken derives "…" from the attributes of the last run of line.
func defaultTruncationToken(line *Line) *styled.Text {
	runs := line.Runs()
	if len(runs) == 0 {
		return styled.Plain(styled.TruncationToken)
	}
	attrs := runs[len(runs)-1].Attrs.StripDiscontinuous().Clone()
	font := attrs.FontOrDefault()
	font.Size *= 0.9
	attrs.Font = &font
	return styled.New(styled.TruncationToken, attrs)
}

func (l *Layout) Container() *Container { return l.container }
func (l *Layout) Text() *styled.Text { return l.text }
func (l *Layout) Range() styled.Range { return l.rng }
func (l *Layout) Lines() []*Line { return l.lines }
func (l *Layout) TruncatedLine() *Line { return l.truncatedLine }
func (l *Layout) RowCount() int { return l.rowCount }
func (l *Layout) VisibleRange() styled.Range { return l.visibleRange }
func (l *Layout) TextBoundingRect() geom.Rect { return l.textBoundingRect }
func (l *Layout) TextBoundingSize() geom.Size { return l.textBoundingSize }
func (l *Layout) Attachments() []*styled.Attachment { return l.attachments }
func (l *Layout) AttachmentRanges() []styled.Range { return l.attachmentRanges }
func (l *Layout) AttachmentRects() []geom.Rect { return l.attachmentRects }
func (l *Layout) ContainsHighlight() bool { return l.containsHighlight }
func (l *Layout) RowEdges() []RowEdge { return l.lineRowsEdge }

// AttachmentContents returns the distinct attachment contents keyed by content ID.
func (l *Layout) AttachmentContents() map[string]styled.ContentHandle {
	return l.attachmentContents
}

// Flags reports the precomputed draw passes.
type Flags struct {
	BlockBorder      bool `json:"blockBorder"`
	BackgroundBorder bool `json:"backgroundBorder"`
	Shadow           bool `json:"shadow"`
	Underline        bool `json:"underline"`
	Text             bool `json:"text"`
	Attachment       bool `json:"attachment"`
	InnerShadow      bool `json:"innerShadow"`
	Strikethrough    bool `json:"strikethrough"`
	Border           bool `json:"border"`
}

func (l *Layout) Flags() Flags {
	return Flags{
		BlockBorder:      l.needDrawBlockBorder,
		BackgroundBorder: l.needDrawBackgroundBorder,
		Shadow:           l.needDrawShadow,
		Underline:        l.needDrawUnderline,
		Text:             l.needDrawText,
		Attachment:       l.needDrawAttachment,
		InnerShadow:      l.needDrawInnerShadow,
		Strikethrough:    l.needDrawStrikethrough,
		Border:           l.needDrawBorder,
	}
}

// displayLine returns line i, substituting the truncated line.
func (l *Layout) displayLine(i int) *Line {
	line := l.lines[i]
	if l.truncatedLine != nil && l.truncatedLine.Index == line.Index {
		return l.truncatedLine
	}
	return line
}
