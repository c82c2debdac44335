package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/selection"
	"github.com/ByLCY/scribe/styled"
)

const replHelp = `命令：
  lines              列出所有行
  point X Y          命中测试：行、最近位置、文本范围、高亮
  caret N            位置 N 的光标矩形
  select START LEN   选区矩形与抓手
  extend N DIR K     从位置 N 向 right/left/up/down 扩展 K
  rows               列出行组边界
  help               显示本帮助
  quit               退出`

// queryREPL 在已构建的布局上执行交互式查询。
type queryREPL struct {
	l    *layout.Layout
	view *selection.View
}

func runREPL(l *layout.Layout) error {
	rl, err := readline.New("scribe > ")
	if err != nil {
		return err
	}
	defer rl.Close()

	q := &queryREPL{l: l, view: selection.New(l, styled.RGBA(0x00, 0x7A, 0xFF, 0xFF))}
	pterm.Info.Println("输入 help 查看命令，<ctrl>D 退出")
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				break
			}
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		quit, err := q.exec(fields[0], fields[1:])
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("再见")
	return nil
}

func (q *queryREPL) exec(cmd string, args []string) (bool, error) {
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		pterm.Println(replHelp)
	case "lines":
		q.lines()
	case "rows":
		q.rows()
	case "point":
		nums, err := floats(args, 2)
		if err != nil {
			return false, err
		}
		q.point(geom.Pt(nums[0], nums[1]))
	case "caret":
		nums, err := ints(args, 1)
		if err != nil {
			return false, err
		}
		if !q.view.SetCaret(layout.Pos(nums[0])) {
			return false, fmt.Errorf("位置 %d 不在任何行上", nums[0])
		}
		pterm.Printf("caret %s\n", fmtRect(q.view.CaretRect()))
	case "select":
		nums, err := ints(args, 2)
		if err != nil {
			return false, err
		}
		q.selectRange(styled.NewRange(nums[0], nums[1]))
	case "extend":
		if len(args) != 3 {
			return false, fmt.Errorf("用法: extend N DIR K")
		}
		return false, q.extend(args)
	default:
		return false, fmt.Errorf("未知命令 %q，输入 help 查看命令", cmd)
	}
	return false, nil
}

func (q *queryREPL) lines() {
	data := [][]string{{"#", "行组", "范围", "文本", "边界"}}
	for _, line := range q.l.Lines() {
		data = append(data, []string{
			strconv.Itoa(line.Index),
			strconv.Itoa(line.Row),
			line.Range().String(),
			strconv.Quote(q.l.Text().Substring(line.Range())),
			fmtRect(line.Bounds()),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (q *queryREPL) rows() {
	data := [][]string{{"行组", "首行", "行数", "head", "foot"}}
	for i, e := range q.l.RowEdges() {
		data = append(data, []string{
			strconv.Itoa(i),
			strconv.Itoa(q.l.LineIndexForRow(i)),
			strconv.Itoa(q.l.LineCountForRow(i)),
			fmtFloat(e.Head),
			fmtFloat(e.Foot),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (q *queryREPL) point(p geom.Point) {
	pterm.Printf("line %d (closest %d)\n", q.l.LineIndexForPoint(p), q.l.ClosestLineIndexForPoint(p))
	if pos, ok := q.l.ClosestPosition(p); ok {
		pterm.Printf("closest position %s\n", pos)
	}
	if r, ok := q.l.TextRangeAt(p); ok {
		pterm.Printf("range %s %q\n", r.AsRange(), q.l.Text().Substring(r.AsRange()))
	}
	if _, r, ok := q.l.HighlightAt(p); ok {
		pterm.Printf("highlight %s %q\n", r, q.l.Text().Substring(r))
	}
}

func (q *queryREPL) selectRange(r styled.Range) {
	q.view.Select(layout.RangeOf(r, layout.AffinityForward))
	data := [][]string{{"类型", "值"}, {"text", strconv.Quote(q.l.Text().PlainText(r))}}
	for _, m := range q.view.Marks() {
		data = append(data, []string{"mark", fmtRect(m)})
	}
	if g := q.view.StartGrabber(); g.Visible {
		data = append(data, []string{"start grabber", fmtRect(g.Frame)})
	}
	if g := q.view.EndGrabber(); g.Visible {
		data = append(data, []string{"end grabber", fmtRect(g.Frame)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (q *queryREPL) extend(args []string) error {
	pos, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	dirs := map[string]layout.Direction{
		"right": layout.DirectionRight,
		"left":  layout.DirectionLeft,
		"up":    layout.DirectionUp,
		"down":  layout.DirectionDown,
	}
	dir, ok := dirs[args[1]]
	if !ok {
		return fmt.Errorf("未知方向 %q", args[1])
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return err
	}
	r, ok := q.l.TextRangeByExtending(layout.Pos(pos), dir, n)
	if !ok {
		return fmt.Errorf("无法从 %d 扩展", pos)
	}
	pterm.Printf("range %s %q\n", r.AsRange(), q.l.Text().Substring(r.AsRange()))
	return nil
}

func floats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("需要 %d 个数值参数", n)
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("需要 %d 个整数参数", n)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

func fmtRect(r geom.Rect) string {
	return fmt.Sprintf("(%s, %s, %s, %s)", fmtFloat(r.X), fmtFloat(r.Y), fmtFloat(r.W), fmtFloat(r.H))
}
