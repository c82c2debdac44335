package layout

// rowTables builds the first-line index and the reconciled edges of every row.
func rowTables(lines []*Line, rowCount int, vertical bool) ([]int, []RowEdge) {
	index := make([]int, rowCount)
	edges := make([]RowEdge, rowCount)
	lastRow := -1
	var head, foot float64
	for i, line := range lines {
		rect := line.Bounds()
		if line.Row != lastRow {
			if lastRow >= 0 {
				edges[lastRow] = RowEdge{Head: head, Foot: foot}
			}
			lastRow = line.Row
			index[lastRow] = i
			if vertical {
				head = rect.X + rect.W
				foot = head - rect.W
			} else {
				head = rect.Y
				foot = head + rect.H
			}
			continue
		}
		if vertical {
			head = max(head, rect.X+rect.W)
			foot = min(foot, rect.X)
		} else {
			head = min(head, rect.Y)
			foot = max(foot, rect.Y+rect.H)
		}
	}
	if lastRow >= 0 {
		edges[lastRow] = RowEdge{Head: head, Foot: foot}
	}
	// 相邻两行的交界取中点，保证行组之间没有空隙
	for i := 1; i < rowCount; i++ {
		mid := (edges[i-1].Foot + edges[i].Head) * 0.5
		edges[i-1].Foot = mid
		edges[i].Head = mid
	}
	return index, edges
}

func (l *Layout) edgeContains(row int, edge float64) bool {
	e := l.lineRowsEdge[row]
	if l.container.verticalForm {
		return e.Foot <= edge && edge <= e.Head
	}
	return e.Head <= edge && edge <= e.Foot
}

// RowIndexForEdge returns the row containing the secondary-axis coordinate edge
// (y for horizontal form, x for vertical form), or -1.
// A coordinate on the boundary between two rows belongs to the upper (lower-indexed) row.
func (l *Layout) RowIndexForEdge(edge float64) int {
	if l.rowCount == 0 {
		return -1
	}
	vertical := l.container.verticalForm
	lo, hi := 0, l.rowCount-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if l.edgeContains(mid, edge) {
			for mid > 0 && l.edgeContains(mid-1, edge) {
				mid--
			}
			return mid
		}
		e := l.lineRowsEdge[mid]
		if (vertical && edge > e.Head) || (!vertical && edge < e.Head) {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return -1
}

// ClosestRowIndexForEdge is like RowIndexForEdge but snaps to the first or last row.
func (l *Layout) ClosestRowIndexForEdge(edge float64) int {
	if l.rowCount == 0 {
		return -1
	}
	row := l.RowIndexForEdge(edge)
	if row >= 0 {
		return row
	}
	if l.container.verticalForm {
		if edge > l.lineRowsEdge[0].Head {
			return 0
		}
		if edge < l.lineRowsEdge[l.rowCount-1].Foot {
			return l.rowCount - 1
		}
		return -1
	}
	if edge < l.lineRowsEdge[0].Head {
		return 0
	}
	return l.rowCount - 1
}

// LineIndexForRow returns the index of the first line in row, or -1.
func (l *Layout) LineIndexForRow(row int) int {
	if row < 0 || row >= l.rowCount {
		return -1
	}
	return l.lineRowsIndex[row]
}

// LineCountForRow returns the number of lines in row, or -1.
func (l *Layout) LineCountForRow(row int) int {
	if row < 0 || row >= l.rowCount {
		return -1
	}
	if row == l.rowCount-1 {
		return len(l.lines) - l.lineRowsIndex[row]
	}
	return l.lineRowsIndex[row+1] - l.lineRowsIndex[row]
}

// RowIndexForLine returns the row of line, or -1.
func (l *Layout) RowIndexForLine(line int) int {
	if line < 0 || line >= len(l.lines) {
		return -1
	}
	return l.lines[line].Row
}

// rowLines returns the first and last line index of row.
func (l *Layout) rowLines(row int) (int, int) {
	first := l.lineRowsIndex[row]
	last := len(l.lines) - 1
	if row < l.rowCount-1 {
		last = l.lineRowsIndex[row+1] - 1
	}
	return first, last
}
