package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/samber/lo"
)

// TableColumn defines a column in the table
type TableColumn struct {
	Title      string
	Width      int     // 0 means flexible width
	MinWidth   int     // Minimum width for flexible columns
	MaxWidth   int     // Maximum width for flexible columns (0 = no limit)
	FlexWeight float64 // Weight for distributing available space
	Align      Alignment
}

// Alignment specifies text alignment within a cell
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// TableRow represents a single row of data
type TableRow interface {
	// GetCell returns the content for a specific column index
	GetCell(columnIndex int) string
	// GetCellStyle returns the style for a specific cell (nil for default)
	GetCellStyle(columnIndex int, selected bool) *tcell.Style
	// GetHighlightPositions returns rune positions to highlight in a cell
	GetHighlightPositions(columnIndex int) []int
}

// Table is a scrollable, selectable grid of rows
type Table struct {
	columns      []TableColumn
	rows         []TableRow
	selectedIdx  int
	scrollOffset int

	x, y          int
	width, height int
	showHeader    bool

	selectionIndicator string

	headerStyle    tcell.Style
	defaultStyle   tcell.Style
	selectedStyle  tcell.Style
	highlightStyle tcell.Style

	columnWidths []int
}

func NewTable() *Table {
	return &Table{
		showHeader:         true,
		selectionIndicator: "> ",
		headerStyle:        baseStyle().Bold(true).Foreground(ColorHeader),
		defaultStyle:       baseStyle(),
		selectedStyle:      baseStyle().Background(ColorSelection).Foreground(ColorBright),
		highlightStyle:     baseStyle().Foreground(ColorHighlight).Bold(true),
	}
}

func (t *Table) SetColumns(columns []TableColumn) {
	t.columns = columns
	t.calculateColumnWidths()
}

// SetRows replaces the rows, keeping the selection in range
func (t *Table) SetRows(rows []TableRow) {
	t.rows = rows
	t.adjustSelection()
}

func (t *Table) SetPosition(x, y int) {
	t.x = x
	t.y = y
}

func (t *Table) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.calculateColumnWidths()
	t.ensureVisible()
}

func (t *Table) GetSelectedIndex() int {
	return t.selectedIdx
}

func (t *Table) GetSelectedRow() TableRow {
	if t.selectedIdx >= 0 && t.selectedIdx < len(t.rows) {
		return t.rows[t.selectedIdx]
	}
	return nil
}

func (t *Table) RowCount() int {
	return len(t.rows)
}

// Select moves the selection to idx, reporting whether it changed
func (t *Table) Select(idx int) bool {
	if len(t.rows) == 0 {
		return false
	}
	idx = lo.Clamp(idx, 0, len(t.rows)-1)
	if idx == t.selectedIdx {
		return false
	}
	t.selectedIdx = idx
	t.ensureVisible()
	return true
}

func (t *Table) SelectNext() bool {
	return t.Select(t.selectedIdx + 1)
}

func (t *Table) SelectPrevious() bool {
	return t.Select(t.selectedIdx - 1)
}

func (t *Table) SelectFirst() bool {
	return t.Select(0)
}

func (t *Table) SelectLast() bool {
	return t.Select(len(t.rows) - 1)
}

// PageDown moves the selection one page down, keeping one row of overlap
func (t *Table) PageDown() bool {
	return t.Select(t.selectedIdx + t.pageSize())
}

// PageUp moves the selection one page up, keeping one row of overlap
func (t *Table) PageUp() bool {
	return t.Select(t.selectedIdx - t.pageSize())
}

// RowAt maps a screen position to a row index, or -1 when it is outside the rows
func (t *Table) RowAt(x, y int) int {
	if x < t.x || x >= t.x+t.width {
		return -1
	}
	top := t.y
	if t.showHeader {
		top++
	}
	if y < top || y >= t.y+t.height {
		return -1
	}
	idx := y - top + t.scrollOffset
	if idx >= len(t.rows) {
		return -1
	}
	return idx
}

func (t *Table) Draw(s tcell.Screen) {
	if t.width <= 0 || t.height <= 0 {
		return
	}

	for row := 0; row < t.height; row++ {
		fillRow(s, t.x, t.y+row, t.width, t.defaultStyle)
	}

	currentY := t.y
	if t.showHeader {
		t.drawHeader(s, currentY)
		currentY++
	}

	visibleHeight := t.visibleHeight()
	for i := 0; i < visibleHeight && i+t.scrollOffset < len(t.rows); i++ {
		rowIdx := i + t.scrollOffset
		t.drawRow(s, currentY+i, t.rows[rowIdx], rowIdx == t.selectedIdx)
	}
}

func (t *Table) visibleHeight() int {
	height := t.height
	if t.showHeader {
		height--
	}
	return max(height, 0)
}

func (t *Table) pageSize() int {
	return max(t.visibleHeight()-1, 1)
}

// ensureVisible centers the selection where the row count allows it
func (t *Table) ensureVisible() {
	visibleHeight := t.visibleHeight()
	if visibleHeight <= 0 {
		return
	}
	maxOffset := max(len(t.rows)-visibleHeight, 0)
	t.scrollOffset = lo.Clamp(t.selectedIdx-visibleHeight/2, 0, maxOffset)
}

func (t *Table) adjustSelection() {
	if len(t.rows) == 0 {
		t.selectedIdx = 0
		t.scrollOffset = 0
		return
	}
	t.selectedIdx = lo.Clamp(t.selectedIdx, 0, len(t.rows)-1)
	t.ensureVisible()
}

func (t *Table) indicatorWidth() int {
	return textWidth(t.selectionIndicator)
}

func (t *Table) calculateColumnWidths() {
	if len(t.columns) == 0 || t.width <= 0 {
		return
	}

	t.columnWidths = make([]int, len(t.columns))

	fixedWidth := 0
	totalFlexWeight := 0.0
	for i, col := range t.columns {
		if col.Width > 0 {
			width := col.Width
			if i == 0 {
				width += t.indicatorWidth()
			}
			t.columnWidths[i] = width
			fixedWidth += width
			continue
		}
		totalFlexWeight += flexWeight(col)
	}

	// One cell of padding between columns
	availableWidth := t.width - fixedWidth - (len(t.columns) - 1)
	if availableWidth <= 0 || totalFlexWeight == 0 {
		return
	}

	for i, col := range t.columns {
		if col.Width > 0 {
			continue
		}
		width := int(float64(availableWidth) * (flexWeight(col) / totalFlexWeight))
		if col.MinWidth > 0 && width < col.MinWidth {
			width = col.MinWidth
		}
		if col.MaxWidth > 0 && width > col.MaxWidth {
			width = col.MaxWidth
		}
		if i == 0 {
			width += t.indicatorWidth()
		}
		t.columnWidths[i] = width
	}
}

func flexWeight(col TableColumn) float64 {
	if col.FlexWeight > 0 {
		return col.FlexWeight
	}
	return 1.0
}

func (t *Table) drawHeader(s tcell.Screen, y int) {
	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		if col.Title != "" {
			titleX, titleWidth := x, t.columnWidths[i]
			if i == 0 {
				titleX += t.indicatorWidth()
				titleWidth -= t.indicatorWidth()
			}
			t.drawCell(s, titleX, y, titleWidth, col.Title, t.headerStyle, nil, col.Align)
		}
		x += t.columnWidths[i]
	}
}

func (t *Table) drawRow(s tcell.Screen, y int, row TableRow, selected bool) {
	if selected {
		fillRow(s, t.x, y, t.width, t.selectedStyle)
	}

	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}

		content := row.GetCell(i)
		highlights := row.GetHighlightPositions(i)
		if i == 0 && t.selectionIndicator != "" {
			prefix := strings.Repeat(" ", t.indicatorWidth())
			if selected {
				prefix = t.selectionIndicator
			}
			content = prefix + content
			highlights = lo.Map(highlights, func(pos int, _ int) int { return pos + t.indicatorWidth() })
		}

		style := t.defaultStyle
		if selected {
			style = t.selectedStyle
		}
		if cellStyle := row.GetCellStyle(i, selected); cellStyle != nil {
			style = *cellStyle
		}

		t.drawCell(s, x, y, t.columnWidths[i], content, style, highlights, col.Align)
		x += t.columnWidths[i]
	}
}

// drawCell draws one cell, truncating with an ellipsis and highlighting matched runes
func (t *Table) drawCell(s tcell.Screen, x, y, width int, text string, style tcell.Style, highlights []int, align Alignment) {
	if width <= 0 {
		return
	}

	highlightStyle := t.highlightStyle
	_, bg, _ := style.Decompose()
	if bg == ColorSelection {
		highlightStyle = style.Foreground(ColorBgDark).Background(ColorHighlight).Bold(true)
	}
	highlightMap := make(map[int]bool, len(highlights))
	for _, pos := range highlights {
		highlightMap[pos] = true
	}

	runes := []rune(text)
	display := runes
	displayWidth := textWidth(text)
	truncated := displayWidth > width
	if truncated {
		limit := width
		if width > 3 {
			limit = width - 3
		}
		displayWidth = 0
		for i, r := range runes {
			if displayWidth+cellWidth(r) > limit {
				display = runes[:i]
				break
			}
			displayWidth += cellWidth(r)
		}
	}

	startX := x
	if !truncated && displayWidth < width {
		switch align {
		case AlignCenter:
			startX = x + (width-displayWidth)/2
		case AlignRight:
			startX = x + width - displayWidth
		}
	}

	col := startX
	for i, r := range display {
		charStyle := style
		if highlightMap[i] {
			charStyle = highlightStyle
		}
		s.SetContent(col, y, r, nil, charStyle)
		col += cellWidth(r)
	}

	if truncated && width > 3 {
		for i := 0; i < 3; i++ {
			s.SetContent(startX+displayWidth+i, y, '.', nil, style)
		}
	}
}
