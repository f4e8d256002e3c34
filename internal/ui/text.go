package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// drawText writes text starting at x and returns the column after the last rune.
// Wide runes take two columns.
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) int {
	pos := 0
	for _, r := range text {
		s.SetContent(x+pos, y, r, nil, style)
		pos += cellWidth(r)
	}
	return x + pos
}

// drawTextClipped writes at most maxWidth columns, ending with "..." when text is cut
func drawTextClipped(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	drawText(s, x, y, style, truncate(text, maxWidth))
}

// drawTextWithHighlight draws text with the given rune positions highlighted
func drawTextWithHighlight(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string, highlightPositions []int) {
	highlightMap := make(map[int]bool, len(highlightPositions))
	for _, pos := range highlightPositions {
		highlightMap[pos] = true
	}

	highlightStyle := style.Foreground(ColorHighlight).Bold(true)

	col := 0
	for i, r := range []rune(text) {
		w := cellWidth(r)
		if col+w > maxWidth {
			break
		}
		charStyle := style
		if highlightMap[i] {
			charStyle = highlightStyle
		}
		s.SetContent(x+col, y, r, nil, charStyle)
		col += w
	}
}

// fillRow paints width cells of row y with style
func fillRow(s tcell.Screen, x, y, width int, style tcell.Style) {
	for i := 0; i < width; i++ {
		s.SetContent(x+i, y, ' ', nil, style)
	}
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if width > 3 {
		return runewidth.Truncate(text, width, "...")
	}
	return runewidth.Truncate(text, width, "")
}

func textWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Zero-width runes still occupy a cell once drawn
func cellWidth(r rune) int {
	return max(runewidth.RuneWidth(r), 1)
}
