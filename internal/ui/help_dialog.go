package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/samber/lo"
)

var helpLines = []string{
	"",
	"Playback:",
	"  Space         Play / pause",
	"  n / p         Next / previous episode",
	"  s             Toggle shuffle",
	"  r             Toggle repeat",
	"  Left/Right    Seek backward/forward",
	"  c             Clear the player",
	"",
	"Episodes:",
	"  j / k         Move down/up",
	"  Ctrl+F / B    Page down/up",
	"  g / G         Go to top/bottom",
	"  Enter         Play from the selected episode",
	"",
	"Search:",
	"  /             Fuzzy search titles and members",
	"  Enter         Keep the filter and jump to the best match",
	"  Ctrl+T        Cycle match strictness",
	"  Esc           Leave search / clear the filter",
	"",
	"Mouse:",
	"  Click a control to activate it, the slider to seek,",
	"  an episode to select it and again to play it",
	"",
	"Other:",
	"  Esc           Clear the filter or message",
	"  ?             Show this help dialog",
	"  q / Ctrl+C    Quit",
}

type HelpDialog struct {
	visible      bool
	scrollOffset int
	visibleLines int
}

func NewHelpDialog() *HelpDialog {
	return &HelpDialog{visibleLines: 15}
}

func (h *HelpDialog) Show() {
	h.visible = true
	h.scrollOffset = 0
}

func (h *HelpDialog) Hide() {
	h.visible = false
}

func (h *HelpDialog) IsVisible() bool {
	return h.visible
}

func (h *HelpDialog) Draw(s tcell.Screen) {
	if !h.visible {
		return
	}

	w, screenHeight := s.Size()

	maxLineWidth := 0
	for _, line := range helpLines {
		maxLineWidth = max(maxLineWidth, textWidth(line))
	}

	// 2 for borders, 2 for margins
	dialogWidth := lo.Clamp(maxLineWidth+4, min(40, w), max(w-4, 1))
	dialogHeight := lo.Clamp(len(helpLines)+6, min(10, screenHeight), max(screenHeight-4, 1))

	startX := max((w-dialogWidth)/2, 0)
	startY := max((screenHeight-dialogHeight)/2, 0)

	dialogStyle := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorFg)
	for y := startY; y < startY+dialogHeight; y++ {
		fillRow(s, startX, y, dialogWidth, dialogStyle)
	}

	borderStyle := dialogStyle.Foreground(ColorBlue)
	right, bottom := startX+dialogWidth-1, startY+dialogHeight-1
	for x := startX + 1; x < right; x++ {
		s.SetContent(x, startY, '─', nil, borderStyle)
		s.SetContent(x, bottom, '─', nil, borderStyle)
	}
	for y := startY + 1; y < bottom; y++ {
		s.SetContent(startX, y, '│', nil, borderStyle)
		s.SetContent(right, y, '│', nil, borderStyle)
	}
	s.SetContent(startX, startY, '┌', nil, borderStyle)
	s.SetContent(right, startY, '┐', nil, borderStyle)
	s.SetContent(startX, bottom, '└', nil, borderStyle)
	s.SetContent(right, bottom, '┘', nil, borderStyle)

	title := "Help - Keybindings"
	titleStyle := dialogStyle.Foreground(ColorYellow).Bold(true)
	drawText(s, startX+max((dialogWidth-len(title))/2, 1), startY+1, titleStyle, title)

	// Borders, title and footer
	h.visibleLines = max(dialogHeight-5, 1)
	h.scrollOffset = lo.Clamp(h.scrollOffset, 0, h.maxScroll())

	for i := 0; i < h.visibleLines && i+h.scrollOffset < len(helpLines); i++ {
		drawTextClipped(s, startX+2, startY+3+i, dialogWidth-4, dialogStyle, helpLines[i+h.scrollOffset])
	}

	footer := "Press Esc or ? to close this help dialog"
	if h.maxScroll() > 0 {
		footer = "j/k to scroll, Esc to close"
	}
	footerStyle := dialogStyle.Foreground(ColorDimmed)
	drawTextClipped(s, startX+max((dialogWidth-len(footer))/2, 2), bottom-1, dialogWidth-4, footerStyle, footer)
}

// HandleKey consumes every key while the dialog is visible
func (h *HelpDialog) HandleKey(ev *tcell.EventKey) bool {
	if !h.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		h.Hide()
	case tcell.KeyUp:
		h.scrollUp()
	case tcell.KeyDown:
		h.scrollDown()
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?', 'q':
			h.Hide()
		case 'j':
			h.scrollDown()
		case 'k':
			h.scrollUp()
		case 'g':
			h.scrollOffset = 0
		case 'G':
			h.scrollOffset = h.maxScroll()
		}
	}

	return true
}

func (h *HelpDialog) maxScroll() int {
	return max(len(helpLines)-h.visibleLines, 0)
}

func (h *HelpDialog) scrollUp() {
	if h.scrollOffset > 0 {
		h.scrollOffset--
	}
}

func (h *HelpDialog) scrollDown() {
	if h.scrollOffset < h.maxScroll() {
		h.scrollOffset++
	}
}
