package ui

import "github.com/gdamore/tcell/v2"

// TokyoNight color palette
var (
	ColorBg          = tcell.NewRGBColor(0x1a, 0x1b, 0x26) // #1a1b26
	ColorBgDark      = tcell.NewRGBColor(0x16, 0x16, 0x1e) // #16161e
	ColorBgHighlight = tcell.NewRGBColor(0x29, 0x2e, 0x42) // #292e42

	ColorFg       = tcell.NewRGBColor(0xc0, 0xca, 0xf5) // #c0caf5
	ColorFgDark   = tcell.NewRGBColor(0x56, 0x5f, 0x89) // #565f89
	ColorFgGutter = tcell.NewRGBColor(0x3b, 0x42, 0x61) // #3b4261

	ColorBlue   = tcell.NewRGBColor(0x7a, 0xa2, 0xf7) // #7aa2f7
	ColorCyan   = tcell.NewRGBColor(0x7d, 0xcf, 0xff) // #7dcfff
	ColorGreen  = tcell.NewRGBColor(0x9e, 0xce, 0x6a) // #9ece6a
	ColorPurple = tcell.NewRGBColor(0x9d, 0x7c, 0xd8) // #9d7cd8
	ColorRed    = tcell.NewRGBColor(0xf7, 0x76, 0x8e) // #f7768e
	ColorYellow = tcell.NewRGBColor(0xe0, 0xaf, 0x68) // #e0af68

	ColorSelection = ColorBgHighlight
	ColorHeader    = ColorBlue
	ColorHighlight = ColorYellow // Search highlights
	ColorPlaying   = ColorGreen
	ColorPaused    = ColorYellow
	ColorError     = ColorRed
	ColorDimmed    = ColorFgDark
	ColorBright    = ColorFg

	// Transport controls and slider
	ColorControl         = ColorFg
	ColorControlActive   = ColorGreen
	ColorControlDisabled = ColorFgGutter
	ColorSliderFill      = ColorPurple
	ColorSliderEmpty     = ColorFgGutter
)

func baseStyle() tcell.Style {
	return tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg)
}
