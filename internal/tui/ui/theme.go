package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Theme holds the colors of every TUI component.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	PromptBorderColor tcell.Color

	FlashInfoColor tcell.Color
	FlashWarnColor tcell.Color
	FlashErrColor  tcell.Color

	// Daemon states.
	ReadyColor     tcell.Color
	PendingColor   tcell.Color
	AttentionColor tcell.Color
}

// DefaultTheme is the dark console palette.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorLightSteelBlue,
		BorderColor:       tcell.ColorSteelBlue,
		TitleColor:        tcell.ColorGold,
		CounterColor:      tcell.ColorWhiteSmoke,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorMediumTurquoise,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorGold,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorSteelBlue,
		MenuKeyColor:      tcell.ColorDeepSkyBlue,
		NumericKeyColor:   tcell.ColorOrchid,
		PromptBorderColor: tcell.ColorDeepSkyBlue,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		ReadyColor:        tcell.ColorMediumSeaGreen,
		PendingColor:      tcell.ColorOrange,
		AttentionColor:    tcell.ColorOrangeRed,
	}
}

// LightTheme suits terminals with a light background.
func LightTheme() *Theme {
	t := DefaultTheme()
	t.BgColor = tcell.ColorWhite
	t.FgColor = tcell.ColorDarkSlateGray
	t.BorderColor = tcell.ColorSlateGray
	t.TitleColor = tcell.ColorDarkGoldenrod
	t.CounterColor = tcell.ColorBlack
	t.TableHeaderFg = tcell.ColorBlack
	t.TableHeaderBg = tcell.ColorWhite
	t.TableCursorFg = tcell.ColorWhite
	t.TableCursorBg = tcell.ColorTeal
	t.MenuKeyColor = tcell.ColorNavy
	t.PromptBorderColor = tcell.ColorNavy
	t.FlashInfoColor = tcell.ColorDarkSlateGray
	t.ReadyColor = tcell.ColorGreen
	return t
}

// ThemeNamed returns the theme called name; "" selects the default.
func ThemeNamed(name string) (*Theme, error) {
	switch strings.ToLower(name) {
	case "", "dark", "default":
		return DefaultTheme(), nil
	case "light":
		return LightTheme(), nil
	}
	return nil, fmt.Errorf("unknown theme %q (want dark or light)", name)
}

// StatusColor picks the color for a daemon state name.
func (t *Theme) StatusColor(state string) tcell.Color {
	switch state {
	case "READY":
		return t.ReadyColor
	case "AUTH_REQUIRED", "ERROR":
		return t.AttentionColor
	}
	return t.PendingColor
}

// colorName returns a tview-compatible color tag.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
