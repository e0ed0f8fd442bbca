package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

var logoArt = []string{
	"╔═╗╦  ╔═╗╔═╗╔╦╗",
	"╠╣ ║  ║╣ ║╣  ║ ",
	"╚  ╩═╝╚═╝╚═╝ ╩ ",
}

const logoTagline = "dispatch desk"

// LogoWidth is the column width the logo needs.
const LogoWidth = 18

// NewLogo returns the header logo.
func NewLogo(theme *Theme) *tview.TextView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	var sb strings.Builder
	art := colorName(theme.TitleColor)
	for _, line := range logoArt {
		fmt.Fprintf(&sb, "[%s::b]%s[-:-:-]\n", art, line)
	}
	fmt.Fprintf(&sb, "[%s]%s[-:-:-]", colorName(theme.FgColor), logoTagline)
	_, _ = fmt.Fprint(tv, sb.String())
	return tv
}
