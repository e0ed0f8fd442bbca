package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/fleetdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Init implements Component.
func (hv *HelpView) Init() {}

// Start implements Component.
func (hv *HelpView) Start() {}

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"}, {"/", "Search the current list"}, {"Esc", "Cancel / Go back"},
		{"?", "Help"}, {"1 2 3", "Drivers, Documents, Threads"}, {"q", "Quit / Back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Lists", [][2]string{
		{"Enter", "Show details"}, {"j/Down k/Up", "Move (loads more near the end)"},
		{"r", "Refresh now"}, {"v", "Mark document seen"}, {"f", "Flag / unflag document"},
		{"Ctrl-D", "Remove driver"},
	}},
	{"Commands (: mode)", [][2]string{
		{":drivers  :documents  :threads", "Open a list"},
		{":search <text>", "Search the current list (empty clears)"},
		{":filter <terms>", "Filter documents: seen unseen flagged unflagged category= type= from= to= (none clears)"},
		{":seen", "Mark the selected document seen"},
		{":flag", "Flag / unflag the selected document"},
		{":token <value>", "Store a new API token"},
		{":help  :h", "Show this help"},
		{":quit  :q", "Quit application"},
	}},
}

func (hv *HelpView) render() {
	kc := fmt.Sprintf("#%06x", hv.theme.MenuKeyColor.Hex())

	var sb strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&sb, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&sb, "  [%s]%-32s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, sb.String())
}
