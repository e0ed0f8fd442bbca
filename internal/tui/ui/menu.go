package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

const menuColWidth = 22

// Menu displays keyboard shortcut hints in columns of a fixed height.
type Menu struct {
	*tview.TextView
	theme *Theme
	rows  int
}

// NewMenu creates a new menu hint panel holding rows hints per column.
func NewMenu(theme *Theme, rows int) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	if rows < 1 {
		rows = 1
	}
	return &Menu{
		TextView: tv,
		theme:    theme,
		rows:     rows,
	}
}

// Update renders menu hints column by column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	lines := make([]strings.Builder, m.rows)
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		plain := fmt.Sprintf("<%s> %s", h.Key, h.Description)
		pad := menuColWidth - len(plain)
		if pad < 1 {
			pad = 1
		}
		fmt.Fprintf(&lines[i%m.rows], "[%s::b]<%s>[-:-:-] %s%s", kc, h.Key, h.Description, strings.Repeat(" ", pad))
	}

	out := make([]string, 0, m.rows)
	for i := range lines {
		out = append(out, strings.TrimRight(lines[i].String(), " "))
	}
	return strings.Join(out, "\n")
}
