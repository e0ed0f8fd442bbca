package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Crumbs is the breadcrumb bar under the header.
type Crumbs struct {
	*tview.TextView
	theme *Theme
	label func(page string) string
}

// NewCrumbs creates a breadcrumb bar. Page names are shown title-cased
// unless SetLabeler says otherwise.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
		label:    titleCase,
	}
}

// SetLabeler overrides how page names are displayed.
func (c *Crumbs) SetLabeler(fn func(page string) string) {
	if fn != nil {
		c.label = fn
	}
}

// Update renders one crumb per stacked page; the top one is highlighted.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	_, _ = fmt.Fprint(c, c.render(stack))
}

func (c *Crumbs) render(stack []string) string {
	var sb strings.Builder
	for i, page := range stack {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "[%s:%s:%s] <%s> [-:-:-]", colorName(fg), colorName(bg), attr, tview.Escape(c.label(page)))
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
