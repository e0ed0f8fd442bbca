package views

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/collection"
	"github.com/matheus3301/fleetdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// UnreadFunc returns the unread count of a list key.
type UnreadFunc func(key string) int

// ResourceList is the table of one backend resource.
type ResourceList struct {
	*tview.Table
	theme   *ui.Theme
	res     backend.Resource
	columns []Column
	keys    []string
}

// NewResourceList creates an empty table for res.
func NewResourceList(theme *ui.Theme, res backend.Resource) *ResourceList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	rl := &ResourceList{
		Table:   table,
		theme:   theme,
		res:     res,
		columns: ColumnsFor(res),
	}
	rl.SetTitle(" " + rl.Name() + " ")
	return rl
}

// Name implements Component.
func (rl *ResourceList) Name() string {
	return strings.ToUpper(rl.res.Name[:1]) + rl.res.Name[1:]
}

// Resource returns the resource shown.
func (rl *ResourceList) Resource() backend.Resource { return rl.res }

// Init implements Component.
func (rl *ResourceList) Init() {}

// Start implements Component.
func (rl *ResourceList) Start() {}

// Stop implements Component.
func (rl *ResourceList) Stop() {}

// Hints implements Component.
func (rl *ResourceList) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "Enter", Description: "Details"},
		{Key: "/", Description: "Search"},
		{Key: ":", Description: "Command"},
		{Key: "r", Description: "Refresh"},
	}
	switch rl.res.Name {
	case backend.Documents.Name:
		hints = append(hints, ui.MenuHint{Key: "v", Description: "Mark seen"}, ui.MenuHint{Key: "f", Description: "Flag"})
	case backend.Drivers.Name:
		hints = append(hints, ui.MenuHint{Key: "ctrl-d", Description: "Remove"})
	}
	return append(hints,
		ui.MenuHint{Key: "?", Description: "Help"},
		ui.MenuHint{Key: "1-3", Description: "Lists", Numeric: true},
	)
}

// Update renders a cache snapshot. Selection is kept on the same key when
// it is still present.
func (rl *ResourceList) Update(snap collection.Snapshot[backend.Record], search string, unread UnreadFunc) {
	selected := rl.SelectedKey()
	rl.Clear()

	for col, c := range rl.columns {
		cell := tview.NewTableCell(" " + c.Title).
			SetSelectable(false).
			SetTextColor(rl.theme.TableHeaderFg).
			SetBackgroundColor(rl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(c.Expansion)
		rl.SetCell(0, col, cell)
	}

	rl.keys = rl.keys[:0]
	for i, item := range snap.Items {
		key := rl.res.Key(item)
		rl.keys = append(rl.keys, key)
		n := 0
		if unread != nil {
			n = unread(key)
		}
		for col, c := range rl.columns {
			cell := tview.NewTableCell(" " + tview.Escape(sanitizeForTerminal(c.Value(item, n)))).
				SetExpansion(c.Expansion).
				SetTextColor(rl.theme.FgColor)
			if c.AlignEnd {
				cell.SetAlign(tview.AlignRight)
			}
			rl.SetCell(i+1, col, cell)
		}
	}

	if footer := footerText(snap); footer != "" {
		rl.SetCell(len(snap.Items)+1, 0, tview.NewTableCell(" "+footer).
			SetSelectable(false).
			SetTextColor(rl.theme.FlashWarnColor))
	}

	rl.SetTitle(rl.title(snap, search))
	rl.selectKey(selected)
}

func footerText(snap collection.Snapshot[backend.Record]) string {
	switch {
	case snap.Loading() && len(snap.Items) == 0:
		return "loading…"
	case snap.LoadingMore():
		return "loading more…"
	case snap.Err != nil:
		return "error: " + snap.ErrorMessage()
	case snap.Fetched && len(snap.Items) == 0:
		return "no results"
	}
	return ""
}

func (rl *ResourceList) title(snap collection.Snapshot[backend.Record], search string) string {
	count := humanize.Comma(int64(len(snap.Items)))
	if snap.Total > len(snap.Items) {
		count += "/" + humanize.Comma(int64(snap.Total))
	}
	t := fmt.Sprintf(" %s (%s) ", rl.Name(), count)
	if search != "" {
		t += "search: " + tview.Escape(search) + " "
	}
	if f := snap.LastParams.Filters; !f.IsZero() {
		t += "filter: " + tview.Escape(f.String()) + " "
	}
	return t
}

func (rl *ResourceList) selectKey(key string) {
	if len(rl.keys) == 0 {
		return
	}
	for i, k := range rl.keys {
		if k == key {
			rl.Select(i+1, 0)
			return
		}
	}
	row, _ := rl.GetSelection()
	if row < 1 || row > len(rl.keys) {
		rl.Select(1, 0)
	}
}

// SelectedIndex returns the 0-based item index of the selection, -1 when none.
func (rl *ResourceList) SelectedIndex() int {
	row, _ := rl.GetSelection()
	if row < 1 || row > len(rl.keys) {
		return -1
	}
	return row - 1
}

// SelectedKey returns the key of the selected item, "" when none.
func (rl *ResourceList) SelectedKey() string {
	if i := rl.SelectedIndex(); i >= 0 {
		return rl.keys[i]
	}
	return ""
}

// Keys returns the keys of the rendered items in order.
func (rl *ResourceList) Keys() []string {
	return append([]string(nil), rl.keys...)
}

// VisibleKeys returns the keys of the rows currently on screen. Before the
// first draw every rendered key counts as visible.
func (rl *ResourceList) VisibleKeys() []string {
	_, _, _, height := rl.GetInnerRect()
	rows := height - 1
	if rows <= 0 {
		return rl.Keys()
	}
	offset, _ := rl.GetOffset()
	if offset > len(rl.keys) {
		offset = len(rl.keys)
	}
	end := offset + rows
	if end > len(rl.keys) {
		end = len(rl.keys)
	}
	return append([]string(nil), rl.keys[offset:end]...)
}
