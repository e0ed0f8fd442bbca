package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// Details displays one record, with the invite QR for drivers.
type Details struct {
	*tview.TextView
	theme     *ui.Theme
	inviteURL string
}

// NewDetails creates a new details view. inviteURL is the base link encoded
// in driver QR codes; empty disables the QR.
func NewDetails(theme *ui.Theme, inviteURL string) *Details {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &Details{
		TextView:  tv,
		theme:     theme,
		inviteURL: inviteURL,
	}
}

// Name implements Component.
func (d *Details) Name() string { return "Details" }

// Init implements Component.
func (d *Details) Init() {}

// Start implements Component.
func (d *Details) Start() {}

// Stop implements Component.
func (d *Details) Stop() {}

// Hints implements Component.
func (d *Details) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

type field struct {
	label string
	value string
}

// Update renders r as a resource of kind res.
func (d *Details) Update(res backend.Resource, r backend.Record, unread int) {
	d.Clear()
	if r == nil {
		return
	}

	var title string
	var fields []field
	qr := ""
	switch res.Name {
	case backend.Drivers.Name:
		v := backend.DriverFrom(r)
		title = v.Name
		active := "yes"
		if !v.Active {
			active = "no"
		}
		fields = []field{
			{"Name", v.Name}, {"ID", v.ID}, {"Email", v.Email}, {"Phone", v.Phone},
			{"Truck", v.Truck}, {"Role", v.Role}, {"Active", active}, {"Joined", stamp(v.CreatedAt)},
		}
		if link := InviteURL(d.inviteURL, v.ID); link != "" {
			qr = fmt.Sprintf("\n [::b]Invite[-:-:-] %s\n\n%s", tview.Escape(link), renderQR(link))
		}
	case backend.Documents.Name:
		v := backend.DocumentFrom(r)
		title = v.Title
		fields = []field{
			{"Title", v.Title}, {"ID", v.ID}, {"Category", v.Category}, {"Type", v.Type},
			{"Driver", v.DriverName}, {"Driver ID", v.DriverID}, {"URL", v.URL},
			{"Seen", yesNo(v.Seen)}, {"Flagged", yesNo(v.Flagged)}, {"Uploaded", stamp(v.CreatedAt)},
		}
	case backend.Threads.Name:
		v := backend.ThreadFrom(r)
		title = v.Title
		fields = []field{
			{"Driver", v.Title}, {"Thread ID", v.ID}, {"Driver ID", v.DriverID},
			{"Unread", humanize.Comma(int64(unread))},
			{"Last message", v.LastMessage}, {"Sent", stamp(v.LastMessageAt)},
		}
	default:
		title = res.Key(r)
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, field{k, r.String(k)})
		}
	}

	fg := colorNameFromTheme(d.theme.FgColor)
	ct := colorNameFromTheme(d.theme.CounterColor)
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}
	var sb strings.Builder
	sb.WriteString("\n")
	for _, f := range fields {
		v := f.value
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&sb, " [%s::b]%-*s[-:-:-] [%s]%s[-]\n", fg, width+1, f.label+":", ct, tview.Escape(sanitizeForTerminal(v)))
	}
	sb.WriteString(qr)

	_, _ = fmt.Fprint(d, sb.String())
	d.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))
	d.ScrollToBeginning()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func colorNameFromTheme(c interface{ Hex() int32 }) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
