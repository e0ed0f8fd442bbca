package views

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/fleetdesk/internal/backend"
)

// Column renders one table column of a record.
type Column struct {
	Title     string
	Expansion int
	AlignEnd  bool
	Value     func(r backend.Record, unread int) string
}

// ColumnsFor returns the table layout of a resource.
func ColumnsFor(res backend.Resource) []Column {
	switch res.Name {
	case backend.Drivers.Name:
		return driverColumns
	case backend.Documents.Name:
		return documentColumns
	case backend.Threads.Name:
		return threadColumns
	}
	return []Column{{Title: "ID", Expansion: 1, Value: func(r backend.Record, _ int) string { return res.Key(r) }}}
}

var driverColumns = []Column{
	{Title: "NAME", Expansion: 2, Value: func(r backend.Record, _ int) string { return backend.DriverFrom(r).Name }},
	{Title: "EMAIL", Expansion: 2, Value: func(r backend.Record, _ int) string { return backend.DriverFrom(r).Email }},
	{Title: "PHONE", Expansion: 1, Value: func(r backend.Record, _ int) string { return backend.DriverFrom(r).Phone }},
	{Title: "TRUCK", Expansion: 0, Value: func(r backend.Record, _ int) string { return backend.DriverFrom(r).Truck }},
	{Title: "STATUS", Expansion: 0, Value: func(r backend.Record, _ int) string {
		if backend.DriverFrom(r).Active {
			return "active"
		}
		return "inactive"
	}},
	{Title: "JOINED", Expansion: 0, AlignEnd: true, Value: func(r backend.Record, _ int) string { return relTime(backend.DriverFrom(r).CreatedAt) }},
}

var documentColumns = []Column{
	{Title: "", Expansion: 0, Value: func(r backend.Record, _ int) string {
		d := backend.DocumentFrom(r)
		mark := " "
		if !d.Seen {
			mark = "●"
		}
		if d.Flagged {
			mark += "⚑"
		}
		return mark
	}},
	{Title: "TITLE", Expansion: 2, Value: func(r backend.Record, _ int) string { return backend.DocumentFrom(r).Title }},
	{Title: "CATEGORY", Expansion: 1, Value: func(r backend.Record, _ int) string { return backend.DocumentFrom(r).Category }},
	{Title: "TYPE", Expansion: 0, Value: func(r backend.Record, _ int) string { return backend.DocumentFrom(r).Type }},
	{Title: "DRIVER", Expansion: 1, Value: func(r backend.Record, _ int) string { return backend.DocumentFrom(r).DriverName }},
	{Title: "UPLOADED", Expansion: 0, AlignEnd: true, Value: func(r backend.Record, _ int) string { return relTime(backend.DocumentFrom(r).CreatedAt) }},
}

var threadColumns = []Column{
	{Title: "UNREAD", Expansion: 0, AlignEnd: true, Value: func(_ backend.Record, unread int) string {
		if unread <= 0 {
			return ""
		}
		return strconv.Itoa(unread)
	}},
	{Title: "DRIVER", Expansion: 1, Value: func(r backend.Record, _ int) string { return backend.ThreadFrom(r).Title }},
	{Title: "LAST MESSAGE", Expansion: 3, Value: func(r backend.Record, _ int) string {
		th := backend.ThreadFrom(r)
		if !th.Enriched {
			return "…"
		}
		return th.LastMessage
	}},
	{Title: "WHEN", Expansion: 0, AlignEnd: true, Value: func(r backend.Record, _ int) string { return relTime(backend.ThreadFrom(r).LastMessageAt) }},
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
