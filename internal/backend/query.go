package backend

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of start_date / end_date.
const DateLayout = "2006-01-02"

// Filters are the optional list filters understood by the backend.
// Nil pointers and zero values are omitted from the query string.
type Filters struct {
	IsSeen    *bool
	IsFlagged *bool
	Category  string
	Types     []string
	StartDate time.Time
	EndDate   time.Time
}

// Query describes one list request.
type Query struct {
	Page  int
	Limit int
	// Search is nil when no search parameter should be sent at all. A non-nil
	// empty string is still sent as "search=".
	Search  *string
	Filters Filters
}

// Values encodes q as query parameters. Types are emitted as repeated
// "type" parameters in order.
func (q Query) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != nil {
		v.Set("search", strings.TrimSpace(*q.Search))
	}
	f := q.Filters
	if f.IsSeen != nil {
		v.Set("isSeen", strconv.FormatBool(*f.IsSeen))
	}
	if f.IsFlagged != nil {
		v.Set("isFlagged", strconv.FormatBool(*f.IsFlagged))
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	for _, t := range f.Types {
		v.Add("type", t)
	}
	if !f.StartDate.IsZero() {
		v.Set("start_date", f.StartDate.Format(DateLayout))
	}
	if !f.EndDate.IsZero() {
		v.Set("end_date", f.EndDate.Format(DateLayout))
	}
	return v
}

// Encode returns the URL-encoded query string.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// StringPtr returns a pointer to s. Handy for Query.Search and tests.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
