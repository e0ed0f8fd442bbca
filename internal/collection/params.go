package collection

import (
	"encoding/json"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/matheus3301/fleetdesk/internal/backend"
)

// Params is the user-controlled part of a list request: search text and
// filters. Paging is owned by the cache.
type Params struct {
	Search  *string
	Filters backend.Filters
}

// WithSearch returns a copy of p with the search text set. Blank text
// clears the search parameter.
func (p Params) WithSearch(q string) Params {
	q = strings.TrimSpace(q)
	if q == "" {
		p.Search = nil
	} else {
		p.Search = &q
	}
	return p
}

// SearchText returns the search text, "" when unset.
func (p Params) SearchText() string {
	if p.Search == nil {
		return ""
	}
	return *p.Search
}

// Query builds the backend request for one page.
func (p Params) Query(page, limit int) backend.Query {
	f := p.Filters
	f.Types = append([]string(nil), f.Types...)
	return backend.Query{Page: page, Limit: limit, Search: p.Search, Filters: f}
}

type canonicalParams struct {
	Search    *string  `json:"search"`
	IsSeen    *bool    `json:"isSeen"`
	IsFlagged *bool    `json:"isFlagged"`
	Category  string   `json:"category"`
	Types     []string `json:"type"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// Canonical serializes p so that equal values always produce equal bytes.
// Type lists compare by value, in order.
func (p Params) Canonical() []byte {
	c := canonicalParams{
		Search:    p.Search,
		IsSeen:    p.Filters.IsSeen,
		IsFlagged: p.Filters.IsFlagged,
		Category:  p.Filters.Category,
		Types:     p.Filters.Types,
	}
	if c.Types == nil {
		c.Types = []string{}
	}
	if !p.Filters.StartDate.IsZero() {
		c.StartDate = p.Filters.StartDate.Format(backend.DateLayout)
	}
	if !p.Filters.EndDate.IsZero() {
		c.EndDate = p.Filters.EndDate.Format(backend.DateLayout)
	}
	b, _ := json.Marshal(c)
	return b
}

// Fingerprint hashes the canonical form.
func (p Params) Fingerprint() uint64 {
	return xxhash.Sum64(p.Canonical())
}

// Equal compares by value.
func (p Params) Equal(o Params) bool {
	return string(p.Canonical()) == string(o.Canonical())
}
