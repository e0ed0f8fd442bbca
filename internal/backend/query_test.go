package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryValuesSearchPresence(t *testing.T) {
	tests := []struct {
		name       string
		search     *string
		wantSearch bool
		wantValue  string
	}{
		{"absent", nil, false, ""},
		{"empty string is still sent", StringPtr(""), true, ""},
		{"trimmed", StringPtr("  smith "), true, "smith"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Query{Page: 1, Limit: 20, Search: tt.search}.Values()
			_, ok := v["search"]
			assert.Equal(t, tt.wantSearch, ok)
			assert.Equal(t, tt.wantValue, v.Get("search"))
		})
	}
}

func TestQueryValuesFilters(t *testing.T) {
	q := Query{
		Page:  2,
		Limit: 10,
		Filters: Filters{
			IsSeen:    BoolPtr(false),
			IsFlagged: BoolPtr(true),
			Category:  "compliance",
			Types:     []string{"bol", "pod"},
			StartDate: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	v := q.Values()

	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "10", v.Get("limit"))
	assert.Equal(t, "false", v.Get("isSeen"))
	assert.Equal(t, "true", v.Get("isFlagged"))
	assert.Equal(t, "compliance", v.Get("category"))
	assert.Equal(t, []string{"bol", "pod"}, v["type"])
	assert.Equal(t, "2024-03-01", v.Get("start_date"))
	assert.Equal(t, "2024-03-31", v.Get("end_date"))
}

func TestQueryValuesOmitsUnsetFilters(t *testing.T) {
	v := Query{Limit: 5}.Values()
	assert.Equal(t, "1", v.Get("page"), "page is clamped to 1")
	for _, key := range []string{"search", "isSeen", "isFlagged", "category", "type", "start_date", "end_date"} {
		_, ok := v[key]
		assert.False(t, ok, "unexpected %s param", key)
	}
}
