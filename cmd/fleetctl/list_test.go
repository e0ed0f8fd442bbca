package main

import (
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedLister struct {
	pages []backend.Page[backend.Record]
	fail  int
	seen  []backend.Query
}

func (p *pagedLister) List(_ context.Context, token, path string, q backend.Query) (backend.Page[backend.Record], error) {
	p.seen = append(p.seen, q)
	if p.fail > 0 && q.Page == p.fail {
		return backend.Page[backend.Record]{}, errors.New("boom")
	}
	return p.pages[q.Page-1], nil
}

func threePages() *pagedLister {
	return &pagedLister{pages: []backend.Page[backend.Record]{
		{Items: []backend.Record{{"_id": "a"}, {"_id": "b"}}, Page: 1, HasMore: true},
		{Items: []backend.Record{{"_id": "c"}, {"_id": "d"}}, Page: 2, HasMore: true},
		{Items: []backend.Record{{"_id": "e"}}, Page: 3, HasMore: false},
	}}
}

func TestFetchPagesSinglePage(t *testing.T) {
	api := threePages()
	items, last, err := fetchPages(context.Background(), api, "tok", backend.Documents, backend.Query{Page: 1, Limit: 2}, false)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.True(t, last.HasMore)
	assert.Len(t, api.seen, 1)
}

func TestFetchPagesAll(t *testing.T) {
	api := threePages()
	search := "acme"
	items, last, err := fetchPages(context.Background(), api, "tok", backend.Documents, backend.Query{Page: 1, Limit: 2, Search: &search}, true)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 3, last.Page)
	assert.False(t, last.HasMore)
	require.Len(t, api.seen, 3)
	for i, q := range api.seen {
		assert.Equal(t, i+1, q.Page)
		require.NotNil(t, q.Search)
		assert.Equal(t, "acme", *q.Search)
	}
}

func TestFetchPagesStopsOnError(t *testing.T) {
	api := threePages()
	api.fail = 2
	items, _, err := fetchPages(context.Background(), api, "tok", backend.Drivers, backend.Query{Page: 1}, true)
	require.Error(t, err)
	assert.Len(t, items, 2)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "abcd****wxyz", maskToken("abcdefghwxyz"))
}

func TestSummaryDocument(t *testing.T) {
	line := summary(backend.Documents, backend.Record{"_id": "d1", "title": "BOL", "isSeen": true, "isFlagged": true})
	assert.Contains(t, line, "d1")
	assert.Contains(t, line, "seen,flagged")
}

func TestListFilterFlags(t *testing.T) {
	f, err := filterFlags{
		unseen:   true,
		flagged:  true,
		category: "fuel",
		types:    []string{"receipt", "invoice"},
		from:     "2024-03-01",
		to:       "2024-03-31",
	}.filters()
	require.NoError(t, err)

	v := backend.Query{Page: 1, Filters: f}.Values()
	assert.Equal(t, "false", v.Get("isSeen"))
	assert.Equal(t, "true", v.Get("isFlagged"))
	assert.Equal(t, "fuel", v.Get("category"))
	assert.Equal(t, []string{"receipt", "invoice"}, v["type"])
	assert.Equal(t, "2024-03-01", v.Get("start_date"))
	assert.Equal(t, "2024-03-31", v.Get("end_date"))

	none, err := filterFlags{}.filters()
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestListFilterFlagsRejected(t *testing.T) {
	cases := map[string]filterFlags{
		"seen and unseen":       {seen: true, unseen: true},
		"flagged and unflagged": {flagged: true, unflagged: true},
		"bad date":              {from: "03/01/2024"},
		"reversed range":        {from: "2024-03-31", to: "2024-03-01"},
	}
	for name, flags := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := flags.filters()
			assert.Error(t, err)
		})
	}
}
