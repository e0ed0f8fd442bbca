package backend

import (
	"bytes"
	"encoding/json"
)

// ItemKeys are the candidate keys of the item array, in lookup order.
var ItemKeys = []string{"items", "users", "documents", "threads", "chatThreads", "data", "results"}

// PaginationKeys are the candidate keys of the pagination object, in lookup order.
var PaginationKeys = []string{"pagination", "meta", "pageInfo"}

var totalKeys = []string{"totalDocuments", "total", "totalCount"}

// Page is the canonical shape of one list response.
type Page[T any] struct {
	Items      []T
	HasMore    bool
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Normalize converts a 2xx list body into a Page. It never fails: an
// unexpected shape degrades to zero items. Missing page and limit fall back
// to the requested values; a missing hasMore is derived as len(items) >= limit.
func Normalize(body []byte, req Query) Page[Record] {
	return NormalizeWith(body, req, ItemKeys)
}

// NormalizeWith is Normalize with a custom item key list.
func NormalizeWith(body []byte, req Query, itemKeys []string) Page[Record] {
	page := Page[Record]{Items: []Record{}, Page: req.Page, Limit: req.Limit}
	if page.Page < 1 {
		page.Page = 1
	}

	var top map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&top); err != nil {
		return page
	}

	for _, key := range itemKeys {
		raw, ok := top[key]
		if !ok || firstByte(raw) != '[' {
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			continue
		}
		for _, e := range elems {
			if r, ok := decodeRecord(e); ok {
				page.Items = append(page.Items, r)
			}
		}
		break
	}

	var hasMore *bool
	for _, key := range PaginationKeys {
		p, ok := decodeRecord(top[key])
		if !ok {
			continue
		}
		if n, ok := toInt(p["page"]); ok && n > 0 {
			page.Page = n
		}
		if n, ok := toInt(p["limit"]); ok && n > 0 {
			page.Limit = n
		}
		for _, tk := range totalKeys {
			if n, ok := toInt(p[tk]); ok {
				page.Total = n
				break
			}
		}
		if n, ok := toInt(p["totalPages"]); ok {
			page.TotalPages = n
		}
		if b, ok := p["hasMore"].(bool); ok {
			hasMore = &b
		}
		break
	}

	if hasMore != nil {
		page.HasMore = *hasMore
	} else {
		page.HasMore = page.Limit > 0 && len(page.Items) >= page.Limit
	}
	return page
}
