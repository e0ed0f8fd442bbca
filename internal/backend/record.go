package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one entity as returned by the REST backend. Numbers are kept as
// json.Number so identifiers never lose precision.
type Record map[string]any

// decodeRecord decodes a JSON object, returning ok=false for anything else.
func decodeRecord(raw json.RawMessage) (Record, bool) {
	if firstByte(raw) != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, false
	}
	return r, true
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of r with key set to v.
func (r Record) With(key string, v any) Record {
	out := r.Clone()
	out[key] = v
	return out
}

// Has reports whether key is present, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the first non-empty value among keys rendered as text.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		if s := scalarString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the first present boolean among keys. "true"/"false" strings
// and 0/1 numbers are accepted.
func (r Record) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		case json.Number:
			return v.String() != "0"
		}
	}
	return false
}

// Int returns the first numeric value among keys.
func (r Record) Int(keys ...string) int {
	for _, k := range keys {
		if n, ok := toInt(r[k]); ok {
			return n
		}
	}
	return 0
}

// Time parses the first timestamp among keys. RFC 3339 strings, plain dates
// and epoch milliseconds are understood. Firestore-style {"_seconds": n}
// objects are accepted as well.
func (r Record) Time(keys ...string) time.Time {
	for _, k := range keys {
		if t, ok := toTime(r[k]); ok {
			return t
		}
	}
	return time.Time{}
}

// Object returns the nested object at key, nil if absent or not an object.
func (r Record) Object(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	case json.Number, float64, int, int64:
		if ms, ok := toInt(t); ok && ms > 0 {
			return time.UnixMilli(int64(ms)), true
		}
	case map[string]any:
		if secs, ok := toInt(t["_seconds"]); ok {
			return time.Unix(int64(secs), 0), true
		}
		if secs, ok := toInt(t["seconds"]); ok {
			return time.Unix(int64(secs), 0), true
		}
	}
	return time.Time{}, false
}
