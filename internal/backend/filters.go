package backend

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate reads a start_date / end_date value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseFilters reads filter terms: seen, unseen, flagged, unflagged,
// category=<name>, type=<a,b>, from=<date> and to=<date>. A later term
// overrides an earlier one of the same kind; type terms accumulate.
// No terms means no filters.
func ParseFilters(terms []string) (Filters, error) {
	var f Filters
	for _, term := range terms {
		name, value, hasValue := strings.Cut(term, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !hasValue {
			switch name {
			case "seen":
				f.IsSeen = BoolPtr(true)
			case "unseen":
				f.IsSeen = BoolPtr(false)
			case "flagged":
				f.IsFlagged = BoolPtr(true)
			case "unflagged":
				f.IsFlagged = BoolPtr(false)
			default:
				return Filters{}, fmt.Errorf("unknown filter %q", term)
			}
			continue
		}
		if value == "" {
			return Filters{}, fmt.Errorf("filter %q needs a value", name)
		}
		switch name {
		case "category":
			f.Category = value
		case "type":
			for _, t := range strings.Split(value, ",") {
				if t = strings.TrimSpace(t); t != "" {
					f.Types = append(f.Types, t)
				}
			}
		case "from":
			d, err := ParseDate(value)
			if err != nil {
				return Filters{}, err
			}
			f.StartDate = d
		case "to":
			d, err := ParseDate(value)
			if err != nil {
				return Filters{}, err
			}
			f.EndDate = d
		default:
			return Filters{}, fmt.Errorf("unknown filter %q", name)
		}
	}
	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// Validate rejects a date range that ends before it starts.
func (f Filters) Validate() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return fmt.Errorf("date range ends (%s) before it starts (%s)",
			f.EndDate.Format(DateLayout), f.StartDate.Format(DateLayout))
	}
	return nil
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.IsSeen == nil && f.IsFlagged == nil && f.Category == "" &&
		len(f.Types) == 0 && f.StartDate.IsZero() && f.EndDate.IsZero()
}

// Terms renders f in the form ParseFilters reads.
func (f Filters) Terms() []string {
	var out []string
	if f.IsSeen != nil {
		out = append(out, pick(*f.IsSeen, "seen", "unseen"))
	}
	if f.IsFlagged != nil {
		out = append(out, pick(*f.IsFlagged, "flagged", "unflagged"))
	}
	if f.Category != "" {
		out = append(out, "category="+f.Category)
	}
	if len(f.Types) > 0 {
		out = append(out, "type="+strings.Join(f.Types, ","))
	}
	if !f.StartDate.IsZero() {
		out = append(out, "from="+f.StartDate.Format(DateLayout))
	}
	if !f.EndDate.IsZero() {
		out = append(out, "to="+f.EndDate.Format(DateLayout))
	}
	return out
}

func (f Filters) String() string { return strings.Join(f.Terms(), " ") }

func pick(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
