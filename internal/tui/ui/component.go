package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// HintsFrom concatenates hint sets, dropping later duplicates of a key.
func HintsFrom(sets ...[]MenuHint) []MenuHint {
	seen := make(map[string]bool)
	var out []MenuHint
	for _, set := range sets {
		for _, h := range set {
			if seen[h.Key] {
				continue
			}
			seen[h.Key] = true
			out = append(out, h)
		}
	}
	return out
}

// Component is the lifecycle interface for all TUI views.
type Component interface {
	Name() string
	Init()
	Start()
	Stop()
	Hints() []MenuHint
}
