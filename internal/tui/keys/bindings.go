package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Hint is a visible binding as shown in the menu.
type Hint struct {
	Key         string
	Description string
}

// Registry holds keybindings organized by scope. Bindings keep their
// registration order so hints render the same way every time.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a global keybinding. A binding with the same name
// replaces the earlier one.
func (r *Registry) AddGlobal(action *Action) {
	r.global = upsert(r.global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	r.views[view] = upsert(r.views[view], action)
}

func upsert(list []*Action, a *Action) []*Action {
	for i, cur := range list {
		if cur.Name == a.Name {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

// Hints returns visible keybindings for a view, view bindings first.
func (r *Registry) Hints(view string) []Hint {
	var hints []Hint
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if a.Visible {
				hints = append(hints, Hint{Key: a.label(), Description: a.Description})
			}
		}
	}
	return hints
}

func (a *Action) label() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	if name, ok := tcell.KeyNames[a.Key]; ok {
		return name
	}
	return "?"
}

// HandleEvent dispatches a key event to matching action in the given view.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if a.Matches(ev) {
				if a.Handler != nil {
					a.Handler()
				}
				return true
			}
		}
	}
	return false
}
