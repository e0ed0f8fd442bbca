package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingWinsOverGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Name: "refresh", Key: tcell.KeyRune, Rune: 'r', Handler: func() { got = "global" }})
	r.AddView("documents", &Action{Name: "reload", Key: tcell.KeyRune, Rune: 'r', Handler: func() { got = "view" }})

	if !r.HandleEvent("documents", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)) {
		t.Fatal("expected a match")
	}
	if got != "view" {
		t.Errorf("handler = %q, want view", got)
	}

	if !r.HandleEvent("drivers", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)) {
		t.Fatal("expected the global binding to match")
	}
	if got != "global" {
		t.Errorf("handler = %q, want global", got)
	}

	if r.HandleEvent("drivers", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key should not match")
	}
}

func TestSpecialKeys(t *testing.T) {
	r := NewRegistry()
	called := false
	r.AddView("drivers", &Action{Name: "remove", Key: tcell.KeyCtrlD, Handler: func() { called = true }})

	if !r.HandleEvent("drivers", tcell.NewEventKey(tcell.KeyCtrlD, 0, tcell.ModCtrl)) || !called {
		t.Error("ctrl-d should trigger remove")
	}
}

func TestHintsAreOrdered(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Name: "quit", Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true})
	r.AddGlobal(&Action{Name: "help", Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true})
	r.AddGlobal(&Action{Name: "hidden", Key: tcell.KeyRune, Rune: 'z'})
	r.AddView("documents", &Action{Name: "seen", Key: tcell.KeyRune, Rune: 'v', Description: "Mark seen", Visible: true})
	r.AddView("documents", &Action{Name: "remove", Key: tcell.KeyCtrlD, Label: "ctrl-d", Description: "Remove", Visible: true})

	for i := 0; i < 5; i++ {
		hints := r.Hints("documents")
		want := []Hint{
			{"v", "Mark seen"}, {"ctrl-d", "Remove"}, {"q", "Quit"}, {"?", "Help"},
		}
		if len(hints) != len(want) {
			t.Fatalf("got %d hints, want %d", len(hints), len(want))
		}
		for j := range want {
			if hints[j] != want[j] {
				t.Errorf("hint %d = %+v, want %+v", j, hints[j], want[j])
			}
		}
	}
}

func TestAddReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Name: "quit", Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true})
	r.AddGlobal(&Action{Name: "quit", Key: tcell.KeyRune, Rune: 'Q', Description: "Exit", Visible: true})

	hints := r.Hints("any")
	if len(hints) != 1 || hints[0].Key != "Q" {
		t.Errorf("hints = %+v", hints)
	}
}
