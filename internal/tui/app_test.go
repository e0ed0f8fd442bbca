package tui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestAppCommandsRegistered(t *testing.T) {
	a := NewApp(nil, Options{}, nil)
	want := []string{"documents", "drivers", "filter", "flag", "help", "quit", "search", "seen", "threads", "token"}
	got := a.commands.Names()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
	if err := a.commands.Execute("token"); err == nil {
		t.Error(":token without a value should fail")
	}
	if err := a.search("x"); err == nil {
		t.Error("search without a mounted list should fail")
	}
	if err := a.commands.Execute("filter unseen"); err == nil || !strings.Contains(err.Error(), "no list") {
		t.Errorf(":filter without a mounted list = %v", err)
	}
}

func TestAppHelpNavigation(t *testing.T) {
	a := NewApp(nil, Options{}, nil)
	a.pages.Reset("drivers")

	if ev := a.capture(key('?')); ev != nil {
		t.Fatal("? should be consumed")
	}
	if a.pages.Current() != pageHelp {
		t.Fatalf("current = %q, want help", a.pages.Current())
	}
	a.capture(key('?'))
	if a.pages.Depth() != 2 {
		t.Errorf("help pushed twice, depth = %d", a.pages.Depth())
	}

	a.capture(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	if a.pages.Current() != "drivers" {
		t.Errorf("after esc current = %q", a.pages.Current())
	}
}

func TestAppPromptTakesKeys(t *testing.T) {
	a := NewApp(nil, Options{}, nil)
	a.pages.Reset("drivers")

	a.capture(key(':'))
	if !a.typing() {
		t.Fatal("prompt should have focus")
	}
	if ev := a.capture(key('?')); ev == nil {
		t.Error("keys typed into the prompt must pass through")
	}
	if a.pages.Current() != "drivers" {
		t.Errorf("current = %q", a.pages.Current())
	}

	a.hidePrompt()
	if a.typing() {
		t.Error("list should have focus after the prompt closes")
	}
}

func TestAppMenuHints(t *testing.T) {
	a := NewApp(nil, Options{}, nil)
	a.pages.Reset("documents")
	text := a.menu.GetText(true)
	for _, want := range []string{"Mark seen", "Flag", "Help", "Quit"} {
		if !strings.Contains(text, want) {
			t.Errorf("menu missing %q:\n%s", want, text)
		}
	}
}
