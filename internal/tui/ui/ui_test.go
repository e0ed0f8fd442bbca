package ui

import (
	"strings"
	"testing"
	"time"
)

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(mode PromptMode, text string) {
		if mode == PromptSearch {
			got = append(got, "/"+text)
			return
		}
		got = append(got, ":"+text)
	})

	p.Activate(PromptCommand)
	p.Submit("drivers")
	p.Activate(PromptCommand)
	p.Submit("  ")
	p.Activate(PromptCommand)
	p.Submit("threads")
	p.Activate(PromptCommand)
	p.Submit("threads")

	p.Activate(PromptSearch)
	p.Submit("acme")
	p.Activate(PromptSearch)
	p.Submit("")

	want := []string{":drivers", ":threads", ":threads", "/acme", "/"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("submitted %v, want %v", got, want)
	}
	if h := p.History(PromptCommand); len(h) != 2 {
		t.Errorf("command history = %v", h)
	}

	p.Activate(PromptCommand)
	if s := p.Recall(-1); s != "threads" {
		t.Errorf("recall -1 = %q", s)
	}
	if s := p.Recall(-1); s != "drivers" {
		t.Errorf("recall -2 = %q", s)
	}
	if s := p.Recall(-1); s != "drivers" {
		t.Errorf("recall clamps at oldest, got %q", s)
	}
	if s := p.Recall(5); s != "" {
		t.Errorf("recall past newest = %q", s)
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var last []string
	p.SetOnChange(func(stack []string) { last = stack })
	for _, n := range []string{"drivers", "details", "help"} {
		p.AddPage(n, NewLogo(DefaultTheme()), true, false)
	}

	p.Reset("drivers")
	p.Push("details")
	p.Push("help")
	if p.Depth() != 3 || p.Current() != "help" {
		t.Fatalf("stack = %v", p.Stack())
	}
	if top := p.Pop(); top != "help" || p.Current() != "details" {
		t.Errorf("pop = %q, current = %q", top, p.Current())
	}
	if len(last) != 2 {
		t.Errorf("onChange stack = %v", last)
	}
	p.Push("details")
	if p.Depth() != 2 {
		t.Errorf("pushing the top page again changed depth to %d", p.Depth())
	}
	p.Reset("drivers")
	if p.Depth() != 1 || p.Contains("details") {
		t.Errorf("reset depth = %d", p.Depth())
	}
}

func TestMenuLayoutColumns(t *testing.T) {
	m := NewMenu(DefaultTheme(), 2)
	out := m.layout([]MenuHint{
		{Key: "a", Description: "One"},
		{Key: "b", Description: "Two"},
		{Key: "c", Description: "Three"},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "One") || !strings.Contains(lines[0], "Three") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Two") {
		t.Errorf("second row = %q", lines[1])
	}
}

func TestHintsFromDedupes(t *testing.T) {
	got := HintsFrom(
		[]MenuHint{{Key: "r", Description: "Refresh"}},
		[]MenuHint{{Key: "r", Description: "Other"}, {Key: "q", Description: "Quit"}},
	)
	if len(got) != 2 || got[0].Description != "Refresh" || got[1].Key != "q" {
		t.Errorf("hints = %+v", got)
	}
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	f.Info("driver removed")
	if m := f.GetMessage(); m == nil || m.Text != "driver removed" {
		t.Fatalf("message = %+v", m)
	}
	now = now.Add(flashTTL[FlashInfo])
	if m := f.GetMessage(); m != nil {
		t.Errorf("expired message still shown: %+v", m)
	}

	select {
	case m := <-f.Watch():
		if m.Level != FlashInfo {
			t.Errorf("watched level = %v", m.Level)
		}
	default:
		t.Error("watch channel should hold the posted message")
	}
}

func TestCrumbsRender(t *testing.T) {
	c := NewCrumbs(DefaultTheme())
	out := c.render([]string{"drivers", "details"})
	if !strings.Contains(out, "<Drivers>") || !strings.Contains(out, "<Details>") {
		t.Errorf("crumbs = %q", out)
	}
	c.SetLabeler(strings.ToUpper)
	if out := c.render([]string{"help"}); !strings.Contains(out, "<HELP>") {
		t.Errorf("labeled crumbs = %q", out)
	}
}

func TestThemeNamed(t *testing.T) {
	for _, name := range []string{"", "dark", "Light"} {
		if _, err := ThemeNamed(name); err != nil {
			t.Errorf("ThemeNamed(%q): %v", name, err)
		}
	}
	if _, err := ThemeNamed("neon"); err == nil {
		t.Error("unknown theme should fail")
	}
	th := DefaultTheme()
	if th.StatusColor("READY") != th.ReadyColor || th.StatusColor("AUTH_REQUIRED") != th.AttentionColor || th.StatusColor("RECONNECTING") != th.PendingColor {
		t.Error("status colors mismatch")
	}
}

func TestFlashClear(t *testing.T) {
	f := NewFlashModel()
	f.Warn("feed reconnecting")
	if m := f.GetMessage(); m == nil || m.Level != FlashWarn {
		t.Fatalf("message = %+v", m)
	}
	f.Clear()
	if m := f.GetMessage(); m != nil {
		t.Errorf("after clear = %+v", m)
	}
}
