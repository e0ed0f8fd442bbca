package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt (command or search).
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptSearch
)

const maxHistory = 32

// Prompt is a command/search input bar with per-mode history.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	history  map[PromptMode][]string
	cursor   int
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
		history:    make(map[PromptMode][]string),
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			p.Submit(p.GetText())
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyUp:
			p.SetText(p.Recall(-1))
			return nil
		case tcell.KeyDown:
			p.SetText(p.Recall(1))
			return nil
		}
		return ev
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Submit records text in the history of the current mode and fires the
// submit callback. An empty search is submitted too since it clears the
// filter; an empty command is ignored.
func (p *Prompt) Submit(text string) {
	text = strings.TrimSpace(text)
	p.SetText("")
	if text == "" && p.mode == PromptCommand {
		return
	}
	if text != "" {
		p.remember(text)
	}
	if p.onSubmit != nil {
		p.onSubmit(p.mode, text)
	}
}

func (p *Prompt) remember(text string) {
	h := p.history[p.mode]
	if n := len(h); n > 0 && h[n-1] == text {
		p.cursor = n
		return
	}
	h = append(h, text)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	p.history[p.mode] = h
	p.cursor = len(h)
}

// Recall moves through the history of the current mode and returns the
// entry under the cursor. Moving past the newest entry yields "".
func (p *Prompt) Recall(delta int) string {
	h := p.history[p.mode]
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(h) {
		p.cursor = len(h)
		return ""
	}
	return h[p.cursor]
}

// History returns the entries recorded for mode, oldest first.
func (p *Prompt) History(mode PromptMode) []string {
	return append([]string(nil), p.history[mode]...)
}

// Activate shows the prompt in the specified mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.cursor = len(p.history[mode])
	p.SetText("")
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptSearch:
		p.SetLabel("/")
		p.SetTitle(" Search ")
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
