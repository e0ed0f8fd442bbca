package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages keeps a navigation stack over tview.Pages. Only the top of the
// stack is visible.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to receive a copy of the stack after every change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the page already on top
// does nothing.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	p.hideTop()
	p.stack = append(p.stack, name)
	p.showTop()
}

// Pop removes the top page and returns its name, "" on an empty stack.
func (p *Pages) Pop() string {
	top := p.Current()
	if top == "" {
		return ""
	}
	p.hideTop()
	p.stack = p.stack[:len(p.stack)-1]
	p.showTop()
	return top
}

// Reset replaces the whole stack with name.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = append(p.stack[:0], name)
	p.showTop()
}

// Contains reports whether name is anywhere on the stack.
func (p *Pages) Contains(name string) bool {
	return slices.Contains(p.stack, name)
}

// Current returns the top page name, "" when empty.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the stack, bottom first.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Depth returns the number of stacked pages.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) hideTop() {
	if top := p.Current(); top != "" {
		p.HidePage(top)
	}
}

func (p *Pages) showTop() {
	if top := p.Current(); top != "" {
		p.ShowPage(top)
		p.SendToFront(top)
	}
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
