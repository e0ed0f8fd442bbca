package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/fleetdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// TokenView asks for the API token when the daemon has none.
type TokenView struct {
	*tview.Flex
	theme    *ui.Theme
	message  *tview.TextView
	input    *tview.InputField
	onSubmit func(token string)
}

// NewTokenView creates a new token view.
func NewTokenView(theme *ui.Theme) *TokenView {
	msg := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	msg.SetBackgroundColor(theme.BgColor)
	msg.SetTextColor(theme.FgColor)

	input := tview.NewInputField().
		SetLabel(" Token: ").
		SetMaskCharacter('*').
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(msg, 0, 1, false).
		AddItem(input, 1, 0, true)
	flex.SetBorder(true)
	flex.SetBorderColor(theme.BorderColor)
	flex.SetBackgroundColor(theme.BgColor)
	flex.SetTitle(" Authentication Required ")
	flex.SetTitleColor(theme.TitleColor)

	tv := &TokenView{
		Flex:    flex,
		theme:   theme,
		message: msg,
		input:   input,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		tok := strings.TrimSpace(input.GetText())
		input.SetText("")
		if tok != "" && tv.onSubmit != nil {
			tv.onSubmit(tok)
		}
	})
	tv.ShowMessage("\n\nThe daemon has no API token for this session.\nPaste one below and press Enter.")
	return tv
}

// Name implements Component.
func (tv *TokenView) Name() string { return "Auth" }

// Init implements Component.
func (tv *TokenView) Init() {}

// Start implements Component.
func (tv *TokenView) Start() {}

// Stop implements Component.
func (tv *TokenView) Stop() {}

// Hints implements Component.
func (tv *TokenView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Save token"},
		{Key: "Esc", Description: "Back"},
	}
}

// Input returns the token field for focusing.
func (tv *TokenView) Input() *tview.InputField { return tv.input }

// SetOnSubmit sets the callback for an entered token.
func (tv *TokenView) SetOnSubmit(fn func(token string)) { tv.onSubmit = fn }

// ShowMessage displays a status message above the input.
func (tv *TokenView) ShowMessage(msg string) {
	tv.message.Clear()
	_, _ = tv.message.Write([]byte(msg))
}
