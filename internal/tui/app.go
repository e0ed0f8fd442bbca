package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/tui/keys"
	"github.com/matheus3301/fleetdesk/internal/tui/model"
	"github.com/matheus3301/fleetdesk/internal/tui/ui"
	"github.com/matheus3301/fleetdesk/internal/tui/views"
	"github.com/matheus3301/fleetdesk/internal/unread"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageDetails = "details"
	pageHelp    = "help"
	pageAuth    = "auth"

	headerRows = 6
)

// Options configure the application shell.
type Options struct {
	Session      string
	InviteURL    string
	RefreshEvery time.Duration
	Theme        string
}

// mounted is the list page currently on screen.
type mounted struct {
	list    *model.List
	view    *views.ResourceList
	watcher *unread.Watcher
	unread  chan struct{}
	cancel  context.CancelFunc
}

// App is the main TUI application shell.
type App struct {
	app    *tview.Application
	theme  *ui.Theme
	vm     *model.ViewModel
	opts   Options
	logger *zap.Logger

	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	pages    *ui.Pages
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	prompt   *ui.Prompt
	body     *tview.Flex

	lists   map[string]*views.ResourceList
	details *views.Details
	help    *views.HelpView
	token   *views.TokenView

	registry *keys.Registry
	commands *Commands

	mu     sync.Mutex
	active *mounted

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(vm *model.ViewModel, opts Options, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme, err := ui.ThemeNamed(opts.Theme)
	if err != nil {
		logger.Warn("falling back to the default theme", zap.Error(err))
		theme = ui.DefaultTheme()
	}

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		vm:       vm,
		opts:     opts,
		logger:   logger,
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme, headerRows),
		crumbs:   ui.NewCrumbs(theme),
		pages:    ui.NewPages(),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		lists:    make(map[string]*views.ResourceList),
		details:  views.NewDetails(theme, opts.InviteURL),
		help:     views.NewHelpView(theme),
		token:    views.NewTokenView(theme),
		registry: keys.NewRegistry(),
		commands: newCommands(),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupPages()
	a.setupBindings()
	a.setupCommands()
	a.setupLayout()
	return a
}

func (a *App) setupPages() {
	for _, res := range backend.Resources {
		rl := views.NewResourceList(a.theme, res)
		name := res.Name
		rl.SetSelectionChangedFunc(func(row, _ int) {
			a.selectionMoved(name, row-1)
		})
		rl.SetSelectedFunc(func(int, int) { a.showDetails() })
		a.lists[name] = rl
		a.pages.AddPage(name, rl, true, false)
	}
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)
	a.pages.AddPage(pageAuth, a.token, true, false)

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.updateMenu()
	})

	a.token.SetOnSubmit(func(tok string) { a.submitToken(tok) })
}

func (a *App) setupBindings() {
	bind := func(name string, r rune, desc string, visible bool, fn func()) *keys.Action {
		return &keys.Action{Name: name, Key: tcell.KeyRune, Rune: r, Description: desc, Visible: visible, Handler: fn}
	}

	a.registry.AddGlobal(bind("command", ':', "Command", false, func() { a.showPrompt(ui.PromptCommand) }))
	a.registry.AddGlobal(bind("search", '/', "Search", false, func() { a.showPrompt(ui.PromptSearch) }))
	a.registry.AddGlobal(bind("help", '?', "Help", true, a.showHelp))
	a.registry.AddGlobal(bind("refresh", 'r', "Refresh", false, a.refreshActive))
	a.registry.AddGlobal(bind("quit", 'q', "Quit", true, a.back))
	for i, res := range backend.Resources {
		res := res
		a.registry.AddGlobal(bind(res.Name, rune('1'+i), res.Name, false, func() { a.mountList(res) }))
	}

	a.registry.AddView(backend.Documents.Name, bind("seen", 'v', "Mark seen", false, a.markSeen))
	a.registry.AddView(backend.Documents.Name, bind("flag", 'f', "Flag", false, a.toggleFlag))
	a.registry.AddView(backend.Drivers.Name, &keys.Action{
		Name: "remove", Key: tcell.KeyCtrlD, Label: "ctrl-d", Description: "Remove", Handler: a.removeDriver,
	})
}

func (a *App) setupCommands() {
	for _, res := range backend.Resources {
		res := res
		a.commands.register(res.Name, []string{res.Name[:2]}, false, func(string) error {
			a.mountList(res)
			return nil
		})
	}
	a.commands.register("search", []string{"s"}, false, func(q string) error {
		return a.search(q)
	})
	a.commands.register("filter", nil, false, func(arg string) error {
		return a.filter(arg)
	})
	a.commands.register("seen", nil, false, func(string) error {
		a.markSeen()
		return nil
	})
	a.commands.register("flag", nil, false, func(string) error {
		a.toggleFlag()
		return nil
	})
	a.commands.register("token", nil, true, func(tok string) error {
		a.submitToken(tok)
		return nil
	})
	a.commands.register("help", []string{"h"}, false, func(string) error {
		a.showHelp()
		return nil
	})
	a.commands.register("quit", []string{"q"}, false, func(string) error {
		a.Stop()
		return nil
	})
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(ui.NewLogo(a.theme), ui.LogoWidth, 0, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerRows, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.body.SetBackgroundColor(a.theme.BgColor)

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		a.runPrompt(mode, text)
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.app.SetRoot(a.body, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.typing() {
		if ev.Key() == tcell.KeyEscape && a.pages.Current() == pageAuth {
			a.back()
			return nil
		}
		return ev
	}
	if ev.Key() == tcell.KeyEscape {
		if a.pages.Depth() > 1 {
			a.back()
		}
		return nil
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

// typing reports whether keys belong to a text field.
func (a *App) typing() bool {
	switch f := a.app.GetFocus().(type) {
	case *ui.Prompt:
		return true
	case *tview.InputField:
		return f != nil
	}
	return false
}

func (a *App) runPrompt(mode ui.PromptMode, text string) {
	var err error
	switch mode {
	case ui.PromptSearch:
		err = a.search(text)
	case ui.PromptCommand:
		err = a.commands.Execute(text)
	}
	if err != nil {
		a.flash.Err(err)
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.body.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.body.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	switch cur := a.pages.Current(); cur {
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageHelp:
		a.app.SetFocus(a.help)
	case pageAuth:
		a.app.SetFocus(a.token.Input())
	default:
		if rl, ok := a.lists[cur]; ok {
			a.app.SetFocus(rl)
		}
	}
}

func (a *App) component(page string) ui.Component {
	switch page {
	case pageDetails:
		return a.details
	case pageHelp:
		return a.help
	case pageAuth:
		return a.token
	}
	if rl, ok := a.lists[page]; ok {
		return rl
	}
	return nil
}

func (a *App) updateMenu() {
	var own []ui.MenuHint
	if c := a.component(a.pages.Current()); c != nil {
		own = c.Hints()
	}
	var bound []ui.MenuHint
	for _, h := range a.registry.Hints(a.pages.Current()) {
		bound = append(bound, ui.MenuHint{Key: h.Key, Description: h.Description})
	}
	a.menu.Update(ui.HintsFrom(own, bound))
}

// back pops the page stack; on the last list page it quits.
func (a *App) back() {
	if a.pages.Depth() <= 1 {
		a.Stop()
		return
	}
	a.pages.Pop()
	a.focusCurrent()
}

func (a *App) showHelp() {
	if a.pages.Current() == pageHelp {
		return
	}
	a.pages.Push(pageHelp)
	a.focusCurrent()
}

// mountList closes the current list and mounts a fresh one for res.
func (a *App) mountList(res backend.Resource) {
	a.mu.Lock()
	if a.active != nil && a.active.list.Resource.Name == res.Name {
		a.mu.Unlock()
		a.pages.Reset(res.Name)
		a.focusCurrent()
		return
	}
	old := a.active
	ctx, cancel := context.WithCancel(a.ctx)
	m := &mounted{
		list:   a.vm.NewList(res, a.listError),
		view:   a.lists[res.Name],
		unread: make(chan struct{}, 1),
		cancel: cancel,
	}
	if res.Name == backend.Threads.Name {
		m.watcher = unread.NewWatcher(a.vm.Unread, func(string, int) {
			select {
			case m.unread <- struct{}{}:
			default:
			}
		})
	}
	a.active = m
	a.mu.Unlock()

	if old != nil {
		a.unmount(old)
	}

	a.render(m)
	a.pages.Reset(res.Name)
	a.focusCurrent()

	go a.follow(ctx, m)
	go func() {
		if _, err := m.list.Evaluate(ctx); err != nil {
			a.logger.Debug("initial load failed", zap.String("resource", res.Name), zap.Error(err))
		}
	}()
}

func (a *App) unmount(m *mounted) {
	m.cancel()
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.list.Close()
}

// follow redraws m whenever its cache or a watched unread count changes.
func (a *App) follow(ctx context.Context, m *mounted) {
	changes := m.list.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		case <-m.unread:
		}
		a.app.QueueUpdateDraw(func() {
			if a.current() == m {
				a.render(m)
			}
		})
	}
}

func (a *App) current() *mounted {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// render must run on the UI goroutine.
func (a *App) render(m *mounted) {
	m.view.Update(m.list.Snapshot(), m.list.SearchText(), a.unreadFor(m))
	if m.watcher != nil {
		m.watcher.Sync(m.view.VisibleKeys())
	}
}

func (a *App) unreadFor(m *mounted) views.UnreadFunc {
	if m.list.Resource.Name != backend.Threads.Name {
		return nil
	}
	return a.vm.Unread.Count
}

func (a *App) selectionMoved(page string, index int) {
	m := a.current()
	if m == nil || m.list.Resource.Name != page || index < 0 {
		return
	}
	if m.watcher != nil {
		m.watcher.Sync(m.view.VisibleKeys())
	}
	ctx := a.ctx
	go func() {
		if _, err := m.list.SelectionMoved(ctx, index); err != nil {
			a.logger.Debug("next page failed", zap.Error(err))
		}
	}()
}

func (a *App) listError(err error) {
	if err == nil || a.ctx.Err() != nil {
		return
	}
	a.flash.Err(err)
}

func (a *App) search(q string) error {
	m := a.current()
	if m == nil {
		return fmt.Errorf("no list to search")
	}
	m.list.SetSearch(q)
	if q == "" {
		a.flash.Info("search cleared")
	}
	return nil
}

// filter replaces the active list's filters; no terms clears them.
func (a *App) filter(arg string) error {
	m := a.current()
	if m == nil {
		return fmt.Errorf("no list to filter")
	}
	f, err := backend.ParseFilters(strings.Fields(arg))
	if err != nil {
		return err
	}
	go func() {
		if _, err := m.list.SetFilters(a.ctx, f); err != nil {
			a.listError(err)
			return
		}
		if f.IsZero() {
			a.flash.Info("filters cleared")
		} else {
			a.flash.Info("filter: " + f.String())
		}
	}()
	return nil
}

func (a *App) refreshActive() {
	m := a.current()
	if m == nil {
		return
	}
	go func() {
		if _, err := m.list.Refresh(a.ctx); err != nil {
			return
		}
		a.flash.Info(m.list.Resource.Name + " refreshed")
	}()
}

// selected returns the active list and its selected key when the list
// page is on top.
func (a *App) selected() (*mounted, string, bool) {
	m := a.current()
	if m == nil || a.pages.Current() != m.list.Resource.Name {
		return nil, "", false
	}
	key := m.view.SelectedKey()
	return m, key, key != ""
}

func (a *App) showDetails() {
	m, key, ok := a.selected()
	if !ok {
		return
	}
	r, ok := m.list.Get(key)
	if !ok {
		return
	}
	a.details.Update(m.list.Resource, r, a.vm.Unread.Count(key))
	a.pages.Push(pageDetails)
	a.focusCurrent()
}

func (a *App) markSeen() {
	a.pointUpdate("marked seen", (*model.List).MarkSeen)
}

func (a *App) toggleFlag() {
	a.pointUpdate("flag toggled", (*model.List).ToggleFlag)
}

func (a *App) removeDriver() {
	a.pointUpdate("removal queued", (*model.List).Remove)
}

func (a *App) pointUpdate(done string, fn func(*model.List, context.Context, string) error) {
	m, key, ok := a.selected()
	if !ok {
		return
	}
	go func() {
		if err := fn(m.list, a.ctx, key); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info(fmt.Sprintf("%s: %s", key, done))
	}()
}

// writeSettled undoes the optimistic change of a write the backend refused.
func (a *App) writeSettled(ev rpc.WriteEvent) {
	m := a.current()
	if m == nil {
		return
	}
	undone, err := m.list.Settle(a.ctx, ev)
	if !undone {
		return
	}
	msg := fmt.Sprintf("%s %s: change undone: %s", m.list.Resource.Name, ev.ItemID, ev.Error)
	if err != nil {
		msg += " (refresh failed: " + err.Error() + ")"
	}
	a.flash.Err(errors.New(msg))
}

func (a *App) submitToken(tok string) {
	go func() {
		if err := a.vm.SetToken(a.ctx, tok); err != nil {
			a.app.QueueUpdateDraw(func() {
				a.token.ShowMessage("\n\nToken rejected: " + err.Error())
			})
			return
		}
		a.flash.Info("token saved")
		a.app.QueueUpdateDraw(func() {
			if a.pages.Current() == pageAuth {
				a.back()
			}
			a.refreshActive()
		})
	}()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.mountList(backend.Drivers)
	a.updateMenu()

	go a.vm.FollowUnread(a.ctx)
	go a.vm.FollowWrites(a.ctx, a.writeSettled)
	go a.watchFlash()
	go a.refreshLoop()

	err := a.app.Run()
	a.cancel()
	if m := a.current(); m != nil {
		a.unmount(m)
	}
	return err
}

func (a *App) watchFlash() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.flash.GetMessage())
			})
		}
	}
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(a.opts.RefreshEvery)
	defer ticker.Stop()
	a.refreshStatus()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.refreshStatus()
			if m := a.current(); m != nil {
				if _, err := m.list.Tick(a.ctx); err != nil {
					a.logger.Debug("stale refresh failed", zap.Error(err))
				}
			}
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.renderStatus)
		}
	}
}

// refreshStatus reloads the daemon status; a successful load signals
// RefreshCh, which redraws the header.
func (a *App) refreshStatus() {
	if err := a.vm.LoadStatus(a.ctx); err != nil && a.ctx.Err() == nil {
		a.flash.Warn("daemon unreachable: " + err.Error())
	}
}

// renderStatus must run on the UI goroutine.
func (a *App) renderStatus() {
	a.flashBar.Update(a.flash.GetMessage())

	st := a.vm.Status()
	if st == nil {
		return
	}
	feed := "disabled"
	if st.Feed.Enabled {
		feed = st.Feed.State
	}
	a.info.Update(&ui.SessionData{
		Session:       st.Session,
		API:           st.APIURL,
		Status:        st.State,
		Feed:          feed,
		Unread:        st.TotalUnread,
		PendingWrites: st.PendingWrites,
		Uptime:        time.Since(st.StartedAt),
	})

	switch cur := a.pages.Current(); {
	case a.vm.AuthRequired() && cur != pageAuth:
		a.pages.Push(pageAuth)
		a.focusCurrent()
	case !a.vm.AuthRequired() && cur == pageAuth:
		a.back()
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
