package model

import (
	"context"
	"sync"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/tui/client"
	"github.com/matheus3301/fleetdesk/internal/unread"
	"go.uber.org/zap"
)

// ViewModel caches daemon state for the UI and signals refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client *client.Client
	opts   ListOptions
	logger *zap.Logger
	status *rpc.Status

	Unread *unread.Hub

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c *client.Client, opts ListOptions, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewModel{
		client:    c,
		opts:      opts,
		logger:    logger,
		Unread:    unread.NewHub(logger.Named("unread")),
		refreshCh: make(chan struct{}, 1),
	}
}

// Client returns the daemon/backend client.
func (vm *ViewModel) Client() *client.Client { return vm.client }

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadStatus fetches the daemon status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	st, err := vm.client.Status(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = &st
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Status returns the last loaded status, nil before the first load.
func (vm *ViewModel) Status() *rpc.Status {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// AuthRequired reports whether the daemon is waiting for a token.
func (vm *ViewModel) AuthRequired() bool {
	st := vm.Status()
	return st != nil && st.State == "AUTH_REQUIRED"
}

// SetToken stores a token in the daemon and reloads the status.
func (vm *ViewModel) SetToken(ctx context.Context, token string) error {
	if err := vm.client.SetToken(ctx, token); err != nil {
		return err
	}
	return vm.LoadStatus(ctx)
}

// FollowUnread feeds the unread hub from the daemon until ctx is done.
func (vm *ViewModel) FollowUnread(ctx context.Context) {
	vm.client.FollowUnread(ctx, vm.Unread, 0)
}

// FollowWrites passes write outcomes from the daemon to fn until ctx is done.
func (vm *ViewModel) FollowWrites(ctx context.Context, fn func(rpc.WriteEvent)) {
	vm.client.FollowWrites(ctx, fn, 0)
}

// NewList mounts a list for res.
func (vm *ViewModel) NewList(res backend.Resource, onError func(error)) *List {
	return NewList(vm.client.API(), vm.client, vm.client.Token, res, vm.opts, onError, vm.logger)
}
