package daemon

import (
	"context"
	"errors"

	"github.com/matheus3301/fleetdesk/internal/api"
	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/bus"
	"github.com/matheus3301/fleetdesk/internal/config"
	"github.com/matheus3301/fleetdesk/internal/lock"
	"github.com/matheus3301/fleetdesk/internal/logging"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/matheus3301/fleetdesk/internal/outbox"
	"github.com/matheus3301/fleetdesk/internal/realtime"
	"github.com/matheus3301/fleetdesk/internal/session"
	"github.com/matheus3301/fleetdesk/internal/status"
	"github.com/matheus3301/fleetdesk/internal/store"
	intsync "github.com/matheus3301/fleetdesk/internal/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string         // optional override for testing; empty = use default
	Config      *config.Config // optional; nil = load from disk and environment
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRegistry,
			provideMetricsServer,
			provideTokenSource,
			provideBackend,
			provideFeed,
			provideSyncEngine,
			provideSender,
			provideDriver,
			provideServices,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	return session.LoadConfig(p.SessionName)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName, "fleetd"), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its holder.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))

	if tok := config.TokenFromEnv(); tok != "" {
		if _, err := db.Token(p.SessionName); errors.Is(err, store.ErrNoToken) {
			if err := db.SetToken(p.SessionName, tok); err != nil {
				_ = db.Close()
				return nil, err
			}
			logger.Info("api token bootstrapped from environment")
		}
	}
	return db, nil
}

func provideRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func provideMetricsServer(cfg *config.Config, reg *prometheus.Registry, logger *zap.Logger) *metrics.Server {
	return metrics.NewServer(cfg.Daemon.MetricsAddr, reg, logger)
}

func provideTokenSource(p Params, db *store.DB) *store.TokenSource {
	return store.NewTokenSource(db, p.SessionName)
}

func provideBackend(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.New(cfg.API.BaseURL,
		backend.WithTimeout(cfg.API.Timeout.Duration),
		backend.WithLogger(logger.Named("backend")),
	)
}

func provideFeed(cfg *config.Config, tokens *store.TokenSource, b *bus.Bus, logger *zap.Logger) *realtime.Feed {
	return realtime.New(realtime.Config{
		URL:    cfg.API.RealtimeURL,
		Tokens: tokens,
		Logger: logger.Named("realtime"),
	}, b)
}

func provideSyncEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, logger)
}

func provideSender(cfg *config.Config, db *store.DB, client *backend.Client, tokens *store.TokenSource, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, client, tokens, b, outbox.Options{
		Poll:       cfg.Daemon.WritePoll.Duration,
		MaxRetries: cfg.Daemon.WriteRetries,
	}, logger.Named("outbox"))
}

func provideDriver(p Params, m *status.Machine, b *bus.Bus, db *store.DB, logger *zap.Logger) *status.Driver {
	return status.NewDriver(m, b, func() bool { return hasToken(db, p.SessionName) }, logger)
}

func provideServices(p Params, cfg *config.Config, m *status.Machine, db *store.DB, feed *realtime.Feed, b *bus.Bus, sender *outbox.Sender, logger *zap.Logger) Services {
	return Services{
		Session: api.NewSessionService(p.SessionName, cfg.API.BaseURL, m, db, feed, logger),
		Feed:    api.NewFeedService(feed),
		Unread:  api.NewUnreadService(db, b),
		Write:   api.NewWriteService(db, sender, b),
	}
}

func hasToken(db *store.DB, sessionName string) bool {
	_, err := db.Token(sessionName)
	return err == nil
}

type lifecycleDeps struct {
	fx.In

	Params  Params
	Config  *config.Config
	Server  *Server
	Metrics *metrics.Server
	Lock    *lock.Lock
	DB      *store.DB
	Feed    *realtime.Feed
	Engine  *intsync.Engine
	Sender  *outbox.Sender
	Driver  *status.Driver
	Machine *status.Machine
	Logger  *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, d lifecycleDeps) {
	logger := d.Logger
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Subscribers first, so no realtime event is missed.
			d.Engine.Start(context.Background())
			d.Driver.Start(context.Background())

			go func() {
				if err := d.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			if d.Config.Daemon.MetricsAddr != "" {
				d.Metrics.Start()
			}

			d.Sender.Start(context.Background())

			switch {
			case !hasToken(d.DB, d.Params.SessionName):
				logger.Info("no api token stored, auth required")
				_ = d.Machine.Transition(status.AuthRequired)
			case !d.Feed.Enabled():
				logger.Info("realtime url not configured, running degraded")
				_ = d.Machine.Transition(status.Degraded)
			default:
				if err := d.Feed.Start(context.Background()); err != nil {
					logger.Error("realtime feed start failed", zap.Error(err))
					_ = d.Machine.Transition(status.Error)
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Feed.Stop()
			d.Sender.Stop()
			d.Driver.Stop()
			d.Engine.Stop()
			d.Server.Stop(ctx)
			if d.Config.Daemon.MetricsAddr != "" {
				if err := d.Metrics.Stop(ctx); err != nil {
					logger.Warn("error stopping metrics server", zap.Error(err))
				}
			}
			if err := d.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := d.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
