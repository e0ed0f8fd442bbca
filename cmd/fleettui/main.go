package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/logging"
	"github.com/matheus3301/fleetdesk/internal/metrics"
	"github.com/matheus3301/fleetdesk/internal/session"
	"github.com/matheus3301/fleetdesk/internal/tui"
	"github.com/matheus3301/fleetdesk/internal/tui/client"
	"github.com/matheus3301/fleetdesk/internal/tui/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := run(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sessionName string) error {
	cfg, err := session.LoadConfig(sessionName)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := session.EnsureDir(sessionName); err != nil {
		return err
	}
	// The terminal belongs to tview, so the TUI logs to its file only.
	logger, err := logging.NewFileOnly(session.LogPath(sessionName, "fleettui"), sessionName)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	socketPath := session.SocketPath(sessionName)

	// Probe daemon health; auto-start if needed.
	if !daemonServing(socketPath) {
		fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
		if err := startDaemon(sessionName); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		if !waitForDaemon(socketPath, 10*time.Second) {
			return fmt.Errorf("daemon did not become ready")
		}
	}

	if cfg.TUI.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			return err
		}
		srv := metrics.NewServer(cfg.TUI.MetricsAddr, reg, logger)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	api := backend.New(cfg.API.BaseURL,
		backend.WithTimeout(cfg.API.Timeout.Duration),
		backend.WithLogger(logger.Named("backend")),
	)
	c, err := client.New(socketPath, api, logger.Named("client"))
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer func() { _ = c.Close() }()

	vm := model.NewViewModel(c, model.ListOptions{
		PageSize:      cfg.Lists.PageSize,
		StaleAfter:    cfg.Lists.StaleAfter.Duration,
		Debounce:      cfg.Lists.SearchDebounce.Duration,
		EnrichWorkers: cfg.Lists.EnrichWorkers,
		Timeout:       cfg.API.Timeout.Duration,
	}, logger)

	app := tui.NewApp(vm, tui.Options{
		Session:      sessionName,
		InviteURL:    cfg.API.InviteURL,
		RefreshEvery: cfg.TUI.RefreshEvery.Duration,
		Theme:        cfg.TUI.Theme,
	}, logger)

	logger.Info("tui starting", zap.String("api", cfg.API.BaseURL))
	return app.Run()
}

// daemonServing asks the daemon's gRPC health service whether it is serving.
func daemonServing(socketPath string) bool {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func startDaemon(sessionName string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	fleetd := filepath.Join(filepath.Dir(executable), "fleetd")

	if _, err := os.Stat(fleetd); err != nil {
		fleetd = "fleetd"
	}

	cmd := exec.Command(fleetd, "--session", sessionName)
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if daemonServing(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
