package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/config"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/session"
	"github.com/spf13/cobra"
)

var (
	sessionFlag string
	jsonOutput  bool
	timeoutFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "fleetctl",
	Short:         "Control a fleetd session",
	Long:          "Command-line control for the fleetdesk daemon: status, token, realtime feed, unread counters, queued writes and backend lists.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		sessionFlag = session.Resolve(sessionFlag)
		return session.ValidateName(sessionFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "per-command timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withDaemon dials the session's daemon and runs fn with a bounded context.
func withDaemon(cmd *cobra.Command, fn func(ctx context.Context, c *rpc.Client) error) error {
	c, err := rpc.Dial(session.SocketPath(sessionFlag))
	if err != nil {
		return fmt.Errorf("cannot connect to daemon for session %q: %w", sessionFlag, err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()
	return fn(ctx, c)
}

// backendClient builds a REST client from the session's config.
func backendClient() (*backend.Client, *config.Config, error) {
	cfg, err := session.LoadConfig(sessionFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return backend.New(cfg.API.BaseURL, backend.WithTimeout(cfg.API.Timeout.Duration)), cfg, nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
