package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/session"
	"github.com/spf13/cobra"
)

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect local sessions",
}

type sessionInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Running bool   `json:"daemon_running"`
	State   string `json:"state,omitempty"`
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known sessions and whether their daemon runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := session.List()
		if err != nil {
			return err
		}
		infos := make([]sessionInfo, 0, len(names))
		for _, name := range names {
			info := sessionInfo{Name: name, Path: session.Dir(name)}
			info.State, info.Running = daemonState(cmd.Context(), name)
			infos = append(infos, info)
		}
		if jsonOutput {
			return outputJSON(infos)
		}
		if len(infos) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		for _, s := range infos {
			state := "stopped"
			if s.Running {
				state = s.State
			}
			fmt.Printf("%-20s %s (%s)\n", s.Name, s.Path, state)
		}
		return nil
	},
}

func daemonState(ctx context.Context, name string) (string, bool) {
	c, err := rpc.Dial(session.SocketPath(name))
	if err != nil {
		return "", false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	st, err := c.GetStatus(ctx)
	if err != nil {
		return "", false
	}
	return st.State, true
}
