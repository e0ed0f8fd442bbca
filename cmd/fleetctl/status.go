package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			st, err := c.GetStatus(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(st)
			}
			printStatus(st)
			return nil
		})
	},
}

func printStatus(st rpc.Status) {
	fmt.Printf("Session:   %s\n", st.Session)
	fmt.Printf("Status:    %s (since %s)\n", st.State, humanize.Time(st.StateSince))
	fmt.Printf("API:       %s\n", valueOrDefault(st.APIURL, "(not set)"))
	fmt.Printf("Token:     %s\n", yesNo(st.HasToken, "stored", "none"))
	fmt.Printf("Feed:      %s\n", feedLine(st.Feed))
	fmt.Printf("Unread:    %s\n", humanize.Comma(int64(st.TotalUnread)))
	fmt.Printf("Queued:    %d\n", st.PendingWrites)
	fmt.Printf("Uptime:    %s\n", time.Since(st.StartedAt).Round(time.Second))
}

func feedLine(f rpc.FeedStatus) string {
	if !f.Enabled {
		return "disabled"
	}
	if f.Error != "" {
		return fmt.Sprintf("%s (%s)", f.State, f.Error)
	}
	return f.State
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
