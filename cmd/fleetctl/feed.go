package main

import (
	"context"
	"fmt"

	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
)

func init() {
	feedCmd.AddCommand(
		feedCommand("start", "Connect the realtime feed", (*rpc.Client).StartFeed),
		feedCommand("stop", "Disconnect the realtime feed", (*rpc.Client).StopFeed),
		feedCommand("status", "Show realtime feed status", (*rpc.Client).GetFeedStatus),
	)
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Control the realtime feed",
}

func feedCommand(use, short string, call func(*rpc.Client, context.Context) (rpc.FeedStatus, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
				fs, err := call(c, ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(fs)
				}
				fmt.Printf("Feed: %s\n", feedLine(fs))
				return nil
			})
		},
	}
}
