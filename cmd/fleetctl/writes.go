package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
)

var writesLimit int

func init() {
	writesListCmd.Flags().IntVarP(&writesLimit, "limit", "n", 50, "maximum number of writes to show")
	writesCmd.AddCommand(writesListCmd)
	rootCmd.AddCommand(writesCmd)
}

var writesCmd = &cobra.Command{
	Use:   "writes",
	Short: "Inspect queued point updates",
}

var writesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent queued writes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			items, err := c.ListWrites(ctx, writesLimit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No queued writes.")
				return nil
			}
			for _, w := range items {
				line := fmt.Sprintf("%-8s %-6s %s/%s  attempts=%d  %s",
					w.Status, w.Method, w.Resource, w.ItemID, w.Attempts, humanize.Time(w.UpdatedAt))
				if w.Error != "" {
					line += "  error: " + w.Error
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}
