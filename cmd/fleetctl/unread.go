package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/matheus3301/fleetdesk/internal/session"
	"github.com/spf13/cobra"
)

var unreadWatch bool

func init() {
	unreadListCmd.Flags().BoolVarP(&unreadWatch, "watch", "w", false, "keep streaming changes until interrupted")
	unreadCmd.AddCommand(unreadListCmd)
	rootCmd.AddCommand(unreadCmd)
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Inspect unread counters",
}

var unreadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unread counters per thread",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if unreadWatch {
			return watchUnread(cmd)
		}
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			list, err := c.ListUnread(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(list)
			}
			if len(list.Items) == 0 {
				fmt.Println("No unread messages.")
				return nil
			}
			for _, it := range list.Items {
				fmt.Printf("%-32s %6d  %s\n", it.Key, it.Count, humanize.Time(it.UpdatedAt))
			}
			fmt.Printf("Total: %s\n", humanize.Comma(int64(list.Total)))
			return nil
		})
	},
}

func watchUnread(cmd *cobra.Command) error {
	c, err := rpc.Dial(session.SocketPath(sessionFlag))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return streamUnread(ctx, c.WatchUnread, func(it rpc.UnreadItem) error {
		return printUnread(os.Stdout, jsonOutput, it)
	})
}

// streamUnread feeds every streamed counter to emit. The first emit error
// stops the stream and is returned.
func streamUnread(ctx context.Context, watch func(context.Context, func(rpc.UnreadItem)) error, emit func(rpc.UnreadItem) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var emitErr error
	err := watch(ctx, func(it rpc.UnreadItem) {
		if emitErr != nil {
			return
		}
		if emitErr = emit(it); emitErr != nil {
			cancel()
		}
	})
	if emitErr != nil {
		return fmt.Errorf("write unread update: %w", emitErr)
	}
	return err
}

func printUnread(w io.Writer, asJSON bool, it rpc.UnreadItem) error {
	if asJSON {
		return json.NewEncoder(w).Encode(it)
	}
	_, err := fmt.Fprintf(w, "%-32s %6d\n", it.Key, it.Count)
	return err
}
