package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
)

func init() {
	docCmd.AddCommand(
		pointUpdateCmd("seen <id>", "Mark a document seen", backend.Documents, http.MethodPatch, map[string]any{backend.FieldSeen: true}),
		pointUpdateCmd("flag <id>", "Flag a document", backend.Documents, http.MethodPatch, map[string]any{backend.FieldFlagged: true}),
		pointUpdateCmd("unflag <id>", "Clear a document's flag", backend.Documents, http.MethodPatch, map[string]any{backend.FieldFlagged: false}),
	)
	driverCmd.AddCommand(
		pointUpdateCmd("remove <id>", "Remove a driver from the roster", backend.Drivers, http.MethodDelete, nil),
	)
	rootCmd.AddCommand(docCmd, driverCmd)
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Queue document updates",
}

var driverCmd = &cobra.Command{
	Use:   "driver",
	Short: "Queue driver updates",
}

// pointUpdateCmd queues one write through the daemon, which delivers it
// to the backend with retries.
func pointUpdateCmd(use, short string, res backend.Resource, method string, patch map[string]any) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
				w, err := c.QueueWrite(ctx, rpc.WriteRequest{
					Resource: res.Name,
					ItemID:   args[0],
					Method:   method,
					Patch:    patch,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(w)
				}
				fmt.Printf("Queued %s %s/%s (op %s)\n", w.Method, w.Resource, w.ItemID, w.OpID)
				return nil
			})
		},
	}
}
