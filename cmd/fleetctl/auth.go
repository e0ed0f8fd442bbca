package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var authShowReveal bool

func init() {
	authShowCmd.Flags().BoolVar(&authShowReveal, "reveal", false, "print the full token")
	authCmd.AddCommand(authSetTokenCmd, authClearCmd, authShowCmd)
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the session's API token",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store an API token (reads stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := tokenArg(args)
		if err != nil {
			return err
		}
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			if err := c.SetToken(ctx, token); err != nil {
				return err
			}
			st, err := c.GetStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Token stored. Status: %s\n", st.State)
			return nil
		})
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored token and stop the feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			if err := c.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Token cleared.")
			return nil
		})
	},
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a token is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			token, err := c.GetToken(ctx)
			if status.Code(err) == codes.NotFound {
				fmt.Println("No token stored. Use `fleetctl auth set-token`.")
				return nil
			}
			if err != nil {
				return err
			}
			if !authShowReveal {
				token = maskToken(token)
			}
			if jsonOutput {
				return outputJSON(map[string]string{"token": token})
			}
			fmt.Println(token)
			return nil
		})
	},
}

func tokenArg(args []string) (string, error) {
	if len(args) == 1 {
		if t := strings.TrimSpace(args[0]); t != "" {
			return t, nil
		}
		return "", errors.New("token must not be blank")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	if t := strings.TrimSpace(line); t != "" {
		return t, nil
	}
	return "", errors.New("token must not be blank")
}

// maskToken keeps the first and last four characters.
func maskToken(t string) string {
	if len(t) <= 8 {
		return strings.Repeat("*", len(t))
	}
	return t[:4] + strings.Repeat("*", len(t)-8) + t[len(t)-4:]
}
