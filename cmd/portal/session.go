package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/console"
	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/mcp"
	"github.com/aayaan07/quantum-kavach/pkg/ecosystem/tui"
	"github.com/aayaan07/quantum-kavach/pkg/logging"
)

var (
	runRole  string
	walkRole string
)

// --- run ---

var runCmd = &cobra.Command{
	Use:   "run [kind]",
	Short: "Run a wizard in the terminal UI (default: auth, then the role dashboard)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "auth"
		if len(args) == 1 {
			kind = args[0]
		}
		return tui.Run(tui.Options{
			Role:     runRole,
			Kind:     kind,
			Analyzer: analyzer,
			Trace:    traceWriter,
		})
	},
}

// --- walk ---

var walkCmd = &cobra.Command{
	Use:   "walk [kind]",
	Short: "Walk a wizard in an interactive line console",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "auth"
		if len(args) == 1 {
			kind = args[0]
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := console.New(console.Options{
			Role:     walkRole,
			Analyzer: analyzer,
			Trace:    traceWriter,
			Logger:   logging.New("console"),
		})
		if err := c.Start(kind); err != nil {
			return err
		}
		return c.Run(ctx)
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the wizards to agents over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity := mcp.DefaultCapacity
		if cfg != nil {
			capacity = cfg.MCPSessions
		}
		h, err := mcp.NewHandlers(mcp.Options{
			Capacity: capacity,
			Analyzer: analyzer,
			Trace:    traceWriter,
			Logger:   logging.New("mcp"),
		})
		if err != nil {
			return err
		}
		defer h.Close()

		s := mcp.NewServer(version, h)
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runRole, "role", "", "Declared role: serving, veteran or family")
	walkCmd.Flags().StringVar(&walkRole, "role", "", "Declared role: serving, veteran or family")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(mcpCmd)
}
