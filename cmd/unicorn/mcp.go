package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/unicorn/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the composition engine to AI agents as MCP tools
(process_key, get_candidates, select_candidate, deactivate) and the
unicorn://mnemonics resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		watch, _ := cmd.Flags().GetBool("watch")
		if cmd.Flags().Changed("listen") {
			cfg.Listen, _ = cmd.Flags().GetString("listen")
		}
		// stdout belongs to the protocol; logs go to stderr.
		logger := createLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader := newLoader(cfg, logger)
		t, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", cfg.Trie, err)
		}

		mgr, closeStore, err := setupSessions(ctx, cfg, t, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		if watch {
			if err := watchTrie(ctx, loader, mgr, logger); err != nil {
				return err
			}
		}

		srv := mcp.NewServer(mgr, mcp.WithLogger(logger))
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			baseURL, _ := cmd.Flags().GetString("base-url")
			return srv.ServeSSE(ctx, cfg.Listen, baseURL)
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().StringP("listen", "l", ":8080", "Address for the sse transport")
	mcpCmd.Flags().String("base-url", "http://localhost:8080", "Public base URL for the sse transport")
	mcpCmd.Flags().BoolP("watch", "w", false, "Reload the table when the file changes")
}
