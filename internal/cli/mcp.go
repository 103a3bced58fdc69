package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	hbmcp "github.com/valter-silva-au/hpc-brain/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the hb MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hb MCP server on stdio",
	Long: `Start the hb MCP server on stdio transport.

The server exposes hb functionality as MCP tools that AI coding assistants
can call: analyze_script, list_rules, get_rule, kb_stats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Analyzer == nil {
			return fmt.Errorf("analyzer not initialized")
		}

		srv := hbmcp.NewServer(Analyzer, Checkers, Store, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
