package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/dryjin/internal/mcp"
	"github.com/mvp-joe/dryjin/internal/storage"
	"github.com/spf13/cobra"
)

var mcpDBFlag string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve recorded import runs over MCP (stdio)",
	Long: `Mcp starts a Model Context Protocol server on stdio exposing the runs
recorded by "dryjin import --db" through two read-only tools:

  dryjin_graph  callers, callees and reachable methods of a signature
  dryjin_run    run list, run summary, synthesized methods and ICC links

Logs go to stderr so they never mix with the protocol stream.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpDBFlag, "db", "", "SQLite database (defaults to output.database)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mcpDBFlag != "" {
		cfg.Output.Database = mcpDBFlag
	}
	if cfg.Output.Database == "" {
		return fmt.Errorf("no database: pass --db or set output.database")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reader, err := storage.NewRunReader(cfg.Output.Database)
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcp.NewServer(reader, Version, logger).Serve(ctx)
}
