package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/mcp"
	"github.com/partsbin/partsbin/internal/pipeline"
	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/watcher"
)

var mcpWatchDir string

// mcpCmd represents the MCP server command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI assistant integration",
	Long: `Start a Model Context Protocol (MCP) server over stdin/stdout.

The server speaks JSON-RPC 2.0 and provides tools for:
  - inventory_search: substring search over components
  - inventory_get_component: one component by id
  - inventory_list: paginated listing with a type filter
  - inventory_stats: inventory totals
  - inventory_parse_text: field extraction from label text

With --watch the server also adds new scans from a directory in the
background, without review.

This command is typically started by an assistant client (see
'partsbin install') and not run directly.`,
	Args: cobra.NoArgs,
	RunE: runMcpCmd,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpWatchDir, "watch", "", "also watch this directory for new scans")
}

func runMcpCmd(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; keep every log line on stderr
	log.SetOutput(os.Stderr)

	ctx, cancel := signalContext(func(sig os.Signal) {
		log.Info("Received signal, shutting down", "signal", sig)
	})
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if mcpWatchDir != "" {
		go startBackgroundWatcher(ctx, st, mcpWatchDir)
	}

	server := mcp.NewServer(st, os.Stdin, os.Stdout)
	return server.Run(ctx)
}

// startBackgroundWatcher adds scans from dir until ctx is cancelled.
func startBackgroundWatcher(ctx context.Context, st store.Store, dir string) {
	// Let the client finish initializing first
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		log.Error("Failed to resolve path", "error", err)
		return
	}

	p, err := newPipeline(st, cfg.OCR.Service, cfg.Pipeline, pipeline.AutoApprove{})
	if err != nil {
		log.Error("Failed to create pipeline", "error", err)
		return
	}

	w, err := watcher.New(
		absPath,
		p,
		cfg.Pipeline,
		watcher.WithDebounceTime(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		watcher.WithEventCallback(func(relPath string, res pipeline.Result, err error) {
			log.Debug("Background watcher event", "path", relPath, "added", res.Added, "error", err)
		}),
	)
	if err != nil {
		log.Error("Failed to create watcher", "error", err)
		return
	}

	log.Info("Starting background watcher", "path", absPath)
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("Watcher error", "error", err)
	}
}
