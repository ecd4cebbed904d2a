// Package cli implements the command-line interface for partsbin.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/mcp"
	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/ui"
)

var (
	// Version information set at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile    string
	debug      bool
	sqliteFlag string
	jsonFlag   string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

// SetVersionInfo sets the version information from build flags.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	mcp.ServerVersion = v
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partsbin",
	Short: "Electronics component inventory",
	Long: `partsbin keeps an inventory of electronic components.

Records come from photographed labels and bags (recognized by an OCR
service), from imported JSON or YAML inventories, or from manual edits. They
are stored in a local SQLite database or a single JSON document.

Examples:
  # Add components from a folder of scans
  partsbin add ~/scans

  # Find every 10k part
  partsbin search 10k

  # Import an existing inventory file
  partsbin import inventory.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetDebug(debug)
		if debug {
			log.Debug("Debug logging enabled")
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("Failed to load .env", "error", err)
		}

		loaded, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize UI styles and logger
	ui.InitLogger()

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cfg.toml, then ~/.component_loader.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sqliteFlag, "sqlite", "", "SQLite store path")
	rootCmd.PersistentFlags().StringVar(&jsonFlag, "json-db", "", "JSON document store path")

	// Add subcommands
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("partsbin %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// resolveStorePaths applies flag, working directory, config and default
// precedence to pick the store locations.
func resolveStorePaths() (sqlitePath, jsonPath string) {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return config.ResolveDBPaths(config.ResolveInput{
		SQLitePath: sqliteFlag,
		JSONPath:   jsonFlag,
		Cwd:        cwd,
		Database:   cfg.Database,
		Home:       home,
	})
}

// openStore opens the resolved store. Callers close it.
func openStore() (store.Store, error) {
	sqlitePath, jsonPath := resolveStorePaths()
	log.Debug("Resolved store", "sqlite", sqlitePath, "json", jsonPath)

	st, err := store.Open(sqlitePath, jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// absOrSame returns the absolute form of path, or path if that fails.
func absOrSame(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
