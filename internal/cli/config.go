package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/fs"
	"github.com/partsbin/partsbin/internal/transform"
	"github.com/partsbin/partsbin/internal/ui"
)

var configShowPath bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long: `Display current configuration settings and the store that would be used.

Examples:
  # Show current configuration
  partsbin config

  # Show config file and store paths
  partsbin config --path`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShowPath, "path", false, "show config file and store paths")
}

func runConfig(cmd *cobra.Command, args []string) error {
	sqlitePath, jsonPath := resolveStorePaths()

	if configShowPath {
		fmt.Println(ui.SectionTitle.Render("Configuration Paths"))
		fmt.Println()
		fmt.Printf("Global config: %s\n", config.GlobalConfigPath(""))
		fmt.Printf("Local config:  ./%s\n", config.LocalConfigFileName)
		fmt.Printf("Active config: %s\n", orNone(cfg.File))
		fmt.Printf("SQLite store:  %s\n", orNone(sqlitePath))
		fmt.Printf("JSON store:    %s\n", orNone(jsonPath))
		return nil
	}

	fmt.Println(ui.SectionTitle.Render("Current Configuration"))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Database:"))
	fmt.Printf("  SQLite: %s\n", orNone(sqlitePath))
	fmt.Printf("  JSON:   %s\n", orNone(jsonPath))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Recognition:"))
	fmt.Printf("  Service: %s\n", cfg.OCR.Service)
	fmt.Printf("  Rate Limit: %g/s\n", cfg.OCR.RateLimit)
	fmt.Printf("  Timeout: %ds\n", cfg.OCR.Timeout)
	fmt.Printf("  OpenAI Model: %s\n", cfg.OCR.OpenAI.Model)
	if cfg.OCR.OpenAI.BaseURL != "" {
		fmt.Printf("  OpenAI Base URL: %s\n", cfg.OCR.OpenAI.BaseURL)
	}
	fmt.Printf("  OpenAI API Key: %s\n", maskKey(cfg.OCR.OpenAI.APIKey))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Pipeline:"))
	fmt.Printf("  Extensions: %s\n", strings.Join(cfg.Pipeline.Extensions, " "))
	fmt.Printf("  Postprocess: %s\n", strings.Join(cfg.Pipeline.Postprocess, ", "))
	fmt.Printf("  Max File Size: %d bytes\n", cfg.Pipeline.MaxFileSize)
	fmt.Printf("  Auto Approve: %t\n", cfg.Pipeline.AutoApprove)
	fmt.Printf("  Ignore Patterns: %d configured\n", len(cfg.Pipeline.Ignore))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Watch:"))
	fmt.Printf("  Debounce: %dms\n", cfg.Watch.DebounceMS)
	fmt.Println()

	fmt.Println(ui.Dim.Render("Available transforms: " + strings.Join(transform.Names(), ", ")))
	fmt.Println(ui.Dim.Render("Document types: " + strings.Join(fs.DocumentExtensions(), " ")))

	if _, err := transform.NewChain(cfg.Pipeline.Postprocess); err != nil {
		fmt.Fprintln(os.Stderr, ui.Warning.Render(err.Error()))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// maskKey shows only enough of a key to tell keys apart.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 12:
		return key[:min(4, len(key))] + "..."
	default:
		return key[:8] + "..." + key[len(key)-4:]
	}
}
