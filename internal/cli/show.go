package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/ui"
)

var (
	showJSON bool
	showRaw  bool
)

// showCmd prints every field of one component.
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one component",
	Long: `Show every stored field of a component, rendered as markdown.

Examples:
  partsbin show 3f2a9c1e0b6d4e7f8a9b0c1d2e3f4a5b
  partsbin show r_10_kΩ --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print markdown without rendering")
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.GetByID(args[0])
	if err != nil {
		return fmt.Errorf("failed to get component: %w", err)
	}
	if c == nil {
		return fmt.Errorf("component not found: %s", args[0])
	}

	if showJSON {
		return printJSON(c)
	}

	md := ui.ComponentMarkdown(c)
	if showRaw {
		fmt.Print(md)
		return nil
	}

	rendered, err := ui.RenderMarkdown(md, 100)
	if err != nil {
		// Fall back to plain markdown
		fmt.Print(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
