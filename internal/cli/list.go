package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/ui"
)

var (
	listLimit  int
	listOffset int
	listJSON   bool
)

// listCmd lists stored components.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List components",
	Long: `List stored components in the order they were added.

Examples:
  # First page of twenty
  partsbin list --limit 20

  # Everything as JSON
  partsbin list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of components (0 for all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of components to skip")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	components, err := st.ListAll(&store.ListOptions{Limit: listLimit, Offset: listOffset})
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}

	if listJSON {
		return printJSON(components)
	}

	total, err := st.Count()
	if err != nil {
		return fmt.Errorf("failed to count components: %w", err)
	}

	if total == 0 {
		fmt.Println("No components stored.")
		fmt.Println()
		fmt.Println("Run 'partsbin add <path>' or 'partsbin import <file>' to add some.")
		return nil
	}

	printComponents(components)
	fmt.Println()
	fmt.Println(ui.Dim.Render(fmt.Sprintf("Showing %d of %d components", len(components), total)))
	return nil
}

// printComponents writes one line per record.
func printComponents(components []component.Component) {
	for _, c := range components {
		qty := "-"
		if n, ok := c.Quantity(); ok {
			qty = fmt.Sprintf("%d", n)
		}
		typ := c.Type()
		if typ == "" {
			typ = component.UnknownType
		}

		fmt.Printf("%s  %s  %s  %s  %s\n",
			ui.ID.Render(fmt.Sprintf("%-*s", ui.ShortIDLen, ui.ShortID(c.ID()))),
			ui.Type.Render(fmt.Sprintf("%-13s", typ)),
			ui.Value.Render(fmt.Sprintf("%-10s", c.String(component.FieldValue))),
			fmt.Sprintf("%5s", qty),
			oneLine(c.String(component.FieldDescription), 60),
		)
	}
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
