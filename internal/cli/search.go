package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/ui"
)

var (
	searchField string
	searchLimit int
	searchJSON  bool
)

// searchCmd finds components by substring.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search components",
	Long: `Search components by case-insensitive substring.

Without --field the query is matched against description, type, value and
part number together.

Examples:
  partsbin search 10k
  partsbin search electrolytic --field description
  partsbin search 2N --field partNumber --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchField, "field", "f", "", "only search this field")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	log.Debug("Searching", "query", query, "field", searchField)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Search(query, searchField)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	total := len(results)
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if searchJSON {
		return printJSON(results)
	}

	if total == 0 {
		fmt.Printf("No components match %q.\n", query)
		return nil
	}

	printComponents(results)
	fmt.Println()
	fmt.Println(ui.Dim.Render(fmt.Sprintf("%d of %d matches", len(results), total)))
	return nil
}
