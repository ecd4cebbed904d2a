package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/ui"
)

var statsJSON bool

// statsCmd shows inventory statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inventory statistics",
	Long: `Show the number of components, the summed quantity and the count per
type. Components without a type are counted as "unknown".`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		return printJSON(stats)
	}

	fmt.Println(ui.Header.Render("Inventory"))
	fmt.Println(ui.HorizontalRule(40))
	fmt.Println(ui.KeyValue("Store", fmt.Sprintf("%s (%s)", stats.DatabasePath, store.BackendOf(st))))
	fmt.Println(ui.KeyValue("Components", stats.TotalComponents))
	fmt.Println(ui.KeyValue("Total quantity", stats.TotalQuantity))
	if stats.MostCommonType != "" {
		fmt.Println(ui.KeyValue("Most common", stats.MostCommonType))
	}

	if len(stats.Types) == 0 {
		return nil
	}

	types := make([]string, 0, len(stats.Types))
	for t := range stats.Types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if stats.Types[types[i]] != stats.Types[types[j]] {
			return stats.Types[types[i]] > stats.Types[types[j]]
		}
		return types[i] < types[j]
	})

	fmt.Println(ui.SectionTitle.Render("By type"))
	for _, t := range types {
		fmt.Printf("  %s %d\n", ui.Type.Render(fmt.Sprintf("%-16s", t)), stats.Types[t])
	}
	return nil
}
