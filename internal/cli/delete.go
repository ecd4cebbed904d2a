package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/ui"
)

// deleteCmd removes components.
var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete components",
	Long: `Delete components by id. Every id is attempted; the command fails if
any of them did not exist.

Examples:
  partsbin delete r_10_kΩ c_0_0001_F_electrolytic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var missing []string
	for _, id := range args {
		ok, err := st.Delete(id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		if !ok {
			missing = append(missing, id)
			fmt.Println(ui.Warning.Render("Not found: " + id))
			continue
		}
		fmt.Println(ui.Success.Render("Deleted " + id))
	}

	if len(missing) > 0 {
		return fmt.Errorf("%d component(s) not found", len(missing))
	}
	return nil
}
