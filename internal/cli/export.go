package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/export"
	"github.com/partsbin/partsbin/internal/ui"
)

var exportOutput string

// exportCmd writes the inventory to a spreadsheet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export components to an XLSX workbook",
	Long: `Write every component to a single-sheet XLSX workbook.

Examples:
  partsbin export
  partsbin export -o ~/parts.xlsx
  partsbin export -o - > parts.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "components.xlsx", "output file, or - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	components, err := st.ListAll(nil)
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}

	var w io.Writer = os.Stdout
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteXLSX(w, components); err != nil {
		return err
	}

	if exportOutput != "-" {
		fmt.Println(ui.Success.Render(fmt.Sprintf("Exported %d components to %s", len(components), exportOutput)))
	}
	return nil
}
