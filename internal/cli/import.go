package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/importer"
	"github.com/partsbin/partsbin/internal/ui"
)

var importJSON bool

// importCmd merges an inventory document into the store.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import components from a JSON or YAML inventory",
	Long: `Import an inventory document. Two layouts are recognized:

  - a flat array of component objects
  - a nested document with an "@graph" (or "collections") list of
    collections holding resistors, capacitors, transistors, ICs and so on

Entries whose file or content hash are already stored are skipped, so
importing the same document twice adds nothing the second time.

Examples:
  partsbin import inventory.json
  partsbin import --sqlite parts.db legacy.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output the summary as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.ImportDB(args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if summary.Format == importer.FormatMissing {
		return fmt.Errorf("import file not found: %s", args[0])
	}

	if importJSON {
		return printJSON(summary)
	}

	fmt.Println(ui.Header.Render("Import " + summary.Source))
	fmt.Println(ui.KeyValue("Format", summary.Format))
	fmt.Println(ui.KeyValue("Records", summary.Total))
	fmt.Println(ui.KeyValue("Added", ui.Success.Render(fmt.Sprint(summary.Added))))
	fmt.Println(ui.KeyValue("Skipped", summary.Skipped))
	if summary.Invalid > 0 {
		fmt.Println(ui.KeyValue("Invalid", ui.Warning.Render(fmt.Sprint(summary.Invalid))))
	}
	if summary.Format == importer.FormatUnknown {
		fmt.Println(ui.Warning.Render("Document layout not recognized; nothing imported."))
	}
	return nil
}
