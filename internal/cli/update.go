package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/ui"
)

var updateSet []string

// updateCmd merges fields into a stored component.
var updateCmd = &cobra.Command{
	Use:   "update <id> --set key=value...",
	Short: "Update fields of a component",
	Long: `Merge fields into a stored component. Unmentioned fields are kept.
id, file and hash cannot be changed. Quantities are stored as numbers.

Examples:
  partsbin update r_10_kΩ --set qty=40
  partsbin update 3f2a9c1e --set type=capacitor --set "description=100nF X7R 0805"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringArrayVar(&updateSet, "set", nil, "field assignment key=value (repeatable)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	fields, err := parseAssignments(updateSet)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ok, err := st.Update(args[0], fields)
	if err != nil {
		return fmt.Errorf("failed to update component: %w", err)
	}
	if !ok {
		return fmt.Errorf("component not found: %s", args[0])
	}

	fmt.Println(ui.Success.Render(fmt.Sprintf("Updated %s (%d field(s))", args[0], len(fields))))
	return nil
}

// parseAssignments turns key=value pairs into an update field map.
func parseAssignments(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, errors.New("nothing to update: pass at least one --set key=value")
	}

	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", pair)
		}
		switch key {
		case component.FieldID, component.FieldFile, component.FieldHash:
			return nil, fmt.Errorf("field %q cannot be updated", key)
		}
		fields[key] = coerceField(key, strings.TrimSpace(value))
	}
	return fields, nil
}
