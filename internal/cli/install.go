package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/install"
	"github.com/partsbin/partsbin/internal/ui"
)

var installCommand string

// installCmd registers the MCP server with an assistant client.
var installCmd = &cobra.Command{
	Use:   "install <client>",
	Short: "Register the partsbin MCP server with an assistant client",
	Long: `Register 'partsbin mcp' in an assistant client's configuration so the
client can search and read the inventory.

Supported clients: ` + strings.Join(install.Clients(), ", ") + `

Global flags such as --sqlite and --config are passed through to the
registered command.

Examples:
  partsbin install claude-code
  partsbin --sqlite ~/parts/metadata.db install opencode`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: install.Clients(),
	RunE:      runInstall,
}

// uninstallCmd removes the MCP server registration.
var uninstallCmd = &cobra.Command{
	Use:       "uninstall <client>",
	Short:     "Remove the partsbin MCP server from an assistant client",
	Args:      cobra.ExactArgs(1),
	ValidArgs: install.Clients(),
	RunE:      runUninstall,
}

func init() {
	installCmd.Flags().StringVar(&installCommand, "command", "", "command the client runs (default: this executable)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	client, err := install.Lookup(args[0])
	if err != nil {
		return err
	}

	command := installCommand
	if command == "" {
		if exe, err := os.Executable(); err == nil {
			command = exe
		} else {
			command = "partsbin"
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}

	path, err := install.Install(client, home, command, mcpArgs())
	if err != nil {
		return err
	}

	fmt.Println(ui.Success.Render("Registered partsbin with " + client.Name))
	fmt.Printf("Config updated: %s\n", path)
	fmt.Printf("To remove it: partsbin uninstall %s\n", args[0])
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	client, err := install.Lookup(args[0])
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}

	removed, err := install.Uninstall(client, home)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("partsbin is not registered with %s, nothing to uninstall\n", client.Name)
		return nil
	}

	fmt.Println(ui.Success.Render("Removed partsbin from " + client.Name))
	return nil
}

// mcpArgs builds the registered argument list, carrying store and config
// selection so the client opens the same inventory.
func mcpArgs() []string {
	var args []string
	if cfgFile != "" {
		args = append(args, "--config", absOrSame(cfgFile))
	}
	if sqliteFlag != "" {
		args = append(args, "--sqlite", absOrSame(sqliteFlag))
	}
	if jsonFlag != "" {
		args = append(args, "--json-db", absOrSame(jsonFlag))
	}
	return append(args, "mcp")
}
