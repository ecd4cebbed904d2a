// Package install registers the partsbin MCP server with assistant clients
// that read a JSON configuration file.
package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
)

// ServerName is the key the server is registered under.
const ServerName = "partsbin"

// Client describes where a client keeps its MCP server table and how an
// entry looks.
type Client struct {
	Name string
	// ConfigPath returns the client's config file under home.
	ConfigPath func(home string) string
	// Section is the top-level key holding the server table.
	Section string
	// Entry builds the server entry for command and args.
	Entry func(command string, args []string) map[string]any
	// Defaults are top-level keys written when absent.
	Defaults map[string]any
}

var clients = map[string]Client{
	"claude-code": {
		Name: "Claude Code",
		ConfigPath: func(home string) string {
			return filepath.Join(home, ".claude.json")
		},
		Section: "mcpServers",
		Entry: func(command string, args []string) map[string]any {
			return map[string]any{
				"command": command,
				"args":    args,
			}
		},
	},
	"opencode": {
		Name: "OpenCode",
		ConfigPath: func(home string) string {
			jsonPath := filepath.Join(home, ".config", "opencode", "opencode.json")
			jsoncPath := filepath.Join(home, ".config", "opencode", "opencode.jsonc")
			if _, err := os.Stat(jsonPath); err == nil {
				return jsonPath
			}
			if _, err := os.Stat(jsoncPath); err == nil {
				return jsoncPath
			}
			return jsonPath
		},
		Section: "mcp",
		Entry: func(command string, args []string) map[string]any {
			return map[string]any{
				"type":    "local",
				"command": append([]string{command}, args...),
				"enabled": true,
			}
		},
		Defaults: map[string]any{
			"$schema": "https://opencode.ai/config.json",
		},
	},
}

// Clients returns the supported client keys, sorted.
func Clients() []string {
	keys := make([]string, 0, len(clients))
	for k := range clients {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the client registered under key.
func Lookup(key string) (Client, error) {
	c, ok := clients[key]
	if !ok {
		return Client{}, fmt.Errorf("unknown client %q (supported: %v)", key, Clients())
	}
	return c, nil
}

// Install adds the server entry to the client's config file under home,
// keeping every other setting. It returns the file written.
func Install(c Client, home, command string, args []string) (string, error) {
	configPath := c.ConfigPath(home)

	cfg, err := readConfig(configPath)
	if err != nil {
		return "", err
	}

	for k, v := range c.Defaults {
		if _, ok := cfg[k]; !ok {
			cfg[k] = v
		}
	}

	servers, ok := cfg[c.Section].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[ServerName] = c.Entry(command, args)
	cfg[c.Section] = servers

	if err := writeConfig(configPath, cfg); err != nil {
		return "", err
	}

	log.Debug("Registered MCP server", "client", c.Name, "config", configPath)
	return configPath, nil
}

// Uninstall removes the server entry. It reports whether anything was removed.
func Uninstall(c Client, home string) (bool, error) {
	configPath := c.ConfigPath(home)

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	cfg, err := readConfig(configPath)
	if err != nil {
		return false, err
	}

	servers, ok := cfg[c.Section].(map[string]any)
	if !ok {
		return false, nil
	}
	if _, ok := servers[ServerName]; !ok {
		return false, nil
	}
	delete(servers, ServerName)
	cfg[c.Section] = servers

	if err := writeConfig(configPath, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func readConfig(path string) (map[string]any, error) {
	cfg := make(map[string]any)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse existing config: %w", err)
	}
	return cfg, nil
}

func writeConfig(path string, cfg map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
