package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveInput carries everything the store location decision depends on.
type ResolveInput struct {
	// Explicit overrides, typically from command-line flags.
	SQLitePath string
	JSONPath   string

	// Cwd is checked for local discovery files.
	Cwd string

	// Database holds configured locations.
	Database DatabaseConfig

	// Home anchors "~" expansion and the default data directory.
	Home string
}

// ResolveDBPaths decides which store locations to bind. The first tier that
// yields anything wins:
//
//  1. explicit overrides (both returned as given when either is set)
//  2. metadata.db / components.jsonld that exist in the working directory
//  3. configured database paths
//  4. metadata.db in the default data directory
//
// Callers prefer the SQLite location whenever it is non-empty.
func ResolveDBPaths(in ResolveInput) (sqlitePath, jsonPath string) {
	if in.SQLitePath != "" || in.JSONPath != "" {
		return expandHome(in.SQLitePath, in.Home), expandHome(in.JSONPath, in.Home)
	}

	if in.Cwd != "" {
		if p := filepath.Join(in.Cwd, DefaultDBFileName); isFile(p) {
			sqlitePath = p
		}
		if p := filepath.Join(in.Cwd, DefaultJSONFileName); isFile(p) {
			jsonPath = p
		}
		if sqlitePath != "" || jsonPath != "" {
			return sqlitePath, jsonPath
		}
	}

	if in.Database.SQLitePath != "" || in.Database.JSONLDPath != "" {
		return expandHome(in.Database.SQLitePath, in.Home), expandHome(in.Database.JSONLDPath, in.Home)
	}

	return DefaultDatabasePath(in.Home), ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandHome replaces a leading "~" with home.
func expandHome(path, home string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		home = h
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
