package config

import (
	"os"
	"path/filepath"
)

// Default configuration values
const (
	// Recognition defaults
	DefaultOCRService      = "openai"
	DefaultOCRRateLimit    = 1.0 // requests per second
	DefaultOpenAIOCRModel  = "gpt-4o-mini"
	DefaultOCRTimeoutSecs  = 60
	DefaultMaxFileSize     = 20 << 20 // 20MB
	DefaultAutoApprove     = false
	DefaultWatchDebounceMS = 500

	// Store files
	DefaultDBFileName   = "metadata.db"
	DefaultJSONFileName = "components.jsonld"

	// Config files
	LocalConfigFileName = "cfg.toml"
	HomeConfigFileName  = ".component_loader.toml"

	// EnvPrefix prefixes environment overrides (PARTSBIN_DATABASE_SQLITE_PATH).
	EnvPrefix = "PARTSBIN"
)

// DefaultExtensions returns the document extensions processed by default.
func DefaultExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".webp", ".pdf"}
}

// DefaultPostprocess returns the default text transform chain.
func DefaultPostprocess() []string {
	return []string{"nfc", "trim"}
}

// DefaultIgnorePatterns returns the default list of file patterns to ignore.
func DefaultIgnorePatterns() []string {
	return []string{
		// Processed or archived scans
		"done/",
		"processed/",
		"archive/",

		// Editor and OS files
		"*.swp",
		"*~",
		".DS_Store",
		"Thumbs.db",
	}
}

// DefaultDataDir returns the default data directory path. XDG_DATA_HOME
// wins when set; otherwise the directory lives under home (or the user's
// home directory when home is empty).
func DefaultDataDir(home string) string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "partsbin")
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "partsbin")
		}
		home = h
	}
	return filepath.Join(home, ".local", "share", "partsbin")
}

// DefaultDatabasePath returns the default SQLite database file path.
func DefaultDatabasePath(home string) string {
	return filepath.Join(DefaultDataDir(home), DefaultDBFileName)
}
