// Package config handles configuration loading and store location
// resolution for partsbin.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config represents the complete partsbin configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Watch    WatchConfig    `mapstructure:"watch"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// DatabaseConfig names configured store locations.
type DatabaseConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
	JSONLDPath string `mapstructure:"jsonld_path"`
}

// OCRConfig configures the recognition service.
type OCRConfig struct {
	Service   string       `mapstructure:"service"`
	RateLimit float64      `mapstructure:"rate_limit"`
	Timeout   int          `mapstructure:"timeout"`
	OpenAI    OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the OpenAI vision recognizer.
type OpenAIConfig struct {
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// PipelineConfig configures document processing.
type PipelineConfig struct {
	Extensions  []string `mapstructure:"extensions"`
	Ignore      []string `mapstructure:"ignore"`
	Postprocess []string `mapstructure:"postprocess"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
	AutoApprove bool     `mapstructure:"auto_approve"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// LoadOptions tells Load where to look for configuration files.
type LoadOptions struct {
	// ConfigFile is an explicit file that must exist when set.
	ConfigFile string
	// Cwd is searched for cfg.toml. Empty means the process working directory.
	Cwd string
	// Home is searched for .component_loader.toml. Empty means the user's home.
	Home string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Service:   DefaultOCRService,
			RateLimit: DefaultOCRRateLimit,
			Timeout:   DefaultOCRTimeoutSecs,
			OpenAI: OpenAIConfig{
				Model: DefaultOpenAIOCRModel,
			},
		},
		Pipeline: PipelineConfig{
			Extensions:  DefaultExtensions(),
			Ignore:      DefaultIgnorePatterns(),
			Postprocess: DefaultPostprocess(),
			MaxFileSize: DefaultMaxFileSize,
			AutoApprove: DefaultAutoApprove,
		},
		Watch: WatchConfig{
			DebounceMS: DefaultWatchDebounceMS,
		},
	}
}

// Load reads configuration from file and environment variables into a
// fresh value. No package state is touched, so callers thread the result
// explicitly.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	file, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if filepath.Ext(file) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("Loaded config from", "file", v.ConfigFileUsed())
	} else {
		log.Debug("No config file found, using defaults")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.File = file

	loadAPIKeysFromEnv(cfg)

	return cfg, nil
}

// setDefaults sets default values in viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Database
	v.SetDefault("database.sqlite_path", "")
	v.SetDefault("database.jsonld_path", "")

	// Recognition
	v.SetDefault("ocr.service", d.OCR.Service)
	v.SetDefault("ocr.rate_limit", d.OCR.RateLimit)
	v.SetDefault("ocr.timeout", d.OCR.Timeout)
	v.SetDefault("ocr.openai.model", d.OCR.OpenAI.Model)
	v.SetDefault("ocr.openai.base_url", "")
	v.SetDefault("ocr.openai.api_key", "")

	// Pipeline
	v.SetDefault("pipeline.extensions", d.Pipeline.Extensions)
	v.SetDefault("pipeline.ignore", d.Pipeline.Ignore)
	v.SetDefault("pipeline.postprocess", d.Pipeline.Postprocess)
	v.SetDefault("pipeline.max_file_size", d.Pipeline.MaxFileSize)
	v.SetDefault("pipeline.auto_approve", d.Pipeline.AutoApprove)

	// Watcher
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMS)
}

// findConfigFile applies file precedence: explicit file, then cfg.toml in
// the working directory, then .component_loader.toml in home.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file not found: %w", err)
		}
		return opts.ConfigFile, nil
	}

	cwd := opts.Cwd
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}
	home := opts.Home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}

	var candidates []string
	if cwd != "" {
		candidates = append(candidates, filepath.Join(cwd, LocalConfigFileName))
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, HomeConfigFileName))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debug("Skipping unreadable config candidate", "path", path, "error", err)
		}
	}

	return "", nil
}

// loadAPIKeysFromEnv loads API keys from environment variables if not already set.
func loadAPIKeysFromEnv(cfg *Config) {
	if cfg.OCR.OpenAI.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.OCR.OpenAI.APIKey = key
		}
	}
}

// GlobalConfigPath returns the path to the per-user config file.
func GlobalConfigPath(home string) string {
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	return filepath.Join(home, HomeConfigFileName)
}
