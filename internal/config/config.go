package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ColorMode controls colored terminal output
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config holds all configuration for shaderflow
type Config struct {
	// Color selects colored diagnostics: auto, always or never
	Color ColorMode `yaml:"color" env:"SHADERFLOW_COLOR"`

	// Logging
	Verbosity int    `yaml:"verbosity" env:"SHADERFLOW_VERBOSITY"`
	LogFile   string `yaml:"log_file" env:"SHADERFLOW_LOG_FILE"`

	// Format is the output format of the structure and cfg commands:
	// text, json, yaml or msgpack
	Format string `yaml:"format" env:"SHADERFLOW_FORMAT"`

	// ShowDominators adds immediate dominators to the cfg text output
	ShowDominators bool `yaml:"show_dominators" env:"SHADERFLOW_SHOW_DOMINATORS"`

	// Parallel is the number of functions processed at once
	Parallel int `yaml:"parallel" env:"SHADERFLOW_PARALLEL"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Color:          ColorAuto,
		Verbosity:      0,
		LogFile:        "",
		Format:         "text",
		ShowDominators: false,
		Parallel:       1,
	}
}

// globalConfigFilePath returns the global config file path (~/.shaderflow/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shaderflow/config.yaml"
	}
	return filepath.Join(home, ".shaderflow", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path
func projectConfigFilePath() string {
	return ".shaderflow.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.shaderflow.yaml)
// 3. Global config (~/.shaderflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{globalConfigFilePath(), projectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHADERFLOW_COLOR"); v != "" {
		cfg.Color = ColorMode(v)
	}
	if v := os.Getenv("SHADERFLOW_VERBOSITY"); v != "" {
		if i, ok := parseInt(v); ok {
			cfg.Verbosity = i
		}
	}
	if v := os.Getenv("SHADERFLOW_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("SHADERFLOW_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("SHADERFLOW_SHOW_DOMINATORS"); v != "" {
		cfg.ShowDominators = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("SHADERFLOW_PARALLEL"); v != "" {
		if i, ok := parseInt(v); ok && i > 0 {
			cfg.Parallel = i
		}
	}
}

// Validate checks that the configuration has valid fields
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color: %s (must be 'auto', 'always' or 'never')", c.Color)
	}

	switch c.Format {
	case "text", "json", "yaml", "msgpack":
	default:
		return fmt.Errorf("invalid format: %s (must be 'text', 'json', 'yaml' or 'msgpack')", c.Format)
	}

	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must be non-negative")
	}
	if c.Parallel <= 0 {
		return fmt.Errorf("parallel must be positive")
	}
	return nil
}

// LogFilePath returns the log file for commonlog.Configure, nil for stderr
func (c *Config) LogFilePath() *string {
	if c.LogFile == "" {
		return nil
	}
	return &c.LogFile
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, bool) {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0, false
	}
	return i, true
}
