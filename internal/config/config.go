// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppName names the config and data directories.
const AppName = "tracknote"

// Default configuration values.
const (
	DefaultFormat   = "plain"
	DefaultLimit    = 0
	DefaultTruncate = 60
)

// Config represents the tracknote CLI configuration.
type Config struct {
	Output    OutputConfig    `toml:"output"`
	TUI       TUIConfig       `toml:"tui"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Store     StoreConfig     `toml:"store"`
}

// OutputConfig holds default output options.
type OutputConfig struct {
	Format   string `toml:"format"`   // plain, dmenu, json, yaml, ids
	Limit    int    `toml:"limit"`    // Max annotations (0 = unlimited)
	Truncate int    `toml:"truncate"` // Max text width in plain output
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	ShowHelp bool `toml:"show_help"`
}

// ClipboardConfig holds clipboard settings (TUI only).
type ClipboardConfig struct {
	Command string `toml:"command"` // Auto-detected if empty
}

// StoreConfig locates the annotation database.
type StoreConfig struct {
	Path string `toml:"path"` // Empty = DatabasePath()
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:   DefaultFormat,
			Limit:    DefaultLimit,
			Truncate: DefaultTruncate,
		},
		TUI: TUIConfig{
			ShowHelp: true,
		},
	}
}

// ConfigPath returns the path to the CLI config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	dir := configHome()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() string {
	dir := configHome()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, AppName, "tracknoted.toml")
}

// StylePath returns the default user stylesheet path for the overlay.
func StylePath() string {
	dir := configHome()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, AppName, "style.css")
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// DatabasePath returns the default annotation database path.
func DatabasePath() string {
	return filepath.Join(DataPath(), "annotations.db")
}

// ResolveStorePath returns path if set, otherwise the default database path.
func ResolveStorePath(path string) string {
	if path == "" {
		return DatabasePath()
	}
	return expandPath(path)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
