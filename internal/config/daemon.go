package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/tracknote/internal/overlay"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for tracknoted.
// Loaded from ~/.config/tracknote/tracknoted.toml
type DaemonConfig struct {
	Listener ListenerConfig `toml:"listener"`
	Store    StoreConfig    `toml:"store"`
	Overlay  OverlayConfig  `toml:"overlay"`
	Log      LogConfig      `toml:"log"`
	Toast    ToastConfig    `toml:"toast"`
}

// ListenerConfig selects which player's notifications are followed.
type ListenerConfig struct {
	Source      string   `toml:"source"`       // Source id, e.g. "spotify"
	AppNames    []string `toml:"app_names"`    // Extra app names mapped onto source
	MPRISPlayer string   `toml:"mpris_player"` // MPRIS name suffix, empty disables replay
	Retry       Duration `toml:"retry"`        // Reconnect interval while disconnected
}

// OverlayConfig contains indicator placement settings.
type OverlayConfig struct {
	InitialX int    `toml:"initial_x"`
	InitialY int    `toml:"initial_y"`
	Monitor  int    `toml:"monitor"`   // 0 = default, 1+ = specific monitor
	AutoOpen bool   `toml:"auto_open"` // Open the entry window shortly after expanding
	Style    string `toml:"style"`     // User stylesheet; empty = StylePath()
}

// StylePath returns the user stylesheet layered over the built-in style.
func (c *DaemonConfig) StylePath() string {
	if c.Overlay.Style == "" {
		return StylePath()
	}
	return expandPath(c.Overlay.Style)
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// ToastConfig controls feedback notifications.
type ToastConfig struct {
	Enabled     bool     `toml:"enabled"`
	MinInterval Duration `toml:"min_interval"` // Minimum gap between identical toasts
	Timeout     Duration `toml:"timeout"`      // Expire timeout sent with each toast
}

// DefaultDaemonConfig returns the default daemon configuration.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Listener: ListenerConfig{
			Source:      "spotify",
			MPRISPlayer: "spotify",
			Retry:       Duration(5 * time.Second),
		},
		Overlay: OverlayConfig{
			InitialX: overlay.InitialX,
			InitialY: overlay.InitialY,
			AutoOpen: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Toast: ToastConfig{
			Enabled:     true,
			MinInterval: Duration(2 * time.Second),
			Timeout:     Duration(2 * time.Second),
		},
	}
}

// LoadDaemonConfig loads the daemon configuration from path, or from
// DaemonConfigPath when path is empty.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		path = DaemonConfigPath()
	}
	if path == "" {
		return nil, fmt.Errorf("failed to get config path: no home directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig writes the daemon configuration to path.
func SaveDaemonConfig(config *DaemonConfig, path string) error {
	if path == "" {
		path = DaemonConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if strings.TrimSpace(c.Listener.Source) == "" {
		return fmt.Errorf("listener source must not be empty")
	}
	if c.Listener.Retry.Duration() < 0 {
		return fmt.Errorf("listener retry must not be negative, got %s", c.Listener.Retry.Duration())
	}
	if c.Overlay.Monitor < 0 {
		return fmt.Errorf("monitor must be 0 or greater, got %d", c.Overlay.Monitor)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Toast.MinInterval.Duration() < 0 {
		return fmt.Errorf("toast min_interval must not be negative, got %s", c.Toast.MinInterval.Duration())
	}
	return nil
}

// SourceAliases returns the configured app names lower-cased.
func (c *DaemonConfig) SourceAliases() []string {
	out := make([]string, 0, len(c.Listener.AppNames))
	for _, name := range c.Listener.AppNames {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// StorePath returns the database path with defaults applied.
func (c *DaemonConfig) StorePath() string {
	return ResolveStorePath(c.Store.Path)
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", level)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
