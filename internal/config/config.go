// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Widget names usable in the bar layout lists.
const (
	WidgetClock          = "clock"
	WidgetBattery        = "battery"
	WidgetPowerProfile   = "power-profile"
	WidgetBluetooth      = "bluetooth"
	WidgetVolume         = "volume"
	WidgetHyprWorkspaces = "hyprland-workspaces"
	WidgetWorkspaces     = "workspaces"
)

// Default configuration values.
const (
	DefaultClockFormat = "15:04"
	DefaultThemeName   = "default"
)

// knownWidgets is the set of widget names the bar can instantiate.
var knownWidgets = map[string]bool{
	WidgetClock:          true,
	WidgetBattery:        true,
	WidgetPowerProfile:   true,
	WidgetBluetooth:      true,
	WidgetVolume:         true,
	WidgetHyprWorkspaces: true,
	WidgetWorkspaces:     true,
}

// Config represents the slatebar configuration.
type Config struct {
	Bar   BarConfig   `toml:"bar"`
	Clock ClockConfig `toml:"clock"`
	Theme ThemeConfig `toml:"theme"`
}

// BarConfig holds the widget layout. The three lists are concatenated
// left-to-right into the status line; a widget listed twice runs twice.
type BarConfig struct {
	Left   []string `toml:"left"`
	Center []string `toml:"center"`
	Right  []string `toml:"right"`
}

// ClockConfig holds clock widget settings. Format is a Go time layout.
type ClockConfig struct {
	Format string `toml:"format"`
}

// ThemeConfig selects the block color palette.
type ThemeConfig struct {
	Name string `toml:"name"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Bar: BarConfig{
			Left:   []string{WidgetHyprWorkspaces},
			Center: []string{WidgetClock},
			Right:  []string{WidgetVolume, WidgetBluetooth, WidgetPowerProfile, WidgetBattery},
		},
		Clock: ClockConfig{
			Format: DefaultClockFormat,
		},
		Theme: ThemeConfig{
			Name: DefaultThemeName,
		},
	}
}

// Widgets returns the configured widget names in render order.
func (c *Config) Widgets() []string {
	var names []string
	names = append(names, c.Bar.Left...)
	names = append(names, c.Bar.Center...)
	names = append(names, c.Bar.Right...)
	return names
}

// Validate checks that every configured widget name is known.
func (c *Config) Validate() error {
	for _, name := range c.Widgets() {
		if !knownWidgets[name] {
			return fmt.Errorf("unknown widget %q", name)
		}
	}
	if c.Clock.Format == "" {
		return errors.New("clock format cannot be empty")
	}
	return nil
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	return filepath.Join(configHome(), "slatebar", "config.toml")
}

// ThemesDir returns the directory searched for user theme files.
func ThemesDir() string {
	return filepath.Join(configHome(), "slatebar", "themes")
}

func configHome() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
