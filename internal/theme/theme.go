// Package theme provides the block color palettes. A palette is a small
// TOML file of #RRGGBB strings; bundled palettes are embedded and user
// palettes in the config directory override them by name.
package theme

import (
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// DefaultThemeName is the name of the built-in default palette.
const DefaultThemeName = "default"

// Theme is a block color palette. Empty fields mean the bar's own default
// coloring (no color property emitted on the block).
type Theme struct {
	Name string `toml:"-"`

	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	ActiveFg   string `toml:"active_fg"`
	ActiveBg   string `toml:"active_bg"`
	UrgentFg   string `toml:"urgent_fg"`
	UrgentBg   string `toml:"urgent_bg"`
	ErrorFg    string `toml:"error_fg"`
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// parse decodes a palette and validates every set color.
func parse(name string, data []byte) (*Theme, error) {
	th := &Theme{Name: name}
	if err := toml.Unmarshal(data, th); err != nil {
		return nil, fmt.Errorf("failed to parse theme %q: %w", name, err)
	}
	if err := th.validate(); err != nil {
		return nil, err
	}
	return th, nil
}

func (t *Theme) validate() error {
	fields := map[string]string{
		"foreground": t.Foreground,
		"background": t.Background,
		"active_fg":  t.ActiveFg,
		"active_bg":  t.ActiveBg,
		"urgent_fg":  t.UrgentFg,
		"urgent_bg":  t.UrgentBg,
		"error_fg":   t.ErrorFg,
	}
	for key, value := range fields {
		if value != "" && !colorPattern.MatchString(value) {
			return fmt.Errorf("theme %q: %s: invalid color %q", t.Name, key, value)
		}
	}
	return nil
}
