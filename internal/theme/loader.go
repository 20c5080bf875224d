package theme

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"
)

// embeddedThemes contains the bundled palettes.
//
//go:embed themes/*.toml
var embeddedThemes embed.FS

// Load resolves a palette by name. Resolution order:
//
//  1. <userDir>/<name>.toml
//  2. bundled palette of the same name
//  3. bundled default
//
// A user file that fails to parse falls through to the bundled palettes
// with a warning, so a bad edit never blanks the bar.
func Load(name, userDir string, logger *slog.Logger) *Theme {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = DefaultThemeName
	}

	if userDir != "" {
		path := filepath.Join(userDir, name+".toml")
		if data, err := os.ReadFile(path); err == nil {
			th, err := parse(name, data)
			if err != nil {
				logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
			} else {
				logger.Debug("loaded user theme", "theme", name, "path", path)
				return th
			}
		}
	}

	if th, ok := embedded(name); ok {
		logger.Debug("loaded bundled theme", "theme", name)
		return th
	}

	logger.Warn("theme not found, using default", "theme", name)
	th, ok := embedded(DefaultThemeName)
	if !ok {
		// The default palette ships in the binary; reaching this means a
		// broken build.
		panic("bundled default theme missing")
	}
	return th
}

func embedded(name string) (*Theme, bool) {
	data, err := embeddedThemes.ReadFile("themes/" + name + ".toml")
	if err != nil {
		return nil, false
	}
	th, err := parse(name, data)
	if err != nil {
		return nil, false
	}
	return th, true
}
