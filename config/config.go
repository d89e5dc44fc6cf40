package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed floppy.toml
var defaultConfigData []byte

// Global state populated by Initialize.
var (
	DumpRowWidth   int
	DumpDebug      bool
	DefaultProfile string
	FormatTag      string
	FormatGap3     int
	FormatFill     byte
	Profiles       map[string]FormatProfile
)

// Config is the top-level TOML schema: a default format profile name
// plus the dump output settings and the catalog of named profiles.
type Config struct {
	Default string          `toml:"default"`
	Dump    DumpSettings    `toml:"dump"`
	Format  []FormatProfile `toml:"format"`
}

// DumpSettings controls DumpSectorHex's row layout and whether reads
// default to debug mode.
type DumpSettings struct {
	RowWidth int  `toml:"row_width"`
	Debug    bool `toml:"debug"`
}

// FormatProfile maps a short nickname to a FloppyFormat tag and the
// gap3/fill-byte pair TrackData.Format uses to lay out a blank track
// under that profile.
type FormatProfile struct {
	Name     string `toml:"name"`
	Tag      string `toml:"tag"`
	Gap3     int    `toml:"gap3"`
	FillByte int    `toml:"fill_byte"`
}

// configPath determines the config file path based on the operating system.
func configPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "floppyimg")
	default:
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".floppyimg"), nil
}

// Initialize loads and validates the configuration file, creating it
// from the embedded default when absent.
func Initialize() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		configDir := filepath.Dir(path)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}
		if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("failed to create default config file at %s: %w", path, err)
		}
	}

	var conf Config
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}

	if conf.Default == "" {
		return errors.New("`default` key is missing or empty in config")
	}
	if conf.Dump.RowWidth <= 0 {
		return fmt.Errorf("dump.row_width must be positive, got %d", conf.Dump.RowWidth)
	}

	Profiles = make(map[string]FormatProfile, len(conf.Format))
	for _, p := range conf.Format {
		if p.Gap3 <= 0 {
			return fmt.Errorf("format %q has invalid gap3: %d (must be positive)", p.Name, p.Gap3)
		}
		if p.FillByte < 0 || p.FillByte > 0xFF {
			return fmt.Errorf("format %q has invalid fill_byte: %d (must be 0-255)", p.Name, p.FillByte)
		}
		if p.Tag == "" {
			return fmt.Errorf("format %q is missing a tag", p.Name)
		}
		Profiles[p.Name] = p
	}

	def, ok := Profiles[conf.Default]
	if !ok {
		return fmt.Errorf("default format %q not found among format profiles", conf.Default)
	}

	DumpRowWidth = conf.Dump.RowWidth
	DumpDebug = conf.Dump.Debug
	DefaultProfile = conf.Default
	FormatTag = def.Tag
	FormatGap3 = def.Gap3
	FormatFill = byte(def.FillByte)

	return nil
}

// Profile looks up a named format profile, falling back to the
// config's default when name is empty.
func Profile(name string) (FormatProfile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := Profiles[name]
	if !ok {
		return FormatProfile{}, fmt.Errorf("format profile %q not found in configuration", name)
	}
	return p, nil
}
