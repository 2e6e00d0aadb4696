// Package config loads svgconv defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	svgconv "github.com/galihrivanto/go-svgconv"
)

// FileName is the config file looked up inside Dir.
const FileName = "config.yaml"

// Config holds defaults for flags that are not given on the command line.
type Config struct {
	Backend      string  `yaml:"backend"`
	Inkscape     string  `yaml:"inkscape"`
	Retries      int     `yaml:"retries"`
	DPI          float64 `yaml:"dpi"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Background   string  `yaml:"background"`
	AllowMissing bool    `yaml:"allow_missing"`
	Escape       bool    `yaml:"escape"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:  svgconv.BackendAuto,
		Inkscape: "inkscape",
		DPI:      96,
	}
}

// Dir returns the svgconv configuration directory.
//
// Resolution:
//   - $SVGCONV_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/svgconv if set
//   - %AppData%/svgconv on Windows
//   - ~/.config/svgconv on macOS and Linux
func Dir() string {
	if dir := os.Getenv("SVGCONV_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "svgconv")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "svgconv")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "svgconv")
}

// DefaultPath returns the config file in Dir, or "" when no directory
// can be resolved.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, FileName)
}

// Load reads the config at path. An empty path means DefaultPath, and a
// missing default file yields Default. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges and the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case svgconv.BackendAuto, svgconv.BackendRaster, svgconv.BackendInkscape:
	default:
		return fmt.Errorf("backend must be one of auto, raster, inkscape; got %q", c.Backend)
	}

	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.DPI < 0 {
		return errors.New("dpi must not be negative")
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New("width and height must not be negative")
	}

	return nil
}

// Options translates the config into converter options.
func (c *Config) Options() []svgconv.Option {
	return []svgconv.Option{
		svgconv.Backend(c.Backend),
		svgconv.CommandName(c.Inkscape),
		svgconv.MaxRetry(c.Retries),
		svgconv.DPI(c.DPI),
		svgconv.Width(c.Width),
		svgconv.Height(c.Height),
		svgconv.Background(c.Background),
	}
}

func (c *Config) applyDefaults() {
	def := Default()

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if strings.TrimSpace(c.Inkscape) == "" {
		c.Inkscape = def.Inkscape
	}
	if c.DPI == 0 {
		c.DPI = def.DPI
	}
}
