// Package config handles loading and saving chartpin configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/chartpin/config.yaml
//   - Data:    ~/.local/share/chartpin/ (exported snapshots, data sets)
//   - State:   ~/.local/state/chartpin/ (logs)
//
// A .env file in the working directory and CHARTPIN_* environment variables
// override values from the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

// ChartConfig holds chart presentation defaults.
type ChartConfig struct {
	Preset string `yaml:"preset,omitempty"` // large, small
	Title  string `yaml:"title,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// TooltipConfig positions the tooltip box of the large preset.
type TooltipConfig struct {
	Fixed *bool   `yaml:"fixed,omitempty"`
	X     float64 `yaml:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty"`
}

// ExportConfig controls where snapshots go.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`
	Format string `yaml:"format,omitempty"` // png, svg
}

// ServeConfig configures the series API server.
type ServeConfig struct {
	Addr    string `yaml:"addr,omitempty"`
	DB      string `yaml:"db,omitempty"`
	LogFile string `yaml:"log_file,omitempty"`
}

// Config is the top-level configuration for chartpin.
type Config struct {
	Chart   ChartConfig   `yaml:"chart,omitempty"`
	Tooltip TooltipConfig `yaml:"tooltip,omitempty"`
	Export  ExportConfig  `yaml:"export,omitempty"`
	Serve   ServeConfig   `yaml:"serve,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Chart: ChartConfig{
			Preset: "large",
		},
		Export: ExportConfig{
			Dir:    filepath.Join(DataDir(), "snapshots"),
			Format: "png",
		},
		Serve: ServeConfig{
			Addr:    ":8080",
			DB:      filepath.Join(DataDir(), "chartpin.db"),
			LogFile: filepath.Join(StateDir(), "serve.log"),
		},
	}
}

// ConfigDir returns the XDG config directory for chartpin.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for chartpin.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for chartpin.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "chartpin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, "chartpin")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory, then applies
// .env and CHARTPIN_* overrides.
// Returns DefaultConfig (with overrides) if the file doesn't exist.
func Load() (Config, error) {
	// a missing .env is fine; existing environment wins over it
	_ = godotenv.Load()

	path := ConfigPath()
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.Serve.DB = expandHome(cfg.Serve.DB)
	cfg.Serve.LogFile = expandHome(cfg.Serve.LogFile)
	return cfg, cfg.Validate()
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from CHARTPIN_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("CHARTPIN_PRESET", &c.Chart.Preset)
	str("CHARTPIN_TITLE", &c.Chart.Title)
	if err := num("CHARTPIN_WIDTH", &c.Chart.Width); err != nil {
		return err
	}
	if err := num("CHARTPIN_HEIGHT", &c.Chart.Height); err != nil {
		return err
	}
	str("CHARTPIN_EXPORT_DIR", &c.Export.Dir)
	str("CHARTPIN_EXPORT_FORMAT", &c.Export.Format)
	str("CHARTPIN_ADDR", &c.Serve.Addr)
	str("CHARTPIN_DB", &c.Serve.DB)
	str("CHARTPIN_LOG_FILE", &c.Serve.LogFile)
	c.Export.Dir = expandHome(c.Export.Dir)
	c.Serve.DB = expandHome(c.Serve.DB)
	return c.Validate()
}

// Validate rejects values the chart cannot use.
func (c Config) Validate() error {
	switch c.Chart.Preset {
	case "", "large", "small":
	default:
		return fmt.Errorf("chart.preset %q: want large or small", c.Chart.Preset)
	}
	switch strings.ToLower(c.Export.Format) {
	case "", "png", "svg":
	default:
		return fmt.Errorf("export.format %q: want png or svg", c.Export.Format)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		return fmt.Errorf("chart size %dx%d: must not be negative", c.Chart.Width, c.Chart.Height)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ChartOptions returns the preset options with the configured title, size
// and tooltip position applied.
func (c Config) ChartOptions() (chart.Options, error) {
	opts, err := chart.PresetOptions(c.Chart.Preset)
	if err != nil {
		return chart.Options{}, err
	}
	return chart.MergeOptions(opts, chart.Options{
		Title:  c.Chart.Title,
		Width:  c.Chart.Width,
		Height: c.Chart.Height,
		Tooltip: chart.TooltipOptions{
			Fixed: c.Tooltip.Fixed,
			X:     c.Tooltip.X,
			Y:     c.Tooltip.Y,
		},
	}), nil
}

// ExportFormat returns the configured snapshot format.
func (c Config) ExportFormat() chart.Format {
	if strings.EqualFold(c.Export.Format, "svg") {
		return chart.FormatSVG
	}
	return chart.FormatPNG
}
