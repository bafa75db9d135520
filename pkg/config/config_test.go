package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chart.Preset != "large" {
		t.Errorf("expected default preset 'large', got %q", cfg.Chart.Preset)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("expected default export format 'png', got %q", cfg.Export.Format)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("expected default addr ':8080', got %q", cfg.Serve.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Chart.Preset != "large" {
		t.Errorf("expected default config, got preset %q", cfg.Chart.Preset)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
chart:
  preset: small
  title: Unemployment
  width: 640

tooltip:
  fixed: true
  x: 12
  y: 40

export:
  dir: ~/charts
  format: svg

serve:
  addr: 127.0.0.1:9000
  db: /var/lib/chartpin.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chart.Preset != "small" || cfg.Chart.Title != "Unemployment" || cfg.Chart.Width != 640 {
		t.Errorf("chart section = %+v", cfg.Chart)
	}
	if cfg.Tooltip.Fixed == nil || !*cfg.Tooltip.Fixed || cfg.Tooltip.X != 12 || cfg.Tooltip.Y != 40 {
		t.Errorf("tooltip section = %+v", cfg.Tooltip)
	}
	// Path should have ~ expanded
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "charts"); cfg.Export.Dir != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Export.Dir)
	}
	if cfg.Export.Format != "svg" {
		t.Errorf("expected format 'svg', got %q", cfg.Export.Format)
	}
	if cfg.Serve.Addr != "127.0.0.1:9000" || cfg.Serve.DB != "/var/lib/chartpin.db" {
		t.Errorf("serve section = %+v", cfg.Serve)
	}
	// unset values keep their defaults
	if cfg.Serve.LogFile == "" {
		t.Errorf("expected default log file to survive")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chart:\n  preset: huge\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Chart.Title = "Round trip"
	cfg.Export.Dir = "/tmp/snaps"
	cfg.Export.Format = "svg"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CHARTPIN_PRESET":        "small",
		"CHARTPIN_WIDTH":         "800",
		"CHARTPIN_EXPORT_FORMAT": "svg",
		"CHARTPIN_ADDR":          ":9999",
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Chart.Preset != "small" || cfg.Chart.Width != 800 || cfg.Export.Format != "svg" || cfg.Serve.Addr != ":9999" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Chart.Height != 0 {
		t.Errorf("unset variable changed height to %d", cfg.Chart.Height)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad width":  {"CHARTPIN_WIDTH": "wide"},
		"bad format": {"CHARTPIN_EXPORT_FORMAT": "gif"},
		"bad preset": {"CHARTPIN_PRESET": "tiny"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("CHARTPIN_TITLE") })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CHARTPIN_TITLE=From dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chart.Title != "From dotenv" {
		t.Errorf("title = %q, want value from .env", cfg.Chart.Title)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestXDGOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "c"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "d"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "s"))

	if got, want := ConfigDir(), filepath.Join(dir, "c", "chartpin"); got != want {
		t.Errorf("ConfigDir = %q, want %q", got, want)
	}
	if got, want := DataDir(), filepath.Join(dir, "d", "chartpin"); got != want {
		t.Errorf("DataDir = %q, want %q", got, want)
	}
	if got, want := StateDir(), filepath.Join(dir, "s", "chartpin"); got != want {
		t.Errorf("StateDir = %q, want %q", got, want)
	}
	if got, want := ConfigPath(), filepath.Join(dir, "c", "chartpin", "config.yaml"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestChartOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chart.Title = "Obesity 2018"
	cfg.Chart.Width = 1200
	cfg.Tooltip = TooltipConfig{X: 120, Y: 40}

	opts, err := cfg.ChartOptions()
	if err != nil {
		t.Fatalf("ChartOptions: %v", err)
	}
	if opts.Title != "Obesity 2018" || opts.Width != 1200 || opts.Height != 540 {
		t.Errorf("opts = %q %dx%d", opts.Title, opts.Width, opts.Height)
	}
	// the preset keeps the fixed box, only the position moves
	if opts.Tooltip.Fixed == nil || !*opts.Tooltip.Fixed || opts.Tooltip.X != 120 || opts.Tooltip.Y != 40 {
		t.Errorf("tooltip = %+v", opts.Tooltip)
	}

	cfg.Chart.Preset = "small"
	cfg.Tooltip.Fixed = chart.Bool(false)
	opts, err = cfg.ChartOptions()
	if err != nil {
		t.Fatalf("ChartOptions small: %v", err)
	}
	if *opts.Tooltip.Fixed || opts.AspectRatio == 0 {
		t.Errorf("small opts = %+v", opts)
	}
}

func TestExportFormat(t *testing.T) {
	for in, want := range map[string]chart.Format{"": chart.FormatPNG, "png": chart.FormatPNG, "SVG": chart.FormatSVG} {
		cfg := Config{Export: ExportConfig{Format: in}}
		if got := cfg.ExportFormat(); got != want {
			t.Errorf("ExportFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
