package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Page.Size != "a4" || cfg.Page.Orientation != "portrait" || cfg.Page.Margin != "20mm" {
		t.Errorf("Page = %+v, want a4 portrait 20mm", cfg.Page)
	}
	if cfg.Render.Method != "rod" {
		t.Errorf("Render.Method = %q, want rod", cfg.Render.Method)
	}
	if cfg.Footer.Enabled || cfg.Watermark.Enabled {
		t.Error("footer and watermark should be disabled by default")
	}
	if cfg.Assets.BasePath != "" {
		t.Errorf("Assets.BasePath = %q, want empty", cfg.Assets.BasePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Fatalf("error = %v, want ErrFieldTooLong", err)
				}
				if !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q should name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"unknown size is accepted", func(c *Config) { c.Page.Size = "b5" }, nil},
		{"case-insensitive orientation", func(c *Config) { c.Page.Orientation = "Landscape" }, nil},
		{"bad orientation", func(c *Config) { c.Page.Orientation = "sideways" }, ErrInvalidValue},
		{"method both", func(c *Config) { c.Render.Method = "both" }, nil},
		{"bad method", func(c *Config) { c.Render.Method = "playwright" }, ErrInvalidValue},
		{"bad footer position", func(c *Config) { c.Footer.Position = "top" }, ErrInvalidValue},
		{"bad duration", func(c *Config) { c.Render.ChartTimeout = "soon" }, ErrInvalidValue},
		{"negative duration", func(c *Config) { c.Render.Settle = "-1s" }, ErrInvalidValue},
		{"timeout below default waits", func(c *Config) { c.Render.Timeout = "3m" }, ErrInvalidValue},
		{"timeout covering default waits", func(c *Config) { c.Render.Timeout = "4m" }, nil},
		{"timeout covering short waits", func(c *Config) {
			c.Render.LibraryTimeout, c.Render.ChartTimeout, c.Render.Settle, c.Render.Timeout = "10s", "20s", "0s", "30s"
		}, nil},
		{"timeout below short waits", func(c *Config) {
			c.Render.LibraryTimeout, c.Render.ChartTimeout, c.Render.Timeout = "10s", "20s", "30s"
		}, ErrInvalidValue},
		{"math wait longer than timeout", func(c *Config) {
			c.Render.LibraryTimeout, c.Render.ChartTimeout, c.Render.MathTimeout, c.Render.Timeout = "1s", "1s", "5m", "4m"
		}, ErrInvalidValue},
		{"margin too long", func(c *Config) { c.Page.Margin = strings.Repeat("1", MaxMarginLength+1) }, ErrFieldTooLong},
		{"footer text too long", func(c *Config) { c.Footer.Text = strings.Repeat("x", MaxTextLength+1) }, ErrFieldTooLong},
		{"watermark without text", func(c *Config) { c.Watermark.Enabled = true }, ErrInvalidValue},
		{"watermark opacity out of range", func(c *Config) {
			c.Watermark = WatermarkConfig{Enabled: true, Text: "DRAFT", Opacity: 1.5}
		}, ErrInvalidValue},
		{"watermark angle out of range", func(c *Config) {
			c.Watermark = WatermarkConfig{Enabled: true, Text: "DRAFT", Opacity: 0.1, Angle: 120}
		}, ErrInvalidValue},
		{"disabled watermark is not checked", func(c *Config) { c.Watermark.Opacity = 7 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("bad log level", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Log.Level = "chatty"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "log:") {
			t.Errorf("Validate() error = %v, want log error", err)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		var cfg *Config
		if err := cfg.Validate(); err != nil {
			t.Errorf("nil Validate() = %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRenderConfig_Durations
// ---------------------------------------------------------------------------

func TestRenderConfig_Durations(t *testing.T) {
	t.Parallel()

	d, err := RenderConfig{LibraryTimeout: "10s", ChartTimeout: "1m", MathTimeout: "5s", Settle: "0s"}.Durations()
	if err != nil {
		t.Fatalf("Durations() error = %v", err)
	}
	if d.Library != 10*time.Second || d.Chart != time.Minute || d.Math != 5*time.Second {
		t.Errorf("Durations() = %+v", d)
	}
	if d.Settle != 0 || !d.SettleSet() {
		t.Error("explicit 0s settle should be reported as set")
	}
	if d.Overall != 0 {
		t.Errorf("Overall = %v, want 0 when unset", d.Overall)
	}

	d, err = RenderConfig{}.Durations()
	if err != nil {
		t.Fatalf("Durations() error = %v", err)
	}
	if d.SettleSet() {
		t.Error("absent settle should not be reported as set")
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("loads every section", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `input:
  defaultDir: "/notebooks"
output:
  defaultDir: "/pdf"
page:
  size: a3
  orientation: landscape
  margin: "10mm 15mm"
content:
  excludeInput: true
  excludePrompts: true
render:
  method: both
  plotlyJS: /opt/js/plotly.min.js
  mathJaxJS: /opt/js/tex-svg.js
  chartTimeout: 90s
  settle: 250ms
css:
  style: compact
footer:
  enabled: true
  position: center
  showPageNumber: true
watermark:
  enabled: true
  text: DRAFT
  opacity: 0.1
  angle: -45
log:
  level: debug
  format: json
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Input.DefaultDir != "/notebooks" || cfg.Output.DefaultDir != "/pdf" {
			t.Errorf("dirs = %q, %q", cfg.Input.DefaultDir, cfg.Output.DefaultDir)
		}
		if cfg.Page != (PageConfig{Size: "a3", Orientation: "landscape", Margin: "10mm 15mm"}) {
			t.Errorf("Page = %+v", cfg.Page)
		}
		if !cfg.Content.ExcludeInput || !cfg.Content.ExcludePrompts {
			t.Errorf("Content = %+v", cfg.Content)
		}
		if cfg.Render.Method != "both" || cfg.Render.PlotlyJS != "/opt/js/plotly.min.js" || cfg.Render.ChartTimeout != "90s" {
			t.Errorf("Render = %+v", cfg.Render)
		}
		if cfg.CSS.Style != "compact" || !cfg.Footer.Enabled || cfg.Watermark.Text != "DRAFT" {
			t.Errorf("CSS/Footer/Watermark not loaded: %+v", cfg)
		}
		if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v", cfg.Log)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig("/nonexistent/path/config.yaml"); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown name returns ErrConfigNotFound with tried paths", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("nb2pdf-missing-config-name")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "nb2pdf-missing-config-name.yaml") {
			t.Errorf("error %q should list tried paths", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "page: [unclosed")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "page:\n  size: a4\n  colour: red\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("validation runs after parsing", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "render:\n  method: playwright\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"work":            false,
		"./work.yaml":     true,
		"configs/a.yaml":  true,
		`C:\cfg\a.yaml`:   true,
		"nb2pdf-defaults": false,
	} {
		if got := isFilePath(in); got != want {
			t.Errorf("isFilePath(%q) = %v, want %v", in, got, want)
		}
	}
}
