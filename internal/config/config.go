package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-nb2pdf/internal/coordinator"
	"github.com/alnah/go-nb2pdf/internal/logging"
	"github.com/alnah/go-nb2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// UserDirName is the directory under os.UserConfigDir searched for configs.
const UserDirName = "go-nb2pdf"

// Field length limits.
const (
	MaxPathLength           = 4096
	MaxStatusLength         = 50  // "DRAFT", "FINAL", "v1.2.3"
	MaxDateLength           = 30  // "2025-12-31" or "auto:DD/MM/YYYY"
	MaxTextLength           = 500 // footer free-form text
	MaxPageSizeLength       = 16  // "case_study"
	MaxMarginLength         = 64  // "10mm 15mm 20mm 25mm"
	MaxWatermarkTextLength  = 50
	MaxWatermarkColorLength = 20
	MaxStyleLength          = 256
	MaxDurationLength       = 20
)

// Config holds all configuration for notebook conversion.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Page      PageConfig      `yaml:"page"`
	Content   ContentConfig   `yaml:"content"`
	Render    RenderConfig    `yaml:"render"`
	CSS       CSSConfig       `yaml:"css"`
	Assets    AssetsConfig    `yaml:"assets"`
	Footer    FooterConfig    `yaml:"footer"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Log       logging.Config  `yaml:"log"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string `yaml:"size"`        // a0..a5, letter, legal, tabloid, ledger, case_study (default: a4)
	Orientation string `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      string `yaml:"margin"`      // CSS shorthand (default: "20mm")
}

// ContentConfig selects which parts of each cell are printed.
type ContentConfig struct {
	ExcludeInput   bool `yaml:"excludeInput"`
	ExcludePrompts bool `yaml:"excludePrompts"`
}

// RenderConfig controls the browser backends and readiness waits.
// Durations use Go syntax ("30s", "2m").
type RenderConfig struct {
	Method         string `yaml:"method"`         // rod, chromedp, both (default: rod)
	PlotlyJS       string `yaml:"plotlyJS"`       // local Plotly bundle (empty = CDN)
	MathJaxJS      string `yaml:"mathJaxJS"`      // local MathJax bundle (empty = CDN)
	LibraryTimeout string `yaml:"libraryTimeout"` // wait for the chart library
	ChartTimeout   string `yaml:"chartTimeout"`   // wait for all charts to draw
	MathTimeout    string `yaml:"mathTimeout"`    // wait for the math runtime and typeset
	Settle         string `yaml:"settle"`         // delay before printing
	Timeout        string `yaml:"timeout"`        // whole conversion
}

// CSSConfig defines CSS styling options.
type CSSConfig struct {
	Style string `yaml:"style"` // style name or path (empty = default)
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// FooterConfig defines page footer options.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // "left", "center", "right" (default: "right")
	ShowPageNumber bool   `yaml:"showPageNumber"`
	Date           string `yaml:"date"`   // YYYY-MM-DD or "auto"
	Status         string `yaml:"status"` // Optional: "DRAFT", "FINAL", "v1.2"
	Text           string `yaml:"text"`   // Optional free-form text
}

// WatermarkConfig defines background watermark options.
type WatermarkConfig struct {
	Enabled bool    `yaml:"enabled"`
	Text    string  `yaml:"text"`    // Text to display (e.g., "DRAFT", "CONFIDENTIAL")
	Color   string  `yaml:"color"`   // Hex color (default: "#888888")
	Opacity float64 `yaml:"opacity"` // 0.0 to 1.0 (default: 0.1)
	Angle   float64 `yaml:"angle"`   // Rotation in degrees (default: -45)
}

// RenderDurations holds the parsed render durations. Zero means unset.
type RenderDurations struct {
	Library  time.Duration
	Chart    time.Duration
	Math     time.Duration
	Settle   time.Duration
	Overall  time.Duration
	settleOK bool
}

// SettleSet reports whether render.settle was given, so an explicit "0s"
// can be told apart from an absent value.
func (d RenderDurations) SettleSet() bool {
	return d.settleOK
}

// validateBudget rejects a render.timeout that cannot hold the chart waits
// (library then drawing) or the math wait, plus the settle delay. Unset
// waits count at their defaults.
func (d RenderDurations) validateBudget() error {
	if d.Overall == 0 {
		return nil
	}
	library := cmp.Or(d.Library, coordinator.PageLibraryTimeout)
	chart := cmp.Or(d.Chart, coordinator.PageRenderTimeout)
	math := cmp.Or(d.Math, coordinator.DefaultMathTimeout)
	settle := d.Settle
	if !d.settleOK {
		settle = coordinator.DefaultSettle
	}

	need := max(library+chart, math) + settle
	if d.Overall < need {
		return fmt.Errorf("%w: render.timeout %s is shorter than the render waits (%s)", ErrInvalidValue, d.Overall, need)
	}
	return nil
}

// Durations parses the render durations.
func (r RenderConfig) Durations() (RenderDurations, error) {
	var d RenderDurations
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"render.libraryTimeout", r.LibraryTimeout, &d.Library},
		{"render.chartTimeout", r.ChartTimeout, &d.Chart},
		{"render.mathTimeout", r.MathTimeout, &d.Math},
		{"render.settle", r.Settle, &d.Settle},
		{"render.timeout", r.Timeout, &d.Overall},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return RenderDurations{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.name, err)
		}
		if v < 0 {
			return RenderDurations{}, fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, f.name, f.raw)
		}
		*f.dst = v
	}
	d.settleOK = r.Settle != ""
	return d, nil
}

// Validate checks field lengths, enumerations and durations.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}

	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.margin", c.Page.Margin, MaxMarginLength},
		{"render.plotlyJS", c.Render.PlotlyJS, MaxPathLength},
		{"render.mathJaxJS", c.Render.MathJaxJS, MaxPathLength},
		{"css.style", c.CSS.Style, MaxStyleLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"footer.date", c.Footer.Date, MaxDateLength},
		{"footer.status", c.Footer.Status, MaxStatusLength},
		{"footer.text", c.Footer.Text, MaxTextLength},
		{"log.file", c.Log.File, MaxPathLength},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	// Page size is not checked against the table: unknown sizes fall back
	// to a4 with a warning at conversion time.
	if err := validateEnum("page.orientation", c.Page.Orientation, "portrait", "landscape"); err != nil {
		return err
	}
	if err := validateEnum("render.method", c.Render.Method, "rod", "chromedp", "both"); err != nil {
		return err
	}
	if err := validateEnum("footer.position", c.Footer.Position, "left", "center", "right"); err != nil {
		return err
	}
	d, err := c.Render.Durations()
	if err != nil {
		return err
	}
	if err := d.validateBudget(); err != nil {
		return err
	}

	if c.Watermark.Enabled {
		if c.Watermark.Text == "" {
			return fmt.Errorf("%w: watermark.text: required when watermark is enabled", ErrInvalidValue)
		}
		if err := validateFieldLength("watermark.text", c.Watermark.Text, MaxWatermarkTextLength); err != nil {
			return err
		}
		if err := validateFieldLength("watermark.color", c.Watermark.Color, MaxWatermarkColorLength); err != nil {
			return err
		}
		if c.Watermark.Opacity < 0 || c.Watermark.Opacity > 1 {
			return fmt.Errorf("%w: watermark.opacity: must be between 0 and 1, got %.2f", ErrInvalidValue, c.Watermark.Opacity)
		}
		if c.Watermark.Angle < -90 || c.Watermark.Angle > 90 {
			return fmt.Errorf("%w: watermark.angle: must be between -90 and 90, got %.2f", ErrInvalidValue, c.Watermark.Angle)
		}
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(fieldName, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns a neutral configuration: a4 portrait, rod backend,
// embedded assets, footer and watermark disabled.
func DefaultConfig() *Config {
	return &Config{
		Page:   PageConfig{Size: "a4", Orientation: "portrait", Margin: "20mm"},
		Render: RenderConfig{Method: "rod"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <UserConfigDir>/go-nb2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, UserDirName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
