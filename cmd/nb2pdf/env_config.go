package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-nb2pdf/internal/config"
)

// envPrefix marks the variables read by nb2pdf.
const envPrefix = "NB2PDF_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // NB2PDF_CONFIG: config file name or path
	Method     string        // NB2PDF_METHOD: rod, chromedp, both
	Timeout    time.Duration // NB2PDF_TIMEOUT: per-notebook timeout
	PlotlyJS   string        // NB2PDF_PLOTLY_JS: local Plotly bundle
	MathJaxJS  string        // NB2PDF_MATHJAX_JS: local MathJax bundle

	// Tier 2 - I/O and page
	InputDir    string // NB2PDF_INPUT_DIR: default input directory
	OutputDir   string // NB2PDF_OUTPUT_DIR: default output directory
	PageSize    string // NB2PDF_PAGE_SIZE: a4, a3, letter...
	Orientation string // NB2PDF_ORIENTATION: portrait, landscape
	Margin      string // NB2PDF_MARGIN: CSS shorthand
	Style       string // NB2PDF_STYLE: CSS style name or path

	// Tier 3 - Extended
	WatermarkText string // NB2PDF_WATERMARK_TEXT: watermark text
	FooterText    string // NB2PDF_FOOTER_TEXT: footer text
	LogLevel      string // NB2PDF_LOG_LEVEL: debug, info, warn, error
	LogFile       string // NB2PDF_LOG_FILE: rotating log file
	Workers       int    // NB2PDF_WORKERS: parallel workers
}

// knownEnvVars lists valid NB2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"NB2PDF_CONFIG":     true,
	"NB2PDF_METHOD":     true,
	"NB2PDF_TIMEOUT":    true,
	"NB2PDF_PLOTLY_JS":  true,
	"NB2PDF_MATHJAX_JS": true,
	// Tier 2 - I/O and page
	"NB2PDF_INPUT_DIR":   true,
	"NB2PDF_OUTPUT_DIR":  true,
	"NB2PDF_PAGE_SIZE":   true,
	"NB2PDF_ORIENTATION": true,
	"NB2PDF_MARGIN":      true,
	"NB2PDF_STYLE":       true,
	// Tier 3 - Extended
	"NB2PDF_WATERMARK_TEXT": true,
	"NB2PDF_FOOTER_TEXT":    true,
	"NB2PDF_LOG_LEVEL":      true,
	"NB2PDF_LOG_FILE":       true,
	"NB2PDF_WORKERS":        true,
	// Read by doctor
	"NB2PDF_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv("NB2PDF_CONFIG"),
		Method:        getenv("NB2PDF_METHOD"),
		PlotlyJS:      getenv("NB2PDF_PLOTLY_JS"),
		MathJaxJS:     getenv("NB2PDF_MATHJAX_JS"),
		InputDir:      getenv("NB2PDF_INPUT_DIR"),
		OutputDir:     getenv("NB2PDF_OUTPUT_DIR"),
		PageSize:      getenv("NB2PDF_PAGE_SIZE"),
		Orientation:   getenv("NB2PDF_ORIENTATION"),
		Margin:        getenv("NB2PDF_MARGIN"),
		Style:         getenv("NB2PDF_STYLE"),
		WatermarkText: getenv("NB2PDF_WATERMARK_TEXT"),
		FooterText:    getenv("NB2PDF_FOOTER_TEXT"),
		LogLevel:      getenv("NB2PDF_LOG_LEVEL"),
		LogFile:       getenv("NB2PDF_LOG_FILE"),
	}

	if timeout := getenv("NB2PDF_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("NB2PDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints a warning for each unrecognized NB2PDF_*
// variable, in name order. Helps catch typos like NB2PDF_PLOTLYJS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIfEmpty(&cfg.Render.Method, env.Method)
	setIfEmpty(&cfg.Render.PlotlyJS, env.PlotlyJS)
	setIfEmpty(&cfg.Render.MathJaxJS, env.MathJaxJS)
	setIfEmpty(&cfg.Input.DefaultDir, env.InputDir)
	setIfEmpty(&cfg.Output.DefaultDir, env.OutputDir)
	setIfEmpty(&cfg.Page.Size, env.PageSize)
	setIfEmpty(&cfg.Page.Orientation, env.Orientation)
	setIfEmpty(&cfg.Page.Margin, env.Margin)
	setIfEmpty(&cfg.CSS.Style, env.Style)
	setIfEmpty(&cfg.Log.Level, env.LogLevel)
	setIfEmpty(&cfg.Log.File, env.LogFile)

	// Watermark and footer text auto-enable their feature.
	if env.WatermarkText != "" && cfg.Watermark.Text == "" {
		cfg.Watermark.Text = env.WatermarkText
		cfg.Watermark.Enabled = true
	}
	if env.FooterText != "" && cfg.Footer.Text == "" {
		cfg.Footer.Text = env.FooterText
		cfg.Footer.Enabled = true
	}
}

func setIfEmpty(dst *string, v string) {
	if v != "" && *dst == "" {
		*dst = v
	}
}
