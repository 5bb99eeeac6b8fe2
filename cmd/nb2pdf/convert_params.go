package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	nb2pdf "github.com/alnah/go-nb2pdf"
	"github.com/alnah/go-nb2pdf/internal/config"
	"github.com/alnah/go-nb2pdf/internal/dateutil"
)

// Sentinel errors for CLI param building.
var (
	ErrReadCSS           = errors.New("failed to read CSS file")
	ErrWatermarkTextless = errors.New("watermark text is required when watermark is enabled")
)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	title          string
	css            string
	page           *nb2pdf.PageSettings
	label          string // "<size>_<orientation>" for non-default pages
	footer         *nb2pdf.Footer
	watermark      *nb2pdf.Watermark
	excludeInput   bool
	excludePrompts bool
	debug          bool // keep HTML alongside the PDF
	htmlOnly       bool // write HTML only, skip PDF
}

// buildConversionParams resolves everything shared by all files of a run.
func buildConversionParams(flags *convertFlags, cfg *config.Config, now time.Time) (*conversionParams, error) {
	page, label, err := buildPageSettings(cfg)
	if err != nil {
		return nil, err
	}

	footer, err := buildFooterData(cfg, now)
	if err != nil {
		return nil, err
	}

	watermark, err := buildWatermarkData(flags, cfg)
	if err != nil {
		return nil, err
	}

	css, err := readCSSFile(flags.content.css)
	if err != nil {
		return nil, err
	}

	return &conversionParams{
		title:          flags.content.title,
		css:            css,
		page:           page,
		label:          label,
		footer:         footer,
		watermark:      watermark,
		excludeInput:   cfg.Content.ExcludeInput,
		excludePrompts: cfg.Content.ExcludePrompts,
		debug:          flags.outputMode.debug,
		htmlOnly:       flags.outputMode.htmlOnly,
	}, nil
}

// buildPageSettings creates nb2pdf.PageSettings from config and returns the
// file-name label of the resolved profile ("" for a4 portrait). An unknown
// size is not an error here; the converter reports it per file.
func buildPageSettings(cfg *config.Config) (*nb2pdf.PageSettings, string, error) {
	ps := &nb2pdf.PageSettings{
		Size:        cfg.Page.Size,
		Orientation: cfg.Page.Orientation,
		Margin:      cfg.Page.Margin,
	}

	profile, _, err := nb2pdf.ResolvePageProfile(ps.Size, ps.Orientation, ps.Margin)
	if err != nil {
		return nil, "", err
	}

	if profile.IsDefault() {
		return ps, "", nil
	}
	return ps, profile.Label(), nil
}

// buildFooterData creates nb2pdf.Footer from config. The date is resolved
// once so every file of a batch carries the same value.
func buildFooterData(cfg *config.Config, now time.Time) (*nb2pdf.Footer, error) {
	if !cfg.Footer.Enabled {
		return nil, nil
	}

	date, err := dateutil.Resolve(cfg.Footer.Date, now)
	if err != nil {
		return nil, fmt.Errorf("invalid footer date: %w", err)
	}

	f := &nb2pdf.Footer{
		Position:       cfg.Footer.Position,
		ShowPageNumber: cfg.Footer.ShowPageNumber,
		Date:           date,
		Status:         cfg.Footer.Status,
		Text:           cfg.Footer.Text,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// buildWatermarkData creates nb2pdf.Watermark from flags and config.
func buildWatermarkData(flags *convertFlags, cfg *config.Config) (*nb2pdf.Watermark, error) {
	if flags.watermark.disabled {
		return nil, nil
	}

	hasFlags := flags.watermark.text != ""
	if !hasFlags && !cfg.Watermark.Enabled {
		return nil, nil
	}

	w := &nb2pdf.Watermark{}
	if cfg.Watermark.Enabled {
		w.Text = cfg.Watermark.Text
		w.Color = cfg.Watermark.Color
		w.Opacity = cfg.Watermark.Opacity
		w.Angle = cfg.Watermark.Angle
	}

	// CLI flags override config
	if flags.watermark.text != "" {
		w.Text = flags.watermark.text
	}
	if flags.watermark.color != "" {
		w.Color = flags.watermark.color
	}
	if flags.watermark.opacity != 0 {
		w.Opacity = flags.watermark.opacity
	}
	if flags.watermark.angle != watermarkAngleSentinel {
		w.Angle = flags.watermark.angle
	}

	if w.Text == "" {
		return nil, ErrWatermarkTextless
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// readCSSFile reads the --css file. An empty path means no extra CSS.
func readCSSFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
	}
	return string(content), nil
}
