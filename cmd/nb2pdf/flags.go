package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// watermarkAngleSentinel detects if --wm-angle was explicitly set.
// Since 0 is a valid angle (horizontal), we use an out-of-range sentinel.
const watermarkAngleSentinel = -999.0

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      string
	listSizes   bool
}

// contentFlags selects what each cell prints.
type contentFlags struct {
	noInput  bool
	noPrompt bool
	title    string
	css      string
}

// renderFlags holds browser backend and readiness flags.
type renderFlags struct {
	method    string
	timeout   string
	plotlyJS  string
	mathJaxJS string
}

// footerFlags holds footer-related flags.
type footerFlags struct {
	position   string
	text       string
	date       string
	status     string
	pageNumber bool
	disabled   bool
}

// watermarkFlags holds watermark-related flags.
type watermarkFlags struct {
	text     string
	color    string
	opacity  float64
	angle    float64
	disabled bool
}

// assetFlags holds asset-related flags.
type assetFlags struct {
	style     string
	assetPath string
}

// outputFlags holds output mode flags.
type outputFlags struct {
	debug    bool // keep the intermediate HTML, debug logging
	htmlOnly bool // write HTML only, skip PDF
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	output     string
	workers    int
	page       pageFlags
	content    contentFlags
	render     renderFlags
	footer     footerFlags
	watermark  watermarkFlags
	assets     assetFlags
	outputMode outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show timing, backend and readiness phases")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "size", "s", "", "page size: a0-a5, letter, legal, tabloid, ledger, case_study")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.margin, "margin", "", "page margins, CSS shorthand (e.g. 20mm, \"10mm 15mm\")")
	fs.BoolVar(&f.listSizes, "list-sizes", false, "list page sizes and exit")
}

// addContentFlags adds cell content flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.BoolVar(&f.noInput, "no-input", false, "exclude code cell sources")
	fs.BoolVar(&f.noPrompt, "no-prompt", false, "exclude In [n]: / Out[n]: prompts")
	fs.StringVar(&f.title, "title", "", "document title (\"\" = metadata, first H1, file name)")
	fs.StringVar(&f.css, "css", "", "extra CSS file appended after the style")
}

// addRenderFlags adds backend and readiness flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.method, "method", "m", "", "render method: rod, chromedp, both")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-notebook timeout (e.g., 90s, 3m)")
	fs.StringVar(&f.plotlyJS, "plotly-js", "", "local Plotly bundle (default: CDN)")
	fs.StringVar(&f.mathJaxJS, "mathjax-js", "", "local MathJax bundle (default: CDN)")
}

// addFooterFlags adds footer flags to a FlagSet.
func addFooterFlags(fs *flag.FlagSet, f *footerFlags) {
	fs.StringVar(&f.position, "footer-position", "", "footer position: left, center, right")
	fs.StringVar(&f.text, "footer-text", "", "custom footer text")
	fs.StringVar(&f.date, "footer-date", "", "footer date: \"auto\", \"auto:FORMAT\", or literal")
	fs.StringVar(&f.status, "footer-status", "", "footer status, e.g. DRAFT")
	fs.BoolVar(&f.pageNumber, "footer-page-number", false, "show page numbers in footer")
	fs.BoolVar(&f.disabled, "no-footer", false, "disable footer")
}

// addWatermarkFlags adds watermark flags to a FlagSet.
func addWatermarkFlags(fs *flag.FlagSet, f *watermarkFlags) {
	fs.StringVar(&f.text, "wm-text", "", "watermark text")
	fs.StringVar(&f.color, "wm-color", "", "watermark color (hex)")
	fs.Float64Var(&f.opacity, "wm-opacity", 0, "watermark opacity (0.0-1.0)")
	fs.Float64Var(&f.angle, "wm-angle", watermarkAngleSentinel, "watermark angle in degrees")
	fs.BoolVar(&f.disabled, "no-watermark", false, "disable watermark")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.debug, "debug", false, "keep intermediate HTML next to the PDF, debug logging")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write HTML only, skip PDF")
}

// newConvertFlagSet registers every convert flag on a fresh FlagSet.
// Parsing and completion share it.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file, directory, or name")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addContentFlags(fs, &f.content)
	addRenderFlags(fs, &f.render)
	addFooterFlags(fs, &f.footer)
	addWatermarkFlags(fs, &f.watermark)
	addAssetFlags(fs, &f.assets)
	addOutputFlags(fs, &f.outputMode)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage goes to usageOut on -h or a parse error.
func parseConvertFlags(args []string, usageOut io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(usageOut)
	fs.Usage = func() { printConvertUsage(usageOut) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
