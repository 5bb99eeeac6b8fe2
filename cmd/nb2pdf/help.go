package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nb2pdf <command> [flags] [args]")
	fmt.Fprintln(w, "       nb2pdf <notebook.ipynb> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert notebooks to PDF (default)")
	fmt.Fprintln(w, "  sizes       List page sizes")
	fmt.Fprintln(w, "  doctor      Check browser and environment")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'nb2pdf help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nb2pdf convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Jupyter notebooks to PDF at an exact page size.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Notebook file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .pdf file, directory, or name")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -s, --size <s>            a0-a5, letter, legal, tabloid, ledger, case_study")
	fmt.Fprintln(w, "      --orientation <s>     portrait, landscape")
	fmt.Fprintln(w, "      --margin <s>          CSS shorthand: 20mm, \"10mm 15mm\", \"1in 2cm 1in 2cm\"")
	fmt.Fprintln(w, "      --list-sizes          List page sizes and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --no-input            Exclude code cell sources")
	fmt.Fprintln(w, "      --no-prompt           Exclude In [n]: / Out[n]: prompts")
	fmt.Fprintln(w, "      --title <s>           Document title (default: metadata, first H1, file name)")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -m, --method <s>          rod (default), chromedp, both")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-notebook timeout (e.g., 90s, 3m)")
	fmt.Fprintln(w, "      --plotly-js <path>    Local Plotly bundle (default: CDN)")
	fmt.Fprintln(w, "      --mathjax-js <path>   Local MathJax bundle (default: CDN)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Footer:")
	fmt.Fprintln(w, "      --footer-position <s> Position: left, center, right")
	fmt.Fprintln(w, "      --footer-text <s>     Custom footer text")
	fmt.Fprintln(w, "      --footer-date <s>     Date: \"auto\", \"auto:FORMAT\", or literal")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w, "      --footer-status <s>   Status, e.g. DRAFT")
	fmt.Fprintln(w, "      --footer-page-number  Show page numbers")
	fmt.Fprintln(w, "      --no-footer           Disable footer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watermark:")
	fmt.Fprintln(w, "      --wm-text <s>         Watermark text")
	fmt.Fprintln(w, "      --wm-color <s>        Watermark color (hex)")
	fmt.Fprintln(w, "      --wm-opacity <f>      Watermark opacity (0.0-1.0)")
	fmt.Fprintln(w, "      --wm-angle <f>        Watermark angle in degrees")
	fmt.Fprintln(w, "      --no-watermark        Disable watermark")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>           Style name (default, compact) or CSS file")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding styles/ and scripts/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --debug               Keep intermediate HTML, debug logging")
	fmt.Fprintln(w, "      --html-only           Write HTML only, skip PDF")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timing, backend and readiness phases")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  NB2PDF_PLOTLY_JS, NB2PDF_MATHJAX_JS   Offline runtime bundles")
	fmt.Fprintln(w, "  NB2PDF_METHOD, NB2PDF_PAGE_SIZE, NB2PDF_TIMEOUT, NB2PDF_CONFIG, ...")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX       Browser binary and sandbox (both methods)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "sizes":
		fmt.Fprintln(env.Stdout, "Usage: nb2pdf sizes")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List page sizes in millimetres.")
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: nb2pdf doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome for both methods, offline runtime bundles, and the environment.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: nb2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: nb2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
