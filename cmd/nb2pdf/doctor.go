package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-nb2pdf/internal/fileutil"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// chromedpBrowserNames are the executables chromedp's allocator looks for
// on PATH when no explicit path is given.
var chromedpBrowserNames = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
}

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Methods  methodsInfo `json:"methods"`
	Runtime  runtimeInfo `json:"runtime"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// methodsInfo holds browser detection results per render method.
type methodsInfo struct {
	Rod      chromeInfo `json:"rod"`
	Chromedp chromeInfo `json:"chromedp"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// runtimeInfo describes where the chart and math runtimes load from.
type runtimeInfo struct {
	PlotlyJS  string `json:"plotly_js"`  // path, URL, or "cdn"
	MathJaxJS string `json:"mathjax_js"` // path, URL, or "cdn"
	Offline   bool   `json:"offline"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(env.Getenv)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  getenv("ROD_NO_SANDBOX"),
			BrowserBin: getenv("ROD_BROWSER_BIN"),
		},
	}

	checkBrowsers(result)
	checkRuntime(result, getenv)
	checkEnvironment(result, getenv)
	checkSystem(result)
	result.Status = statusOf(result)

	return result
}

// statusOf derives the overall status from errors and warnings.
func statusOf(r *doctorResult) string {
	switch {
	case len(r.Errors) > 0:
		return statusErrors
	case len(r.Warnings) > 0:
		return statusWarnings
	default:
		return statusReady
	}
}

// checkBrowsers locates Chrome for each method. A method without a browser
// is a warning while the other one still works; none at all is an error.
func checkBrowsers(result *doctorResult) {
	sandbox := result.Env.NoSandbox != "1"

	if bin := result.Env.BrowserBin; bin != "" {
		// Both methods launch ROD_BROWSER_BIN when set.
		info := probeChrome(bin, false)
		result.Methods.Rod, result.Methods.Chromedp = info, info
		if !info.Found {
			result.Errors = append(result.Errors, fmt.Sprintf("ROD_BROWSER_BIN not found at %s", bin))
		}
		return
	}

	if p, found := launcher.LookPath(); found {
		result.Methods.Rod = probeChrome(p, sandbox)
	}
	for _, name := range chromedpBrowserNames {
		if p, err := exec.LookPath(name); err == nil {
			result.Methods.Chromedp = probeChrome(p, sandbox)
			break
		}
	}

	switch {
	case !result.Methods.Rod.Found && !result.Methods.Chromedp.Found:
		result.Errors = append(result.Errors,
			"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
	case !result.Methods.Rod.Found:
		result.Warnings = append(result.Warnings, "rod cannot locate Chrome; use --method chromedp or set ROD_BROWSER_BIN")
	case !result.Methods.Chromedp.Found:
		result.Warnings = append(result.Warnings, "chromedp cannot locate Chrome on PATH; use --method rod or set ROD_BROWSER_BIN")
	}
	for _, info := range []chromeInfo{result.Methods.Rod, result.Methods.Chromedp} {
		if info.Found && info.Version == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version from %s", info.Path))
		}
	}
}

// probeChrome checks that path exists and reads its version.
func probeChrome(path string, sandbox bool) chromeInfo {
	if _, err := os.Stat(path); err != nil {
		return chromeInfo{Path: path}
	}
	info := chromeInfo{Found: true, Path: path, Sandbox: sandbox}
	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- browser path from PATH or env
	if err == nil {
		info.Version = strings.TrimSpace(string(out))
	}
	return info
}

// checkRuntime reports whether the chart and math runtimes are local.
// Missing local bundles are errors: conversions with charts or math would
// fail at startup.
func checkRuntime(result *doctorResult, getenv func(string) string) {
	plotly, mathjax := getenv("NB2PDF_PLOTLY_JS"), getenv("NB2PDF_MATHJAX_JS")
	result.Runtime.PlotlyJS = runtimeSource(plotly)
	result.Runtime.MathJaxJS = runtimeSource(mathjax)
	result.Runtime.Offline = isLocal(plotly) && isLocal(mathjax)

	for _, s := range []struct{ name, value string }{
		{"NB2PDF_PLOTLY_JS", plotly},
		{"NB2PDF_MATHJAX_JS", mathjax},
	} {
		if isLocal(s.value) && !fileutil.FileExists(s.value) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s not found at %s", s.name, s.value))
		}
	}
	if !result.Runtime.Offline {
		result.Warnings = append(result.Warnings,
			"Charts and math load from a CDN; set NB2PDF_PLOTLY_JS and NB2PDF_MATHJAX_JS for offline use")
	}
}

func runtimeSource(v string) string {
	if v == "" {
		return "cdn"
	}
	return v
}

func isLocal(v string) bool {
	return v != "" && !fileutil.IsURL(v)
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// CI=true and ROD_BROWSER_BIN already disable the sandbox.
	sandboxOff := result.Env.NoSandbox == "1" || getenv("CI") == "true" || result.Env.BrowserBin != ""
	if (result.Env.Container || result.Env.CI) && !sandboxOff {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("NB2PDF_CONTAINER") == "1" {
		return true, "NB2PDF_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for intermediate HTML.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "nb2pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	ok := color.New(color.FgGreen).Sprint("[OK]")
	warn := color.New(color.FgYellow).Sprint("[WARN]")
	bad := color.New(color.FgRed).Sprint("[ERROR]")

	fmt.Fprintln(w, "nb2pdf doctor")
	fmt.Fprintln(w)

	for _, m := range []struct {
		name string
		info chromeInfo
	}{
		{"rod", r.Methods.Rod},
		{"chromedp", r.Methods.Chromedp},
	} {
		fmt.Fprintf(w, "Method %s\n", m.name)
		if !m.info.Found {
			fmt.Fprintf(w, "  %s Chrome not found\n", warn)
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "  %s Found at %s\n", ok, m.info.Path)
		if m.info.Version != "" {
			fmt.Fprintf(w, "  %s Version: %s\n", ok, m.info.Version)
		}
		if m.info.Sandbox {
			fmt.Fprintf(w, "  %s Sandbox: enabled\n", ok)
		} else {
			fmt.Fprintf(w, "  %s Sandbox: disabled\n", ok)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Runtime")
	fmt.Fprintf(w, "  %s Plotly: %s\n", ok, r.Runtime.PlotlyJS)
	fmt.Fprintf(w, "  %s MathJax: %s\n", ok, r.Runtime.MathJaxJS)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  %s Platform: %s/%s\n", ok, r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  %s Container: detected (%s)\n", ok, r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintf(w, "  %s CI: detected\n", ok)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintf(w, "  %s Temp directory: writable\n", ok)
	} else {
		fmt.Fprintf(w, "  %s Temp directory: not writable\n", bad)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warn, msg)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", bad, msg)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
