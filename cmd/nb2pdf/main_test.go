package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", []string{"nb2pdf"}, ExitUsage, "", "Usage: nb2pdf"},
		{"version", []string{"nb2pdf", "version"}, ExitSuccess, "go-nb2pdf dev", ""},
		{"help flag", []string{"nb2pdf", "--help"}, ExitSuccess, "Commands:", ""},
		{"help convert", []string{"nb2pdf", "help", "convert"}, ExitSuccess, "--footer-date", ""},
		{"help doctor", []string{"nb2pdf", "help", "doctor"}, ExitSuccess, "nb2pdf doctor [--json]", ""},
		{"help unknown", []string{"nb2pdf", "help", "bogus"}, ExitSuccess, "", "Unknown command: bogus"},
		{"sizes", []string{"nb2pdf", "sizes"}, ExitSuccess, "case_study", ""},
		{"completion bash", []string{"nb2pdf", "completion", "bash"}, ExitSuccess, "_nb2pdf_completions", ""},
		{"completion unsupported", []string{"nb2pdf", "completion", "tcsh"}, ExitUsage, "", "unsupported shell"},
		{"implicit convert list sizes", []string{"nb2pdf", "--list-sizes"}, ExitSuccess, "Page sizes", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr := testEnv(nil, nil)
			if got := runMain(tt.args, env); got != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d", tt.args, got, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunMain_WarnsUnknownEnv(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv(map[string]string{"NB2PDF_METHODS": "rod"}, nil)
	runMain([]string{"nb2pdf", "version"}, env)
	if !strings.Contains(stderr.String(), "NB2PDF_METHODS") {
		t.Errorf("stderr = %q, want unknown variable warning", stderr.String())
	}
}

func TestIsCommand(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"convert", "sizes", "doctor", "completion", "version", "help"} {
		if !isCommand(name) {
			t.Errorf("isCommand(%q) = false", name)
		}
	}
	for _, name := range []string{"report.ipynb", "Convert", "", "-v"} {
		if isCommand(name) {
			t.Errorf("isCommand(%q) = true", name)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPrintSizes
// ---------------------------------------------------------------------------

func TestPrintSizes(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(nil, nil)
	printSizes(env.Stdout)

	out := stdout.String()
	for _, want := range []string{"a4", "210 x 297", "letter", "portrait, landscape", "rod, chromedp, both"} {
		if !strings.Contains(out, want) {
			t.Errorf("sizes output missing %q:\n%s", want, out)
		}
	}
}
