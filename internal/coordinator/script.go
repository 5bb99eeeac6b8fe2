package coordinator

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Names shared between the host probes and the in-page script.
const (
	StateGlobal   = "__nb2pdfRenderState"
	LibraryGlobal = "Plotly"
	PayloadsID    = "nb2pdf-charts"
)

const completeExpr = "!!(window." + StateGlobal + " && window." + StateGlobal + ".complete)"

// Host probes. Each is a function expression evaluated in the page.
const (
	// LibraryProbe also passes once the page has completed on its own, so a
	// page that gave up on the library is seen at its ceiling, not the host's.
	LibraryProbe  = "() => (typeof window." + LibraryGlobal + " !== 'undefined' && typeof window." + LibraryGlobal + ".newPlot === 'function') || " + completeExpr
	CompleteProbe = "() => " + completeExpr
	StateProbe    = "() => window." + StateGlobal + " || null"
	MathProbe     = "() => typeof window.MathJax !== 'undefined' && !!window.MathJax.startup && typeof window.MathJax.typesetPromise === 'function'"
	TypesetScript = "() => window.MathJax.startup.promise.then(() => window.MathJax.typesetPromise()).then(() => true)"
)

// In-page ceilings.
const (
	PageLibraryTimeout = 60 * time.Second
	PageRenderTimeout  = 120 * time.Second
	PagePollInterval   = 100 * time.Millisecond
)

// PageConfig parameterises the in-page coordinator script.
type PageConfig struct {
	PlaceholderPrefix string
	LibraryTimeout    time.Duration
	RenderTimeout     time.Duration
	PollInterval      time.Duration
}

// scriptData is the template view of a PageConfig.
type scriptData struct {
	StateGlobal       string
	LibraryGlobal     string
	PayloadsID        string
	PlaceholderPrefix string
	LibraryTimeoutMS  int64
	RenderTimeoutMS   int64
	PollIntervalMS    int64
}

// Script renders the in-page coordinator from its template source.
func Script(tmpl string, cfg PageConfig) (string, error) {
	if cfg.LibraryTimeout <= 0 {
		cfg.LibraryTimeout = PageLibraryTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = PageRenderTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = PagePollInterval
	}

	t, err := template.New("coordinator").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing coordinator script: %w", err)
	}

	var buf strings.Builder
	err = t.Execute(&buf, scriptData{
		StateGlobal:       StateGlobal,
		LibraryGlobal:     LibraryGlobal,
		PayloadsID:        PayloadsID,
		PlaceholderPrefix: cfg.PlaceholderPrefix,
		LibraryTimeoutMS:  cfg.LibraryTimeout.Milliseconds(),
		RenderTimeoutMS:   cfg.RenderTimeout.Milliseconds(),
		PollIntervalMS:    cfg.PollInterval.Milliseconds(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering coordinator script: %w", err)
	}
	return buf.String(), nil
}
