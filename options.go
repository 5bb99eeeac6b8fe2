package nb2pdf

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds Converter configuration.
type converterConfig struct {
	timeout    time.Duration
	backend    Backend
	styleInput string // name, file path, or CSS content
	assetPath  string
	plotlyJS   string
	mathJaxJS  string
	waits      Waits
}

// defaultTimeout bounds a whole conversion. It covers both host chart waits,
// the settle delay and printHeadroom.
const defaultTimeout = 4 * time.Minute

// Waits are the host-side readiness ceilings. Zero fields use the
// coordinator defaults; a negative Settle disables the settle delay.
type Waits struct {
	Library time.Duration // chart library symbol
	Chart   time.Duration // chart completion flag
	Math    time.Duration // math runtime and typeset pass
	Settle  time.Duration // fixed delay before printing
}

// WithTimeout sets the conversion timeout.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) {
		if d > 0 {
			c.cfg.timeout = d
		}
	}
}

// WithBackend selects the browser driver used for printing.
func WithBackend(b Backend) Option {
	return func(c *Converter) {
		c.cfg.backend = b
	}
}

// WithStyle sets the base stylesheet: an embedded style name ("default",
// "compact"), a CSS file path, or raw CSS content.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.styleInput = style
	}
}

// WithAssetPath sets a directory whose styles/ and scripts/ override the
// embedded assets.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithRuntimeScripts sets local paths or URLs for the chart and math
// runtimes. Empty values use the CDN.
func WithRuntimeScripts(plotlyJS, mathJaxJS string) Option {
	return func(c *Converter) {
		c.cfg.plotlyJS = plotlyJS
		c.cfg.mathJaxJS = mathJaxJS
	}
}

// WithWaits overrides the readiness ceilings.
func WithWaits(w Waits) Option {
	return func(c *Converter) {
		c.cfg.waits = w
	}
}

// WithLogger sets the logger for conversion steps and warnings.
// A nil logger keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// withRenderer injects a renderer (tests).
func withRenderer(r pdfRenderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}
