package nb2pdf

import (
	"fmt"
	"regexp"
	"strings"
)

// Input contains conversion parameters.
type Input struct {
	Notebook       []byte        // nbformat v4 JSON (required)
	SourceDir      string        // base for relative image paths (optional)
	Title          string        // overrides the notebook title (optional)
	DefaultTitle   string        // used when the notebook has no title, e.g. the file stem
	CSS            string        // extra CSS appended after the style (optional)
	Page           *PageSettings // page settings (optional, nil = a4 portrait 20mm)
	ExcludeInput   bool          // drop code-cell sources
	ExcludePrompts bool          // drop In [n]: / Out[n]: prompts
	Footer         *Footer       // footer config (optional)
	Watermark      *Watermark    // watermark config (optional)
	HTMLOnly       bool          // skip printing, return HTML only
}

// PageSettings selects the page profile. Size keys that are not in the
// page table fall back to a4 with a warning.
type PageSettings struct {
	Size        string // a0..a5, letter, legal, tabloid, ledger, case_study
	Orientation string // "portrait", "landscape"
	Margin      string // CSS shorthand, e.g. "20mm" or "10mm 15mm"
}

// Validate checks orientation and margin. Returns nil if p is nil.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	_, _, err := ResolvePageProfile(p.Size, p.Orientation, p.Margin)
	return err
}

func (p *PageSettings) resolve() (PageProfile, []string, error) {
	if p == nil {
		return ResolvePageProfile("", "", "")
	}
	return ResolvePageProfile(p.Size, p.Orientation, p.Margin)
}

// Footer configures the PDF footer.
type Footer struct {
	Position       string // "left", "center", "right" (default: "right")
	ShowPageNumber bool
	Date           string // literal, "auto" or "auto:FORMAT"
	Status         string
	Text           string
}

// Validate checks that footer settings are valid.
// Returns nil if f is nil (nil means no footer).
func (f *Footer) Validate() error {
	if f == nil {
		return nil
	}
	switch strings.ToLower(f.Position) {
	case "", "left", "center", "right":
		return nil
	default:
		return fmt.Errorf("%w: %q (must be left, center, or right)", ErrInvalidFooterPosition, f.Position)
	}
}

// Watermark configures a diagonal background text.
type Watermark struct {
	Text    string
	Color   string  // hex, default "#888888"
	Opacity float64 // 0..1, default 0.1
	Angle   float64 // degrees, default -45
}

// Watermark defaults.
const (
	DefaultWatermarkColor   = "#888888"
	DefaultWatermarkOpacity = 0.1
	DefaultWatermarkAngle   = -45
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks the watermark color. Returns nil if w is nil.
func (w *Watermark) Validate() error {
	if w == nil || w.Color == "" {
		return nil
	}
	if !hexColorPattern.MatchString(w.Color) {
		return fmt.Errorf("%w: %q (must be #rgb or #rrggbb)", ErrInvalidWatermarkColor, w.Color)
	}
	return nil
}

// withDefaults fills zero fields with the watermark defaults.
func (w Watermark) withDefaults() Watermark {
	if w.Color == "" {
		w.Color = DefaultWatermarkColor
	}
	if w.Opacity == 0 {
		w.Opacity = DefaultWatermarkOpacity
	}
	if w.Angle == 0 {
		w.Angle = DefaultWatermarkAngle
	}
	return w
}

// ConvertResult is the output of one conversion.
type ConvertResult struct {
	HTML     []byte      // page as sent to the browser
	PDF      []byte      // nil when Input.HTMLOnly
	Backend  Backend     // backend that printed the page
	Title    string      // resolved notebook title
	Profile  PageProfile // physical page used for printing
	Charts   int         // chart outputs found
	Math     bool        // math detected in the page
	Phases   string      // readiness trail, e.g. "idle>waitingForLibrary>rendering>complete"
	Warnings []string    // non-fatal problems (unknown size, timeouts, draw failures)

	MathTypeset   bool // typeset pass finished before printing
	ChartsSettled int  // draws the page saw finish, failures included
	ChartsFailed  int  // draws the page saw fail
}
