package nb2pdf

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2pdf/internal/coordinator"
)

// pdfRenderer opens local HTML files in a headless browser.
// Implementations launch the browser lazily on the first Open.
type pdfRenderer interface {
	Open(ctx context.Context, filePath string) (browserTab, error)
	Close() error
}

// browserTab is one loaded page. Conversions never share a tab.
type browserTab interface {
	coordinator.Tab
	PrintPDF(ctx context.Context, spec *printSpec) ([]byte, error)
	Close() error
}

// printSpec holds the physical parameters of one print call.
type printSpec struct {
	Profile PageProfile
	Footer  *Footer // date already resolved; nil means no footer
}

// minFooterMarginMM keeps room for the native footer band.
const minFooterMarginMM = 19

// margins returns the print margins, growing the bottom one under a footer.
func (s *printSpec) margins() Margins {
	m := s.Profile.Margin
	if s.Footer != nil && m.Bottom < minFooterMarginMM {
		m.Bottom = minFooterMarginMM
	}
	return m
}

// paperInches returns the paper width and height in inches.
func (s *printSpec) paperInches() (width, height float64) {
	return Inches(s.Profile.WidthMM), Inches(s.Profile.HeightMM)
}

// buildFooterTemplate generates an HTML template for Chrome's native footer.
// Supports pageNumber and totalPages placeholders via CSS classes.
func buildFooterTemplate(f *Footer) string {
	if f == nil {
		return "<span></span>"
	}

	var parts []string
	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	for _, s := range []string{f.Date, f.Status, f.Text} {
		if s != "" {
			parts = append(parts, html.EscapeString(s))
		}
	}
	if len(parts) == 0 {
		return "<span></span>"
	}

	textAlign := "right"
	switch strings.ToLower(f.Position) {
	case "left":
		textAlign = "left"
	case "center":
		textAlign = "center"
	}

	return fmt.Sprintf(`<div style="font-size: 10px; font-family: %s; color: #aaa; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`,
		defaultFontFamily, textAlign, strings.Join(parts, " - "))
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// browserEnv reads the browser overrides shared by both backends.
// ROD_BROWSER_BIN points at a pre-installed Chrome (containers); sandboxing
// is disabled by ROD_NO_SANDBOX=1, in CI, and whenever a custom binary is
// used.
func browserEnv() (bin string, noSandbox bool) {
	bin = os.Getenv("ROD_BROWSER_BIN")
	noSandbox = os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || bin != ""
	return bin, noSandbox
}

// newRenderer returns the renderer for backend b.
func newRenderer(b Backend, timeout time.Duration, log *zap.Logger) (pdfRenderer, error) {
	switch b {
	case BackendRod:
		return newRodRenderer(timeout, log), nil
	case BackendChromedp:
		return newChromedpRenderer(timeout, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, b)
	}
}

// loadTimeout bounds navigation by the context deadline or the fallback.
func loadTimeout(ctx context.Context, fallback time.Duration) (time.Duration, error) {
	if deadline, ok := ctx.Deadline(); ok {
		d := time.Until(deadline)
		if d <= 0 {
			return 0, context.DeadlineExceeded
		}
		if fallback <= 0 || d < fallback {
			return d, nil
		}
	}
	return fallback, nil
}
