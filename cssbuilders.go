package nb2pdf

import (
	"fmt"
	"strings"
)

// defaultFontFamily is the font stack for footers and the watermark.
const defaultFontFamily = "sans-serif"

// watermarkFontSize is the font size for watermark text overlay.
const watermarkFontSize = "8rem"

// buildPageCSS pins the printed page to spec. The same size and margins
// (footer band included) are passed to the print call; declaring them here
// keeps layout (viewport units, chart autosize) consistent with the paper.
func buildPageCSS(spec *printSpec) string {
	return fmt.Sprintf(`
/* Page */
@page {
  size: %s;
  margin: %s;
}
html, body {
  width: 100%%;
}
`, spec.Profile.SizeCSS(), spec.margins().CSS())
}

// buildWatermarkCSS generates CSS for a diagonal background watermark.
// position:fixed repeats it on every printed page.
func buildWatermarkCSS(w *Watermark) string {
	if w == nil || w.Text == "" {
		return ""
	}
	wm := w.withDefaults()

	return fmt.Sprintf(`
/* Watermark */
body::before {
  content: "%s";
  position: fixed;
  top: 50%%;
  left: 50%%;
  transform: translate(-50%%, -50%%) rotate(%.1fdeg);
  font-size: %s;
  font-weight: bold;
  color: %s;
  opacity: %.2f;
  z-index: -1;
  pointer-events: none;
  white-space: nowrap;
  font-family: %s;
}
`, escapeCSSString(breakURLPattern(wm.Text)), wm.Angle, watermarkFontSize, wm.Color, wm.Opacity, defaultFontFamily)
}

// escapeCSSString escapes a string for a CSS content value. Percent signs are
// doubled because the result goes through fmt.Sprintf.
func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\A `)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, `%`, `%%`)
	return s
}

// breakURLPattern replaces dots with ONE DOT LEADER (U+2024) so PDF viewers
// do not turn watermark text into links.
func breakURLPattern(text string) string {
	return strings.ReplaceAll(text, ".", "\u2024")
}

// joinCSS concatenates non-empty stylesheets in order.
func joinCSS(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p)
	}
	return b.String()
}
