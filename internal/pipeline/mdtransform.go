package pipeline

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Math placeholders use Unicode Private Use Area characters. They pass through
// Goldmark unchanged, so TeX is never seen by the Markdown parser and cannot
// be mangled by emphasis or escape rules.
const (
	mathStart     = "\uE000"
	mathEnd       = "\uE001"
	dollarLiteral = "\uE002"
)

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// mathSpan matches display math, bracketed math, LaTeX environments and
	// inline $...$ (single line), in that order of preference.
	mathSpan = regexp.MustCompile(`(?s)\$\$.+?\$\$|\\\[.+?\\\]|\\\(.+?\\\)|\\begin\{[A-Za-z*]+\}.+?\\end\{[A-Za-z*]+\}|\$[^$\n]+?\$`)

	mathToken = regexp.MustCompile(mathStart + `(\d+)` + mathEnd)
)

// mathGuard swaps math spans for opaque tokens before Markdown conversion and
// restores them, HTML-escaped, afterwards.
type mathGuard struct {
	spans []string
}

// protect replaces escaped dollars and math spans in src with tokens.
func (g *mathGuard) protect(src string) string {
	src = crlfOrCR.ReplaceAllString(src, "\n")
	src = strings.ReplaceAll(src, `\$`, dollarLiteral)
	return mathSpan.ReplaceAllStringFunc(src, func(m string) string {
		g.spans = append(g.spans, m)
		return mathStart + strconv.Itoa(len(g.spans)-1) + mathEnd
	})
}

// restore puts the protected spans back into rendered HTML. Escaped dollars
// are wrapped in their own element so the math runtime never pairs them.
func (g *mathGuard) restore(rendered string) string {
	rendered = mathToken.ReplaceAllStringFunc(rendered, func(tok string) string {
		i, err := strconv.Atoi(tok[len(mathStart) : len(tok)-len(mathEnd)])
		if err != nil || i < 0 || i >= len(g.spans) {
			return tok
		}
		return html.EscapeString(g.spans[i])
	})
	return strings.ReplaceAll(rendered, dollarLiteral, `<span class="nb-dollar">$</span>`)
}
