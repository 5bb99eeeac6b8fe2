package pipeline

import (
	"context"
	"html"
	"strings"
)

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	if ctx.Err() != nil {
		return htmlContent
	}

	return insertInHead(htmlContent, "<style>"+sanitizeCSS(cssContent)+"</style>")
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// Script is one script element. Src and Inline are mutually exclusive; Src
// wins when both are set.
type Script struct {
	ID     string
	Src    string
	Inline string
	Type   string
}

// HTML renders the script element.
func (s Script) HTML() string {
	var b strings.Builder
	b.WriteString("<script")
	if s.ID != "" {
		b.WriteString(` id="`)
		b.WriteString(html.EscapeString(s.ID))
		b.WriteString(`"`)
	}
	if s.Type != "" {
		b.WriteString(` type="`)
		b.WriteString(html.EscapeString(s.Type))
		b.WriteString(`"`)
	}
	if s.Src != "" {
		b.WriteString(` src="`)
		b.WriteString(html.EscapeString(s.Src))
		b.WriteString(`"></script>`)
		return b.String()
	}
	b.WriteString(">")
	b.WriteString(sanitizeScript(s.Inline))
	b.WriteString("</script>")
	return b.String()
}

// sanitizeScript keeps inline content from closing its element early.
func sanitizeScript(js string) string {
	return strings.ReplaceAll(js, "</script", `<\/script`)
}

// ScriptInjector defines the contract for script injection into HTML.
type ScriptInjector interface {
	InjectHead(ctx context.Context, htmlContent string, scripts ...Script) string
	InjectBodyEnd(ctx context.Context, htmlContent string, scripts ...Script) string
}

// ScriptInjection places script elements in the head or at the end of body.
type ScriptInjection struct{}

// InjectHead inserts scripts before </head>, in order.
func (s *ScriptInjection) InjectHead(ctx context.Context, htmlContent string, scripts ...Script) string {
	if len(scripts) == 0 || ctx.Err() != nil {
		return htmlContent
	}
	return insertInHead(htmlContent, renderScripts(scripts))
}

// InjectBodyEnd inserts scripts before </body>, in order. Falls back to
// appending when the document has no closing body tag.
func (s *ScriptInjection) InjectBodyEnd(ctx context.Context, htmlContent string, scripts ...Script) string {
	if len(scripts) == 0 || ctx.Err() != nil {
		return htmlContent
	}
	block := renderScripts(scripts)
	if idx := strings.LastIndex(strings.ToLower(htmlContent), "</body>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}
	return htmlContent + block
}

func renderScripts(scripts []Script) string {
	var b strings.Builder
	for _, s := range scripts {
		b.WriteString(s.HTML())
		b.WriteString("\n")
	}
	return b.String()
}

// insertInHead places block before </head>, else right after <body ...>,
// else at the start of the document.
func insertInHead(htmlContent, block string) string {
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + block + htmlContent[insertPos:]
		}
	}

	return block + htmlContent
}
