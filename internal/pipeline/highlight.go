package pipeline

import (
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style used for code cells and fenced blocks.
const HighlightStyle = "github"

// CodeHighlighter renders code-cell sources as class-annotated HTML.
type CodeHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewCodeHighlighter creates a CodeHighlighter for the given chroma style.
// Unknown style names fall back to the chroma default.
func NewCodeHighlighter(style string) *CodeHighlighter {
	return &CodeHighlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(style),
	}
}

// Highlight returns src as a highlighted <pre> block. Unknown languages and
// lexer failures produce a plain escaped block.
func (h *CodeHighlighter) Highlight(src, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(src)
	}
	if lexer == nil {
		return plainBlock(src)
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, src)
	if err != nil {
		return plainBlock(src)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return plainBlock(src)
	}
	return sb.String()
}

// CSS returns the stylesheet for the highlight classes.
func (h *CodeHighlighter) CSS() string {
	var sb strings.Builder
	if err := h.formatter.WriteCSS(&sb, h.style); err != nil {
		return ""
	}
	return sb.String()
}

func plainBlock(src string) string {
	return `<pre class="chroma"><code>` + html.EscapeString(src) + `</code></pre>`
}
