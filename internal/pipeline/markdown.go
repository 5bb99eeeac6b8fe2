package pipeline

import (
	"bytes"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// MarkdownRenderer converts markdown cell sources to HTML fragments.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a MarkdownRenderer with GFM extensions and
// class-based syntax highlighting for fenced code blocks.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(HighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			// Notebook markdown routinely embeds raw HTML (tables, <img>,
			// <details>), which the notebook frontends render as-is.
			html.WithUnsafe(),
			html.WithXHTML(),
		),
	)
	return &MarkdownRenderer{md: md}
}

// Render converts one markdown source to an HTML fragment. TeX spans are
// shielded from the Markdown parser and restored verbatim.
func (r *MarkdownRenderer) Render(src string) (string, error) {
	var guard mathGuard
	protected := guard.protect(src)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(protected), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return guard.restore(buf.String()), nil
}
