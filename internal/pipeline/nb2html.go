package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-nb2pdf/internal/coordinator"
	"github.com/alnah/go-nb2pdf/internal/notebook"
)

// pageTemplate wraps the rendered cells in a complete HTML5 document.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<main class="nb-notebook">
%s</main>
%s</body>
</html>`

// RenderOptions controls which parts of a notebook are rendered.
type RenderOptions struct {
	Title          string // overrides the notebook's own title
	DefaultTitle   string // used when neither Title nor the notebook has one
	SourceDir      string // base for relative image and link paths
	ExcludeInput   bool   // drop code-cell sources
	ExcludePrompts bool   // drop In [n]: / Out[n]: gutters
}

// Document is a rendered notebook page plus what the print step needs to
// know about it.
type Document struct {
	HTML   string
	Title  string
	Charts []notebook.Chart
	Math   bool
}

// Renderer abstracts notebook to HTML conversion.
type Renderer interface {
	Render(ctx context.Context, nb *notebook.Notebook, opts RenderOptions) (*Document, error)
}

// NotebookRenderer renders notebooks with goldmark and chroma.
type NotebookRenderer struct {
	markdown *MarkdownRenderer
	code     *CodeHighlighter
}

// NewNotebookRenderer creates a NotebookRenderer.
func NewNotebookRenderer() *NotebookRenderer {
	return &NotebookRenderer{
		markdown: NewMarkdownRenderer(),
		code:     NewCodeHighlighter(HighlightStyle),
	}
}

// HighlightCSS returns the stylesheet for highlighted code.
func (r *NotebookRenderer) HighlightCSS() string {
	return r.code.CSS()
}

// Render converts a notebook to a standalone HTML document. Charts become
// numbered placeholders and their payloads are embedded as JSON.
// Supports context cancellation via goroutine + select, since goldmark and
// chroma do not take a context.
func (r *NotebookRenderer) Render(ctx context.Context, nb *notebook.Notebook, opts RenderOptions) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		doc *Document
		err error
	}
	done := make(chan result, 1)

	go func() {
		doc, err := r.render(ctx, nb, opts)
		done <- result{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.doc, res.err
	}
}

func (r *NotebookRenderer) render(ctx context.Context, nb *notebook.Notebook, opts RenderOptions) (*Document, error) {
	charts := notebook.ExtractCharts(nb)
	index := notebook.IndexCharts(charts)
	language := nb.Language()

	var b strings.Builder
	for ci := range nb.Cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := &nb.Cells[ci]

		var err error
		switch cell.CellType {
		case notebook.CellMarkdown:
			err = r.writeMarkdownCell(&b, cell, opts)
		case notebook.CellCode:
			err = r.writeCodeCell(&b, ci, cell, language, index, opts)
		}
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", ci, err)
		}
	}

	body, err := RewriteRelativePaths(b.String(), opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriting paths: %v", ErrHTMLConversion, err)
	}

	title := opts.Title
	if title == "" {
		title = nb.Title()
	}
	if title == "" {
		title = opts.DefaultTitle
	}

	var payloadScript string
	if len(charts) > 0 {
		payloads, err := notebook.PayloadsJSON(charts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
		}
		payloadScript = Script{ID: coordinator.PayloadsID, Type: "application/json", Inline: string(payloads)}.HTML() + "\n"
	}

	return &Document{
		HTML:   fmt.Sprintf(pageTemplate, html.EscapeString(title), body, payloadScript),
		Title:  title,
		Charts: charts,
		Math:   DetectMath(body),
	}, nil
}

func (r *NotebookRenderer) writeMarkdownCell(b *strings.Builder, cell *notebook.Cell, opts RenderOptions) error {
	fragment, err := r.markdown.Render(cell.Source.String())
	if err != nil {
		return err
	}
	if len(cell.Attachments) > 0 {
		fragment, err = EmbedAttachments(fragment, cell.Attachment)
		if err != nil {
			return err
		}
	}

	b.WriteString(`<div class="nb-cell nb-markdown">`)
	if !opts.ExcludePrompts {
		b.WriteString(`<div class="nb-prompt"></div>`)
	}
	b.WriteString(`<div class="nb-body">`)
	b.WriteString(fragment)
	b.WriteString("</div></div>\n")
	return nil
}

func (r *NotebookRenderer) writeCodeCell(b *strings.Builder, ci int, cell *notebook.Cell, language string, index notebook.ChartIndex, opts RenderOptions) error {
	if opts.ExcludeInput && len(cell.Outputs) == 0 {
		return nil
	}

	b.WriteString(`<section class="nb-code-cell">` + "\n")
	if !opts.ExcludeInput {
		b.WriteString(`<div class="nb-cell nb-code">`)
		if !opts.ExcludePrompts {
			b.WriteString(inputPrompt(cell.ExecutionCount))
		}
		b.WriteString(`<div class="nb-body"><div class="nb-input">`)
		b.WriteString(r.code.Highlight(cell.Source.String(), language))
		b.WriteString("</div></div></div>\n")
	}

	if len(cell.Outputs) > 0 {
		b.WriteString(`<div class="nb-outputs">` + "\n")
		for oi := range cell.Outputs {
			chart, isChart := index.Lookup(ci, oi)
			oc := outputContext{chartIndex: chart, isChart: isChart, prompts: !opts.ExcludePrompts}
			if err := r.writeOutput(b, &cell.Outputs[oi], oc); err != nil {
				return fmt.Errorf("output %d: %w", oi, err)
			}
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</section>\n")
	return nil
}

// Compile-time interface check.
var _ Renderer = (*NotebookRenderer)(nil)
