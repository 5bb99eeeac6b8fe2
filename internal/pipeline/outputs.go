package pipeline

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-nb2pdf/internal/notebook"
)

// Rich output MIME types, highest priority first.
var outputPriority = []string{
	"text/html",
	"image/svg+xml",
	"image/png",
	"image/jpeg",
	"text/latex",
	"text/markdown",
	"text/plain",
}

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	xmlProlog  = regexp.MustCompile(`(?s)^\s*<\?xml.*?\?>\s*`)
)

// StripANSI removes terminal color and cursor sequences.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// ChartPlaceholder returns the placeholder element for chart i.
func ChartPlaceholder(i int) string {
	return `<div class="nb-chart" id="` + notebook.PlaceholderID(i) + `"></div>`
}

// outputContext carries what one output needs from its cell.
type outputContext struct {
	chartIndex int
	isChart    bool
	prompts    bool
}

func (r *NotebookRenderer) writeOutput(b *strings.Builder, out *notebook.Output, oc outputContext) error {
	var class, body string

	switch out.OutputType {
	case notebook.OutputStream:
		class = "nb-stream nb-" + streamName(out.Name)
		body = preBlock(out.Text.String())

	case notebook.OutputError:
		class = "nb-error"
		body = preBlock(errorText(out))

	case notebook.OutputExecuteResult, notebook.OutputDisplayData:
		class = "nb-" + strings.ReplaceAll(out.OutputType, "_", "-")
		if oc.isChart {
			class += " nb-chart-output"
			body = ChartPlaceholder(oc.chartIndex)
			break
		}
		rich, err := r.richOutput(out)
		if err != nil {
			return err
		}
		if rich == "" {
			return nil
		}
		body = rich

	default:
		return nil
	}

	b.WriteString(`<div class="nb-output `)
	b.WriteString(class)
	b.WriteString(`">`)
	if oc.prompts {
		b.WriteString(outputPrompt(out))
	}
	b.WriteString(`<div class="nb-body">`)
	b.WriteString(body)
	b.WriteString("</div></div>\n")
	return nil
}

// richOutput renders the highest-priority representation of a MIME bundle.
func (r *NotebookRenderer) richOutput(out *notebook.Output) (string, error) {
	for _, mime := range outputPriority {
		data, ok := out.StringData(mime)
		if !ok {
			continue
		}
		switch mime {
		case "text/html":
			return data, nil
		case "image/svg+xml":
			return xmlProlog.ReplaceAllString(data, ""), nil
		case "image/png", "image/jpeg":
			return `<img src="` + dataURI(mime, data) + `" alt="output"/>`, nil
		case "text/latex":
			return `<div class="nb-latex">` + html.EscapeString(data) + `</div>`, nil
		case "text/markdown":
			return r.markdown.Render(data)
		case "text/plain":
			return preBlock(data), nil
		}
	}
	return "", nil
}

func streamName(name string) string {
	if name == "stderr" {
		return "stderr"
	}
	return "stdout"
}

func errorText(out *notebook.Output) string {
	if len(out.Traceback) > 0 {
		return strings.Join(out.Traceback, "\n")
	}
	return out.EName + ": " + out.EValue
}

func preBlock(text string) string {
	return "<pre>" + html.EscapeString(StripANSI(text)) + "</pre>"
}

// inputPrompt renders "In [n]:"; cells never executed show "In [ ]:".
func inputPrompt(count *int) string {
	return `<div class="nb-prompt nb-in">In&nbsp;[` + countLabel(count) + `]:</div>`
}

// outputPrompt renders "Out[n]:" for execute results and an empty gutter
// for everything else.
func outputPrompt(out *notebook.Output) string {
	if out.OutputType != notebook.OutputExecuteResult {
		return `<div class="nb-prompt nb-out"></div>`
	}
	return `<div class="nb-prompt nb-out">Out[` + countLabel(out.ExecutionCount) + `]:</div>`
}

func countLabel(count *int) string {
	if count == nil {
		return "&nbsp;"
	}
	return strconv.Itoa(*count)
}
