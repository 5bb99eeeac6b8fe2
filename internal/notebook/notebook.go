// Package notebook parses Jupyter notebook documents (nbformat v4) and
// extracts the pieces the renderer needs: cells, outputs and chart payloads.
package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Sentinel errors for notebook parsing.
var (
	ErrEmptyNotebook      = errors.New("empty notebook document")
	ErrInvalidNotebook    = errors.New("invalid notebook JSON")
	ErrUnsupportedVersion = errors.New("unsupported nbformat version")
)

// MinFormat is the oldest nbformat major version accepted.
const MinFormat = 4

// Cell types.
const (
	CellMarkdown = "markdown"
	CellCode     = "code"
	CellRaw      = "raw"
)

// Output types.
const (
	OutputStream        = "stream"
	OutputExecuteResult = "execute_result"
	OutputDisplayData   = "display_data"
	OutputError         = "error"
)

// Notebook is the subset of nbformat v4 needed to render a document.
type Notebook struct {
	Format      int      `json:"nbformat"`
	FormatMinor int      `json:"nbformat_minor"`
	Metadata    Metadata `json:"metadata"`
	Cells       []Cell   `json:"cells"`
}

// Metadata holds notebook-level metadata.
type Metadata struct {
	Title        string       `json:"title,omitempty"`
	KernelSpec   KernelSpec   `json:"kernelspec"`
	LanguageInfo LanguageInfo `json:"language_info"`
}

// KernelSpec identifies the kernel that produced the notebook.
type KernelSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}

// LanguageInfo describes the kernel language.
type LanguageInfo struct {
	Name string `json:"name"`
}

// Cell is one notebook cell.
type Cell struct {
	CellType       string                     `json:"cell_type"`
	Source         Text                       `json:"source"`
	ExecutionCount *int                       `json:"execution_count,omitempty"`
	Outputs        []Output                   `json:"outputs,omitempty"`
	Attachments    map[string]json.RawMessage `json:"attachments,omitempty"`
}

// Output is one entry of a code cell's output area.
type Output struct {
	OutputType     string                     `json:"output_type"`
	Name           string                     `json:"name,omitempty"`
	Text           Text                       `json:"text,omitempty"`
	Data           map[string]json.RawMessage `json:"data,omitempty"`
	ExecutionCount *int                       `json:"execution_count,omitempty"`
	EName          string                     `json:"ename,omitempty"`
	EValue         string                     `json:"evalue,omitempty"`
	Traceback      []string                   `json:"traceback,omitempty"`
}

// Text is an nbformat multiline string: either a single string or a list of
// lines that are concatenated as-is.
type Text string

// UnmarshalJSON accepts both the string and the string-array encodings.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("multiline string: %w", err)
	}
	*t = Text(strings.Join(lines, ""))
	return nil
}

// String returns the joined text.
func (t Text) String() string {
	return string(t)
}

// Parse decodes a notebook document.
func Parse(data []byte) (*Notebook, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyNotebook
	}

	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotebook, err)
	}
	if nb.Format < MinFormat {
		return nil, fmt.Errorf("%w: nbformat %d (need >= %d)", ErrUnsupportedVersion, nb.Format, MinFormat)
	}

	return &nb, nil
}

// Language returns the kernel language, defaulting to python.
func (nb *Notebook) Language() string {
	switch {
	case nb.Metadata.LanguageInfo.Name != "":
		return nb.Metadata.LanguageInfo.Name
	case nb.Metadata.KernelSpec.Language != "":
		return nb.Metadata.KernelSpec.Language
	default:
		return "python"
	}
}

// headingPattern matches a level-1 markdown heading.
var headingPattern = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)

// Title returns metadata.title, else the first H1 of a markdown cell, else "".
func (nb *Notebook) Title() string {
	if t := strings.TrimSpace(nb.Metadata.Title); t != "" {
		return t
	}
	for _, c := range nb.Cells {
		if c.CellType != CellMarkdown {
			continue
		}
		if m := headingPattern.FindStringSubmatch(c.Source.String()); len(m) == 2 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// StringData decodes a MIME bundle entry that is a multiline string.
func (o *Output) StringData(mime string) (string, bool) {
	raw, ok := o.Data[mime]
	if !ok {
		return "", false
	}
	var t Text
	if err := json.Unmarshal(raw, &t); err != nil {
		return "", false
	}
	return t.String(), true
}

// HasData reports whether the output's MIME bundle contains mime.
func (o *Output) HasData(mime string) bool {
	_, ok := o.Data[mime]
	return ok
}

// Attachment returns the first MIME type and base64 payload of a markdown
// cell attachment.
func (c *Cell) Attachment(name string) (mime, payload string, ok bool) {
	raw, found := c.Attachments[name]
	if !found {
		return "", "", false
	}
	var bundle map[string]Text
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return "", "", false
	}
	if len(bundle) == 0 {
		return "", "", false
	}
	mimes := make([]string, 0, len(bundle))
	for m := range bundle {
		mimes = append(mimes, m)
	}
	sort.Strings(mimes)
	return mimes[0], strings.TrimSpace(bundle[mimes[0]].String()), true
}
