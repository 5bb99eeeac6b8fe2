package notebook

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParse - Document decoding
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantCells int
	}{
		{
			name:      "minimal v4 notebook",
			input:     `{"nbformat":4,"nbformat_minor":5,"metadata":{},"cells":[]}`,
			wantCells: 0,
		},
		{
			name: "cells with both source encodings",
			input: `{"nbformat":4,"nbformat_minor":5,"metadata":{},"cells":[
				{"cell_type":"markdown","source":"# Title"},
				{"cell_type":"code","source":["x = 1\n","print(x)"],"outputs":[]}
			]}`,
			wantCells: 2,
		},
		{
			name:    "empty document",
			input:   "   ",
			wantErr: ErrEmptyNotebook,
		},
		{
			name:    "not JSON",
			input:   "# just markdown",
			wantErr: ErrInvalidNotebook,
		},
		{
			name:    "nbformat 3 rejected",
			input:   `{"nbformat":3,"nbformat_minor":0,"metadata":{},"worksheets":[]}`,
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "source of wrong type",
			input:   `{"nbformat":4,"nbformat_minor":5,"metadata":{},"cells":[{"cell_type":"code","source":42}]}`,
			wantErr: ErrInvalidNotebook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nb, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if len(nb.Cells) != tt.wantCells {
				t.Errorf("len(Cells) = %d, want %d", len(nb.Cells), tt.wantCells)
			}
		})
	}
}

func TestText_JoinsLines(t *testing.T) {
	t.Parallel()

	nb, err := Parse([]byte(`{"nbformat":4,"nbformat_minor":5,"metadata":{},"cells":[
		{"cell_type":"code","source":["a = 1\n","b = 2"],"outputs":[]}
	]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if got, want := nb.Cells[0].Source.String(), "a = 1\nb = 2"; got != want {
		t.Errorf("Source = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestTitle - Title resolution order
// ---------------------------------------------------------------------------

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "metadata title wins",
			input: `{"nbformat":4,"metadata":{"title":"From Metadata"},"cells":[{"cell_type":"markdown","source":"# Heading"}]}`,
			want:  "From Metadata",
		},
		{
			name:  "first H1 of a markdown cell",
			input: `{"nbformat":4,"metadata":{},"cells":[{"cell_type":"code","source":"# comment","outputs":[]},{"cell_type":"markdown","source":"intro\n# Analysis #\n## Sub"}]}`,
			want:  "Analysis",
		},
		{
			name:  "no title",
			input: `{"nbformat":4,"metadata":{},"cells":[{"cell_type":"markdown","source":"## only h2"}]}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nb, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if got := nb.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{"language_info", Metadata{LanguageInfo: LanguageInfo{Name: "julia"}}, "julia"},
		{"kernelspec", Metadata{KernelSpec: KernelSpec{Language: "R"}}, "R"},
		{"default", Metadata{}, "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nb := &Notebook{Metadata: tt.meta}
			if got := nb.Language(); got != tt.want {
				t.Errorf("Language() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutputData - MIME bundle helpers
// ---------------------------------------------------------------------------

func TestOutput_StringData(t *testing.T) {
	t.Parallel()

	nb, err := Parse([]byte(`{"nbformat":4,"metadata":{},"cells":[{"cell_type":"code","source":"","outputs":[
		{"output_type":"execute_result","data":{"text/plain":["1\n","2"],"image/png":"aGk=\n"}}
	]}]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	out := &nb.Cells[0].Outputs[0]

	if got, ok := out.StringData("text/plain"); !ok || got != "1\n2" {
		t.Errorf("StringData(text/plain) = %q, %v", got, ok)
	}
	if _, ok := out.StringData("text/html"); ok {
		t.Error("StringData(text/html) should be missing")
	}
	if !out.HasData("image/png") {
		t.Error("HasData(image/png) = false, want true")
	}
}

func TestCell_Attachment(t *testing.T) {
	t.Parallel()

	nb, err := Parse([]byte(`{"nbformat":4,"metadata":{},"cells":[{"cell_type":"markdown","source":"![x](attachment:img.png)",
		"attachments":{"img.png":{"image/png":"iVBORw0KGgo=\n"}}}]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	mime, payload, ok := nb.Cells[0].Attachment("img.png")
	if !ok {
		t.Fatal("Attachment(img.png) not found")
	}
	if mime != "image/png" || payload != "iVBORw0KGgo=" {
		t.Errorf("Attachment() = %q, %q", mime, payload)
	}
	if _, _, ok := nb.Cells[0].Attachment("missing.png"); ok {
		t.Error("Attachment(missing.png) should not be found")
	}
}
