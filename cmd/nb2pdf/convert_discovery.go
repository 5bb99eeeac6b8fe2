package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	nb2pdf "github.com/alnah/go-nb2pdf"
	"github.com/alnah/go-nb2pdf/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .ipynb extension")
	ErrNoNotebooks        = errors.New("no notebooks found")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// outputNaming holds the parts added to a default output name.
type outputNaming struct {
	method string // backend name, set when several methods run
	label  string // "<size>_<orientation>", set for non-default pages
}

// suffix returns "_<method>_<size>_<orientation>" with absent parts omitted.
func (n outputNaming) suffix() string {
	var b strings.Builder
	if n.method != "" {
		b.WriteString("_" + n.method)
	}
	if n.label != "" {
		b.WriteString("_" + n.label)
	}
	return b.String()
}

// discoverFiles finds all notebooks to convert. Directories are walked
// recursively; Jupyter checkpoint copies are skipped.
func discoverFiles(inputPath, output string, naming outputNaming) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateNotebookExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, output, "", naming)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if d.Name() == fileutil.CheckpointDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsNotebook(path) {
			return nil
		}
		outPath := resolveOutputPath(path, output, inputPath, naming)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the PDF output path for a notebook.
//
// Without an output target the PDF lands next to the notebook as
// <stem><suffix>.pdf. For a single notebook the target may be a .pdf file,
// or a bare name to which .pdf is appended; when several methods run the
// method name is inserted before the extension. A directory target (always
// the case for batch input) receives <stem><suffix>.pdf, mirroring the
// input tree.
func resolveOutputPath(inputPath, output, baseInputDir string, naming outputNaming) string {
	name := fileutil.Stem(inputPath) + naming.suffix() + ".pdf"

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}

	if baseInputDir == "" && !isDirTarget(output) {
		base := output
		if strings.EqualFold(filepath.Ext(output), ".pdf") {
			base = strings.TrimSuffix(output, filepath.Ext(output))
		}
		if naming.method != "" {
			base += "_" + naming.method
		}
		return base + ".pdf"
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(output, filepath.Dir(relPath), name)
		}
	}

	return filepath.Join(output, name)
}

// isDirTarget reports whether an output target names a directory: it ends
// with a separator or exists as a directory.
func isDirTarget(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

// validateNotebookExtension checks that the file has a .ipynb extension.
func validateNotebookExtension(path string) error {
	if !fileutil.IsNotebook(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > nb2pdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, nb2pdf.MaxPoolSize)
	}
	return nil
}

// htmlOutputPath returns the HTML path corresponding to a PDF path.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, ".pdf") + ".html"
}
