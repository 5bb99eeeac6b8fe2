package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	nb2pdf "github.com/alnah/go-nb2pdf"
	"github.com/alnah/go-nb2pdf/internal/fileutil"
	"github.com/alnah/go-nb2pdf/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadNotebook = errors.New("failed to read notebook")
	ErrWritePDF     = errors.New("failed to write PDF file")
	ErrWriteHTML    = errors.New("failed to write HTML file")
)

// Output colors. fatih/color disables them when stdout is not a terminal.
var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Backend    nb2pdf.Backend
	Phases     string
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       decorate(err, ""),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
		Backend:    conv.Backend(),
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadNotebook, err))
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return fail(fmt.Errorf("creating output directory: %w%s", err, hints.ForOutputDirectory()))
	}

	convResult, err := conv.Convert(ctx, nb2pdf.Input{
		Notebook:       content,
		SourceDir:      filepath.Dir(f.InputPath),
		Title:          params.title,
		DefaultTitle:   fileutil.Stem(f.InputPath),
		CSS:            params.css,
		Page:           params.page,
		ExcludeInput:   params.excludeInput,
		ExcludePrompts: params.excludePrompts,
		Footer:         params.footer,
		Watermark:      params.watermark,
		HTMLOnly:       params.htmlOnly,
	})
	if convResult != nil {
		result.Phases = convResult.Phases
		result.Warnings = convResult.Warnings
	}
	if err != nil {
		return fail(decorate(err, result.Backend))
	}

	// Write HTML output if requested (--debug or --html-only)
	if params.htmlOnly || params.debug {
		htmlPath := htmlOutputPath(f.OutputPath)
		if err := fileutil.WriteFileAtomic(htmlPath, convResult.HTML, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteHTML, err))
		}
		if params.htmlOnly {
			result.OutputPath = htmlPath
			result.Duration = time.Since(start)
			return result
		}
	}

	// The PDF appears under its final name only once fully written.
	if err := fileutil.WriteFileAtomic(f.OutputPath, convResult.PDF, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWritePDF, err))
	}

	result.Duration = time.Since(start)
	return result
}

// decorate appends hints to browser and timeout errors.
func decorate(err error, backend nb2pdf.Backend) error {
	switch {
	case errors.Is(err, nb2pdf.ErrBrowserConnect):
		return fmt.Errorf("%w%s%s", err, hints.ForBrowserConnect(), hints.ForMethodUnavailable(string(backend)))
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, nb2pdf.ErrRuntimeScript):
		return fmt.Errorf("%w%s", err, hints.ForRuntimeScript())
	}
	return err
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the failure count and
// the first failure.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) (int, error) {
	summary := countResults(results)
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			label := r.InputPath
			if r.Backend != "" {
				label += " (" + string(r.Backend) + ")"
			}
			failColor.Fprint(env.Stderr, "FAILED")
			fmt.Fprintf(env.Stderr, " %s: %v\n", label, r.Err)
			continue
		}

		if quiet {
			continue
		}

		for _, w := range r.Warnings {
			warnColor.Fprint(env.Stderr, "warning:")
			fmt.Fprintf(env.Stderr, " %s: %s\n", r.InputPath, w)
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, %s, %s)\n",
				r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond), r.Backend, r.Phases)
		} else {
			okColor.Fprint(env.Stdout, "Created")
			fmt.Fprintf(env.Stdout, " %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed, firstErr
}
