// Package nb2pdf converts Jupyter notebooks to PDF using headless Chrome.
//
// # Quick Start
//
// Create a converter, convert a notebook, and close when done:
//
//	conv, err := nb2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	data, _ := os.ReadFile("analysis.ipynb")
//	result, err := conv.Convert(ctx, nb2pdf.Input{
//	    Notebook: data,
//	    Page:     &nb2pdf.PageSettings{Size: "a3", Orientation: "landscape"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("analysis.pdf", result.PDF, 0644)
//
// The result contains the PDF bytes, the page sent to the browser
// (result.HTML) and any non-fatal warnings. Use Input.HTMLOnly to skip
// printing.
//
// # Conversion Pipeline
//
//  1. Notebook parsing (nbformat v4)
//  2. Cell rendering: markdown via Goldmark, code via Chroma, outputs by
//     MIME priority; interactive charts become numbered placeholders
//  3. Page assembly: @page geometry, style, watermark, runtime scripts
//  4. Readiness: wait for the chart library and chart completion, force one
//     math typeset pass, then a short settle delay
//  5. Printing with explicit paper size and margins (go-rod or chromedp)
//
// Timeouts in step 4 are soft: the page is printed anyway and the problem is
// reported in ConvertResult.Warnings.
//
// # Page Profiles
//
// Page sizes come from a fixed table (a0..a5, letter, legal, tabloid,
// ledger, case_study) in millimetres. Landscape swaps width and height.
// An unknown size falls back to a4 with a warning:
//
//	profile, warnings, err := nb2pdf.ResolvePageProfile("a3", "landscape", "10mm 15mm")
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to manage multiple browsers:
//
//	pool := nb2pdf.NewConverterPool(4, nb2pdf.WithBackend(nb2pdf.BackendChromedp))
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Offline Rendering
//
// The chart and math runtimes load from fixed CDN URLs unless local copies
// are given:
//
//	conv, err := nb2pdf.NewConverter(
//	    nb2pdf.WithRuntimeScripts("/opt/js/plotly.min.js", "/opt/js/tex-svg.js"),
//	)
package nb2pdf
