package main

import (
	"fmt"
	"io"
	"strings"

	nb2pdf "github.com/alnah/go-nb2pdf"
)

// printSizes lists the page table in millimetres, portrait orientation.
func printSizes(w io.Writer) {
	fmt.Fprintln(w, "Page sizes (width x height, portrait):")
	for _, s := range nb2pdf.PageSizes() {
		fmt.Fprintf(w, "  %-11s %5g x %-5g mm\n", s.Name, s.WidthMM, s.HeightMM)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Orientations: %s, %s (landscape swaps width and height)\n",
		nb2pdf.OrientationPortrait, nb2pdf.OrientationLandscape)
	fmt.Fprintf(w, "Methods: %s, %s\n", joinBackends(nb2pdf.Backends()), nb2pdf.MethodBoth)
}

func joinBackends(bs []nb2pdf.Backend) string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
