package pipeline

import (
	"fmt"
	"strings"
)

// Fixed CDN locations of the runtime libraries.
const (
	PlotlyCDN  = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	MathJaxCDN = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-svg.js"
)

// RuntimeSources locates the chart and math runtimes. Empty fields use the
// CDN; anything else is a local file path or an http(s) URL.
type RuntimeSources struct {
	PlotlyJS  string
	MathJaxJS string
}

// PlotlyURL returns the script URL for the chart runtime.
func (rs RuntimeSources) PlotlyURL() (string, error) {
	return runtimeURL(rs.PlotlyJS, PlotlyCDN)
}

// MathJaxURL returns the script URL for the math runtime.
func (rs RuntimeSources) MathJaxURL() (string, error) {
	return runtimeURL(rs.MathJaxJS, MathJaxCDN)
}

// Offline reports whether both runtimes come from local files.
func (rs RuntimeSources) Offline() bool {
	return isLocal(rs.PlotlyJS) && isLocal(rs.MathJaxJS)
}

func isLocal(src string) bool {
	return src != "" && !isRemote(src)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func runtimeURL(src, cdn string) (string, error) {
	switch {
	case src == "":
		return cdn, nil
	case isRemote(src), strings.HasPrefix(src, "file://"):
		return src, nil
	default:
		u, err := PathToFileURL(src)
		if err != nil {
			return "", fmt.Errorf("resolving runtime script %q: %w", src, err)
		}
		return u, nil
	}
}

// PageScripts holds the scripts a rendered page needs for printing.
type PageScripts struct {
	Head    []Script
	BodyEnd []Script
}

// BuildPageScripts selects the runtime scripts for doc. The coordinator is
// always added; the chart runtime only when the page has charts and the math
// runtime only when it has math. coordinatorJS and mathConfigJS are rendered
// script sources.
func BuildPageScripts(doc *Document, src RuntimeSources, coordinatorJS, mathConfigJS string) (PageScripts, error) {
	var ps PageScripts

	if doc.Math {
		u, err := src.MathJaxURL()
		if err != nil {
			return ps, err
		}
		ps.Head = append(ps.Head, Script{Inline: mathConfigJS}, Script{Src: u})
	}

	if len(doc.Charts) > 0 {
		u, err := src.PlotlyURL()
		if err != nil {
			return ps, err
		}
		ps.Head = append(ps.Head, Script{Src: u})
	}
	ps.BodyEnd = append(ps.BodyEnd, Script{Inline: coordinatorJS})

	return ps, nil
}
