package coordinator

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reported as soft failures in a Report.
var (
	ErrLibraryTimeout = errors.New("chart library did not load")
	ErrRenderTimeout  = errors.New("chart rendering did not complete")
	ErrDrawFailed     = errors.New("chart draw failed")
	ErrMathTimeout    = errors.New("math runtime did not load")
	ErrTypeset        = errors.New("math typesetting failed")
	ErrWaitBudget     = errors.New("render waits exceeded the conversion timeout")
)

// Phase is a state of the render-completion protocol.
type Phase int

// Phases in protocol order. Failed is always followed by Complete.
const (
	PhaseIdle Phase = iota
	PhaseWaitingForLibrary
	PhaseRendering
	PhaseFailed
	PhaseComplete
)

var phaseNames = [...]string{
	PhaseIdle:              "idle",
	PhaseWaitingForLibrary: "waitingForLibrary",
	PhaseRendering:         "rendering",
	PhaseFailed:            "failed",
	PhaseComplete:          "complete",
}

// String returns the name used by the in-page script.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// RenderState mirrors the state object the in-page script keeps on window.
type RenderState struct {
	Started        bool   `json:"started"`
	LibraryLoaded  bool   `json:"libraryLoaded"`
	CompletedCount int    `json:"completedCount"`
	FailedCount    int    `json:"failedCount"`
	Total          int    `json:"total"`
	Failed         bool   `json:"failed"`
	LastError      string `json:"lastError"`
	Complete       bool   `json:"complete"`
	Phase          string `json:"phase"`
}

// Report is the outcome of one Await call.
// Issues holds every soft failure; none of them stops printing.
type Report struct {
	Phases      []Phase
	State       RenderState
	MathTypeset bool
	Issues      []error
}

// Reached reports whether the protocol passed through phase p.
func (r *Report) Reached(p Phase) bool {
	for _, got := range r.Phases {
		if got == p {
			return true
		}
	}
	return false
}

// Warnings renders Issues as operator-facing messages.
func (r *Report) Warnings() []string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make([]string, len(r.Issues))
	for i, err := range r.Issues {
		out[i] = err.Error()
	}
	return out
}

// String summarises the phase trail, e.g. "idle>waitingForLibrary>rendering>complete".
func (r *Report) String() string {
	names := make([]string, len(r.Phases))
	for i, p := range r.Phases {
		names[i] = p.String()
	}
	return strings.Join(names, ">")
}

// libraryIssue converts a page that completed without ever seeing the chart
// library into a soft failure, if any.
func libraryIssue(s RenderState) error {
	if !s.Failed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrLibraryTimeout, s.LastError)
}

// pageIssue converts a completed in-page state into a soft failure, if any.
// Individual draw failures take precedence over the page's own ceilings.
func pageIssue(s RenderState) error {
	switch {
	case !s.Failed:
		return nil
	case s.FailedCount > 0:
		return fmt.Errorf("%w: %d of %d charts: %s", ErrDrawFailed, s.FailedCount, s.Total, s.LastError)
	default:
		return fmt.Errorf("%w: %s", ErrRenderTimeout, s.LastError)
	}
}
