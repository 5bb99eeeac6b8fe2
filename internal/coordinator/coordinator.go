// Package coordinator decides when a loaded page is ready to print.
//
// Two asynchronous jobs can be pending after navigation: the in-page chart
// renderer (driven by the script from Script) and the math typesetter. Await
// runs one future per pending job, joins them, and always returns a Report.
// Timeouts and draw failures become soft issues in the Report; only
// cancellation of the caller's context is returned as an error.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Default host-side ceilings. They sit slightly above the in-page ceilings so
// the page normally reports its own timeout first.
const (
	DefaultLibraryTimeout  = 65 * time.Second
	DefaultCompleteTimeout = 125 * time.Second
	DefaultMathTimeout     = 30 * time.Second
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultSettle          = 500 * time.Millisecond
)

// Tab is a loaded page that can evaluate script.
type Tab interface {
	// Eval evaluates a JavaScript function expression such as "() => 1",
	// awaits a returned promise, and JSON-decodes the result into out.
	Eval(ctx context.Context, fn string, out any) error
}

// Plan describes the jobs pending on a page and the ceilings for each.
// Zero durations fall back to the package defaults.
type Plan struct {
	Charts          int
	Math            bool
	LibraryTimeout  time.Duration
	CompleteTimeout time.Duration
	MathTimeout     time.Duration
	PollInterval    time.Duration
	Settle          time.Duration
}

func (p Plan) withDefaults() Plan {
	if p.LibraryTimeout <= 0 {
		p.LibraryTimeout = DefaultLibraryTimeout
	}
	if p.CompleteTimeout <= 0 {
		p.CompleteTimeout = DefaultCompleteTimeout
	}
	if p.MathTimeout <= 0 {
		p.MathTimeout = DefaultMathTimeout
	}
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.Settle < 0 {
		p.Settle = 0
	}
	return p
}

// Coordinator waits for page readiness.
type Coordinator struct {
	log *zap.Logger
}

// New creates a Coordinator. A nil logger disables logging.
func New(log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{log: log}
}

// result is what a future delivers on join.
type result struct {
	phases  []Phase
	state   *RenderState
	typeset bool
	issues  []error
}

// Await blocks until every pending job has finished or hit its ceiling, then
// waits the settle delay. The returned Report is never nil.
func (c *Coordinator) Await(ctx context.Context, tab Tab, plan Plan) (*Report, error) {
	plan = plan.withDefaults()
	report := &Report{Phases: []Phase{PhaseIdle}}
	start := time.Now()

	var futures []<-chan result
	if plan.Charts > 0 {
		futures = append(futures, spawn(func() result { return c.awaitCharts(ctx, tab, plan) }))
	}
	if plan.Math {
		futures = append(futures, spawn(func() result { return c.awaitMath(ctx, tab, plan) }))
	}

	for _, f := range futures {
		r := <-f
		report.Phases = append(report.Phases, r.phases...)
		if r.state != nil {
			report.State = *r.state
		}
		if r.typeset {
			report.MathTypeset = true
		}
		report.Issues = append(report.Issues, r.issues...)
	}
	if plan.Charts == 0 {
		report.Phases = append(report.Phases, PhaseComplete)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if plan.Settle > 0 {
		select {
		case <-time.After(plan.Settle):
		case <-ctx.Done():
			return report, ctx.Err()
		}
	}

	c.log.Debug("page ready",
		zap.String("phases", report.String()),
		zap.Int("charts", plan.Charts),
		zap.Bool("math", report.MathTypeset),
		zap.Int("issues", len(report.Issues)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func spawn(fn func() result) <-chan result {
	ch := make(chan result, 1)
	go func() { ch <- fn() }()
	return ch
}

func (c *Coordinator) awaitCharts(ctx context.Context, tab Tab, plan Plan) result {
	r := result{phases: []Phase{PhaseWaitingForLibrary}}

	if err := poll(ctx, tab, LibraryProbe, plan.LibraryTimeout, plan.PollInterval); err != nil {
		r.phases = append(r.phases, PhaseFailed, PhaseComplete)
		r.state = readState(ctx, tab)
		if ctx.Err() == nil {
			issue := fmt.Errorf("%w within %s", ErrLibraryTimeout, plan.LibraryTimeout)
			if s := r.state; s != nil && s.Complete && !s.LibraryLoaded && s.Failed {
				issue = libraryIssue(*s)
			}
			r.issues = append(r.issues, issue)
		}
		c.log.Warn("chart library wait ended", zap.Error(err))
		return r
	}

	if s := readState(ctx, tab); s != nil && s.Complete && !s.LibraryLoaded {
		r.state = s
		if err := libraryIssue(*s); err != nil {
			r.phases = append(r.phases, PhaseFailed)
			r.issues = append(r.issues, err)
			c.log.Warn("chart library wait ended", zap.String("page", s.LastError))
		}
		r.phases = append(r.phases, PhaseComplete)
		return r
	}

	r.phases = append(r.phases, PhaseRendering)
	if err := poll(ctx, tab, CompleteProbe, plan.CompleteTimeout, plan.PollInterval); err != nil {
		r.phases = append(r.phases, PhaseFailed, PhaseComplete)
		if ctx.Err() == nil {
			r.issues = append(r.issues, fmt.Errorf("%w within %s", ErrRenderTimeout, plan.CompleteTimeout))
		}
		r.state = readState(ctx, tab)
		c.log.Warn("chart render wait ended", zap.Error(err))
		return r
	}

	r.state = readState(ctx, tab)
	if r.state != nil {
		if err := pageIssue(*r.state); err != nil {
			r.phases = append(r.phases, PhaseFailed)
			r.issues = append(r.issues, err)
		}
	}
	r.phases = append(r.phases, PhaseComplete)
	return r
}

func (c *Coordinator) awaitMath(ctx context.Context, tab Tab, plan Plan) result {
	var r result

	if err := poll(ctx, tab, MathProbe, plan.MathTimeout, plan.PollInterval); err != nil {
		if ctx.Err() == nil {
			r.issues = append(r.issues, fmt.Errorf("%w within %s", ErrMathTimeout, plan.MathTimeout))
		}
		return r
	}

	tctx, cancel := context.WithTimeout(ctx, plan.MathTimeout)
	defer cancel()
	var ok bool
	if err := tab.Eval(tctx, TypesetScript, &ok); err != nil {
		if ctx.Err() == nil {
			r.issues = append(r.issues, fmt.Errorf("%w: %v", ErrTypeset, err))
		}
		return r
	}
	r.typeset = ok
	c.log.Debug("math typeset", zap.Bool("ok", ok))
	return r
}

// poll evaluates probe until it returns true, the timeout elapses, or ctx is
// cancelled. Evaluation errors count as "not yet".
func poll(ctx context.Context, tab Tab, probe string, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		var ready bool
		err := tab.Eval(ctx, probe, &ready)
		if err == nil && ready {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil && !errors.Is(lastErr, context.DeadlineExceeded) && !errors.Is(lastErr, context.Canceled) {
				return fmt.Errorf("%w (last probe error: %v)", ctx.Err(), lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readState fetches the in-page state. It returns nil when the state object
// is missing or cannot be read.
func readState(ctx context.Context, tab Tab) *RenderState {
	if ctx.Err() != nil {
		return nil
	}
	var s *RenderState
	if err := tab.Eval(ctx, StateProbe, &s); err != nil {
		return nil
	}
	return s
}
