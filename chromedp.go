package nb2pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Compile-time interface checks.
var (
	_ pdfRenderer = (*chromedpRenderer)(nil)
	_ browserTab  = (*chromedpTab)(nil)
)

// chromedpRenderer implements pdfRenderer with chromedp. One allocator and
// browser are shared by every tab the renderer opens.
type chromedpRenderer struct {
	timeout time.Duration
	log     *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func newChromedpRenderer(timeout time.Duration, log *zap.Logger) *chromedpRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &chromedpRenderer{timeout: timeout, log: log}
}

// ensureBrowser lazily starts the allocator and the browser.
func (r *chromedpRenderer) ensureBrowser() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil {
		return nil
	}

	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	bin, noSandbox := browserEnv()
	if bin != "" {
		options = append(options, chromedp.ExecPath(bin))
	}
	if noSandbox {
		options = append(options, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), options...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.allocCancel = allocCancel
	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	r.log.Debug("browser launched", zap.String("backend", string(BackendChromedp)))
	return nil
}

// Open creates a tab on filePath and waits until the body is ready.
func (r *chromedpRenderer) Open(ctx context.Context, filePath string) (browserTab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(r.browserCtx)
	tab := &chromedpTab{ctx: tabCtx, cancel: cancel}

	timeout, err := loadTimeout(ctx, r.timeout)
	if err != nil {
		cancel()
		return nil, err
	}
	loadCtx, loadCancel := context.WithTimeout(ctx, timeout)
	defer loadCancel()

	err = tab.run(loadCtx,
		chromedp.Navigate("file://"+filePath),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return tab, nil
}

// Close shuts the browser down.
func (r *chromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(r.browserCtx)
	r.browserCancel()
	r.allocCancel()
	r.browserCtx = nil
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// chromedpTab is a loaded chromedp target.
type chromedpTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by the caller's ctx.
// Cancelling a context derived from the tab context aborts the actions
// without closing the target.
func (t *chromedpTab) run(ctx context.Context, actions ...chromedp.Action) error {
	execCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		execCtx, cancelDeadline = context.WithDeadline(execCtx, deadline)
		defer cancelDeadline()
	}

	err := chromedp.Run(execCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Eval evaluates fn, awaiting a returned promise.
func (t *chromedpTab) Eval(ctx context.Context, fn string, out any) error {
	return t.run(ctx, chromedp.Evaluate("("+fn+")()", out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
}

// PrintPDF prints the page with explicit paper size and margins.
func (t *chromedpTab) PrintPDF(ctx context.Context, spec *printSpec) ([]byte, error) {
	var buf []byte
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = buildChromedpPrintParams(spec).Do(ctx)
		return err
	}))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// Close closes the target.
func (t *chromedpTab) Close() error {
	t.cancel()
	return nil
}

// buildChromedpPrintParams maps a printSpec to the CDP print parameters.
func buildChromedpPrintParams(spec *printSpec) *page.PrintToPDFParams {
	w, h := spec.paperInches()
	m := spec.margins()

	params := page.PrintToPDF().
		WithPaperWidth(w).
		WithPaperHeight(h).
		WithMarginTop(Inches(m.Top)).
		WithMarginBottom(Inches(m.Bottom)).
		WithMarginLeft(Inches(m.Left)).
		WithMarginRight(Inches(m.Right)).
		WithPrintBackground(true)

	if spec.Footer != nil {
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(buildFooterTemplate(spec.Footer))
	}
	return params
}
