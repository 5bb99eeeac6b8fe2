package nb2pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-nb2pdf/internal/process"
)

// Compile-time interface checks.
var (
	_ pdfRenderer = (*rodRenderer)(nil)
	_ browserTab  = (*rodTab)(nil)
)

// rodRenderer implements pdfRenderer using go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRenderer struct {
	timeout time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func newRodRenderer(timeout time.Duration, log *zap.Logger) *rodRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &rodRenderer{timeout: timeout, log: log}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	bin, noSandbox := browserEnv()
	if bin != "" {
		l = l.Bin(bin)
	}
	if noSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillTree(l.PID())
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	r.log.Debug("browser launched", zap.String("backend", string(BackendRod)), zap.Int("pid", l.PID()))
	return nil
}

// Open creates a tab on filePath and waits for the load event.
func (r *rodRenderer) Open(ctx context.Context, filePath string) (browserTab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout, err := loadTimeout(ctx, r.timeout)
	if err != nil {
		_ = page.Close()
		return nil, err
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		_ = page.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	return &rodTab{page: page}, nil
}

// Close releases browser resources and kills the browser process tree.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	process.KillTree(r.launcher.PID())
	r.launcher.Kill()
	r.browser = nil
	r.launcher = nil
	return err
}

// rodTab is a loaded rod page.
type rodTab struct {
	page *rod.Page
}

// Eval evaluates fn, awaiting a returned promise.
func (t *rodTab) Eval(ctx context.Context, fn string, out any) error {
	res, err := t.page.Context(ctx).Evaluate(rod.Eval(fn).ByPromise())
	if err != nil {
		return err
	}
	if out == nil || res == nil {
		return nil
	}
	return json.Unmarshal([]byte(res.Value.JSON("", "")), out)
}

// PrintPDF prints the page with explicit paper size and margins.
func (t *rodTab) PrintPDF(ctx context.Context, spec *printSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := t.page.Context(ctx).PDF(buildRodPrintOptions(spec))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// Close closes the tab.
func (t *rodTab) Close() error {
	return t.page.Close()
}

// buildRodPrintOptions maps a printSpec to the CDP print parameters.
func buildRodPrintOptions(spec *printSpec) *proto.PagePrintToPDF {
	w, h := spec.paperInches()
	m := spec.margins()

	opts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(w),
		PaperHeight:     floatPtr(h),
		MarginTop:       floatPtr(Inches(m.Top)),
		MarginBottom:    floatPtr(Inches(m.Bottom)),
		MarginLeft:      floatPtr(Inches(m.Left)),
		MarginRight:     floatPtr(Inches(m.Right)),
		PrintBackground: true,
	}

	if spec.Footer != nil {
		opts.DisplayHeaderFooter = true
		opts.HeaderTemplate = "<span></span>"
		opts.FooterTemplate = buildFooterTemplate(spec.Footer)
	}
	return opts
}
