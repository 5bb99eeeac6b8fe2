package nb2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2pdf/internal/assets"
	"github.com/alnah/go-nb2pdf/internal/coordinator"
	"github.com/alnah/go-nb2pdf/internal/dateutil"
	"github.com/alnah/go-nb2pdf/internal/fileutil"
	"github.com/alnah/go-nb2pdf/internal/notebook"
	"github.com/alnah/go-nb2pdf/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.Renderer       = (*pipeline.NotebookRenderer)(nil)
	_ pipeline.CSSInjector    = (*pipeline.CSSInjection)(nil)
	_ pipeline.ScriptInjector = (*pipeline.ScriptInjection)(nil)
)

// hostGrace is the most the host waits past an in-page ceiling, so the page
// normally reports its own timeout first.
const hostGrace = 5 * time.Second

// printHeadroom is reserved for printing after the render waits. When the
// conversion deadline cuts the waits short, printing still gets this long.
const printHeadroom = 30 * time.Second

// withGrace extends an in-page ceiling by a tenth, capped at hostGrace.
func withGrace(d time.Duration) time.Duration {
	return d + min(d/10, hostGrace)
}

// Converter orchestrates the notebook-to-PDF conversion pipeline.
// Create with NewConverter, use Convert for conversion, and Close when done.
// A Converter owns one browser and runs one conversion at a time; use a
// ConverterPool for parallel work.
type Converter struct {
	cfg            converterConfig
	log            *zap.Logger
	assetLoader    assets.AssetLoader
	notebooks      pipeline.Renderer
	highlightCSS   string
	cssInjector    pipeline.CSSInjector
	scriptInjector pipeline.ScriptInjector
	coordinator    *coordinator.Coordinator
	renderer       pdfRenderer

	resolvedStyle string
	coordinatorJS string
	mathConfigJS  string
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithBackend, WithTimeout, WithStyle).
// Returns error if assets cannot be loaded or a local runtime script is missing.
func NewConverter(opts ...Option) (*Converter, error) {
	nbRenderer := pipeline.NewNotebookRenderer()
	c := &Converter{
		cfg:            converterConfig{timeout: defaultTimeout, backend: DefaultBackend},
		log:            zap.NewNop(),
		notebooks:      nbRenderer,
		highlightCSS:   nbRenderer.HighlightCSS(),
		cssInjector:    &pipeline.CSSInjection{},
		scriptInjector: &pipeline.ScriptInjection{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.cfg.backend.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, c.cfg.backend)
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.assetLoader = resolver

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}
	if err := c.loadScripts(); err != nil {
		return nil, err
	}
	if err := c.checkRuntimeScripts(); err != nil {
		return nil, err
	}

	c.coordinator = coordinator.New(c.log)
	if c.renderer == nil {
		c.renderer, err = newRenderer(c.cfg.backend, c.cfg.timeout, c.log)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Backend returns the browser driver this Converter prints with.
func (c *Converter) Backend() Backend {
	return c.cfg.backend
}

// Convert runs the full pipeline and returns the result containing HTML and PDF.
// The context is used for cancellation and timeout.
// If input.HTMLOnly is true, printing is skipped.
// Render-wait timeouts and chart draw failures do not fail the conversion;
// they are logged and returned in ConvertResult.Warnings.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()
	start := time.Now()

	nb, err := notebook.Parse(input.Notebook)
	if err != nil {
		if errors.Is(err, notebook.ErrEmptyNotebook) {
			return nil, ErrEmptyNotebook
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	profile, warnings, err := input.Page.resolve()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		c.log.Warn(w)
	}

	doc, err := c.notebooks.Render(ctx, nb, pipeline.RenderOptions{
		Title:          input.Title,
		DefaultTitle:   input.DefaultTitle,
		SourceDir:      input.SourceDir,
		ExcludeInput:   input.ExcludeInput,
		ExcludePrompts: input.ExcludePrompts,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	footer, err := resolveFooter(input.Footer, time.Now())
	if err != nil {
		return nil, err
	}
	spec := &printSpec{Profile: profile, Footer: footer}

	htmlContent, err := c.assemble(ctx, doc, spec, input)
	if err != nil {
		return nil, err
	}

	res := &ConvertResult{
		HTML:     []byte(htmlContent),
		Backend:  c.cfg.backend,
		Title:    doc.Title,
		Profile:  profile,
		Charts:   len(doc.Charts),
		Math:     doc.Math,
		Warnings: warnings,
	}
	c.log.Debug("notebook rendered",
		zap.String("title", doc.Title),
		zap.String("page", profile.Label()),
		zap.Int("charts", res.Charts),
		zap.Bool("math", res.Math),
		zap.Duration("duration", time.Since(start)),
	)

	if input.HTMLOnly {
		return res, nil
	}

	pdf, report, err := c.print(ctx, parent, htmlContent, doc, spec)
	if report != nil {
		res.Phases = report.String()
		res.MathTypeset = report.MathTypeset
		res.ChartsSettled = report.State.CompletedCount
		res.ChartsFailed = report.State.FailedCount
		for _, w := range report.Warnings() {
			c.log.Warn("render incomplete", zap.String("backend", string(c.cfg.backend)), zap.String("issue", w))
			res.Warnings = append(res.Warnings, w)
		}
	}
	if err != nil {
		return nil, err
	}

	res.PDF = pdf
	c.log.Debug("pdf printed",
		zap.String("backend", string(c.cfg.backend)),
		zap.String("phases", res.Phases),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// assemble injects stylesheets and runtime scripts into the rendered page.
// CSS order: page geometry, base style, code highlighting, watermark, user CSS.
func (c *Converter) assemble(ctx context.Context, doc *pipeline.Document, spec *printSpec, input Input) (string, error) {
	css := joinCSS(
		buildPageCSS(spec),
		c.resolvedStyle,
		c.highlightCSS,
		buildWatermarkCSS(input.Watermark),
		input.CSS,
	)
	htmlContent := c.cssInjector.InjectCSS(ctx, doc.HTML, css)

	scripts, err := pipeline.BuildPageScripts(doc, c.runtimeSources(), c.coordinatorJS, c.mathConfigJS)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRuntimeScript, err)
	}
	htmlContent = c.scriptInjector.InjectHead(ctx, htmlContent, scripts.Head...)
	htmlContent = c.scriptInjector.InjectBodyEnd(ctx, htmlContent, scripts.BodyEnd...)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return htmlContent, nil
}

// print loads the page in a fresh tab, waits for readiness and prints.
// Render waits are soft: if the conversion deadline (ctx) expires during them
// while the caller (parent) is still live, the page is printed anyway with
// printHeadroom to spare. The intermediate file is removed on every exit path.
func (c *Converter) print(ctx, parent context.Context, htmlContent string, doc *pipeline.Document, spec *printSpec) ([]byte, *coordinator.Report, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	tab, err := c.renderer.Open(ctx, tmpPath)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tab.Close() }()

	report, err := c.coordinator.Await(ctx, tab, c.plan(doc))
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || parent.Err() != nil {
			return nil, report, err
		}
		report.Issues = append(report.Issues, fmt.Errorf("%w (%s)", coordinator.ErrWaitBudget, c.cfg.timeout))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, printHeadroom)
		defer cancel()
	}

	pdf, err := tab.PrintPDF(ctx, spec)
	if err != nil {
		return nil, report, err
	}
	return pdf, report, nil
}

// plan builds the readiness plan for doc from the configured waits.
func (c *Converter) plan(doc *pipeline.Document) coordinator.Plan {
	w := c.cfg.waits
	p := coordinator.Plan{
		Charts:      len(doc.Charts),
		Math:        doc.Math,
		MathTimeout: w.Math,
		Settle:      w.Settle,
	}
	if w.Library > 0 {
		p.LibraryTimeout = withGrace(w.Library)
	}
	if w.Chart > 0 {
		p.CompleteTimeout = withGrace(w.Chart)
	}
	if p.Settle == 0 {
		p.Settle = coordinator.DefaultSettle
	}
	return p
}

func (c *Converter) runtimeSources() pipeline.RuntimeSources {
	return pipeline.RuntimeSources{PlotlyJS: c.cfg.plotlyJS, MathJaxJS: c.cfg.mathJaxJS}
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS
// content. An empty input selects the default style.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if strings.Contains(input, "{") {
		c.resolvedStyle = input
		return nil
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.resolvedStyle = string(content)
		return nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return fmt.Errorf("%w: %q", ErrStyleNotFound, input)
		}
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.resolvedStyle = css
	return nil
}

// loadScripts loads and renders the in-page coordinator and math config.
func (c *Converter) loadScripts() error {
	tmpl, err := c.assetLoader.LoadScript(assets.CoordinatorScriptName)
	if err != nil {
		return fmt.Errorf("loading coordinator script: %w", err)
	}
	c.coordinatorJS, err = coordinator.Script(tmpl, coordinator.PageConfig{
		PlaceholderPrefix: notebook.PlaceholderPrefix,
		LibraryTimeout:    c.cfg.waits.Library,
		RenderTimeout:     c.cfg.waits.Chart,
	})
	if err != nil {
		return err
	}

	c.mathConfigJS, err = c.assetLoader.LoadScript(assets.MathConfigScriptName)
	if err != nil {
		return fmt.Errorf("loading math config script: %w", err)
	}
	return nil
}

// checkRuntimeScripts verifies that local runtime paths exist.
func (c *Converter) checkRuntimeScripts() error {
	for _, src := range []string{c.cfg.plotlyJS, c.cfg.mathJaxJS} {
		if src == "" || fileutil.IsURL(src) || strings.HasPrefix(src, "file://") {
			continue
		}
		if !fileutil.FileExists(src) {
			return fmt.Errorf("%w: %s not found", ErrRuntimeScript, src)
		}
	}
	return nil
}

// validateInput checks that required fields are present and valid.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their input validated earlier by Config.Validate() at config load time.
func (c *Converter) validateInput(input Input) error {
	if len(strings.TrimSpace(string(input.Notebook))) == 0 {
		return ErrEmptyNotebook
	}
	if err := input.Page.Validate(); err != nil {
		return err
	}
	if err := input.Footer.Validate(); err != nil {
		return err
	}
	return input.Watermark.Validate()
}

// resolveFooter copies f with its date expanded. Returns nil for nil.
func resolveFooter(f *Footer, now time.Time) (*Footer, error) {
	if f == nil {
		return nil, nil
	}
	out := *f
	date, err := dateutil.Resolve(f.Date, now)
	if err != nil {
		return nil, fmt.Errorf("footer date: %w", err)
	}
	out.Date = date
	return &out, nil
}
