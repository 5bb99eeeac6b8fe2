package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	nb2pdf "github.com/alnah/go-nb2pdf"
	"github.com/alnah/go-nb2pdf/internal/assets"
	"github.com/alnah/go-nb2pdf/internal/config"
	"github.com/alnah/go-nb2pdf/internal/hints"
	"github.com/alnah/go-nb2pdf/internal/logging"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput        = errors.New("no input specified")
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// runConvertCmd parses convert flags, runs the conversion under a
// signal-aware context and returns the exit code.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if flags.page.listSizes {
		printSizes(env.Stdout)
		return ExitSuccess
	}

	setMaxProcs(flags.common.verbose, env)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, withHint(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	envCfg := loadEnvConfig(env.Getenv)

	// Validate worker count early
	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	backends, err := nb2pdf.ParseMethod(cfg.Render.Method)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.render.timeout, envCfg, cfg)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg, flags, env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	params, err := buildConversionParams(flags, cfg, env.Now())
	if err != nil {
		return err
	}

	opts, err := converterOptions(cfg, timeout, log)
	if err != nil {
		return err
	}

	poolSize := nb2pdf.ResolvePoolSize(workers)
	log.Debug("starting conversion",
		zap.String("input", inputPath),
		zap.Int("workers", poolSize),
		zap.Int("methods", len(backends)),
	)

	var results []ConversionResult
	for _, b := range backends {
		naming := outputNaming{label: params.label}
		if len(backends) > 1 {
			naming.method = string(b)
		}
		files, err := discoverFiles(inputPath, outputDir, naming)
		if err != nil {
			return fmt.Errorf("discovering files: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("%w in %s", ErrNoNotebooks, inputPath)
		}

		results = append(results, runBackend(ctx, env, b, poolSize, opts, files, params)...)
		if ctx.Err() != nil {
			break
		}
	}

	failed, firstErr := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", failed, firstErr)
	}
	return ctx.Err()
}

// runBackend converts files on one backend with its own pool, closing the
// pool (and its browsers) before returning.
func runBackend(ctx context.Context, env *Environment, b nb2pdf.Backend, size int, opts []nb2pdf.Option, files []FileToConvert, params *conversionParams) []ConversionResult {
	pool := env.NewPool(b, size, opts...)
	defer func() { _ = pool.Close() }()
	return convertBatch(ctx, pool, files, params)
}

// loadConfig loads the config named by the flag or NB2PDF_CONFIG. Without
// either it returns an empty config so env vars and defaults apply.
func loadConfig(name string, envCfg *envConfig) (*config.Config, error) {
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	// Page flags
	setIfSet(&cfg.Page.Size, flags.page.size)
	setIfSet(&cfg.Page.Orientation, flags.page.orientation)
	setIfSet(&cfg.Page.Margin, flags.page.margin)

	// Content flags
	if flags.content.noInput {
		cfg.Content.ExcludeInput = true
	}
	if flags.content.noPrompt {
		cfg.Content.ExcludePrompts = true
	}

	// Render flags
	setIfSet(&cfg.Render.Method, flags.render.method)
	setIfSet(&cfg.Render.PlotlyJS, flags.render.plotlyJS)
	setIfSet(&cfg.Render.MathJaxJS, flags.render.mathJaxJS)

	// Asset flags
	setIfSet(&cfg.CSS.Style, flags.assets.style)
	setIfSet(&cfg.Assets.BasePath, flags.assets.assetPath)

	// Footer flags: any footer value enables the footer
	if flags.footer.position != "" {
		cfg.Footer.Position = flags.footer.position
		cfg.Footer.Enabled = true
	}
	if flags.footer.text != "" {
		cfg.Footer.Text = flags.footer.text
		cfg.Footer.Enabled = true
	}
	if flags.footer.date != "" {
		cfg.Footer.Date = flags.footer.date
		cfg.Footer.Enabled = true
	}
	if flags.footer.status != "" {
		cfg.Footer.Status = flags.footer.status
		cfg.Footer.Enabled = true
	}
	if flags.footer.pageNumber {
		cfg.Footer.ShowPageNumber = true
		cfg.Footer.Enabled = true
	}

	// Disable flags
	if flags.footer.disabled {
		cfg.Footer.Enabled = false
	}
	if flags.watermark.disabled {
		cfg.Watermark.Enabled = false
	}
}

// applyDefaults fills page and method fields still empty after config,
// env and flags.
func applyDefaults(cfg *config.Config) {
	d := config.DefaultConfig()
	setIfEmpty(&cfg.Page.Size, d.Page.Size)
	setIfEmpty(&cfg.Page.Orientation, d.Page.Orientation)
	setIfEmpty(&cfg.Page.Margin, d.Page.Margin)
	setIfEmpty(&cfg.Render.Method, d.Render.Method)
}

func setIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// resolveTimeout picks the per-notebook timeout.
// Priority: --timeout flag > NB2PDF_TIMEOUT > render.timeout > library default.
func resolveTimeout(flagValue string, envCfg *envConfig, cfg *config.Config) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q (use e.g. 90s, 3m)", ErrInvalidTimeout, flagValue)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q (must be positive)", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if envCfg.Timeout > 0 {
		return envCfg.Timeout, nil
	}
	d, err := cfg.Render.Durations()
	if err != nil {
		return 0, err
	}
	return d.Overall, nil
}

// buildLogger builds the zap logger. Result lines and warnings are printed
// by the CLI itself, so the console only shows errors unless a level is
// configured or --verbose/--debug is set.
func buildLogger(cfg *config.Config, flags *convertFlags, env *Environment) (*zap.Logger, error) {
	logCfg := cfg.Log
	switch {
	case flags.common.verbose || flags.outputMode.debug:
		logCfg.Level = "debug"
	case flags.common.quiet || logCfg.Level == "":
		logCfg.Level = "error"
	}
	log, err := logging.New(logCfg, env.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return log, nil
}

// converterOptions maps config onto converter options shared by every
// backend pool.
func converterOptions(cfg *config.Config, timeout time.Duration, log *zap.Logger) ([]nb2pdf.Option, error) {
	d, err := cfg.Render.Durations()
	if err != nil {
		return nil, err
	}
	waits := nb2pdf.Waits{
		Library: d.Library,
		Chart:   d.Chart,
		Math:    d.Math,
		Settle:  d.Settle,
	}
	if d.SettleSet() && d.Settle == 0 {
		waits.Settle = -1
	}

	return []nb2pdf.Option{
		nb2pdf.WithTimeout(timeout),
		nb2pdf.WithStyle(cfg.CSS.Style),
		nb2pdf.WithAssetPath(cfg.Assets.BasePath),
		nb2pdf.WithRuntimeScripts(cfg.Render.PlotlyJS, cfg.Render.MathJaxJS),
		nb2pdf.WithWaits(waits),
		nb2pdf.WithLogger(log),
	}, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output target from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// withHint appends an actionable hint to well-known errors. Per-file
// failures already carry theirs (see decorate).
func withHint(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return msg + hints.ForConfigNotFound(userConfigCandidates())
	case errors.Is(err, nb2pdf.ErrStyleNotFound):
		return msg + hints.ForStyleNotFound(assets.Styles())
	}
	return msg
}

// userConfigCandidates lists the user-level config paths for hints.
func userConfigCandidates() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, config.UserDirName, "default.yaml")}
}
