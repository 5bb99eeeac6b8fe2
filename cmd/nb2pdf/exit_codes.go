package main

import (
	"errors"
	"os"

	nb2pdf "github.com/alnah/go-nb2pdf"
	"github.com/alnah/go-nb2pdf/internal/config"
	"github.com/alnah/go-nb2pdf/internal/dateutil"
	"github.com/alnah/go-nb2pdf/internal/logging"
)

// Exit codes for the nb2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, nb2pdf.ErrBrowserConnect) ||
		errors.Is(err, nb2pdf.ErrPageCreate) ||
		errors.Is(err, nb2pdf.ErrPageLoad) ||
		errors.Is(err, nb2pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadNotebook) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoNotebooks) ||
		errors.Is(err, nb2pdf.ErrRuntimeScript) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, nb2pdf.ErrEmptyNotebook) ||
		errors.Is(err, nb2pdf.ErrInvalidInput) ||
		errors.Is(err, nb2pdf.ErrInvalidOrientation) ||
		errors.Is(err, nb2pdf.ErrInvalidMargin) ||
		errors.Is(err, nb2pdf.ErrInvalidBackend) ||
		errors.Is(err, nb2pdf.ErrInvalidFooterPosition) ||
		errors.Is(err, nb2pdf.ErrInvalidWatermarkColor) ||
		errors.Is(err, nb2pdf.ErrStyleNotFound) ||
		errors.Is(err, nb2pdf.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrWatermarkTextless) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
