package nb2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyNotebook  = errors.New("notebook content cannot be empty")
	ErrInvalidInput   = errors.New("invalid notebook")
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRuntimeScript  = errors.New("runtime script unavailable")

	// Settings validation errors.
	ErrInvalidOrientation    = errors.New("invalid orientation")
	ErrInvalidMargin         = errors.New("invalid margin")
	ErrInvalidBackend        = errors.New("invalid render method")
	ErrInvalidFooterPosition = errors.New("invalid footer position")
	ErrInvalidWatermarkColor = errors.New("invalid watermark color")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
