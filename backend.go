package nb2pdf

import (
	"fmt"
	"strings"
)

// Backend names a headless-browser driver used for printing.
type Backend string

// Supported backends.
const (
	BackendRod      Backend = "rod"
	BackendChromedp Backend = "chromedp"
)

// MethodBoth selects every backend, one PDF each.
const MethodBoth = "both"

// DefaultBackend is used when no backend is configured.
const DefaultBackend = BackendRod

// Backends lists the supported backends in the order "both" runs them.
func Backends() []Backend {
	return []Backend{BackendRod, BackendChromedp}
}

// Valid reports whether b is a supported backend.
func (b Backend) Valid() bool {
	return b == BackendRod || b == BackendChromedp
}

// ParseMethod expands a --method value into backends. Empty means the
// default backend; "both" means every backend.
func ParseMethod(method string) ([]Backend, error) {
	switch m := strings.ToLower(strings.TrimSpace(method)); m {
	case "":
		return []Backend{DefaultBackend}, nil
	case MethodBoth:
		return Backends(), nil
	default:
		b := Backend(m)
		if !b.Valid() {
			return nil, fmt.Errorf("%w: %q (must be rod, chromedp, or both)", ErrInvalidBackend, method)
		}
		return []Backend{b}, nil
	}
}
