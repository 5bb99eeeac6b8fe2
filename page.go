package nb2pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Page size keys.
const (
	PageSizeA0        = "a0"
	PageSizeA1        = "a1"
	PageSizeA2        = "a2"
	PageSizeA3        = "a3"
	PageSizeA4        = "a4"
	PageSizeA5        = "a5"
	PageSizeLetter    = "letter"
	PageSizeLegal     = "legal"
	PageSizeTabloid   = "tabloid"
	PageSizeLedger    = "ledger"
	PageSizeCaseStudy = "case_study"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Page defaults.
const (
	DefaultPageSize    = PageSizeA4
	DefaultOrientation = OrientationPortrait
	DefaultMargin      = "20mm"
)

// PageSize is one entry of the page table, in portrait orientation.
type PageSize struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

// pageTable lists the supported sizes in display order.
var pageTable = []PageSize{
	{PageSizeA0, 841, 1189},
	{PageSizeA1, 594, 841},
	{PageSizeA2, 420, 594},
	{PageSizeA3, 297, 420},
	{PageSizeA4, 210, 297},
	{PageSizeA5, 148, 210},
	{PageSizeLetter, 216, 279},
	{PageSizeLegal, 216, 356},
	{PageSizeTabloid, 279, 432},
	{PageSizeLedger, 432, 279},
	{PageSizeCaseStudy, 420, 1189},
}

// PageSizes returns the supported page sizes in table order.
func PageSizes() []PageSize {
	out := make([]PageSize, len(pageTable))
	copy(out, pageTable)
	return out
}

func lookupPageSize(name string) (PageSize, bool) {
	for _, s := range pageTable {
		if s.Name == name {
			return s, true
		}
	}
	return PageSize{}, false
}

// Margins are page margins in millimetres.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// CSS renders the margins as a four-value CSS shorthand.
func (m Margins) CSS() string {
	return strings.Join([]string{mm(m.Top), mm(m.Right), mm(m.Bottom), mm(m.Left)}, " ")
}

// PageProfile is the resolved physical page for one conversion.
type PageProfile struct {
	Name        string // table key actually used
	Orientation string
	WidthMM     float64
	HeightMM    float64
	Margin      Margins
}

// ResolvePageProfile turns a size key, orientation and CSS margin shorthand
// into a PageProfile. Empty values take the defaults.
//
// An unknown size key is not an error: the a4 dimensions are used and a
// warning is returned. An invalid orientation or margin is an error.
func ResolvePageProfile(size, orientation, margin string) (PageProfile, []string, error) {
	var warnings []string

	key := strings.ToLower(strings.TrimSpace(size))
	if key == "" {
		key = DefaultPageSize
	}
	dims, ok := lookupPageSize(key)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown page size %q, using %s", size, DefaultPageSize))
		dims, _ = lookupPageSize(DefaultPageSize)
	}

	orient := strings.ToLower(strings.TrimSpace(orientation))
	switch orient {
	case "":
		orient = DefaultOrientation
	case OrientationPortrait, OrientationLandscape:
	default:
		return PageProfile{}, warnings, fmt.Errorf("%w: %q (must be portrait or landscape)", ErrInvalidOrientation, orientation)
	}

	if strings.TrimSpace(margin) == "" {
		margin = DefaultMargin
	}
	m, err := ParseMargins(margin)
	if err != nil {
		return PageProfile{}, warnings, err
	}

	p := PageProfile{
		Name:        dims.Name,
		Orientation: orient,
		WidthMM:     dims.WidthMM,
		HeightMM:    dims.HeightMM,
		Margin:      m,
	}
	if orient == OrientationLandscape {
		p.WidthMM, p.HeightMM = p.HeightMM, p.WidthMM
	}
	if m.Left+m.Right >= p.WidthMM || m.Top+m.Bottom >= p.HeightMM {
		return PageProfile{}, warnings, fmt.Errorf("%w: %q leaves no printable area on %s", ErrInvalidMargin, margin, p.Label())
	}
	return p, warnings, nil
}

// IsDefault reports whether the profile is a4 portrait.
func (p PageProfile) IsDefault() bool {
	return p.Name == DefaultPageSize && p.Orientation == DefaultOrientation
}

// Label returns "<size>_<orientation>", used in output file names.
func (p PageProfile) Label() string {
	return p.Name + "_" + p.Orientation
}

// SizeCSS returns the CSS @page size value, e.g. "420mm 297mm".
func (p PageProfile) SizeCSS() string {
	return mm(p.WidthMM) + " " + mm(p.HeightMM)
}

// Inches converts millimetres to inches, the unit of the print protocol.
func Inches(mm float64) float64 {
	return mm / 25.4
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

var lengthPattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z]*)$`)

// ParseMargins parses a CSS margin shorthand of one to four lengths
// (top, right, bottom, left with the usual CSS expansion). Units are mm, cm,
// in, pt and px; a bare number is millimetres.
func ParseMargins(s string) (Margins, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 4 {
		return Margins{}, fmt.Errorf("%w: %q (want 1 to 4 lengths)", ErrInvalidMargin, s)
	}

	vals := make([]float64, len(parts))
	for i, part := range parts {
		v, err := parseLengthMM(part)
		if err != nil {
			return Margins{}, fmt.Errorf("%w: %q: %v", ErrInvalidMargin, s, err)
		}
		vals[i] = v
	}

	switch len(vals) {
	case 1:
		return Margins{vals[0], vals[0], vals[0], vals[0]}, nil
	case 2:
		return Margins{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Margins{vals[0], vals[1], vals[2], vals[1]}, nil
	default:
		return Margins{vals[0], vals[1], vals[2], vals[3]}, nil
	}
}

func parseLengthMM(s string) (float64, error) {
	m := lengthPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", s)
	}

	switch strings.ToLower(m[2]) {
	case "", "mm":
		return v, nil
	case "cm":
		return v * 10, nil
	case "in":
		return v * 25.4, nil
	case "pt":
		return v * 25.4 / 72, nil
	case "px":
		return v * 25.4 / 96, nil
	default:
		return 0, fmt.Errorf("unsupported unit %q", m[2])
	}
}
