package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mathMarker matches the delimiters the math runtime typesets.
var mathMarker = regexp.MustCompile(`(?s)\$\$.+?\$\$|\\\[.+?\\\]|\\\(.+?\\\)|\\begin\{[A-Za-z*]+\}|\$[^$\n]+?\$`)

// mathSkip lists elements whose text is never typeset.
const mathSkip = "pre, code, script, style, textarea, .nb-dollar"

// DetectMath reports whether rendered HTML contains TeX the math runtime
// would typeset. Code, preformatted output and escaped dollars are ignored.
func DetectMath(htmlContent string) bool {
	if !strings.ContainsAny(htmlContent, `$\`) {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return mathMarker.MatchString(htmlContent)
	}
	doc.Find(mathSkip).Remove()

	return mathMarker.MatchString(doc.Text())
}
