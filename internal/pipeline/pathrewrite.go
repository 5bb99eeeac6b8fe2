package pipeline

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RewriteRelativePaths converts relative image and link paths to absolute
// file:// URLs under sourceDir. If sourceDir is empty, returns the HTML
// unchanged.
//
// Rewrites img[src] and a[href]. Leaves URLs, anchors, absolute paths,
// attachment references and paths escaping sourceDir untouched.
func RewriteRelativePaths(htmlContent, sourceDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	return editHTML(htmlContent, func(doc *goquery.Selection) {
		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			rewriteAttr(s, "src", absSourceDir)
		})
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			rewriteAttr(s, "href", absSourceDir)
		})
	})
}

// AttachmentFunc resolves a markdown-cell attachment to its MIME type and
// base64 payload.
type AttachmentFunc func(name string) (mime, payload string, ok bool)

// EmbedAttachments replaces img[src="attachment:NAME"] with data URIs.
// Unknown attachments are left as-is.
func EmbedAttachments(htmlContent string, lookup AttachmentFunc) (string, error) {
	if lookup == nil || !strings.Contains(htmlContent, "attachment:") {
		return htmlContent, nil
	}

	return editHTML(htmlContent, func(doc *goquery.Selection) {
		doc.Find(`img[src^="attachment:"]`).Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			name, err := url.PathUnescape(strings.TrimPrefix(src, "attachment:"))
			if err != nil {
				return
			}
			if mime, payload, ok := lookup(name); ok {
				s.SetAttr("src", dataURI(mime, payload))
			}
		})
	})
}

// editHTML parses htmlContent, applies fn to the document root and renders
// it back. Fragments stay fragments.
func editHTML(htmlContent string, fn func(root *goquery.Selection)) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	fn(doc.Selection)

	if isFullDocument(htmlContent) {
		return doc.Html()
	}
	return doc.Find("body").Html()
}

func isFullDocument(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

func rewriteAttr(s *goquery.Selection, attrName, sourceDir string) {
	val, ok := s.Attr(attrName)
	if !ok || !isRelativePath(val) {
		return
	}

	absPath := filepath.Join(sourceDir, val)
	if !isPathUnderDir(absPath, sourceDir) {
		return
	}

	s.SetAttr(attrName, pathToFileURL(absPath))
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}

	if u, err := url.Parse(path); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		// http:, https:, file:, data:, mailto:, attachment: ...
		// Single-letter schemes are Windows drive letters.
		return false
	}

	return !filepath.IsAbs(path)
}

// isPathUnderDir checks if absPath is under dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths need a leading slash: file:///C:/docs
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// PathToFileURL converts a local path to a file:// URL, resolving it first.
func PathToFileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return pathToFileURL(abs), nil
}

func dataURI(mime, payload string) string {
	return "data:" + mime + ";base64," + strings.Join(strings.Fields(payload), "")
}
