package crawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSnippetLen caps the diagnostic snippet logged on marker detection.
const maxSnippetLen = 400

// CeilingDetector inspects rendered page content for the portal's
// hard-limit and error markers. A render timeout with a marker present is
// a hard ceiling, not a transient failure.
type CeilingDetector struct {
	markers []string
}

// NewCeilingDetector constructs a detector for the given marker substrings
// (matched case-insensitively against the raw page content).
func NewCeilingDetector(markers []string) *CeilingDetector {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		lowered = append(lowered, m)
	}
	return &CeilingDetector{markers: lowered}
}

// Detect reports whether the page content carries a ceiling/error marker
// and returns a collapsed snippet of the visible text for logging.
func (d *CeilingDetector) Detect(content string) (bool, string) {
	if d == nil || content == "" || len(d.markers) == 0 {
		return false, ""
	}
	lower := strings.ToLower(content)
	for _, m := range d.markers {
		if strings.Contains(lower, m) {
			return true, snippet(content)
		}
	}
	return false, ""
}

// snippet collapses the page's visible text into a short diagnostic
// string, falling back to the raw content when the markup is unparseable.
func snippet(content string) string {
	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		if body := doc.Find("body").Text(); strings.TrimSpace(body) != "" {
			text = body
		}
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > maxSnippetLen {
		return collapsed[:maxSnippetLen] + "..."
	}
	return collapsed
}
