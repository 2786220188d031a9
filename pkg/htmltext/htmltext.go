// Package htmltext reduces post HTML to plain text suitable for prompting.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract strips markup from an HTML fragment, dropping script and style
// bodies, and collapses whitespace. Input that is already plain text passes
// through unchanged.
func Extract(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return Collapse(doc.Text())
}

// Collapse squeezes runs of whitespace into single spaces, keeping line
// breaks as single newlines.
func Collapse(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
