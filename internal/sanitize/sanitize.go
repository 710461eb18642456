// Package sanitize reduces raw scraped HTML to content-bearing markup.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strippedSelector lists markup that never carries update content:
// executable code, styling, and page chrome.
const strippedSelector = "script, style, noscript, header, footer, nav, aside"

// voidElements survive the empty-node sweep; they carry layout, not text.
var voidElements = map[string]bool{
	"br": true,
	"hr": true,
}

// Clean strips non-content markup from raw HTML and prunes elements left
// without visible text. Malformed input parses best-effort and never
// fails on its own; only unreadable input is an error.
func Clean(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find(strippedSelector).Remove()
	pruneEmptyElements(doc)

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return cleaned, nil
}

// pruneEmptyElements repeatedly drops elements whose rendered text is
// blank, until a pass removes nothing. Removing a wrapper can leave its
// parent blank, so one sweep is not enough.
func pruneEmptyElements(doc *goquery.Document) {
	for {
		removed := 0
		doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
			node := sel.Get(0)
			if node == nil || voidElements[node.Data] {
				return
			}
			if strings.TrimSpace(sel.Text()) == "" {
				sel.Remove()
				removed++
			}
		})
		if removed == 0 {
			return
		}
	}
}
