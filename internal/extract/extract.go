// Package extract linearizes sanitized HTML into visible text and a
// link inventory for downstream structuring.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"horizonscan/internal/domain"
)

// Content is the flattened page representation handed to the structurer.
type Content struct {
	VisibleText   string
	LinkInventory []string
}

// urlPattern finds bare URLs inside visible text. Closing delimiters
// are excluded so "(https://x)" yields https://x.
var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// VisibleContent walks the sanitized document in order, emitting text
// fragments and inline "text (url)" anchor units, and collects every
// absolute link seen. Anchor targets are resolved against baseURL.
func VisibleContent(sanitizedHTML, baseURL string) (Content, error) {
	if strings.TrimSpace(sanitizedHTML) == "" {
		return Content{}, fmt.Errorf("sanitized content: %w", domain.ErrMissingInput)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitizedHTML))
	if err != nil {
		return Content{}, fmt.Errorf("parse document: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return Content{}, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	root := doc.Find("body")
	sel := doc.Selection
	if root.Length() > 0 {
		sel = root
	}

	w := walker{base: base}
	for _, node := range sel.Nodes {
		w.walk(node)
	}

	text := strings.Join(w.parts, " ")
	return Content{
		VisibleText:   text,
		LinkInventory: dedupe(append(w.links, urlPattern.FindAllString(text, -1)...)),
	}, nil
}

type walker struct {
	base  *url.URL
	parts []string
	links []string
}

// walk performs a depth-first traversal. An anchor that carries an href
// becomes a single "text (url)" unit and is not descended into; every
// other element contributes its text nodes in document order.
func (w *walker) walk(node *html.Node) {
	switch node.Type {
	case html.TextNode:
		if text := strings.TrimSpace(node.Data); text != "" {
			w.parts = append(w.parts, text)
		}
		return
	case html.ElementNode:
		if node.Data == "a" {
			if href, ok := attrValue(node, "href"); ok {
				w.visitAnchor(node, href)
				return
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		w.walk(child)
	}
}

func (w *walker) visitAnchor(node *html.Node, href string) {
	text := nodeText(node)
	if text == "" {
		return
	}
	resolved := w.resolve(href)
	w.parts = append(w.parts, fmt.Sprintf("%s (%s)", text, resolved))
	w.links = append(w.links, resolved)
}

// resolve joins href against the base URL; unparseable hrefs pass
// through untouched rather than aborting the page.
func (w *walker) resolve(href string) string {
	ref, err := w.base.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return ref.String()
}

func attrValue(node *html.Node, key string) (string, bool) {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// nodeText gathers the trimmed text of a node's subtree, fragments
// joined by single spaces.
func nodeText(node *html.Node) string {
	var parts []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(node)
	return strings.Join(parts, " ")
}

// dedupe keeps the first occurrence of each link, preserving order.
func dedupe(links []string) []string {
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}
