// Package httpfetch fetches pages over plain HTTP, for sites that do
// not need script execution.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"horizonscan/internal/ports"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves pages with net/http and rewrites anchor targets to
// absolute URLs, since no browser is around to do it.
type Fetcher struct {
	client *http.Client
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// NewFetcher builds a Fetcher. A nil client gets a default with a
// 30-second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Name identifies this strategy in the fetcher registry.
func (f *Fetcher) Name() string { return "http" }

// Fetch downloads the page and absolutizes its anchors against the
// final URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return absolutize(string(body), resp.Request.URL)
}

func absolutize(rawHTML string, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		sel.SetAttr("href", resolved.String())
	})

	rendered, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return rendered, nil
}
