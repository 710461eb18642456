// Package browser adapts headless Chrome to the scan ports: page
// fetching with script execution and HTML-to-PDF rendering.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"horizonscan/internal/config"
	"horizonscan/internal/ports"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// absolutizeScript rewrites relative anchor targets in place so every
// downstream stage sees absolute URLs.
const absolutizeScript = `(() => {
	document.querySelectorAll('a[href]').forEach((a) => {
		const href = a.getAttribute('href');
		if (href && !href.startsWith('http')) {
			try { a.setAttribute('href', new URL(href, document.baseURI).href); } catch (e) {}
		}
	});
	return true;
})()`

// Fetcher renders pages in headless Chrome. One exec allocator is
// shared across fetches; each fetch gets its own browser context, so
// concurrent site runs stay independent.
type Fetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	settle      time.Duration
	logger      *slog.Logger
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// NewFetcher builds a Fetcher from browser configuration.
func NewFetcher(cfg config.BrowserConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	return &Fetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.Timeout(),
		settle:      cfg.Settle(),
		logger:      logger,
	}
}

func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless()),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Name identifies this strategy in the fetcher registry.
func (f *Fetcher) Name() string { return "browser" }

// Fetch navigates to the page, waits for scripted content to settle,
// absolutizes anchor targets, and returns the rendered document.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	// Honor caller cancellation alongside the browser deadline.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var rewritten bool
	var rendered string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.Evaluate(absolutizeScript, &rewritten),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}

	f.logger.Debug("page rendered", "url", pageURL, "elapsed", time.Since(start))
	return rendered, nil
}

// Close tears down the shared Chrome allocator.
func (f *Fetcher) Close() error {
	f.allocCancel()
	return nil
}
