package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"horizonscan/internal/config"
	"horizonscan/internal/ports"
)

// Renderer prints HTML to PDF through headless Chrome.
type Renderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

var _ ports.DocumentRenderer = (*Renderer)(nil)

// NewRenderer builds a Renderer from browser configuration.
func NewRenderer(cfg config.BrowserConfig) *Renderer {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	return &Renderer{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.Timeout(),
	}
}

// Render loads the given HTML into a blank page and prints it.
func (r *Renderer) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	taskCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}

	return pdf, nil
}

// Close tears down the shared Chrome allocator.
func (r *Renderer) Close() error {
	r.allocCancel()
	return nil
}
