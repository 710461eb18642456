package ports

import (
	"context"
	"time"

	"horizonscan/internal/domain"
)

// PageFetcher renders a monitored page into HTML. Implementations must
// resolve relative anchor targets to absolute URLs before returning.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// DocumentRenderer turns HTML into a PDF snapshot for archiving.
type DocumentRenderer interface {
	Render(ctx context.Context, htmlContent string) ([]byte, error)
}

// TextClassifier sends a prompt to a language model and returns the raw
// completion text. Callers own prompt construction and response parsing.
type TextClassifier interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ArtifactSink persists named scan artifacts (HTML, text, CSV, PDF).
type ArtifactSink interface {
	Write(name string, data []byte) error
}

// UpdateRepository persists reviewed updates for deduplication/history.
type UpdateRepository interface {
	SeenLinks(ctx context.Context, links []string) (map[string]bool, error)
	SaveReviewed(ctx context.Context, updates []domain.ReviewedUpdate) error
}

// Notifier streams selected digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
