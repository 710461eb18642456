package usecase

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"horizonscan/internal/domain"
	"horizonscan/internal/extract"
	"horizonscan/internal/output"
	"horizonscan/internal/ports"
	"horizonscan/internal/sanitize"
)

// Structurer turns extracted page content into structured updates.
type Structurer interface {
	Structure(ctx context.Context, content extract.Content) []domain.Update
}

// Reviewer labels updates with a relevance decision.
type Reviewer interface {
	Review(ctx context.Context, updates []domain.Update) []domain.ReviewedUpdate
}

// StageError records the pipeline stage a site run failed in.
type StageError struct {
	Stage domain.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PipelineDeps wires all driven adapters into the scan pipeline.
// Renderer, Repository, and Notifier are optional.
type PipelineDeps struct {
	Fetcher    ports.PageFetcher
	Renderer   ports.DocumentRenderer
	Structurer Structurer
	Reviewer   Reviewer
	Sink       ports.ArtifactSink
	Repository ports.UpdateRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements the scan workflow: every monitored site runs the
// scrape/sanitize/extract/structure/filter sequence in isolation, and
// surviving results are merged into one combined artifact.
type Pipeline struct {
	fetcher    ports.PageFetcher
	renderer   ports.DocumentRenderer
	structurer Structurer
	reviewer   Reviewer
	sink       ports.ArtifactSink
	repository ports.UpdateRepository
	notifier   ports.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		fetcher:    deps.Fetcher,
		renderer:   deps.Renderer,
		structurer: deps.Structurer,
		reviewer:   deps.Reviewer,
		sink:       deps.Sink,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// ScanSites runs one site pipeline per URL concurrently, waits for all
// of them, and merges whatever succeeded. A failed site never blocks
// or poisons its siblings.
func (p *Pipeline) ScanSites(ctx context.Context, urls []string) ([]domain.ReviewedUpdate, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no site urls provided")
	}

	states := make([]domain.RunState, len(urls))
	var wg sync.WaitGroup
	for i, siteURL := range urls {
		wg.Add(1)
		go func(slot int, site string) {
			defer wg.Done()
			states[slot] = p.runSite(ctx, site)
		}(i, siteURL)
	}
	wg.Wait()

	return p.merge(ctx, states)
}

// runSite walks one URL through the stage sequence. Fetch failures
// degrade to a synthetic error document; later stage failures mark the
// site run failed and carry the failing stage in the error.
func (p *Pipeline) runSite(ctx context.Context, siteURL string) domain.RunState {
	state := domain.RunState{
		SourceURL: strings.TrimSpace(siteURL),
		RunID:     newRunID(p.now()),
		Stage:     domain.StageScraping,
	}
	logger := p.logger.With("site", state.SourceURL, "run_id", state.RunID)

	if state.SourceURL == "" {
		return fail(logger, state, fmt.Errorf("site url: %w", domain.ErrMissingInput))
	}
	slug := siteSlug(state.SourceURL)

	raw, err := p.fetcher.Fetch(ctx, state.SourceURL)
	if err != nil {
		logger.Warn("fetch failed, continuing with error document", "error", err)
		raw = errorDocument(state.SourceURL, err)
	}
	state.RawHTML = raw

	state.Stage = domain.StageSanitizing
	sanitized, err := sanitize.Clean(state.RawHTML)
	if err != nil {
		return fail(logger, state, err)
	}
	state.SanitizedHTML = sanitized
	p.archive(logger, slug+"_sanitized.html", []byte(sanitized))
	p.snapshot(ctx, logger, slug, sanitized)

	state.Stage = domain.StageExtracting
	content, err := extract.VisibleContent(state.SanitizedHTML, state.SourceURL)
	if err != nil {
		return fail(logger, state, err)
	}
	state.VisibleText = content.VisibleText
	state.LinkInventory = content.LinkInventory
	p.archive(logger, slug+"_extracted.txt", []byte(content.VisibleText))

	state.Stage = domain.StageStructuring
	state.Updates = p.structurer.Structure(ctx, content)
	logger.Info("structured updates", "count", len(state.Updates))
	p.archive(logger, fmt.Sprintf("%s_updates_%s.csv", slug, state.RunID), output.UpdatesCSV(state.Updates))

	state.Stage = domain.StageFiltering
	state.Reviewed = p.reviewer.Review(ctx, state.Updates)
	p.archive(logger, fmt.Sprintf("%s_reviewed_%s.csv", slug, state.RunID), output.ReviewedCSV(state.Reviewed))

	state.Stage = domain.StageMerging
	return state
}

// merge stamps provenance onto every surviving record, writes the
// combined artifact, and hands the batch to persistence/notification.
func (p *Pipeline) merge(ctx context.Context, states []domain.RunState) ([]domain.ReviewedUpdate, error) {
	var combined []domain.ReviewedUpdate
	for i := range states {
		state := &states[i]
		if state.Err != nil {
			p.logger.Warn("site run failed", "site", state.SourceURL, "error", state.Err)
			continue
		}
		for _, record := range state.Reviewed {
			if record.SourceURL == "" {
				record.SourceURL = state.SourceURL
			}
			if record.RunID == "" {
				record.RunID = state.RunID
			}
			combined = append(combined, record)
		}
		state.Stage = domain.StageDone
	}

	if len(combined) == 0 {
		p.logger.Warn("no updates found across all sites")
		return combined, nil
	}

	name := fmt.Sprintf("horizon_scan_combined_%s.csv", p.now().Format("20060102_150405"))
	if p.sink != nil {
		if err := p.sink.Write(name, output.CombinedCSV(combined)); err != nil {
			return combined, fmt.Errorf("write combined output: %w", err)
		}
	}
	p.logger.Info("combined scan written", "artifact", name, "records", len(combined))

	p.deliver(ctx, combined)
	return combined, nil
}

// deliver persists the batch and publishes a digest of included
// updates not seen in earlier runs. Both paths are best-effort.
func (p *Pipeline) deliver(ctx context.Context, combined []domain.ReviewedUpdate) {
	included := make([]domain.ReviewedUpdate, 0, len(combined))
	for _, record := range combined {
		if record.Recommendation == domain.RecommendationInclude {
			included = append(included, record)
		}
	}

	seen := map[string]bool{}
	if p.repository != nil && len(included) > 0 {
		links := make([]string, 0, len(included))
		for _, record := range included {
			links = append(links, record.Link)
		}
		var err error
		seen, err = p.repository.SeenLinks(ctx, links)
		if err != nil {
			p.logger.Error("load seen links", "error", err)
			seen = map[string]bool{}
		}
	}

	if p.repository != nil {
		if err := p.repository.SaveReviewed(ctx, combined); err != nil {
			p.logger.Error("persist reviewed updates", "error", err)
		}
	}

	if p.notifier == nil {
		return
	}
	fresh := make([]domain.ReviewedUpdate, 0, len(included))
	for _, record := range included {
		if !seen[record.Link] {
			fresh = append(fresh, record)
		}
	}
	if len(fresh) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(fresh)); err != nil {
		p.logger.Error("publish digest", "error", err)
	}
}

// archive writes one artifact; failures are logged, not fatal, so an
// unwritable disk cannot cost the scan its results.
func (p *Pipeline) archive(logger *slog.Logger, name string, data []byte) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Write(name, data); err != nil {
		logger.Warn("archive artifact", "name", name, "error", err)
	}
}

// snapshot renders an optional PDF copy of the sanitized page.
func (p *Pipeline) snapshot(ctx context.Context, logger *slog.Logger, slug, sanitized string) {
	if p.renderer == nil {
		return
	}
	pdf, err := p.renderer.Render(ctx, sanitized)
	if err != nil {
		logger.Warn("pdf snapshot failed", "error", err)
		return
	}
	p.archive(logger, slug+"_snapshot.pdf", pdf)
}

func fail(logger *slog.Logger, state domain.RunState, err error) domain.RunState {
	stageErr := &StageError{Stage: state.Stage, Err: err}
	state.Err = stageErr
	state.Stage = domain.StageFailed
	logger.Error("site run failed", "stage", stageErr.Stage, "error", err)
	return state
}

func buildDigestMessage(records []domain.ReviewedUpdate) string {
	var formatted strings.Builder
	for _, record := range records {
		fmt.Fprintf(&formatted, "- %s\n%s\n%s\n\n", record.Topic, record.Reason, record.Link)
	}
	return formatted.String()
}

// errorDocument stands in for a page that could not be fetched, so the
// rest of the stages still run and leave an audit trail.
func errorDocument(siteURL string, err error) string {
	return fmt.Sprintf(
		"<html><body><h1>Error fetching page</h1><p>URL: %s</p><p>%s</p></body></html>",
		html.EscapeString(siteURL),
		html.EscapeString(err.Error()),
	)
}

// siteSlug derives artifact name prefixes from the site's host:
// "www.cfpb.example" becomes "www_cfpb_example".
func siteSlug(siteURL string) string {
	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.ReplaceAll(parsed.Host, ".", "_")
}

func newRunID(now time.Time) string {
	return fmt.Sprintf("run_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:6])
}
