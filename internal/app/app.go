package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"horizonscan/internal/config"
	"horizonscan/internal/infrastructure/browser"
	"horizonscan/internal/infrastructure/httpfetch"
	"horizonscan/internal/infrastructure/llm"
	"horizonscan/internal/infrastructure/scheduler"
	"horizonscan/internal/infrastructure/storage"
	"horizonscan/internal/infrastructure/telegram"
	"horizonscan/internal/linkrepair"
	"horizonscan/internal/logging"
	"horizonscan/internal/ports"
	"horizonscan/internal/relevance"
	"horizonscan/internal/scrape"
	"horizonscan/internal/structurer"
	"horizonscan/internal/usecase"
)

const stopTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline

	fetcher  *browser.Fetcher
	renderer *browser.Renderer
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	sink, err := storage.NewFilesystemSink(cfg.Scan.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("prepare output dir: %w", err)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		fetcher: browser.NewFetcher(cfg.Browser, baseLogger.With("component", "fetcher.browser")),
	}

	registry := scrape.NewRegistry()
	registry.Register(a.fetcher)
	registry.Register(httpfetch.NewFetcher(nil))

	fetcher, err := registry.Resolve(cfg.Scan.Fetcher)
	if err != nil {
		a.Close()
		return nil, err
	}

	var renderer ports.DocumentRenderer
	if cfg.Scan.ArchivePDF {
		a.renderer = browser.NewRenderer(cfg.Browser)
		renderer = a.renderer
	}

	var repository ports.UpdateRepository
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		repository = storage.NewPostgresRepository(db)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	classifier := llm.NewClient(cfg.Classifier)
	repair := linkrepair.New(baseLogger.With("component", "linkrepair"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:    fetcher,
		Renderer:   renderer,
		Structurer: structurer.New(classifier, repair, baseLogger.With("component", "structurer")),
		Reviewer:   relevance.NewFilter(classifier, baseLogger.With("component", "relevance")),
		Sink:       sink,
		Repository: repository,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Run executes one scan when no cron expression is configured, or keeps
// scanning on schedule until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.CronExpression == "" {
		_, err := a.pipeline.ScanSites(ctx, a.cfg.Scan.URLs)
		return err
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	recurring := usecase.NewScheduler(driver, a.pipeline, a.cfg.Scan.URLs, a.logger.With("component", "scheduler"))
	if err := recurring.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scanner scheduled", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return recurring.Stop(stopCtx)
}

// Close releases browser and database resources.
func (a *Application) Close() {
	if a.fetcher != nil {
		a.fetcher.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}
