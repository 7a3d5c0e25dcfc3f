package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/extractor"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/snapshot"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/telegram"
	"NewsDigest/internal/infrastructure/tradingview"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/newsfeed"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLStore
	pipeline  *usecase.Pipeline
	collector *usecase.Collector
	reports   *usecase.ReportGenerator
	notifier  ports.Notifier
}

// New opens the store, makes sure the schema exists and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(cfg.Database, baseLogger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return newWithStore(cfg, store, baseLogger), nil
}

func newWithStore(cfg config.Config, store *storage.SQLStore, baseLogger *slog.Logger) *Application {
	summarizer := llm.New(cfg.LLM, baseLogger.With("component", "llm"))

	registry := newsfeed.NewRegistry()
	registry.Register(tradingview.NewNewsClient(
		&http.Client{Timeout: cfg.News.Timeout() * 2},
		cfg.News.ListURL,
		cfg.News.BaseURL,
	))

	openHour, openMinute := cfg.News.OpenAt()
	collector := usecase.NewCollector(usecase.CollectorDeps{
		Registry:   registry,
		Provider:   cfg.News.Provider,
		Fetcher:    tradingview.NewDocumentFetcher(nil, cfg.News.Timeout(), cfg.News.UserAgent, cfg.News.Cookie),
		Extractor:  extractor.New(extractorOptions(cfg.Extractor)),
		Snapshots:  snapshot.NewWriter(cfg.News.SnapshotDir),
		Exchange:   cfg.News.Exchange,
		Language:   cfg.News.Language,
		WindowDays: cfg.News.WindowDays,
		OpenHour:   openHour,
		OpenMinute: openMinute,
		Logger:     baseLogger.With("component", "collector"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:      store,
		Summarizer: summarizer,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram, nil)
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipeline:  pipeline,
		collector: collector,
		reports:   usecase.NewReportGenerator(store, summarizer, baseLogger.With("component", "report")),
		notifier:  notifier,
	}
}

func extractorOptions(cfg config.ExtractorConfig) extractor.Options {
	return extractor.Options{
		ScriptType:     cfg.ScriptType,
		TitleSelectors: cfg.TitleSelectors,
		BodySelector:   cfg.BodySelector,
	}
}

// InitDB creates the schema; safe to repeat.
func (a *Application) InitDB(ctx context.Context) error {
	return a.store.Initialize(ctx)
}

// Fetch collects one symbol's news and, when process is set, runs the pipeline on it.
func (a *Application) Fetch(ctx context.Context, symbol string, day time.Time, windowDays int, process bool) (domain.Snapshot, *usecase.ProcessResult, error) {
	snap, err := a.collector.CollectWindow(ctx, symbol, day, windowDays)
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	if !process {
		return snap, nil, nil
	}

	result, err := a.pipeline.Process(ctx, snap)
	if err != nil {
		return snap, &result, fmt.Errorf("process %s: %w", snap.Symbol, err)
	}
	return snap, &result, nil
}

// ProcessFile runs the pipeline over a snapshot saved by an earlier fetch.
func (a *Application) ProcessFile(ctx context.Context, path string) (usecase.ProcessResult, error) {
	snap, err := snapshot.Read(path)
	if err != nil {
		return usecase.ProcessResult{}, err
	}
	return a.pipeline.Process(ctx, snap)
}

// Enrich drains the summary backlog without ingesting anything.
func (a *Application) Enrich(ctx context.Context) (domain.EnrichResult, error) {
	return a.pipeline.Enrich(ctx)
}

// Report generates the daily report and optionally publishes it.
func (a *Application) Report(ctx context.Context, day, symbol string, notify bool) (string, error) {
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}

	report, err := a.reports.Generate(ctx, day, symbol)
	if err != nil {
		return "", err
	}
	if !notify {
		return report, nil
	}
	if a.notifier == nil {
		return report, fmt.Errorf("telegram notifier misconfigured")
	}
	if err := a.notifier.PublishReport(ctx, report); err != nil {
		return report, fmt.Errorf("publish report: %w", err)
	}
	return report, nil
}

// Stats counts stored items by enrichment status.
func (a *Application) Stats(ctx context.Context) (domain.StoreStats, error) {
	return a.store.Stats(ctx)
}

// Serve runs the scheduled daily job until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if len(a.cfg.News.Symbols) == 0 {
		return fmt.Errorf("no symbols configured for scheduled runs")
	}

	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	if err := driver.Validate(); err != nil {
		return err
	}

	job := &usecase.DailyJob{
		Collector:    a.collector,
		Pipeline:     a.pipeline,
		Reports:      a.reports,
		Notifier:     a.notifier,
		Symbols:      a.cfg.News.Symbols,
		LookbackDays: a.cfg.Scheduler.LookbackDays,
		Publish:      a.cfg.Report.PublishAfterRun,
		Logger:       a.logger.With("component", "job"),
	}

	sched := usecase.NewScheduler(driver, job, a.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next", driver.Next().Format(time.RFC3339),
		"symbols", a.cfg.News.Symbols)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
