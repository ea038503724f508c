// Package bootstrap turns a loaded configuration into a ready report
// pipeline: telemetry, snapshot store, Bsale client, report service and the
// optional publish targets.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/application/report"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/bsale"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/cache"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/persistence"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/storage"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/telemetry"
)

// Options adjusts what New wires on top of the configuration
type Options struct {
	// Persist and Upload turn on persistence and archiving even when the
	// configuration leaves them off
	Persist bool
	Upload  bool
	// Version is reported on telemetry resources
	Version string
	// DatabaseOptions are passed to persistence.NewDatabase
	DatabaseOptions []persistence.DatabaseOption
}

// App is a wired report pipeline
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Service   *report.ReportService
	Publisher *report.Publisher
	// Runs is nil when persistence is off
	Runs *persistence.GormReportRunRepository
	// Storage is nil when archiving is off
	Storage *storage.S3ReportStorage

	closers []func(context.Context) error
}

// NewLogger builds the process logger from cfg.Log. debug forces the debug
// level.
func NewLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	return logger.New(&logger.Config{
		Level:      level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// New wires the pipeline. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: log}
	if err := app.wire(ctx, opts); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

// wire fills in a. Every closer it registers is released by Close.
func (a *App) wire(ctx context.Context, opts Options) error {
	cfg := a.Config

	metrics, err := a.setupTelemetry(ctx, opts.Version)
	if err != nil {
		return err
	}
	log := a.Logger

	store, err := cache.NewSnapshotStoreFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	client, err := bsale.NewClient(&bsale.Config{
		BaseURL:           cfg.API.BaseURL,
		Token:             cfg.API.Token,
		TimeoutSeconds:    cfg.API.TimeoutSeconds,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	}, bsale.WithLogger(log))
	if err != nil {
		return fmt.Errorf("bsale client: %w", err)
	}

	a.Service = report.NewReportService(client, store,
		report.WithLogger(log),
		report.WithLocation(cfg.Report.Location()),
		report.WithDefaultCoin(cfg.Report.DefaultCoin),
		report.WithPageSize(cfg.API.PageSize),
		report.WithMetrics(metrics),
	)

	pubOpts := []report.PublisherOption{report.WithPublisherLogger(log)}
	if cfg.Database.Enabled || opts.Persist {
		if err := a.setupPersistence(ctx, opts.DatabaseOptions); err != nil {
			return err
		}
		pubOpts = append(pubOpts, report.WithRunRepository(a.Runs))
	}
	if cfg.Storage.Enabled || opts.Upload {
		s, err := storage.NewS3ReportStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("report archive: %w", err)
		}
		a.Storage = s
		pubOpts = append(pubOpts, report.WithArchive(s, cfg.Storage.KeyPrefix))
	}
	a.Publisher = report.NewPublisher(pubOpts...)

	return nil
}

// setupTelemetry starts the trace, metric and log providers. The returned
// metrics are nil when creating the instruments fails.
func (a *App) setupTelemetry(ctx context.Context, version string) (*telemetry.ReportMetrics, error) {
	tc := a.Config.Telemetry

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("meter provider: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    version,
		Insecure:          tc.Insecure,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger provider: %w", err)
	}
	a.closers = append(a.closers, lp.Shutdown)
	a.Logger = telemetry.BridgeLogger(a.Logger, lp, tc.ServiceName, logger.ParseLevel(a.Config.Log.Level))

	metrics, err := telemetry.NewReportMetrics(mp.Meter("bsale-report"))
	if err != nil {
		a.Logger.Warn("report metrics unavailable", zap.Error(err))
		return nil, nil
	}
	return metrics, nil
}

func (a *App) setupPersistence(ctx context.Context, dbOpts []persistence.DatabaseOption) error {
	cfg := a.Config
	opts := []persistence.DatabaseOption{
		persistence.WithLogger(a.Logger, logger.MapGormLogLevel(cfg.Log.Level)),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		opts = append(opts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracing, a.Logger)))
	}
	opts = append(opts, dbOpts...)

	db, err := persistence.NewDatabase(&cfg.Database, opts...)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	runs := db.ReportRuns()
	if err := runs.AutoMigrate(ctx); err != nil {
		return err
	}
	a.Runs = runs
	return nil
}

// Close releases everything New opened, newest first
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
