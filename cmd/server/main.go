// Command server exposes the sales report over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/bootstrap"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/handler"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/middleware"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/router"
)

// Version is set at build time
var Version = "dev"

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := bootstrap.NewLogger(cfg, false)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	app, err := bootstrap.New(context.Background(), cfg, log, bootstrap.Options{Version: Version})
	if err != nil {
		log.Fatal("Failed to initialize report pipeline", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.Close(ctx); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()
	log = app.Logger

	log.Info("Starting sales report server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("persistence", app.Runs != nil),
		zap.Bool("archive", app.Storage != nil),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, time.Minute, cfg.HTTP.RateLimit)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		RequestTimeout: cfg.HTTP.ReportTimeout,
		RateLimiter:    limiter,
	})

	reportOpts := []handler.ReportOption{
		handler.WithPublisher(app.Publisher),
		handler.WithDefaultFormat(handler.FormatJSON),
	}
	if app.Runs != nil {
		reportOpts = append(reportOpts, handler.WithRunReader(app.Runs))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewReportHandler(app.Service, reportOpts...))
	r.RegisterRoot(handler.NewSystemHandler(cfg.App.Name, Version))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
