// Command salesreport exports Bsale sales documents as a flat report with
// one row per line item.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/application/report"
	"github.com/diegoaa53-dot/bsale-api/internal/bootstrap"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/export"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
)

// Version is set at build time
var Version = "dev"

// stdoutPath writes the report to standard output
const stdoutPath = "-"

type options struct {
	since      string
	until      string
	limit      int
	out        string
	format     string
	refresh    bool
	persist    bool
	upload     bool
	debug      bool
	configPath string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.since, "since", "", "First emission date, YYYY-MM-DD")
	fs.StringVar(&o.until, "until", "", "Last emission date, YYYY-MM-DD")
	fs.IntVar(&o.limit, "limit", 0, "Page size, 1-50 (default: api.page_size)")
	fs.StringVar(&o.out, "out", "", "Output path, - for stdout (default: reporte_ventas_<since>_<until>.<ext> in report.output_dir)")
	fs.StringVar(&o.format, "format", "", "Output format, csv or xlsx (default: report.format)")
	fs.BoolVar(&o.refresh, "refresh", false, "Drop cached catalogs before loading")
	fs.BoolVar(&o.persist, "persist", false, "Store the run and its rows in the database")
	fs.BoolVar(&o.upload, "upload", false, "Archive the rendered file in object storage")
	fs.BoolVar(&o.debug, "debug", false, "Debug logging, including the shape of the first document")
	fs.StringVar(&o.configPath, "config", "", "Config file (default: ./config.toml if present)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "salesreport: %v\n", err)
		return 1
	}

	log, err := bootstrap.NewLogger(cfg, opts.debug)
	if err != nil {
		fmt.Fprintf(stderr, "salesreport: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync(log) }()

	if err := generate(ctx, cfg, opts, log, stdout); err != nil {
		var se *stageError
		if errors.As(err, &se) {
			log.Error("sales report failed", zap.String("stage", se.stage), zap.Error(se.err))
		} else {
			log.Error("sales report failed", zap.Error(err))
		}
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// stageError names the pipeline stage that failed
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

func failed(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

func generate(ctx context.Context, cfg *config.Config, opts *options, log *zap.Logger, stdout io.Writer) error {
	format := opts.format
	if format == "" {
		format = cfg.Report.Format
	}
	writer, err := export.ForFormat(format)
	if err != nil {
		return failed("options", err)
	}

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{
		Persist: opts.persist,
		Upload:  opts.upload,
		Version: Version,
	})
	if err != nil {
		return failed("setup", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", zap.Error(err))
		}
	}()
	log = app.Logger
	log.Debug("starting", zap.String("version", Version))

	result, err := app.Service.BuildReport(ctx, report.ReportRequest{
		Since:    opts.since,
		Until:    opts.until,
		PageSize: opts.limit,
		Refresh:  opts.refresh,
	})
	if err != nil {
		return failed("build", err)
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, result.Rows); err != nil {
		return failed("render", err)
	}

	fileName := result.Range.FileName(writer.Extension())
	outPath := opts.out
	if outPath == "" {
		outPath = filepath.Join(cfg.Report.OutputDir, fileName)
	}
	if err := writeOutput(outPath, buf.Bytes(), stdout); err != nil {
		return failed("write", err)
	}

	if app.Publisher.Enabled() {
		run, err := app.Publisher.Publish(ctx, result, &report.Artifact{
			FileName:    fileName,
			ContentType: writer.ContentType(),
			Body:        buf.Bytes(),
		})
		if err != nil {
			return failed("publish", err)
		}
		if app.Storage != nil && run.ArchiveKey != "" {
			url, expires, err := app.Storage.GenerateDownloadURL(ctx, run.ArchiveKey, 0)
			if err != nil {
				log.Warn("download link unavailable", zap.Error(err))
			} else {
				log.Info("report download link", zap.String("url", url), zap.Time("expires", expires))
			}
		}
	}

	log.Info("report generated",
		zap.String("path", outPath),
		zap.String("run_id", result.RunID.String()),
		zap.Int("documents", result.DocumentCount),
		zap.Int("rows", len(result.Rows)),
	)
	return nil
}

// writeOutput writes body to path, creating parent directories. "-" writes
// to stdout.
func writeOutput(path string, body []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(body)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, body, 0o644)
}
