package report

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Artifact is a rendered report file
type Artifact struct {
	FileName    string
	ContentType string
	Body        []byte
}

// PublisherOption is a functional option for configuring Publisher
type PublisherOption func(*Publisher)

// WithRunRepository enables run persistence
func WithRunRepository(repo sales.ReportRunRepository) PublisherOption {
	return func(p *Publisher) {
		p.repo = repo
	}
}

// WithArchive enables archiving of rendered files under keyPrefix
func WithArchive(archive sales.ReportArchive, keyPrefix string) PublisherOption {
	return func(p *Publisher) {
		p.archive = archive
		p.keyPrefix = keyPrefix
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher archives rendered reports and records finished runs. Both
// targets are optional; with neither configured Publish only builds the run
// record.
type Publisher struct {
	repo      sales.ReportRunRepository
	archive   sales.ReportArchive
	keyPrefix string
	logger    *zap.Logger
}

// NewPublisher creates a publisher
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether any publish target is configured
func (p *Publisher) Enabled() bool {
	return p.repo != nil || p.archive != nil
}

// Publish uploads the artifact, when archiving is enabled, and then saves the
// run with its rows, when persistence is enabled
func (p *Publisher) Publish(ctx context.Context, result *ReportResult, artifact *Artifact) (*sales.ReportRun, error) {
	run := NewReportRun(result)
	logger := p.logger.With(zap.String("run_id", run.ID.String()))

	if p.archive != nil && artifact != nil {
		key := path.Join(p.keyPrefix, run.ID.String(), artifact.FileName)
		stored, err := p.archive.Upload(ctx, key, artifact.ContentType, artifact.Body)
		if err != nil {
			return nil, fmt.Errorf("archive report: %w", err)
		}
		run.ArchiveKey = stored
		logger.Info("report archived", zap.String("key", stored), zap.Int("bytes", len(artifact.Body)))
	}

	if p.repo != nil {
		if err := p.repo.SaveRun(ctx, run, result.Rows); err != nil {
			return nil, fmt.Errorf("persist report run: %w", err)
		}
		logger.Info("report run persisted", zap.Int("rows", run.RowCount))
	}

	return run, nil
}

// NewReportRun builds the run record of a result
func NewReportRun(result *ReportResult) *sales.ReportRun {
	run := &sales.ReportRun{
		ID:                result.RunID,
		Since:             result.Range.Since,
		Until:             result.Range.Until,
		DocumentCount:     result.DocumentCount,
		RowCount:          len(result.Rows),
		DuplicatesDropped: result.DuplicatesDropped,
		Degraded:          append([]sales.CatalogKind(nil), result.Degraded...),
		CreatedAt:         result.GeneratedAt,
	}
	if result.Range.Bounded() {
		start, end := result.Range.Start, result.Range.End
		run.RangeStart = &start
		run.RangeEnd = &end
	}
	return run
}
