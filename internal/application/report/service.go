package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/telemetry"
)

// DefaultPageSize is the page size used when a request does not set one
const DefaultPageSize = 50

// ReportRequest selects the documents of a report
type ReportRequest struct {
	Since    string `json:"since" form:"since" validate:"omitempty,datetime=2006-01-02"`
	Until    string `json:"until" form:"until" validate:"omitempty,datetime=2006-01-02"`
	PageSize int    `json:"page_size" form:"page_size" validate:"omitempty,min=1,max=50"`
	// Refresh drops every catalog snapshot before loading
	Refresh bool `json:"refresh" form:"refresh"`
}

// ReportResult is a finished report. Rows is never nil.
type ReportResult struct {
	RunID             uuid.UUID
	Range             DateRange
	Rows              []sales.ReportRow
	DocumentCount     int
	DuplicatesDropped int
	// Degraded lists optional catalogs that were unavailable
	Degraded []sales.CatalogKind
	// ExpandDowngraded is set when documents were fetched without document_type
	ExpandDowngraded bool
	GeneratedAt      time.Time
}

// ServiceOption is a functional option for configuring ReportService
type ServiceOption func(*ReportService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *ReportService) {
		s.logger = logger
	}
}

// WithLocation sets the timezone used to resolve date ranges
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *ReportService) {
		s.location = loc
	}
}

// WithDefaultCoin sets the coin label for documents without one
func WithDefaultCoin(coin string) ServiceOption {
	return func(s *ReportService) {
		s.defaultCoin = coin
	}
}

// WithPageSize sets the page size for catalogs and requests that set none
func WithPageSize(size int) ServiceOption {
	return func(s *ReportService) {
		s.pageSize = size
	}
}

// WithCostResolver replaces the default cost resolver
func WithCostResolver(r *CostResolver) ServiceOption {
	return func(s *ReportService) {
		s.resolver = r
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ReportService) {
		s.now = now
	}
}

// WithMetrics records run counters and durations
func WithMetrics(m *telemetry.ReportMetrics) ServiceOption {
	return func(s *ReportService) {
		s.metrics = m
	}
}

// ReportService assembles sales reports: catalogs, variant costs, documents
// and enrichment, in that order. One BuildReport call never runs requests in
// parallel.
type ReportService struct {
	source      sales.SalesSource
	loader      *CatalogLoader
	resolver    *CostResolver
	enricher    *Enricher
	validate    *validator.Validate
	location    *time.Location
	defaultCoin string
	pageSize    int
	logger      *zap.Logger
	metrics     *telemetry.ReportMetrics
	now         func() time.Time
}

// NewReportService creates a service reading from source and caching
// catalogs in store
func NewReportService(source sales.SalesSource, store sales.SnapshotStore, opts ...ServiceOption) *ReportService {
	s := &ReportService{
		source:   source,
		validate: validator.New(),
		location: time.UTC,
		pageSize: DefaultPageSize,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		s.resolver = NewCostResolver()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	s.enricher = NewEnricher(s.defaultCoin, WithDateLocation(s.location))
	s.loader = NewCatalogLoader(source, NewCatalogCache(store, s.logger), s.pageSize, s.logger)
	return s
}

// InvalidateCatalogs drops every catalog snapshot
func (s *ReportService) InvalidateCatalogs(ctx context.Context) error {
	return s.loader.Invalidate(ctx)
}

// BuildReport runs the pipeline for req. On any fatal error no result is
// returned.
func (s *ReportService) BuildReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	rng, err := NewDateRange(req.Since, req.Until, s.location)
	if err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = s.pageSize
	}

	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()))

	ctx, span := telemetry.StartServiceSpan(ctx, "sales_report", "build",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, runID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSince, req.Since),
		telemetry.WithAttribute(telemetry.SpanAttrUntil, req.Until),
		telemetry.WithAttribute(telemetry.SpanAttrPageSize, pageSize),
	)
	defer span.End()

	started := s.now()
	logger.Info("building sales report",
		zap.String("since", req.Since),
		zap.String("until", req.Until),
		zap.Bool("bounded", rng.Bounded()),
		zap.Int("page_size", pageSize),
	)

	result, err := s.run(ctx, logger, req, rng, pageSize)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordFailure(ctx, s.now().Sub(started))
		logger.Error("sales report failed", zap.Error(err))
		return nil, err
	}
	result.RunID = runID
	result.GeneratedAt = started

	degraded := make([]string, 0, len(result.Degraded))
	for _, kind := range result.Degraded {
		degraded = append(degraded, string(kind))
	}
	elapsed := s.now().Sub(started)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocuments, result.DocumentCount,
		telemetry.SpanAttrRows, len(result.Rows),
		"duplicates_dropped", result.DuplicatesDropped,
	)
	if len(degraded) > 0 {
		telemetry.SetAttributes(span, telemetry.SpanAttrDegraded, strings.Join(degraded, ","))
	}
	s.metrics.RecordRun(ctx, result.DocumentCount, len(result.Rows), degraded, elapsed)

	logger.Info("sales report built",
		zap.Int("documents", result.DocumentCount),
		zap.Int("rows", len(result.Rows)),
		zap.Int("duplicates_dropped", result.DuplicatesDropped),
		zap.Strings("degraded", degraded),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *ReportService) run(ctx context.Context, logger *zap.Logger, req ReportRequest, rng DateRange, pageSize int) (*ReportResult, error) {
	if req.Refresh {
		if err := s.stage(ctx, "refresh_catalogs", func(ctx context.Context) error {
			return s.loader.Invalidate(ctx)
		}); err != nil {
			return nil, fmt.Errorf("refresh catalogs: %w", err)
		}
	}

	var (
		catalogs *sales.Catalogs
		degraded []sales.CatalogKind
	)
	if err := s.stage(ctx, "load_catalogs", func(ctx context.Context) error {
		var err error
		catalogs, degraded, err = s.loader.LoadCatalogs(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	var costs *sales.VariantCostIndex
	if err := s.stage(ctx, "build_cost_index", func(ctx context.Context) error {
		raws, variantsDegraded, err := s.loader.LoadVariants(ctx)
		if err != nil {
			return err
		}
		if variantsDegraded {
			degraded = append(degraded, sales.CatalogVariants)
		}
		var stats CostIndexStats
		costs, stats = s.resolver.BuildIndex(raws)
		logger.Info("variant cost index built",
			zap.Int("variants", stats.Variants),
			zap.Int("without_cost", stats.WithoutCost),
			zap.Int("skipped", stats.Skipped),
			zap.Any("by_field", stats.ByField),
		)
		return nil
	}); err != nil {
		return nil, err
	}

	var (
		docs       []sales.SalesDocument
		downgraded bool
	)
	if err := s.stage(ctx, "fetch_documents", func(ctx context.Context) error {
		var err error
		docs, downgraded, err = s.fetchDocuments(ctx, logger, rng, pageSize)
		return err
	}); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	docs, dropped := dedupeDocuments(docs)
	if dropped > 0 {
		logger.Warn("dropped duplicate documents returned across pages", zap.Int("duplicates", dropped))
	}

	if outside := countOutside(docs, rng); outside > 0 {
		logger.Warn("documents emitted outside the requested range", zap.Int("documents", outside))
	}

	rows := make([]sales.ReportRow, 0, len(docs))
	if err := s.stage(ctx, "enrich_documents", func(ctx context.Context) error {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows = append(rows, s.enricher.Enrich(doc, catalogs, costs)...)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("enrich documents: %w", err)
	}

	return &ReportResult{
		Range:             rng,
		Rows:              rows,
		DocumentCount:     len(docs),
		DuplicatesDropped: dropped,
		Degraded:          degraded,
		ExpandDowngraded:  downgraded,
	}, nil
}

// fetchDocuments requests documents, retrying once without the
// document_type expansion if the account rejects it
func (s *ReportService) fetchDocuments(ctx context.Context, logger *zap.Logger, rng DateRange, pageSize int) ([]sales.SalesDocument, bool, error) {
	negotiator := newExpandNegotiator()

	params := negotiator.params(rng)
	if rng.Bounded() {
		logger.Debug("documents filter", zap.String("emissiondaterange", params.Get("emissiondaterange")))
	}

	docs, err := s.source.FetchDocuments(ctx, params, pageSize)
	if err != nil && negotiator.downgrade(err) {
		logger.Warn("document_type expansion not supported, retrying without it", zap.Error(err))
		telemetry.AddEvent(trace.SpanFromContext(ctx), "expand_downgraded", "relation", "document_type")
		docs, err = s.source.FetchDocuments(ctx, negotiator.params(rng), pageSize)
	}
	if err != nil {
		return nil, negotiator.downgraded(), err
	}

	logger.Info("documents fetched", zap.Int("documents", len(docs)))
	return docs, negotiator.downgraded(), nil
}

// stage runs fn inside a child span named after the stage
func (s *ReportService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_report", name)
	defer span.End()

	if err := fn(ctx); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

func (s *ReportService) validateRequest(req ReportRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Field() == "PageSize" {
		return fmt.Errorf("%w: %v (must be between 1 and 50)", sales.ErrInvalidPageSize, fe.Value())
	}
	return fmt.Errorf("%w: %s %q (want YYYY-MM-DD)", sales.ErrInvalidDate, strings.ToLower(fe.Field()), fe.Value())
}

// countOutside counts dated documents whose emission date is not in rng
func countOutside(docs []sales.SalesDocument, rng DateRange) int {
	n := 0
	for _, doc := range docs {
		if !doc.EmissionDate.IsZero() && !rng.Contains(doc.EmissionDate) {
			n++
		}
	}
	return n
}

// dedupeDocuments keeps the first occurrence of each document id. Documents
// without an id are always kept.
func dedupeDocuments(docs []sales.SalesDocument) ([]sales.SalesDocument, int) {
	seen := make(map[int64]struct{}, len(docs))
	kept := make([]sales.SalesDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == 0 {
			kept = append(kept, doc)
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		kept = append(kept, doc)
	}
	return kept, len(docs) - len(kept)
}
