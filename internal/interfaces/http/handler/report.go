package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/application/report"
	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/export"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/dto"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/router"
)

// FormatJSON answers with the rows in the JSON envelope
const FormatJSON = "json"

// Response headers describing a rendered report
const (
	HeaderRunID    = "X-Report-Run-ID"
	HeaderDegraded = "X-Report-Degraded"
)

// ReportBuilder builds one sales report
type ReportBuilder interface {
	BuildReport(ctx context.Context, req report.ReportRequest) (*report.ReportResult, error)
}

// RunReader reads persisted report runs
type RunReader interface {
	FindRun(ctx context.Context, id uuid.UUID) (*sales.ReportRun, error)
	ListRows(ctx context.Context, runID uuid.UUID) ([]sales.ReportRow, error)
}

// SalesReportQuery is the query string of GET /reports/sales
type SalesReportQuery struct {
	Since    string `form:"since"`
	Until    string `form:"until"`
	PageSize int    `form:"page_size"`
	Format   string `form:"format" binding:"omitempty,oneof=json csv xlsx"`
	Refresh  bool   `form:"refresh"`
}

// ReportOption is a functional option for configuring ReportHandler
type ReportOption func(*ReportHandler)

// WithPublisher archives and records every built report
func WithPublisher(p *report.Publisher) ReportOption {
	return func(h *ReportHandler) {
		h.publisher = p
	}
}

// WithRunReader enables GET /reports/runs/:id
func WithRunReader(r RunReader) ReportOption {
	return func(h *ReportHandler) {
		h.runs = r
	}
}

// WithDefaultFormat sets the format used when the query names none
func WithDefaultFormat(format string) ReportOption {
	return func(h *ReportHandler) {
		h.defaultFormat = format
	}
}

// ReportHandler serves sales reports. Builds are serialized: a request that
// arrives while another build runs is refused with 503.
type ReportHandler struct {
	BaseHandler
	builder       ReportBuilder
	publisher     *report.Publisher
	runs          RunReader
	defaultFormat string
	slot          chan struct{}
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(builder ReportBuilder, opts ...ReportOption) *ReportHandler {
	h := &ReportHandler{
		builder:       builder,
		defaultFormat: FormatJSON,
		slot:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := router.NewDomainGroup("reports", "/reports")
	reports.GET("/sales", h.GetSalesReport)
	if h.runs != nil {
		reports.GET("/runs/:id", h.GetRun)
	}
	reports.RegisterRoutes(rg)
}

// GetSalesReport builds a report for the requested range
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	var q SalesReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, fmt.Sprintf("invalid query: %v", err))
		return
	}
	format := strings.ToLower(q.Format)
	if format == "" {
		format = h.defaultFormat
	}

	ctx := c.Request.Context()
	select {
	case h.slot <- struct{}{}:
		defer func() { <-h.slot }()
	default:
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse(dto.ErrCodeBusy, "another report is being built, try again later"))
		return
	}

	result, err := h.builder.BuildReport(ctx, report.ReportRequest{
		Since:    q.Since,
		Until:    q.Until,
		PageSize: q.PageSize,
		Refresh:  q.Refresh,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	meta := dto.ReportMeta{
		RunID:             result.RunID.String(),
		Since:             result.Range.Since,
		Until:             result.Range.Until,
		Documents:         result.DocumentCount,
		Rows:              len(result.Rows),
		DuplicatesDropped: result.DuplicatesDropped,
		Degraded:          dto.CatalogNames(result.Degraded),
		ExpandDowngraded:  result.ExpandDowngraded,
		GeneratedAt:       result.GeneratedAt,
	}

	if format == FormatJSON {
		if err := h.publish(ctx, c, result, nil); err != nil {
			return
		}
		h.SuccessWithMeta(c, result.Rows, meta)
		return
	}

	writer, err := export.ForFormat(format)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := writer.Write(&buf, result.Rows); err != nil {
		h.Error(c, fmt.Errorf("render %s: %w", format, err))
		return
	}

	artifact := &report.Artifact{
		FileName:    result.Range.FileName(writer.Extension()),
		ContentType: writer.ContentType(),
		Body:        buf.Bytes(),
	}
	if err := h.publish(ctx, c, result, artifact); err != nil {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Header(HeaderRunID, meta.RunID)
	if len(meta.Degraded) > 0 {
		c.Header(HeaderDegraded, strings.Join(meta.Degraded, ","))
	}
	c.Data(http.StatusOK, artifact.ContentType, artifact.Body)
}

// publish hands the result to the publisher, writing the error response on
// failure
func (h *ReportHandler) publish(ctx context.Context, c *gin.Context, result *report.ReportResult, artifact *report.Artifact) error {
	if h.publisher == nil || !h.publisher.Enabled() {
		return nil
	}
	run, err := h.publisher.Publish(ctx, result, artifact)
	if err != nil {
		h.Error(c, err)
		return err
	}
	logger.GetGinLogger(c).Info("report published",
		zap.String("run_id", run.ID.String()),
		zap.String("archive_key", run.ArchiveKey),
	)
	return nil
}

// GetRun returns a persisted run with its rows
func (h *ReportHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid run id")
		return
	}

	ctx := c.Request.Context()
	run, err := h.runs.FindRun(ctx, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	rows, err := h.runs.ListRows(ctx, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, dto.NewRunResponse(run, rows))
}

var _ router.RouteRegistrar = (*ReportHandler)(nil)
