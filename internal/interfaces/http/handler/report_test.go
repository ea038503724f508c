package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegoaa53-dot/bsale-api/internal/application/report"
	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testRunID = uuid.MustParse("7b0c6a8e-8f55-4a55-9f0e-0d7d5e3f9a11")

type fakeBuilder struct {
	requests []report.ReportRequest
	err      error
}

func (f *fakeBuilder) BuildReport(_ context.Context, req report.ReportRequest) (*report.ReportResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	rng, err := report.NewDateRange(req.Since, req.Until, time.UTC)
	if err != nil {
		return nil, err
	}
	return &report.ReportResult{
		RunID: testRunID,
		Range: rng,
		Rows: []sales.ReportRow{{
			DocumentID:     10,
			DocumentNumber: 1001,
			DocumentType:   "BOLETA",
			SKU:            "A-1",
			Quantity:       decimal.NewFromInt(2),
			LineNet:        decimal.NewFromInt(2000),
		}},
		DocumentCount:     1,
		DuplicatesDropped: 1,
		Degraded:          []sales.CatalogKind{sales.CatalogVariants},
		GeneratedAt:       time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return key, nil
}

type fakeRuns struct {
	runs  map[uuid.UUID]*sales.ReportRun
	rows  map[uuid.UUID][]sales.ReportRow
	saved int
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{
		runs: make(map[uuid.UUID]*sales.ReportRun),
		rows: make(map[uuid.UUID][]sales.ReportRow),
	}
}

func (f *fakeRuns) SaveRun(_ context.Context, run *sales.ReportRun, rows []sales.ReportRow) error {
	f.saved++
	f.runs[run.ID] = run
	f.rows[run.ID] = rows
	return nil
}

func (f *fakeRuns) FindRun(_ context.Context, id uuid.UUID) (*sales.ReportRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, sales.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeRuns) ListRows(_ context.Context, id uuid.UUID) ([]sales.ReportRow, error) {
	return f.rows[id], nil
}

func serve(h *ReportHandler, req *http.Request) *httptest.ResponseRecorder {
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReportHandler_JSON(t *testing.T) {
	builder := &fakeBuilder{}
	h := NewReportHandler(builder)

	w := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales?since=2025-09-01&until=2025-09-30&page_size=25&refresh=true", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, builder.requests, 1)
	assert.Equal(t, report.ReportRequest{
		Since: "2025-09-01", Until: "2025-09-30", PageSize: 25, Refresh: true,
	}, builder.requests[0])

	resp := decode(t, w)
	assert.True(t, resp.Success)
	rows, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0].(map[string]any)["sku"])

	meta := resp.Meta.(map[string]any)
	assert.Equal(t, testRunID.String(), meta["run_id"])
	assert.Equal(t, float64(1), meta["documents"])
	assert.Equal(t, float64(1), meta["duplicates_dropped"])
	assert.Equal(t, []any{"variants"}, meta["degraded"])
}

func TestReportHandler_CSV(t *testing.T) {
	h := NewReportHandler(&fakeBuilder{})

	w := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales?since=2025-09-01&until=2025-09-30&format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="reporte_ventas_2025-09-01_2025-09-30.csv"`,
		w.Header().Get("Content-Disposition"))
	assert.Equal(t, testRunID.String(), w.Header().Get(HeaderRunID))
	assert.Equal(t, "variants", w.Header().Get(HeaderDegraded))
	assert.Contains(t, w.Body.String(), "A-1")
}

func TestReportHandler_DefaultFormat(t *testing.T) {
	h := NewReportHandler(&fakeBuilder{}, WithDefaultFormat("xlsx"))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="reporte_ventas_full_full.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestReportHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		code   string
	}{
		{"unknown format", "format=pdf", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"invalid date", "since=2025-13-01", fmt.Errorf("%w: since", sales.ErrInvalidDate), http.StatusBadRequest, dto.ErrCodeValidation},
		{"upstream down", "", fmt.Errorf("fetch documents: %w", sales.ErrTransient), http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable},
		{"bad token", "", sales.ErrAuthFailed, http.StatusBadGateway, dto.ErrCodeUpstreamAuth},
		{"unexpected", "", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReportHandler(&fakeBuilder{err: tt.err})
			w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?"+tt.query, nil))

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestReportHandler_Busy(t *testing.T) {
	builder := &fakeBuilder{}
	h := NewReportHandler(builder)
	h.slot <- struct{}{}

	start := time.Now()
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil))
	assert.Less(t, time.Since(start), time.Second, "a busy server answers without waiting")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeBusy, decode(t, w).Error.Code)
	assert.Empty(t, builder.requests)

	<-h.slot
	w = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil))
	assert.Equal(t, http.StatusOK, w.Code, "the slot is free again")
}

func TestReportHandler_Publish(t *testing.T) {
	archive := &fakeArchive{}
	runs := newFakeRuns()
	publisher := report.NewPublisher(
		report.WithArchive(archive, "reports"),
		report.WithRunRepository(runs),
	)
	h := NewReportHandler(&fakeBuilder{}, WithPublisher(publisher), WithRunReader(runs))

	w := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales?since=2025-09-01&until=2025-09-30&format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"reports/" + testRunID.String() + "/reporte_ventas_2025-09-01_2025-09-30.csv"}, archive.keys)
	assert.Equal(t, 1, runs.saved)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs/"+testRunID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, testRunID.String(), data["id"])
	assert.Equal(t, "reports/"+testRunID.String()+"/reporte_ventas_2025-09-01_2025-09-30.csv", data["archive_key"])
	assert.Len(t, data["rows"], 1)
}

func TestReportHandler_PublishJSONSkipsArchive(t *testing.T) {
	archive := &fakeArchive{}
	runs := newFakeRuns()
	h := NewReportHandler(&fakeBuilder{}, WithPublisher(report.NewPublisher(
		report.WithArchive(archive, ""),
		report.WithRunRepository(runs),
	)))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, archive.keys)
	assert.Equal(t, 1, runs.saved)
}

func TestReportHandler_PublishFailure(t *testing.T) {
	h := NewReportHandler(&fakeBuilder{}, WithPublisher(report.NewPublisher(
		report.WithArchive(&fakeArchive{err: errors.New("bucket gone")}, ""),
	)))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?format=csv", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w).Error.Message, "bucket gone")
}

func TestReportHandler_GetRun(t *testing.T) {
	h := NewReportHandler(&fakeBuilder{}, WithRunReader(newFakeRuns()))

	t.Run("invalid id", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown run", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)
	})

	t.Run("route absent without a reader", func(t *testing.T) {
		w := serve(NewReportHandler(&fakeBuilder{}),
			httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
