package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics recorder is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Run outcomes recorded on bsale_report_runs_total
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// ReportMetrics records report pipeline activity
type ReportMetrics struct {
	runsTotal      *Counter
	documentsTotal *Counter
	rowsTotal      *Counter
	degradedTotal  *Counter
	runDuration    *Histogram
}

// NewReportMetrics creates the report instruments on meter
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		rm  = &ReportMetrics{}
		err error
	)
	if rm.runsTotal, err = NewCounter(meter,
		"bsale_report_runs_total",
		"Total number of report runs by outcome",
		"{runs}",
	); err != nil {
		return nil, err
	}
	if rm.documentsTotal, err = NewCounter(meter,
		"bsale_report_documents_total",
		"Total number of sales documents fetched",
		"{documents}",
	); err != nil {
		return nil, err
	}
	if rm.rowsTotal, err = NewCounter(meter,
		"bsale_report_rows_total",
		"Total number of report rows produced",
		"{rows}",
	); err != nil {
		return nil, err
	}
	if rm.degradedTotal, err = NewCounter(meter,
		"bsale_report_degraded_catalogs_total",
		"Optional catalogs that could not be read",
		"{catalogs}",
	); err != nil {
		return nil, err
	}
	if rm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "bsale_report_run_duration_seconds",
		Description: "Duration of report runs",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return rm, nil
}

// RecordRun records a successful run
func (m *ReportMetrics) RecordRun(ctx context.Context, documents, rows int, degraded []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.Inc(ctx, AttrStatus.String(RunStatusSuccess))
	m.documentsTotal.Add(ctx, int64(documents))
	m.rowsTotal.Add(ctx, int64(rows))
	for _, name := range degraded {
		m.degradedTotal.Inc(ctx, AttrCatalog.String(name))
	}
	m.runDuration.RecordDuration(ctx, elapsed, AttrStatus.String(RunStatusSuccess))
}

// RecordFailure records a failed run
func (m *ReportMetrics) RecordFailure(ctx context.Context, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrStatus.String(RunStatusFailed)}
	m.runsTotal.Inc(ctx, attrs...)
	m.runDuration.RecordDuration(ctx, elapsed, attrs...)
}
