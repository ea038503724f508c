package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewReportMetrics_NilMeter(t *testing.T) {
	_, err := NewReportMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestReportMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rm, err := NewReportMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rm.RecordRun(ctx, 3, 7, []string{"variants"}, 2*time.Second)
	rm.RecordRun(ctx, 1, 2, nil, time.Second)
	rm.RecordFailure(ctx, 500*time.Millisecond)

	metrics := collect(t, reader)
	assert.Equal(t, int64(3), sumOf(t, metrics["bsale_report_runs_total"]))
	assert.Equal(t, int64(4), sumOf(t, metrics["bsale_report_documents_total"]))
	assert.Equal(t, int64(9), sumOf(t, metrics["bsale_report_rows_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["bsale_report_degraded_catalogs_total"]))

	hist, ok := metrics["bsale_report_run_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestReportMetrics_NilReceiver(t *testing.T) {
	var rm *ReportMetrics
	assert.NotPanics(t, func() {
		rm.RecordRun(context.Background(), 1, 1, nil, time.Second)
		rm.RecordFailure(context.Background(), time.Second)
	})
}
