package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentsPage = `{"items":[{
	"id": 101, "number": 5001, "emissionDate": 1756771200,
	"documentTypeId": 1,
	"netAmount": 8403, "taxAmount": 1597, "totalAmount": 10000, "totalDiscount": 0,
	"document_type": {"id": 1, "name": "BOLETA ELECTRONICA"},
	"office": {"id": 1}, "user": {"id": 7}, "priceList": {"id": 3},
	"client": {"id": 9, "code": "11111111-1", "company": "ACME"},
	"details": {"items": [{
		"id": 1, "quantity": 2, "netUnitValue": 4201.5, "totalUnitValue": 5000,
		"netAmount": 8403, "taxAmount": 1597, "totalAmount": 10000, "totalDiscount": 0,
		"variant": {"id": 55, "code": "SKU-55", "description": "Polera"}
	}]}
}]}`

func fakeBsale(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("offset") != "0":
			_, _ = w.Write([]byte(`{"items":[]}`))
		case strings.HasSuffix(r.URL.Path, "/documents.json"):
			_, _ = w.Write([]byte(documentsPage))
		case strings.HasSuffix(r.URL.Path, "/users.json"):
			_, _ = w.Write([]byte(`{"items":[{"id":7,"firstName":"Ana","lastName":"Rojas"}]}`))
		case strings.HasSuffix(r.URL.Path, "/offices.json"):
			_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"Casa Matriz"}]}`))
		case strings.HasSuffix(r.URL.Path, "/variants.json"):
			_, _ = w.Write([]byte(`{"items":[{"id":55,"code":"SKU-55","averageCost":1500}]}`))
		default:
			_, _ = w.Write([]byte(`{"items":[]}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("BSALE_API_TOKEN", "tok")
	t.Setenv("BSALE_API_BASE_URL", baseURL)
	t.Setenv("BSALE_CACHE_BACKEND", "memory")
	t.Setenv("BSALE_REPORT_TIMEZONE", "UTC")
	t.Setenv("BSALE_LOG_LEVEL", "error")
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{
		"-since", "2025-09-01", "-until", "2025-09-30", "-limit", "25",
		"-format", "xlsx", "-refresh", "-persist", "-debug",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "2025-09-01", o.since)
	assert.Equal(t, "2025-09-30", o.until)
	assert.Equal(t, 25, o.limit)
	assert.Equal(t, "xlsx", o.format)
	assert.True(t, o.refresh)
	assert.True(t, o.persist)
	assert.False(t, o.upload)
	assert.True(t, o.debug)

	_, err = parseFlags([]string{"extra"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_WritesCSV(t *testing.T) {
	setEnv(t, fakeBsale(t).URL)
	out := filepath.Join(t.TempDir(), "nested", "report.csv")

	code := run(context.Background(), []string{"-since", "2025-09-01", "-until", "2025-09-30", "-out", out}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Equal(t, 0, code)

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header plus one line item")
	assert.Contains(t, strings.Join(records[1], ","), "SKU-55")
	assert.Contains(t, strings.Join(records[1], ","), "Casa Matriz")
}

func TestRun_DefaultFileName(t *testing.T) {
	setEnv(t, fakeBsale(t).URL)
	dir := t.TempDir()
	t.Setenv("BSALE_REPORT_OUTPUT_DIR", dir)

	code := run(context.Background(), []string{"-since", "2025-09-01"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join(dir, "reporte_ventas_2025-09-01_full.csv"))
	assert.NoError(t, err)
}

func TestRun_Stdout(t *testing.T) {
	setEnv(t, fakeBsale(t).URL)
	var stdout bytes.Buffer

	code := run(context.Background(), []string{"-out", "-"}, &stdout, &bytes.Buffer{})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "SKU-55")
}

func TestRun_Failures(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		setEnv(t, fakeBsale(t).URL)
		code := run(context.Background(), []string{"-format", "pdf", "-out", "-"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Equal(t, 1, code)
	})

	t.Run("invalid date", func(t *testing.T) {
		setEnv(t, fakeBsale(t).URL)
		code := run(context.Background(), []string{"-since", "01-09-2025", "-out", "-"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Equal(t, 1, code)
	})

	t.Run("upstream rejects the token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(server.Close)
		setEnv(t, server.URL)

		code := run(context.Background(), []string{"-out", "-"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Equal(t, 1, code)
	})

	t.Run("bad flag", func(t *testing.T) {
		code := run(context.Background(), []string{"-nope"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Equal(t, 2, code)
	})
}
