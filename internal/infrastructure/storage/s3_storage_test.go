package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
)

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Bucket:       "reports",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Region:       "us-east-1",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
}

// fakeS3 records PUT requests and answers HEAD for stored keys
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[r.URL.Path] = body
			f.types[r.URL.Path] = r.Header.Get("Content-Type")
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			if _, ok := f.objects[r.URL.Path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func TestNewS3ReportStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ReportStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Bucket = ""
		_, err := NewS3ReportStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := testConfig("")
		cfg.AccessKey = ""
		_, err := NewS3ReportStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := testConfig("")
		cfg.SecretKey = ""
		_, err := NewS3ReportStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		storage, err := NewS3ReportStorage(testConfig("http://localhost:9000"), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "reports", storage.GetBucket())
		assert.Equal(t, DefaultPresignExpiration, storage.presignExpiration)
	})

	t.Run("custom presign expiration", func(t *testing.T) {
		storage, err := NewS3ReportStorage(testConfig(""), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, storage.presignExpiration)
	})
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, ""},
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := resolveEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.endpoint)
	}
}

func TestS3ReportStorage_Upload(t *testing.T) {
	fake, srv := newFakeS3(t)
	storage, err := NewS3ReportStorage(testConfig(srv.URL))
	require.NoError(t, err)

	ctx := context.Background()
	key, err := storage.Upload(ctx, "reports/run-1/reporte.csv", "text/csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "reports/run-1/reporte.csv", key)

	fake.mu.Lock()
	assert.Equal(t, "a,b\n1,2\n", string(fake.objects["/reports/reports/run-1/reporte.csv"]))
	assert.Equal(t, "text/csv", fake.types["/reports/reports/run-1/reporte.csv"])
	fake.mu.Unlock()

	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.ObjectExists(ctx, "reports/missing.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3ReportStorage_EmptyKey(t *testing.T) {
	storage, err := NewS3ReportStorage(testConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.Upload(ctx, "", "text/csv", nil)
	assert.Error(t, err)

	_, err = storage.ObjectExists(ctx, "")
	assert.Error(t, err)

	_, _, err = storage.GenerateDownloadURL(ctx, "", 0)
	assert.Error(t, err)
}

func TestS3ReportStorage_GenerateDownloadURL(t *testing.T) {
	storage, err := NewS3ReportStorage(testConfig("http://localhost:9000"))
	require.NoError(t, err)

	url, expiresAt, err := storage.GenerateDownloadURL(context.Background(), "reports/run-1/reporte.csv", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/reports/reports/run-1/reporte.csv"))
	assert.Contains(t, url, "X-Amz-Signature")
	assert.WithinDuration(t, time.Now().Add(DefaultPresignExpiration), expiresAt, 5*time.Second)
}
