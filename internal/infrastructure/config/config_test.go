package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"BSALE_API_TOKEN",
	"BSALE_TOKEN",
	"BSALE_API_BASE_URL",
	"BSALE_BASE_URL",
	"BSALE_API_PAGE_SIZE",
	"BSALE_APP_ENV",
	"BSALE_REPORT_TIMEZONE",
	"BSALE_REPORT_FORMAT",
	"BSALE_CACHE_BACKEND",
	"BSALE_CACHE_DIR",
	"BSALE_DATABASE_ENABLED",
	"BSALE_DATABASE_PASSWORD",
	"BSALE_DATABASE_SSLMODE",
	"BSALE_DATABASE_MAX_OPEN_CONNS",
	"BSALE_DATABASE_MAX_IDLE_CONNS",
	"BSALE_STORAGE_ENABLED",
	"BSALE_STORAGE_BUCKET",
	"BSALE_TELEMETRY_SAMPLING_RATIO",
}

// isolateEnv saves the managed variables, clears them and restores them on cleanup
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(managedEnv))
	for _, k := range managedEnv {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when only the token is set", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bsale-report", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "tok", cfg.API.Token)
		assert.Equal(t, "https://api.bsale.io/v1", cfg.API.BaseURL)
		assert.Equal(t, 50, cfg.API.PageSize)
		assert.Equal(t, 30, cfg.API.TimeoutSeconds)
		assert.Equal(t, "UTC", cfg.Report.Timezone)
		assert.Equal(t, "CLP", cfg.Report.DefaultCoin)
		assert.Equal(t, "csv", cfg.Report.Format)
		assert.Equal(t, "file", cfg.Cache.Backend)
		assert.Equal(t, "cache_bsale", cfg.Cache.Dir)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.False(t, cfg.Database.Enabled)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 9*time.Minute, cfg.HTTP.ReportTimeout)
		assert.Equal(t, 6, cfg.HTTP.RateLimit)
	})

	t.Run("requires a token", func(t *testing.T) {
		isolateEnv(t)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.token is required")
	})

	t.Run("accepts the short env names", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_TOKEN", "short")
		os.Setenv("BSALE_BASE_URL", "https://sandbox.example.com/v1/")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "short", cfg.API.Token)
		assert.Equal(t, "https://sandbox.example.com/v1", cfg.API.BaseURL)
	})

	t.Run("long env names win over short ones", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "long")
		os.Setenv("BSALE_TOKEN", "short")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "long", cfg.API.Token)
	})

	t.Run("rejects page size above 50", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_API_PAGE_SIZE", "51")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.page_size")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_REPORT_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report.timezone")
	})

	t.Run("rejects unknown output format", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_REPORT_FORMAT", "pdf")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report.format")
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_DATABASE_MAX_OPEN_CONNS", "4")
		os.Setenv("BSALE_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("requires bucket when storage is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects sampling ratio outside 0..1", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password when persistence is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_APP_ENV", "production")
		os.Setenv("BSALE_DATABASE_ENABLED", "true")
		os.Setenv("BSALE_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL when persistence is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_APP_ENV", "production")
		os.Setenv("BSALE_DATABASE_ENABLED", "true")
		os.Setenv("BSALE_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("database rules do not apply when persistence is off", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("BSALE_API_TOKEN", "tok")
		os.Setenv("BSALE_APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads an explicit TOML file", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "report.toml")
		content := `
[api]
token = "from-file"
page_size = 25

[report]
timezone = "UTC"
format = "xlsx"

[cache]
backend = "memory"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.API.Token)
		assert.Equal(t, 25, cfg.API.PageSize)
		assert.Equal(t, "xlsx", cfg.Report.Format)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, "UTC", cfg.Report.Location().String())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "report.toml")
		require.NoError(t, os.WriteFile(path, []byte("[api]\ntoken = \"from-file\"\n"), 0o600))
		os.Setenv("BSALE_API_TOKEN", "from-env")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.API.Token)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		isolateEnv(t)

		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestReportConfig_Location(t *testing.T) {
	loc := ReportConfig{Timezone: "America/Santiago"}.Location()
	assert.Equal(t, "America/Santiago", loc.String())

	assert.Equal(t, "UTC", ReportConfig{Timezone: "Not/AZone"}.Location().String())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}
