package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // report timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Report    ReportConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Log       LogConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// APIConfig holds Bsale API access settings
type APIConfig struct {
	BaseURL           string
	Token             string
	TimeoutSeconds    int
	PageSize          int
	RequestsPerSecond float64
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	Timezone    string // IANA zone of date range bounds and printed emission dates
	DefaultCoin string // coin label when a document carries none
	OutputDir   string
	Format      string // csv, xlsx
}

// CacheConfig holds catalog snapshot settings
type CacheConfig struct {
	Backend   string // file, memory, redis
	Dir       string
	KeyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// StorageConfig holds S3-compatible archive settings
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	KeyPrefix    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	ReportTimeout  time.Duration // upper bound for one report request
	RateLimit      int           // report requests per minute per client, negative disables
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	MetricsEnabled    bool    // Export report metrics over OTLP
	LogsEnabled       bool    // Ship zap logs over OTLP
}

// Load loads configuration from config.toml and environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from the given TOML file, or from config.toml
// in the search paths when path is empty.
// Priority (highest to lowest):
// 1. Environment variables with BSALE_ prefix (e.g., BSALE_API_TOKEN)
// 2. The TOML file
// 3. Built-in defaults
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/bsale-report")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			// Config file not found is OK, we'll use defaults and env vars
		}
	}

	// Enable environment variable override
	v.SetEnvPrefix("BSALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for existing .env files
	_ = v.BindEnv("api.token", "BSALE_API_TOKEN", "BSALE_TOKEN")
	_ = v.BindEnv("api.base_url", "BSALE_API_BASE_URL", "BSALE_BASE_URL")

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		API: APIConfig{
			BaseURL:           v.GetString("api.base_url"),
			Token:             v.GetString("api.token"),
			TimeoutSeconds:    v.GetInt("api.timeout"),
			PageSize:          v.GetInt("api.page_size"),
			RequestsPerSecond: v.GetFloat64("api.requests_per_second"),
		},
		Report: ReportConfig{
			Timezone:    v.GetString("report.timezone"),
			DefaultCoin: v.GetString("report.default_coin"),
			OutputDir:   v.GetString("report.output_dir"),
			Format:      v.GetString("report.format"),
		},
		Cache: CacheConfig{
			Backend:   v.GetString("cache.backend"),
			Dir:       v.GetString("cache.dir"),
			KeyPrefix: v.GetString("cache.key_prefix"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			KeyPrefix:    v.GetString("storage.key_prefix"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			ReportTimeout:  v.GetDuration("http.report_timeout"),
			RateLimit:      v.GetInt("http.rate_limit"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bsale-report"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.bsale.io/v1"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = 50
	}
	if cfg.API.RequestsPerSecond == 0 {
		cfg.API.RequestsPerSecond = 5
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.DefaultCoin == "" {
		cfg.Report.DefaultCoin = "CLP"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "."
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "csv"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "cache_bsale"
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "salesreport:catalog:"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "reports/"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bsale_reports"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	// A full unbounded export can take minutes
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.ReportTimeout == 0 {
		cfg.HTTP.ReportTimeout = 9 * time.Minute
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 6
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "bsale-report"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (set BSALE_API_TOKEN or BSALE_TOKEN)")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.PageSize < 1 || c.API.PageSize > 50 {
		return fmt.Errorf("api.page_size must be between 1 and 50, got %d", c.API.PageSize)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second cannot be negative")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("report.timezone %q is not a valid IANA zone: %w", c.Report.Timezone, err)
	}
	switch c.Report.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("report.format must be csv or xlsx, got %q", c.Report.Format)
	}
	switch c.Cache.Backend {
	case "file", "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be file, memory or redis, got %q", c.Cache.Backend)
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Enabled && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.Enabled && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Location returns the report timezone. validate guarantees it resolves.
func (r ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
