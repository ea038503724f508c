// Package persistence stores report runs and their rows through GORM.
package persistence

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/telemetry"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	dialector gorm.Dialector
	logger    *zap.Logger
	logLevel  gormlogger.LogLevel
	tracing   *telemetry.DBTracingPlugin
}

// WithDialector replaces the postgres dialector built from the config
func WithDialector(d gorm.Dialector) DatabaseOption {
	return func(o *databaseOptions) {
		o.dialector = d
	}
}

// WithSQLite opens a SQLite database at path instead of postgres
func WithSQLite(path string) DatabaseOption {
	return WithDialector(sqlite.Open(path))
}

// WithLogger routes GORM logs through zap at the given level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithTracing registers the database tracing plugin
func WithTracing(p *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = p
	}
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := &databaseOptions{logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(o)
	}

	dialector := o.dialector
	if dialector == nil {
		dialector = postgres.Open(cfg.DSN())
	}

	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if o.logger != nil {
		gormLog = logger.NewGormLogger(o.logger, o.logLevel)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            dialector.Name() == "postgres",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if o.tracing != nil {
		if err := o.tracing.RegisterOtelGorm(db); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// ReportRuns returns the report run repository backed by this connection
func (d *Database) ReportRuns() *GormReportRunRepository {
	return NewGormReportRunRepository(d.DB)
}
