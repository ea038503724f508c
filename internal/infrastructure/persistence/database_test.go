package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/telemetry"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

// newSQLiteDatabase opens an in-memory database on a single connection
func newSQLiteDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	t.Helper()
	opts = append([]DatabaseOption{WithSQLite(":memory:")}, opts...)
	db, err := NewDatabase(&config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite and pings", func(t *testing.T) {
		db := newSQLiteDatabase(t)
		require.NoError(t, db.Ping())

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("routes gorm logs through zap", func(t *testing.T) {
		db := newSQLiteDatabase(t, WithLogger(zaptest.NewLogger(t), gormlogger.Info))
		assert.NotNil(t, db.DB.Logger)
		require.NoError(t, db.ReportRuns().AutoMigrate(t.Context()))
	})

	t.Run("registers tracing callbacks", func(t *testing.T) {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: true}, zap.NewNop())
		db := newSQLiteDatabase(t, WithTracing(plugin))
		assert.NotNil(t, db.DB.Callback().Query().Get("report_timing:after_query"))
	})

	t.Run("unreachable postgres fails", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    1,
			User:    "report",
			DBName:  "report",
			SSLMode: "disable",
		})
		require.Error(t, err)
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	require.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "report_rows" WHERE run_id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Exec(`DELETE FROM "report_rows" WHERE run_id = ?`, "run-1").Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
