package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/persistence/models"
)

// DefaultRowBatchSize is the number of rows per INSERT when saving a run
const DefaultRowBatchSize = 500

// GormReportRunRepository implements sales.ReportRunRepository using GORM
type GormReportRunRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormReportRunRepository creates a new GormReportRunRepository
func NewGormReportRunRepository(db *gorm.DB) *GormReportRunRepository {
	return &GormReportRunRepository{db: db, batchSize: DefaultRowBatchSize}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormReportRunRepository) WithTx(tx *gorm.DB) *GormReportRunRepository {
	return &GormReportRunRepository{db: tx, batchSize: r.batchSize}
}

// WithBatchSize returns a copy inserting size rows per statement
func (r *GormReportRunRepository) WithBatchSize(size int) *GormReportRunRepository {
	if size < 1 {
		size = DefaultRowBatchSize
	}
	return &GormReportRunRepository{db: r.db, batchSize: size}
}

// AutoMigrate creates or updates the report tables
func (r *GormReportRunRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.ReportRunModel{}, &models.ReportRowModel{}); err != nil {
		return fmt.Errorf("migrate report tables: %w", err)
	}
	return nil
}

// SaveRun stores the run and its rows in one transaction
func (r *GormReportRunRepository) SaveRun(ctx context.Context, run *sales.ReportRun, rows []sales.ReportRow) error {
	if run == nil {
		return errors.New("persistence: report run is nil")
	}
	if run.ID == uuid.Nil {
		return errors.New("persistence: report run has no id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ReportRunModelFromDomain(run)).Error; err != nil {
			return fmt.Errorf("insert report run: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		rowModels := models.ReportRowModelsFromDomain(run.ID, rows)
		if err := tx.CreateInBatches(rowModels, r.batchSize).Error; err != nil {
			return fmt.Errorf("insert report rows: %w", err)
		}
		return nil
	})
}

// FindRun finds a run by its ID
func (r *GormReportRunRepository) FindRun(ctx context.Context, id uuid.UUID) (*sales.ReportRun, error) {
	var model models.ReportRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRows returns the rows of a run in the order they were produced. An
// unknown run has no rows.
func (r *GormReportRunRepository) ListRows(ctx context.Context, runID uuid.UUID) ([]sales.ReportRow, error) {
	var rowModels []models.ReportRowModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("seq ASC").
		Find(&rowModels).Error; err != nil {
		return nil, err
	}

	rows := make([]sales.ReportRow, len(rowModels))
	for i := range rowModels {
		rows[i] = rowModels[i].ToDomain()
	}
	return rows, nil
}

// ListRuns returns the most recent runs, newest first
func (r *GormReportRunRepository) ListRuns(ctx context.Context, limit int) ([]sales.ReportRun, error) {
	if limit < 1 {
		limit = 20
	}
	var runModels []models.ReportRunModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]sales.ReportRun, len(runModels))
	for i := range runModels {
		runs[i] = *runModels[i].ToDomain()
	}
	return runs, nil
}

// Ensure GormReportRunRepository implements ReportRunRepository interface
var _ sales.ReportRunRepository = (*GormReportRunRepository)(nil)
