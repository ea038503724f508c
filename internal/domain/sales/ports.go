package sales

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/google/uuid"
)

// SalesSource is the port to the remote commerce API
type SalesSource interface {
	// FetchAll returns every record of endpoint, page by page, in offset order
	FetchAll(ctx context.Context, endpoint string, params url.Values, pageSize int) ([]json.RawMessage, error)

	// FetchDocuments returns every sales document matching params
	FetchDocuments(ctx context.Context, params url.Values, pageSize int) ([]SalesDocument, error)
}

// SnapshotStore persists raw catalog snapshots by name
type SnapshotStore interface {
	// Load returns the snapshot and true, or false when none exists
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save writes the snapshot, replacing any previous one
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the snapshot; deleting a missing snapshot is not an error
	Delete(ctx context.Context, key string) error
}

// ReportRunRepository persists finished report runs with their rows
type ReportRunRepository interface {
	SaveRun(ctx context.Context, run *ReportRun, rows []ReportRow) error
	FindRun(ctx context.Context, id uuid.UUID) (*ReportRun, error)
	ListRows(ctx context.Context, runID uuid.UUID) ([]ReportRow, error)
}

// ReportArchive stores rendered report files
type ReportArchive interface {
	// Upload stores body under key and returns the stored object key
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}
