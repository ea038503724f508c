package sales

import (
	"time"

	"github.com/google/uuid"
)

// ReportRun records one execution of the report pipeline
type ReportRun struct {
	ID                uuid.UUID
	Since             string
	Until             string
	RangeStart        *time.Time
	RangeEnd          *time.Time
	DocumentCount     int
	RowCount          int
	DuplicatesDropped int
	Degraded          []CatalogKind
	ArchiveKey        string
	CreatedAt         time.Time
}
