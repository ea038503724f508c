// Package dto holds the JSON envelopes of the HTTP API.
package dto

import (
	"time"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    any        `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportMeta describes how a report was built
type ReportMeta struct {
	RunID             string    `json:"run_id"`
	Since             string    `json:"since,omitempty"`
	Until             string    `json:"until,omitempty"`
	Documents         int       `json:"documents"`
	Rows              int       `json:"rows"`
	DuplicatesDropped int       `json:"duplicates_dropped"`
	Degraded          []string  `json:"degraded"`
	ExpandDowngraded  bool      `json:"expand_downgraded"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// RunResponse is a persisted run with its rows
type RunResponse struct {
	ID                string            `json:"id"`
	Since             string            `json:"since,omitempty"`
	Until             string            `json:"until,omitempty"`
	DocumentCount     int               `json:"document_count"`
	RowCount          int               `json:"row_count"`
	DuplicatesDropped int               `json:"duplicates_dropped"`
	Degraded          []string          `json:"degraded"`
	ArchiveKey        string            `json:"archive_key,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Rows              []sales.ReportRow `json:"rows"`
}

// NewRunResponse converts a stored run
func NewRunResponse(run *sales.ReportRun, rows []sales.ReportRow) RunResponse {
	if rows == nil {
		rows = []sales.ReportRow{}
	}
	return RunResponse{
		ID:                run.ID.String(),
		Since:             run.Since,
		Until:             run.Until,
		DocumentCount:     run.DocumentCount,
		RowCount:          run.RowCount,
		DuplicatesDropped: run.DuplicatesDropped,
		Degraded:          CatalogNames(run.Degraded),
		ArchiveKey:        run.ArchiveKey,
		CreatedAt:         run.CreatedAt,
		Rows:              rows,
	}
}

// CatalogNames converts catalog kinds to their names; never nil
func CatalogNames(kinds []sales.CatalogKind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response carrying meta
func NewSuccessResponseWithMeta(data, meta any) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
