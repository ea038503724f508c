package sales

import "errors"

// ---------------------------------------------------------------------------
// Sales Reporting Errors
// ---------------------------------------------------------------------------

var (
	// Upstream API errors
	ErrAuthFailed        = errors.New("sales: upstream authentication failed")
	ErrPermissionDenied  = errors.New("sales: upstream permission denied")
	ErrTransient         = errors.New("sales: upstream temporarily unavailable")
	ErrRequestRejected   = errors.New("sales: upstream rejected the request")
	ErrMalformedResponse = errors.New("sales: malformed upstream response")

	// Local cache errors
	ErrCacheCorrupted = errors.New("sales: catalog snapshot corrupted")

	// Caller errors
	ErrInvalidPageSize  = errors.New("sales: invalid page size")
	ErrInvalidDateRange = errors.New("sales: invalid date range")
	ErrInvalidDate      = errors.New("sales: invalid date")

	// Persistence errors
	ErrRunNotFound = errors.New("sales: report run not found")
)
