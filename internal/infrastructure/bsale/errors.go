package bsale

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// maxErrorBodyLen bounds the response body kept on an APIError
const maxErrorBodyLen = 512

// APIError describes a failed page request. It unwraps to one of the sales
// sentinel errors so callers can branch with errors.Is.
type APIError struct {
	Endpoint   string
	Offset     int
	StatusCode int // 0 for network failures
	Body       string
	Err        error
}

// Error implements error
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: GET %s offset=%d", e.Err, e.Endpoint, e.Offset)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

// Unwrap returns the sentinel classification
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status to a sales sentinel
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return sales.ErrAuthFailed
	case status == http.StatusForbidden:
		return sales.ErrPermissionDenied
	case status == http.StatusTooManyRequests, status >= 500:
		return sales.ErrTransient
	default:
		return sales.ErrRequestRejected
	}
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen] + "..."
	}
	return s
}
