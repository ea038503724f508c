package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeBusy       = "ERR_BUSY"
	ErrCodeTimeout    = "ERR_TIMEOUT"
)

// Upstream error codes
const (
	ErrCodeUpstreamAuth        = "ERR_UPSTREAM_AUTH"
	ErrCodeUpstreamForbidden   = "ERR_UPSTREAM_FORBIDDEN"
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamRejected    = "ERR_UPSTREAM_REJECTED"
	ErrCodeUpstreamMalformed   = "ERR_UPSTREAM_MALFORMED"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{sales.ErrInvalidPageSize, http.StatusBadRequest, ErrCodeValidation},
	{sales.ErrInvalidDate, http.StatusBadRequest, ErrCodeValidation},
	{sales.ErrInvalidDateRange, http.StatusBadRequest, ErrCodeValidation},
	{sales.ErrRunNotFound, http.StatusNotFound, ErrCodeNotFound},
	{sales.ErrAuthFailed, http.StatusBadGateway, ErrCodeUpstreamAuth},
	{sales.ErrPermissionDenied, http.StatusBadGateway, ErrCodeUpstreamForbidden},
	{sales.ErrTransient, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable},
	{sales.ErrRequestRejected, http.StatusBadGateway, ErrCodeUpstreamRejected},
	{sales.ErrMalformedResponse, http.StatusBadGateway, ErrCodeUpstreamMalformed},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
}

// ErrorStatus maps err to an HTTP status and error code
func ErrorStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// NewErrorResponseFromError builds the status and envelope for err
func NewErrorResponseFromError(err error) (int, Response) {
	status, code := ErrorStatus(err)
	return status, NewErrorResponse(code, err.Error())
}
