package bsale

import (
	"errors"
	"strings"
)

// Config holds configuration for the Bsale REST API
type Config struct {
	// BaseURL is the API root, e.g. https://api.bsale.io/v1
	BaseURL string
	// Token is the account access token sent in the access_token header
	Token string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// RequestsPerSecond paces page requests
	RequestsPerSecond float64
	// MaxResponseBytes caps the size of a single page body
	MaxResponseBytes int64
}

const (
	// ProductionAPIURL is the public Bsale API endpoint
	ProductionAPIURL = "https://api.bsale.io/v1"
	// MaxPageSize is the largest limit accepted by the API
	MaxPageSize = 50
	// DefaultPageSize is the page size used when none is given
	DefaultPageSize = 50

	defaultTimeoutSeconds    = 30
	defaultRequestsPerSecond = 5
	defaultMaxResponseBytes  = 10 * 1024 * 1024
)

// Errors for Bsale configuration
var (
	ErrConfigMissingToken = errors.New("bsale: access token is required")
	ErrConfigInvalidURL   = errors.New("bsale: base URL must start with http:// or https://")
)

// NewConfig creates a configuration with production defaults
func NewConfig(token string) *Config {
	return &Config{
		BaseURL:           ProductionAPIURL,
		Token:             token,
		TimeoutSeconds:    defaultTimeoutSeconds,
		RequestsPerSecond: defaultRequestsPerSecond,
		MaxResponseBytes:  defaultMaxResponseBytes,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrConfigMissingToken
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionAPIURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return ErrConfigInvalidURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}
