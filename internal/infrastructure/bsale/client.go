// Package bsale implements the sales.SalesSource port against the Bsale REST API.
package bsale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Client reads paginated collections from the Bsale API
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Bsale client with the given configuration
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, ErrConfigMissingToken
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("bsale")
	return c, nil
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

// FetchAll walks endpoint with limit/offset paging until a short or empty
// page. Any failed page aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values, pageSize int) ([]json.RawMessage, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", sales.ErrInvalidPageSize, pageSize, MaxPageSize)
	}

	var all []json.RawMessage
	for offset := 0; ; offset += pageSize {
		items, err := c.fetchPage(ctx, endpoint, params, pageSize, offset)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("page fetched",
			zap.String("endpoint", endpoint),
			zap.Int("offset", offset),
			zap.Int("items", len(items)),
		)

		all = append(all, items...)
		if len(items) < pageSize {
			break
		}
	}

	if all == nil {
		all = []json.RawMessage{}
	}
	return all, nil
}

// FetchDocuments fetches and decodes the documents collection
func (c *Client) FetchDocuments(ctx context.Context, params url.Values, pageSize int) ([]sales.SalesDocument, error) {
	raws, err := c.FetchAll(ctx, "documents", params, pageSize)
	if err != nil {
		return nil, err
	}

	if len(raws) > 0 {
		c.inspectDocument(raws[0])
	}

	docs := make([]sales.SalesDocument, 0, len(raws))
	for i, raw := range raws {
		var rec documentRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &APIError{
				Endpoint: "documents",
				Offset:   (i / pageSize) * pageSize,
				Body:     fmt.Sprintf("record %d: %v", i, err),
				Err:      sales.ErrMalformedResponse,
			}
		}
		docs = append(docs, rec.toDomain())
	}
	return docs, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, params url.Values, pageSize, offset int) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("offset", strconv.Itoa(offset))

	body, err := c.doRequest(ctx, endpoint, offset, query)
	if err != nil {
		return nil, err
	}

	items, err := decodePage(body)
	if err != nil {
		return nil, &APIError{
			Endpoint: endpoint,
			Offset:   offset,
			Body:     truncateBody(body),
			Err:      err,
		}
	}
	return items, nil
}

// doRequest performs one GET against {base}/{endpoint}.json
func (c *Client) doRequest(ctx context.Context, endpoint string, offset int, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s.json?%s", c.config.BaseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bsale: failed to create request: %w", err)
	}
	req.Header.Set("access_token", c.config.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &APIError{
			Endpoint: endpoint,
			Offset:   offset,
			Body:     err.Error(),
			Err:      sales.ErrTransient,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, &APIError{
			Endpoint:   endpoint,
			Offset:     offset,
			StatusCode: resp.StatusCode,
			Body:       err.Error(),
			Err:        sales.ErrTransient,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Endpoint:   endpoint,
			Offset:     offset,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
			Err:        classifyStatus(resp.StatusCode),
		}
		c.logger.Warn("request failed",
			zap.String("endpoint", endpoint),
			zap.Int("offset", offset),
			zap.Int("status", resp.StatusCode),
		)
		return nil, apiErr
	}

	return body, nil
}

// inspectDocument logs the shape of a raw document at debug level
func (c *Client) inspectDocument(raw json.RawMessage) {
	ce := c.logger.Check(zap.DebugLevel, "first document shape")
	if ce == nil {
		return
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw, &header); err != nil {
		return
	}

	keys := make([]string, 0, len(header))
	relations := make([]string, 0)
	for k, v := range header {
		keys = append(keys, k)
		if len(v) > 0 && v[0] == '{' {
			relations = append(relations, k)
		}
	}
	sort.Strings(keys)
	sort.Strings(relations)

	fields := []zap.Field{
		zap.Strings("keys", keys),
		zap.Strings("relations", relations),
	}

	var details struct {
		Items []map[string]json.RawMessage `json:"items"`
	}
	if d, ok := header["details"]; ok && json.Unmarshal(d, &details) == nil && len(details.Items) > 0 {
		itemKeys := make([]string, 0, len(details.Items[0]))
		for k := range details.Items[0] {
			itemKeys = append(itemKeys, k)
		}
		sort.Strings(itemKeys)
		fields = append(fields, zap.Strings("item_keys", itemKeys))

		var variant map[string]json.RawMessage
		if v, ok := details.Items[0]["variant"]; ok && json.Unmarshal(v, &variant) == nil {
			variantKeys := make([]string, 0, len(variant))
			for k := range variant {
				variantKeys = append(variantKeys, k)
			}
			sort.Strings(variantKeys)
			fields = append(fields, zap.Strings("variant_keys", variantKeys))
		}
	}

	ce.Write(fields...)
}

// Ensure Client implements SalesSource interface
var _ sales.SalesSource = (*Client)(nil)
