package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// catalogSpec describes how one catalog is requested and decoded
type catalogSpec struct {
	kind sales.CatalogKind
	// fields is the projection sent as the fields parameter, empty for none
	fields string
	// optional catalogs degrade to empty when the account may not read them
	optional bool
	decode   func(record) (sales.CatalogEntry, bool)
}

var catalogSpecs = []catalogSpec{
	{kind: sales.CatalogDocumentTypes, fields: "[id,name]", optional: true, decode: decodeNamedEntry},
	{kind: sales.CatalogUsers, decode: decodeUserEntry},
	{kind: sales.CatalogPriceLists, fields: "[id,name]", decode: decodeNamedEntry},
	{kind: sales.CatalogOffices, fields: "[id,name]", decode: decodeNamedEntry},
}

var variantsSpec = catalogSpec{kind: sales.CatalogVariants, optional: true}

func decodeNamedEntry(r record) (sales.CatalogEntry, bool) {
	id, ok := r.int64Field("id")
	if !ok {
		return sales.CatalogEntry{}, false
	}
	return sales.CatalogEntry{
		ID:   id,
		Name: r.stringField("name"),
		Code: r.stringField("code"),
	}, true
}

// decodeUserEntry builds the seller name from firstName/lastName when the
// account does not expose name
func decodeUserEntry(r record) (sales.CatalogEntry, bool) {
	entry, ok := decodeNamedEntry(r)
	if !ok {
		return entry, false
	}
	if entry.Name == "" {
		entry.Name = strings.TrimSpace(r.stringField("firstName") + " " + r.stringField("lastName"))
	}
	return entry, true
}

// CatalogLoader fills catalogs through the CatalogCache
type CatalogLoader struct {
	source   sales.SalesSource
	cache    *CatalogCache
	pageSize int
	logger   *zap.Logger
}

// NewCatalogLoader creates a loader that fetches misses from source
func NewCatalogLoader(source sales.SalesSource, cache *CatalogCache, pageSize int, logger *zap.Logger) *CatalogLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogLoader{
		source:   source,
		cache:    cache,
		pageSize: pageSize,
		logger:   logger,
	}
}

// LoadCatalogs returns the document type, user, price list and office
// catalogs. The kinds that degraded to empty are returned alongside.
func (l *CatalogLoader) LoadCatalogs(ctx context.Context) (*sales.Catalogs, []sales.CatalogKind, error) {
	var (
		catalogs sales.Catalogs
		degraded []sales.CatalogKind
	)

	for _, spec := range catalogSpecs {
		raws, isDegraded, err := l.load(ctx, spec)
		if err != nil {
			return nil, nil, err
		}
		if isDegraded {
			degraded = append(degraded, spec.kind)
		}

		catalog := buildCatalog(spec, raws)
		switch spec.kind {
		case sales.CatalogDocumentTypes:
			catalogs.DocumentTypes = catalog
		case sales.CatalogUsers:
			catalogs.Users = catalog
		case sales.CatalogPriceLists:
			catalogs.PriceLists = catalog
		case sales.CatalogOffices:
			catalogs.Offices = catalog
		}
	}

	return &catalogs, degraded, nil
}

// LoadVariants returns the raw variant collection, or an empty one with
// degraded=true when the account may not read variants
func (l *CatalogLoader) LoadVariants(ctx context.Context) ([]json.RawMessage, bool, error) {
	return l.load(ctx, variantsSpec)
}

// Invalidate drops every catalog snapshot, including variants
func (l *CatalogLoader) Invalidate(ctx context.Context) error {
	names := make([]string, 0, len(catalogSpecs)+1)
	for _, spec := range catalogSpecs {
		names = append(names, spec.kind.String())
	}
	names = append(names, variantsSpec.kind.String())
	return l.cache.Invalidate(ctx, names...)
}

func (l *CatalogLoader) load(ctx context.Context, spec catalogSpec) ([]json.RawMessage, bool, error) {
	fetch := func(ctx context.Context) ([]json.RawMessage, error) {
		params := url.Values{}
		if spec.fields != "" {
			params.Set("fields", spec.fields)
		}
		return l.source.FetchAll(ctx, spec.kind.Endpoint(), params, l.pageSize)
	}

	raws, err := l.cache.GetOrLoad(ctx, spec.kind.String(), fetch)
	if err == nil {
		return raws, false, nil
	}
	if spec.optional && errors.Is(err, sales.ErrPermissionDenied) {
		l.logger.Warn("catalog not permitted for this account, continuing without it",
			zap.String("catalog", spec.kind.String()),
			zap.Error(err),
		)
		return []json.RawMessage{}, true, nil
	}
	return nil, false, fmt.Errorf("load catalog %s: %w", spec.kind, err)
}

// buildCatalog decodes raw records, skipping records without an id
func buildCatalog(spec catalogSpec, raws []json.RawMessage) sales.Catalog {
	entries := make([]sales.CatalogEntry, 0, len(raws))
	for _, raw := range raws {
		r, ok := decodeRecord(raw)
		if !ok {
			continue
		}
		entry, ok := spec.decode(r)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return sales.NewCatalog(spec.kind, entries)
}
