package report

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// CostExtractor reads one candidate cost field from a raw variant record.
// Extract reports false when the field is absent or null. A present value
// that is not numeric still decides, with a zero cost.
type CostExtractor struct {
	Name    string
	Extract func(r record) (decimal.Decimal, bool)
}

func fieldCost(name string) CostExtractor {
	return CostExtractor{
		Name: name,
		Extract: func(r record) (decimal.Decimal, bool) {
			return r.costField(name)
		},
	}
}

func nestedCost(parent, name string) CostExtractor {
	return CostExtractor{
		Name: parent + "." + name,
		Extract: func(r record) (decimal.Decimal, bool) {
			raw, ok := r[parent]
			if !ok || isNull(raw) {
				return decimal.Zero, false
			}
			nested, ok := decodeRecord(raw)
			if !ok {
				return decimal.Zero, false
			}
			return nested.costField(name)
		},
	}
}

// DefaultCostExtractors lists the cost fields accounts expose, in priority
// order. The first one present on a variant wins for that variant.
var DefaultCostExtractors = []CostExtractor{
	fieldCost("cost"),
	fieldCost("costPrice"),
	fieldCost("netCost"),
	fieldCost("lastPurchasePrice"),
	fieldCost("averageCost"),
	nestedCost("prices", "cost"),
	fieldCost("unitCost"),
	fieldCost("purchasePrice"),
}

// CostResolver builds variant cost indexes from raw variant collections
type CostResolver struct {
	extractors []CostExtractor
}

// NewCostResolver creates a resolver; with no extractors the defaults apply
func NewCostResolver(extractors ...CostExtractor) *CostResolver {
	if len(extractors) == 0 {
		extractors = DefaultCostExtractors
	}
	return &CostResolver{extractors: extractors}
}

// ResolveCost returns the unit cost of one variant record and the field it
// came from. A record with no usable candidate costs 0 with an empty field.
func (r *CostResolver) ResolveCost(raw json.RawMessage) (decimal.Decimal, string) {
	rec, ok := decodeRecord(raw)
	if !ok {
		return decimal.Zero, ""
	}
	return r.resolve(rec)
}

func (r *CostResolver) resolve(rec record) (decimal.Decimal, string) {
	for _, ex := range r.extractors {
		if cost, ok := ex.Extract(rec); ok {
			return cost, ex.Name
		}
	}
	return decimal.Zero, ""
}

// CostIndexStats summarizes how an index was built
type CostIndexStats struct {
	Variants int
	// ByField counts variants per winning field name
	ByField map[string]int
	// WithoutCost counts variants that fell back to 0
	WithoutCost int
	Skipped     int
}

// BuildIndex indexes every variant by id and SKU. Records that are not
// objects or carry neither id nor code are skipped.
func (r *CostResolver) BuildIndex(raws []json.RawMessage) (*sales.VariantCostIndex, CostIndexStats) {
	index := sales.NewVariantCostIndex()
	stats := CostIndexStats{ByField: make(map[string]int)}

	for _, raw := range raws {
		rec, ok := decodeRecord(raw)
		if !ok {
			stats.Skipped++
			continue
		}
		id, _ := rec.int64Field("id")
		sku := rec.stringField("code")
		if id == 0 && sku == "" {
			stats.Skipped++
			continue
		}

		cost, field := r.resolve(rec)
		if field == "" {
			stats.WithoutCost++
		} else {
			stats.ByField[field]++
		}
		stats.Variants++
		index.Add(id, sku, cost)
	}

	return index, stats
}

// BuildCostIndex builds an index with the default extractors
func BuildCostIndex(raws []json.RawMessage) *sales.VariantCostIndex {
	index, _ := NewCostResolver().BuildIndex(raws)
	return index
}
