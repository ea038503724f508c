package sales

import "github.com/shopspring/decimal"

// VariantCostIndex maps variants to their unit net cost. A secondary index by
// SKU covers variants whose id has no cost recorded. Missing variants cost 0.
type VariantCostIndex struct {
	byID  map[int64]decimal.Decimal
	bySKU map[string]decimal.Decimal
}

// NewVariantCostIndex creates an empty index
func NewVariantCostIndex() *VariantCostIndex {
	return &VariantCostIndex{
		byID:  make(map[int64]decimal.Decimal),
		bySKU: make(map[string]decimal.Decimal),
	}
}

// Add records the cost of a variant. The first non-zero cost seen for a SKU
// is kept.
func (x *VariantCostIndex) Add(variantID int64, sku string, cost decimal.Decimal) {
	if _, exists := x.byID[variantID]; !exists {
		x.byID[variantID] = cost
	}
	if sku == "" || cost.IsZero() {
		return
	}
	if _, exists := x.bySKU[sku]; !exists {
		x.bySKU[sku] = cost
	}
}

// Cost returns the unit cost by variant id, then by SKU when the id is
// missing or zero, then 0.
func (x *VariantCostIndex) Cost(variantID int64, sku string) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	if cost, ok := x.byID[variantID]; ok && !cost.IsZero() {
		return cost
	}
	if sku != "" {
		if cost, ok := x.bySKU[sku]; ok {
			return cost
		}
	}
	return decimal.Zero
}

// Len returns the number of indexed variants
func (x *VariantCostIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byID)
}
