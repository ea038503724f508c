package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportRow is one line item flattened with its parent document and the
// resolved catalog attributes. Document-level fields repeat unchanged on every
// row of the same document. Amounts are unrounded; rounding happens on output.
type ReportRow struct {
	// Document fields
	DocumentID       int64           `json:"document_id"`
	DocumentNumber   int64           `json:"document_number"`
	EmissionDate     time.Time       `json:"emission_date"`
	DocumentType     string          `json:"document_type"`
	TrackingNumber   string          `json:"tracking_number"`
	Office           string          `json:"office"`
	Seller           string          `json:"seller"`
	ClientName       string          `json:"client_name"`
	ClientCode       string          `json:"client_code"`
	PriceList        string          `json:"price_list"`
	Coin             string          `json:"coin"`
	DocNetAmount     decimal.Decimal `json:"doc_net_amount"`
	DocTaxAmount     decimal.Decimal `json:"doc_tax_amount"`
	DocTotalAmount   decimal.Decimal `json:"doc_total_amount"`
	DocTotalDiscount decimal.Decimal `json:"doc_total_discount"`

	// Line fields
	LineItemID     int64           `json:"line_item_id"`
	VariantID      int64           `json:"variant_id"`
	SKU            string          `json:"sku"`
	Product        string          `json:"product"`
	ListPrice      decimal.Decimal `json:"list_price"`
	NetUnitPrice   decimal.Decimal `json:"net_unit_price"`
	GrossUnitPrice decimal.Decimal `json:"gross_unit_price"`
	Quantity       decimal.Decimal `json:"quantity"`
	LineNet        decimal.Decimal `json:"line_net"`
	LineTax        decimal.Decimal `json:"line_tax"`
	LineGross      decimal.Decimal `json:"line_gross"`
	LineDiscount   decimal.Decimal `json:"line_discount"`

	// Derived fields
	DiscountPct   decimal.Decimal `json:"discount_pct"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
	AmountWarning bool            `json:"amount_warning"`
}
