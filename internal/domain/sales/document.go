package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ref points at a catalog entry from a document. Name is only set when the
// relation was expanded by the API.
type Ref struct {
	ID   int64
	Name string
}

// IsZero reports whether the reference carries neither an id nor a name.
func (r Ref) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// ClientRef is the buyer attached to a document
type ClientRef struct {
	ID        int64
	Code      string // tax id (RUT)
	Company   string
	FirstName string
	LastName  string
}

// DisplayName returns the company name, falling back to the person's full name.
func (c ClientRef) DisplayName() string {
	if company := strings.TrimSpace(c.Company); company != "" {
		return company
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// CoinRef is the currency of a document
type CoinRef struct {
	ID   int64
	Code string
	Name string
}

// VariantRef identifies the sold product variant of a line item
type VariantRef struct {
	ID          int64
	Code        string // SKU
	Description string
}

// SalesDocument is an invoice, receipt or credit note as returned by the API.
// It is treated as immutable once decoded.
type SalesDocument struct {
	ID             int64
	Number         int64
	EmissionDate   time.Time
	DocumentType   Ref
	TrackingNumber string
	Token          string

	NetAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	TotalDiscount decimal.Decimal

	Client    ClientRef
	Office    Ref
	User      Ref
	Coin      CoinRef
	PriceList Ref

	// Items keeps the API order
	Items []LineItem
}

// LineItem is one detail line of a SalesDocument
type LineItem struct {
	ID         int64
	DocumentID int64

	Quantity       decimal.Decimal
	NetUnitValue   decimal.Decimal
	TotalUnitValue decimal.Decimal
	ListPrice      decimal.NullDecimal

	NetAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	TotalDiscount decimal.Decimal

	Variant VariantRef
}
