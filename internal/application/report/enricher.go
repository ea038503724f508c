package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// DefaultCoin labels documents that carry no coin
const DefaultCoin = "CLP"

var (
	hundredth     = decimal.RequireFromString("0.01")
	warnTolerance = decimal.NewFromInt(1)
)

// Enricher flattens sales documents into report rows
type Enricher struct {
	defaultCoin string
	location    *time.Location
}

// EnricherOption is a functional option for configuring Enricher
type EnricherOption func(*Enricher)

// WithDateLocation sets the zone emission dates are expressed in. It must be
// the zone the date range filter is built in.
func WithDateLocation(loc *time.Location) EnricherOption {
	return func(e *Enricher) {
		if loc != nil {
			e.location = loc
		}
	}
}

// NewEnricher creates an enricher; an empty defaultCoin means DefaultCoin
func NewEnricher(defaultCoin string, opts ...EnricherOption) *Enricher {
	if defaultCoin == "" {
		defaultCoin = DefaultCoin
	}
	e := &Enricher{defaultCoin: defaultCoin, location: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns one row per line item of doc, in item order. References
// missing from the catalogs resolve to the unknown placeholder. Neither doc
// nor the catalogs are modified.
func (e *Enricher) Enrich(doc sales.SalesDocument, catalogs *sales.Catalogs, costs *sales.VariantCostIndex) []sales.ReportRow {
	if catalogs == nil {
		catalogs = &sales.Catalogs{}
	}

	base := e.documentFields(doc, catalogs)

	rows := make([]sales.ReportRow, 0, len(doc.Items))
	for _, item := range doc.Items {
		row := base
		fillLine(&row, item, costs)
		rows = append(rows, row)
	}
	return rows
}

// documentFields builds the part of the row shared by every line item
func (e *Enricher) documentFields(doc sales.SalesDocument, catalogs *sales.Catalogs) sales.ReportRow {
	coin := doc.Coin.Code
	if coin == "" {
		coin = e.defaultCoin
	}

	emitted := doc.EmissionDate
	if !emitted.IsZero() {
		emitted = emitted.In(e.location)
	}

	tracking := doc.TrackingNumber
	if tracking == "" {
		tracking = doc.Token
	}
	if tracking == "" && doc.ID != 0 {
		tracking = strconv.FormatInt(doc.ID, 10)
	}

	return sales.ReportRow{
		DocumentID:       doc.ID,
		DocumentNumber:   doc.Number,
		EmissionDate:     emitted,
		DocumentType:     catalogs.DocumentTypes.Resolve(doc.DocumentType).Name,
		TrackingNumber:   tracking,
		Office:           catalogs.Offices.Resolve(doc.Office).Name,
		Seller:           catalogs.Users.Resolve(doc.User).Name,
		ClientName:       doc.Client.DisplayName(),
		ClientCode:       doc.Client.Code,
		PriceList:        catalogs.PriceLists.Resolve(doc.PriceList).Name,
		Coin:             coin,
		DocNetAmount:     doc.NetAmount,
		DocTaxAmount:     doc.TaxAmount,
		DocTotalAmount:   doc.TotalAmount,
		DocTotalDiscount: doc.TotalDiscount,
	}
}

func fillLine(row *sales.ReportRow, item sales.LineItem, costs *sales.VariantCostIndex) {
	row.LineItemID = item.ID
	row.VariantID = item.Variant.ID
	row.SKU = item.Variant.Code
	row.Product = item.Variant.Description

	row.NetUnitPrice = item.NetUnitValue
	row.GrossUnitPrice = item.TotalUnitValue
	row.ListPrice = item.TotalUnitValue
	if item.ListPrice.Valid {
		row.ListPrice = item.ListPrice.Decimal
	}
	row.Quantity = item.Quantity
	row.LineNet = item.NetAmount
	row.LineTax = item.TaxAmount
	row.LineGross = item.TotalAmount
	row.LineDiscount = item.TotalDiscount

	discountBase := item.TotalAmount.Add(item.TotalDiscount)
	row.DiscountPct = decimal.Zero
	if discountBase.IsPositive() {
		row.DiscountPct = item.TotalDiscount.Div(discountBase)
	}

	row.UnitCost = costs.Cost(item.Variant.ID, item.Variant.Code)
	row.TotalCost = row.UnitCost.Mul(item.Quantity)
	row.Margin = item.NetAmount.Sub(row.TotalCost)
	row.MarginPct = decimal.Zero
	if item.NetAmount.IsPositive() {
		row.MarginPct = row.Margin.Div(item.NetAmount)
	}

	row.AmountWarning = amountMismatch(item)
}

// amountMismatch flags lines whose gross total differs from quantity times
// gross unit price by more than 1% plus one unit
func amountMismatch(item sales.LineItem) bool {
	expected := item.Quantity.Mul(item.TotalUnitValue)
	diff := item.TotalAmount.Sub(expected).Abs()
	tolerance := expected.Abs().Mul(hundredth).Add(warnTolerance)
	return diff.GreaterThan(tolerance)
}
