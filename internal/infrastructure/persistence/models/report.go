package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// ReportRunModel is the persistence model for one report run
type ReportRunModel struct {
	BaseModel
	Since             string     `gorm:"type:varchar(10)"`
	Until             string     `gorm:"type:varchar(10)"`
	RangeStart        *time.Time `gorm:"index"`
	RangeEnd          *time.Time
	DocumentCount     int    `gorm:"not null"`
	RowCount          int    `gorm:"not null"`
	DuplicatesDropped int    `gorm:"not null"`
	Degraded          string `gorm:"type:varchar(255)"`
	ArchiveKey        string `gorm:"type:varchar(512)"`
}

// TableName returns the table name for GORM
func (ReportRunModel) TableName() string {
	return "report_runs"
}

// ReportRunModelFromDomain converts a domain run to its model
func ReportRunModelFromDomain(run *sales.ReportRun) *ReportRunModel {
	degraded := make([]string, 0, len(run.Degraded))
	for _, kind := range run.Degraded {
		degraded = append(degraded, string(kind))
	}
	return &ReportRunModel{
		BaseModel: BaseModel{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
		},
		Since:             run.Since,
		Until:             run.Until,
		RangeStart:        run.RangeStart,
		RangeEnd:          run.RangeEnd,
		DocumentCount:     run.DocumentCount,
		RowCount:          run.RowCount,
		DuplicatesDropped: run.DuplicatesDropped,
		Degraded:          strings.Join(degraded, ","),
		ArchiveKey:        run.ArchiveKey,
	}
}

// ToDomain converts the model back to a domain run
func (m *ReportRunModel) ToDomain() *sales.ReportRun {
	var degraded []sales.CatalogKind
	if m.Degraded != "" {
		for _, name := range strings.Split(m.Degraded, ",") {
			degraded = append(degraded, sales.CatalogKind(name))
		}
	}
	return &sales.ReportRun{
		ID:                m.ID,
		Since:             m.Since,
		Until:             m.Until,
		RangeStart:        m.RangeStart,
		RangeEnd:          m.RangeEnd,
		DocumentCount:     m.DocumentCount,
		RowCount:          m.RowCount,
		DuplicatesDropped: m.DuplicatesDropped,
		Degraded:          degraded,
		ArchiveKey:        m.ArchiveKey,
		CreatedAt:         m.CreatedAt,
	}
}

// ReportRowModel is the persistence model for one report row. Seq keeps the
// order the rows were produced in.
type ReportRowModel struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	RunID uuid.UUID `gorm:"type:uuid;not null;index:idx_report_rows_run_seq,priority:1"`
	Seq   int       `gorm:"not null;index:idx_report_rows_run_seq,priority:2"`

	DocumentID       int64           `gorm:"not null;index"`
	DocumentNumber   int64           `gorm:"not null"`
	EmissionDate     time.Time       `gorm:"not null"`
	DocumentType     string          `gorm:"type:varchar(100)"`
	TrackingNumber   string          `gorm:"type:varchar(100)"`
	Office           string          `gorm:"type:varchar(200)"`
	Seller           string          `gorm:"type:varchar(200)"`
	ClientName       string          `gorm:"type:varchar(255)"`
	ClientCode       string          `gorm:"type:varchar(50)"`
	PriceList        string          `gorm:"type:varchar(200)"`
	Coin             string          `gorm:"type:varchar(20)"`
	DocNetAmount     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	DocTaxAmount     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	DocTotalAmount   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	DocTotalDiscount decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	LineItemID     int64           `gorm:"not null"`
	VariantID      int64           `gorm:"not null;index"`
	SKU            string          `gorm:"column:sku;type:varchar(100)"`
	Product        string          `gorm:"type:varchar(255)"`
	ListPrice      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	NetUnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	GrossUnitPrice decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Quantity       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineNet        decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineTax        decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineGross      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineDiscount   decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	DiscountPct   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	UnitCost      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TotalCost     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Margin        decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	MarginPct     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	AmountWarning bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReportRowModel) TableName() string {
	return "report_rows"
}

// ReportRowModelsFromDomain converts rows in order, numbering them from zero
func ReportRowModelsFromDomain(runID uuid.UUID, rows []sales.ReportRow) []ReportRowModel {
	out := make([]ReportRowModel, len(rows))
	for i, r := range rows {
		out[i] = ReportRowModel{
			RunID:            runID,
			Seq:              i,
			DocumentID:       r.DocumentID,
			DocumentNumber:   r.DocumentNumber,
			EmissionDate:     r.EmissionDate,
			DocumentType:     r.DocumentType,
			TrackingNumber:   r.TrackingNumber,
			Office:           r.Office,
			Seller:           r.Seller,
			ClientName:       r.ClientName,
			ClientCode:       r.ClientCode,
			PriceList:        r.PriceList,
			Coin:             r.Coin,
			DocNetAmount:     r.DocNetAmount,
			DocTaxAmount:     r.DocTaxAmount,
			DocTotalAmount:   r.DocTotalAmount,
			DocTotalDiscount: r.DocTotalDiscount,
			LineItemID:       r.LineItemID,
			VariantID:        r.VariantID,
			SKU:              r.SKU,
			Product:          r.Product,
			ListPrice:        r.ListPrice,
			NetUnitPrice:     r.NetUnitPrice,
			GrossUnitPrice:   r.GrossUnitPrice,
			Quantity:         r.Quantity,
			LineNet:          r.LineNet,
			LineTax:          r.LineTax,
			LineGross:        r.LineGross,
			LineDiscount:     r.LineDiscount,
			DiscountPct:      r.DiscountPct,
			UnitCost:         r.UnitCost,
			TotalCost:        r.TotalCost,
			Margin:           r.Margin,
			MarginPct:        r.MarginPct,
			AmountWarning:    r.AmountWarning,
		}
	}
	return out
}

// ToDomain converts the model back to a domain row
func (m *ReportRowModel) ToDomain() sales.ReportRow {
	return sales.ReportRow{
		DocumentID:       m.DocumentID,
		DocumentNumber:   m.DocumentNumber,
		EmissionDate:     m.EmissionDate,
		DocumentType:     m.DocumentType,
		TrackingNumber:   m.TrackingNumber,
		Office:           m.Office,
		Seller:           m.Seller,
		ClientName:       m.ClientName,
		ClientCode:       m.ClientCode,
		PriceList:        m.PriceList,
		Coin:             m.Coin,
		DocNetAmount:     m.DocNetAmount,
		DocTaxAmount:     m.DocTaxAmount,
		DocTotalAmount:   m.DocTotalAmount,
		DocTotalDiscount: m.DocTotalDiscount,
		LineItemID:       m.LineItemID,
		VariantID:        m.VariantID,
		SKU:              m.SKU,
		Product:          m.Product,
		ListPrice:        m.ListPrice,
		NetUnitPrice:     m.NetUnitPrice,
		GrossUnitPrice:   m.GrossUnitPrice,
		Quantity:         m.Quantity,
		LineNet:          m.LineNet,
		LineTax:          m.LineTax,
		LineGross:        m.LineGross,
		LineDiscount:     m.LineDiscount,
		DiscountPct:      m.DiscountPct,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		Margin:           m.Margin,
		MarginPct:        m.MarginPct,
		AmountWarning:    m.AmountWarning,
	}
}
