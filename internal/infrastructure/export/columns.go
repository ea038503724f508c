package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Columns is the fixed header of every report, in output order
var Columns = []string{
	"Tipo de Documento",
	"Numero Documento",
	"Fecha de Emisión",
	"Tracking number",
	"Sucursal",
	"Vendedor",
	"Nombre Cliente",
	"Cliente RUT",
	"Lista de Precio",
	"Moneda",
	"SKU",
	"Producto / Servicio",
	"Precio de Lista",
	"Precio Neto Unitario",
	"Precio Bruto Unitario",
	"Cantidad",
	"Venta Total Neta",
	"Total Impuestos",
	"Venta Total Bruta",
	"Descuento Bruto",
	"% Descuento",
	"Costo neto unitario",
	"Costo Total Neto",
	"Margen",
	"% Margen",
	"_warn_monto",
}

// WarnMark fills the _warn_monto column of rows whose gross total does not
// match quantity times gross unit price
const WarnMark = "REVISA"

// DateLayout formats emission dates
const DateLayout = "02/01/2006"

const (
	amountPlaces = 2
	ratioPlaces  = 4
)

// cellKind tells writers how to render a value
type cellKind int

const (
	textCell cellKind = iota
	amountCell
	ratioCell
	quantityCell
)

type cell struct {
	kind cellKind
	text string
	num  decimal.Decimal
}

func text(s string) cell { return cell{kind: textCell, text: s} }
func amount(d decimal.Decimal) cell { return cell{kind: amountCell, num: d.Round(amountPlaces)} }
func ratio(d decimal.Decimal) cell { return cell{kind: ratioCell, num: d.Round(ratioPlaces)} }
func quantityValue(d decimal.Decimal) cell { return cell{kind: quantityCell, num: d} }

// String renders the cell as CSV text
func (c cell) String() string {
	switch c.kind {
	case amountCell:
		return c.num.StringFixed(amountPlaces)
	case ratioCell:
		return c.num.StringFixed(ratioPlaces)
	case quantityCell:
		return c.num.String()
	default:
		return c.text
	}
}

// rowCells lays out one report row in Columns order
func rowCells(row sales.ReportRow) []cell {
	number := ""
	if row.DocumentNumber != 0 {
		number = strconv.FormatInt(row.DocumentNumber, 10)
	}
	date := ""
	if !row.EmissionDate.IsZero() {
		date = row.EmissionDate.Format(DateLayout)
	}
	warn := ""
	if row.AmountWarning {
		warn = WarnMark
	}

	return []cell{
		text(row.DocumentType),
		text(number),
		text(date),
		text(row.TrackingNumber),
		text(row.Office),
		text(row.Seller),
		text(row.ClientName),
		text(row.ClientCode),
		text(row.PriceList),
		text(row.Coin),
		text(row.SKU),
		text(row.Product),
		amount(row.ListPrice),
		amount(row.NetUnitPrice),
		amount(row.GrossUnitPrice),
		quantityValue(row.Quantity),
		amount(row.LineNet),
		amount(row.LineTax),
		amount(row.LineGross),
		amount(row.LineDiscount),
		ratio(row.DiscountPct),
		amount(row.UnitCost),
		amount(row.TotalCost),
		amount(row.Margin),
		ratio(row.MarginPct),
		text(warn),
	}
}
