package bsale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// ---------------------------------------------------------------------------
// Flexible scalars
// ---------------------------------------------------------------------------

// flexInt64 accepts a JSON number, a numeric string or null. Unexpanded
// relations carry their id as a string.
type flexInt64 int64

// UnmarshalJSON implements json.Unmarshaler
func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		n = d.IntPart()
	}
	*f = flexInt64(n)
	return nil
}

// flexString accepts a JSON string, a number or null
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// ---------------------------------------------------------------------------
// Wire records
// ---------------------------------------------------------------------------

// refRecord is an expanded or unexpanded relation
type refRecord struct {
	ID   flexInt64 `json:"id"`
	Name string    `json:"name"`
}

// userRecord is the seller relation; some accounts omit name
type userRecord struct {
	ID        flexInt64 `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

type clientRecord struct {
	ID        flexInt64  `json:"id"`
	Code      flexString `json:"code"`
	Company   string     `json:"company"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
}

type coinRecord struct {
	ID   flexInt64 `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

type variantRecord struct {
	ID          flexInt64  `json:"id"`
	Code        flexString `json:"code"`
	Description string     `json:"description"`
}

type detailRecord struct {
	ID             flexInt64           `json:"id"`
	Quantity       decimal.Decimal     `json:"quantity"`
	NetUnitValue   decimal.Decimal     `json:"netUnitValue"`
	TotalUnitValue decimal.Decimal     `json:"totalUnitValue"`
	ListPrice      decimal.NullDecimal `json:"listPrice"`
	NetAmount      decimal.Decimal     `json:"netAmount"`
	TaxAmount      decimal.Decimal     `json:"taxAmount"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	TotalDiscount  decimal.Decimal     `json:"totalDiscount"`
	Variant        variantRecord       `json:"variant"`
}

type detailsRecord struct {
	Items []detailRecord `json:"items"`
}

// documentRecord mirrors the documents.json projection requested by the report
type documentRecord struct {
	ID                flexInt64       `json:"id"`
	Number            flexInt64       `json:"number"`
	EmissionDate      flexInt64       `json:"emissionDate"`
	DocumentTypeID    flexInt64       `json:"documentTypeId"`
	TrackingNumber    flexString      `json:"trackingNumber"`
	Token             flexString      `json:"token"`
	NetAmount         decimal.Decimal `json:"netAmount"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	TotalDiscount     decimal.Decimal `json:"totalDiscount"`
	DocumentType      *refRecord      `json:"document_type"`
	DocumentTypeCamel *refRecord      `json:"documentType"`
	Client            *clientRecord   `json:"client"`
	Office            *refRecord      `json:"office"`
	User              *userRecord     `json:"user"`
	Coin              *coinRecord     `json:"coin"`
	PriceList         *refRecord      `json:"priceList"`
	Details           *detailsRecord  `json:"details"`
}

// toDomain converts the wire record into a SalesDocument
func (r *documentRecord) toDomain() sales.SalesDocument {
	doc := sales.SalesDocument{
		ID:             int64(r.ID),
		Number:         int64(r.Number),
		TrackingNumber: strings.TrimSpace(string(r.TrackingNumber)),
		Token:          strings.TrimSpace(string(r.Token)),
		NetAmount:      r.NetAmount,
		TaxAmount:      r.TaxAmount,
		TotalAmount:    r.TotalAmount,
		TotalDiscount:  r.TotalDiscount,
		DocumentType:   sales.Ref{ID: int64(r.DocumentTypeID)},
	}
	if r.EmissionDate != 0 {
		doc.EmissionDate = time.Unix(int64(r.EmissionDate), 0).UTC()
	}

	for _, dt := range []*refRecord{r.DocumentType, r.DocumentTypeCamel} {
		if dt == nil {
			continue
		}
		if doc.DocumentType.ID == 0 {
			doc.DocumentType.ID = int64(dt.ID)
		}
		if doc.DocumentType.Name == "" {
			doc.DocumentType.Name = strings.TrimSpace(dt.Name)
		}
	}
	if r.Client != nil {
		doc.Client = sales.ClientRef{
			ID:        int64(r.Client.ID),
			Code:      strings.TrimSpace(string(r.Client.Code)),
			Company:   r.Client.Company,
			FirstName: r.Client.FirstName,
			LastName:  r.Client.LastName,
		}
	}
	if r.Office != nil {
		doc.Office = sales.Ref{ID: int64(r.Office.ID), Name: strings.TrimSpace(r.Office.Name)}
	}
	if r.User != nil {
		name := strings.TrimSpace(r.User.Name)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(r.User.FirstName) + " " + strings.TrimSpace(r.User.LastName))
		}
		doc.User = sales.Ref{ID: int64(r.User.ID), Name: name}
	}
	if r.Coin != nil {
		doc.Coin = sales.CoinRef{ID: int64(r.Coin.ID), Code: strings.TrimSpace(r.Coin.Code), Name: r.Coin.Name}
	}
	if r.PriceList != nil {
		doc.PriceList = sales.Ref{ID: int64(r.PriceList.ID), Name: strings.TrimSpace(r.PriceList.Name)}
	}
	if r.Details != nil {
		doc.Items = make([]sales.LineItem, 0, len(r.Details.Items))
		for _, d := range r.Details.Items {
			doc.Items = append(doc.Items, sales.LineItem{
				ID:             int64(d.ID),
				DocumentID:     doc.ID,
				Quantity:       d.Quantity,
				NetUnitValue:   d.NetUnitValue,
				TotalUnitValue: d.TotalUnitValue,
				ListPrice:      d.ListPrice,
				NetAmount:      d.NetAmount,
				TaxAmount:      d.TaxAmount,
				TotalAmount:    d.TotalAmount,
				TotalDiscount:  d.TotalDiscount,
				Variant: sales.VariantRef{
					ID:          int64(d.Variant.ID),
					Code:        strings.TrimSpace(string(d.Variant.Code)),
					Description: d.Variant.Description,
				},
			})
		}
	}
	return doc
}

// ---------------------------------------------------------------------------
// Page envelope
// ---------------------------------------------------------------------------

// decodePage extracts the records of one page. The API answers either with
// an object carrying "items" or with a bare array.
func decodePage(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", sales.ErrMalformedResponse)
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", sales.ErrMalformedResponse, err)
		}
		return items, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", sales.ErrMalformedResponse, err)
		}
		raw, ok := envelope["items"]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			return nil, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: items is not an array: %v", sales.ErrMalformedResponse, err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: unexpected payload shape", sales.ErrMalformedResponse)
	}
}
