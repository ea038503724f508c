package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// fakeSource serves canned collections and documents and records calls
type fakeSource struct {
	mu          sync.Mutex
	collections map[string][]json.RawMessage
	errs        map[string]error
	calls       map[string]int
	params      map[string][]url.Values
	pageSizes   []int

	// documents answers FetchDocuments; call starts at 1
	documents func(params url.Values, call int) ([]sales.SalesDocument, error)
	docCalls  int
	docParams []url.Values
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		collections: make(map[string][]json.RawMessage),
		errs:        make(map[string]error),
		calls:       make(map[string]int),
		params:      make(map[string][]url.Values),
	}
}

func (f *fakeSource) FetchAll(_ context.Context, endpoint string, params url.Values, pageSize int) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[endpoint]++
	f.params[endpoint] = append(f.params[endpoint], params)
	f.pageSizes = append(f.pageSizes, pageSize)
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.collections[endpoint], nil
}

func (f *fakeSource) FetchDocuments(_ context.Context, params url.Values, _ int) ([]sales.SalesDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.docCalls++
	f.docParams = append(f.docParams, params)
	if f.documents == nil {
		return []sales.SalesDocument{}, nil
	}
	return f.documents(params, f.docCalls)
}

func (f *fakeSource) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// rawJSON marshals each value into a raw record
func rawJSON(t *testing.T, values ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

// apiError mimics an upstream failure as the bsale adapter reports it
func apiError(sentinel error, endpoint string, status int, body string) error {
	return fmt.Errorf("%w: GET %s offset=0: HTTP %d: %s", sentinel, endpoint, status, body)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleCatalogSource returns a source with small catalogs and variants
func sampleCatalogSource(t *testing.T) *fakeSource {
	t.Helper()
	src := newFakeSource()
	src.collections["document_types"] = rawJSON(t,
		map[string]any{"id": 1, "name": "FACTURA ELECTRÓNICA"},
		map[string]any{"id": 2, "name": "BOLETA ELECTRÓNICA"},
	)
	src.collections["users"] = rawJSON(t,
		map[string]any{"id": 7, "name": "Ana Pérez"},
		map[string]any{"id": 8, "firstName": "Luis", "lastName": "Soto"},
	)
	src.collections["price_lists"] = rawJSON(t,
		map[string]any{"id": 3, "name": "Lista Base"},
	)
	src.collections["offices"] = rawJSON(t,
		map[string]any{"id": 1, "name": "Casa Matriz"},
	)
	src.collections["variants"] = rawJSON(t,
		map[string]any{"id": 100, "code": "SKU-100", "description": "Polera", "costPrice": 10, "unitCost": 99},
		map[string]any{"id": 200, "code": "SKU-200", "description": "Gorro"},
	)
	return src
}

// sampleDocument has two line items and references office 1, user 7
func sampleDocument(id int64) sales.SalesDocument {
	return sales.SalesDocument{
		ID:             id,
		Number:         1000 + id,
		EmissionDate:   time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC),
		DocumentType:   sales.Ref{ID: 1},
		TrackingNumber: "",
		Token:          "tok-" + fmt.Sprint(id),
		NetAmount:      dec("30000"),
		TaxAmount:      dec("5700"),
		TotalAmount:    dec("35700"),
		TotalDiscount:  dec("0"),
		Client:         sales.ClientRef{ID: 9, Code: "76.123.456-7", Company: "Comercial Sur"},
		Office:         sales.Ref{ID: 1},
		User:           sales.Ref{ID: 7},
		Coin:           sales.CoinRef{ID: 1, Code: "CLP"},
		PriceList:      sales.Ref{ID: 3},
		Items: []sales.LineItem{
			{
				ID:             1,
				DocumentID:     id,
				Quantity:       dec("2"),
				NetUnitValue:   dec("10000"),
				TotalUnitValue: dec("11900"),
				NetAmount:      dec("20000"),
				TaxAmount:      dec("3800"),
				TotalAmount:    dec("23800"),
				TotalDiscount:  dec("0"),
				Variant:        sales.VariantRef{ID: 100, Code: "SKU-100", Description: "Polera"},
			},
			{
				ID:             2,
				DocumentID:     id,
				Quantity:       dec("1"),
				NetUnitValue:   dec("10000"),
				TotalUnitValue: dec("11900"),
				NetAmount:      dec("10000"),
				TaxAmount:      dec("1900"),
				TotalAmount:    dec("11900"),
				TotalDiscount:  dec("0"),
				Variant:        sales.VariantRef{ID: 200, Code: "SKU-200", Description: "Gorro"},
			},
		},
	}
}
