package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogKind_IsValid(t *testing.T) {
	for _, kind := range AllCatalogKinds() {
		assert.True(t, kind.IsValid(), kind.String())
		assert.Equal(t, string(kind), kind.Endpoint())
	}
	assert.False(t, CatalogKind("clients").IsValid())
}

func TestNewCatalog(t *testing.T) {
	c := NewCatalog(CatalogOffices, []CatalogEntry{
		{ID: 2, Name: "Casa Matriz"},
		{ID: 1, Name: "Sucursal Norte"},
		{ID: 2, Name: "Duplicate"},
	})

	assert.Equal(t, CatalogOffices, c.Kind())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []int64{1, 2}, c.IDs())

	e, ok := c.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, "Casa Matriz", e.Name)

	_, ok = c.Lookup(99)
	assert.False(t, ok)
}

func TestCatalog_Resolve(t *testing.T) {
	c := NewCatalog(CatalogOffices, []CatalogEntry{
		{ID: 1, Name: "Casa Matriz"},
		{ID: 3, Name: ""},
	})

	tests := []struct {
		name string
		ref  Ref
		want CatalogEntry
	}{
		{
			name: "expanded name wins over catalog entry",
			ref:  Ref{ID: 1, Name: "Casa Matriz Santiago"},
			want: CatalogEntry{ID: 1, Name: "Casa Matriz Santiago"},
		},
		{
			name: "catalog entry used when expanded name is blank",
			ref:  Ref{ID: 1, Name: "  "},
			want: CatalogEntry{ID: 1, Name: "Casa Matriz"},
		},
		{
			name: "expanded name used when id missing from catalog",
			ref:  Ref{ID: 7, Name: "Tienda Web"},
			want: CatalogEntry{ID: 7, Name: "Tienda Web"},
		},
		{
			name: "blank catalog name falls through to expanded name",
			ref:  Ref{ID: 3, Name: "Bodega"},
			want: CatalogEntry{ID: 3, Name: "Bodega"},
		},
		{
			name: "unknown placeholder when nothing resolves",
			ref:  Ref{ID: 42},
			want: UnknownEntry(42),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.ref))
		})
	}
}

func TestCatalog_ZeroValue(t *testing.T) {
	var c Catalog
	assert.Equal(t, 0, c.Len())
	got := c.Resolve(Ref{ID: 5})
	assert.True(t, got.IsUnknown())
	assert.Equal(t, int64(5), got.ID)
}

func TestClientRef_DisplayName(t *testing.T) {
	assert.Equal(t, "Comercial SpA", ClientRef{Company: " Comercial SpA ", FirstName: "Ana"}.DisplayName())
	assert.Equal(t, "Ana Rojas", ClientRef{FirstName: "Ana", LastName: "Rojas"}.DisplayName())
	assert.Equal(t, "Ana", ClientRef{FirstName: "Ana"}.DisplayName())
	assert.Equal(t, "", ClientRef{}.DisplayName())
}

func TestRef_IsZero(t *testing.T) {
	assert.True(t, Ref{}.IsZero())
	assert.False(t, Ref{ID: 1}.IsZero())
	assert.False(t, Ref{Name: "x"}.IsZero())
}
