package sales

import (
	"sort"
	"strings"
)

// UnknownName is the label used when a referenced catalog entry cannot be resolved
const UnknownName = "unknown"

// ---------------------------------------------------------------------------
// CatalogKind identifies a cached reference collection
// ---------------------------------------------------------------------------

// CatalogKind identifies a reference collection served by the API
type CatalogKind string

const (
	// CatalogDocumentTypes lists invoice/receipt/credit-note kinds
	CatalogDocumentTypes CatalogKind = "document_types"
	// CatalogUsers lists sellers
	CatalogUsers CatalogKind = "users"
	// CatalogPriceLists lists price lists
	CatalogPriceLists CatalogKind = "price_lists"
	// CatalogOffices lists branches
	CatalogOffices CatalogKind = "offices"
	// CatalogVariants lists product variants with their costs
	CatalogVariants CatalogKind = "variants"
)

// AllCatalogKinds returns every cacheable catalog kind
func AllCatalogKinds() []CatalogKind {
	return []CatalogKind{
		CatalogDocumentTypes,
		CatalogUsers,
		CatalogPriceLists,
		CatalogOffices,
		CatalogVariants,
	}
}

// IsValid returns true if the kind is known
func (k CatalogKind) IsValid() bool {
	switch k {
	case CatalogDocumentTypes, CatalogUsers, CatalogPriceLists, CatalogOffices, CatalogVariants:
		return true
	default:
		return false
	}
}

// String returns the string representation of CatalogKind
func (k CatalogKind) String() string {
	return string(k)
}

// Endpoint returns the API resource name for the kind
func (k CatalogKind) Endpoint() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// CatalogEntry is a named reference record
type CatalogEntry struct {
	ID   int64
	Name string
	Code string
}

// UnknownEntry returns the placeholder used for unresolvable references
func UnknownEntry(id int64) CatalogEntry {
	return CatalogEntry{ID: id, Name: UnknownName}
}

// IsUnknown reports whether the entry is the unresolved placeholder
func (e CatalogEntry) IsUnknown() bool {
	return e.Name == UnknownName
}

// Catalog is a read-only index of entries keyed by id. The zero value is an
// empty catalog.
type Catalog struct {
	kind    CatalogKind
	entries map[int64]CatalogEntry
}

// NewCatalog builds a catalog; later duplicates of an id are ignored.
func NewCatalog(kind CatalogKind, entries []CatalogEntry) Catalog {
	m := make(map[int64]CatalogEntry, len(entries))
	for _, e := range entries {
		if _, exists := m[e.ID]; exists {
			continue
		}
		m[e.ID] = e
	}
	return Catalog{kind: kind, entries: m}
}

// Kind returns the catalog kind
func (c Catalog) Kind() CatalogKind {
	return c.kind
}

// Len returns the number of entries
func (c Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the entry for id
func (c Catalog) Lookup(id int64) (CatalogEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Resolve maps a document reference to a catalog entry. A name embedded by
// an expanded relation wins, the catalog is the fallback, and otherwise the
// unknown placeholder is returned.
func (c Catalog) Resolve(ref Ref) CatalogEntry {
	if name := strings.TrimSpace(ref.Name); name != "" {
		return CatalogEntry{ID: ref.ID, Name: name}
	}
	if e, ok := c.entries[ref.ID]; ok && e.Name != "" {
		return e
	}
	return UnknownEntry(ref.ID)
}

// IDs returns the entry ids in ascending order
func (c Catalog) IDs() []int64 {
	ids := make([]int64, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Catalogs groups the reference collections used to enrich documents
type Catalogs struct {
	DocumentTypes Catalog
	Users         Catalog
	PriceLists    Catalog
	Offices       Catalog
}
