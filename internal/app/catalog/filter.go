package catalog

import "github.com/shopspring/decimal"

// DefaultPerPage is the page window applied until the host overrides it.
const DefaultPerPage = 16

// defaultPriceCeiling mirrors the widest price band the storefront offers.
var defaultPriceCeiling = decimal.NewFromInt(1000)

// FilterSpec is the catalog query specification. PriceMin <= PriceMax is
// maintained by the engine's setters. The Sort field changes through
// SetSort only, so that sort changes never reset pagination.
type FilterSpec struct {
	Category  string
	PriceMin  decimal.Decimal
	PriceMax  decimal.Decimal
	MinRating float64
	Search    string
	Sort      SortKey
}

// DefaultFilter is the spec applied at startup and by ResetFilters.
func DefaultFilter() FilterSpec {
	return FilterSpec{
		Category: CategoryAll,
		PriceMin: decimal.Zero,
		PriceMax: defaultPriceCeiling,
		Sort:     SortFeatured,
	}
}

// Partial carries the filter fields to merge into the current spec. Nil
// fields are left untouched. Sort is deliberately absent: it is not a
// page-resetting filter field.
type Partial struct {
	Category  *string
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	MinRating *float64
	Search    *string
}

// Pagination is the page window over the filtered set. TotalItems is
// derived and exposed through the engine's reads.
type Pagination struct {
	CurrentPage int
	PerPage     int
	TotalItems  int
}
