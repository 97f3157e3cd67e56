// Package catalog holds the fetched product set and derives the visible
// page of products from a filter/sort/pagination specification. All
// derivations are pure functions of the engine's current state.
package catalog

import "github.com/shopspring/decimal"

// CategoryAll matches every category.
const CategoryAll = "all"

// Product is the read-only catalog entry as supplied by the remote
// collaborator. Price is less than or equal to OriginalPrice whenever a
// discount is displayed.
type Product struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Stock         int             `json:"stock"`
	Rating        float64         `json:"rating"`
	Images        []string        `json:"images"`
	IsFeatured    bool            `json:"isFeatured"`
	InStock       bool            `json:"inStock"`
}

// Image returns the product's primary image reference, or "" when the
// product carries no imagery.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// SortKey selects the active product ordering.
type SortKey string

const (
	// SortFeatured groups featured items first, otherwise preserving
	// fetch order.
	SortFeatured SortKey = "featured"

	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortNameAsc    SortKey = "name-asc"
	SortNameDesc   SortKey = "name-desc"
	SortRatingDesc SortKey = "rating-desc"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRatingDesc:
		return true
	}
	return false
}
