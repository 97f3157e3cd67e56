package catalog

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/murkotick/shophub-core/internal/pkg/emitter"
)

// ProductAPI is the remote collaborator the engine fetches products from.
type ProductAPI interface {
	GetProducts(ctx context.Context) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// Engine holds the full fetched product set plus the active FilterSpec and
// page window, and derives the visible page on demand. It owns no other
// state, so every read recomputes from the same inputs and is idempotent.
type Engine struct {
	api ProductAPI
	log *zap.Logger
	hub *emitter.Hub

	// collator provides locale-aware name comparison for the name sorts.
	collator *collate.Collator

	mu       sync.Mutex
	products []Product
	current  *Product
	filter   FilterSpec
	page     int
	perPage  int
	loading  bool
	err      error
}

// NewEngine creates an Engine with the default filter and page window.
func NewEngine(api ProductAPI, log *zap.Logger) *Engine {
	return &Engine{
		api:      api,
		log:      log,
		hub:      emitter.New(),
		collator: collate.New(language.English),
		filter:   DefaultFilter(),
		page:     1,
		perPage:  DefaultPerPage,
	}
}

// Subscribe registers a listener notified after every state change.
func (e *Engine) Subscribe(fn func()) func() { return e.hub.Subscribe(fn) }

// Load fetches the full product set from the remote collaborator.
func (e *Engine) Load(ctx context.Context) error {
	e.beginFetch()

	products, err := e.api.GetProducts(ctx)

	e.mu.Lock()
	e.loading = false
	if err != nil {
		e.err = err
		e.log.Warn("product fetch failed", zap.Error(err))
	} else {
		e.products = products
	}
	e.mu.Unlock()
	e.hub.Notify()
	return err
}

// LoadBySlug fetches a single product for the detail surface.
func (e *Engine) LoadBySlug(ctx context.Context, slug string) error {
	e.beginFetch()

	p, err := e.api.GetProductBySlug(ctx, slug)

	e.mu.Lock()
	e.loading = false
	if err != nil {
		e.err = err
		e.log.Warn("product fetch failed", zap.String("slug", slug), zap.Error(err))
	} else {
		e.current = &p
	}
	e.mu.Unlock()
	e.hub.Notify()
	return err
}

// Search replaces the product set with the remote search results.
func (e *Engine) Search(ctx context.Context, query string) error {
	e.beginFetch()

	products, err := e.api.SearchProducts(ctx, query)

	e.mu.Lock()
	e.loading = false
	if err != nil {
		e.err = err
		e.log.Warn("product search failed", zap.String("query", query), zap.Error(err))
	} else {
		e.products = products
	}
	e.mu.Unlock()
	e.hub.Notify()
	return err
}

func (e *Engine) beginFetch() {
	e.mu.Lock()
	e.loading = true
	e.err = nil
	e.mu.Unlock()
	e.hub.Notify()
}

// SetFilter merges the given fields into the current spec and resets the
// page to 1. Changing any filter field resets pagination; sort does not.
func (e *Engine) SetFilter(p Partial) {
	e.mu.Lock()
	if p.Category != nil {
		e.filter.Category = *p.Category
	}
	if p.PriceMin != nil {
		e.filter.PriceMin = *p.PriceMin
	}
	if p.PriceMax != nil {
		e.filter.PriceMax = *p.PriceMax
	}
	if p.MinRating != nil {
		e.filter.MinRating = *p.MinRating
	}
	if p.Search != nil {
		e.filter.Search = *p.Search
	}
	e.page = 1
	e.mu.Unlock()
	e.hub.Notify()
}

// SetSearch sets the free-text filter.
func (e *Engine) SetSearch(q string) {
	e.SetFilter(Partial{Search: &q})
}

// SetCategory sets the category filter.
func (e *Engine) SetCategory(c string) {
	e.SetFilter(Partial{Category: &c})
}

// SetPriceRange sets the inclusive price bounds. The call is ignored when
// min exceeds max.
func (e *Engine) SetPriceRange(min, max decimal.Decimal) {
	if min.GreaterThan(max) {
		return
	}
	e.SetFilter(Partial{PriceMin: &min, PriceMax: &max})
}

// SetMinRating sets the minimum-rating filter; 0 disables it.
func (e *Engine) SetMinRating(r float64) {
	if r < 0 || r > 5 {
		return
	}
	e.SetFilter(Partial{MinRating: &r})
}

// ResetFilters restores the default spec and resets the page.
func (e *Engine) ResetFilters() {
	e.mu.Lock()
	e.filter = DefaultFilter()
	e.page = 1
	e.mu.Unlock()
	e.hub.Notify()
}

// SetSort changes only the ordering. The current page is preserved.
func (e *Engine) SetSort(k SortKey) {
	if !k.Valid() {
		return
	}
	e.mu.Lock()
	e.filter.Sort = k
	e.mu.Unlock()
	e.hub.Notify()
}

// SetPage sets the current page. Bounds are the caller's concern;
// TotalPages is exposed for clamping in the UI.
func (e *Engine) SetPage(n int) {
	if n < 1 {
		return
	}
	e.mu.Lock()
	e.page = n
	e.mu.Unlock()
	e.hub.Notify()
}

// SetPerPage overrides the page window size.
func (e *Engine) SetPerPage(n int) {
	if n < 1 {
		return
	}
	e.mu.Lock()
	e.perPage = n
	e.mu.Unlock()
	e.hub.Notify()
}

// Filter returns the active spec.
func (e *Engine) Filter() FilterSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Page returns the current pagination state, including the derived
// filtered-item total.
func (e *Engine) Page() Pagination {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Pagination{CurrentPage: e.page, PerPage: e.perPage, TotalItems: len(e.filteredLocked())}
}

// Loading reports whether a fetch is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the last fetch error, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Products returns a copy of the full fetched set.
func (e *Engine) Products() []Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Product(nil), e.products...)
}

// CurrentProduct returns the product loaded for the detail surface.
func (e *Engine) CurrentProduct() (Product, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Product{}, false
	}
	return *e.current, true
}

// ClearCurrentProduct drops the detail-surface product.
func (e *Engine) ClearCurrentProduct() {
	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()
	e.hub.Notify()
}

// FeaturedProducts returns the featured subset of the fetched set.
func (e *Engine) FeaturedProducts() []Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Product
	for _, p := range e.products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out
}

// VisibleProducts derives the current page: filter, sort, then slice
// [(page-1)*perPage, +perPage). Calling it repeatedly with unchanged
// state yields identical output, including order.
func (e *Engine) VisibleProducts() []Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	filtered := e.filteredLocked()
	e.sortLocked(filtered)

	start := (e.page - 1) * e.perPage
	if start >= len(filtered) {
		return nil
	}
	end := start + e.perPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// FilteredCount returns the number of products matching the active spec.
func (e *Engine) FilteredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.filteredLocked())
}

// TotalPages returns ceil(filtered/perPage), and 1 for an empty result so
// the UI always has a valid page to clamp to.
func (e *Engine) TotalPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.filteredLocked())
	if n == 0 {
		return 1
	}
	return (n + e.perPage - 1) / e.perPage
}

// filteredLocked builds a fresh filtered slice; callers hold e.mu.
func (e *Engine) filteredLocked() []Product {
	f := e.filter
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Product, 0, len(e.products))
	for _, p := range e.products {
		if f.Category != CategoryAll && f.Category != "" && p.Category != f.Category {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if p.Price.LessThan(f.PriceMin) || p.Price.GreaterThan(f.PriceMax) {
			continue
		}
		if f.MinRating > 0 && p.Rating < f.MinRating {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p Product, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowered) ||
		strings.Contains(strings.ToLower(p.Description), lowered) ||
		strings.Contains(strings.ToLower(p.Brand), lowered)
}

// sortLocked orders products in place by the active sort key; callers
// hold e.mu. All sorts are stable so equal elements keep fetch order.
func (e *Engine) sortLocked(products []Product) {
	switch e.filter.Sort {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNameAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return e.collator.CompareString(products[i].Name, products[j].Name) < 0
		})
	case SortNameDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return e.collator.CompareString(products[i].Name, products[j].Name) > 0
		})
	case SortRatingDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	default: // SortFeatured: featured first, otherwise fetch order
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].IsFeatured && !products[j].IsFeatured
		})
	}
}

// QueryValues returns the filter fields synchronized to shareable URLs:
// category, search and sort only. Price and rating stay session-local.
func (e *Engine) QueryValues() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := url.Values{}
	if e.filter.Category != "" && e.filter.Category != CategoryAll {
		v.Set("category", e.filter.Category)
	}
	if e.filter.Search != "" {
		v.Set("search", e.filter.Search)
	}
	if e.filter.Sort != SortFeatured {
		v.Set("sort", string(e.filter.Sort))
	}
	return v
}

// ApplyQueryValues merges the URL-synchronized fields back into the spec.
// Category and search go through the page-resetting merge path; sort does
// not touch pagination. Unknown sort keys are ignored.
func (e *Engine) ApplyQueryValues(v url.Values) {
	var p Partial
	if c := v.Get("category"); c != "" {
		p.Category = &c
	}
	if s := v.Get("search"); s != "" {
		p.Search = &s
	}
	if p.Category != nil || p.Search != nil {
		e.SetFilter(p)
	}
	if k := SortKey(v.Get("sort")); k.Valid() {
		e.SetSort(k)
	}
}
