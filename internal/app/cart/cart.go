// Package cart maintains the shopping cart: line items keyed by product,
// quantities clamped to the stock ceiling captured at add time, and
// derived totals. Every mutation persists the post-mutation list before
// returning.
package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/pkg/emitter"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

// taxRate is the flat 9% tax applied to the subtotal.
var taxRate = decimal.New(9, -2)

// LineItem is one cart entry. Price and Stock are captured when the
// product is first added; the stock ceiling may go stale and is treated
// as a soft limit.
type LineItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// Engine owns the cart state. The persisted copy under storage.KeyCart is
// a serialized snapshot, never a live reference; in-memory state stays
// authoritative when persistence fails.
type Engine struct {
	store storage.Store
	log   *zap.Logger
	hub   *emitter.Hub

	mu    sync.Mutex
	items []LineItem
}

// NewEngine creates an empty cart backed by the given store.
func NewEngine(store storage.Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log, hub: emitter.New()}
}

// Subscribe registers a listener notified after every mutation.
func (e *Engine) Subscribe(fn func()) func() { return e.hub.Subscribe(fn) }

// Hydrate loads the persisted cart. Missing or corrupt data falls back to
// an empty cart.
func (e *Engine) Hydrate() {
	var items []LineItem
	if err := e.store.Get(storage.KeyCart, &items); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.log.Warn("load cart failed", zap.Error(err))
		}
		items = nil
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	e.hub.Notify()
}

// Add inserts a new line item with quantity 1, or bumps the existing
// item's quantity by 1 up to its stock ceiling.
func (e *Engine) Add(p catalog.Product) {
	e.mu.Lock()
	if it := e.findLocked(p.ID); it != nil {
		if it.Quantity < it.Stock {
			it.Quantity++
		}
	} else {
		e.items = append(e.items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			Image:     p.Image(),
			Stock:     p.Stock,
			Quantity:  1,
		})
	}
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Remove deletes the line item for productID.
func (e *Engine) Remove(productID string) {
	e.mu.Lock()
	kept := e.items[:0]
	for _, it := range e.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	e.items = kept
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// SetQuantity sets the item's quantity, silently clamped into [1, stock].
// A stale stock ceiling never fails loudly. No-op when the item is absent.
func (e *Engine) SetQuantity(productID string, n int) {
	e.mu.Lock()
	if it := e.findLocked(productID); it != nil {
		it.Quantity = clamp(n, 1, it.Stock)
	}
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Increment bumps the quantity by 1, capped at the stock ceiling.
func (e *Engine) Increment(productID string) {
	e.mu.Lock()
	if it := e.findLocked(productID); it != nil && it.Quantity < it.Stock {
		it.Quantity++
	}
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Decrement lowers the quantity by 1, never below 1. Removal is a
// separate command.
func (e *Engine) Decrement(productID string) {
	e.mu.Lock()
	if it := e.findLocked(productID); it != nil && it.Quantity > 1 {
		it.Quantity--
	}
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Clear empties the cart.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.items = nil
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Items returns a snapshot copy of the line items.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LineItem(nil), e.items...)
}

// Item returns the line item for productID.
func (e *Engine) Item(productID string) (LineItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it := e.findLocked(productID); it != nil {
		return *it, true
	}
	return LineItem{}, false
}

// IsInCart reports cart membership for productID.
func (e *Engine) IsInCart(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.findLocked(productID) != nil
}

// ItemCount returns the total quantity across all line items.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, it := range e.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of price times quantity over all line items.
func (e *Engine) Subtotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtotalLocked()
}

// Tax is the subtotal times the flat tax rate.
func (e *Engine) Tax() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtotalLocked().Mul(taxRate)
}

// Total is subtotal plus tax. Shipping is a checkout concern and is not
// included here.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := e.subtotalLocked()
	return sub.Add(sub.Mul(taxRate))
}

func (e *Engine) subtotalLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range e.items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func (e *Engine) findLocked(productID string) *LineItem {
	for i := range e.items {
		if e.items[i].ProductID == productID {
			return &e.items[i]
		}
	}
	return nil
}

// persistLocked writes the current list. Failures are logged and
// swallowed; the in-memory cart stays authoritative for the session.
func (e *Engine) persistLocked() {
	items := e.items
	if items == nil {
		items = []LineItem{}
	}
	if err := e.store.Set(storage.KeyCart, items); err != nil {
		e.log.Warn("persist cart failed", zap.Error(err))
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
