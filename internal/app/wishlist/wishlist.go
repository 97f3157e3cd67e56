// Package wishlist maintains the saved-products set: a keyed collection
// of denormalized product snapshots, persisted on every mutation.
package wishlist

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/pkg/emitter"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

// Entry is one saved product with the display fields captured at save
// time.
type Entry struct {
	ProductID     string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Image         string          `json:"image"`
	Rating        float64         `json:"rating"`
	InStock       bool            `json:"inStock"`
	AddedAt       time.Time       `json:"addedAt"`
}

// Engine owns the wishlist state.
type Engine struct {
	store storage.Store
	clk   clockwork.Clock
	log   *zap.Logger
	hub   *emitter.Hub

	mu    sync.Mutex
	items []Entry
}

// NewEngine creates an empty wishlist backed by the given store.
func NewEngine(store storage.Store, clk clockwork.Clock, log *zap.Logger) *Engine {
	return &Engine{store: store, clk: clk, log: log, hub: emitter.New()}
}

// Subscribe registers a listener notified after every mutation.
func (e *Engine) Subscribe(fn func()) func() { return e.hub.Subscribe(fn) }

// Hydrate loads the persisted wishlist, falling back to empty on missing
// or corrupt data.
func (e *Engine) Hydrate() {
	var items []Entry
	if err := e.store.Get(storage.KeyWishlist, &items); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.log.Warn("load wishlist failed", zap.Error(err))
		}
		items = nil
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	e.hub.Notify()
}

// Add saves the product. Already-saved products are left untouched.
func (e *Engine) Add(p catalog.Product) {
	e.mu.Lock()
	if e.indexLocked(p.ID) < 0 {
		e.items = append(e.items, e.entryFrom(p))
		e.persistLocked()
	}
	e.mu.Unlock()
	e.hub.Notify()
}

// Remove drops the entry for productID.
func (e *Engine) Remove(productID string) {
	e.mu.Lock()
	if i := e.indexLocked(productID); i >= 0 {
		e.items = append(e.items[:i], e.items[i+1:]...)
		e.persistLocked()
	}
	e.mu.Unlock()
	e.hub.Notify()
}

// Toggle inserts the product if absent, else removes it. The presence
// check and mutation happen under one lock, so the caller never races a
// read-modify-write.
func (e *Engine) Toggle(p catalog.Product) {
	e.mu.Lock()
	if i := e.indexLocked(p.ID); i >= 0 {
		e.items = append(e.items[:i], e.items[i+1:]...)
	} else {
		e.items = append(e.items, e.entryFrom(p))
	}
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Clear empties the wishlist.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.items = nil
	e.persistLocked()
	e.mu.Unlock()
	e.hub.Notify()
}

// Items returns a snapshot copy of the saved entries.
func (e *Engine) Items() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Entry(nil), e.items...)
}

// Count returns the number of saved products.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// IsSaved reports wishlist membership for productID.
func (e *Engine) IsSaved(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexLocked(productID) >= 0
}

func (e *Engine) entryFrom(p catalog.Product) Entry {
	return Entry{
		ProductID:     p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image(),
		Rating:        p.Rating,
		InStock:       p.InStock,
		AddedAt:       e.clk.Now(),
	}
}

func (e *Engine) indexLocked(productID string) int {
	for i := range e.items {
		if e.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) persistLocked() {
	items := e.items
	if items == nil {
		items = []Entry{}
	}
	if err := e.store.Set(storage.KeyWishlist, items); err != nil {
		e.log.Warn("persist wishlist failed", zap.Error(err))
	}
}
