package catalog

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

// maxRecentSearches caps the persisted history.
const maxRecentSearches = 5

// History is the persisted recent-search list: most recent first,
// de-duplicated on insert, capped at maxRecentSearches.
type History struct {
	store storage.Store
	log   *zap.Logger

	mu    sync.Mutex
	terms []string
}

// NewHistory creates a History backed by the given store.
func NewHistory(store storage.Store, log *zap.Logger) *History {
	return &History{store: store, log: log}
}

// Hydrate loads persisted terms. Missing or corrupt data yields an empty
// history.
func (h *History) Hydrate() {
	var terms []string
	if err := h.store.Get(storage.KeyRecentSearches, &terms); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.log.Warn("load recent searches failed", zap.Error(err))
		}
		terms = nil
	}
	h.mu.Lock()
	h.terms = terms
	h.mu.Unlock()
}

// Record inserts term at the front, dropping any earlier occurrence and
// truncating to the cap. Blank terms are ignored.
func (h *History) Record(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]string, 0, maxRecentSearches)
	next = append(next, term)
	for _, t := range h.terms {
		if t != term && len(next) < maxRecentSearches {
			next = append(next, t)
		}
	}
	h.terms = next

	if err := h.store.Set(storage.KeyRecentSearches, h.terms); err != nil {
		h.log.Warn("persist recent searches failed", zap.Error(err))
	}
}

// Terms returns a copy of the history, most recent first.
func (h *History) Terms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.terms...)
}

// Clear empties the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.terms = nil
	if err := h.store.Delete(storage.KeyRecentSearches); err != nil {
		h.log.Warn("clear recent searches failed", zap.Error(err))
	}
}
