package wishlist

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

func product(id string) catalog.Product {
	return catalog.Product{
		ID:            id,
		Slug:          id,
		Name:          "Product " + id,
		Price:         decimal.RequireFromString("19.99"),
		OriginalPrice: decimal.RequireFromString("24.99"),
		Rating:        4.2,
		InStock:       true,
		Images:        []string{"/img/" + id + ".jpg"},
	}
}

func newTestEngine() (*Engine, *storage.Memory, *clockwork.FakeClock) {
	store := storage.NewMemory()
	clk := clockwork.NewFakeClock()
	return NewEngine(store, clk, zap.NewNop()), store, clk
}

func TestAddCapturesDisplayFieldsAndTimestamp(t *testing.T) {
	e, _, clk := newTestEngine()

	e.Add(product("p1"))

	items := e.Items()
	require.Len(t, items, 1)
	entry := items[0]
	assert.Equal(t, "p1", entry.ProductID)
	assert.Equal(t, "/img/p1.jpg", entry.Image)
	assert.True(t, entry.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, entry.OriginalPrice.Equal(decimal.RequireFromString("24.99")))
	assert.True(t, entry.AddedAt.Equal(clk.Now()))
}

func TestAddIsIdempotentForSavedProducts(t *testing.T) {
	e, _, clk := newTestEngine()

	e.Add(product("p1"))
	first := e.Items()[0].AddedAt

	clk.Advance(time.Minute)
	e.Add(product("p1"))

	require.Equal(t, 1, e.Count())
	assert.True(t, e.Items()[0].AddedAt.Equal(first), "re-adding must not refresh AddedAt")
}

func TestToggleTwiceRestoresOriginalState(t *testing.T) {
	e, _, _ := newTestEngine()
	e.Add(product("p1"))

	before := e.Count()
	e.Toggle(product("p2"))
	e.Toggle(product("p2"))

	assert.Equal(t, before, e.Count())
	assert.False(t, e.IsSaved("p2"))
	assert.True(t, e.IsSaved("p1"))
}

func TestRemove(t *testing.T) {
	e, _, _ := newTestEngine()
	e.Add(product("p1"))
	e.Add(product("p2"))

	e.Remove("p1")

	assert.False(t, e.IsSaved("p1"))
	assert.Equal(t, 1, e.Count())
}

func TestClear(t *testing.T) {
	e, _, _ := newTestEngine()
	e.Add(product("p1"))

	e.Clear()

	assert.Zero(t, e.Count())
	assert.Empty(t, e.Items())
}

func TestMutationsPersistAndHydrate(t *testing.T) {
	store := storage.NewMemory()
	clk := clockwork.NewFakeClock()

	first := NewEngine(store, clk, zap.NewNop())
	first.Add(product("p1"))
	first.Toggle(product("p2"))

	second := NewEngine(store, clk, zap.NewNop())
	second.Hydrate()

	assert.Equal(t, 2, second.Count())
	assert.True(t, second.IsSaved("p1"))
	assert.True(t, second.IsSaved("p2"))
}

func TestHydrateToleratesCorruptData(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.KeyWishlist, []byte("][")) // corrupt

	e := NewEngine(store, clockwork.NewFakeClock(), zap.NewNop())
	e.Hydrate()

	assert.Zero(t, e.Count())
}
