package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

func product(id string, priceStr string, stock int) catalog.Product {
	return catalog.Product{
		ID:     id,
		Slug:   id,
		Name:   "Product " + id,
		Price:  decimal.RequireFromString(priceStr),
		Stock:  stock,
		Images: []string{"/img/" + id + ".jpg"},
	}
}

func newTestEngine() (*Engine, *storage.Memory) {
	store := storage.NewMemory()
	return NewEngine(store, zap.NewNop()), store
}

func TestAddInsertsWithQuantityOne(t *testing.T) {
	e, _ := newTestEngine()

	e.Add(product("p1", "30", 5))

	it, ok := e.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, "/img/p1.jpg", it.Image)
	assert.True(t, e.IsInCart("p1"))
}

func TestAddExistingIncrementsCappedAtStock(t *testing.T) {
	e, _ := newTestEngine()

	p := product("p1", "30", 2)
	e.Add(p)
	e.Add(p)
	e.Add(p) // already at the stock ceiling

	it, _ := e.Item("p1")
	assert.Equal(t, 2, it.Quantity)
}

func TestSetQuantityClampsToStock(t *testing.T) {
	e, _ := newTestEngine()
	e.Add(product("p1", "30", 5))

	// Stale-ceiling scenario: 99 is silently clamped, not rejected.
	e.SetQuantity("p1", 99)
	it, _ := e.Item("p1")
	assert.Equal(t, 5, it.Quantity)

	e.SetQuantity("p1", 0)
	it, _ = e.Item("p1")
	assert.Equal(t, 1, it.Quantity)

	e.SetQuantity("p1", 3)
	it, _ = e.Item("p1")
	assert.Equal(t, 3, it.Quantity)
}

func TestSetQuantityAbsentItemIsNoop(t *testing.T) {
	e, _ := newTestEngine()
	e.SetQuantity("ghost", 3)
	assert.Empty(t, e.Items())
}

func TestIncrementDecrementBounds(t *testing.T) {
	e, _ := newTestEngine()
	e.Add(product("p1", "30", 2))

	e.Increment("p1")
	e.Increment("p1") // capped at stock 2
	it, _ := e.Item("p1")
	assert.Equal(t, 2, it.Quantity)

	e.Decrement("p1")
	e.Decrement("p1") // floor is 1, not removal
	it, _ = e.Item("p1")
	assert.Equal(t, 1, it.Quantity)
	assert.True(t, e.IsInCart("p1"))
}

func TestQuantityInvariantHoldsAcrossMutationSequences(t *testing.T) {
	e, _ := newTestEngine()
	p := product("p1", "10", 4)

	check := func() {
		t.Helper()
		it, ok := e.Item("p1")
		require.True(t, ok)
		assert.GreaterOrEqual(t, it.Quantity, 1)
		assert.LessOrEqual(t, it.Quantity, it.Stock)
	}

	e.Add(p)
	check()
	for i := 0; i < 10; i++ {
		e.Increment("p1")
		check()
	}
	e.SetQuantity("p1", -7)
	check()
	e.SetQuantity("p1", 1000)
	check()
	for i := 0; i < 10; i++ {
		e.Decrement("p1")
		check()
	}
}

func TestRemove(t *testing.T) {
	e, _ := newTestEngine()
	e.Add(product("p1", "30", 5))
	e.Add(product("p2", "10", 5))

	e.Remove("p1")

	assert.False(t, e.IsInCart("p1"))
	assert.True(t, e.IsInCart("p2"))
	assert.Len(t, e.Items(), 1)
}

func TestDerivedTotals(t *testing.T) {
	e, _ := newTestEngine()

	// Scenario: one item, price 30, qty 2 -> subtotal 60, tax 5.4.
	e.Add(product("p1", "30", 5))
	e.SetQuantity("p1", 2)

	assert.True(t, e.Subtotal().Equal(decimal.RequireFromString("60")), "subtotal = %s", e.Subtotal())
	assert.True(t, e.Tax().Equal(decimal.RequireFromString("5.4")), "tax = %s", e.Tax())
	assert.Equal(t, 2, e.ItemCount())

	e.Add(product("p2", "9.99", 3))
	assert.True(t, e.Subtotal().Equal(decimal.RequireFromString("69.99")))
	assert.Equal(t, 3, e.ItemCount())
}

func TestClear(t *testing.T) {
	e, _ := newTestEngine()
	e.Add(product("p1", "30", 5))

	e.Clear()

	assert.Empty(t, e.Items())
	assert.Zero(t, e.ItemCount())
	assert.True(t, e.Subtotal().IsZero())
}

func TestEveryMutationPersists(t *testing.T) {
	e, store := newTestEngine()

	e.Add(product("p1", "30", 5))

	var persisted []LineItem
	require.NoError(t, store.Get(storage.KeyCart, &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, 1, persisted[0].Quantity)

	e.SetQuantity("p1", 4)
	require.NoError(t, store.Get(storage.KeyCart, &persisted))
	assert.Equal(t, 4, persisted[0].Quantity)

	e.Clear()
	require.NoError(t, store.Get(storage.KeyCart, &persisted))
	assert.Empty(t, persisted)
}

func TestHydrateRestoresPersistedCart(t *testing.T) {
	store := storage.NewMemory()

	first := NewEngine(store, zap.NewNop())
	first.Add(product("p1", "30", 5))
	first.Increment("p1")

	second := NewEngine(store, zap.NewNop())
	second.Hydrate()

	it, ok := second.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, it.Price.Equal(decimal.RequireFromString("30")))
}

func TestHydrateToleratesCorruptData(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.KeyCart, []byte("not json at all"))

	e := NewEngine(store, zap.NewNop())
	e.Hydrate()

	assert.Empty(t, e.Items())
}

// failingStore rejects every write; reads behave like an empty store.
type failingStore struct{}

func (failingStore) Get(string, any) error { return storage.ErrNotFound }
func (failingStore) Set(string, any) error { return errors.New("quota exceeded") }
func (failingStore) Delete(string) error   { return errors.New("quota exceeded") }
func (failingStore) Has(string) bool       { return false }

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	e := NewEngine(failingStore{}, zap.NewNop())

	e.Add(product("p1", "30", 5))
	e.SetQuantity("p1", 3)

	// In-memory state stays authoritative for the session.
	it, ok := e.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 3, it.Quantity)
}
