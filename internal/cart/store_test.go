package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procure-marine/procure-marine-web/internal/models"
)

func fixedProduct(id string, amount float64) models.Product {
	return models.Product{
		ID:         id,
		Name:       "Product " + id,
		Slug:       "product-" + id,
		PartNumber: "PN-" + id,
		Price:      models.Price{Type: models.PriceFixed, Amount: amount, Currency: "USD"},
	}
}

func quoteProduct(id string) models.Product {
	return models.Product{
		ID:         id,
		Name:       "Product " + id,
		Slug:       "product-" + id,
		PartNumber: "PN-" + id,
		Price:      models.Price{Type: models.PriceOnRequest},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewMemoryStorage(), "test-cart")
}

func TestLoadEmptyWhenNothingStored(t *testing.T) {
	store := newTestStore(t)

	cart := store.Load()

	assert.True(t, cart.Empty())
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, 0.0, cart.TotalPrice)
	assert.Equal(t, 0, cart.QuoteItemsCount)
}

func TestDerivedTotals(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(fixedProduct("a", 100.00), 2)
	require.NoError(t, err)
	cart, err := store.Add(quoteProduct("b"), 3)
	require.NoError(t, err)

	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, 200.00, cart.TotalPrice)
	assert.Equal(t, 3, cart.QuoteItemsCount)
}

func TestTotalsAreIdempotent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(fixedProduct("a", 12.5), 4)
	require.NoError(t, err)
	_, err = store.Add(quoteProduct("b"), 1)
	require.NoError(t, err)

	first := store.Load()
	second := store.Load()

	assert.Equal(t, first, second)
}

func TestAddDeduplicatesByProductID(t *testing.T) {
	store := newTestStore(t)
	a := fixedProduct("a", 10)

	_, err := store.Add(a, 1)
	require.NoError(t, err)
	cart, err := store.Add(a, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "a", cart.Items[0].Product.ID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(fixedProduct("a", 10), 1)
	require.NoError(t, err)
	_, err = store.Add(quoteProduct("b"), 1)
	require.NoError(t, err)
	cart, err := store.Add(fixedProduct("a", 10), 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "a", cart.Items[0].Product.ID)
	assert.Equal(t, "b", cart.Items[1].Product.ID)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(fixedProduct("a", 10), 0)
	assert.Error(t, err)
	_, err = store.Add(fixedProduct("a", 10), -2)
	assert.Error(t, err)

	assert.True(t, store.Load().Empty())
}

func TestRemoveIsNoOpForAbsentProduct(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Add(fixedProduct("a", 10), 1)
	require.NoError(t, err)

	cart, err := store.Remove("missing")
	require.NoError(t, err)

	assert.Len(t, cart.Items, 1)
}

func TestSetQuantitySetsExactValue(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Add(fixedProduct("a", 10), 5)
	require.NoError(t, err)

	cart, err := store.SetQuantity("a", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 20.0, cart.TotalPrice)
}

func TestSetQuantityFloorRemoves(t *testing.T) {
	for _, quantity := range []int{0, -1, -100} {
		store := newTestStore(t)
		_, err := store.Add(fixedProduct("a", 10), 3)
		require.NoError(t, err)

		cart, err := store.SetQuantity("a", quantity)
		require.NoError(t, err)

		assert.True(t, cart.Empty(), "quantity %d should remove the item", quantity)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Add(fixedProduct("a", 10), 3)
	require.NoError(t, err)

	cart, err := store.Clear()
	require.NoError(t, err)

	assert.True(t, cart.Empty())
	assert.True(t, store.Load().Empty())
}

func TestRoundTripPersistence(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, "cart-1")

	_, err := store.Add(fixedProduct("a", 99.99), 2)
	require.NoError(t, err)
	mutated, err := store.Add(quoteProduct("b"), 1)
	require.NoError(t, err)

	// A fresh store over the same storage sees the same items.
	reloaded := NewStore(storage, "cart-1").Load()
	assert.Equal(t, mutated.Items, reloaded.Items)
	assert.Equal(t, mutated.TotalItems, reloaded.TotalItems)
	assert.Equal(t, mutated.TotalPrice, reloaded.TotalPrice)
}

func TestLoadResetsOnCorruptState(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Write("cart-1", "{not json"))

	cart := NewStore(storage, "cart-1").Load()

	assert.True(t, cart.Empty())
}

func TestLoadIgnoresStoredTotals(t *testing.T) {
	storage := NewMemoryStorage()
	stored := models.Cart{
		Items: []models.CartItem{
			{Product: fixedProduct("a", 50), Quantity: 2},
		},
		// Deliberately wrong: must be recomputed on load.
		TotalItems:      99,
		TotalPrice:      1.0,
		QuoteItemsCount: 42,
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, storage.Write("cart-1", string(data)))

	cart := NewStore(storage, "cart-1").Load()

	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, 100.0, cart.TotalPrice)
	assert.Equal(t, 0, cart.QuoteItemsCount)
}

func TestSubscribeNotifiedOnMutation(t *testing.T) {
	store := newTestStore(t)

	var seen []models.Cart
	store.Subscribe(func(c models.Cart) {
		seen = append(seen, c)
	})

	_, err := store.Add(fixedProduct("a", 10), 1)
	require.NoError(t, err)
	_, err = store.Clear()
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].TotalItems)
	assert.True(t, seen[1].Empty())
}

func TestContainsAndQuantity(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Add(fixedProduct("a", 10), 4)
	require.NoError(t, err)

	assert.True(t, store.Contains("a"))
	assert.Equal(t, 4, store.Quantity("a"))
	assert.False(t, store.Contains("b"))
	assert.Equal(t, 0, store.Quantity("b"))
}
