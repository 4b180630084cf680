// Package cart is the single source of truth for a visitor's shopping
// cart: normalized items, derived totals, and durable persistence through
// an injectable key-value storage.
package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/procure-marine/procure-marine-web/internal/models"
)

// Listener is notified with the new cart state after every successful
// mutation. Listeners run synchronously on the mutating goroutine.
type Listener func(models.Cart)

// Store manages one cart, identified by its storage key. Every mutation
// re-reads the persisted state, applies the change, and writes back, so
// stale in-memory copies can never clobber another writer's update.
type Store struct {
	storage Storage
	key     string

	mu        sync.Mutex
	listeners []Listener
}

func NewStore(storage Storage, key string) *Store {
	return &Store{storage: storage, key: key}
}

// Key returns the storage key the store is bound to.
func (s *Store) Key() string {
	return s.key
}

// Subscribe registers a listener for cart changes. There is no
// unsubscribe; subscribers are expected to live as long as the store.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(c models.Cart) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l(c)
	}
}

// derive computes the cart totals from its items. Totals are a pure
// function of the items and are recomputed on every load and mutation.
func derive(items []models.CartItem) models.Cart {
	cart := models.Cart{Items: items}
	for _, item := range items {
		cart.TotalItems += item.Quantity
		if item.Product.Price.Fixed() {
			cart.TotalPrice += item.Product.Price.Amount * float64(item.Quantity)
		} else {
			cart.QuoteItemsCount += item.Quantity
		}
	}
	return cart
}

// Load returns the current cart. Absent or unparsable stored state loads
// as an empty cart; corruption is never surfaced as an error, the cart
// just resets. Stored totals are ignored and re-derived from the items.
func (s *Store) Load() models.Cart {
	data, ok, err := s.storage.Read(s.key)
	if err != nil {
		slog.Error("Failed to read cart from storage", "key", s.key, "error", err)
		return derive(nil)
	}
	if !ok {
		return derive(nil)
	}

	var stored models.Cart
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		slog.Debug("Discarding unparsable cart state", "key", s.key, "error", err)
		return derive(nil)
	}
	return derive(stored.Items)
}

func (s *Store) persist(cart models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Write(s.key, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.notify(cart)
	return nil
}

// Add puts quantity units of product in the cart. If the product is
// already present its quantity is incremented, keeping at most one item
// per product id. quantity must be >= 1. Stock status is not re-checked
// here; keeping out-of-stock products out of the cart is the caller's job.
func (s *Store) Add(product models.Product, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return s.Load(), fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	cart := s.Load()
	found := false
	for i := range cart.Items {
		if cart.Items[i].Product.ID == product.ID {
			cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{Product: product, Quantity: quantity})
	}

	updated := derive(cart.Items)
	if err := s.persist(updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// Remove drops the product from the cart. Removing an absent product is a
// no-op, not an error.
func (s *Store) Remove(productID string) (models.Cart, error) {
	cart := s.Load()
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}

	updated := derive(items)
	if err := s.persist(updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// SetQuantity sets the product's quantity to exactly quantity. A quantity
// below 1 removes the item. Absent products are a no-op.
func (s *Store) SetQuantity(productID string, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return s.Remove(productID)
	}

	cart := s.Load()
	for i := range cart.Items {
		if cart.Items[i].Product.ID == productID {
			cart.Items[i].Quantity = quantity
			break
		}
	}

	updated := derive(cart.Items)
	if err := s.persist(updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// Clear resets the cart to empty.
func (s *Store) Clear() (models.Cart, error) {
	updated := derive(nil)
	if err := s.persist(updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// Contains reports whether the product is in the cart.
func (s *Store) Contains(productID string) bool {
	return s.Quantity(productID) > 0
}

// Quantity returns the product's quantity in the cart, or 0 if absent.
func (s *Store) Quantity(productID string) int {
	cart := s.Load()
	for _, item := range cart.Items {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}
