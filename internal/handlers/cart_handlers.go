package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/procure-marine/procure-marine-web/internal/cart"
	"github.com/procure-marine/procure-marine-web/internal/catalog"
)

// CartHandler serves the cart page and its mutation endpoints. Every
// mutation goes through the cart store, which re-reads persisted state
// before writing, so concurrent tabs can't clobber each other's carts.
type CartHandler struct {
	Catalog      *catalog.Catalog
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	CartStorage  cart.Storage
}

func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("cart.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)
	data := map[string]interface{}{
		"Cart":      store.Load(),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// AddToCart handles POST /cart/add with product_id and quantity fields.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		session.Save(r, w)
		http.Redirect(w, r, backTo(r, "/products"), http.StatusSeeOther)
		return
	}

	product, ok := h.Catalog.ProductByID(r.FormValue("product_id"))
	if !ok {
		session.AddFlash(FlashMessage{Type: "error", Message: "Product not found."})
		session.Save(r, w)
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}

	// Out-of-stock products are rejected here, before the cart store:
	// the store itself does not re-validate stock.
	if !product.StockStatus.Orderable() {
		session.AddFlash(FlashMessage{Type: "error", Message: product.Name + " is currently out of stock."})
		session.Save(r, w)
		http.Redirect(w, r, backTo(r, "/products"), http.StatusSeeOther)
		return
	}

	quantity := 1
	if qtyStr := r.FormValue("quantity"); qtyStr != "" {
		if q, err := strconv.Atoi(qtyStr); err == nil && q > 0 {
			quantity = q
		}
	}

	if _, err := store.Add(product, quantity); err != nil {
		slog.Error("Failed to add product to cart", "productId", product.ID, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not update your cart. Please try again."})
		session.Save(r, w)
		http.Redirect(w, r, backTo(r, "/products"), http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: product.Name + " added to cart."})
	session.Save(r, w)
	http.Redirect(w, r, backTo(r, "/cart"), http.StatusSeeOther)
}

// UpdateQuantity handles POST /cart/update. A quantity below 1 removes
// the item.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		session.Save(r, w)
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	productID := r.FormValue("product_id")
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid quantity."})
		session.Save(r, w)
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	if _, err := store.SetQuantity(productID, quantity); err != nil {
		slog.Error("Failed to update cart quantity", "productId", productID, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not update your cart. Please try again."})
	}
	session.Save(r, w)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// RemoveItem handles POST /cart/remove.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	if _, err := store.Remove(r.FormValue("product_id")); err != nil {
		slog.Error("Failed to remove cart item", "productId", r.FormValue("product_id"), "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not update your cart. Please try again."})
	}
	session.Save(r, w)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// ClearCart handles POST /cart/clear.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	if _, err := store.Clear(); err != nil {
		slog.Error("Failed to clear cart", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not update your cart. Please try again."})
	}
	session.Save(r, w)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// backTo prefers the referring page so "add to cart" returns the visitor
// to where they were; falls back when the referrer is absent.
func backTo(r *http.Request, fallback string) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return fallback
}
