package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/procure-marine/procure-marine-web/internal/cart"
	"github.com/procure-marine/procure-marine-web/internal/catalog"
	"github.com/procure-marine/procure-marine-web/internal/models"
)

// PageHandler serves the public catalog pages.
type PageHandler struct {
	Catalog      *catalog.Catalog
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	CartStorage  cart.Storage
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tmpl := h.Templates.Get("home.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)
	data := map[string]interface{}{
		"Featured":   h.Catalog.FeaturedProducts(6),
		"Categories": h.Catalog.Categories(),
		"Cart":       store.Load(),
		"Flashes":    GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// Products renders the listing with filters and sort taken from the query
// string: q, category (slug), brand, stock, sort.
func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("products.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	filters := models.ProductFilters{
		SearchQuery: q.Get("q"),
		Brands:      nonEmpty(q["brand"]),
	}
	for _, s := range nonEmpty(q["stock"]) {
		filters.StockStatus = append(filters.StockStatus, models.StockStatus(s))
	}

	var activeCategory *models.Category
	if slug := q.Get("category"); slug != "" {
		if cat, ok := h.Catalog.CategoryBySlug(slug); ok {
			filters.CategoryIDs = []string{cat.ID}
			activeCategory = &cat
		}
	}

	products := h.Catalog.Filter(filters)

	sortOption := models.ProductSortOption(q.Get("sort"))
	if sortOption == "" {
		sortOption = models.SortNameAsc
	}
	products = catalog.Sort(products, sortOption)

	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)
	data := map[string]interface{}{
		"Products":   products,
		"Categories": h.Catalog.Categories(),
		"Brands":     h.Catalog.Brands(),
		"Category":   activeCategory,
		"Query":      filters.SearchQuery,
		"Sort":       string(sortOption),
		"Cart":       store.Load(),
		"Flashes":    GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// ProductDetail serves /products/{slug}.
func (h *PageHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	product, ok := h.Catalog.ProductBySlug(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	tmpl := h.Templates.Get("product.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)
	data := map[string]interface{}{
		"Product":   product,
		"InCart":    store.Contains(product.ID),
		"CartQty":   store.Quantity(product.ID),
		"Orderable": product.StockStatus.Orderable(),
		"Cart":      store.Load(),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
