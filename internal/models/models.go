package models

import (
	"fmt"
	"time"
)

// PriceType discriminates fixed-price products from quote-only products.
type PriceType string

const (
	PriceFixed     PriceType = "fixed"
	PriceOnRequest PriceType = "on-request"
)

// Price is a tagged union: Amount and Currency are only meaningful when
// Type is PriceFixed. Quote-only products carry no amount at all so they
// can never be summed into a total by accident.
type Price struct {
	Type     PriceType `json:"type"`
	Amount   float64   `json:"amount,omitempty"`
	Currency string    `json:"currency,omitempty"`
}

// Fixed reports whether the price carries a usable amount.
func (p Price) Fixed() bool {
	return p.Type == PriceFixed
}

// Validate enforces the union invariant: an amount is present and
// non-negative iff the price is fixed.
func (p Price) Validate() error {
	switch p.Type {
	case PriceFixed:
		if p.Amount < 0 {
			return fmt.Errorf("fixed price with negative amount %v", p.Amount)
		}
		if p.Currency == "" {
			return fmt.Errorf("fixed price without currency")
		}
	case PriceOnRequest:
		if p.Amount != 0 {
			return fmt.Errorf("on-request price with amount %v", p.Amount)
		}
	default:
		return fmt.Errorf("unknown price type %q", p.Type)
	}
	return nil
}

// StockStatus is the product availability state.
type StockStatus string

const (
	InStock    StockStatus = "in-stock"
	LowStock   StockStatus = "low-stock"
	OnRequest  StockStatus = "on-request"
	OutOfStock StockStatus = "out-of-stock"
)

// Orderable reports whether a product in this state may be added to a cart.
// Out-of-stock products are listed but not orderable.
func (s StockStatus) Orderable() bool {
	return s != OutOfStock
}

type Specification struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	PartNumber      string          `json:"partNumber"`
	Description     string          `json:"description"`
	FullDescription string          `json:"fullDescription,omitempty"`
	CategoryIDs     []string        `json:"categoryIds"`
	Brand           string          `json:"brand,omitempty"`
	Price           Price           `json:"price"`
	StockStatus     StockStatus     `json:"stockStatus"`
	Images          []string        `json:"images"`
	Specifications  []Specification `json:"specifications,omitempty"`
	Compatibility   []string        `json:"compatibility,omitempty"`
	Documents       []Document      `json:"documents,omitempty"`
	Featured        bool            `json:"featured,omitempty"`
}

// Category is a two-level tree: subcategories never nest further.
type Category struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	Subcategories []Category `json:"subcategories,omitempty"`
}

// CartItem snapshots the full product at add time, not just its id.
// Catalog price/stock changes after adding are deliberately not reflected
// until the item is removed and re-added.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds the items plus totals derived from them. The totals are never
// set directly: any load from storage recomputes them from Items.
type Cart struct {
	Items           []CartItem `json:"items"`
	TotalItems      int        `json:"totalItems"`
	TotalPrice      float64    `json:"totalPrice"`
	QuoteItemsCount int        `json:"quoteItemsCount"`
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

type ContactInfo struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"companyName,omitempty"`
}

type DeliveryInfo struct {
	Location string `json:"location"`
	Notes    string `json:"notes,omitempty"`
}

// OrderSubmission is built fresh per checkout attempt and only ever lives
// in the outbound email; nothing is persisted.
type OrderSubmission struct {
	Items           []CartItem   `json:"items"`
	Contact         ContactInfo  `json:"contact"`
	Delivery        DeliveryInfo `json:"delivery"`
	AdditionalNotes string       `json:"additionalNotes,omitempty"`
	SubmittedAt     time.Time    `json:"submittedAt"`
}

// ProductFilters narrows a product listing. Zero-value fields impose no
// constraint; active filters are ANDed together.
type ProductFilters struct {
	CategoryIDs []string
	Brands      []string
	StockStatus []StockStatus
	SearchQuery string
}

// ProductSortOption selects a listing order.
type ProductSortOption string

const (
	SortNameAsc      ProductSortOption = "name-asc"
	SortNameDesc     ProductSortOption = "name-desc"
	SortPartNumber   ProductSortOption = "part-number"
	SortAvailability ProductSortOption = "availability"
)
