// Package catalog is the read-only query surface over the static product
// and category data. The dataset is loaded once at startup and never
// changes; every query is pure and safe for concurrent use.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/procure-marine/procure-marine-web/internal/models"
)

type Catalog struct {
	categories []models.Category
	products   []models.Product

	bySlug map[string]int // index into products
	byID   map[string]int
}

// Load reads categories.json and products.json from dir and builds the
// in-memory catalog.
func Load(dir string) (*Catalog, error) {
	var categories []models.Category
	if err := readJSON(filepath.Join(dir, "categories.json"), &categories); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var products []models.Product
	if err := readJSON(filepath.Join(dir, "products.json"), &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return New(categories, products)
}

// New builds a catalog from already-decoded data. Product prices are
// validated up front so the rest of the app can trust the union invariant.
func New(categories []models.Category, products []models.Product) (*Catalog, error) {
	c := &Catalog{
		categories: categories,
		products:   products,
		bySlug:     make(map[string]int, len(products)),
		byID:       make(map[string]int, len(products)),
	}
	for i, p := range products {
		if err := p.Price.Validate(); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		c.bySlug[p.Slug] = i
		c.byID[p.ID] = i
	}
	return c, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Categories returns the full category tree.
func (c *Catalog) Categories() []models.Category {
	return c.categories
}

// CategoryBySlug looks up a top-level category or a subcategory by slug.
func (c *Catalog) CategoryBySlug(slug string) (models.Category, bool) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
		for _, sub := range cat.Subcategories {
			if sub.Slug == slug {
				return sub, true
			}
		}
	}
	return models.Category{}, false
}

// CategoryAndSubcategoryIDs returns the category id plus the ids of its
// direct subcategories, so filtering by a parent matches its children.
// Unknown ids return just themselves.
func (c *Catalog) CategoryAndSubcategoryIDs(categoryID string) []string {
	ids := []string{categoryID}
	for _, cat := range c.categories {
		if cat.ID != categoryID {
			continue
		}
		for _, sub := range cat.Subcategories {
			ids = append(ids, sub.ID)
		}
	}
	return ids
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []models.Product {
	return c.products
}

// ProductBySlug looks up a single product by its URL slug.
func (c *Catalog) ProductBySlug(slug string) (models.Product, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// ProductByID looks up a single product by id.
func (c *Catalog) ProductByID(id string) (models.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// FeaturedProducts returns up to limit products flagged as featured.
func (c *Catalog) FeaturedProducts(limit int) []models.Product {
	var out []models.Product
	for _, p := range c.products {
		if !p.Featured {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Brands returns the distinct brand names, sorted.
func (c *Catalog) Brands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, p := range c.products {
		if p.Brand != "" && !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	sort.Strings(brands)
	return brands
}

// Filter returns the products matching all active filters. The input
// dataset is never mutated; the result is a fresh slice.
func (c *Catalog) Filter(filters models.ProductFilters) []models.Product {
	expanded := make(map[string]bool)
	for _, id := range filters.CategoryIDs {
		for _, ex := range c.CategoryAndSubcategoryIDs(id) {
			expanded[ex] = true
		}
	}

	query := strings.ToLower(strings.TrimSpace(filters.SearchQuery))

	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if len(expanded) > 0 && !matchesAnyCategory(p, expanded) {
			continue
		}
		if len(filters.Brands) > 0 && !containsString(filters.Brands, p.Brand) {
			continue
		}
		if len(filters.StockStatus) > 0 && !containsStatus(filters.StockStatus, p.StockStatus) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAnyCategory(p models.Product, ids map[string]bool) bool {
	for _, id := range p.CategoryIDs {
		if ids[id] {
			return true
		}
	}
	return false
}

func matchesQuery(p models.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.PartNumber), query) ||
		strings.Contains(strings.ToLower(p.Description), query)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsStatus(list []models.StockStatus, s models.StockStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// availabilityRank orders products for the availability sort. Unknown
// statuses sort last.
func availabilityRank(s models.StockStatus) int {
	switch s {
	case models.InStock:
		return 0
	case models.LowStock:
		return 1
	case models.OnRequest:
		return 2
	case models.OutOfStock:
		return 3
	}
	return 4
}

// Sort returns a sorted copy of products. Name and part-number sorts use
// locale-aware collation; the availability sort is stable so ties keep
// their prior relative order. The input slice is never mutated.
func Sort(products []models.Product, option models.ProductSortOption) []models.Product {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)

	coll := collate.New(language.English, collate.IgnoreCase)

	switch option {
	case models.SortNameAsc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[i].Name, sorted[j].Name) < 0
		})
	case models.SortNameDesc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[j].Name, sorted[i].Name) < 0
		})
	case models.SortPartNumber:
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[i].PartNumber, sorted[j].PartNumber) < 0
		})
	case models.SortAvailability:
		sort.SliceStable(sorted, func(i, j int) bool {
			return availabilityRank(sorted[i].StockStatus) < availabilityRank(sorted[j].StockStatus)
		})
	}
	return sorted
}

// ProductsByCategorySlug resolves a category slug and returns its products
// (including subcategory products). limit <= 0 means no limit.
func (c *Catalog) ProductsByCategorySlug(slug string, limit int) []models.Product {
	cat, ok := c.CategoryBySlug(slug)
	if !ok {
		return nil
	}
	products := c.Filter(models.ProductFilters{CategoryIDs: []string{cat.ID}})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}
