// Package catalog holds the read-only product list of the storefront.
package catalog

import (
	"slices"
	"strings"
)

// Product is a catalog entry. Products never change after the catalog is loaded.
type Product struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Price       int64
	Stock       int
	Image       string
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Catalog is an immutable, ordered set of products.
type Catalog struct {
	products []Product
}

// New builds a catalog from the given products, preserving their order.
func New(products []Product) Catalog {
	return Catalog{products: slices.Clone(products)}
}

// Seed returns the catalog the storefront starts with.
func Seed() Catalog {
	return New([]Product{
		{ID: 1, Name: "Wireless Headphones", Price: 6799, Category: "Electronics", Image: "🎧", Stock: 15,
			Description: "High-quality wireless headphones with noise cancellation"},
		{ID: 2, Name: "Smart Watch", Price: 16999, Category: "Electronics", Image: "⌚", Stock: 8,
			Description: "Feature-rich smartwatch with fitness tracking"},
		{ID: 3, Name: "Laptop Backpack", Price: 4249, Category: "Accessories", Image: "🎒", Stock: 20,
			Description: "Durable laptop backpack with multiple compartments"},
		{ID: 4, Name: "Coffee Maker", Price: 7649, Category: "Home", Image: "☕", Stock: 12,
			Description: "Automatic coffee maker with programmable settings"},
		{ID: 5, Name: "Running Shoes", Price: 11049, Category: "Sports", Image: "👟", Stock: 25,
			Description: "Comfortable running shoes with excellent support"},
		{ID: 6, Name: "Bluetooth Speaker", Price: 5099, Category: "Electronics", Image: "🔊", Stock: 18,
			Description: "Portable bluetooth speaker with rich sound quality"},
		{ID: 7, Name: "Yoga Mat", Price: 2975, Category: "Sports", Image: "🧘", Stock: 30,
			Description: "Non-slip yoga mat with carrying strap"},
		{ID: 8, Name: "Desk Lamp", Price: 3399, Category: "Home", Image: "💡", Stock: 22,
			Description: "LED desk lamp with adjustable brightness"},
	})
}

// All returns every product in catalog order.
func (c Catalog) All() []Product {
	return slices.Clone(c.products)
}

// Len returns the number of products.
func (c Catalog) Len() int {
	return len(c.products)
}

// FindByID returns the product with the given id.
func (c Catalog) FindByID(id int64) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Filter returns the products whose name or category contains query, ignoring case.
// The query is matched as typed, whitespace included. An empty query matches everything.
func (c Catalog) Filter(query string) []Product {
	q := strings.ToLower(query)
	if q == "" {
		return c.All()
	}
	var matched []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			matched = append(matched, p)
		}
	}
	return matched
}
