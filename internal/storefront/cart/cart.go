// Package cart models the shopping cart as an immutable value.
// Every operation returns a new Cart and leaves the receiver untouched.
package cart

import (
	"slices"

	"github.com/abgdnv/shophub/internal/storefront/catalog"
)

// Line is one product and its quantity. Quantity is always positive.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Cart is an ordered list of lines, at most one per product.
type Cart struct {
	lines []Line
}

// Of builds a cart from existing lines, dropping lines with a non-positive quantity.
func Of(lines ...Line) Cart {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return Cart{lines: out}
}

func (c Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Product.ID == productID })
}

// Add increments the quantity of the product's line, or appends a new line with quantity 1.
// Stock is not checked.
func (c Cart) Add(product catalog.Product) Cart {
	lines := slices.Clone(c.lines)
	if i := c.indexOf(product.ID); i >= 0 {
		lines[i].Quantity++
		return Cart{lines: lines}
	}
	return Cart{lines: append(lines, Line{Product: product, Quantity: 1})}
}

// Adjust changes the quantity of a line by delta.
// A missing line is a no-op, and so is a delta that would bring the quantity to zero or below.
func (c Cart) Adjust(productID int64, delta int) Cart {
	i := c.indexOf(productID)
	if i < 0 {
		return c
	}
	quantity := c.lines[i].Quantity + delta
	if quantity <= 0 {
		return c
	}
	lines := slices.Clone(c.lines)
	lines[i].Quantity = quantity
	return Cart{lines: lines}
}

// Remove deletes the product's line if present.
func (c Cart) Remove(productID int64) Cart {
	i := c.indexOf(productID)
	if i < 0 {
		return c
	}
	return Cart{lines: slices.Delete(slices.Clone(c.lines), i, i+1)}
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return Cart{}
}

// Lines returns a copy of the lines in insertion order.
func (c Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Line returns the line of the given product.
func (c Cart) Line(productID int64) (Line, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Total is the sum of all line subtotals.
func (c Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of units in the cart.
func (c Cart) Count() int {
	var count int
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
