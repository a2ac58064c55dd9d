// Package ledger keeps the orders placed during a session.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/abgdnv/shophub/internal/storefront/cart"
)

// Status is the lifecycle state of an order. Only Processing exists.
type Status string

const StatusProcessing Status = "Processing"

// Order is a finalized cart snapshot. Orders never change once appended.
type Order struct {
	ID        int
	Lines     []cart.Line
	Total     int64
	Status    Status
	CreatedAt time.Time
	Address   string
}

// Number returns the display id, zero-padded to six digits.
func (o Order) Number() string {
	return fmt.Sprintf("%06d", o.ID)
}

// Count returns the number of units in the order.
func (o Order) Count() int {
	var count int
	for _, l := range o.Lines {
		count += l.Quantity
	}
	return count
}

// Ledger is an append-only list of orders, oldest first.
type Ledger struct {
	orders []Order
}

// Append returns a ledger with order added at the end.
func (l Ledger) Append(order Order) Ledger {
	order.Lines = slices.Clone(order.Lines)
	return Ledger{orders: append(slices.Clone(l.orders), order)}
}

// All returns the orders in insertion order.
func (l Ledger) All() []Order {
	return slices.Clone(l.orders)
}

func (l Ledger) Len() int {
	return len(l.orders)
}

// Last returns the most recent order.
func (l Ledger) Last() (Order, bool) {
	if len(l.orders) == 0 {
		return Order{}, false
	}
	return l.orders[len(l.orders)-1], true
}

// NextID is the id the next appended order gets.
func (l Ledger) NextID() int {
	return len(l.orders) + 1
}
