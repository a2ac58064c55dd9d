// Package checkout turns a cart into an order.
package checkout

import (
	"errors"
	"time"

	"github.com/abgdnv/shophub/internal/storefront/cart"
	"github.com/abgdnv/shophub/internal/storefront/ledger"
	"github.com/abgdnv/shophub/internal/storefront/session"
)

// Phase is the checkout state as seen by the storefront.
type Phase int

const (
	Browsing Phase = iota
	AwaitingLogin
	Confirmed
)

func (p Phase) String() string {
	switch p {
	case AwaitingLogin:
		return "awaiting-login"
	case Confirmed:
		return "confirmed"
	default:
		return "browsing"
	}
}

var (
	ErrLoginRequired = errors.New("login required")
	ErrEmptyCart     = errors.New("cart is empty")
)

// Form is the shipping information collected before placing an order.
type Form struct {
	FullName string
	Email    string
	Phone    string
	Address  string
}

type Input struct {
	Cart    cart.Cart
	Session session.Session
	Ledger  ledger.Ledger
	Form    Form
	Now     time.Time
}

// Result carries the state after a checkout attempt. On error Cart and Ledger are the inputs unchanged.
type Result struct {
	Phase  Phase
	Cart   cart.Cart
	Ledger ledger.Ledger
	Order  ledger.Order
}

// Place moves the cart into the ledger as a new order.
// The identity is checked before the cart, so an anonymous user with an empty cart gets ErrLoginRequired.
func Place(in Input) (Result, error) {
	if !in.Session.Present() {
		return Result{Phase: AwaitingLogin, Cart: in.Cart, Ledger: in.Ledger}, ErrLoginRequired
	}
	if in.Cart.IsEmpty() {
		return Result{Phase: Browsing, Cart: in.Cart, Ledger: in.Ledger}, ErrEmptyCart
	}
	order := ledger.Order{
		ID:        in.Ledger.NextID(),
		Lines:     in.Cart.Lines(),
		Total:     in.Cart.Total(),
		Status:    ledger.StatusProcessing,
		CreatedAt: in.Now,
		Address:   in.Form.Address,
	}
	return Result{
		Phase:  Confirmed,
		Cart:   in.Cart.Clear(),
		Ledger: in.Ledger.Append(order),
		Order:  order,
	}, nil
}
