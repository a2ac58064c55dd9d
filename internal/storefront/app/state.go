// Package app holds the storefront state and the commands that change it.
//
// Reduce is a pure function from (State, Command) to the next State plus the side effects to run.
// Runtime serializes commands on one goroutine and runs the side effects.
package app

import (
	"github.com/abgdnv/shophub/internal/storefront/cart"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/checkout"
	"github.com/abgdnv/shophub/internal/storefront/ledger"
	"github.com/abgdnv/shophub/internal/storefront/session"
)

type Page string

const (
	PageHome              Page = "home"
	PageProductDetail     Page = "productDetail"
	PageCart              Page = "cart"
	PageCheckout          Page = "checkout"
	PageOrderConfirmation Page = "orderConfirmation"
	PageOrders            Page = "orders"
	PageLogin             Page = "login"
	PageRegister          Page = "register"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   Level
	Message string
}

type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) complete() bool {
	return f.Email != "" && f.Password != ""
}

type RegisterForm struct {
	Name     string
	Email    string
	Password string
}

func (f RegisterForm) complete() bool {
	return f.Name != "" && f.Email != "" && f.Password != ""
}

// State is everything the storefront shows.
type State struct {
	Page         Page
	Catalog      catalog.Catalog
	Query        string
	Selected     *catalog.Product
	Cart         cart.Cart
	Session      session.Session
	Orders       ledger.Ledger
	LoginForm    LoginForm
	RegisterForm RegisterForm
	CheckoutForm checkout.Form
	Phase        checkout.Phase
	Notice       *Notice
	// Pending counts authentication requests still in flight.
	Pending int
}

// NewState returns the initial state for the given catalog and restored session.
func NewState(c catalog.Catalog, s session.Session) State {
	return State{
		Page:    PageHome,
		Catalog: c,
		Session: s,
		Phase:   checkout.Browsing,
	}
}

// Products returns the catalog entries matching the current search query.
func (s State) Products() []catalog.Product {
	return s.Catalog.Filter(s.Query)
}
