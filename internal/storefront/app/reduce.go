package app

import (
	"errors"
	"fmt"

	"github.com/abgdnv/shophub/internal/storefront/authclient"
	"github.com/abgdnv/shophub/internal/storefront/cart"
	"github.com/abgdnv/shophub/internal/storefront/checkout"
	"github.com/abgdnv/shophub/internal/storefront/ledger"
	"github.com/abgdnv/shophub/internal/storefront/session"
)

const (
	MsgFillAllFields   = "Please fill in all fields"
	MsgItemRemoved     = "Item removed from cart"
	MsgLoginToCheckout = "Please login to checkout"
	MsgEmptyCart       = "Your cart is empty"
	MsgOrderPlaced     = "Order placed successfully!"
	MsgLoggedOut       = "Logged out successfully"
	MsgOutOfStock      = "This product is out of stock"
	MsgUnknownProduct  = "Product not found"
	MsgServerDown      = "Unable to reach the server. Please try again later"
)

func notice(level Level, format string, args ...any) *Notice {
	return &Notice{Level: level, Message: fmt.Sprintf(format, args...)}
}

// Reduce applies cmd to s. It never performs I/O; side effects are returned as tasks.
func Reduce(s State, cmd Command) (State, []Task) {
	switch c := cmd.(type) {
	case Navigate:
		s.Page = c.Page
		if c.Page != PageOrderConfirmation {
			s.Phase = checkout.Browsing
		}
		return s, nil

	case Search:
		s.Query = c.Query
		return s, nil

	case SelectProduct:
		p, ok := s.Catalog.FindByID(c.ProductID)
		if !ok {
			s.Notice = notice(LevelError, MsgUnknownProduct)
			return s, nil
		}
		s.Selected = &p
		s.Page = PageProductDetail
		return s, nil

	case AddToCart:
		p, ok := s.Catalog.FindByID(c.ProductID)
		if !ok {
			s.Notice = notice(LevelError, MsgUnknownProduct)
			return s, nil
		}
		s.Cart = s.Cart.Add(p)
		s.Notice = notice(LevelSuccess, "Added %s to cart", p.Name)
		return s, nil

	case BuyNow:
		p, ok := s.Catalog.FindByID(c.ProductID)
		if !ok {
			s.Notice = notice(LevelError, MsgUnknownProduct)
			return s, nil
		}
		if !p.InStock() {
			s.Notice = notice(LevelError, MsgOutOfStock)
			return s, nil
		}
		s.Cart = s.Cart.Add(p)
		s.Notice = notice(LevelSuccess, "Added %s to cart", p.Name)
		s.Page = PageCart
		return s, nil

	case AdjustQuantity:
		s.Cart = s.Cart.Adjust(c.ProductID, c.Delta)
		return s, nil

	case RemoveFromCart:
		s.Cart = s.Cart.Remove(c.ProductID)
		s.Notice = notice(LevelInfo, MsgItemRemoved)
		return s, nil

	case SetLoginForm:
		s.LoginForm = c.Form
		return s, nil

	case SetRegisterForm:
		s.RegisterForm = c.Form
		return s, nil

	case SetCheckoutForm:
		s.CheckoutForm = c.Form
		return s, nil

	case SubmitLogin:
		if !s.LoginForm.complete() {
			s.Notice = notice(LevelError, MsgFillAllFields)
			return s, nil
		}
		s.Pending++
		return s, []Task{AuthTask{Kind: AuthLogin, Email: s.LoginForm.Email, Password: s.LoginForm.Password}}

	case SubmitRegister:
		f := s.RegisterForm
		if !f.complete() {
			s.Notice = notice(LevelError, MsgFillAllFields)
			return s, nil
		}
		s.Pending++
		return s, []Task{AuthTask{Kind: AuthRegister, Name: f.Name, Email: f.Email, Password: f.Password}}

	case AuthCompleted:
		return completeAuth(s, c)

	case Checkout:
		return placeOrder(s, c)

	case Logout:
		s.Session = session.Session{}
		s.Cart = cart.Cart{}
		s.Orders = ledger.Ledger{}
		s.Selected = nil
		s.Phase = checkout.Browsing
		s.Page = PageHome
		s.Notice = notice(LevelInfo, MsgLoggedOut)
		return s, []Task{ClearSession{}}

	case DismissNotice:
		s.Notice = nil
		return s, nil
	}
	return s, nil
}

func completeAuth(s State, c AuthCompleted) (State, []Task) {
	if s.Pending > 0 {
		s.Pending--
	}
	if c.Err != nil {
		s.Notice = notice(LevelError, "%s", authErrorMessage(c.Err))
		return s, nil
	}
	s.Session = session.New(c.Identity, c.Token)
	s.Page = PageHome
	if s.Phase == checkout.AwaitingLogin {
		s.Phase = checkout.Browsing
	}
	switch c.Kind {
	case AuthRegister:
		s.RegisterForm = RegisterForm{}
		s.Notice = notice(LevelSuccess, "Welcome, %s!", c.Identity.Name)
	default:
		s.LoginForm = LoginForm{}
		s.Notice = notice(LevelSuccess, "Welcome back, %s!", c.Identity.Name)
	}
	return s, []Task{SaveSession{Session: s.Session}}
}

func authErrorMessage(err error) string {
	var apiErr *authclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgServerDown
}

func placeOrder(s State, c Checkout) (State, []Task) {
	res, err := checkout.Place(checkout.Input{
		Cart:    s.Cart,
		Session: s.Session,
		Ledger:  s.Orders,
		Form:    s.CheckoutForm,
		Now:     c.Now,
	})
	s.Phase = res.Phase
	switch {
	case errors.Is(err, checkout.ErrLoginRequired):
		s.Page = PageLogin
		s.Notice = notice(LevelWarning, MsgLoginToCheckout)
		return s, nil
	case errors.Is(err, checkout.ErrEmptyCart):
		s.Notice = notice(LevelError, MsgEmptyCart)
		return s, nil
	}
	s.Cart = res.Cart
	s.Orders = res.Ledger
	s.CheckoutForm = checkout.Form{}
	s.Page = PageOrderConfirmation
	s.Notice = notice(LevelSuccess, MsgOrderPlaced)
	return s, nil
}
