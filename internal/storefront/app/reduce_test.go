package app

import (
	"errors"
	"testing"
	"time"

	"github.com/abgdnv/shophub/internal/storefront/authclient"
	"github.com/abgdnv/shophub/internal/storefront/cart"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/checkout"
	"github.com/abgdnv/shophub/internal/storefront/ledger"
	"github.com/abgdnv/shophub/internal/storefront/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderTime = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	jane      = session.Identity{ID: "u-1", Name: "Jane", Email: "jane@example.com"}
)

func signedIn() State {
	return NewState(catalog.Seed(), session.New(jane, "jwt"))
}

func anonymous() State {
	return NewState(catalog.Seed(), session.Session{})
}

func reduceAll(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, c := range cmds {
		s, _ = Reduce(s, c)
	}
	return s
}

func Test_Reduce_AddToCart(t *testing.T) {
	// when
	s := reduceAll(t, anonymous(), AddToCart{ProductID: 1}, AddToCart{ProductID: 1})

	// then
	lines := s.Cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, &Notice{Level: LevelSuccess, Message: "Added Wireless Headphones to cart"}, s.Notice)
}

func Test_Reduce_UnknownProduct(t *testing.T) {
	for _, cmd := range []Command{AddToCart{ProductID: 99}, BuyNow{ProductID: 99}, SelectProduct{ProductID: 99}} {
		// when
		s, tasks := Reduce(anonymous(), cmd)

		// then
		assert.Empty(t, tasks)
		assert.True(t, s.Cart.IsEmpty())
		assert.Equal(t, PageHome, s.Page)
		assert.Equal(t, LevelError, s.Notice.Level)
	}
}

func Test_Reduce_BuyNow(t *testing.T) {
	// given
	soldOut := catalog.Product{ID: 50, Name: "Sold Out", Price: 10, Stock: 0}
	s := NewState(catalog.New(append(catalog.Seed().All(), soldOut)), session.Session{})

	// when
	bought := reduceAll(t, s, BuyNow{ProductID: 2})
	refused := reduceAll(t, s, BuyNow{ProductID: 50})

	// then
	assert.Equal(t, PageCart, bought.Page)
	assert.Equal(t, 1, bought.Cart.Count())
	assert.Equal(t, PageHome, refused.Page)
	assert.True(t, refused.Cart.IsEmpty())
	assert.Equal(t, MsgOutOfStock, refused.Notice.Message)
}

func Test_Reduce_CartEditing(t *testing.T) {
	// given
	s := reduceAll(t, anonymous(), AddToCart{ProductID: 1}, AddToCart{ProductID: 7})

	// when
	inc := reduceAll(t, s, AdjustQuantity{ProductID: 1, Delta: 1})
	dec := reduceAll(t, s, AdjustQuantity{ProductID: 7, Delta: -1})
	removed := reduceAll(t, s, RemoveFromCart{ProductID: 1})
	removedMissing := reduceAll(t, s, RemoveFromCart{ProductID: 42})

	// then
	assert.Equal(t, 3, inc.Cart.Count())
	assert.Equal(t, s.Cart.Lines(), dec.Cart.Lines(), "decrement to zero keeps the line")
	assert.Equal(t, 1, removed.Cart.Count())
	assert.Equal(t, &Notice{Level: LevelInfo, Message: MsgItemRemoved}, removed.Notice)
	assert.Equal(t, s.Cart.Lines(), removedMissing.Cart.Lines())
}

func Test_Reduce_SearchAndSelect(t *testing.T) {
	// when
	s := reduceAll(t, anonymous(), Search{Query: "sports"}, SelectProduct{ProductID: 7})

	// then
	assert.Len(t, s.Products(), 2)
	assert.Equal(t, PageProductDetail, s.Page)
	require.NotNil(t, s.Selected)
	assert.Equal(t, "Yoga Mat", s.Selected.Name)
}

func Test_Reduce_Checkout(t *testing.T) {
	testCases := []struct {
		name          string
		state         State
		expectedPage  Page
		expectedPhase checkout.Phase
		expectedMsg   string
		expectedLen   int
		cartEmptied   bool
	}{
		{
			name:          "anonymous user is sent to login",
			state:         reduceAll(t, anonymous(), AddToCart{ProductID: 1}, Navigate{Page: PageCheckout}),
			expectedPage:  PageLogin,
			expectedPhase: checkout.AwaitingLogin,
			expectedMsg:   MsgLoginToCheckout,
			expectedLen:   0,
		},
		{
			name:          "empty cart",
			state:         reduceAll(t, signedIn(), Navigate{Page: PageCheckout}),
			expectedPage:  PageCheckout,
			expectedPhase: checkout.Browsing,
			expectedMsg:   MsgEmptyCart,
			expectedLen:   0,
		},
		{
			name: "order placed",
			state: reduceAll(t, signedIn(), AddToCart{ProductID: 1}, Navigate{Page: PageCheckout},
				SetCheckoutForm{Form: checkout.Form{FullName: "Jane", Address: "1 Main St"}}),
			expectedPage:  PageOrderConfirmation,
			expectedPhase: checkout.Confirmed,
			expectedMsg:   MsgOrderPlaced,
			expectedLen:   1,
			cartEmptied:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			s, tasks := Reduce(tc.state, Checkout{Now: orderTime})

			// then
			assert.Empty(t, tasks)
			assert.Equal(t, tc.expectedPage, s.Page)
			assert.Equal(t, tc.expectedPhase, s.Phase)
			assert.Equal(t, tc.expectedMsg, s.Notice.Message)
			assert.Equal(t, tc.expectedLen, s.Orders.Len())
			if tc.cartEmptied {
				assert.True(t, s.Cart.IsEmpty())
				assert.Equal(t, checkout.Form{}, s.CheckoutForm)
			} else {
				assert.Equal(t, tc.state.Cart.Lines(), s.Cart.Lines())
			}
		})
	}
}

func Test_Reduce_CheckoutRecordsOrder(t *testing.T) {
	// given
	s := signedIn()
	s.Cart = cart.Of(
		cart.Line{Product: catalog.Product{ID: 1, Price: 100}, Quantity: 2},
		cart.Line{Product: catalog.Product{ID: 2, Price: 50}, Quantity: 1},
	)
	s.CheckoutForm = checkout.Form{Address: "221B Baker Street"}

	// when
	next, _ := Reduce(s, Checkout{Now: orderTime})

	// then
	order, ok := next.Orders.Last()
	require.True(t, ok)
	assert.Equal(t, int64(250), order.Total)
	assert.Equal(t, "000001", order.Number())
	assert.Equal(t, ledger.StatusProcessing, order.Status)
	assert.Equal(t, orderTime, order.CreatedAt)
	assert.Equal(t, "221B Baker Street", order.Address)
}

func Test_Reduce_SubmitLogin(t *testing.T) {
	testCases := []struct {
		name          string
		form          LoginForm
		expectedTasks []Task
		expectedMsg   string
	}{
		{name: "missing password", form: LoginForm{Email: "jane@example.com"}, expectedMsg: MsgFillAllFields},
		{name: "missing email", form: LoginForm{Password: "secret"}, expectedMsg: MsgFillAllFields},
		{
			name:          "complete form",
			form:          LoginForm{Email: "jane@example.com", Password: "secret"},
			expectedTasks: []Task{AuthTask{Kind: AuthLogin, Email: "jane@example.com", Password: "secret"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			s, tasks := Reduce(reduceAll(t, anonymous(), SetLoginForm{Form: tc.form}), SubmitLogin{})

			// then
			assert.Equal(t, tc.expectedTasks, tasks)
			assert.False(t, s.Session.Present())
			if tc.expectedMsg != "" {
				assert.Equal(t, &Notice{Level: LevelError, Message: tc.expectedMsg}, s.Notice)
				assert.Zero(t, s.Pending)
			} else {
				assert.Equal(t, 1, s.Pending)
			}
		})
	}
}

func Test_Reduce_SubmitRegister(t *testing.T) {
	// given
	form := RegisterForm{Name: "Jane", Email: "jane@example.com", Password: "secret"}

	// when
	_, incomplete := Reduce(reduceAll(t, anonymous(), SetRegisterForm{Form: RegisterForm{Name: "Jane"}}), SubmitRegister{})
	s, tasks := Reduce(reduceAll(t, anonymous(), SetRegisterForm{Form: form}), SubmitRegister{})

	// then
	assert.Empty(t, incomplete)
	assert.Equal(t, []Task{AuthTask{Kind: AuthRegister, Name: "Jane", Email: "jane@example.com", Password: "secret"}}, tasks)
	assert.Equal(t, 1, s.Pending)
}

func Test_Reduce_AuthCompleted(t *testing.T) {
	testCases := []struct {
		name        string
		cmd         AuthCompleted
		expectedMsg string
		signedIn    bool
	}{
		{name: "login", cmd: AuthCompleted{Kind: AuthLogin, Identity: jane, Token: "jwt"}, expectedMsg: "Welcome back, Jane!", signedIn: true},
		{name: "register", cmd: AuthCompleted{Kind: AuthRegister, Identity: jane, Token: "jwt"}, expectedMsg: "Welcome, Jane!", signedIn: true},
		{
			name:        "rejected by the service",
			cmd:         AuthCompleted{Kind: AuthLogin, Err: &authclient.APIError{Status: 400, Message: "Invalid credentials"}},
			expectedMsg: "Invalid credentials",
		},
		{
			name:        "transport failure",
			cmd:         AuthCompleted{Kind: AuthRegister, Err: errors.Join(authclient.ErrUnavailable, errors.New("connection refused"))},
			expectedMsg: MsgServerDown,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			s := reduceAll(t, anonymous(),
				Navigate{Page: PageLogin},
				SetLoginForm{Form: LoginForm{Email: "jane@example.com", Password: "secret"}},
				SetRegisterForm{Form: RegisterForm{Name: "Jane", Email: "jane@example.com", Password: "secret"}},
				SubmitLogin{})

			// when
			next, tasks := Reduce(s, tc.cmd)

			// then
			assert.Zero(t, next.Pending)
			assert.Equal(t, tc.expectedMsg, next.Notice.Message)
			assert.Equal(t, tc.signedIn, next.Session.Present())
			if !tc.signedIn {
				assert.Empty(t, tasks)
				assert.Equal(t, PageLogin, next.Page)
				assert.Equal(t, s.LoginForm, next.LoginForm)
				return
			}
			assert.Equal(t, PageHome, next.Page)
			assert.Equal(t, []Task{SaveSession{Session: next.Session}}, tasks)
			if tc.cmd.Kind == AuthLogin {
				assert.Equal(t, LoginForm{}, next.LoginForm)
			} else {
				assert.Equal(t, RegisterForm{}, next.RegisterForm)
			}
		})
	}
}

func Test_Reduce_LogoutClearsEverything(t *testing.T) {
	// given
	s := reduceAll(t, signedIn(), AddToCart{ProductID: 1}, Checkout{Now: orderTime}, AddToCart{ProductID: 3}, AddToCart{ProductID: 4})
	require.Equal(t, 1, s.Orders.Len())
	require.False(t, s.Cart.IsEmpty())

	// when
	next, tasks := Reduce(s, Logout{})

	// then
	assert.False(t, next.Session.Present())
	assert.Empty(t, next.Session.Token)
	assert.True(t, next.Cart.IsEmpty())
	assert.Zero(t, next.Orders.Len())
	assert.Equal(t, PageHome, next.Page)
	assert.Equal(t, &Notice{Level: LevelInfo, Message: MsgLoggedOut}, next.Notice)
	assert.Equal(t, []Task{ClearSession{}}, tasks)
}

func Test_Reduce_DismissNotice(t *testing.T) {
	s := reduceAll(t, anonymous(), AddToCart{ProductID: 1}, DismissNotice{})
	assert.Nil(t, s.Notice)
}

func Test_Reduce_DoesNotMutateInput(t *testing.T) {
	// given
	s := reduceAll(t, signedIn(), AddToCart{ProductID: 1})

	// when
	_, _ = Reduce(s, Checkout{Now: orderTime})
	_, _ = Reduce(s, Logout{})

	// then
	assert.Equal(t, 1, s.Cart.Count())
	assert.Zero(t, s.Orders.Len())
	assert.True(t, s.Session.Present())
}
