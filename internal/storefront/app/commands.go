package app

import (
	"time"

	"github.com/abgdnv/shophub/internal/storefront/checkout"
	"github.com/abgdnv/shophub/internal/storefront/session"
)

// Command is a user action or the completion of a Task.
type Command interface {
	command()
}

type Navigate struct{ Page Page }

type Search struct{ Query string }

type SelectProduct struct{ ProductID int64 }

type AddToCart struct{ ProductID int64 }

// BuyNow adds one unit and opens the cart. Products out of stock are refused.
type BuyNow struct{ ProductID int64 }

type AdjustQuantity struct {
	ProductID int64
	Delta     int
}

type RemoveFromCart struct{ ProductID int64 }

type SetLoginForm struct{ Form LoginForm }

type SetRegisterForm struct{ Form RegisterForm }

type SetCheckoutForm struct{ Form checkout.Form }

type SubmitLogin struct{}

type SubmitRegister struct{}

// AuthCompleted reports the outcome of an AuthTask.
type AuthCompleted struct {
	Kind     AuthKind
	Identity session.Identity
	Token    string
	Err      error
}

// Checkout places the order. Now stamps the order date.
type Checkout struct{ Now time.Time }

type Logout struct{}

type DismissNotice struct{}

func (Navigate) command()        {}
func (Search) command()          {}
func (SelectProduct) command()   {}
func (AddToCart) command()       {}
func (BuyNow) command()          {}
func (AdjustQuantity) command()  {}
func (RemoveFromCart) command()  {}
func (SetLoginForm) command()    {}
func (SetRegisterForm) command() {}
func (SetCheckoutForm) command() {}
func (SubmitLogin) command()     {}
func (SubmitRegister) command()  {}
func (AuthCompleted) command()   {}
func (Checkout) command()        {}
func (Logout) command()          {}
func (DismissNotice) command()   {}

type AuthKind int

const (
	AuthLogin AuthKind = iota
	AuthRegister
)

// Task is a side effect requested by Reduce.
type Task interface {
	task()
}

// AuthTask calls the auth service. Its result comes back as AuthCompleted.
type AuthTask struct {
	Kind     AuthKind
	Name     string
	Email    string
	Password string
}

// SaveSession writes the session to durable storage.
type SaveSession struct{ Session session.Session }

// ClearSession removes the session from durable storage.
type ClearSession struct{}

func (AuthTask) task()     {}
func (SaveSession) task()  {}
func (ClearSession) task() {}
