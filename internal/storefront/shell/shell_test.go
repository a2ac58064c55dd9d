package shell

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/abgdnv/shophub/internal/storefront/app"
	"github.com/abgdnv/shophub/internal/storefront/authclient"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, email, password string) (*authclient.AuthResponse, error) {
	if password != "secret" {
		return nil, &authclient.APIError{Status: 400, Message: "Invalid credentials"}
	}
	return &authclient.AuthResponse{Token: "jwt", User: authclient.User{ID: "u-1", Name: "Jane", Email: email}}, nil
}

func (stubAuth) Register(_ context.Context, name, email, _ string) (*authclient.AuthResponse, error) {
	return &authclient.AuthResponse{Token: "jwt", User: authclient.User{ID: "u-2", Name: name, Email: email}}, nil
}

func newTestShell(t *testing.T) (*Shell, *app.Runtime, *bytes.Buffer) {
	t.Helper()
	rt := app.NewRuntime(catalog.Seed(), stubAuth{}, session.NewMemoryStore(), testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = rt.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	out := &bytes.Buffer{}
	return New(rt, out, testLogger), rt, out
}

func exec(t *testing.T, sh *Shell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, sh.Exec(context.Background(), line))
	return out.String()
}

func Test_Shell_Products(t *testing.T) {
	// given
	sh, _, out := newTestShell(t)

	// when
	all := exec(t, sh, out, "products")
	sports := exec(t, sh, out, "products sports")
	none := exec(t, sh, out, "products bicycle")

	// then
	assert.Contains(t, all, "Wireless Headphones")
	assert.Contains(t, all, "₹6,799")
	assert.Equal(t, 8, strings.Count(all, "\n"))
	assert.Contains(t, sports, "Yoga Mat")
	assert.NotContains(t, sports, "Desk Lamp")
	assert.Equal(t, "No products found\n", none)
}

func Test_Shell_CartCommands(t *testing.T) {
	// given
	sh, rt, out := newTestShell(t)

	// when
	added := exec(t, sh, out, "add 1")
	exec(t, sh, out, "add 7")
	exec(t, sh, out, "inc 7")
	removed := exec(t, sh, out, "rm 1")
	cart := exec(t, sh, out, "cart")

	// then
	assert.Equal(t, "[success] Added Wireless Headphones to cart\n", added)
	assert.Contains(t, removed, "[info] Item removed from cart")
	assert.Contains(t, cart, "Yoga Mat")
	assert.Contains(t, cart, "Items: 2  Total: ₹5,950")
	assert.Nil(t, rt.State().Notice)
}

func Test_Shell_InvalidInput(t *testing.T) {
	// given
	sh, _, out := newTestShell(t)

	// when
	badID := exec(t, sh, out, "add abc")
	unknown := exec(t, sh, out, "fly")
	missing := exec(t, sh, out, "show 99")

	// then
	assert.Contains(t, badID, `error: invalid product id "abc"`)
	assert.Contains(t, unknown, "error: unknown command")
	assert.Equal(t, "[error] Product not found\n", missing)
}

func Test_Shell_CheckoutRequiresLogin(t *testing.T) {
	// given
	sh, rt, out := newTestShell(t)
	exec(t, sh, out, "add 1")

	// when
	got := exec(t, sh, out, "checkout 1 Main St")

	// then
	assert.Equal(t, "[warning] Please login to checkout\n", got)
	assert.Equal(t, app.PageLogin, rt.State().Page)
	assert.Equal(t, 1, rt.State().Cart.Count())
}

func Test_Shell_LoginCheckoutLogout(t *testing.T) {
	// given
	sh, rt, out := newTestShell(t)

	// when
	rejected := exec(t, sh, out, "login jane@example.com wrong")
	incomplete := exec(t, sh, out, "login jane@example.com")
	welcome := exec(t, sh, out, "login jane@example.com secret")
	exec(t, sh, out, "add 1")
	exec(t, sh, out, "add 3")
	placed := exec(t, sh, out, "checkout 1 Main St")
	orders := exec(t, sh, out, "orders")
	who := exec(t, sh, out, "whoami")
	bye := exec(t, sh, out, "logout")

	// then
	assert.Contains(t, rejected, "[error] Invalid credentials")
	assert.Contains(t, incomplete, "[error] Please fill in all fields")
	assert.Contains(t, welcome, "[success] Welcome back, Jane!")
	assert.Contains(t, placed, "[success] Order placed successfully!")
	assert.Contains(t, placed, "Order #000001")
	assert.Contains(t, placed, "Ship to: 1 Main St")
	assert.Contains(t, orders, "Order #000001")
	assert.Equal(t, "Jane <jane@example.com>\n", who)
	assert.Equal(t, "[info] Logged out successfully\n", bye)
	assert.False(t, rt.State().Session.Present())
	assert.Zero(t, rt.State().Orders.Len())
}

func Test_Shell_Register(t *testing.T) {
	// given
	sh, rt, out := newTestShell(t)

	// when
	got := exec(t, sh, out, "register John john@example.com secret")

	// then
	assert.Contains(t, got, "[success] Welcome, John!")
	assert.Equal(t, "John", rt.State().Session.Name())
}

func Test_Shell_Run(t *testing.T) {
	// given
	sh, _, out := newTestShell(t)
	in := strings.NewReader("add 2\n\nwhoami\nquit\nadd 3\n")

	// when
	err := sh.Run(context.Background(), in)

	// then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added Smart Watch to cart")
	assert.Contains(t, out.String(), "shophub cart:1> ")
	assert.Contains(t, out.String(), "Not logged in")
	assert.NotContains(t, out.String(), "Laptop Backpack")
}
