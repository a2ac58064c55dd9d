// Package shell is a line-oriented front end for the storefront.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/abgdnv/shophub/internal/storefront/app"
	"github.com/abgdnv/shophub/internal/storefront/checkout"
	"github.com/spf13/cobra"
)

// Runtime is the part of app.Runtime the shell drives.
type Runtime interface {
	Dispatch(ctx context.Context, cmd app.Command) (app.State, error)
	WaitIdle(ctx context.Context) (app.State, error)
	State() app.State
}

// Shell reads commands line by line and prints the resulting state.
type Shell struct {
	rt     Runtime
	out    io.Writer
	logger *slog.Logger
	quit   bool
}

func New(rt Runtime, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{rt: rt, out: out, logger: logger.With("component", "shell")}
}

// Run processes lines from in until EOF, a quit command or ctx cancellation.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(sh.out, "Welcome to ShopHub. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, prompt(sh.rt.State()))
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		if err := sh.Exec(ctx, scanner.Text()); err != nil {
			return err
		}
		if sh.quit || ctx.Err() != nil {
			return nil
		}
	}
}

// Exec runs a single line. Usage errors are printed; only a stopped runtime is returned as an error.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	// A fresh tree per line keeps cobra's parsed flag state from leaking between lines.
	root := sh.commands()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil || errors.Is(err, app.ErrStopped):
		return err
	default:
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return nil
	}
}

func (sh *Shell) dispatch(ctx context.Context, cmds ...app.Command) (app.State, error) {
	var s app.State
	for _, c := range cmds {
		var err error
		if s, err = sh.rt.Dispatch(ctx, c); err != nil {
			return s, err
		}
	}
	return s, nil
}

// show dispatches cmds, prints the notice and dismisses it.
func (sh *Shell) show(ctx context.Context, cmds ...app.Command) (app.State, error) {
	s, err := sh.dispatch(ctx, cmds...)
	if err != nil {
		return s, err
	}
	renderNotice(sh.out, s)
	if s.Notice != nil {
		return sh.rt.Dispatch(ctx, app.DismissNotice{})
	}
	return s, nil
}

func productID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func (sh *Shell) productCommand(use, short string, build func(id int64) []app.Command, after func(app.State)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := productID(args[0])
			if err != nil {
				return err
			}
			s, err := sh.show(cmd.Context(), build(id)...)
			if err != nil {
				return err
			}
			if after != nil {
				after(s)
			}
			return nil
		},
	}
}

func (sh *Shell) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetOut(sh.out)
	root.SetErr(sh.out)

	printCart := func(s app.State) { renderCart(sh.out, s) }

	root.AddCommand(
		&cobra.Command{
			Use:   "products [query]",
			Short: "List products, optionally filtered by name or category",
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := sh.dispatch(cmd.Context(), app.Search{Query: strings.Join(args, " ")}, app.Navigate{Page: app.PageHome})
				if err != nil {
					return err
				}
				renderProducts(sh.out, s.Products())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show product details",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := productID(args[0])
				if err != nil {
					return err
				}
				s, err := sh.show(cmd.Context(), app.SelectProduct{ProductID: id})
				if err != nil {
					return err
				}
				if s.Selected != nil && s.Selected.ID == id {
					renderProduct(sh.out, *s.Selected)
				}
				return nil
			},
		},
		sh.productCommand("add", "Add one unit to the cart", func(id int64) []app.Command {
			return []app.Command{app.AddToCart{ProductID: id}}
		}, nil),
		sh.productCommand("buy", "Add one unit and open the cart", func(id int64) []app.Command {
			return []app.Command{app.BuyNow{ProductID: id}}
		}, func(s app.State) {
			if s.Page == app.PageCart {
				renderCart(sh.out, s)
			}
		}),
		sh.productCommand("inc", "Increase the quantity of a cart line", func(id int64) []app.Command {
			return []app.Command{app.AdjustQuantity{ProductID: id, Delta: 1}}
		}, printCart),
		sh.productCommand("dec", "Decrease the quantity of a cart line", func(id int64) []app.Command {
			return []app.Command{app.AdjustQuantity{ProductID: id, Delta: -1}}
		}, printCart),
		sh.productCommand("rm", "Remove a line from the cart", func(id int64) []app.Command {
			return []app.Command{app.RemoveFromCart{ProductID: id}}
		}, printCart),
		&cobra.Command{
			Use:   "cart",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := sh.dispatch(cmd.Context(), app.Navigate{Page: app.PageCart})
				if err != nil {
					return err
				}
				renderCart(sh.out, s)
				return nil
			},
		},
		&cobra.Command{
			Use:   "checkout <address...>",
			Short: "Place an order shipped to the given address",
			RunE: func(cmd *cobra.Command, args []string) error {
				current := sh.rt.State()
				form := checkout.Form{Address: strings.Join(args, " ")}
				if id := current.Session.Identity; id != nil {
					form.FullName, form.Email = id.Name, id.Email
				}
				s, err := sh.show(cmd.Context(), app.Navigate{Page: app.PageCheckout}, app.SetCheckoutForm{Form: form}, app.Checkout{})
				if err != nil {
					return err
				}
				if order, ok := s.Orders.Last(); ok && s.Page == app.PageOrderConfirmation {
					renderOrder(sh.out, order)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "orders",
			Short: "List the orders placed in this session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := sh.dispatch(cmd.Context(), app.Navigate{Page: app.PageOrders})
				if err != nil {
					return err
				}
				renderOrders(sh.out, s)
				return nil
			},
		},
		&cobra.Command{
			Use:   "login <email> <password>",
			Short: "Sign in",
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				form := app.LoginForm{Email: arg(args, 0), Password: arg(args, 1)}
				return sh.authenticate(cmd.Context(), app.Navigate{Page: app.PageLogin}, app.SetLoginForm{Form: form}, app.SubmitLogin{})
			},
		},
		&cobra.Command{
			Use:   "register <name> <email> <password>",
			Short: "Create an account",
			Args:  cobra.MaximumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				form := app.RegisterForm{Name: arg(args, 0), Email: arg(args, 1), Password: arg(args, 2)}
				return sh.authenticate(cmd.Context(), app.Navigate{Page: app.PageRegister}, app.SetRegisterForm{Form: form}, app.SubmitRegister{})
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out and clear the cart and orders",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := sh.show(cmd.Context(), app.Logout{})
				return err
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				s := sh.rt.State()
				if !s.Session.Present() {
					fmt.Fprintln(sh.out, "Not logged in")
					return
				}
				fmt.Fprintf(sh.out, "%s <%s>\n", s.Session.Identity.Name, s.Session.Identity.Email)
			},
		},
		&cobra.Command{
			Use:     "quit",
			Aliases: []string{"exit"},
			Short:   "Leave the shell",
			Args:    cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				sh.quit = true
			},
		},
	)
	return root
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (sh *Shell) authenticate(ctx context.Context, cmds ...app.Command) error {
	s, err := sh.dispatch(ctx, cmds...)
	if err != nil {
		return err
	}
	if s.Pending > 0 {
		fmt.Fprintln(sh.out, "Contacting the auth service...")
		if s, err = sh.rt.WaitIdle(ctx); err != nil {
			return err
		}
	}
	renderNotice(sh.out, s)
	if s.Notice != nil {
		_, err = sh.rt.Dispatch(ctx, app.DismissNotice{})
	}
	sh.logger.DebugContext(ctx, "authentication finished", "signed_in", s.Session.Present())
	return err
}
