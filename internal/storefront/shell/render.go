package shell

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/abgdnv/shophub/internal/storefront/app"
	"github.com/abgdnv/shophub/internal/storefront/catalog"
	"github.com/abgdnv/shophub/internal/storefront/ledger"
)

const dateLayout = "02/01/2006"

func renderNotice(w io.Writer, s app.State) {
	if s.Notice == nil {
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", s.Notice.Level, s.Notice.Message)
}

func renderProducts(w io.Writer, products []catalog.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "#%d\t%s %s\t%s\t%s\tstock %d\n", p.ID, p.Image, p.Name, p.Category, app.FormatPrice(p.Price), p.Stock)
	}
	_ = tw.Flush()
}

func renderProduct(w io.Writer, p catalog.Product) {
	fmt.Fprintf(w, "%s %s (#%d)\n", p.Image, p.Name, p.ID)
	fmt.Fprintf(w, "  %s\n", p.Description)
	fmt.Fprintf(w, "  Category: %s\n", p.Category)
	fmt.Fprintf(w, "  Price: %s\n", app.FormatPrice(p.Price))
	if p.InStock() {
		fmt.Fprintf(w, "  In stock: %d\n", p.Stock)
	} else {
		fmt.Fprintln(w, "  Out of stock")
	}
}

func renderCart(w io.Writer, s app.State) {
	if s.Cart.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range s.Cart.Lines() {
		fmt.Fprintf(tw, "#%d\t%s\tx %d\t%s\n", l.Product.ID, l.Product.Name, l.Quantity, app.FormatPrice(l.Subtotal()))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Items: %d  Total: %s\n", s.Cart.Count(), app.FormatPrice(s.Cart.Total()))
}

func renderOrder(w io.Writer, o ledger.Order) {
	fmt.Fprintf(w, "Order #%s  %s  %s\n", o.Number(), o.CreatedAt.Format(dateLayout), o.Status)
	for _, l := range o.Lines {
		fmt.Fprintf(w, "  %s x %d  %s\n", l.Product.Name, l.Quantity, app.FormatPrice(l.Subtotal()))
	}
	if o.Address != "" {
		fmt.Fprintf(w, "  Ship to: %s\n", o.Address)
	}
	fmt.Fprintf(w, "  Total: %s\n", app.FormatPrice(o.Total))
}

func renderOrders(w io.Writer, s app.State) {
	orders := s.Orders.All()
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders yet")
		return
	}
	for _, o := range orders {
		renderOrder(w, o)
	}
}

func prompt(s app.State) string {
	var b strings.Builder
	b.WriteString("shophub")
	if s.Session.Present() {
		b.WriteString(" (" + s.Session.Name() + ")")
	}
	if n := s.Cart.Count(); n > 0 {
		b.WriteString(fmt.Sprintf(" cart:%d", n))
	}
	b.WriteString("> ")
	return b.String()
}
