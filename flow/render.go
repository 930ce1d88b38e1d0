package flow

import (
	"fmt"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/core"
)

func reply(format string, args ...any) []core.Reply {
	return []core.Reply{{Text: fmt.Sprintf(format, args...)}}
}

func renderProducts(products []core.Product) string {
	if len(products) == 0 {
		return "No products matched your search. Try different words."
	}
	var b strings.Builder
	b.WriteString("Here is what I found:\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s (%s) at %s\n", i+1, p.Description, p.Code, core.FormatPrice(p.Price))
	}
	b.WriteString("Reply with a number to pick one.")
	return b.String()
}

func renderCart(snap core.CartSnapshot) string {
	if snap.Empty() {
		return "Your cart is empty."
	}
	var b strings.Builder
	b.WriteString("Your cart:\n")
	for i, l := range snap.Lines {
		fmt.Fprintf(&b, "%d. %s x%d %s\n", i+1, l.Description, l.Quantity, core.FormatPrice(l.Subtotal()))
	}
	fmt.Fprintf(&b, "Total: %s", core.FormatPrice(snap.Total()))
	return b.String()
}

func renderOrder(order core.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s confirmed.\n", order.ID)
	for _, l := range order.Lines {
		fmt.Fprintf(&b, "%s x%d %s\n", l.Description, l.Quantity, core.FormatPrice(l.Subtotal))
	}
	fmt.Fprintf(&b, "Total: %s. Thank you!", core.FormatPrice(order.Total))
	return b.String()
}

func renderStaged(products []core.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Parsed %d products:\n", len(products))
	limit := len(products)
	if limit > 10 {
		limit = 10
	}
	for _, p := range products[:limit] {
		fmt.Fprintf(&b, "%s %s %s stock=%d\n", p.Code, p.Description, core.FormatPrice(p.Price), p.Stock)
	}
	if len(products) > limit {
		fmt.Fprintf(&b, "... and %d more\n", len(products)-limit)
	}
	b.WriteString("Confirm to apply, or cancel.")
	return b.String()
}
