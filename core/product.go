package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Product is a catalog entry as read from the persistent catalog. Stock is
// the sellable quantity at read time; it is never cached across a mutation
// boundary, every cart-affecting decision re-reads it through the
// InventoryGateway.
type Product struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// ProductRef is a lightweight reference kept in session context, e.g. for
// the list of products last shown to the user.
type ProductRef struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Ref returns the session-context reference for the product.
func (p Product) Ref() ProductRef {
	return ProductRef{Code: p.Code, Description: p.Description, Price: p.Price}
}

// Availability is the live stock view returned by an InventoryGateway.
type Availability struct {
	Available bool `json:"available"`
	Stock     int  `json:"stock"`
}

// NormalizePrice parses a price given as string, integer or float into a
// non-negative float64. Malformed or negative input is coerced to zero
// rather than rejected; this tolerance is inherited behavior, not an
// accident (zero-price lines remain visible in the cart and the order).
func NormalizePrice(v any) float64 {
	switch p := v.(type) {
	case float64:
		if p < 0 {
			return 0
		}
		return p
	case float32:
		return NormalizePrice(float64(p))
	case int:
		return NormalizePrice(float64(p))
	case int64:
		return NormalizePrice(float64(p))
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(p, ",", "."))
		s = strings.TrimPrefix(s, "$")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0
		}
		return f
	default:
		return 0
	}
}

// FormatPrice renders a price for user-facing messages.
func FormatPrice(p float64) string { return fmt.Sprintf("%.2f", p) }
