// Package checkout is the three-step purchase orchestrator: shipping
// address, shipping method + payment, confirmation. It snapshots the
// cart at entry, validates every field locally before the remote is
// involved, and clears the cart only after the order is placed.
package checkout

import "github.com/shopspring/decimal"

// ShippingMethod is a selectable delivery option with a flat rate and a
// delivery window.
type ShippingMethod struct {
	ID    string
	Label string
	Rate  decimal.Decimal
	// Window is the human-readable delivery estimate.
	Window string
}

// freeShippingThreshold is the subtotal above which the selected
// method ships free. Strictly above: a subtotal of exactly 50.00 still
// pays the rate.
var freeShippingThreshold = decimal.NewFromInt(50)

var shippingMethods = []ShippingMethod{
	{ID: "standard", Label: "Standard Shipping", Rate: decimal.New(599, -2), Window: "5-7 business days"},
	{ID: "express", Label: "Express Shipping", Rate: decimal.New(1299, -2), Window: "2-3 business days"},
	{ID: "overnight", Label: "Overnight Shipping", Rate: decimal.New(2499, -2), Window: "Next business day"},
}

// ShippingMethods lists the selectable delivery options.
func ShippingMethods() []ShippingMethod {
	out := make([]ShippingMethod, len(shippingMethods))
	copy(out, shippingMethods)
	return out
}

// shippingMethodByID resolves a method id; ok is false for unknown ids.
func shippingMethodByID(id string) (ShippingMethod, bool) {
	for _, m := range shippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

// ShippingCost returns what the method costs at the given subtotal:
// zero once the subtotal qualifies for free shipping.
func ShippingCost(method ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(freeShippingThreshold) {
		return decimal.Zero
	}
	return method.Rate
}
