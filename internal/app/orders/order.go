// Package orders holds the placed-order model and the order-history
// engine. Order placement itself is driven by the checkout orchestrator;
// this package owns what happens after: listing, inspecting and
// cancelling orders.
package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/murkotick/shophub-core/internal/app/auth"
)

// Status is an order's fulfilment state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Cancellable reports whether an order in this status may still be
// cancelled. Once it ships, it cannot.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// Item is one purchased line of an order, a snapshot of the cart line at
// placement time.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is a placed order as the remote collaborator reports it.
type Order struct {
	ID              string          `json:"id"`
	Number          string          `json:"orderNumber"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	ShippingAddress auth.Address    `json:"shippingAddress"`
	ShippingMethod  string          `json:"shippingMethod"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Draft is the placement request assembled by checkout.
type Draft struct {
	Items           []Item          `json:"items"`
	ShippingAddress auth.Address    `json:"shippingAddress"`
	ShippingMethod  string          `json:"shippingMethod"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}
