package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/auth"
	"github.com/murkotick/shophub-core/internal/app/cart"
	"github.com/murkotick/shophub-core/internal/app/orders"
	"github.com/murkotick/shophub-core/internal/pkg/emitter"
)

// Step is the checkout position.
type Step int

const (
	StepAddress Step = iota + 1
	StepPayment
	StepConfirmation
)

var (
	// ErrEmptyCart rejects entering checkout with nothing to buy.
	ErrEmptyCart = errors.New("your cart is empty")

	// ErrUnknownShippingMethod rejects a method id not on offer.
	ErrUnknownShippingMethod = errors.New("unknown shipping method")

	// ErrWrongStep rejects an operation issued out of sequence.
	ErrWrongStep = errors.New("operation not available at this step")
)

// CartReader is the slice of the cart engine checkout consumes. Clear
// fires exactly once, after successful placement.
type CartReader interface {
	Items() []cart.LineItem
	Subtotal() decimal.Decimal
	Tax() decimal.Decimal
	Clear()
}

// Placer submits the assembled order to the remote collaborator.
type Placer interface {
	CreateOrder(ctx context.Context, draft orders.Draft) (orders.Order, error)
}

// Totals is the order summary shown on every step. All four values are
// derived from the live cart plus the selected shipping method.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Orchestrator drives the three checkout steps. The cart stays live
// underneath it: totals always reflect the cart's current contents, and
// the cart is cleared only once an order is actually placed.
type Orchestrator struct {
	cart   CartReader
	placer Placer
	log    *zap.Logger
	hub    *emitter.Hub

	// onPlaced receives the placed order; the host wires it to the
	// order-history engine so the order shows up without a refetch.
	onPlaced func(orders.Order)

	mu         sync.Mutex
	active     bool
	step       Step
	address    auth.Address
	method     ShippingMethod
	submitting bool
	err        error
	placedID   string
	placedNum  string
}

// NewOrchestrator creates an idle orchestrator. onPlaced may be nil.
func NewOrchestrator(c CartReader, placer Placer, log *zap.Logger, onPlaced func(orders.Order)) *Orchestrator {
	return &Orchestrator{cart: c, placer: placer, log: log, hub: emitter.New(), onPlaced: onPlaced}
}

// Subscribe registers a listener notified after every state change.
func (o *Orchestrator) Subscribe(fn func()) func() { return o.hub.Subscribe(fn) }

// Begin enters checkout at the address step. The cart must be
// non-empty; standard shipping is preselected.
func (o *Orchestrator) Begin() error {
	if len(o.cart.Items()) == 0 {
		return ErrEmptyCart
	}

	o.mu.Lock()
	o.active = true
	o.step = StepAddress
	o.address = auth.Address{}
	o.method = shippingMethods[0]
	o.submitting = false
	o.err = nil
	o.placedID = ""
	o.placedNum = ""
	o.mu.Unlock()
	o.hub.Notify()
	return nil
}

// Active reports whether a checkout is in progress or completed.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Step returns the current checkout step.
func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// Err returns the last visible error, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Submitting reports whether order placement is in flight.
func (o *Orchestrator) Submitting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitting
}

// Address returns the shipping address entered so far. Going back to
// the address step keeps it for editing.
func (o *Orchestrator) Address() auth.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.address
}

// SelectedMethod returns the chosen shipping method.
func (o *Orchestrator) SelectedMethod() ShippingMethod {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.method
}

// PlacedOrder returns the id and number of the placed order once the
// confirmation step is reached.
func (o *Orchestrator) PlacedOrder() (id, number string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.placedID, o.placedNum
}

// SubmitAddress validates the shipping form and advances to payment.
func (o *Orchestrator) SubmitAddress(a auth.Address) error {
	o.mu.Lock()
	if o.step != StepAddress {
		o.mu.Unlock()
		return ErrWrongStep
	}
	o.mu.Unlock()

	if fe := validateAddress(a); fe != nil {
		return o.fail(fe)
	}

	o.mu.Lock()
	o.address = a
	o.step = StepPayment
	o.err = nil
	o.mu.Unlock()
	o.hub.Notify()
	return nil
}

// SelectSavedAddress uses one of the profile's saved addresses,
// bypassing form validation, and advances to payment.
func (o *Orchestrator) SelectSavedAddress(a auth.Address) error {
	o.mu.Lock()
	if o.step != StepAddress {
		o.mu.Unlock()
		return ErrWrongStep
	}
	o.address = a
	o.step = StepPayment
	o.err = nil
	o.mu.Unlock()
	o.hub.Notify()
	return nil
}

// Back returns from payment to the address step. The entered address
// survives for editing. Confirmation is terminal: there is no going back
// from a placed order.
func (o *Orchestrator) Back() {
	o.mu.Lock()
	if o.step == StepPayment {
		o.step = StepAddress
		o.err = nil
	}
	o.mu.Unlock()
	o.hub.Notify()
}

// SelectShippingMethod switches the delivery option. Totals pick the
// change up immediately.
func (o *Orchestrator) SelectShippingMethod(id string) error {
	m, ok := shippingMethodByID(id)
	if !ok {
		return ErrUnknownShippingMethod
	}
	o.mu.Lock()
	o.method = m
	o.mu.Unlock()
	o.hub.Notify()
	return nil
}

// Totals computes the summary from the live cart and the selected
// shipping method.
func (o *Orchestrator) Totals() Totals {
	o.mu.Lock()
	method := o.method
	o.mu.Unlock()

	subtotal := o.cart.Subtotal()
	shipping := ShippingCost(method, subtotal)
	tax := o.cart.Tax()
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// SubmitPayment validates the payment locally, then places the order.
// On failure checkout stays at the payment step with the error visible
// and the cart untouched; on success it advances to confirmation and
// clears the cart.
func (o *Orchestrator) SubmitPayment(ctx context.Context, p Payment) error {
	o.mu.Lock()
	if o.step != StepPayment || o.submitting {
		o.mu.Unlock()
		return ErrWrongStep
	}
	o.mu.Unlock()

	if fe := validatePayment(p); fe != nil {
		return o.fail(fe)
	}

	draft := o.buildDraft(p)

	o.mu.Lock()
	o.submitting = true
	o.err = nil
	o.mu.Unlock()
	o.hub.Notify()

	order, err := o.placer.CreateOrder(ctx, draft)
	if err != nil {
		o.log.Warn("order placement failed", zap.Error(err))
		o.mu.Lock()
		o.submitting = false
		o.err = err
		o.mu.Unlock()
		o.hub.Notify()
		return err
	}

	o.mu.Lock()
	o.submitting = false
	o.step = StepConfirmation
	o.placedID = order.ID
	o.placedNum = order.Number
	o.mu.Unlock()

	o.cart.Clear()
	if o.onPlaced != nil {
		o.onPlaced(order)
	}
	o.hub.Notify()
	return nil
}

// Reset abandons the checkout, e.g. when leaving the flow after
// confirmation. The cart is not touched.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.active = false
	o.step = 0
	o.address = auth.Address{}
	o.submitting = false
	o.err = nil
	o.placedID = ""
	o.placedNum = ""
	o.mu.Unlock()
	o.hub.Notify()
}

func (o *Orchestrator) buildDraft(p Payment) orders.Draft {
	totals := o.Totals()

	items := o.cart.Items()
	lines := make([]orders.Item, 0, len(items))
	for _, li := range items {
		lines = append(lines, orders.Item{
			ProductID: li.ProductID,
			Name:      li.Name,
			Slug:      li.Slug,
			Image:     li.Image,
			Price:     li.Price,
			Quantity:  li.Quantity,
		})
	}

	o.mu.Lock()
	address := o.address
	method := o.method
	o.mu.Unlock()

	return orders.Draft{
		Items:           lines,
		ShippingAddress: address,
		ShippingMethod:  method.ID,
		PaymentMethod:   p.MethodID(),
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
	}
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
	o.hub.Notify()
	return err
}
