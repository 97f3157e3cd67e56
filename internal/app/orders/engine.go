package orders

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/pkg/emitter"
)

// ErrNotCancellable indicates a cancel attempt on an order that already
// shipped, delivered or was cancelled.
var ErrNotCancellable = errors.New("order can no longer be cancelled")

// API is the remote collaborator for order history.
type API interface {
	CreateOrder(ctx context.Context, draft Draft) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	CancelOrder(ctx context.Context, id string) (Order, error)
}

// statusError mirrors the transport's status-carrying errors without
// importing the transport.
type statusError interface {
	HTTPStatus() int
}

func isUnauthorized(err error) bool {
	var se statusError
	return errors.As(err, &se) && (se.HTTPStatus() == 401 || se.HTTPStatus() == 419)
}

// Engine holds the signed-in user's order history. Orders are remote
// state: every operation refetches or patches the local copy from the
// collaborator's response, nothing is persisted on this side.
type Engine struct {
	api API
	log *zap.Logger
	hub *emitter.Hub

	// onUnauthorized fires when an order call is rejected as
	// unauthenticated; the host wires it to the session manager.
	onUnauthorized func()

	mu      sync.Mutex
	orders  []Order
	current *Order
	loading bool
	err     error
}

// NewEngine creates an empty order-history engine.
func NewEngine(api API, log *zap.Logger, onUnauthorized func()) *Engine {
	return &Engine{api: api, log: log, hub: emitter.New(), onUnauthorized: onUnauthorized}
}

// Subscribe registers a listener notified after every state change.
func (e *Engine) Subscribe(fn func()) func() { return e.hub.Subscribe(fn) }

// Loading reports whether an order operation is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the last visible error, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Orders returns the fetched order history, newest first as the remote
// collaborator lists it.
func (e *Engine) Orders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Order, len(e.orders))
	copy(out, e.orders)
	return out
}

// Current returns the last individually fetched order.
func (e *Engine) Current() (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Order{}, false
	}
	return *e.current, true
}

// Clear drops all fetched orders, e.g. on logout.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.orders = nil
	e.current = nil
	e.loading = false
	e.err = nil
	e.mu.Unlock()
	e.hub.Notify()
}

// Fetch loads the order history.
func (e *Engine) Fetch(ctx context.Context) error {
	e.begin()
	orders, err := e.api.ListOrders(ctx)
	if err != nil {
		e.log.Warn("order history fetch failed", zap.Error(err))
		return e.fail(err)
	}

	e.mu.Lock()
	e.loading = false
	e.orders = orders
	e.mu.Unlock()
	e.hub.Notify()
	return nil
}

// Get loads a single order by id.
func (e *Engine) Get(ctx context.Context, id string) (Order, error) {
	e.begin()
	order, err := e.api.GetOrder(ctx, id)
	if err != nil {
		e.log.Warn("order fetch failed", zap.String("order_id", id), zap.Error(err))
		return Order{}, e.fail(err)
	}

	e.mu.Lock()
	e.loading = false
	e.current = &order
	e.mu.Unlock()
	e.hub.Notify()
	return order, nil
}

// Cancel cancels a still-cancellable order and patches the local copy
// with the remote's updated state.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	e.mu.Lock()
	for _, o := range e.orders {
		if o.ID == id && !o.Status.Cancellable() {
			e.mu.Unlock()
			return e.fail(ErrNotCancellable)
		}
	}
	e.mu.Unlock()

	e.begin()
	updated, err := e.api.CancelOrder(ctx, id)
	if err != nil {
		e.log.Warn("order cancel failed", zap.String("order_id", id), zap.Error(err))
		return e.fail(err)
	}

	e.mu.Lock()
	e.loading = false
	for i := range e.orders {
		if e.orders[i].ID == updated.ID {
			e.orders[i] = updated
		}
	}
	if e.current != nil && e.current.ID == updated.ID {
		e.current = &updated
	}
	e.mu.Unlock()
	e.hub.Notify()
	return nil
}

// Record inserts a freshly placed order at the head of the history so it
// shows up without a refetch. Checkout calls it after placement.
func (e *Engine) Record(order Order) {
	e.mu.Lock()
	e.orders = append([]Order{order}, e.orders...)
	e.mu.Unlock()
	e.hub.Notify()
}

func (e *Engine) begin() {
	e.mu.Lock()
	e.loading = true
	e.err = nil
	e.mu.Unlock()
	e.hub.Notify()
}

func (e *Engine) fail(err error) error {
	if isUnauthorized(err) && e.onUnauthorized != nil {
		e.onUnauthorized()
	}
	e.mu.Lock()
	e.loading = false
	e.err = err
	e.mu.Unlock()
	e.hub.Notify()
	return err
}
