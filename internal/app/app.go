// Package app wires the engines into one composition root the host
// embeds. Construction order matters only for the logout cascade: the
// session manager clears the cart and wishlist, so they exist first.
package app

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/auth"
	"github.com/murkotick/shophub-core/internal/app/cart"
	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/app/checkout"
	"github.com/murkotick/shophub-core/internal/app/orders"
	"github.com/murkotick/shophub-core/internal/app/wishlist"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
)

// Remote is the full backend surface the engines consume. The HTTP
// client satisfies it; tests swap in fakes per engine.
type Remote interface {
	catalog.ProductAPI
	auth.API
	orders.API
	checkout.Placer
}

// App bundles every engine of the storefront core.
type App struct {
	Catalog  *catalog.Engine
	Searches *catalog.History
	Cart     *cart.Engine
	Wishlist *wishlist.Engine
	Session  *auth.Manager
	Orders   *orders.Engine
	Checkout *checkout.Orchestrator
}

// New wires the engines against the given backend and state store.
func New(api Remote, store storage.Store, clk clockwork.Clock, log *zap.Logger) *App {
	cartEngine := cart.NewEngine(store, log)
	wishlistEngine := wishlist.NewEngine(store, clk, log)
	session := auth.NewManager(api, log, cartEngine, wishlistEngine)
	orderHistory := orders.NewEngine(api, log, session.ExpireSession)

	return &App{
		Catalog:  catalog.NewEngine(api, log),
		Searches: catalog.NewHistory(store, log),
		Cart:     cartEngine,
		Wishlist: wishlistEngine,
		Session:  session,
		Orders:   orderHistory,
		Checkout: checkout.NewOrchestrator(cartEngine, api, log, orderHistory.Record),
	}
}

// Start restores persisted state, probes for an existing session and
// warms the catalog. Fetch failures are logged, not fatal: the core
// stays usable against an empty catalog.
func (a *App) Start(ctx context.Context, log *zap.Logger) {
	a.Cart.Hydrate()
	a.Wishlist.Hydrate()
	a.Searches.Hydrate()
	a.Session.CheckSession(ctx)
	if err := a.Catalog.Load(ctx); err != nil {
		log.Warn("initial catalog load failed", zap.Error(err))
	}
}
