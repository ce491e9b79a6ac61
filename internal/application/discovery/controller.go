package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
)

// Source token policy default. Picking the source token from the payer's
// actual balances is a wallet concern, not a discovery concern.
const defaultSourceToken = "USDC"

var ErrNoPaymentTerms = errors.New("payment terms must be loaded before route discovery")

// Controller owns the candidate route set, the current selection and the
// discovery in-flight/error state. Concurrent invocations of DiscoverRoutes
// are not guarded; the caller gates on IsDiscovering. State accessors are
// safe to call from any goroutine.
type Controller struct {
	backend interfaces.BackendClient
	logger  zerolog.Logger

	mu           sync.RWMutex
	routes       []models.Route
	selected     *models.Route
	discovering  bool
	discoveryErr string
}

func NewController(backend interfaces.BackendClient, logger zerolog.Logger) *Controller {
	return &Controller{
		backend: backend,
		logger:  logger,
	}
}

// DiscoverRoutes queries candidate routes for the payment terms and applies
// the selection policy. On failure the previous candidate set and selection
// are left untouched and the error is surfaced through DiscoveryError.
func (c *Controller) DiscoverRoutes(ctx context.Context, terms *models.PaymentTerms) ([]models.Route, error) {
	if terms == nil {
		return nil, ErrNoPaymentTerms
	}

	c.mu.Lock()
	c.discovering = true
	c.discoveryErr = ""
	c.mu.Unlock()

	// The in-flight flag is released on every exit path.
	defer func() {
		c.mu.Lock()
		c.discovering = false
		c.mu.Unlock()
	}()

	query := &models.RouteQuery{
		FromChainID: terms.UserWalletChain,
		ToChainID:   terms.SellerPreferredToken.ChainID,
		FromToken:   defaultSourceToken,
		ToToken:     terms.SellerPreferredToken.Symbol,
		Amount:      terms.Amount,
	}

	result, err := c.backend.DiscoverRoutes(ctx, query)
	if err != nil {
		c.logger.Error().Err(err).Str("payment_id", terms.PaymentID).Msg("Route discovery failed")
		c.mu.Lock()
		c.discoveryErr = err.Error()
		c.mu.Unlock()
		return nil, err
	}

	c.applyRoutes(result.Routes)

	c.logger.Info().
		Str("payment_id", terms.PaymentID).
		Int("route_count", len(result.Routes)).
		Msg("Route discovery completed")

	return c.Routes(), nil
}

// ApplyQuoteUpdate reconciles a live quote push with the candidate set. A
// push replaces the list exactly the way a fresh discovery result does,
// including re-running the selection policy.
func (c *Controller) ApplyQuoteUpdate(routes []models.Route) {
	c.applyRoutes(routes)

	c.logger.Debug().Int("route_count", len(routes)).Msg("Applied quote update")
}

// applyRoutes replaces the candidate set wholesale and applies the selection
// policy: first route flagged optimal, else first route in response order.
// An empty list leaves the selection untouched. Replace and select happen
// under one lock so no partial update is observable.
func (c *Controller) applyRoutes(routes []models.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.routes = make([]models.Route, len(routes))
	copy(c.routes, routes)

	if len(routes) == 0 {
		return
	}

	best := routes[0]
	for _, r := range routes {
		if r.IsOptimal {
			best = r
			break
		}
	}
	c.selected = &best
}

// SetSelectedRoute overrides the selection for manual user choice. The route
// is deliberately not validated against the current candidate set; the
// presentation layer only offers routes it got from this controller, so
// membership enforcement stays a caller policy.
func (c *Controller) SetSelectedRoute(route *models.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if route == nil {
		c.selected = nil
		return
	}

	selected := *route
	c.selected = &selected
}

// Routes returns a snapshot of the candidate set.
func (c *Controller) Routes() []models.Route {
	c.mu.RLock()
	defer c.mu.RUnlock()

	routes := make([]models.Route, len(c.routes))
	copy(routes, c.routes)
	return routes
}

// SelectedRoute returns the current selection, nil when none.
func (c *Controller) SelectedRoute() *models.Route {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.selected == nil {
		return nil
	}
	selected := *c.selected
	return &selected
}

func (c *Controller) IsDiscovering() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discovering
}

// DiscoveryError returns the last discovery failure message, empty when the
// last discovery succeeded or none ran yet.
func (c *Controller) DiscoveryError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discoveryErr
}
