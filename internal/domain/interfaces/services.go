package interfaces

import (
	"context"

	"github.com/apppayai/payflow/internal/domain/models"
)

// BackendClient defines the logical calls the payment backend serves.
// Pure request/response, no state.
type BackendClient interface {
	// LoadPaymentTerms resolves a payment identifier into payment terms,
	// applying documented defaults for absent fields.
	LoadPaymentTerms(ctx context.Context, paymentID string) (*models.PaymentTerms, error)

	// DiscoverRoutes queries candidate settlement routes. An empty route
	// list is a valid, non-error result.
	DiscoverRoutes(ctx context.Context, query *models.RouteQuery) (*models.RouteDiscovery, error)

	// GetPaymentStatus polls the backend's view of a payment.
	GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error)
}

// QuoteChannel is the event-driven push channel delivering refreshed route
// quotes after a subscription.
type QuoteChannel interface {
	// Connect establishes the channel and starts delivering quote_update
	// events to onQuoteUpdate. Channel-level faults go to onError; the
	// channel never retries on its own.
	Connect(onQuoteUpdate func(routes []models.Route), onError func(err error)) error

	// SubscribeToPayment sends a subscription request. It is a silent
	// no-op (not queued) when the channel is not connected.
	SubscribeToPayment(params *models.QuoteSubscription) error

	// Disconnect releases the channel. Idempotent.
	Disconnect() error

	// IsConnected reports the current connectivity snapshot.
	IsConnected() bool
}

// WalletProvider is the opaque transaction-submission capability the
// execution pipeline sequences around.
type WalletProvider interface {
	// NeedsApproval reports whether a token approval is required before
	// the route can move funds.
	NeedsApproval(ctx context.Context, route *models.Route) (bool, error)

	// Approve performs the token approval.
	Approve(ctx context.Context, route *models.Route) error

	// SubmitPayment submits the payment transaction and returns its hash.
	SubmitPayment(ctx context.Context, route *models.Route) (string, error)

	// WaitForConfirmation blocks until the transaction is confirmed
	// on-chain or the context expires.
	WaitForConfirmation(ctx context.Context, txHash string) error
}
