package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/apppayai/payflow/internal/application/discovery"
	"github.com/apppayai/payflow/internal/application/execution"
	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
)

var ErrMissingPaymentID = errors.New("payment id is required")

// Theme selects the presentation theme the shell should render with.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Options mirrors the embedding surface's configuration: the payment
// identifier is the only required field, everything else is loaded from the
// backend.
type Options struct {
	PaymentID  string
	Theme      Theme
	Style      map[string]string
	OnClose    func()
	OnComplete func(result *models.PaymentResult)
}

// Session scopes the two controllers to the active lifetime of the paying
// surface: controllers exist only between Open and Close, never as
// permanent singletons.
type Session struct {
	opts    Options
	backend interfaces.BackendClient
	quotes  interfaces.QuoteChannel
	wallet  interfaces.WalletProvider
	logger  zerolog.Logger

	mu        sync.Mutex
	open      bool
	closed    bool
	terms     *models.PaymentTerms
	discovery *discovery.Controller
	execution *execution.Controller
}

func New(
	opts Options,
	backend interfaces.BackendClient,
	quotes interfaces.QuoteChannel,
	wallet interfaces.WalletProvider,
	logger zerolog.Logger,
) (*Session, error) {
	if opts.PaymentID == "" {
		return nil, ErrMissingPaymentID
	}
	if opts.Theme == "" {
		opts.Theme = ThemeLight
	}

	return &Session{
		opts:    opts,
		backend: backend,
		quotes:  quotes,
		wallet:  wallet,
		logger:  logger,
	}, nil
}

// Open loads the payment terms and connects the quote channel concurrently,
// then constructs the controllers and subscribes the channel to the
// payment's token pair. Quote pushes reconcile into the discovery
// controller's candidate set.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	disc := discovery.NewController(s.backend, s.logger)

	g, gctx := errgroup.WithContext(ctx)

	var terms *models.PaymentTerms

	g.Go(func() error {
		loaded, err := s.backend.LoadPaymentTerms(gctx, s.opts.PaymentID)
		if err != nil {
			return err
		}
		terms = loaded
		return nil
	})

	g.Go(func() error {
		return s.quotes.Connect(
			disc.ApplyQuoteUpdate,
			func(err error) {
				s.logger.Warn().Err(err).Msg("Quote channel fault")
			},
		)
	})

	if err := g.Wait(); err != nil {
		s.quotes.Disconnect()
		return err
	}

	if err := s.quotes.SubscribeToPayment(&models.QuoteSubscription{
		ToTokenAddress:  terms.SellerPreferredToken.Address,
		UserTokenAmount: terms.Amount,
		FromChainID:     terms.UserWalletChain,
		ToChainID:       terms.SellerPreferredToken.ChainID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Quote subscription not sent")
	}

	exec := execution.NewController(terms, s.wallet, s.opts.OnComplete, s.logger)

	s.mu.Lock()
	s.terms = terms
	s.discovery = disc
	s.execution = exec
	s.open = true
	s.closed = false
	s.mu.Unlock()

	s.logger.Info().
		Str("payment_id", s.opts.PaymentID).
		Str("amount", terms.Amount).
		Str("currency", terms.Currency).
		Msg("Payment session opened")

	return nil
}

// Close releases the quote channel and fires OnClose. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.open || s.closed {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.closed = true
	s.mu.Unlock()

	s.quotes.Disconnect()

	if s.opts.OnClose != nil {
		s.opts.OnClose()
	}

	s.logger.Info().Str("payment_id", s.opts.PaymentID).Msg("Payment session closed")
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) Theme() Theme {
	return s.opts.Theme
}

// Style returns the optional presentation overrides, untouched.
func (s *Session) Style() map[string]string {
	return s.opts.Style
}

// Terms returns the loaded payment terms, nil before Open.
func (s *Session) Terms() *models.PaymentTerms {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terms
}

// Discovery returns the route discovery controller, nil before Open.
func (s *Session) Discovery() *discovery.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovery
}

// Execution returns the payment execution controller, nil before Open.
func (s *Session) Execution() *execution.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execution
}
