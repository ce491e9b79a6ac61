package main

import (
	"context"
	"os"
	"time"

	"github.com/apppayai/payflow/internal/application/session"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/infrastructure/http/clients"
	"github.com/apppayai/payflow/internal/infrastructure/wallet"
	"github.com/apppayai/payflow/internal/infrastructure/ws"
	"github.com/apppayai/payflow/pkg/config"
	"github.com/apppayai/payflow/pkg/logger"
)

// Demo driver: opens a payment session against the local quote simulator,
// discovers routes and executes the selected one with the simulated wallet.
func main() {
	log := logger.New()

	configPath := os.Getenv("PAYFLOW_CONFIG")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	paymentID := os.Getenv("PAYFLOW_PAYMENT_ID")
	if paymentID == "" {
		paymentID = "demo-001"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.NewWithConfig(cfg.Logger)

	backend := clients.NewBackendClient(cfg.Backend, log)
	quotes := ws.NewQuoteChannel(cfg.Quotes, log)
	payerWallet := &wallet.Simulated{StepDelay: 500 * time.Millisecond}

	sess, err := session.New(
		session.Options{
			PaymentID: paymentID,
			OnComplete: func(result *models.PaymentResult) {
				log.Info().
					Str("payment_id", result.PaymentID).
					Str("tx_hash", result.TransactionHash).
					Str("amount", result.Amount).
					Str("currency", result.Currency).
					Msg("Payment completed")
			},
		},
		backend, quotes, payerWallet, log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create payment session")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sess.Open(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to open payment session")
	}
	defer sess.Close()

	if _, err := sess.Discovery().DiscoverRoutes(ctx, sess.Terms()); err != nil {
		log.Fatal().Err(err).Msg("Route discovery failed")
	}

	route := sess.Discovery().SelectedRoute()
	if route == nil {
		log.Fatal().Msg("No settlement route available")
	}

	log.Info().
		Str("route_id", route.ID).
		Str("provider", route.Provider).
		Str("bridge", route.Bridge).
		Bool("optimal", route.IsOptimal).
		Msg("Executing selected route")

	if err := sess.Execution().ExecutePayment(ctx, route); err != nil {
		log.Fatal().
			Err(err).
			Str("error_type", string(sess.Execution().ErrorType())).
			Msg("Payment execution failed")
	}
}
