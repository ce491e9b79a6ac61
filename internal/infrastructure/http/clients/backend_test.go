package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) *backendClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewBackendClient(config.BackendConfig{
		BaseURL:          srv.URL,
		Timeout:          5 * time.Second,
		MaxRetries:       2,
		RetryBackoffBase: time.Millisecond,
	}, zerolog.Nop()).(*backendClient)
}

func TestLoadPaymentTermsDefaults(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sales/pay-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"sellerAddress":"0xseller"}}`))
	}))

	terms, err := client.LoadPaymentTerms(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if terms.PaymentID != "pay-1" {
		t.Fatalf("expected payment id pay-1, got %s", terms.PaymentID)
	}
	if terms.Title != "Payment" {
		t.Fatalf("expected default title, got %q", terms.Title)
	}
	if terms.Amount != "0" {
		t.Fatalf("expected default amount 0, got %q", terms.Amount)
	}
	if terms.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", terms.Currency)
	}
	if terms.SellerPreferredToken.Symbol != "USDC" || terms.SellerPreferredToken.ChainID != 1 {
		t.Fatalf("expected default USDC token, got %+v", terms.SellerPreferredToken)
	}
	if terms.FeeStrategy != models.FeeStrategyBuyer {
		t.Fatalf("expected buyer fee strategy, got %q", terms.FeeStrategy)
	}
	if terms.MerchantName != "Merchant" {
		t.Fatalf("expected default merchant name, got %q", terms.MerchantName)
	}
	if terms.UserWalletChain != 1 {
		t.Fatalf("expected wallet chain 1, got %d", terms.UserWalletChain)
	}
}

func TestLoadPaymentTermsNumericAmount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"title":"Coffee","amount":12.5,"userCurrency":"EUR","token":{"symbol":"USDT","chainId":137},"feeStrategy":"seller"}}`))
	}))

	terms, err := client.LoadPaymentTerms(context.Background(), "pay-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if terms.Amount != "12.5" {
		t.Fatalf("expected exact amount 12.5, got %q", terms.Amount)
	}
	if terms.Currency != "EUR" {
		t.Fatalf("expected EUR, got %q", terms.Currency)
	}
	if terms.FeeStrategy != models.FeeStrategySeller {
		t.Fatalf("expected seller fee strategy, got %q", terms.FeeStrategy)
	}
	if terms.UserWalletChain != 137 {
		t.Fatalf("expected wallet chain 137, got %d", terms.UserWalletChain)
	}
}

func TestLoadPaymentTermsNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false}`))
	}))

	_, err := client.LoadPaymentTerms(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	var loadErr *domain.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T", err)
	}
}

func TestLoadPaymentTermsBadEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))

	_, err := client.LoadPaymentTerms(context.Background(), "pay-3")
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDiscoverRoutesEmptyListIsValid(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"success":true,"data":{"routes":[]}}`))
	}))

	result, err := client.DiscoverRoutes(context.Background(), &models.RouteQuery{
		FromChainID: 1, ToChainID: 1, FromToken: "USDC", ToToken: "USDC", Amount: "100",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Routes) != 0 {
		t.Fatalf("expected no routes, got %d", len(result.Routes))
	}
}

func TestDiscoverRoutesRejectsInvalidQuery(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the backend")
	}))

	_, err := client.DiscoverRoutes(context.Background(), &models.RouteQuery{Amount: "100"})

	var discErr *domain.DiscoveryError
	if !errors.As(err, &discErr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
}

func TestDiscoverRoutesBackendFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))

	_, err := client.DiscoverRoutes(context.Background(), &models.RouteQuery{
		FromChainID: 1, ToChainID: 137, FromToken: "USDC", ToToken: "USDC", Amount: "50",
	})

	var discErr *domain.DiscoveryError
	if !errors.As(err, &discErr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mcp/v1/pay-9/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"status":"completed","originTxHash":"0xabc"}}`))
	}))

	status, err := client.GetPaymentStatus(context.Background(), "pay-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != "completed" {
		t.Fatalf("expected completed, got %q", status.Status)
	}
	if status.TransactionHash != "0xabc" {
		t.Fatalf("expected origin tx hash mapped, got %q", status.TransactionHash)
	}
}

func TestRetriesServerErrorsNotClientErrors(t *testing.T) {
	t.Parallel()

	var serverHits atomic.Int32
	serverErrClient := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := serverErrClient.GetPaymentStatus(context.Background(), "pay-5xx")
	if err == nil {
		t.Fatal("expected error")
	}
	// Initial attempt plus MaxRetries.
	if got := serverHits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts on 5xx, got %d", got)
	}

	var clientHits atomic.Int32
	clientErrClient := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientHits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err = clientErrClient.GetPaymentStatus(context.Background(), "pay-4xx")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := clientHits.Load(); got != 1 {
		t.Fatalf("expected single attempt on 4xx, got %d", got)
	}
}

func TestSendsAPIKeyHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("expected api key header, got %q", r.Header.Get("X-API-Key"))
		}
		w.Write([]byte(`{"success":true,"data":{"status":"pending"}}`))
	}))
	t.Cleanup(srv.Close)

	client := NewBackendClient(config.BackendConfig{
		BaseURL: srv.URL,
		APIKey:  "secret",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())

	if _, err := client.GetPaymentStatus(context.Background(), "pay-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
