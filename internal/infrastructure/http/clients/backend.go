package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/config"
)

// Default settlement token used when the backend omits one.
var defaultToken = models.Token{
	Symbol:  "USDC",
	ChainID: 1,
	Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
}

var validate = validator.New()

type backendClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewBackendClient(cfg config.BackendConfig, logger zerolog.Logger) interfaces.BackendClient {
	return &backendClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBackoffBase,
		logger:     logger,
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// salePayload is the wire shape of a payment record. Amounts may arrive as
// JSON numbers or strings; json.Number keeps them exact either way.
type salePayload struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Amount            json.Number   `json:"amount"`
	UserCurrency      string        `json:"userCurrency"`
	SellerAddress     string        `json:"sellerAddress"`
	Token             *models.Token `json:"token"`
	FeeStrategy       string        `json:"feeStrategy"`
	SellerDisplayName string        `json:"sellerDisplayName"`
	SellerAvatarURL   string        `json:"sellerAvatarUrl"`
	ImageURI          string        `json:"imageUri"`
}

type statusPayload struct {
	Status       string         `json:"status"`
	OriginTxHash string         `json:"originTxHash"`
	Metadata     map[string]any `json:"metadata"`
}

func (c *backendClient) LoadPaymentTerms(ctx context.Context, paymentID string) (*models.PaymentTerms, error) {
	endpoint := fmt.Sprintf("/api/sales/%s", paymentID)

	var payload salePayload
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
			return nil, &domain.LoadError{Err: fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, paymentID)}
		}
		return nil, &domain.LoadError{Err: err}
	}

	return termsFromPayload(paymentID, &payload), nil
}

// termsFromPayload applies the documented defaults so the terms record is
// never partially populated.
func termsFromPayload(paymentID string, payload *salePayload) *models.PaymentTerms {
	terms := &models.PaymentTerms{
		PaymentID:      paymentID,
		Title:          payload.Title,
		Description:    payload.Description,
		Amount:         payload.Amount.String(),
		Currency:       payload.UserCurrency,
		UserCurrency:   payload.UserCurrency,
		SellerAddress:  payload.SellerAddress,
		FeeStrategy:    models.FeeStrategy(payload.FeeStrategy),
		MerchantName:   payload.SellerDisplayName,
		MerchantAvatar: payload.SellerAvatarURL,
		ImageURI:       payload.ImageURI,
	}

	if terms.Title == "" {
		terms.Title = "Payment"
	}
	if terms.Amount == "" {
		terms.Amount = "0"
	}
	if terms.Currency == "" {
		terms.Currency = "USD"
		terms.UserCurrency = "USD"
	}
	if payload.Token != nil {
		terms.SellerPreferredToken = *payload.Token
	} else {
		terms.SellerPreferredToken = defaultToken
	}
	terms.UserWalletChain = terms.SellerPreferredToken.ChainID
	if terms.UserWalletChain == 0 {
		terms.UserWalletChain = 1
	}
	if terms.FeeStrategy != models.FeeStrategySeller {
		terms.FeeStrategy = models.FeeStrategyBuyer
	}
	if terms.MerchantName == "" {
		terms.MerchantName = "Merchant"
	}

	return terms
}

func (c *backendClient) DiscoverRoutes(ctx context.Context, query *models.RouteQuery) (*models.RouteDiscovery, error) {
	if err := validate.Struct(query); err != nil {
		return nil, &domain.DiscoveryError{Err: fmt.Errorf("invalid route query: %w", err)}
	}

	var discovery models.RouteDiscovery
	if err := c.makeRequest(ctx, http.MethodPost, "/api/mcp/discover-routes", query, &discovery); err != nil {
		return nil, &domain.DiscoveryError{Err: err}
	}

	if discovery.Routes == nil {
		discovery.Routes = []models.Route{}
	}

	return &discovery, nil
}

func (c *backendClient) GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error) {
	endpoint := fmt.Sprintf("/api/mcp/v1/%s/status", paymentID)

	var payload statusPayload
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, &domain.StatusError{Err: err}
	}

	return &models.PaymentStatus{
		Status:          payload.Status,
		TransactionHash: payload.OriginTxHash,
		Metadata:        payload.Metadata,
	}, nil
}

// makeRequest makes an HTTP request with retries and unwraps the
// {success, data} envelope into response. Transport failures and 5xx are
// retried with exponential backoff; 4xx are not.
func (c *backendClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := c.baseURL + endpoint
	op := method + " " + endpoint

	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &domain.BackendError{Op: op, StatusCode: lastStatus, Err: ctx.Err()}
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))):
			}
		}

		var reqBody []byte
		var err error

		if body != nil {
			reqBody, err = json.Marshal(body)
			if err != nil {
				return &domain.BackendError{Op: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(reqBody))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", fullURL).Msg("Backend request failed, retrying")
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read response body: %w", readErr)
				lastStatus = resp.StatusCode
				continue
			}
			return c.decodeEnvelope(op, respBody, response)
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(respBody))
			lastStatus = resp.StatusCode
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Str("url", fullURL).Msg("Backend server error, retrying")
			continue
		}

		// Client errors (4xx) - don't retry
		return &domain.BackendError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("client error: %s", string(respBody)),
		}
	}

	c.logger.Error().Err(lastErr).Str("url", fullURL).Int("max_retries", c.maxRetries).Msg("Backend request failed after all retries")
	return &domain.BackendError{
		Op:         op,
		StatusCode: lastStatus,
		Err:        fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr),
	}
}

func (c *backendClient) decodeEnvelope(op string, respBody []byte, response interface{}) error {
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &domain.BackendError{Op: op, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if !env.Success || len(env.Data) == 0 {
		return &domain.BackendError{Op: op, Err: domain.ErrInvalidPayload}
	}

	if response != nil {
		dec := json.NewDecoder(bytes.NewReader(env.Data))
		dec.UseNumber()
		if err := dec.Decode(response); err != nil {
			return &domain.BackendError{Op: op, Err: fmt.Errorf("failed to unmarshal data: %w", err)}
		}
	}

	return nil
}
