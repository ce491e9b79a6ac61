package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/server/websocket"
)

// Handler serves the simulator's backend contracts: payment terms, route
// discovery, payment status and the quote stream.
type Handler struct {
	logger zerolog.Logger
	hub    *websocket.Hub

	mu       sync.RWMutex
	payments map[string]*salesRecord
	statuses map[string]*models.PaymentStatus
}

// salesRecord is the simulator's stored sale, serialized in the backend's
// wire shape.
type salesRecord struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Amount            string        `json:"amount"`
	UserCurrency      string        `json:"userCurrency"`
	SellerAddress     string        `json:"sellerAddress"`
	Token             *models.Token `json:"token"`
	FeeStrategy       string        `json:"feeStrategy"`
	SellerDisplayName string        `json:"sellerDisplayName,omitempty"`
	SellerAvatarURL   string        `json:"sellerAvatarUrl,omitempty"`
	ImageURI          string        `json:"imageUri,omitempty"`
}

func New(hub *websocket.Hub, logger zerolog.Logger) *Handler {
	h := &Handler{
		logger:   logger,
		hub:      hub,
		payments: make(map[string]*salesRecord),
		statuses: make(map[string]*models.PaymentStatus),
	}
	h.seed()
	return h
}

// seed loads a couple of demo payments so the simulator answers something
// out of the box.
func (h *Handler) seed() {
	h.payments["demo-001"] = &salesRecord{
		Title:         "Demo purchase",
		Description:   "A cross-chain demo payment",
		Amount:        "100",
		UserCurrency:  "USD",
		SellerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Token: &models.Token{
			Symbol:   "USDC",
			ChainID:  1,
			Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			Decimals: 6,
		},
		FeeStrategy:       "buyer",
		SellerDisplayName: "Demo Merchant",
	}
	h.payments["demo-002"] = &salesRecord{
		Title:        "Sparse record",
		UserCurrency: "",
		// Everything else absent; the client applies its defaults.
	}
	h.statuses["demo-001"] = &models.PaymentStatus{Status: "pending"}
	h.statuses["demo-002"] = &models.PaymentStatus{Status: "pending"}
}

func (h *Handler) SetupHandlers(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.GET("/sales/:id", h.GetSale)
		api.POST("/mcp/discover-routes", h.DiscoverRoutes)
		api.GET("/mcp/v1/:id/status", h.GetPaymentStatus)
	}

	router.GET("/ws", h.QuoteStream)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
