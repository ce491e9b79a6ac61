package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/server/routesim"
)

func (h *Handler) GetSale(c *gin.Context) {
	paymentID := c.Param("id")

	h.mu.RLock()
	record, exists := h.payments[paymentID]
	h.mu.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "payment not found",
		})
		return
	}

	h.logger.Info().Str("payment_id", paymentID).Msg("Serving payment terms")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

func (h *Handler) DiscoverRoutes(c *gin.Context) {
	var query models.RouteQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid discovery request: " + err.Error(),
		})
		return
	}

	routes := routesim.Generate(&query)

	h.logger.Info().
		Int64("from_chain", query.FromChainID).
		Int64("to_chain", query.ToChainID).
		Str("amount", query.Amount).
		Int("route_count", len(routes)).
		Msg("Serving discovered routes")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"routes":           routes,
			"recommendedRoute": optimalRoute(routes),
		},
	})
}

func optimalRoute(routes []models.Route) *models.Route {
	for i := range routes {
		if routes[i].IsOptimal {
			return &routes[i]
		}
	}
	return nil
}

func (h *Handler) GetPaymentStatus(c *gin.Context) {
	paymentID := c.Param("id")

	h.mu.RLock()
	status, exists := h.statuses[paymentID]
	h.mu.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "payment not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":       status.Status,
			"originTxHash": status.TransactionHash,
			"metadata":     status.Metadata,
		},
	})
}
