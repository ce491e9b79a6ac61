package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/server/routesim"
)

// Client is one quote stream connection. Until a subscribe_payment frame
// arrives the subscription is nil and the client receives nothing.
type Client struct {
	ID   string
	Conn *gws.Conn

	mu  sync.Mutex
	sub *models.QuoteSubscription
}

func (c *Client) Subscribe(sub *models.QuoteSubscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sub = sub
}

func (c *Client) subscription() *models.QuoteSubscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// Hub tracks quote stream clients and pushes refreshed quotes to every
// subscribed client on a fixed interval.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	clients  map[*Client]bool
	interval time.Duration
	logger   zerolog.Logger
}

func NewHub(interval time.Duration, logger zerolog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client, 100),
		Unregister: make(chan *Client, 100),
		clients:    make(map[*Client]bool),
		interval:   interval,
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.logger.Info().
				Str("client_id", client.ID).
				Int("total_clients", len(h.clients)).
				Msg("Quote stream client registered")

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
				h.logger.Info().
					Str("client_id", client.ID).
					Int("total_clients", len(h.clients)).
					Msg("Quote stream client unregistered")
			}

		case <-ticker.C:
			h.pushQuotes()

		case <-ctx.Done():
			for client := range h.clients {
				client.Conn.Close()
			}
			return
		}
	}
}

// pushQuotes sends a refreshed candidate set to every subscribed client.
func (h *Hub) pushQuotes() {
	for client := range h.clients {
		sub := client.subscription()
		if sub == nil {
			continue
		}

		routes := routesim.Generate(&models.RouteQuery{
			FromChainID: sub.FromChainID,
			ToChainID:   sub.ToChainID,
			FromToken:   "USDC",
			ToToken:     "USDC",
			Amount:      sub.UserTokenAmount,
		})

		data, err := json.Marshal(routes)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to marshal quote update")
			continue
		}

		msg := &models.QuoteMessage{Type: models.QuoteEventUpdate, Data: data}
		if err := client.Conn.WriteJSON(msg); err != nil {
			h.logger.Error().
				Err(err).
				Str("client_id", client.ID).
				Msg("Failed to push quote update, dropping client")
			delete(h.clients, client)
			client.Conn.Close()
		}
	}
}
