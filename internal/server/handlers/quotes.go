package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/server/websocket"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The simulator is a local development tool; accept any origin.
		return true
	},
}

// QuoteStream upgrades the connection and reads subscribe_payment frames;
// the hub pushes quote_update frames back on its interval.
func (h *Handler) QuoteStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade quote stream connection")
		return
	}

	client := &websocket.Client{
		ID:   uuid.New().String(),
		Conn: conn,
	}
	h.hub.Register <- client

	go h.readSubscriptions(client)
}

func (h *Handler) readSubscriptions(client *websocket.Client) {
	defer func() {
		h.hub.Unregister <- client
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var msg models.QuoteMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn().Err(err).Str("client_id", client.ID).Msg("Ignoring malformed quote stream frame")
			continue
		}

		if msg.Type != models.QuoteEventSubscribe {
			continue
		}

		var sub models.QuoteSubscription
		if err := json.Unmarshal(msg.Data, &sub); err != nil {
			h.logger.Warn().Err(err).Str("client_id", client.ID).Msg("Ignoring malformed subscription")
			continue
		}

		client.Subscribe(&sub)

		h.logger.Info().
			Str("client_id", client.ID).
			Int64("from_chain", sub.FromChainID).
			Int64("to_chain", sub.ToChainID).
			Str("amount", sub.UserTokenAmount).
			Msg("Quote subscription registered")
	}
}
