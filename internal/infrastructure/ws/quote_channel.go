package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/config"
)

var (
	ErrAlreadyConnected = errors.New("quote channel already connected")
	ErrSendBufferFull   = errors.New("send channel full")
)

// QuoteChannel is a dialing websocket client for the backend's quote stream.
// One connection per controller lifetime; the owning session connects,
// subscribes and disconnects.
type QuoteChannel struct {
	cfg    config.QuotesConfig
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	send      chan *models.QuoteMessage
	done      chan struct{}
	connected bool
}

func NewQuoteChannel(cfg config.QuotesConfig, logger zerolog.Logger) interfaces.QuoteChannel {
	return &QuoteChannel{
		cfg:    cfg,
		logger: logger,
	}
}

func (c *QuoteChannel) Connect(onQuoteUpdate func(routes []models.Route), onError func(err error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return &domain.ChannelError{Err: fmt.Errorf("failed to dial %s: %w", c.cfg.URL, err)}
	}

	c.conn = conn
	c.send = make(chan *models.QuoteMessage, 256)
	c.done = make(chan struct{})
	c.connected = true

	go c.readPump(onQuoteUpdate, onError)
	go c.writePump()

	c.logger.Info().Str("url", c.cfg.URL).Msg("Connected to quote stream")

	return nil
}

func (c *QuoteChannel) SubscribeToPayment(params *models.QuoteSubscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Not queued: callers must connect first.
	if !c.connected {
		return nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	msg := &models.QuoteMessage{Type: models.QuoteEventSubscribe, Data: data}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn().Msg("Quote channel send buffer full, dropping subscription")
		return ErrSendBufferFull
	}
}

func (c *QuoteChannel) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *QuoteChannel) closeLocked() error {
	if !c.connected {
		return nil
	}

	c.connected = false
	close(c.done)

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *QuoteChannel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// readPump delivers inbound quote stream frames until the connection drops
// or Disconnect is called.
func (c *QuoteChannel) readPump(onQuoteUpdate func([]models.Route), onError func(error)) {
	conn := c.conn
	done := c.done

	defer c.Disconnect()

	conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		select {
		case <-done:
			return
		default:
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Error().Err(err).Msg("Unexpected quote stream close")
					if onError != nil {
						onError(&domain.ChannelError{Err: err})
					}
				}
				return
			}

			c.dispatch(raw, onQuoteUpdate, onError)
		}
	}
}

func (c *QuoteChannel) dispatch(raw []byte, onQuoteUpdate func([]models.Route), onError func(error)) {
	var msg models.QuoteMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to unmarshal quote stream frame")
		if onError != nil {
			onError(&domain.ChannelError{Err: err})
		}
		return
	}

	switch msg.Type {
	case models.QuoteEventUpdate:
		routes, err := decodeRoutes(msg.Data)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to decode quote update")
			if onError != nil {
				onError(&domain.ChannelError{Err: err})
			}
			return
		}
		if onQuoteUpdate != nil {
			onQuoteUpdate(routes)
		}

	case models.QuoteEventError:
		var detail string
		if err := json.Unmarshal(msg.Data, &detail); err != nil {
			detail = string(msg.Data)
		}
		if onError != nil {
			onError(&domain.ChannelError{Err: errors.New(detail)})
		}

	default:
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring quote stream frame")
	}
}

// decodeRoutes accepts either a single route or an array of routes; the
// backend sends both shapes.
func decodeRoutes(data []byte) ([]models.Route, error) {
	var routes []models.Route
	if err := json.Unmarshal(data, &routes); err == nil {
		return routes, nil
	}

	var route models.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("quote update payload is neither route nor route list: %w", err)
	}
	return []models.Route{route}, nil
}

// writePump writes outbound frames and keeps the connection alive with pings.
func (c *QuoteChannel) writePump() {
	conn := c.conn
	done := c.done
	send := c.send

	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Disconnect()
	}()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				c.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to write quote stream frame")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
