package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/config"
)

var upgrader = gws.Upgrader{}

// startStream runs a test quote stream server driven by serve and returns a
// channel configured against it.
func startStream(t *testing.T, serve func(conn *gws.Conn)) *QuoteChannel {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)

	cfg := config.QuotesConfig{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		HandshakeTimeout: 2 * time.Second,
		WriteTimeout:     2 * time.Second,
		PongWait:         10 * time.Second,
		PingPeriod:       5 * time.Second,
	}

	return NewQuoteChannel(cfg, zerolog.Nop()).(*QuoteChannel)
}

func TestSubscribeBeforeConnectIsNoop(t *testing.T) {
	t.Parallel()

	channel := NewQuoteChannel(config.QuotesConfig{URL: "ws://unused"}, zerolog.Nop())

	// Not queued, not an error.
	if err := channel.SubscribeToPayment(&models.QuoteSubscription{UserTokenAmount: "100"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel.IsConnected() {
		t.Fatal("expected disconnected channel")
	}
}

func TestConnectDeliversQuoteUpdates(t *testing.T) {
	t.Parallel()

	received := make(chan []models.Route, 1)

	channel := startStream(t, func(conn *gws.Conn) {
		// Wait for the subscription, then answer with a single-route
		// update; the client must normalize it to a slice.
		var msg models.QuoteMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read failed: %v", err)
			return
		}
		if msg.Type != models.QuoteEventSubscribe {
			t.Errorf("expected subscribe frame, got %q", msg.Type)
			return
		}

		route, _ := json.Marshal(models.Route{ID: "pushed", IsOptimal: true})
		conn.WriteJSON(&models.QuoteMessage{Type: models.QuoteEventUpdate, Data: route})

		// Hold the connection open until the client disconnects.
		conn.ReadMessage()
	})

	err := channel.Connect(func(routes []models.Route) {
		received <- routes
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer channel.Disconnect()

	if !channel.IsConnected() {
		t.Fatal("expected connected channel")
	}

	if err := channel.SubscribeToPayment(&models.QuoteSubscription{
		UserTokenAmount: "100",
		FromChainID:     1,
		ToChainID:       137,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case routes := <-received:
		if len(routes) != 1 || routes[0].ID != "pushed" {
			t.Fatalf("unexpected routes %+v", routes)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for quote update")
	}
}

func TestErrorFrameInvokesOnError(t *testing.T) {
	t.Parallel()

	faults := make(chan error, 1)

	channel := startStream(t, func(conn *gws.Conn) {
		detail, _ := json.Marshal("rate limited")
		conn.WriteJSON(&models.QuoteMessage{Type: models.QuoteEventError, Data: detail})
		conn.ReadMessage()
	})

	err := channel.Connect(nil, func(err error) {
		faults <- err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer channel.Disconnect()

	select {
	case err := <-faults:
		var chanErr *domain.ChannelError
		if !errors.As(err, &chanErr) {
			t.Fatalf("expected ChannelError, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel error")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	t.Parallel()

	channel := startStream(t, func(conn *gws.Conn) {
		conn.ReadMessage()
	})

	if err := channel.Connect(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := channel.Disconnect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := channel.Disconnect(); err != nil {
		t.Fatalf("unexpected error on second disconnect: %v", err)
	}
	if channel.IsConnected() {
		t.Fatal("expected disconnected channel")
	}
}

func TestConnectFailsOnBadEndpoint(t *testing.T) {
	t.Parallel()

	channel := NewQuoteChannel(config.QuotesConfig{
		URL:              "ws://127.0.0.1:1",
		HandshakeTimeout: time.Second,
	}, zerolog.Nop())

	err := channel.Connect(nil, nil)

	var chanErr *domain.ChannelError
	if !errors.As(err, &chanErr) {
		t.Fatalf("expected ChannelError, got %v", err)
	}
	if channel.IsConnected() {
		t.Fatal("expected disconnected channel")
	}
}
