package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/internal/server/websocket"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	hub := websocket.NewHub(time.Minute, zerolog.Nop())
	New(hub, zerolog.Nop()).SetupHandlers(router)

	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func TestGetSale(t *testing.T) {
	t.Parallel()

	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sales/demo-001", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	var record map[string]any
	if err := json.Unmarshal(env.Data, &record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record["amount"] != "100" {
		t.Fatalf("expected amount 100, got %v", record["amount"])
	}
}

func TestGetSaleNotFound(t *testing.T) {
	t.Parallel()

	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sales/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDiscoverRoutes(t *testing.T) {
	t.Parallel()

	router := testRouter()

	body := `{"fromChainId":1,"toChainId":137,"fromToken":"USDC","toToken":"USDC","amount":"100"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/mcp/discover-routes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var data struct {
		Routes           []models.Route `json:"routes"`
		RecommendedRoute *models.Route  `json:"recommendedRoute"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(data.Routes) == 0 {
		t.Fatal("expected routes")
	}
	if data.RecommendedRoute == nil || !data.RecommendedRoute.IsOptimal {
		t.Fatalf("expected optimal recommended route, got %+v", data.RecommendedRoute)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	t.Parallel()

	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mcp/v1/demo-001/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != "pending" {
		t.Fatalf("expected pending, got %q", data.Status)
	}
}
