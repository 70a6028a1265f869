package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomservice/internal/config"
	"roomservice/internal/dialogue"
	"roomservice/internal/models"
	"roomservice/internal/roomservice"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = "I'd like a club sandwich with extra bacon and two waters to room 312"

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Catalog.MenuPath = "../../data/menu.json"
	cfg.Catalog.InventoryPath = "../../data/inventory.json"
	cfg.Models.Embeddings.Dimensions = 1024
	cfg.Dialogue.JanitorInterval = 0

	service, err := roomservice.Open(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })

	return NewServer(service, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestOrderLifecycle(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/turns", turnRequest{Utterance: scenarioA})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[dialogue.Result](t, w)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, dialogue.StateOrderConfirmation, first.State)
	assert.Contains(t, first.Reply, "Total: $20.50")

	w = doJSON(t, s, http.MethodPost, "/api/v1/turns", turnRequest{SessionID: first.SessionID, Utterance: "yes"})
	require.Equal(t, http.StatusOK, w.Code)
	placed := decode[dialogue.Result](t, w)
	require.NotNil(t, placed.Order)
	id := placed.Order.OrderID

	w = doJSON(t, s, http.MethodGet, "/api/v1/orders/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.OrderStatusQueued), decode[map[string]string](t, w)["status"])

	w = doJSON(t, s, http.MethodGet, "/api/v1/orders?room=312", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ConfirmedOrder](t, w), 1)

	w = doJSON(t, s, http.MethodGet, "/api/v1/kitchen/queue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ConfirmedOrder](t, w), 1)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/orders/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderStatusCancelled, decode[models.ConfirmedOrder](t, w).Status)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/orders/"+id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode[map[string]any](t, w)["kind"])

	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/"+id+"/advance", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionEndpoints(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/turns", turnRequest{SessionID: "guest-7", Utterance: scenarioA})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/sessions/guest-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[dialogue.ConversationState](t, w)
	assert.Equal(t, dialogue.StateOrderConfirmation, conv.State)
	assert.Equal(t, 312, conv.Room)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/sessions/guest-7", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/sessions/guest-7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"unknown order", http.MethodGet, "/api/v1/orders/nope", nil, http.StatusNotFound, "not_found"},
		{"unknown order status", http.MethodGet, "/api/v1/orders/nope/status", nil, http.StatusNotFound, "not_found"},
		{"cancel unknown order", http.MethodDelete, "/api/v1/orders/nope", nil, http.StatusNotFound, "not_found"},
		{"unknown category", http.MethodGet, "/api/v1/menu?category=Soup", nil, http.StatusNotFound, "not_found"},
		{"unknown item", http.MethodGet, "/api/v1/menu/items/lobster", nil, http.StatusNotFound, "not_found"},
		{"missing utterance", http.MethodPost, "/api/v1/turns", map[string]any{"room_number": 312}, http.StatusBadRequest, "invalid_input"},
		{"negative room", http.MethodPost, "/api/v1/turns", turnRequest{Utterance: "a coffee", RoomNumber: -1}, http.StatusBadRequest, "invalid_input"},
		{"bad room filter", http.MethodGet, "/api/v1/orders?room=abc", nil, http.StatusBadRequest, "invalid_input"},
		{"missing text", http.MethodPost, "/api/v1/classify", map[string]any{}, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, decode[map[string]any](t, w)["kind"])
		})
	}
}

func TestMenuEndpoints(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]models.MenuItem](t, w))

	w = doJSON(t, s, http.MethodGet, "/api/v1/menu/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "Dessert")

	w = doJSON(t, s, http.MethodGet, "/api/v1/menu/items/club%20sandwich", nil)
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[models.ItemDetails](t, w)
	assert.Equal(t, "Club Sandwich", details.Name)
	assert.Positive(t, details.Stock)

	w = doJSON(t, s, http.MethodGet, "/api/v1/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]models.InventoryRecord](t, w))
}

func TestClassify(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/classify", classifyRequest{Text: "Is the burger gluten free?"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string]any](t, w)
	assert.Equal(t, string(models.IntentGeneralInquiry), res["intent"])
	assert.NotEmpty(t, res["explanation"])
}

func TestChatSocket(t *testing.T) {
	s := setupTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat?session_id=ws-guest&room=312"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(chatMessage{Utterance: "What ingredients are in the club sandwich?"}))
	var res dialogue.Result
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, "ws-guest", res.SessionID)
	assert.Contains(t, res.Reply, "Club Sandwich")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var failure map[string]string
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Equal(t, "invalid_input", failure["kind"])

	require.NoError(t, conn.WriteJSON(chatMessage{Utterance: ""}))
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Equal(t, "invalid_input", failure["kind"])
}
