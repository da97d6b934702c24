package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/matching-engine/internal/book"
	"github.com/nathanyu/matching-engine/internal/sequencer"
	"github.com/nathanyu/matching-engine/internal/store"
	"github.com/nathanyu/matching-engine/internal/trades"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := book.New(mem, mem, sequencer.New(), trades.NewRecorder(), logger)

	r := gin.New()
	NewHandler(engine).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	r := newTestRouter()

	w, body := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPlaceOrder(t *testing.T) {
	r := newTestRouter()

	w, body := doJSON(t, r, http.MethodPost, "/order",
		`{"userId":"alice","type":"buy","price":100.5,"amount":2}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "alice", body["userId"])
	assert.Equal(t, "buy", body["type"])
	assert.Equal(t, 100.5, body["price"])
	assert.Equal(t, float64(2), body["amount"])
	assert.Equal(t, float64(2), body["remaining"])
	assert.Equal(t, "open", body["status"])
}

func TestPlaceOrder_EchoesImmediateFill(t *testing.T) {
	r := newTestRouter()

	w, _ := doJSON(t, r, http.MethodPost, "/order",
		`{"userId":"alice","type":"buy","price":100,"amount":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/order",
		`{"userId":"bob","type":"sell","price":90,"amount":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	// The response reflects the matching that ran before returning
	assert.Equal(t, float64(0), body["remaining"])
	assert.Equal(t, "matched", body["status"])
}

func TestPlaceOrder_Invalid(t *testing.T) {
	r := newTestRouter()

	cases := map[string]string{
		"unparseable body": `{"userId":`,
		"missing user":     `{"type":"buy","price":100,"amount":1}`,
		"bad side":         `{"userId":"u1","type":"hold","price":100,"amount":1}`,
		"zero price":       `{"userId":"u1","type":"buy","price":0,"amount":1}`,
		"negative amount":  `{"userId":"u1","type":"sell","price":100,"amount":-1}`,
		"sub-tick price":   `{"userId":"u1","type":"buy","price":100.001,"amount":1}`,
		"sub-lot amount":   `{"userId":"u1","type":"buy","price":100,"amount":0.005}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodPost, "/order", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, body, "error")
		})
	}

	// None of the rejected orders reached the book
	w, body := doJSON(t, r, http.MethodGet, "/orderbook", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["buy_orders"])
	assert.Empty(t, body["sell_orders"])
}

func TestGetOrderBook_PriorityOrder(t *testing.T) {
	r := newTestRouter()

	for _, payload := range []string{
		`{"userId":"b1","type":"buy","price":95,"amount":1}`,
		`{"userId":"b2","type":"buy","price":99,"amount":1}`,
		`{"userId":"s1","type":"sell","price":110,"amount":1}`,
		`{"userId":"s2","type":"sell","price":105,"amount":1}`,
	} {
		w, _ := doJSON(t, r, http.MethodPost, "/order", payload)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := doJSON(t, r, http.MethodGet, "/orderbook", "")
	require.Equal(t, http.StatusOK, w.Code)

	buys := body["buy_orders"].([]any)
	sells := body["sell_orders"].([]any)
	require.Len(t, buys, 2)
	require.Len(t, sells, 2)

	// Best first: highest buy, lowest sell
	assert.Equal(t, float64(99), buys[0].(map[string]any)["price"])
	assert.Equal(t, float64(95), buys[1].(map[string]any)["price"])
	assert.Equal(t, float64(105), sells[0].(map[string]any)["price"])
	assert.Equal(t, float64(110), sells[1].(map[string]any)["price"])
}

func TestGetOrderBook_IncludesPartialFills(t *testing.T) {
	r := newTestRouter()

	w, _ := doJSON(t, r, http.MethodPost, "/order",
		`{"userId":"alice","type":"buy","price":100,"amount":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/order",
		`{"userId":"bob","type":"sell","price":90,"amount":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, "/orderbook", "")
	require.Equal(t, http.StatusOK, w.Code)

	buys := body["buy_orders"].([]any)
	require.Len(t, buys, 1)
	head := buys[0].(map[string]any)
	assert.Equal(t, float64(2), head["remaining"])
	assert.Equal(t, "open", head["status"])
	assert.Empty(t, body["sell_orders"])
}
