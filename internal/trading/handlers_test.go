package trading

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/testutil"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *types.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "trader@example.com", 100000)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetUser(c, user)
		c.Next()
	})
	h := NewGinHandlers(svc)
	router.POST("/api/trades/execute", h.ExecuteTradeHandler())
	router.GET("/api/orders", h.ListOrdersHandler())
	router.GET("/api/orders/export", h.ExportOrdersHandler())
	return router, user
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_ExecuteTrade(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		wantMsg    string
	}{
		{"numbers", `{"symbol":"INFY","type":"BUY","quantity":10,"price":1500}`, http.StatusOK, true, "BUY order executed successfully."},
		{"numeric strings", `{"symbol":"INFY","type":"SELL","quantity":"4","price":"1600.00"}`, http.StatusOK, true, "SELL order executed successfully."},
		{"bad type", `{"symbol":"INFY","type":"SHORT","quantity":1,"price":1}`, http.StatusBadRequest, false, "Order type must be BUY or SELL."},
		{"non numeric quantity", `{"symbol":"INFY","type":"BUY","quantity":"ten","price":1}`, http.StatusBadRequest, false, "Quantity must be a positive whole number."},
		{"missing price", `{"symbol":"INFY","type":"BUY","quantity":1}`, http.StatusBadRequest, false, "Price must be greater than 0."},
		{"unknown symbol", `{"symbol":"ZZZ","type":"BUY","quantity":1,"price":1}`, http.StatusBadRequest, false, "Stock symbol is invalid."},
		{"insufficient funds", `{"symbol":"TCS","type":"BUY","quantity":100,"price":3900}`, http.StatusBadRequest, false, "Insufficient balance for this trade."},
		{"insufficient holdings", `{"symbol":"TCS","type":"SELL","quantity":1,"price":3900}`, http.StatusBadRequest, false, "Insufficient holdings to sell."},
		{"malformed body", `{"symbol":`, http.StatusBadRequest, false, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/trades/execute", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			env := decode(t, w)
			assert.Equal(t, tt.wantOK, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestHandler_ExecuteTradeReturnsBalance(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/trades/execute", `{"symbol":"INFY","type":"BUY","quantity":10,"price":1500}`)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		OrderID string  `json:"orderId"`
		Balance float64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.NotEmpty(t, data.OrderID)
	assert.Equal(t, 85000.0, data.Balance)
}

func TestHandler_ListAndExportOrders(t *testing.T) {
	router, _ := newTestRouter(t)

	doRequest(router, http.MethodPost, "/api/trades/execute", `{"symbol":"INFY","type":"BUY","quantity":2,"price":1500}`)
	doRequest(router, http.MethodPost, "/api/trades/execute", `{"symbol":"TCS","type":"BUY","quantity":1,"price":3900}`)

	w := doRequest(router, http.MethodGet, "/api/orders?symbol=tcs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var orders []types.Order
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "TCS", orders[0].Symbol)
	assert.Equal(t, types.OrderStatusExecuted, orders[0].Status)

	w = doRequest(router, http.MethodGet, "/api/orders/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "order_id,timestamp,symbol"))
}
