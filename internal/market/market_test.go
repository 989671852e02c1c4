package market

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 14, 10, 37, 12, 0, time.UTC)

func fixedProvider() *Provider {
	return NewProvider(
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		" infy ":   "INFY",
		"m&m":      "M_M",
		"M&M":      "M_M",
		"tcs\n":    "TCS",
		"":         "",
		"  ":       "",
		"hdfcbank": "HDFCBANK",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
	assert.Equal(t, "M&M", Display("M_M"))
}

func TestQuoteDeterministic(t *testing.T) {
	p := fixedProvider()

	q1, ok := p.Quote("infy")
	require.True(t, ok)
	q2, ok := p.Quote("INFY")
	require.True(t, ok)

	assert.Equal(t, q1, q2)
	assert.Equal(t, "INFY", q1.Symbol)
	assert.Equal(t, "Infosys", q1.CompanyName)
	assert.InDelta(t, 1555.45, q1.LivePrice, 1555.45*0.1)
}

func TestQuoteUnknown(t *testing.T) {
	_, ok := fixedProvider().Quote("NOPE")
	assert.False(t, ok)

	_, ok = fixedProvider().Snapshot("")
	assert.False(t, ok)
}

func TestQuoteMovesWithClock(t *testing.T) {
	now := fixedNow
	p := NewProvider(WithClock(func() time.Time { return now }))

	before, _ := p.Quote("TCS")
	now = now.Add(2 * time.Hour)
	after, _ := p.Quote("TCS")

	assert.NotEqual(t, before.LivePrice, after.LivePrice)
}

func TestSnapshot(t *testing.T) {
	p := fixedProvider()

	snap, ok := p.Snapshot("m&m")
	require.True(t, ok)

	assert.Equal(t, "M_M", snap.Symbol)
	assert.Equal(t, "Mahindra & Mahindra", snap.CompanyName)
	require.Len(t, snap.Historical, candleCount)

	last := snap.Historical[len(snap.Historical)-1]
	assert.Equal(t, snap.LivePrice, last.Close)
	assert.Equal(t, "10:35", last.Time)
	assert.Equal(t, "07:40", snap.Historical[0].Time)

	for _, c := range snap.Historical {
		assert.GreaterOrEqual(t, c.High, c.Low)
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.LessOrEqual(t, c.Low, c.Close)
		assert.GreaterOrEqual(t, c.Volume, int64(150000))
		assert.Less(t, c.Volume, int64(750000))
	}

	assert.InDelta(t, snap.LivePrice-0.2, snap.OrderBook.Bid[0].Price, 0.001)
	assert.InDelta(t, snap.LivePrice+0.2, snap.OrderBook.Ask[0].Price, 0.001)
	assert.InDelta(t, snap.OrderBook.Bid[0].Price-0.1, snap.OrderBook.Bid[1].Price, 0.001)

	assert.Equal(t, 48.0, snap.TechnicalIndicators.RSI14)
	assert.Equal(t, 34.1, snap.Fundamentals.EPS)

	q, ok := p.Quote("M_M")
	require.True(t, ok)
	assert.Equal(t, q, snap.Quote)
}

func TestSymbolsSorted(t *testing.T) {
	symbols := fixedProvider().Symbols()
	require.Len(t, symbols, len(listings))

	for i := 1; i < len(symbols); i++ {
		assert.LessOrEqual(t, strings.ToLower(symbols[i-1].CompanyName), strings.ToLower(symbols[i].CompanyName))
	}

	for _, s := range symbols {
		if s.Symbol == "M_M" {
			assert.Equal(t, "M&M", s.DisplaySymbol)
		}
	}
}

func TestSeededUnitRange(t *testing.T) {
	for step := 0.0; step < 500; step++ {
		v := seededUnit(300, step)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewGinHandlers(fixedProvider())
	router.GET("/api/market", h.ListSymbolsHandler())
	router.GET("/api/market/:symbol", h.SnapshotHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/market/infy", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"companyName":"Infosys"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/market/UNKNOWN", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Stock symbol not found.")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/market", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"displaySymbol":"M\u0026M"`)
}
