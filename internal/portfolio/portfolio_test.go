package portfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/testutil"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuotes map[string]market.Quote

func (s stubQuotes) Quote(symbol string) (market.Quote, bool) {
	q, ok := s[symbol]
	return q, ok
}

var quotes = stubQuotes{
	"INFY": {Symbol: "INFY", CompanyName: "Infosys", LivePrice: 1600},
	"ZERO": {Symbol: "ZERO", CompanyName: "Zero Ltd", LivePrice: 0},
}

func TestValue(t *testing.T) {
	tests := []struct {
		name    string
		holding types.Holding
		want    types.HoldingView
	}{
		{
			name:    "live quote",
			holding: types.Holding{Symbol: "INFY", CompanyName: "Infosys", Quantity: 10, AverageBuyPrice: 1500, CurrentPrice: 1550},
			want: types.HoldingView{
				Symbol: "INFY", CompanyName: "Infosys", Quantity: 10, AverageBuyPrice: 1500, CurrentPrice: 1600,
				Invested: 15000, CurrentValue: 16000, PnL: 1000, PnLPct: 6.67,
			},
		},
		{
			name:    "stored price when quote is zero",
			holding: types.Holding{Symbol: "ZERO", Quantity: 3, AverageBuyPrice: 100, CurrentPrice: 120},
			want: types.HoldingView{
				Symbol: "ZERO", CompanyName: "Zero Ltd", Quantity: 3, AverageBuyPrice: 100, CurrentPrice: 120,
				Invested: 300, CurrentValue: 360, PnL: 60, PnLPct: 20,
			},
		},
		{
			name:    "average price when nothing else",
			holding: types.Holding{Symbol: "GONE", Quantity: 4, AverageBuyPrice: 99.99},
			want: types.HoldingView{
				Symbol: "GONE", CompanyName: "GONE", Quantity: 4, AverageBuyPrice: 99.99, CurrentPrice: 99.99,
				Invested: 399.96, CurrentValue: 399.96, PnL: 0, PnLPct: 0,
			},
		},
		{
			name:    "loss",
			holding: types.Holding{Symbol: "INFY", CompanyName: "Infosys", Quantity: 2, AverageBuyPrice: 1700},
			want: types.HoldingView{
				Symbol: "INFY", CompanyName: "Infosys", Quantity: 2, AverageBuyPrice: 1700, CurrentPrice: 1600,
				Invested: 3400, CurrentValue: 3200, PnL: -200, PnLPct: -5.88,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.holding, quotes))
		})
	}
}

func TestSummarize(t *testing.T) {
	p := Summarize([]types.Holding{
		{Symbol: "INFY", Quantity: 10, AverageBuyPrice: 1500},
		{Symbol: "ZERO", Quantity: 3, AverageBuyPrice: 100, CurrentPrice: 120},
	}, quotes)

	require.Len(t, p.Holdings, 2)
	assert.Equal(t, types.PortfolioSummary{
		TotalInvested:     15300,
		TotalCurrentValue: 16360,
		TotalPnL:          1060,
		TotalPnLPct:       6.93,
	}, p.Summary)
}

func TestSummarizeEmpty(t *testing.T) {
	p := Summarize(nil, quotes)
	assert.NotNil(t, p.Holdings)
	assert.Empty(t, p.Holdings)
	assert.Equal(t, types.PortfolioSummary{}, p.Summary)
}

func TestGetPortfolioOrdersByUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 0)
	other := testutil.CreateUser(t, db, "b@example.com", 0)
	base := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, h := range []types.Holding{
		{UserID: user.ID, Symbol: "INFY", Quantity: 1, AverageBuyPrice: 1500, UpdatedAt: base},
		{UserID: user.ID, Symbol: "ZERO", Quantity: 1, AverageBuyPrice: 10, UpdatedAt: base.Add(time.Hour)},
		{UserID: other.ID, Symbol: "INFY", Quantity: 1, AverageBuyPrice: 1500, UpdatedAt: base},
	} {
		h.Version = 1
		h.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&h).Error)
	}

	p, err := NewService(db, quotes).GetPortfolio(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, p.Holdings, 2)
	assert.Equal(t, "ZERO", p.Holdings[0].Symbol)
	assert.Equal(t, "INFY", p.Holdings[1].Symbol)
}

func TestHandler_GetPortfolio(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 0)
	require.NoError(t, db.Create(&types.Holding{UserID: user.ID, Symbol: "INFY", Quantity: 10, AverageBuyPrice: 1500, Version: 1}).Error)

	router := gin.New()
	router.Use(func(c *gin.Context) { auth.SetUser(c, user) })
	router.GET("/api/portfolio", NewGinHandlers(NewService(db, quotes)).GetPortfolioHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    types.Portfolio `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Holdings, 1)
	assert.Equal(t, 1000.0, body.Data.Summary.TotalPnL)
}
