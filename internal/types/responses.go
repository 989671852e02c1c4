package types

// TradeRequest is the body of POST /api/trades/execute. Quantity and price
// are parsed by the handler so numeric strings are accepted.
type TradeRequest struct {
	Symbol   string  `json:"symbol"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// TradeResult represents the outcome of an executed trade
type TradeResult struct {
	OrderID string  `json:"orderId"`
	Balance float64 `json:"balance"`
	Message string  `json:"-"`
}

// HoldingView is a holding valued at the current quote
type HoldingView struct {
	Symbol          string  `json:"symbol"`
	CompanyName     string  `json:"companyName"`
	Quantity        int64   `json:"quantity"`
	AverageBuyPrice float64 `json:"averageBuyPrice"`
	CurrentPrice    float64 `json:"currentPrice"`
	Invested        float64 `json:"invested"`
	CurrentValue    float64 `json:"currentValue"`
	PnL             float64 `json:"pnl"`
	PnLPct          float64 `json:"pnlPct"`
}

// PortfolioSummary aggregates every HoldingView of a user
type PortfolioSummary struct {
	TotalInvested     float64 `json:"totalInvested"`
	TotalCurrentValue float64 `json:"totalCurrentValue"`
	TotalPnL          float64 `json:"totalPnl"`
	TotalPnLPct       float64 `json:"totalPnlPct"`
}

// Portfolio represents the response from the portfolio aggregator
type Portfolio struct {
	Holdings []HoldingView    `json:"holdings"`
	Summary  PortfolioSummary `json:"summary"`
}

// WatchlistEntry is a watchlist row enriched with its live quote
type WatchlistEntry struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LivePrice   float64 `json:"livePrice"`
	ChangePct   float64 `json:"changePct"`
}

// DashboardSummary represents the response of GET /api/dashboard/summary
type DashboardSummary struct {
	AvailableBalance    float64          `json:"availableBalance"`
	TodayPnL            float64          `json:"todayPnl"`
	Watchlist           []WatchlistEntry `json:"watchlist"`
	PortfolioTotalValue float64          `json:"portfolioTotalValue"`
	PortfolioPnL        float64          `json:"portfolioPnl"`
	RecentTrades        []Trade          `json:"recentTrades"`
}
