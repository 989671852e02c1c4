// Package portfolio values a user's holdings at current quotes.
package portfolio

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/ksred/papertrade-api/pkg/response"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	quotes market.QuoteProvider
}

func NewService(db *gorm.DB, quotes market.QuoteProvider) *Service {
	return &Service{db: db, quotes: quotes}
}

// Holdings returns the user's holdings, most recently updated first
func (s *Service) Holdings(ctx context.Context, userID uint) ([]types.Holding, error) {
	var holdings []types.Holding
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("list holdings for user %d: %w", userID, err)
	}
	return holdings, nil
}

// GetPortfolio values every holding of the user and aggregates the totals
func (s *Service) GetPortfolio(ctx context.Context, userID uint) (*types.Portfolio, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(holdings, s.quotes), nil
}

// Summarize values holdings at the prices quotes returns. It does no I/O.
func Summarize(holdings []types.Holding, quotes market.QuoteProvider) *types.Portfolio {
	views := make([]types.HoldingView, 0, len(holdings))
	var summary types.PortfolioSummary

	for _, h := range holdings {
		view := Value(h, quotes)
		summary.TotalInvested = money.Add(summary.TotalInvested, view.Invested)
		summary.TotalCurrentValue = money.Add(summary.TotalCurrentValue, view.CurrentValue)
		views = append(views, view)
	}

	summary.TotalPnL = money.Sub(summary.TotalCurrentValue, summary.TotalInvested)
	summary.TotalPnLPct = money.Percent(summary.TotalPnL, summary.TotalInvested)

	return &types.Portfolio{Holdings: views, Summary: summary}
}

// Value prices one holding. The live quote wins, then the last execution
// price stored on the holding, then the average buy price.
func Value(h types.Holding, quotes market.QuoteProvider) types.HoldingView {
	price := h.AverageBuyPrice
	if h.CurrentPrice > 0 {
		price = h.CurrentPrice
	}

	companyName := h.CompanyName
	if q, ok := quotes.Quote(h.Symbol); ok {
		if q.LivePrice > 0 {
			price = q.LivePrice
		}
		if companyName == "" {
			companyName = q.CompanyName
		}
	}
	if companyName == "" {
		companyName = h.Symbol
	}

	invested := money.Total(h.Quantity, h.AverageBuyPrice)
	current := money.Total(h.Quantity, price)
	pnl := money.Sub(current, invested)

	return types.HoldingView{
		Symbol:          h.Symbol,
		CompanyName:     companyName,
		Quantity:        h.Quantity,
		AverageBuyPrice: money.Round2(h.AverageBuyPrice),
		CurrentPrice:    money.Round2(price),
		Invested:        invested,
		CurrentValue:    current,
		PnL:             pnl,
		PnLPct:          money.Percent(pnl, invested),
	}
}

type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GetPortfolioHandler handles GET /api/portfolio
func (h *GinHandlers) GetPortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		portfolio, err := h.service.GetPortfolio(c.Request.Context(), auth.UserID(c))
		response.Handle(c, portfolio, err)
	}
}
