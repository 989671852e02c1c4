// Package dashboard assembles the landing view of a signed-in user.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/ledger"
	"github.com/ksred/papertrade-api/internal/portfolio"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/internal/watchlist"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/ksred/papertrade-api/pkg/response"
	"gorm.io/gorm"
)

const (
	recentTradeLimit = 5
	// todayPnLRate is the notional realised gain credited per SELL
	todayPnLRate = 0.01
)

type Service struct {
	db        *gorm.DB
	portfolio *portfolio.Service
	watchlist *watchlist.Service
	loc       *time.Location
	now       func() time.Time
}

func NewService(db *gorm.DB, portfolio *portfolio.Service, watchlist *watchlist.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:        db,
		portfolio: portfolio,
		watchlist: watchlist,
		loc:       loc,
		now:       time.Now,
	}
}

// Summary returns balance, today's P&L, the merged watchlist, portfolio
// totals and the most recent trades of the user
func (s *Service) Summary(ctx context.Context, userID uint) (*types.DashboardSummary, error) {
	db := s.db.WithContext(ctx)

	user, err := ledger.LoadUser(db, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.watchlist.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.portfolio.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent := make([]types.Trade, 0, recentTradeLimit)
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(recentTradeLimit).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("list recent trades for user %d: %w", userID, err)
	}

	todayPnL, err := s.todayPnL(db, userID)
	if err != nil {
		return nil, err
	}

	return &types.DashboardSummary{
		AvailableBalance:    money.Round2(user.Balance),
		TodayPnL:            todayPnL,
		Watchlist:           entries,
		PortfolioTotalValue: p.Summary.TotalCurrentValue,
		PortfolioPnL:        p.Summary.TotalPnL,
		RecentTrades:        recent,
	}, nil
}

// todayPnL credits todayPnLRate of every SELL executed since local midnight
func (s *Service) todayPnL(db *gorm.DB, userID uint) (float64, error) {
	y, m, d := s.now().In(s.loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	var totals []float64
	err := db.Model(&types.Trade{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, types.OrderTypeSell, midnight.UTC()).
		Pluck("total", &totals).Error
	if err != nil {
		return 0, fmt.Errorf("sum today's sells for user %d: %w", userID, err)
	}
	return money.Mul(money.Sum(totals...), todayPnLRate), nil
}

type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SummaryHandler handles GET /api/dashboard/summary
func (h *GinHandlers) SummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := h.service.Summary(c.Request.Context(), auth.UserID(c))
		response.Handle(c, summary, err)
	}
}
