// Package watchlist keeps each user's list of followed symbols, seeded with a
// fixed set of large caps.
package watchlist

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Defaults is the watchlist every user starts with, in display order
var Defaults = []string{
	"HDFCBANK",
	"RELIANCE",
	"WIPRO",
	"TCS",
	"INFY",
	"ICICIBANK",
	"HINDUNILVR",
	"ITC",
	"KOTAKBANK",
	"LT",
	"BAJFINANCE",
	"MARUTI",
	"AXISBANK",
	"BHARTIARTL",
	"NTPC",
	"POWERGRID",
	"ONGC",
	"COALINDIA",
	"TATAMOTORS",
	"SUNPHARMA",
}

var (
	ErrSymbolRequired = apperror.Validation("Stock symbol is required.")
	ErrInvalidSymbol  = apperror.Validation("Invalid stock symbol.")
)

var isDefault = func() map[string]bool {
	m := make(map[string]bool, len(Defaults))
	for _, s := range Defaults {
		m[s] = true
	}
	return m
}()

type Service struct {
	db     *gorm.DB
	quotes market.QuoteProvider
}

func NewService(db *gorm.DB, quotes market.QuoteProvider) *Service {
	return &Service{db: db, quotes: quotes}
}

// EnsureDefaults inserts whichever default symbols the user is missing.
// Existing rows, default or custom, are never touched.
func (s *Service) EnsureDefaults(ctx context.Context, userID uint) error {
	rows := make([]types.WatchlistItem, 0, len(Defaults))
	for _, symbol := range Defaults {
		rows = append(rows, types.WatchlistItem{
			UserID:      userID,
			Symbol:      symbol,
			CompanyName: s.companyName(symbol),
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed default watchlist for user %d: %w", userID, err)
	}
	return nil
}

// List returns the merged watchlist: defaults in fixed order, then custom
// symbols newest first, each priced at the current quote.
func (s *Service) List(ctx context.Context, userID uint) ([]types.WatchlistEntry, error) {
	if err := s.EnsureDefaults(ctx, userID); err != nil {
		return nil, err
	}

	var items []types.WatchlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list watchlist for user %d: %w", userID, err)
	}

	return s.merge(items), nil
}

func (s *Service) merge(items []types.WatchlistItem) []types.WatchlistEntry {
	bySymbol := make(map[string]types.WatchlistItem, len(items))
	for _, item := range items {
		bySymbol[item.Symbol] = item
	}

	entries := make([]types.WatchlistEntry, 0, len(Defaults)+len(items))
	for _, symbol := range Defaults {
		name := s.companyName(symbol)
		if item, ok := bySymbol[symbol]; ok && item.CompanyName != "" {
			name = item.CompanyName
		}
		entries = append(entries, s.entry(symbol, name))
	}
	for _, item := range items {
		if isDefault[item.Symbol] {
			continue
		}
		entries = append(entries, s.entry(item.Symbol, item.CompanyName))
	}
	return entries
}

func (s *Service) entry(symbol, companyName string) types.WatchlistEntry {
	e := types.WatchlistEntry{Symbol: symbol, CompanyName: companyName}
	if q, ok := s.quotes.Quote(symbol); ok {
		e.LivePrice = q.LivePrice
		e.ChangePct = q.ChangePct
		if e.CompanyName == "" {
			e.CompanyName = q.CompanyName
		}
	}
	if e.CompanyName == "" {
		e.CompanyName = symbol
	}
	return e
}

func (s *Service) companyName(symbol string) string {
	if q, ok := s.quotes.Quote(symbol); ok {
		return q.CompanyName
	}
	return symbol
}

// Add upserts a custom watchlist entry for a known symbol
func (s *Service) Add(ctx context.Context, userID uint, rawSymbol string) (*types.WatchlistItem, error) {
	symbol := market.Normalize(rawSymbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	q, ok := s.quotes.Quote(symbol)
	if !ok {
		return nil, ErrInvalidSymbol
	}

	item := &types.WatchlistItem{UserID: userID, Symbol: symbol, CompanyName: q.CompanyName}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"company_name", "updated_at"}),
		}).
		Create(item).Error
	if err != nil {
		return nil, fmt.Errorf("add %s to watchlist for user %d: %w", symbol, userID, err)
	}

	// An upsert that hit the conflict path does not report the existing id
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		First(item).Error; err != nil {
		return nil, fmt.Errorf("reload watchlist item: %w", err)
	}

	log.Info().Uint("user_id", userID).Str("symbol", symbol).Msg("watchlist symbol added")
	return item, nil
}

type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET /api/watchlist
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.service.List(c.Request.Context(), auth.UserID(c))
		response.Handle(c, entries, err)
	}
}

type addRequest struct {
	Symbol string `json:"symbol"`
}

// AddHandler handles POST /api/watchlist
func (h *GinHandlers) AddHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		item, err := h.service.Add(c.Request.Context(), auth.UserID(c), req.Symbol)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, "Added to watchlist.", item)
	}
}
