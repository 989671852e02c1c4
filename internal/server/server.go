// Package server assembles the services and HTTP routes of the trading API.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/advisory"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/cache"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/dashboard"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/metrics"
	"github.com/ksred/papertrade-api/internal/payments"
	"github.com/ksred/papertrade-api/internal/portfolio"
	"github.com/ksred/papertrade-api/internal/trading"
	"github.com/ksred/papertrade-api/internal/watchlist"
	"github.com/ksred/papertrade-api/pkg/middleware"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services holds every domain service the router dispatches to
type Services struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Market    *market.Provider
	Trading   *trading.Service
	Portfolio *portfolio.Service
	Watchlist *watchlist.Service
	Dashboard *dashboard.Service
	Payments  *payments.Service
	Advisory  *advisory.Service
}

// NewServices wires the domain services over one database handle and market
// provider. A nil cache selects the in-process cache.
func NewServices(cfg *config.Config, db *gorm.DB, provider *market.Provider, c cache.Cache, authOpts ...auth.Option) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving timezone: %w", err)
	}

	portfolioService := portfolio.NewService(db, provider)
	watchlistService := watchlist.NewService(db, provider)

	return &Services{
		DB:        db,
		Auth:      auth.NewService(db, cfg.Auth, cfg.Trading.InitialBalance, authOpts...),
		Market:    provider,
		Trading:   trading.NewService(db, provider, loc),
		Portfolio: portfolioService,
		Watchlist: watchlistService,
		Dashboard: dashboard.NewService(db, portfolioService, watchlistService, loc),
		Payments:  payments.NewService(db, cfg.Payments.SuccessRate),
		Advisory:  advisory.NewService(cfg.Advisory, provider, c),
	}, nil
}

// NewRouter registers the public and authenticated routes
func NewRouter(cfg config.ServerConfig, s *Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RateLimit {
		router.Use(middleware.RateLimit())
	}

	router.GET("/health", healthHandler(s.DB))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authHandlers := auth.NewGinHandlers(s.Auth)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", authHandlers.SignupHandler())
		authRoutes.POST("/login", authHandlers.LoginHandler())
	}

	marketHandlers := market.NewGinHandlers(s.Market)
	tradingHandlers := trading.NewGinHandlers(s.Trading)
	portfolioHandlers := portfolio.NewGinHandlers(s.Portfolio)
	watchlistHandlers := watchlist.NewGinHandlers(s.Watchlist)
	dashboardHandlers := dashboard.NewGinHandlers(s.Dashboard)
	paymentHandlers := payments.NewGinHandlers(s.Payments)
	advisoryHandlers := advisory.NewGinHandlers(s.Advisory)

	api := router.Group("/api")
	api.Use(middleware.JWTAuth(s.Auth))
	{
		api.GET("/me", authHandlers.MeHandler())
		api.POST("/logout", authHandlers.LogoutHandler())

		api.GET("/market", marketHandlers.ListSymbolsHandler())
		api.GET("/market/:symbol", marketHandlers.SnapshotHandler())

		api.GET("/dashboard/summary", dashboardHandlers.SummaryHandler())

		api.GET("/watchlist", watchlistHandlers.ListHandler())
		api.POST("/watchlist", watchlistHandlers.AddHandler())

		api.GET("/portfolio", portfolioHandlers.GetPortfolioHandler())

		api.GET("/orders", tradingHandlers.ListOrdersHandler())
		api.GET("/orders/export", tradingHandlers.ExportOrdersHandler())
		api.POST("/trades/execute", tradingHandlers.ExecuteTradeHandler())

		api.POST("/payments/deposit", paymentHandlers.DepositHandler())
		api.GET("/payments/history", paymentHandlers.HistoryHandler())

		ai := api.Group("/ai")
		{
			ai.GET("/sentiment/:stockSymbol", advisoryHandlers.SentimentHandler())
			ai.GET("/recommendation/:stockSymbol", advisoryHandlers.RecommendationHandler())
			ai.GET("/fundamentals/:stockSymbol", advisoryHandlers.FundamentalsHandler())
		}
	}

	return router
}

// healthHandler reports whether the database answers a ping
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Error().Err(err).Msg("health check failed")
			response.InternalError(c, "Database unavailable")
			return
		}
		response.Success(c, gin.H{"status": "ok"})
	}
}
