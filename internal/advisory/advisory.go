// Package advisory produces news sentiment, technical recommendations and
// fundamental health scores for listed symbols.
package advisory

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/cache"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
)

const (
	sentimentTTL      = 10 * time.Minute
	recommendationTTL = 15 * time.Minute
	fundamentalsTTL   = time.Hour

	sentimentHeadlines      = 10
	recommendationHeadlines = 5
)

var ErrUnknownSymbol = apperror.NotFound("Stock symbol not found.")

// MarketData is the slice of the market provider advisory reads
type MarketData interface {
	Closes(symbol string) ([]float64, bool)
	Financials(symbol string) (market.Financials, bool)
}

// SentimentResult is the response of the sentiment endpoint
type SentimentResult struct {
	Stock string `json:"stock"`
	Sentiment
}

type Service struct {
	market     MarketData
	news       NewsSource
	classifier Classifier
	cache      cache.Cache
	now        func() time.Time
}

type Option func(*Service)

func WithNewsSource(n NewsSource) Option {
	return func(s *Service) { s.news = n }
}

func WithClassifier(c Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires NewsAPI and OpenAI when their keys are configured. Without
// keys it serves fallback headlines and keyword sentiment.
func NewService(cfg config.AdvisoryConfig, md MarketData, c cache.Cache, opts ...Option) *Service {
	s := &Service{
		market:     md,
		classifier: KeywordClassifier{},
		cache:      c,
		now:        time.Now,
	}
	if cfg.NewsAPIKey != "" {
		s.news = NewNewsAPI(cfg.NewsAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		s.classifier = NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	return s
}

// Sentiment classifies recent headlines about symbol
func (s *Service) Sentiment(ctx context.Context, rawSymbol string) (*SentimentResult, error) {
	symbol := market.Normalize(rawSymbol)
	if _, ok := s.market.Closes(symbol); !ok {
		return nil, ErrUnknownSymbol
	}

	var result SentimentResult
	key := "sentiment:" + symbol
	if s.cached(ctx, key, &result) {
		return &result, nil
	}

	headlines := titles(s.headlines(ctx, symbol, sentimentHeadlines))
	sentiment, err := s.classifier.Classify(ctx, headlines)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment classifier failed, using keyword analysis")
		sentiment = keywordSentiment(headlines)
	}

	result = SentimentResult{Stock: symbol, Sentiment: *sentiment}
	s.store(ctx, key, result, sentimentTTL)
	return &result, nil
}

// Recommendation turns the intraday candles and headline sentiment into a
// BUY, SELL or HOLD verdict
func (s *Service) Recommendation(ctx context.Context, rawSymbol string) (*Recommendation, error) {
	symbol := market.Normalize(rawSymbol)
	closes, ok := s.market.Closes(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}

	var result Recommendation
	key := "recommendation:" + symbol
	if s.cached(ctx, key, &result) {
		return &result, nil
	}

	rec := recommend(symbol, computeIndicators(closes), s.headlines(ctx, symbol, recommendationHeadlines))
	s.store(ctx, key, rec, recommendationTTL)
	return rec, nil
}

// Fundamentals scores the company's financial health
func (s *Service) Fundamentals(ctx context.Context, rawSymbol string) (*FundamentalAnalysis, error) {
	symbol := market.Normalize(rawSymbol)
	f, ok := s.market.Financials(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}

	var result FundamentalAnalysis
	key := "fundamentals:" + symbol
	if s.cached(ctx, key, &result) {
		return &result, nil
	}

	analysis := analyzeFundamentals(symbol, f)
	s.store(ctx, key, analysis, fundamentalsTTL)
	return analysis, nil
}

// headlines reads the news feed, falling back to canned headlines when it
// is not configured or fails
func (s *Service) headlines(ctx context.Context, symbol string, limit int) []Headline {
	if s.news != nil {
		h, err := s.news.Headlines(ctx, symbol, limit)
		if err == nil && len(h) > 0 {
			return h
		}
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("news fetch failed, using fallback headlines")
		}
	}
	h := fallbackHeadlines(symbol, s.now())
	if len(h) > limit {
		h = h[:limit]
	}
	return h
}

func (s *Service) cached(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("advisory cache read failed")
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("advisory cache write failed")
	}
}

type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SentimentHandler handles GET /api/ai/sentiment/:stockSymbol
func (h *GinHandlers) SentimentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.Sentiment(c.Request.Context(), c.Param("stockSymbol"))
		response.Handle(c, result, err)
	}
}

// RecommendationHandler handles GET /api/ai/recommendation/:stockSymbol
func (h *GinHandlers) RecommendationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.Recommendation(c.Request.Context(), c.Param("stockSymbol"))
		response.Handle(c, result, err)
	}
}

// FundamentalsHandler handles GET /api/ai/fundamentals/:stockSymbol
func (h *GinHandlers) FundamentalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.Fundamentals(c.Request.Context(), c.Param("stockSymbol"))
		response.Handle(c, result, err)
	}
}
