package trading

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/ledger"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/metrics"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxQuantity is the largest whole number a float64 represents exactly
const maxQuantity = 1 << 53

// Service executes trades against the ledger and lists order history
type Service struct {
	db     *Database
	quotes market.QuoteProvider
	loc    *time.Location
}

// NewService creates a new trading service. loc is the calendar used by the
// orders date filter.
func NewService(gormDB *gorm.DB, quotes market.QuoteProvider, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:     NewDatabase(gormDB),
		quotes: quotes,
		loc:    loc,
	}
}

// GetDB returns the service's repository
func (s *Service) GetDB() *Database {
	return s.db
}

// Execute validates a trade, records it as a PENDING order, applies it to
// the ledger and flips the order to EXECUTED.
//
// Rejections found before the order is written leave no trace. A rejection
// found while re-validating inside the ledger transaction (another request
// won a race for the same balance or position) marks the order FAILED. Any
// other failure after the order is written returns ErrExecutionFailed and
// leaves the order PENDING for the recovery sweep.
func (s *Service) Execute(ctx context.Context, userID uint, req types.TradeRequest) (*types.TradeResult, error) {
	start := time.Now()

	orderType := strings.ToUpper(strings.TrimSpace(req.Type))
	symbol := market.Normalize(req.Symbol)

	if err := validateRequest(orderType, symbol, req.Quantity, req.Price); err != nil {
		recordRejection(err)
		return nil, err
	}
	quantity := int64(req.Quantity)
	price := req.Price

	logger := log.With().
		Str("service", "trading").
		Uint("user_id", userID).
		Str("symbol", symbol).
		Str("type", orderType).
		Int64("quantity", quantity).
		Float64("price", price).
		Logger()

	quote, ok := s.quotes.Quote(symbol)
	if !ok {
		recordRejection(ErrUnknownSymbol)
		return nil, ErrUnknownSymbol
	}

	total := money.Total(quantity, price)

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load user")
		return nil, wrapExecution(err)
	}
	holding, err := s.db.GetHolding(ctx, userID, symbol)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load holding")
		return nil, wrapExecution(err)
	}

	if err := checkLedger(orderType, user, holding, quantity, total); err != nil {
		logger.Warn().
			Float64("total", total).
			Float64("balance", user.Balance).
			Int64("held", heldQuantity(holding)).
			Msg(err.Error())
		recordRejection(err)
		return nil, err
	}

	order := &types.Order{
		OrderID:     uuid.New().String(),
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: quote.CompanyName,
		Type:        orderType,
		Quantity:    quantity,
		Price:       price,
		Total:       total,
		Status:      types.OrderStatusPending,
	}

	// Execution is not abandoned when the client goes away
	execCtx := context.WithoutCancel(ctx)

	if err := s.db.CreateOrder(execCtx, order); err != nil {
		logger.Error().Err(err).Msg("failed to record pending order")
		return nil, wrapExecution(err)
	}
	logger = logger.With().Str("order_id", order.OrderID).Float64("total", total).Logger()

	var balance float64
	err = ledger.Transact(execCtx, s.db.db, ledger.DefaultAttempts, func(tx *gorm.DB) error {
		b, err := applyOrder(tx, order)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})

	if err != nil {
		if isRejection(err) {
			logger.Warn().Err(err).Msg("trade rejected on re-validation")
			if _, markErr := s.db.resolvePending(execCtx, order.OrderID, types.OrderStatusFailed, err.Error()); markErr != nil {
				logger.Error().Err(markErr).Msg("failed to mark order failed")
			}
			recordRejection(err)
			return nil, err
		}

		logger.Error().Err(err).Msg("trade execution failed, order left pending for reconciliation")
		recordRejection(ErrExecutionFailed)
		return nil, wrapExecution(err)
	}

	metrics.TradesTotal.WithLabelValues(orderType).Inc()
	metrics.TradeLatency.WithLabelValues(orderType).Observe(time.Since(start).Seconds())
	logger.Info().Float64("balance", balance).Msg("trade executed")

	return &types.TradeResult{
		OrderID: order.OrderID,
		Balance: balance,
		Message: fmt.Sprintf("%s order executed successfully.", orderType),
	}, nil
}

func validateRequest(orderType, symbol string, quantity, price float64) error {
	if orderType != types.OrderTypeBuy && orderType != types.OrderTypeSell {
		return ErrInvalidOrderType
	}
	if symbol == "" {
		return ErrSymbolRequired
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 ||
		quantity != math.Trunc(quantity) || quantity > maxQuantity {
		return ErrInvalidQuantity
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// checkLedger applies the balance and position rules to a snapshot of the
// ledger. It runs once before the order is written and again inside the
// ledger transaction.
func checkLedger(orderType string, user *types.User, holding *types.Holding, quantity int64, total float64) error {
	switch orderType {
	case types.OrderTypeBuy:
		if user.Balance < total {
			return ErrInsufficientFunds
		}
	case types.OrderTypeSell:
		if holding == nil || holding.Quantity < quantity {
			return ErrInsufficientHoldings
		}
	}
	return nil
}

// applyOrder moves the position and the cash for order, appends its trade and
// flips it to EXECUTED. It must only touch tx.
func applyOrder(tx *gorm.DB, order *types.Order) (float64, error) {
	user, err := ledger.LoadUser(tx, order.UserID)
	if err != nil {
		return 0, err
	}
	holding, err := findHolding(tx, order.UserID, order.Symbol)
	if err != nil {
		return 0, err
	}
	if err := checkLedger(order.Type, user, holding, order.Quantity, order.Total); err != nil {
		return 0, err
	}

	var delta float64
	switch order.Type {
	case types.OrderTypeBuy:
		if holding != nil {
			err = updateHolding(tx, holding, map[string]interface{}{
				"quantity":          holding.Quantity + order.Quantity,
				"average_buy_price": money.WeightedAverage(holding.AverageBuyPrice, holding.Quantity, order.Total, order.Quantity),
				"current_price":     order.Price,
			})
		} else {
			err = createHolding(tx, &types.Holding{
				UserID:          order.UserID,
				Symbol:          order.Symbol,
				CompanyName:     order.CompanyName,
				Quantity:        order.Quantity,
				AverageBuyPrice: order.Price,
				CurrentPrice:    order.Price,
				Version:         1,
			})
		}
		delta = -order.Total

	case types.OrderTypeSell:
		remaining := holding.Quantity - order.Quantity
		if remaining <= 0 {
			err = deleteHolding(tx, holding)
		} else {
			err = updateHolding(tx, holding, map[string]interface{}{
				"quantity":      remaining,
				"current_price": order.Price,
			})
		}
		delta = order.Total
	}
	if err != nil {
		return 0, err
	}

	balance, err := ledger.AdjustBalance(tx, user, delta)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	trade := &types.Trade{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Symbol:      order.Symbol,
		CompanyName: order.CompanyName,
		Type:        order.Type,
		Quantity:    order.Quantity,
		Price:       order.Price,
		Total:       order.Total,
	}
	if err := tx.Create(trade).Error; err != nil {
		return 0, fmt.Errorf("append trade: %w", err)
	}

	flipped, err := resolvePending(tx, order.OrderID, types.OrderStatusExecuted, "")
	if err != nil {
		return 0, fmt.Errorf("mark order executed: %w", err)
	}
	if !flipped {
		return 0, errOrderNotPending
	}

	order.Status = types.OrderStatusExecuted
	return balance, nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrInsufficientHoldings)
}

func wrapExecution(err error) error {
	return fmt.Errorf("execute trade: %w", apperror.Wrap(ErrExecutionFailed, err))
}

func heldQuantity(h *types.Holding) int64 {
	if h == nil {
		return 0
	}
	return h.Quantity
}

func recordRejection(err error) {
	reason := "execution_failed"
	switch {
	case errors.Is(err, ErrInvalidOrderType):
		reason = "invalid_type"
	case errors.Is(err, ErrSymbolRequired):
		reason = "symbol_required"
	case errors.Is(err, ErrInvalidQuantity):
		reason = "invalid_quantity"
	case errors.Is(err, ErrInvalidPrice):
		reason = "invalid_price"
	case errors.Is(err, ErrUnknownSymbol):
		reason = "unknown_symbol"
	case errors.Is(err, ErrInsufficientFunds):
		reason = "insufficient_funds"
	case errors.Is(err, ErrInsufficientHoldings):
		reason = "insufficient_holdings"
	}
	metrics.TradeRejections.WithLabelValues(reason).Inc()
}

// ListOrders returns the user's orders matching filter, newest first
func (s *Service) ListOrders(ctx context.Context, userID uint, filter OrderFilter) ([]types.Order, error) {
	return s.db.ListOrders(ctx, s.resolveFilter(userID, filter))
}

func (s *Service) resolveFilter(userID uint, filter OrderFilter) orderQuery {
	q := orderQuery{
		userID: userID,
		symbol: market.Normalize(filter.Symbol),
		typ:    strings.ToUpper(strings.TrimSpace(filter.Type)),
	}
	if day, ok := s.parseDay(filter.Date); ok {
		q.from = day
		q.to = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return q
}

// parseDay returns local midnight of the calendar day named by raw. An
// unparsable date is ignored rather than rejected.
func (s *Service) parseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	var t time.Time
	var err error
	if t, err = time.ParseInLocation("2006-01-02", raw, s.loc); err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, false
		}
		t = t.In(s.loc)
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc), true
}

// WriteOrdersCSV writes orders as CSV to w
func (s *Service) WriteOrdersCSV(w io.Writer, orders []types.Order) error {
	rows := make([]*orderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, &orderRow{
			OrderID:     o.OrderID,
			Timestamp:   o.CreatedAt.In(s.loc).Format(time.RFC3339),
			Symbol:      o.Symbol,
			CompanyName: o.CompanyName,
			Type:        o.Type,
			Quantity:    o.Quantity,
			Price:       o.Price,
			Total:       o.Total,
			Status:      o.Status,
			Reason:      o.Reason,
		})
	}
	return gocsv.Marshal(rows, w)
}

// tradeBody accepts quantity and price as JSON numbers or numeric strings
type tradeBody struct {
	Symbol   string      `json:"symbol"`
	Type     string      `json:"type"`
	Quantity interface{} `json:"quantity"`
	Price    interface{} `json:"price"`
}

// toNumber converts a decoded JSON value to float64. Anything that is not a
// number or a numeric string becomes NaN and fails validation.
func toNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// GinHandlers contains HTTP handlers for trading endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ExecuteTradeHandler handles POST /api/trades/execute
func (h *GinHandlers) ExecuteTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body tradeBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		result, err := h.service.Execute(c.Request.Context(), auth.UserID(c), types.TradeRequest{
			Symbol:   body.Symbol,
			Type:     body.Type,
			Quantity: toNumber(body.Quantity),
			Price:    toNumber(body.Price),
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		response.SuccessMessage(c, result.Message, result)
	}
}

// ListOrdersHandler handles GET /api/orders
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter OrderFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			response.BadRequest(c, "Invalid query parameters")
			return
		}

		orders, err := h.service.ListOrders(c.Request.Context(), auth.UserID(c), filter)
		response.Handle(c, orders, err)
	}
}

// ExportOrdersHandler handles GET /api/orders/export
func (h *GinHandlers) ExportOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter OrderFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			response.BadRequest(c, "Invalid query parameters")
			return
		}

		orders, err := h.service.ListOrders(c.Request.Context(), auth.UserID(c), filter)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
		c.Status(http.StatusOK)
		if err := h.service.WriteOrdersCSV(c.Writer, orders); err != nil {
			log.Error().Err(err).Msg("failed to write orders csv")
		}
	}
}
