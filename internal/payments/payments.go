// Package payments simulates deposits through a dummy payment gateway.
package payments

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/internal/ledger"
	"github.com/ksred/papertrade-api/internal/metrics"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RandomGateway approves a deposit with probability successRate
func RandomGateway(successRate float64) Gateway {
	return func() bool {
		return rand.Float64() < successRate
	}
}

type Service struct {
	db      *Database
	gateway Gateway
	now     func() time.Time
}

type Option func(*Service)

// WithGateway replaces the random gateway decision
func WithGateway(g Gateway) Option {
	return func(s *Service) { s.gateway = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gormDB *gorm.DB, successRate float64, opts ...Option) *Service {
	s := &Service{
		db:      NewDatabase(gormDB),
		gateway: RandomGateway(successRate),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deposit runs a deposit through the gateway. A Payment row is written
// whatever the outcome; an approved payment credits the balance in the same
// transaction.
func (s *Service) Deposit(ctx context.Context, userID uint, req DepositRequest) (*DepositResult, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method != types.PaymentMethodUPI && method != types.PaymentMethodNetBanking {
		return nil, ErrInvalidMethod
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	amount := money.Round2(req.Amount)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	approved := s.gateway()
	ref := fmt.Sprintf("TXN-%d-%s", s.now().UnixMilli(), uuid.New().String()[:8])

	logger := log.With().
		Str("service", "payments").
		Uint("user_id", userID).
		Str("transaction_ref", ref).
		Str("method", method).
		Float64("amount", amount).
		Logger()

	status, reason := types.PaymentStatusFailed, reasonDecline
	if approved {
		status, reason = types.PaymentStatusSuccess, ""
	}

	var (
		payment *types.Payment
		balance float64
	)
	err := ledger.Transact(ctx, s.db.db, ledger.DefaultAttempts, func(tx *gorm.DB) error {
		payment = &types.Payment{
			UserID:         userID,
			Amount:         amount,
			Method:         method,
			Status:         status,
			TransactionRef: ref,
			FailureReason:  reason,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		if !approved {
			return nil
		}

		user, err := ledger.LoadUser(tx, userID)
		if err != nil {
			return err
		}
		balance, err = ledger.AdjustBalance(tx, user, amount)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to process payment")
		return nil, fmt.Errorf("deposit for user %d: %w", userID, err)
	}

	metrics.PaymentsTotal.WithLabelValues(status).Inc()

	if !approved {
		logger.Warn().Msg("dummy gateway declined payment")
		return &DepositResult{Transaction: payment}, nil
	}

	logger.Info().Float64("balance", balance).Msg("payment credited")
	return &DepositResult{Balance: &balance, Transaction: payment}, nil
}

// History returns the user's payments, newest first
func (s *Service) History(ctx context.Context, userID uint) ([]types.Payment, error) {
	return s.db.GetUserPayments(ctx, userID)
}

type depositBody struct {
	Amount interface{} `json:"amount"`
	Method string      `json:"method"`
}

func parseAmount(v interface{}) float64 {
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

type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// DepositHandler handles POST /api/payments/deposit
func (h *GinHandlers) DepositHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body depositBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		result, err := h.service.Deposit(c.Request.Context(), auth.UserID(c), DepositRequest{
			Amount: parseAmount(body.Amount),
			Method: body.Method,
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		if !result.Succeeded() {
			response.JSON(c, http.StatusOK, false, msgDeclined, result)
			return
		}
		response.SuccessMessage(c, msgSuccess, result)
	}
}

// HistoryHandler handles GET /api/payments/history
func (h *GinHandlers) HistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := h.service.History(c.Request.Context(), auth.UserID(c))
		response.Handle(c, payments, err)
	}
}
