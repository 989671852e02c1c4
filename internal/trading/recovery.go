package trading

import (
	"context"
	"time"

	"github.com/ksred/papertrade-api/internal/metrics"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 500

// Recoverer resolves orders left PENDING by an interrupted execution. The
// trade row is the commit marker: the ledger mutation and the trade are
// written in one transaction, so an order with a trade was applied and an
// order without one was not.
type Recoverer struct {
	db         *Database
	interval   time.Duration // Time between sweeps
	staleAfter time.Duration // Minimum age of a PENDING order before it is touched
	now        func() time.Time
}

func NewRecoverer(db *Database, interval, staleAfter time.Duration) *Recoverer {
	return &Recoverer{
		db:         db,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Start begins the recovery loop
func (r *Recoverer) Start(ctx context.Context) {
	logger := log.With().Str("component", "order_recovery").Logger()
	logger.Info().
		Dur("interval", r.interval).
		Dur("stale_after", r.staleAfter).
		Msg("starting order recovery")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down order recovery")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to sweep pending orders")
			}
		}
	}
}

// Sweep resolves every stale PENDING order once. Each transition is
// conditional on the order still being PENDING, so running Sweep repeatedly
// or concurrently with itself is safe.
func (r *Recoverer) Sweep(ctx context.Context) (RecoveryReport, error) {
	logger := log.With().Str("component", "order_recovery").Logger()
	var report RecoveryReport

	orders, err := r.db.GetStalePendingOrders(ctx, r.now().Add(-r.staleAfter), sweepBatchSize)
	if err != nil {
		return report, err
	}
	report.Scanned = len(orders)
	if len(orders) == 0 {
		return report, nil
	}

	logger.Info().Int("pending_count", len(orders)).Msg("processing stale pending orders")

	for _, order := range orders {
		applied, err := r.db.TradeExists(ctx, order.OrderID)
		if err != nil {
			logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to check trade for order")
			continue
		}

		status, reason := types.OrderStatusFailed, reasonInterrupted
		if applied {
			status, reason = types.OrderStatusExecuted, ""
		}

		moved, err := r.db.resolvePending(ctx, order.OrderID, status, reason)
		if err != nil {
			logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to resolve pending order")
			continue
		}
		if !moved {
			continue
		}

		if applied {
			report.Executed++
		} else {
			report.Failed++
		}
		metrics.RecoveredOrders.WithLabelValues(status).Inc()
		logger.Warn().
			Str("order_id", order.OrderID).
			Uint("user_id", order.UserID).
			Str("status", status).
			Msg("resolved stale pending order")
	}

	return report, nil
}
