// Package metrics provides Prometheus instrumentation for the trading API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts executed trades, partitioned by type.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_trades_total",
		Help: "Total number of trades executed",
	}, []string{"type"})

	// TradeRejections counts trades rejected before or during execution.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_trade_rejections_total",
		Help: "Trades rejected, partitioned by reason",
	}, []string{"reason"})

	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "papertrade_trade_latency_seconds",
		Help:    "Trade execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// LedgerConflicts counts optimistic-lock conflicts that forced a retry.
	LedgerConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_ledger_conflicts_total",
		Help: "Ledger compare-and-set conflicts",
	})

	// RecoveredOrders counts stale PENDING orders resolved by the recovery sweep.
	RecoveredOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_recovered_orders_total",
		Help: "Stale pending orders resolved by the recovery sweep",
	}, []string{"status"})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_payments_total",
		Help: "Deposits processed by the dummy gateway",
	}, []string{"status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "papertrade_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics. The matched route pattern is used as
// the path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
