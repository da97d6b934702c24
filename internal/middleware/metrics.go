package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// OrdersTotal counts submitted orders by side and outcome.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_orders_total",
			Help: "Total number of submitted orders by side and outcome",
		},
		[]string{"side", "outcome"},
	)

	// TradesTotal counts emitted trades.
	TradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_trades_total",
			Help: "Total number of trades produced by the matching loop",
		},
	)

	// TradeVolume accumulates traded quantity in lots.
	TradeVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_trade_volume_lots_total",
			Help: "Total traded quantity in lots",
		},
	)

	// BookDepth tracks the number of resting orders per side.
	BookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_book_depth",
			Help: "Current number of resting orders per side",
		},
		[]string{"side"},
	)
)

// Prometheus records request metrics.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}
