package prometheus

import (
	"time"

	"inventory-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Stock ledger metrics
	StockMutationsCounter prometheus.CounterVec

	// Order metrics
	OrderOperationsCounter prometheus.CounterVec

	// Notification metrics
	NotificationsCreatedCounter prometheus.Counter
	NotificationsSuppressedCounter prometheus.Counter

	// Inventory metrics
	LowStockProductsGauge prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Stock ledger metrics
	StockMutationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_mutations_total",
			Help: "Total number of stock mutations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Order metrics
	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Notification metrics
	NotificationsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_created_total",
			Help: "Total number of low-stock notifications created",
		},
	)

	NotificationsSuppressedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_suppressed_total",
			Help: "Total number of low-stock notifications suppressed by dedup",
		},
	)

	// Inventory metrics
	LowStockProductsGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_low_stock_products",
			Help: "Number of products at or below their minimum stock",
		},
		[]string{"user_id"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordStockMutation increments the counter for stock mutations
func RecordStockMutation(kind string, outcome string) {
	StockMutationsCounter.WithLabelValues(kind, outcome).Inc()
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation string, outcome string) {
	OrderOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordAuthError increments the counter for authentication errors
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}
