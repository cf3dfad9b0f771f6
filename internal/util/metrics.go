package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersShippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_shipped_total",
		Help: "Total number of orders moved to shipped",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order operations",
	}, []string{"reason"})

	OrdersDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_duplicate_total",
		Help: "Order creations answered from an idempotency key",
	})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Total number of stock counter writes",
	}, []string{"reason"})

	StockItemsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_items_skipped_total",
		Help: "Line items skipped because their product no longer exists",
	}, []string{"reason"})

	LowStockAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Stock changes that left a counter below the alert threshold",
	}, []string{"counter"})

	EntitiesDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entities_deleted_total",
		Help: "Records moved into the activity log",
	}, []string{"type"})

	EntitiesRestoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entities_restored_total",
		Help: "Records restored from the activity log",
	}, []string{"type"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"result"})

	AccessDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_denied_total",
		Help: "Requests refused by the access policy",
	}, []string{"role", "reason"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Domain events written to the broker",
	}, []string{"type", "result"})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_consumed_total",
		Help: "Domain events read by the notification worker",
	}, []string{"type"})

	ChangeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "change_stream_subscribers",
		Help: "Open server-sent event streams",
	})

	TxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "service_tx_duration_seconds",
		Help:    "Latency of multi-write service operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
