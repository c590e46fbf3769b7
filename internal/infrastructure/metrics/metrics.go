package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Money movement metrics
	FundsLoaded       prometheus.Counter
	FundsLoadedAmount prometheus.Histogram
	BillsPaid         *prometheus.CounterVec
	TransfersSent     prometheus.Counter
	TransferAmount    prometheus.Histogram
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	CardsRegistered prometheus.Counter
	CardsRemoved    prometheus.Counter

	// Activity metrics
	ActivityQueries *prometheus.CounterVec
	ActivityEntries prometheus.Histogram

	// Wizard metrics
	FlowsStarted  *prometheus.CounterVec
	FlowOutcomes  *prometheus.CounterVec
	FlowsInFlight prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		FundsLoaded: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_funds_loaded_total",
			Help: "Total number of successful card top-ups",
		}),
		FundsLoadedAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dmh_funds_loaded_amount",
			Help:    "Top-up amounts in ARS",
			Buckets: []float64{100, 1000, 10000, 100000, 500000, 1500000},
		}),
		BillsPaid: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_bills_paid_total",
				Help: "Total number of bills paid by method",
			},
			[]string{"method"},
		),
		TransfersSent: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_transfers_sent_total",
			Help: "Total number of transfers between accounts",
		}),
		TransferAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dmh_transfer_amount",
			Help:    "Transfer amounts in ARS",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		}),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmh_operation_duration_seconds",
				Help:    "Duration of money-moving operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_operation_errors_total",
				Help: "Total money-moving operation errors by operation",
			},
			[]string{"operation"},
		),

		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		CardsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_cards_registered_total",
			Help: "Total number of cards registered",
		}),
		CardsRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_cards_removed_total",
			Help: "Total number of cards removed",
		}),

		ActivityQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_activity_queries_total",
				Help: "Total activity queries by snapshot source",
			},
			[]string{"source"},
		),
		ActivityEntries: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dmh_activity_snapshot_entries",
			Help:    "Number of ledger entries per loaded activity snapshot",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		}),

		FlowsStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_flows_started_total",
				Help: "Total wizard flows started",
			},
			[]string{"flow"},
		),
		FlowOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_flow_outcomes_total",
				Help: "Total wizard submissions by outcome",
			},
			[]string{"flow", "outcome"},
		),
		FlowsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "dmh_flows_in_flight",
			Help: "Wizard flows currently held in memory",
		}),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmh_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		CacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_cache_requests_total",
				Help: "Total cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "dmh_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),

		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_db_retries_total",
				Help: "Transactions retried after a transient PostgreSQL error",
			},
			[]string{"code"},
		),

		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmh_rate_limit_hits_total",
				Help: "Total rate limit hits by limiter key kind",
			},
			[]string{"scope"},
		),
	}
}
