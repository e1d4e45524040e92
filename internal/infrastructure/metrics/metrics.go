package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	MovementsCreated  prometheus.Counter
	MovementsReversed prometheus.Counter
	MovementsDeleted  prometheus.Counter
	MovementsImported prometheus.Counter
	MovementDuration  *prometheus.HistogramVec
	MovementAmount    prometheus.Histogram
	MovementErrors    *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Database metrics
	DBRetries prometheus.Counter

	// Directory cache metrics
	DirectoryCache *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventFailures   prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MovementsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_movements_created_total",
			Help: "Total number of movements created",
		}),
		MovementsReversed: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_movements_reversed_total",
			Help: "Total number of movements reversed",
		}),
		MovementsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_movements_deleted_total",
			Help: "Total number of movements deleted",
		}),
		MovementsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_movements_imported_total",
			Help: "Total number of movements re-inserted from archives",
		}),
		MovementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moveledger_movement_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		MovementAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "moveledger_movement_amount",
			Help:    "Movement amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		MovementErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveledger_movement_errors_total",
				Help: "Total number of ledger errors by operation and kind",
			},
			[]string{"operation", "error_type"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moveledger_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "moveledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		DBRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_db_retries_total",
			Help: "Transactions retried after serialization failures or deadlocks",
		}),

		DirectoryCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveledger_directory_cache_total",
				Help: "Client directory cache lookups by result",
			},
			[]string{"result"},
		),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_outbox_events_published_total",
			Help: "Outbox events published",
		}),
		EventFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "moveledger_outbox_event_failures_total",
			Help: "Outbox events that failed to publish",
		}),
	}
}
