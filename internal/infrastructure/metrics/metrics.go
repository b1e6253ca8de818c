package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	TransactionsPosted prometheus.Counter
	PostingDuration    prometheus.Histogram
	PostingErrors      *prometheus.CounterVec
	LockConflicts      prometheus.Counter

	// Template metrics
	TemplatesCreated    prometheus.Counter
	TemplateCacheHits   prometheus.Counter
	TemplateCacheMisses prometheus.Counter

	// Account and journal metrics
	AccountsCreated prometheus.Counter
	JournalsCreated prometheus.Counter

	// Event metrics
	EventsPublished    prometheus.Counter
	EventsDelivered    prometheus.Counter
	EventSubscribers   prometheus.Gauge
	EventLagClosures   prometheus.Counter
	NotifierReconnects prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Posting metrics
		TransactionsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_transactions_posted_total",
			Help: "Total number of transactions posted",
		}),
		PostingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "celledger_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_posting_errors_total",
				Help: "Total number of posting errors by type",
			},
			[]string{"error_type"},
		),
		LockConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_lock_conflicts_total",
			Help: "Total number of optimistic locking conflicts",
		}),

		// Template metrics
		TemplatesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_templates_created_total",
			Help: "Total number of transaction templates created",
		}),
		TemplateCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_template_cache_hits_total",
			Help: "Total number of template cache hits",
		}),
		TemplateCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_template_cache_misses_total",
			Help: "Total number of template cache misses",
		}),

		// Account and journal metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		JournalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_journals_created_total",
			Help: "Total number of journals created",
		}),

		// Event metrics
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_events_published_total",
			Help: "Total number of events written to the event store",
		}),
		EventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_events_delivered_total",
			Help: "Total number of events delivered to subscribers",
		}),
		EventSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "celledger_event_subscribers",
			Help: "Current number of event subscribers",
		}),
		EventLagClosures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_event_lag_closures_total",
			Help: "Total number of subscribers closed for lagging",
		}),
		NotifierReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "celledger_notifier_reconnects_total",
			Help: "Total number of notifier reconnects to the database",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "celledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "celledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "celledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "celledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "celledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
