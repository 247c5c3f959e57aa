package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "points_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// Point transactions
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_transactions_total",
			Help: "Point transactions by type and result",
		},
		[]string{"type", "result"}, // CHARGE|USE, ok|<error kind>|error
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_events_published_total",
			Help: "Post-commit point events by delivery result",
		},
		[]string{"result"},
	)

	// Per-user locks
	LockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "points_lock_wait_seconds",
			Help:    "Time spent waiting for a per-user lock",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	LockEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "points_lock_entries",
			Help: "Per-user locks currently held or awaited",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "points_worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestLatency,
			TransactionsTotal,
			EventsPublished,
			LockWaitSeconds,
			LockEntries,
			WorkerQueueDepth,
		)
	})
}

func ObserveLockWait(d time.Duration) { LockWaitSeconds.Observe(d.Seconds()) }

func SetLockEntries(n int) { LockEntries.Set(float64(n)) }
