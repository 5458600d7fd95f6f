package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adreward_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// sessions started, labelled by content kind (internal/external)
	SessionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_sessions_total",
			Help: "Total watch sessions started",
		},
		[]string{"kind"},
	)

	// live sessions held by the manager
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adreward_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)

	// sessions closed before finishing, labelled by the state they were in
	CancelCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_session_cancellations_total",
			Help: "Sessions cancelled, by state at cancellation",
		},
		[]string{"state"},
	)

	// ad slot decisions, labelled by outcome (filled or the refusal reason)
	AdSlotCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_ad_slots_total",
			Help: "Ad slot decisions by outcome",
		},
		[]string{"decision"},
	)

	// reward calls labelled by outcome
	RewardCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_reward_calls_total",
			Help: "Reward-issuing ledger calls by outcome",
		},
		[]string{"outcome"},
	)

	// total reward credited, in ledger units
	RewardAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreward_reward_amount_total",
			Help: "Sum of reward amounts granted, in ledger units",
		},
	)

	// ledger request count per operation and outcome
	LedgerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_ledger_requests_total",
			Help: "Requests sent to the reward ledger",
		},
		[]string{"operation", "outcome"},
	)

	// ledger request latency per operation
	LedgerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adreward_ledger_request_duration_seconds",
			Help:    "Histogram of reward ledger request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// cache lookups per key kind and result (hit/miss/error)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_cache_lookups_total",
			Help: "Read-through cache lookups",
		},
		[]string{"key", "result"},
	)

	// cache invalidations per key kind
	CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreward_cache_invalidations_total",
			Help: "Cache keys invalidated after ledger mutations",
		},
		[]string{"key"},
	)

	// session starts evaluated by the per-user limiter
	StartLimitRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreward_start_limit_requests_total",
			Help: "Session starts checked by the per-user limiter",
		},
	)

	// session starts rejected by the per-user limiter
	StartLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreward_start_limit_hits_total",
			Help: "Session starts rejected by the per-user limiter",
		},
	)

	// number of errors persisting session events
	EventPersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreward_event_persist_errors_total",
			Help: "Total session event persistence errors",
		},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		SessionCount,
		ActiveSessions,
		CancelCount,
		AdSlotCount,
		RewardCalls,
		RewardAmount,
		LedgerRequests,
		LedgerLatency,
		CacheLookups,
		CacheInvalidations,
		StartLimitRequests,
		StartLimitHits,
		EventPersistErrors,
	)
}
