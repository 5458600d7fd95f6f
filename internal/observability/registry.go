package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// so components never touch the global Prometheus collectors directly.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Session lifecycle metrics
	IncrementSessions(kind string)
	SetActiveSessions(n int)
	IncrementCancellations(state string)

	// Ad slot and reward metrics
	IncrementAdSlots(decision string)
	IncrementRewardCalls(outcome string)
	AddRewardAmount(amount int64)

	// Ledger client metrics
	IncrementLedgerRequests(operation, outcome string)
	RecordLedgerLatency(operation string, duration time.Duration)

	// Cache metrics
	IncrementCacheLookups(key, result string)
	IncrementCacheInvalidations(key string)

	// Start limiter metrics
	IncrementStartLimitRequests()
	IncrementStartLimitHits()

	// Analytics metrics
	IncrementEventPersistErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Session lifecycle metrics
func (r *PrometheusRegistry) IncrementSessions(kind string) {
	SessionCount.WithLabelValues(kind).Inc()
}

func (r *PrometheusRegistry) SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

func (r *PrometheusRegistry) IncrementCancellations(state string) {
	CancelCount.WithLabelValues(state).Inc()
}

// Ad slot and reward metrics
func (r *PrometheusRegistry) IncrementAdSlots(decision string) {
	AdSlotCount.WithLabelValues(decision).Inc()
}

func (r *PrometheusRegistry) IncrementRewardCalls(outcome string) {
	RewardCalls.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) AddRewardAmount(amount int64) {
	RewardAmount.Add(float64(amount))
}

// Ledger client metrics
func (r *PrometheusRegistry) IncrementLedgerRequests(operation, outcome string) {
	LedgerRequests.WithLabelValues(operation, outcome).Inc()
}

func (r *PrometheusRegistry) RecordLedgerLatency(operation string, duration time.Duration) {
	LedgerLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Cache metrics
func (r *PrometheusRegistry) IncrementCacheLookups(key, result string) {
	CacheLookups.WithLabelValues(key, result).Inc()
}

func (r *PrometheusRegistry) IncrementCacheInvalidations(key string) {
	CacheInvalidations.WithLabelValues(key).Inc()
}

// Start limiter metrics
func (r *PrometheusRegistry) IncrementStartLimitRequests() {
	StartLimitRequests.Inc()
}

func (r *PrometheusRegistry) IncrementStartLimitHits() {
	StartLimitHits.Inc()
}

// Analytics metrics
func (r *PrometheusRegistry) IncrementEventPersistErrors() {
	EventPersistErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementSessions(kind string)                                        {}
func (r *NoOpRegistry) SetActiveSessions(n int)                                              {}
func (r *NoOpRegistry) IncrementCancellations(state string)                                  {}
func (r *NoOpRegistry) IncrementAdSlots(decision string)                                     {}
func (r *NoOpRegistry) IncrementRewardCalls(outcome string)                                  {}
func (r *NoOpRegistry) AddRewardAmount(amount int64)                                         {}
func (r *NoOpRegistry) IncrementLedgerRequests(operation, outcome string)                    {}
func (r *NoOpRegistry) RecordLedgerLatency(operation string, duration time.Duration)         {}
func (r *NoOpRegistry) IncrementCacheLookups(key, result string)                             {}
func (r *NoOpRegistry) IncrementCacheInvalidations(key string)                               {}
func (r *NoOpRegistry) IncrementStartLimitRequests()                                         {}
func (r *NoOpRegistry) IncrementStartLimitHits()                                             {}
func (r *NoOpRegistry) IncrementEventPersistErrors()                                         {}
