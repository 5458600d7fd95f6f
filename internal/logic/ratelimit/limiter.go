package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickwarner/adreward/internal/observability"
)

// StartLimiter throttles session starts per user so a misbehaving client
// cannot hammer the ledger with eligibility reads.
//
// Each user gets its own token bucket, created lazily on first access.
//
// Example usage:
//
//	limiter := NewStartLimiter(Config{Capacity: 10, RefillRate: 1, Enabled: true}, metrics)
//	if !limiter.Allow("user-123") {
//	    // reply 429
//	}
type StartLimiter struct {
	buckets map[string]*TokenBucket       // Map of user ID to token bucket
	mu      sync.RWMutex                  // Protects the buckets map
	config  Config                        // Rate limiting configuration
	metrics observability.MetricsRegistry // Metrics registry for tracking limiter activity
	now     func() time.Time
}

// Config holds the configuration for start rate limiting.
type Config struct {
	Capacity   int  // Token bucket capacity (burst allowance)
	RefillRate int  // Tokens added per second (sustained rate)
	Enabled    bool // Whether rate limiting is active
}

// NewStartLimiter creates a new per-user start limiter.
func NewStartLimiter(config Config, metrics observability.MetricsRegistry) *StartLimiter {
	return &StartLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

// Allow reports whether userID may start another session now. When the
// limiter is disabled it always returns true.
func (sl *StartLimiter) Allow(userID string) bool {
	if !sl.config.Enabled {
		return true
	}

	sl.metrics.IncrementStartLimitRequests()

	sl.mu.RLock()
	bucket, exists := sl.buckets[userID]
	sl.mu.RUnlock()

	if !exists {
		sl.mu.Lock()
		bucket, exists = sl.buckets[userID]
		if !exists {
			bucket = newTokenBucketWithClock(sl.config.Capacity, sl.config.RefillRate, sl.now)
			sl.buckets[userID] = bucket
		}
		sl.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		sl.metrics.IncrementStartLimitHits()
	}
	return allowed
}

// Prune drops buckets that have been idle for longer than idle, returning
// how many were removed.
func (sl *StartLimiter) Prune(idle time.Duration) int {
	cutoff := sl.now().Add(-idle)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	removed := 0
	for user, b := range sl.buckets {
		if b.idleSince(cutoff) {
			delete(sl.buckets, user)
			removed++
		}
	}
	return removed
}

// GetStats returns a snapshot of limiter statistics keyed by user ID.
func (sl *StartLimiter) GetStats() map[string]Stats {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	stats := make(map[string]Stats, len(sl.buckets))
	for userID, bucket := range sl.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[userID] = Stats{UserID: userID, Hits: hits, Total: total, HitRate: hitRate}
	}
	return stats
}

// Stats contains limiter statistics for a single user.
type Stats struct {
	UserID  string  `json:"user_id"`
	Hits    int64   `json:"hits"`     // Number of rejected starts
	Total   int64   `json:"total"`    // Total starts attempted
	HitRate float64 `json:"hit_rate"` // Fraction rejected (0.0-1.0)
}

// String returns a human-readable representation of the statistics.
func (s Stats) String() string {
	return fmt.Sprintf("User %s: %d/%d hits (%.2f%%)", s.UserID, s.Hits, s.Total, s.HitRate*100)
}
