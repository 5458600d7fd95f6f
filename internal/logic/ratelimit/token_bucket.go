package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a thread-safe token bucket rate limiter.
//
// The bucket has a fixed capacity and refills at a constant rate. Each
// request consumes one token. When the bucket is empty, requests are
// rejected until tokens refill.
//
// Example usage:
//
//	bucket := NewTokenBucket(5, 1) // 5 burst capacity, 1 token/second
//	if bucket.Allow() {
//	    // start the session
//	}
type TokenBucket struct {
	capacity   int              // Maximum number of tokens the bucket can hold
	tokens     int              // Current number of tokens in the bucket
	refillRate int              // Number of tokens added per second
	lastRefill time.Time        // Last time tokens were added to the bucket
	lastUsed   time.Time        // Last time Allow was called
	now        func() time.Time // Clock, replaceable in tests
	mu         sync.Mutex       // Protects all bucket state
	hitCount   int64            // Number of requests that were rate limited
	totalCount int64            // Total number of requests processed
}

// NewTokenBucket creates a new token bucket with the specified capacity and
// refill rate. The bucket starts full.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return newTokenBucketWithClock(capacity, refillRate, time.Now)
}

func newTokenBucketWithClock(capacity, refillRate int, now func() time.Time) *TokenBucket {
	t := now()
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: t,
		lastUsed:   t,
		now:        now,
	}
}

// Allow attempts to consume one token from the bucket.
//
// Returns true if a token was available and consumed, false if the request
// should be rate limited. Tokens are refilled based on the time elapsed
// since the last refill.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.totalCount++

	now := tb.now()
	tb.lastUsed = now
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	tb.hitCount++
	return false
}

// Stats returns the number of rejected requests and the total processed.
func (tb *TokenBucket) Stats() (hits, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.hitCount, tb.totalCount
}

// idleSince reports whether the bucket has not been used since t.
func (tb *TokenBucket) idleSince(t time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastUsed.Before(t)
}
