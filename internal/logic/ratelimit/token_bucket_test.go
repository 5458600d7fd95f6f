package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/patrickwarner/adreward/internal/observability"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func TestTokenBucket_BurstThenBlock(t *testing.T) {
	bucket := newTokenBucketWithClock(3, 1, newClock().Now)

	for i := 0; i < 3; i++ {
		assert.True(t, bucket.Allow(), "start %d within burst", i+1)
	}
	assert.False(t, bucket.Allow())

	hits, total := bucket.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 4, total)
}

func TestTokenBucket_RefillCappedAtCapacity(t *testing.T) {
	clock := newClock()
	bucket := newTokenBucketWithClock(2, 10, clock.Now)
	bucket.Allow()
	bucket.Allow()
	assert.False(t, bucket.Allow())

	clock.Advance(200 * time.Millisecond) // 2 tokens
	assert.True(t, bucket.Allow())

	clock.Advance(time.Hour)
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow(), "refill never exceeds capacity")
}

func newTestLimiter(cfg Config, clock *fakeClock) *StartLimiter {
	sl := NewStartLimiter(cfg, observability.NewNoOpRegistry())
	sl.now = clock.Now
	return sl
}

func TestStartLimiter_PerUser(t *testing.T) {
	clock := newClock()
	sl := newTestLimiter(Config{Enabled: true, Capacity: 2, RefillRate: 1}, clock)

	assert.True(t, sl.Allow("alice"))
	assert.True(t, sl.Allow("alice"))
	assert.False(t, sl.Allow("alice"))
	assert.True(t, sl.Allow("bob"), "buckets are per user")

	clock.Advance(time.Second)
	assert.True(t, sl.Allow("alice"))

	stats := sl.GetStats()
	assert.EqualValues(t, 1, stats["alice"].Hits)
	assert.EqualValues(t, 4, stats["alice"].Total)
	assert.Equal(t, "User alice: 1/4 hits (25.00%)", stats["alice"].String())
}

func TestStartLimiter_Disabled(t *testing.T) {
	sl := newTestLimiter(Config{Enabled: false, Capacity: 1}, newClock())
	for i := 0; i < 10; i++ {
		assert.True(t, sl.Allow("alice"))
	}
	assert.Empty(t, sl.GetStats())
}

func TestStartLimiter_Prune(t *testing.T) {
	clock := newClock()
	sl := newTestLimiter(Config{Enabled: true, Capacity: 1, RefillRate: 1}, clock)

	sl.Allow("alice")
	clock.Advance(10 * time.Minute)
	sl.Allow("bob")

	assert.Equal(t, 1, sl.Prune(5*time.Minute))
	stats := sl.GetStats()
	assert.NotContains(t, stats, "alice")
	assert.Contains(t, stats, "bob")
}
