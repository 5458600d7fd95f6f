package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current, step, want int
	}{
		{0, 2, 2},
		{98, 2, 100},
		{99, 2, 100},
		{100, 2, 100},
		{50, 7, 57},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Next(tt.current, tt.step), "Next(%d, %d)", tt.current, tt.step)
	}
}

func TestSimulator_FiftyTicksCompleteOnce(t *testing.T) {
	sim := NewSimulator(DefaultStep)
	completions := 0
	for i := 0; i < 49; i++ {
		_, done := sim.Tick()
		require.False(t, done, "completed early at tick %d", i+1)
	}
	assert.Equal(t, 98, sim.Progress())

	p, done := sim.Tick()
	require.True(t, done)
	completions++
	assert.Equal(t, Complete, p)
	assert.Equal(t, 50, sim.Ticks())

	for i := 0; i < 20; i++ {
		p, done := sim.Tick()
		assert.Equal(t, Complete, p)
		if done {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
	assert.Equal(t, 50, sim.Ticks())
	assert.True(t, sim.Done())
}

func TestSimulator_OddStepClamps(t *testing.T) {
	sim := NewSimulator(3)
	var last int
	completions := 0
	for i := 0; i < 40; i++ {
		p, done := sim.Tick()
		require.LessOrEqual(t, p, Complete)
		require.GreaterOrEqual(t, p, last)
		last = p
		if done {
			completions++
		}
	}
	assert.Equal(t, Complete, last)
	assert.Equal(t, 1, completions)
	assert.Equal(t, 34, sim.Ticks())
}

func TestNewSimulator_DefaultStep(t *testing.T) {
	sim := NewSimulator(0)
	p, _ := sim.Tick()
	assert.Equal(t, DefaultStep, p)
}

func TestManualScheduler_OrderAndStop(t *testing.T) {
	s := NewManualScheduler()
	var fired []string
	fast := s.Every(100*time.Millisecond, func() { fired = append(fired, "fast") })
	s.Every(250*time.Millisecond, func() { fired = append(fired, "slow") })
	require.Equal(t, 2, s.Armed())

	s.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"fast", "fast", "slow", "fast"}, fired)

	fast.Stop()
	fired = nil
	s.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"slow"}, fired)
	assert.Equal(t, 1, s.Armed())
}

func TestManualScheduler_TickWithNothingArmed(t *testing.T) {
	s := NewManualScheduler()
	s.Tick(5)
	assert.Equal(t, 0, s.Armed())
}

func TestPlayback_CompletesOnceAndDisarms(t *testing.T) {
	s := NewManualScheduler()
	var seen []int
	completions := 0
	p := Start(s, 100*time.Millisecond, DefaultStep, func(v int) { seen = append(seen, v) }, func() { completions++ })

	s.Tick(49)
	assert.Equal(t, 98, p.Progress())
	assert.Equal(t, 0, completions)

	s.Tick(1)
	assert.Equal(t, 1, completions)
	assert.Equal(t, Complete, p.Progress())
	assert.Len(t, seen, 50)
	assert.Equal(t, 0, s.Armed())

	s.Advance(time.Second)
	assert.Equal(t, 1, completions)
}

func TestPlayback_StopHaltsProgress(t *testing.T) {
	s := NewManualScheduler()
	completions := 0
	p := Start(s, 100*time.Millisecond, DefaultStep, nil, func() { completions++ })
	s.Tick(10)
	p.Stop()
	s.Advance(10 * time.Second)
	assert.Equal(t, 20, p.Progress())
	assert.Equal(t, 0, completions)
	assert.Equal(t, 0, s.Armed())
}

func TestTickerScheduler(t *testing.T) {
	done := make(chan struct{})
	p := Start(NewTickerScheduler(), time.Millisecond, 50, nil, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not complete")
	}
	assert.Equal(t, Complete, p.Progress())
}
