package progress

import (
	"sort"
	"sync"
	"time"
)

// Timer is a repeating callback armed on a Scheduler.
type Timer interface {
	// Stop disarms the timer. After Stop returns the callback is not
	// started again; a call already running may still finish.
	Stop()
}

// Scheduler arms repeating callbacks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Timer
}

// TickerScheduler runs each timer on its own time.Ticker goroutine.
type TickerScheduler struct{}

// NewTickerScheduler returns a wall-clock scheduler.
func NewTickerScheduler() *TickerScheduler { return &TickerScheduler{} }

type tickerTimer struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickerTimer) Stop() { t.once.Do(func() { close(t.stop) }) }

// Every starts a goroutine calling fn every interval until the timer stops.
func (TickerScheduler) Every(interval time.Duration, fn func()) Timer {
	t := &tickerTimer{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

// ManualScheduler fires timers only when Advance is called, making timing
// deterministic in tests. Callbacks run on the goroutine calling Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	s        *ManualScheduler
	id       int
	interval time.Duration
	next     time.Duration
	fn       func()
}

func (t *manualTimer) Stop() {
	t.s.mu.Lock()
	delete(t.s.timers, t.id)
	t.s.mu.Unlock()
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualTimer)}
}

// Every arms fn to fire each interval of simulated time.
func (m *ManualScheduler) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{s: m, id: m.seq, interval: interval, next: m.now + interval, fn: fn}
	m.timers[t.id] = t
	return t
}

// Advance moves simulated time forward by d, firing due timers in deadline
// order (ties broken by arm order). Timers armed by a callback fire within
// the same Advance if they fall due before its end.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		t := m.nextDueLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.next
		t.next += t.interval
		fn := t.fn
		m.mu.Unlock()
		fn()
	}
}

// Tick advances time by interval n times, where interval is the shortest
// armed timer interval. It is a no-op when nothing is armed.
func (m *ManualScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		var step time.Duration
		for _, t := range m.timers {
			if step == 0 || t.interval < step {
				step = t.interval
			}
		}
		m.mu.Unlock()
		if step == 0 {
			return
		}
		m.Advance(step)
	}
}

// Armed returns the number of timers currently armed.
func (m *ManualScheduler) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *ManualScheduler) nextDueLocked(target time.Duration) *manualTimer {
	ids := make([]int, 0, len(m.timers))
	for id := range m.timers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var due *manualTimer
	for _, id := range ids {
		t := m.timers[id]
		if t.next > target {
			continue
		}
		if due == nil || t.next < due.next {
			due = t
		}
	}
	return due
}
