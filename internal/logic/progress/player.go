package progress

import (
	"sync"
	"time"
)

// Playback binds a Simulator to a Scheduler timer. onProgress sees every
// tick; onComplete runs once, after the timer has been stopped.
type Playback struct {
	mu    sync.Mutex
	sim   *Simulator
	timer Timer
	done  bool
}

// Start arms a new playback with a fresh simulator.
func Start(s Scheduler, interval time.Duration, step int, onProgress func(int), onComplete func()) *Playback {
	p := &Playback{sim: NewSimulator(step)}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = s.Every(interval, func() { p.tick(onProgress, onComplete) })
	return p
}

func (p *Playback) tick(onProgress func(int), onComplete func()) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	progress, completed := p.sim.Tick()
	if completed {
		p.done = true
		p.timer.Stop()
	}
	p.mu.Unlock()

	if onProgress != nil {
		onProgress(progress)
	}
	if completed && onComplete != nil {
		onComplete()
	}
}

// Stop halts the playback. No callback runs after Stop returns, except one
// already in progress on another goroutine.
func (p *Playback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
	}
}

// Progress returns the simulator's current progress.
func (p *Playback) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sim.Progress()
}
