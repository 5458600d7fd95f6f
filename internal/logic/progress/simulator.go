// Package progress drives simulated playback. A Simulator advances a 0-100
// progress value by a fixed step per tick and reports completion once; a
// Scheduler supplies the ticks.
package progress

// Complete is the progress value at which playback is finished.
const Complete = 100

// DefaultStep is the number of percentage points added per tick.
const DefaultStep = 2

// Next returns the progress after one tick from current, clamped to Complete.
func Next(current, step int) int {
	next := current + step
	if next > Complete {
		return Complete
	}
	return next
}

// Simulator tracks one media item's playback. A fresh Simulator is used per
// content item or ad; once it has completed it is retired and further ticks
// are no-ops.
type Simulator struct {
	step    int
	current int
	ticks   int
	retired bool
}

// NewSimulator returns a simulator at 0 progress. A non-positive step uses
// DefaultStep.
func NewSimulator(step int) *Simulator {
	if step <= 0 {
		step = DefaultStep
	}
	return &Simulator{step: step}
}

// Tick advances the simulator. completed is true only on the tick that moves
// progress from below Complete to Complete.
func (s *Simulator) Tick() (progress int, completed bool) {
	if s.retired {
		return s.current, false
	}
	next := Next(s.current, s.step)
	completed = s.current < Complete && next >= Complete
	s.current = next
	s.ticks++
	if completed {
		s.retired = true
	}
	return s.current, completed
}

// Progress returns the current progress value.
func (s *Simulator) Progress() int { return s.current }

// Ticks returns how many effective ticks have been applied.
func (s *Simulator) Ticks() int { return s.ticks }

// Done reports whether the simulator has signalled completion.
func (s *Simulator) Done() bool { return s.retired }
