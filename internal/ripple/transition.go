package ripple

import "time"

// DefaultTransitionDuration is the crossfade length used when none is configured.
const DefaultTransitionDuration = time.Second

// Transition is a time-bounded crossfade between the current and incoming
// backgrounds.
type Transition struct {
	Active   bool
	Progress float32
	Start    time.Time
	Duration time.Duration
}

// Begin starts a crossfade at now with progress 0.
func (t *Transition) Begin(now time.Time, d time.Duration) {
	t.Active = true
	t.Progress = 0
	t.Start = now
	t.Duration = d
}

// Restart rewinds an active crossfade to progress 0 at now, keeping its
// duration.
func (t *Transition) Restart(now time.Time) {
	if !t.Active {
		return
	}
	t.Progress = 0
	t.Start = now
}

// Advance updates progress from elapsed wall-clock time. It returns true on
// the call that reaches progress 1; the transition is then inactive and the
// caller must promote the incoming background.
func (t *Transition) Advance(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.Duration <= 0 {
		t.Progress = 1
	} else {
		p := float32(now.Sub(t.Start).Seconds() / t.Duration.Seconds())
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		t.Progress = p
	}
	if t.Progress >= 1 {
		t.Active = false
		return true
	}
	return false
}

// Reset deactivates the transition.
func (t *Transition) Reset() {
	*t = Transition{}
}
