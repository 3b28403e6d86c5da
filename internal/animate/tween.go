// Package animate drives time-based window effects from loop ticks.
package animate

import (
	"fmt"
	"time"

	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
)

// DefaultInterval is the tick period used when none is given.
const DefaultInterval = 16 * time.Millisecond

// Tween calls Step with progress in (0,1] on every tick until Duration has
// elapsed. All callbacks run on the loop.
type Tween struct {
	Duration time.Duration
	Interval time.Duration

	Step func(progress float64) error
	// Restore runs when the tween is cancelled before finishing.
	Restore func()
	// Done runs once after the final step, or after Restore on cancel.
	Done func(completed bool)

	ticker  eventloop.Ticker
	elapsed time.Duration
	running bool
}

// Start begins ticking on sched. A zero Duration completes on the first tick.
func (t *Tween) Start(sched eventloop.Scheduler) {
	if t.running {
		return
	}
	if t.Interval <= 0 {
		t.Interval = DefaultInterval
	}
	t.running = true
	t.elapsed = 0
	t.ticker = sched.Every(t.Interval, t.tick)
}

// Running reports whether the tween is still ticking.
func (t *Tween) Running() bool {
	return t.running
}

// Cancel stops the tween and runs Restore. It is a no-op once finished.
func (t *Tween) Cancel() {
	if !t.running {
		return
	}
	t.stop()
	if t.Restore != nil {
		t.Restore()
	}
	if t.Done != nil {
		t.Done(false)
	}
}

func (t *Tween) stop() {
	t.running = false
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func (t *Tween) tick() {
	if !t.running {
		return
	}
	t.elapsed += t.Interval
	progress := 1.0
	if t.Duration > 0 && t.elapsed < t.Duration {
		progress = float64(t.elapsed) / float64(t.Duration)
	}

	if err := t.Step(progress); err != nil {
		// A window that stops accepting updates cannot be animated further.
		t.Cancel()
		return
	}
	if progress >= 1 {
		t.stop()
		if t.Done != nil {
			t.Done(true)
		}
	}
}

// Point is a window origin.
type Point struct {
	X int
	Y int
}

// Slide moves w linearly from its current origin to dest over d. Cancel
// returns the window to where it started.
func Slide(w platform.Window, dest Point, d time.Duration) (*Tween, error) {
	if !w.Caps().Has(platform.CapGeometry) {
		return nil, fmt.Errorf("slide window %s: %w", w.ID(), platform.ErrCapabilityUnsupported)
	}
	start, err := w.Bounds()
	if err != nil {
		return nil, fmt.Errorf("slide window %s: %w", w.ID(), err)
	}

	return &Tween{
		Duration: d,
		Step: func(p float64) error {
			r := start
			r.X = lerp(start.X, dest.X, p)
			r.Y = lerp(start.Y, dest.Y, p)
			return w.SetBounds(r)
		},
		Restore: func() {
			_ = w.SetBounds(start)
		},
	}, nil
}

// Fade ramps an opacity setter from one value to another over d.
func Fade(set func(float64) error, from, to float64, d time.Duration) *Tween {
	return &Tween{
		Duration: d,
		Step: func(p float64) error {
			return set(from + (to-from)*p)
		},
	}
}

func lerp(a, b int, p float64) int {
	if p >= 1 {
		return b
	}
	return a + int(float64(b-a)*p)
}
