package animate

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/platform/platformtest"
)

func TestSlideReachesDestination(t *testing.T) {
	sched := eventloop.NewManual()
	w := platformtest.NewWindow(1, platform.Rect{X: 0, Y: 0, Width: 100, Height: 50})

	tw, err := Slide(w, Point{X: 200, Y: 100}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	tw.Interval = 10 * time.Millisecond

	completed := false
	tw.Done = func(ok bool) { completed = ok }
	tw.Start(sched)

	sched.Advance(50 * time.Millisecond)
	if w.Rect.X != 100 || w.Rect.Y != 50 {
		t.Fatalf("midway position = (%d,%d), want (100,50)", w.Rect.X, w.Rect.Y)
	}

	sched.Advance(60 * time.Millisecond)
	if w.Rect.X != 200 || w.Rect.Y != 100 {
		t.Fatalf("final position = (%d,%d), want (200,100)", w.Rect.X, w.Rect.Y)
	}
	if w.Rect.Width != 100 || w.Rect.Height != 50 {
		t.Fatalf("size changed during slide: %+v", w.Rect)
	}
	if !completed || tw.Running() {
		t.Fatalf("completed=%v running=%v", completed, tw.Running())
	}
	if sched.Active() != 0 {
		t.Fatalf("ticker still active after completion")
	}
}

func TestSlideCancelRestoresOrigin(t *testing.T) {
	sched := eventloop.NewManual()
	origin := platform.Rect{X: 10, Y: 20, Width: 100, Height: 50}
	w := platformtest.NewWindow(1, origin)

	tw, err := Slide(w, Point{X: 500, Y: 500}, time.Second)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	var result *bool
	tw.Done = func(ok bool) { result = &ok }
	tw.Start(sched)
	sched.Advance(300 * time.Millisecond)

	if w.Rect == origin {
		t.Fatal("window did not move before cancel")
	}
	tw.Cancel()

	if w.Rect != origin {
		t.Fatalf("after cancel rect = %+v, want %+v", w.Rect, origin)
	}
	if result == nil || *result {
		t.Fatal("Done(false) not reported on cancel")
	}

	sched.Advance(time.Second)
	if w.Rect != origin {
		t.Fatal("cancelled slide kept moving")
	}
}

func TestSlideRequiresGeometry(t *testing.T) {
	w := platformtest.NewWindow(1, platform.Rect{Width: 10, Height: 10})
	w.Cap = platform.CapOnTop
	if _, err := Slide(w, Point{}, time.Second); !errors.Is(err, platform.ErrCapabilityUnsupported) {
		t.Fatalf("err = %v, want ErrCapabilityUnsupported", err)
	}
}

func TestFadeRampsToTarget(t *testing.T) {
	sched := eventloop.NewManual()
	var values []float64
	tw := Fade(func(v float64) error {
		values = append(values, v)
		return nil
	}, 0, 1, 40*time.Millisecond)
	tw.Interval = 10 * time.Millisecond
	tw.Start(sched)
	sched.Advance(100 * time.Millisecond)

	if len(values) != 4 {
		t.Fatalf("steps = %v, want 4 steps", values)
	}
	if values[len(values)-1] != 1 {
		t.Fatalf("final value = %v, want 1", values[len(values)-1])
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			t.Fatalf("fade not increasing: %v", values)
		}
	}
}

func TestTweenStopsOnStepError(t *testing.T) {
	sched := eventloop.NewManual()
	restored := false
	tw := &Tween{
		Duration: time.Second,
		Interval: 10 * time.Millisecond,
		Step:     func(float64) error { return errors.New("gone") },
		Restore:  func() { restored = true },
	}
	tw.Start(sched)
	sched.Advance(50 * time.Millisecond)
	if tw.Running() || !restored {
		t.Fatalf("running=%v restored=%v", tw.Running(), restored)
	}
}
