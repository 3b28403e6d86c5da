package store

import (
	"testing"
	"time"

	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/platform/platformtest"
)

func savedStore(t *testing.T, st State) (*Store, *eventloop.Manual, Key) {
	t.Helper()
	backend := NewMemoryBackend()
	key, _ := KeyFor("notes")
	data, err := Encode(st)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = backend.Write(key, data)
	s, sched := newTestStore(backend, platformtest.SingleScreen(1920, 1080))
	return s, sched, key
}

func TestRestoreOnOpenHidesAppliesThenReveals(t *testing.T) {
	saved := State{X: 300, Y: 200, Width: 640, Height: 480, Decorated: true}
	s, sched, key := savedStore(t, saved)
	w := platformtest.NewWindow(3, platform.Rect{Width: 100, Height: 100})

	var restored *bool
	if !s.RestoreOnOpen(w, key, func(ok bool) { restored = &ok }) {
		t.Fatal("RestoreOnOpen refused a fresh window")
	}
	if w.Alpha != 0 || w.Decor {
		t.Fatalf("before load: alpha=%v decorated=%v, want hidden and undecorated", w.Alpha, w.Decor)
	}
	if w.Rect.Width != 100 {
		t.Fatal("geometry applied before load completed")
	}

	sched.Drain()
	if w.Rect != saved.Bounds() {
		t.Fatalf("rect = %+v, want %+v", w.Rect, saved.Bounds())
	}
	if w.Decor {
		t.Fatal("decoration reinstated before full opacity")
	}
	if !s.Revealing(w.ID()) {
		t.Fatal("reveal finished before the opacity ramp")
	}

	sched.Advance(100 * time.Millisecond)
	if w.Alpha != 1 {
		t.Fatalf("alpha = %v, want 1", w.Alpha)
	}
	if !w.Decor {
		t.Fatal("decoration not reinstated after reveal")
	}
	if restored == nil || !*restored {
		t.Fatal("done callback not reported as restored")
	}
	if s.Revealing(w.ID()) {
		t.Fatal("reveal still pending")
	}

	// The first SetBounds must come after opacity dropped to zero.
	firstOpacity, firstBounds := -1, -1
	for i, c := range w.Calls {
		if c == "SetOpacity(0.00)" && firstOpacity < 0 {
			firstOpacity = i
		}
		if len(c) > 9 && c[:9] == "SetBounds" && firstBounds < 0 {
			firstBounds = i
		}
	}
	if firstOpacity < 0 || firstBounds < firstOpacity {
		t.Fatalf("geometry set while visible: calls=%v", w.Calls)
	}
}

func TestRestoreOnOpenDecorationCounter(t *testing.T) {
	tests := []struct {
		name    string
		saved   bool
		toggles []bool
		want    bool
	}{
		{"saved decorated", true, nil, true},
		{"saved undecorated", false, nil, false},
		{"caller undecorates", true, []bool{false}, false},
		{"caller undecorates then decorates", true, []bool{false, true}, true},
		{"caller decorates undecorated", false, []bool{true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sched, key := savedStore(t, State{X: 10, Y: 10, Width: 200, Height: 100, Decorated: tt.saved})
			w := platformtest.NewWindow(4, platform.Rect{Width: 50, Height: 50})
			s.RestoreOnOpen(w, key, nil)

			for _, on := range tt.toggles {
				if err := s.SetDecorated(w, on); err != nil {
					t.Fatalf("SetDecorated: %v", err)
				}
			}
			sched.Drain()
			sched.Advance(200 * time.Millisecond)

			if w.Decor != tt.want {
				t.Fatalf("decorated = %v, want %v (calls %v)", w.Decor, tt.want, w.Calls)
			}
		})
	}
}

func TestRestoreOnOpenWithoutTranslucencyUsesVisibility(t *testing.T) {
	saved := State{X: 40, Y: 40, Width: 300, Height: 300, Decorated: false}
	s, sched, key := savedStore(t, saved)
	w := platformtest.NewWindow(5, platform.Rect{Width: 10, Height: 10})
	w.Cap &^= platform.CapOpacity

	s.RestoreOnOpen(w, key, nil)
	if w.Shown {
		t.Fatal("window visible before state applied")
	}
	sched.Drain()
	if !w.Shown || w.Decor || w.Rect != saved.Bounds() {
		t.Fatalf("shown=%v decorated=%v rect=%+v", w.Shown, w.Decor, w.Rect)
	}
	if s.Revealing(w.ID()) {
		t.Fatal("reveal still pending without a ramp")
	}
}

func TestRestoreOnOpenWithoutSavedStateRevealsDefaults(t *testing.T) {
	s, sched := newTestStore(NewMemoryBackend(), platformtest.SingleScreen(800, 600))
	w := platformtest.NewWindow(6, platform.Rect{X: 5, Y: 5, Width: 100, Height: 100})
	key, _ := KeyFor("fresh")

	var restored *bool
	s.RestoreOnOpen(w, key, func(ok bool) { restored = &ok })
	if s.RestoreOnOpen(w, key, nil) {
		t.Fatal("second RestoreOnOpen accepted while pending")
	}
	sched.Drain()
	sched.Advance(time.Second)

	if w.Alpha != 1 || !w.Decor || w.Rect.X != 5 {
		t.Fatalf("alpha=%v decorated=%v rect=%+v", w.Alpha, w.Decor, w.Rect)
	}
	if restored == nil || *restored {
		t.Fatal("done should report restored=false without saved state")
	}
}

func TestPersistOnCloseDuringRevealKeepsIntendedDecoration(t *testing.T) {
	saved := State{X: 1, Y: 2, Width: 300, Height: 200, Decorated: true}
	s, sched, key := savedStore(t, saved)
	w := platformtest.NewWindow(8, platform.Rect{Width: 10, Height: 10})

	s.RestoreOnOpen(w, key, nil)
	sched.Drain()
	s.PersistOnClose(w, key)
	sched.Drain()

	st, ok := s.Load(key)
	if !ok {
		t.Fatal("nothing persisted")
	}
	if !st.Decorated {
		t.Fatal("persisted the temporary undecorated state")
	}
	if s.Revealing(w.ID()) {
		t.Fatal("reveal left pending after close")
	}
}
