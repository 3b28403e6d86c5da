package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/platform/platformtest"
)

func newTestStore(backend Backend, screens platform.Screens) (*Store, *eventloop.Manual) {
	sched := eventloop.NewManual()
	s := New(Options{
		Backend:        backend,
		Screens:        screens,
		Scheduler:      sched,
		RevealDuration: 48 * time.Millisecond,
		RevealInterval: 16 * time.Millisecond,
	})
	return s, sched
}

func TestCapturePersistLoadApplyRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	s, _ := newTestStore(backend, platformtest.SingleScreen(1920, 1080))

	src := platformtest.NewWindow(1, platform.Rect{X: 120, Y: 80, Width: 800, Height: 600})
	src.Decor = false
	src.Extended = platform.StateMaximizedBoth

	captured, err := s.Capture(src)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	key, _ := KeyFor("editor")
	s.Persist(key, captured)

	loaded, ok := s.Load(key)
	if !ok {
		t.Fatal("Load found no state after Persist")
	}
	if loaded != captured {
		t.Fatalf("loaded %+v, want %+v", loaded, captured)
	}

	dst := platformtest.NewWindow(2, platform.Rect{X: 0, Y: 0, Width: 300, Height: 200})
	if err := s.Apply(dst, loaded); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := s.Capture(dst)
	if got != captured {
		t.Fatalf("after apply %+v, want %+v", got, captured)
	}
}

func TestApplyClampsOffscreenGeometryIntoPrimaryUsableArea(t *testing.T) {
	primary := platform.Display{
		ID:      0,
		Primary: true,
		Bounds:  platform.Rect{Width: 1920, Height: 1080},
		Usable:  platform.Rect{Width: 1920, Height: 1040},
	}
	side := platform.Display{
		ID:     1,
		Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024},
		Usable: platform.Rect{X: 1920, Width: 1280, Height: 1024},
	}
	screens := &platformtest.Screens{List: []platform.Display{side, primary}}
	s, _ := newTestStore(NewMemoryBackend(), screens)

	tests := []struct {
		name  string
		saved State
	}{
		{"far right", State{X: 9000, Y: 300, Width: 800, Height: 600, Decorated: true}},
		{"negative", State{X: -5000, Y: -5000, Width: 640, Height: 480, Decorated: true}},
		{"oversized", State{X: 0, Y: 4000, Width: 4000, Height: 3000, Decorated: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := platformtest.NewWindow(7, platform.Rect{Width: 10, Height: 10})
			if err := s.Apply(w, tt.saved); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !primary.Usable.Contains(w.Rect) {
				t.Fatalf("window %+v not inside primary usable area %+v", w.Rect, primary.Usable)
			}
		})
	}
}

func TestClampKeepsGeometryOnSecondaryDisplay(t *testing.T) {
	displays := []platform.Display{
		{ID: 0, Primary: true, Bounds: platform.Rect{Width: 1920, Height: 1080}},
		{ID: 1, Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}},
	}
	r := platform.Rect{X: 2000, Y: 100, Width: 500, Height: 400}
	got, moved := Clamp(r, displays)
	if moved || got != r {
		t.Fatalf("Clamp moved on-screen rect: %+v moved=%v", got, moved)
	}
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	backend := NewMemoryBackend()
	backend.FailWrites = errors.New("disk full")
	backend.FailReads = errors.New("io error")
	s, _ := newTestStore(backend, platformtest.SingleScreen(800, 600))

	key, _ := KeyFor("broken")
	s.Persist(key, State{Width: 10, Height: 10})
	if _, ok := s.Load(key); ok {
		t.Fatal("Load reported state from a failing backend")
	}
}

func TestLoadDiscardsCorruptRecords(t *testing.T) {
	backend := NewMemoryBackend()
	key, _ := KeyFor("corrupt")
	_ = backend.Write(key, []byte(`{"v":1,"x":0,"y":0,"w":0,"h":0,"d":true,"s":"normal"}`))
	s, _ := newTestStore(backend, platformtest.SingleScreen(800, 600))
	if _, ok := s.Load(key); ok {
		t.Fatal("Load accepted a zero-size record")
	}

	_ = backend.Write(key, []byte(`not json`))
	if _, ok := s.Load(key); ok {
		t.Fatal("Load accepted garbage")
	}
}

func TestDecodeRejectsUnknownVersionAndState(t *testing.T) {
	for _, data := range []string{
		`{"v":2,"x":0,"y":0,"w":10,"h":10,"d":true,"s":"normal"}`,
		`{"v":1,"x":0,"y":0,"w":10,"h":10,"d":true,"s":"fullscreen"}`,
	} {
		if _, err := Decode([]byte(data)); err == nil {
			t.Fatalf("Decode(%s) succeeded", data)
		}
	}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"Editor", "window.editor"},
		{"  main window ", "window.main_window"},
		{"a/b", "window.a_b"},
		{"../x", "window._._x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := KeyFor(tt.in)
			if err != nil {
				t.Fatalf("KeyFor(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("KeyFor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := KeyFor("   "); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("KeyFor(blank) err = %v, want ErrInvalidKey", err)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "windows"))
	key, _ := KeyFor("terminal")

	if _, ok, err := b.Read(key); err != nil || ok {
		t.Fatalf("Read on empty dir: ok=%v err=%v", ok, err)
	}
	if err := b.Write(key, []byte(`one`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := b.Write(key, []byte(`two`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, ok, err := b.Read(key)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if string(data) != "two" {
		t.Fatalf("Read = %q, want %q", data, "two")
	}
}

func TestBackendsStoreExactBytes(t *testing.T) {
	dir := t.TempDir()
	sqlite, err := OpenSQLite(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer sqlite.Close()

	backends := []struct {
		name string
		b    Backend
	}{
		{"memory", NewMemoryBackend()},
		{"file", NewFileBackend(filepath.Join(dir, "windows"))},
		{"sqlite", sqlite},
	}
	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			key, _ := KeyFor("editor")

			// Spare capacity past len must not be written into.
			buf := make([]byte, 0, 64)
			buf = append(buf, `{"v":1}`...)
			spare := buf[:cap(buf)]
			spare[len(buf)] = 'x'

			if err := tt.b.Write(key, buf); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if spare[len(buf)] != 'x' {
				t.Fatalf("Write modified the caller's buffer past len")
			}
			data, ok, err := tt.b.Read(key)
			if err != nil || !ok {
				t.Fatalf("Read: ok=%v err=%v", ok, err)
			}
			if string(data) != `{"v":1}` {
				t.Fatalf("Read = %q, want %q", data, `{"v":1}`)
			}
		})
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()

	key, _ := KeyFor("browser")
	if _, ok, err := b.Read(key); err != nil || ok {
		t.Fatalf("Read before write: ok=%v err=%v", ok, err)
	}
	want, _ := Encode(State{X: 1, Y: 2, Width: 3, Height: 4, Decorated: true})
	if err := b.Write(key, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	updated, _ := Encode(State{X: 5, Y: 6, Width: 7, Height: 8})
	if err := b.Write(key, updated); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, ok, err := b.Read(key)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	st, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.X != 5 || st.Decorated {
		t.Fatalf("read back %+v, want the overwritten record", st)
	}
}
