// Package platformtest provides in-memory window and screen fakes.
package platformtest

import (
	"fmt"

	"github.com/1broseidon/windeck/internal/platform"
)

// FullCaps is the capability set of an ordinary managed window.
const FullCaps = platform.CapGeometry | platform.CapDecoration | platform.CapOnTop |
	platform.CapExtendedState | platform.CapOpacity

// Window is a fake platform.Window. Fields may be read directly by tests.
type Window struct {
	WID      platform.WindowID
	Cap      platform.Capability
	Rect     platform.Rect
	Decor    bool
	Top      bool
	Extended platform.ExtendedState
	Alpha    float64
	Shown    bool

	// FailOnTop makes SetOnTop return an error.
	FailOnTop error

	// Calls records mutating calls in order, e.g. "SetOnTop(true)".
	Calls []string

	listeners map[int]func(platform.Rect)
	nextID    int
}

var _ platform.Window = (*Window)(nil)

// NewWindow returns a visible, decorated, fully capable fake window.
func NewWindow(id platform.WindowID, r platform.Rect) *Window {
	return &Window{
		WID:   id,
		Cap:   FullCaps,
		Rect:  r,
		Decor: true,
		Alpha: 1,
		Shown: true,
	}
}

func (w *Window) record(format string, args ...any) {
	w.Calls = append(w.Calls, fmt.Sprintf(format, args...))
}

func (w *Window) check(c platform.Capability) error {
	if !w.Cap.Has(c) {
		return platform.ErrCapabilityUnsupported
	}
	return nil
}

func (w *Window) ID() platform.WindowID { return w.WID }
func (w *Window) Caps() platform.Capability { return w.Cap }
func (w *Window) Bounds() (platform.Rect, error) { return w.Rect, w.check(platform.CapGeometry) }

func (w *Window) SetBounds(r platform.Rect) error {
	if err := w.check(platform.CapGeometry); err != nil {
		return err
	}
	w.record("SetBounds(%d,%d,%d,%d)", r.X, r.Y, r.Width, r.Height)
	w.Rect = r
	return nil
}

func (w *Window) Decorated() (bool, error) { return w.Decor, w.check(platform.CapDecoration) }

func (w *Window) SetDecorated(on bool) error {
	if err := w.check(platform.CapDecoration); err != nil {
		return err
	}
	w.record("SetDecorated(%t)", on)
	w.Decor = on
	return nil
}

func (w *Window) OnTop() (bool, error) { return w.Top, w.check(platform.CapOnTop) }

func (w *Window) SetOnTop(on bool) error {
	if err := w.check(platform.CapOnTop); err != nil {
		return err
	}
	if w.FailOnTop != nil {
		return w.FailOnTop
	}
	w.record("SetOnTop(%t)", on)
	w.Top = on
	return nil
}

func (w *Window) ExtendedState() (platform.ExtendedState, error) {
	return w.Extended, w.check(platform.CapExtendedState)
}

func (w *Window) SetExtendedState(s platform.ExtendedState) error {
	if err := w.check(platform.CapExtendedState); err != nil {
		return err
	}
	w.record("SetExtendedState(%s)", s)
	w.Extended = s
	return nil
}

func (w *Window) Opacity() (float64, error) { return w.Alpha, w.check(platform.CapOpacity) }

func (w *Window) SetOpacity(v float64) error {
	if err := w.check(platform.CapOpacity); err != nil {
		return err
	}
	w.record("SetOpacity(%.2f)", v)
	w.Alpha = v
	return nil
}

func (w *Window) Visible() (bool, error) { return w.Shown, nil }

func (w *Window) SetVisible(on bool) error {
	w.record("SetVisible(%t)", on)
	w.Shown = on
	return nil
}

func (w *Window) Raise() error {
	w.record("Raise")
	return nil
}

func (w *Window) Lower() error {
	w.record("Lower")
	return nil
}

func (w *Window) OnMove(fn func(platform.Rect)) (func(), error) {
	if err := w.check(platform.CapGeometry); err != nil {
		return nil, err
	}
	if w.listeners == nil {
		w.listeners = make(map[int]func(platform.Rect))
	}
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() { delete(w.listeners, id) }, nil
}

// Listeners returns the number of attached move listeners.
func (w *Window) Listeners() int { return len(w.listeners) }

// Drag simulates the user moving the window to r and notifies listeners.
func (w *Window) Drag(r platform.Rect) {
	w.Rect = r
	for _, fn := range w.listeners {
		fn(r)
	}
}

// Screens is a fixed platform.Screens.
type Screens struct {
	List []platform.Display
	Err  error
}

func (s *Screens) Displays() ([]platform.Display, error) {
	return s.List, s.Err
}

// SingleScreen returns one primary display whose usable area equals its bounds.
func SingleScreen(width, height int) *Screens {
	r := platform.Rect{Width: width, Height: height}
	return &Screens{List: []platform.Display{{ID: 0, Name: "fake-0", Primary: true, Bounds: r, Usable: r}}}
}

// Resolver resolves IDs from a map of fake windows.
type Resolver map[platform.WindowID]*Window

func (r Resolver) Window(id platform.WindowID) (platform.Window, error) {
	w, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("window %s: %w", id, platform.ErrWindowNotFound)
	}
	return w, nil
}
