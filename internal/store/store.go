// Package store persists and restores window geometry and decoration
// across process restarts.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
)

// Default reveal timing for RestoreOnOpen.
const (
	DefaultRevealDuration = 120 * time.Millisecond
	DefaultRevealInterval = 16 * time.Millisecond
)

// Options configures a Store.
type Options struct {
	Backend   Backend
	Screens   platform.Screens
	Scheduler eventloop.Scheduler
	Logger    *slog.Logger

	RevealDuration time.Duration
	RevealInterval time.Duration
}

// Store captures, persists, loads and applies window state.
//
// Capture, Apply, RestoreOnOpen, PersistOnClose and SetDecorated must run
// on the event loop. Persist and Load perform I/O and belong off the loop.
type Store struct {
	backend Backend
	screens platform.Screens
	sched   eventloop.Scheduler
	logger  *slog.Logger

	revealDuration time.Duration
	revealInterval time.Duration

	pending map[platform.WindowID]*reveal
}

// New creates a Store. Backend, Screens and Scheduler are required.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	duration := opts.RevealDuration
	if duration < 0 {
		duration = 0
	}
	interval := opts.RevealInterval
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	return &Store{
		backend:        opts.Backend,
		screens:        opts.Screens,
		sched:          opts.Scheduler,
		logger:         logger,
		revealDuration: duration,
		revealInterval: interval,
		pending:        make(map[platform.WindowID]*reveal),
	}
}

// SetRevealTiming changes the fade used by later RestoreOnOpen calls.
func (s *Store) SetRevealTiming(duration, interval time.Duration) {
	if duration < 0 {
		duration = 0
	}
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	s.revealDuration = duration
	s.revealInterval = interval
}

// Pending returns the number of reveals in flight.
func (s *Store) Pending() int {
	return len(s.pending)
}

// Capture reads the current state of w. Windows without decoration or
// extended-state support read as decorated and normal.
func (s *Store) Capture(w platform.Window) (State, error) {
	r, err := w.Bounds()
	if err != nil {
		return State{}, fmt.Errorf("capture window %s: %w", w.ID(), err)
	}
	st := State{
		X:         r.X,
		Y:         r.Y,
		Width:     r.Width,
		Height:    r.Height,
		Decorated: true,
		Extended:  platform.StateNormal,
	}

	if rv, ok := s.pending[w.ID()]; ok && rv.suppressed {
		// The window is undecorated only for the reveal ramp.
		st.Decorated = rv.decorated()
	} else if w.Caps().Has(platform.CapDecoration) {
		if decorated, err := w.Decorated(); err == nil {
			st.Decorated = decorated
		}
	}
	if w.Caps().Has(platform.CapExtendedState) {
		if ext, err := w.ExtendedState(); err == nil {
			st.Extended = ext
		}
	}
	return st, nil
}

// Persist writes st under key, replacing any prior value. Failures are
// logged and dropped so a broken store never blocks window close.
func (s *Store) Persist(key Key, st State) {
	data, err := Encode(st)
	if err != nil {
		s.logger.Warn("failed to encode window state", "key", key, "error", err)
		return
	}
	if err := s.backend.Write(key, data); err != nil {
		s.logger.Warn("failed to persist window state",
			"key", key,
			"error", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		return
	}
	s.logger.Debug("persisted window state", "key", key, "bounds", st.Bounds(), "extended", st.Extended)
}

// Load returns the stored state for key. Missing entries, read failures
// and undecodable records all report ok=false.
func (s *Store) Load(key Key) (State, bool) {
	data, ok, err := s.backend.Read(key)
	if err != nil {
		s.logger.Warn("failed to load window state",
			"key", key,
			"error", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		return State{}, false
	}
	if !ok {
		return State{}, false
	}
	st, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable window state", "key", key, "error", err)
		return State{}, false
	}
	return st, true
}

// Apply sets geometry, decoration and extended state on w. The geometry is
// first clamped onto the current monitor configuration.
func (s *Store) Apply(w platform.Window, st State) error {
	return s.apply(w, st, true)
}

func (s *Store) apply(w platform.Window, st State, withDecoration bool) error {
	bounds := st.Bounds()
	displays, err := s.screens.Displays()
	if err != nil {
		s.logger.Debug("display query failed, applying saved geometry as is", "error", err)
	} else if clamped, moved := Clamp(bounds, displays); moved {
		s.logger.Debug("clamped saved geometry",
			"window", w.ID(),
			"from", bounds,
			"to", clamped,
			"reason", ErrInvalidGeometry)
		bounds = clamped
	}

	caps := w.Caps()
	if caps.Has(platform.CapExtendedState) {
		// Geometry only sticks on a normal window.
		if cur, err := w.ExtendedState(); err == nil && cur != platform.StateNormal {
			if err := w.SetExtendedState(platform.StateNormal); err != nil {
				return fmt.Errorf("apply window %s: %w", w.ID(), err)
			}
		}
	}
	if err := w.SetBounds(bounds); err != nil {
		return fmt.Errorf("apply window %s: %w", w.ID(), err)
	}
	if withDecoration && caps.Has(platform.CapDecoration) {
		if err := w.SetDecorated(st.Decorated); err != nil {
			return fmt.Errorf("apply window %s: %w", w.ID(), err)
		}
	}
	if caps.Has(platform.CapExtendedState) && st.Extended != platform.StateNormal {
		if err := w.SetExtendedState(st.Extended); err != nil {
			return fmt.Errorf("apply window %s: %w", w.ID(), err)
		}
	}
	return nil
}

// Clamp keeps r unchanged when it overlaps any display. Otherwise r is
// shrunk to fit and moved inside the primary display's usable area.
func Clamp(r platform.Rect, displays []platform.Display) (platform.Rect, bool) {
	for _, d := range displays {
		if r.Intersects(d.Bounds) {
			return r, false
		}
	}
	primary, ok := PrimaryUsable(displays)
	if !ok {
		return r, false
	}

	out := r
	out.Width = min(max(r.Width, 1), primary.Width)
	out.Height = min(max(r.Height, 1), primary.Height)
	out.X = clampInt(r.X, primary.X, primary.Right()-out.Width)
	out.Y = clampInt(r.Y, primary.Y, primary.Bottom()-out.Height)
	return out, true
}

// PrimaryUsable returns the usable area of the primary display, falling
// back to its full bounds when no work area is known.
func PrimaryUsable(displays []platform.Display) (platform.Rect, bool) {
	d, ok := platform.PrimaryDisplay(displays)
	if !ok {
		return platform.Rect{}, false
	}
	if d.Usable.Empty() {
		return d.Bounds, !d.Bounds.Empty()
	}
	return d.Usable, true
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
