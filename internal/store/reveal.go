package store

import (
	"github.com/1broseidon/windeck/internal/animate"
	"github.com/1broseidon/windeck/internal/platform"
)

// reveal tracks one window between RestoreOnOpen and full visibility.
type reveal struct {
	window platform.Window
	key    Key

	// translucent reveals ramp opacity and keep decoration suppressed
	// until the ramp completes.
	translucent bool
	suppressed  bool

	// toggles is the signed decoration counter: the reveal's own
	// suppression and an undecorated target each add one, caller
	// undecorate requests add one, caller decorate requests subtract one.
	// The window ends decorated when toggles <= 1.
	toggles int

	fade *animate.Tween
	done func(restored bool)

	restored bool
}

func (rv *reveal) decorated() bool {
	return rv.toggles <= 1
}

// Revealing reports whether a RestoreOnOpen is still in flight for id.
func (s *Store) Revealing(id platform.WindowID) bool {
	_, ok := s.pending[id]
	return ok
}

// RestoreOnOpen restores the saved state for key onto a window that has not
// been shown yet: the window is hidden (zero opacity when translucency is
// available, unmapped otherwise), the state is loaded off the loop, applied,
// and only then is the window revealed. done, if non-nil, runs on the loop
// once the window is fully visible. It returns false when a restore for w is
// already in progress.
func (s *Store) RestoreOnOpen(w platform.Window, key Key, done func(restored bool)) bool {
	id := w.ID()
	if _, busy := s.pending[id]; busy {
		s.logger.Debug("restore already in progress", "window", id, "key", key)
		return false
	}

	rv := &reveal{window: w, key: key, done: done}
	caps := w.Caps()
	rv.translucent = caps.Has(platform.CapOpacity)

	intendDecorated := true
	if caps.Has(platform.CapDecoration) {
		if d, err := w.Decorated(); err == nil {
			intendDecorated = d
		}
	}

	if rv.translucent {
		if err := w.SetOpacity(0); err != nil {
			s.logger.Debug("opacity ramp unavailable, revealing by visibility", "window", id, "error", err)
			rv.translucent = false
		}
	}
	if !rv.translucent {
		if err := w.SetVisible(false); err != nil {
			s.logger.Debug("failed to hide window before restore", "window", id, "error", err)
		}
	}

	if rv.translucent && caps.Has(platform.CapDecoration) {
		if intendDecorated {
			if err := w.SetDecorated(false); err == nil {
				rv.suppressed = true
			}
		} else {
			rv.suppressed = true
		}
		if rv.suppressed {
			rv.toggles = 1
			if !intendDecorated {
				rv.toggles++
			}
		}
	}

	s.pending[id] = rv

	var (
		loaded State
		found  bool
	)
	s.sched.Offload(func() {
		loaded, found = s.Load(key)
	}, func() {
		s.applyLoaded(rv, intendDecorated, loaded, found)
	})
	return true
}

func (s *Store) applyLoaded(rv *reveal, intendDecorated bool, st State, found bool) {
	if s.pending[rv.window.ID()] != rv {
		return
	}
	w := rv.window

	if found {
		if rv.suppressed && intendDecorated != st.Decorated {
			// The saved decoration replaces the request the window opened with.
			if st.Decorated {
				rv.toggles--
			} else {
				rv.toggles++
			}
		}
		if err := s.apply(w, st, !rv.suppressed); err != nil {
			s.logger.Warn("failed to apply saved window state", "window", w.ID(), "key", rv.key, "error", err)
		} else {
			rv.restored = true
			s.logger.Debug("restored window state", "window", w.ID(), "key", rv.key, "bounds", st.Bounds())
		}
	}

	if err := w.SetVisible(true); err != nil {
		s.logger.Warn("failed to show restored window", "window", w.ID(), "error", err)
	}

	if !rv.translucent || s.revealDuration == 0 {
		if rv.translucent {
			_ = w.SetOpacity(1)
		}
		s.finishReveal(rv)
		return
	}

	rv.fade = animate.Fade(w.SetOpacity, 0, 1, s.revealDuration)
	rv.fade.Interval = s.revealInterval
	rv.fade.Restore = func() {
		_ = w.SetOpacity(1)
	}
	rv.fade.Done = func(bool) {
		s.finishReveal(rv)
	}
	rv.fade.Start(s.sched)
}

func (s *Store) finishReveal(rv *reveal) {
	w := rv.window
	if s.pending[w.ID()] != rv {
		return
	}
	delete(s.pending, w.ID())

	if rv.suppressed && rv.decorated() {
		if err := w.SetDecorated(true); err != nil {
			s.logger.Warn("failed to reinstate decoration", "window", w.ID(), "error", err)
		}
	}
	if rv.done != nil {
		rv.done(rv.restored)
	}
}

// SetDecorated changes the decoration of w. While a reveal keeps the
// window's decoration suppressed the request is recorded in the toggle
// counter and takes effect when the reveal completes.
func (s *Store) SetDecorated(w platform.Window, on bool) error {
	if rv, ok := s.pending[w.ID()]; ok && rv.suppressed {
		if on {
			rv.toggles--
		} else {
			rv.toggles++
		}
		return nil
	}
	return w.SetDecorated(on)
}

// PersistOnClose captures w on the loop and writes it off the loop. A reveal
// still in flight is abandoned; the capture reports the decoration the
// reveal would have ended with.
func (s *Store) PersistOnClose(w platform.Window, key Key) {
	st, err := s.Capture(w)
	s.abandonReveal(w.ID())
	if err != nil {
		s.logger.Warn("failed to capture window state on close", "window", w.ID(), "key", key, "error", err)
		return
	}
	s.sched.Offload(func() {
		s.Persist(key, st)
	}, nil)
}

// Settle shows every window still being revealed at full opacity, with its
// decoration reinstated, without waiting for its state to load.
func (s *Store) Settle() {
	for id, rv := range s.pending {
		if rv.fade != nil {
			rv.fade.Restore = nil
			rv.fade.Done = nil
			rv.fade.Cancel()
		}
		delete(s.pending, id)
		w := rv.window
		if rv.translucent {
			_ = w.SetOpacity(1)
		}
		if err := w.SetVisible(true); err != nil {
			s.logger.Warn("failed to show window", "window", id, "error", err)
		}
		if rv.suppressed && rv.decorated() {
			if err := w.SetDecorated(true); err != nil {
				s.logger.Warn("failed to reinstate decoration", "window", id, "error", err)
			}
		}
	}
}

// Forget drops any reveal in flight for a window that has gone away.
func (s *Store) Forget(id platform.WindowID) {
	s.abandonReveal(id)
}

func (s *Store) abandonReveal(id platform.WindowID) {
	rv, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	if rv.fade != nil {
		rv.fade.Restore = nil
		rv.fade.Done = nil
		rv.fade.Cancel()
	}
}
