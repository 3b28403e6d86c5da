// Package spotlight raises a set of windows above a dimming backdrop and
// restores each window's prior always-on-top flag afterwards.
package spotlight

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/windeck/internal/animate"
	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
)

// Backdrop is the full-screen dimming surface shown behind a session.
type Backdrop interface {
	Show() error
	Hide() error
	Raise() error
	SetTint(rgb uint32) error
	// SetOpacity returns platform.ErrCapabilityUnsupported when the display
	// cannot composite translucent windows.
	SetOpacity(v float64) error
}

// Phase is the coordinator state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Style controls the backdrop look. Opacity and fade are cosmetic and
// silently skipped when unsupported.
type Style struct {
	Tint    uint32
	Opacity float64
	FadeIn  time.Duration
	FadeOut time.Duration
}

// DefaultStyle dims the desktop to 60% black without animation.
func DefaultStyle() Style {
	return Style{Tint: 0x000000, Opacity: 0.6}
}

// Session is one active spotlight.
type Session struct {
	ID         uuid.UUID
	Windows    []platform.Window
	SavedOnTop map[platform.WindowID]bool
	Started    time.Time
}

// WindowIDs returns the session's windows in request order.
func (s *Session) WindowIDs() []platform.WindowID {
	ids := make([]platform.WindowID, 0, len(s.Windows))
	for _, w := range s.Windows {
		ids = append(ids, w.ID())
	}
	return ids
}

// Coordinator owns the single spotlight session. Every method must be
// called on the event loop.
type Coordinator struct {
	backdrop Backdrop
	sched    eventloop.Scheduler
	logger   *slog.Logger
	style    Style

	session *Session
	busy    bool
	fade    *animate.Tween
}

// New creates an idle coordinator. sched may be nil when no fades are used.
func New(backdrop Backdrop, sched eventloop.Scheduler, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		backdrop: backdrop,
		sched:    sched,
		logger:   logger,
		style:    DefaultStyle(),
	}
}

// SetStyle replaces the backdrop style used by the next Enable.
func (c *Coordinator) SetStyle(s Style) {
	c.style = s
}

// Phase returns the current state.
func (c *Coordinator) Phase() Phase {
	if c.session != nil {
		return PhaseActive
	}
	return PhaseIdle
}

// Session returns the active session, or nil when idle. The returned value
// must not be modified.
func (c *Coordinator) Session() *Session {
	return c.session
}

// Contains reports whether id is part of the active session.
func (c *Coordinator) Contains(id platform.WindowID) bool {
	if c.session == nil {
		return false
	}
	_, ok := c.session.SavedOnTop[id]
	return ok
}

// Enable starts a session for windows. It fails without side effects when a
// session is already active, when called re-entrantly, when windows is
// empty, or when any window lacks always-on-top support.
func (c *Coordinator) Enable(windows []platform.Window) bool {
	if c.busy {
		c.logger.Warn("spotlight enable rejected: re-entrant call")
		return false
	}
	if c.session != nil {
		c.logger.Debug("spotlight enable rejected: session active", "session", c.session.ID)
		return false
	}
	c.busy = true
	defer func() { c.busy = false }()

	unique := dedupe(windows)
	if len(unique) == 0 {
		return false
	}
	for _, w := range unique {
		if !w.Caps().Has(platform.CapOnTop) {
			c.logger.Info("spotlight aborted", "window", w.ID(), "error", platform.ErrCapabilityUnsupported)
			return false
		}
	}

	saved := make(map[platform.WindowID]bool, len(unique))
	for _, w := range unique {
		on, err := w.OnTop()
		if err != nil {
			c.logger.Info("spotlight aborted: cannot read on-top flag", "window", w.ID(), "error", err)
			return false
		}
		saved[w.ID()] = on
	}

	c.cancelFade()
	if err := c.showBackdrop(); err != nil {
		c.logger.Warn("spotlight aborted: backdrop unavailable", "error", err)
		return false
	}

	for i, w := range unique {
		if err := w.SetOnTop(true); err != nil {
			c.logger.Warn("spotlight aborted: failed to raise window", "window", w.ID(), "error", err)
			c.rollback(unique[:i], saved)
			return false
		}
		if err := w.Raise(); err != nil {
			c.logger.Debug("failed to raise spotlight window", "window", w.ID(), "error", err)
		}
	}

	c.session = &Session{
		ID:         uuid.New(),
		Windows:    unique,
		SavedOnTop: saved,
		Started:    time.Now(),
	}
	c.logger.Info("spotlight enabled", "session", c.session.ID, "windows", len(unique))
	return true
}

// Disable ends the active session, restoring every window's on-top flag to
// its saved value. It returns false when idle or when called re-entrantly.
func (c *Coordinator) Disable() bool {
	if c.busy {
		c.logger.Warn("spotlight disable rejected: re-entrant call")
		return false
	}
	if c.session == nil {
		return false
	}
	c.busy = true
	defer func() { c.busy = false }()

	sess := c.session
	var failed []error
	for _, w := range sess.Windows {
		if err := w.SetOnTop(sess.SavedOnTop[w.ID()]); err != nil {
			failed = append(failed, fmt.Errorf("window %s: %w", w.ID(), err))
		}
	}
	if len(failed) > 0 {
		c.logger.Warn("spotlight restore incomplete", "session", sess.ID, "error", errors.Join(failed...))
	}

	c.hideBackdrop()
	c.session = nil
	c.logger.Info("spotlight disabled", "session", sess.ID, "duration", time.Since(sess.Started).Round(time.Millisecond))
	return true
}

// Close ends the session, if any, and hides the backdrop at once.
func (c *Coordinator) Close() {
	c.style.FadeOut = 0
	if !c.Disable() {
		c.cancelFade()
		if err := c.backdrop.Hide(); err != nil {
			c.logger.Warn("failed to hide backdrop", "error", err)
		}
	}
}

// Toggle enables for windows when on is true and disables otherwise.
func (c *Coordinator) Toggle(windows []platform.Window, on bool) bool {
	if on {
		return c.Enable(windows)
	}
	return c.Disable()
}

// Forget drops a destroyed window from the active session so Disable does
// not touch it. The session ends when its last window is gone.
func (c *Coordinator) Forget(id platform.WindowID) {
	if !c.Contains(id) || c.busy {
		return
	}
	sess := c.session
	delete(sess.SavedOnTop, id)
	for i, w := range sess.Windows {
		if w.ID() == id {
			sess.Windows = append(sess.Windows[:i], sess.Windows[i+1:]...)
			break
		}
	}
	if len(sess.Windows) == 0 {
		c.Disable()
	}
}

func (c *Coordinator) rollback(mutated []platform.Window, saved map[platform.WindowID]bool) {
	for _, w := range mutated {
		if err := w.SetOnTop(saved[w.ID()]); err != nil {
			c.logger.Warn("spotlight rollback failed", "window", w.ID(), "error", err)
		}
	}
	if err := c.backdrop.Hide(); err != nil {
		c.logger.Warn("failed to hide backdrop", "error", err)
	}
}

func (c *Coordinator) showBackdrop() error {
	if err := c.backdrop.SetTint(c.style.Tint); err != nil {
		c.logger.Debug("backdrop tint unavailable", "error", err)
	}

	target := c.style.Opacity
	fading := c.style.FadeIn > 0 && c.sched != nil
	start := target
	if fading {
		start = 0
	}
	translucent := true
	if err := c.backdrop.SetOpacity(start); err != nil {
		translucent = false
		if errors.Is(err, platform.ErrCapabilityUnsupported) {
			c.logger.Debug("backdrop translucency unsupported", "error", err)
		} else {
			c.logger.Warn("failed to set backdrop opacity", "error", err)
		}
	}

	if err := c.backdrop.Show(); err != nil {
		return err
	}
	if err := c.backdrop.Raise(); err != nil {
		c.logger.Debug("failed to raise backdrop", "error", err)
	}

	if fading && translucent {
		c.fade = animate.Fade(c.backdrop.SetOpacity, 0, target, c.style.FadeIn)
		c.fade.Start(c.sched)
	}
	return nil
}

func (c *Coordinator) hideBackdrop() {
	c.cancelFade()
	if c.style.FadeOut > 0 && c.sched != nil {
		tw := animate.Fade(c.backdrop.SetOpacity, c.style.Opacity, 0, c.style.FadeOut)
		if err := c.backdrop.SetOpacity(c.style.Opacity); err == nil {
			tw.Done = func(bool) {
				c.fade = nil
				if err := c.backdrop.Hide(); err != nil {
					c.logger.Warn("failed to hide backdrop", "error", err)
				}
			}
			c.fade = tw
			tw.Start(c.sched)
			return
		}
	}
	if err := c.backdrop.Hide(); err != nil {
		c.logger.Warn("failed to hide backdrop", "error", err)
	}
}

// cancelFade stops a running backdrop fade without its completion, so a
// fade-out cannot hide the backdrop of a newer session.
func (c *Coordinator) cancelFade() {
	if c.fade == nil {
		return
	}
	c.fade.Done = nil
	c.fade.Cancel()
	c.fade = nil
}

func dedupe(windows []platform.Window) []platform.Window {
	seen := make(map[platform.WindowID]struct{}, len(windows))
	out := make([]platform.Window, 0, len(windows))
	for _, w := range windows {
		if w == nil {
			continue
		}
		if _, ok := seen[w.ID()]; ok {
			continue
		}
		seen[w.ID()] = struct{}{}
		out = append(out, w)
	}
	return out
}
