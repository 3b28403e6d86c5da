// Package desk is the caller-facing surface of the daemon. It resolves
// window IDs and routes requests to the state store, the snap engine, the
// spotlight coordinator and slide animations.
package desk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/windeck/internal/animate"
	"github.com/1broseidon/windeck/internal/config"
	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/snap"
	"github.com/1broseidon/windeck/internal/spotlight"
	"github.com/1broseidon/windeck/internal/store"
)

var (
	// ErrNoWindows is returned when a request names no windows.
	ErrNoWindows = errors.New("no windows given")
	// ErrRestoreInProgress is returned when a window is already being restored.
	ErrRestoreInProgress = errors.New("restore already in progress")
	// ErrUnknownIdentity is returned by PersistOnClose when no identity was
	// given and none was recorded by RestoreOnOpen.
	ErrUnknownIdentity = errors.New("no identity recorded for window")
)

// Options wires a Manager to its collaborators.
type Options struct {
	Resolver  platform.Resolver
	Screens   platform.Screens
	Scheduler eventloop.Scheduler
	Backdrop  spotlight.Backdrop
	Storage   store.Backend
	Logger    *slog.Logger
	Config    *config.Config
}

// Manager owns every window coordination component. All methods must be
// called on the event loop.
type Manager struct {
	resolver platform.Resolver
	sched    eventloop.Scheduler
	logger   *slog.Logger

	store     *store.Store
	snap      *snap.Engine
	spotlight *spotlight.Coordinator

	slides        map[platform.WindowID]*animate.Tween
	keys          map[platform.WindowID]store.Key
	slideDuration time.Duration
}

// New creates a Manager configured from opts.Config (defaults when nil).
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		resolver: opts.Resolver,
		sched:    opts.Scheduler,
		logger:   logger,
		store: store.New(store.Options{
			Backend:        opts.Storage,
			Screens:        opts.Screens,
			Scheduler:      opts.Scheduler,
			Logger:         logger.With("component", "store"),
			RevealDuration: cfg.Restore.Reveal(),
			RevealInterval: cfg.Restore.Interval(),
		}),
		snap:      snap.NewEngine(snap.NewConfig(cfg.Snap.Threshold), opts.Screens, logger.With("component", "snap")),
		spotlight: spotlight.New(opts.Backdrop, opts.Scheduler, logger.With("component", "spotlight")),
		slides:    make(map[platform.WindowID]*animate.Tween),
		keys:      make(map[platform.WindowID]store.Key),
	}
	m.UpdateConfig(cfg)
	return m
}

// UpdateConfig pushes reloadable settings into the live components. A
// running spotlight keeps its backdrop until it ends.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.snap.Config().SetThreshold(cfg.Snap.Threshold)
	m.spotlight.SetStyle(spotlight.Style{
		Tint:    cfg.Spotlight.TintRGB(),
		Opacity: cfg.Spotlight.Opacity,
		FadeIn:  cfg.Spotlight.FadeIn(),
		FadeOut: cfg.Spotlight.FadeOut(),
	})
	m.store.SetRevealTiming(cfg.Restore.Reveal(), cfg.Restore.Interval())
	m.slideDuration = cfg.Slide.Duration()
}

// RefreshScreens re-reads the monitor layout after a display change.
func (m *Manager) RefreshScreens() {
	m.snap.RefreshScreens()
}

func (m *Manager) window(id platform.WindowID) (platform.Window, error) {
	w, err := m.resolver.Window(id)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Spotlight starts (on) or ends a spotlight session. Starting requires at
// least one window and fails without side effects if any ID is unknown.
func (m *Manager) Spotlight(ids []platform.WindowID, on bool) (bool, error) {
	if !on {
		return m.spotlight.Disable(), nil
	}
	if len(ids) == 0 {
		return false, ErrNoWindows
	}
	windows := make([]platform.Window, 0, len(ids))
	for _, id := range ids {
		w, err := m.window(id)
		if err != nil {
			return false, err
		}
		windows = append(windows, w)
	}
	return m.spotlight.Enable(windows), nil
}

// ToggleSpotlight ends an active session, or starts one for ids, and
// reports whether a session is now active.
func (m *Manager) ToggleSpotlight(ids []platform.WindowID) (bool, error) {
	if m.spotlight.Phase() == spotlight.PhaseActive {
		m.spotlight.Disable()
		return false, nil
	}
	return m.Spotlight(ids, true)
}

// EnableSnap attaches edge snapping to a window. It returns false when
// snapping was already enabled or the window cannot report moves.
func (m *Manager) EnableSnap(id platform.WindowID) (bool, error) {
	w, err := m.window(id)
	if err != nil {
		return false, err
	}
	return m.snap.Enable(w), nil
}

// DisableSnap detaches edge snapping. It returns false when snapping was
// not enabled.
func (m *Manager) DisableSnap(id platform.WindowID) (bool, error) {
	w, ok := m.snap.Window(id)
	if !ok {
		return false, nil
	}
	return m.snap.Disable(w), nil
}

// Snapping reports whether edge snapping is attached to a window.
func (m *Manager) Snapping(id platform.WindowID) bool {
	return m.snap.Attached(id)
}

// ToggleSnap flips snapping for a window and reports whether it is now on.
func (m *Manager) ToggleSnap(id platform.WindowID) (bool, error) {
	if m.snap.Attached(id) {
		_, err := m.DisableSnap(id)
		return false, err
	}
	return m.EnableSnap(id)
}

// RestoreOnOpen applies the saved state for identity to a window that has
// just been created, without showing intermediate geometry.
func (m *Manager) RestoreOnOpen(id platform.WindowID, identity string) error {
	key, err := store.KeyFor(identity)
	if err != nil {
		return err
	}
	w, err := m.window(id)
	if err != nil {
		return err
	}
	started := m.store.RestoreOnOpen(w, key, func(restored bool) {
		m.logger.Debug("window revealed", "window", id, "key", key, "restored", restored)
	})
	if !started {
		return fmt.Errorf("window %s: %w", id, ErrRestoreInProgress)
	}
	m.keys[id] = key
	return nil
}

// PersistOnClose saves a window's state before it closes. An empty
// identity reuses the one given to RestoreOnOpen.
func (m *Manager) PersistOnClose(id platform.WindowID, identity string) error {
	var key store.Key
	if identity != "" {
		k, err := store.KeyFor(identity)
		if err != nil {
			return err
		}
		key = k
	} else if k, ok := m.keys[id]; ok {
		key = k
	} else {
		return fmt.Errorf("window %s: %w", id, ErrUnknownIdentity)
	}

	w, err := m.window(id)
	if err != nil {
		return err
	}
	m.store.PersistOnClose(w, key)
	m.keys[id] = key
	return nil
}

// Slide animates a window's origin to (x, y). A zero duration uses the
// configured default. A slide already running for the window is replaced
// from its current position.
func (m *Manager) Slide(id platform.WindowID, x, y int, d time.Duration) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	if d <= 0 {
		d = m.slideDuration
	}
	if prev, ok := m.slides[id]; ok {
		prev.Restore = nil
		prev.Done = nil
		prev.Cancel()
		delete(m.slides, id)
	}

	tw, err := animate.Slide(w, animate.Point{X: x, Y: y}, d)
	if err != nil {
		return err
	}
	tw.Done = func(completed bool) {
		if m.slides[id] == tw {
			delete(m.slides, id)
		}
		m.logger.Debug("slide finished", "window", id, "completed", completed)
	}
	m.slides[id] = tw
	tw.Start(m.sched)
	return nil
}

// CancelSlide stops a running slide and returns the window to where the
// slide started. It returns false when no slide is running.
func (m *Manager) CancelSlide(id platform.WindowID) bool {
	tw, ok := m.slides[id]
	if !ok {
		return false
	}
	tw.Cancel()
	return true
}

// SetDecorated shows or hides a window's frame. During a pending reveal
// the request is folded into the reveal.
func (m *Manager) SetDecorated(id platform.WindowID, on bool) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	return m.store.SetDecorated(w, on)
}

// WindowClosed drops every reference to a destroyed window without
// touching it.
func (m *Manager) WindowClosed(id platform.WindowID) {
	if w, ok := m.snap.Window(id); ok {
		m.snap.Disable(w)
	}
	m.spotlight.Forget(id)
	m.store.Forget(id)
	if tw, ok := m.slides[id]; ok {
		tw.Restore = nil
		tw.Done = nil
		tw.Cancel()
		delete(m.slides, id)
	}
	delete(m.keys, id)
}

// Shutdown hands every window back before the daemon exits. Spotlighted
// windows get their saved on-top flag and pending reveals are shown at
// once. Slides stop where they are.
func (m *Manager) Shutdown() {
	m.spotlight.Close()
	m.store.Settle()
	for id, tw := range m.slides {
		tw.Restore = nil
		tw.Done = nil
		tw.Cancel()
		delete(m.slides, id)
	}
	for _, id := range m.snap.IDs() {
		if w, ok := m.snap.Window(id); ok {
			m.snap.Disable(w)
		}
	}
	m.logger.Info("released all windows")
}

// Tracked returns every window ID the manager holds a reference to.
func (m *Manager) Tracked() []platform.WindowID {
	seen := make(map[platform.WindowID]struct{})
	var out []platform.WindowID
	add := func(id platform.WindowID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range m.snap.IDs() {
		add(id)
	}
	if sess := m.spotlight.Session(); sess != nil {
		for _, id := range sess.WindowIDs() {
			add(id)
		}
	}
	for id := range m.slides {
		add(id)
	}
	for id := range m.keys {
		add(id)
	}
	return out
}

// Reconcile forgets tracked windows missing from live and returns how many
// were dropped. Windows being revealed are kept: without a compositor they
// are unmapped until the reveal maps them, and the window manager lists
// unmapped clients as withdrawn.
func (m *Manager) Reconcile(live []platform.WindowID) int {
	alive := make(map[platform.WindowID]struct{}, len(live))
	for _, id := range live {
		alive[id] = struct{}{}
	}
	dropped := 0
	for _, id := range m.Tracked() {
		if _, ok := alive[id]; ok {
			continue
		}
		if m.store.Revealing(id) {
			continue
		}
		m.logger.Info("tracked window vanished", "window", id)
		m.WindowClosed(id)
		dropped++
	}
	return dropped
}
