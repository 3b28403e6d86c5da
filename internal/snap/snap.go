// Package snap aligns moving windows with nearby screen, tray and window
// edges.
package snap

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/1broseidon/windeck/internal/platform"
)

var (
	ErrDuplicateAttachment = errors.New("snapping already enabled for window")
	ErrNotAttached         = errors.New("snapping not enabled for window")
)

// DefaultThreshold is the snap distance in pixels when none is configured.
const DefaultThreshold = 10

// Config is shared, read-mostly snap configuration. It is read on every
// move event and may be updated from any goroutine.
type Config struct {
	threshold atomic.Int64
}

// NewConfig returns a config with the given threshold (negative values
// are treated as zero).
func NewConfig(threshold int) *Config {
	c := &Config{}
	c.SetThreshold(threshold)
	return c
}

// Threshold returns the snap distance in pixels.
func (c *Config) Threshold() int {
	return int(c.threshold.Load())
}

// SetThreshold updates the snap distance.
func (c *Config) SetThreshold(px int) {
	if px < 0 {
		px = 0
	}
	c.threshold.Store(int64(px))
}

type tracked struct {
	window platform.Window
	bounds platform.Rect
	detach func()
}

// Engine observes attached windows and corrects their position while they
// move. All methods and move callbacks run on the event loop.
type Engine struct {
	cfg     *Config
	screens platform.Screens
	logger  *slog.Logger

	displays []platform.Display
	attached map[platform.WindowID]*tracked
	order    []platform.WindowID
}

// NewEngine creates an engine reading screen layout from screens.
func NewEngine(cfg *Config, screens platform.Screens, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = NewConfig(DefaultThreshold)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cfg:      cfg,
		screens:  screens,
		logger:   logger,
		attached: make(map[platform.WindowID]*tracked),
	}
}

// Config returns the shared configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Enable attaches a move observer to w. It returns false without side
// effects when w is already attached or cannot report moves.
func (e *Engine) Enable(w platform.Window) bool {
	id := w.ID()
	if _, ok := e.attached[id]; ok {
		e.logger.Debug("snap enable ignored", "window", id, "error", ErrDuplicateAttachment)
		return false
	}
	if !w.Caps().Has(platform.CapGeometry) {
		e.logger.Debug("snap enable ignored", "window", id, "error", platform.ErrCapabilityUnsupported)
		return false
	}
	bounds, err := w.Bounds()
	if err != nil {
		e.logger.Warn("snap enable failed", "window", id, "error", err)
		return false
	}

	t := &tracked{window: w, bounds: bounds}
	detach, err := w.OnMove(func(r platform.Rect) {
		e.handleMove(t, r)
	})
	if err != nil {
		e.logger.Warn("snap enable failed", "window", id, "error", err)
		return false
	}
	t.detach = detach

	if len(e.attached) == 0 {
		e.RefreshScreens()
	}
	e.attached[id] = t
	e.order = append(e.order, id)
	e.logger.Debug("snap enabled", "window", id, "threshold", e.cfg.Threshold())
	return true
}

// Disable detaches the observer from w. It returns false when w was not
// attached.
func (e *Engine) Disable(w platform.Window) bool {
	id := w.ID()
	t, ok := e.attached[id]
	if !ok {
		e.logger.Debug("snap disable ignored", "window", id, "error", ErrNotAttached)
		return false
	}
	if t.detach != nil {
		t.detach()
	}
	delete(e.attached, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.logger.Debug("snap disabled", "window", id)
	return true
}

// Attached reports whether snapping is enabled for id.
func (e *Engine) Attached(id platform.WindowID) bool {
	_, ok := e.attached[id]
	return ok
}

// Window returns the handle attached under id.
func (e *Engine) Window(id platform.WindowID) (platform.Window, bool) {
	t, ok := e.attached[id]
	if !ok {
		return nil, false
	}
	return t.window, true
}

// IDs returns the attached windows in attachment order.
func (e *Engine) IDs() []platform.WindowID {
	return append([]platform.WindowID(nil), e.order...)
}

// Count returns the number of attached windows.
func (e *Engine) Count() int {
	return len(e.attached)
}

// RefreshScreens re-reads the monitor layout. Move handling uses the cached
// layout so it never waits on a display query.
func (e *Engine) RefreshScreens() {
	displays, err := e.screens.Displays()
	if err != nil {
		e.logger.Warn("failed to refresh displays for snapping", "error", err)
		return
	}
	e.displays = displays
}

func (e *Engine) handleMove(t *tracked, r platform.Rect) {
	if e.attached[t.window.ID()] != t {
		return
	}
	snapped, changed := Snap(r, e.cfg.Threshold(), e.targets(t.window.ID()))
	t.bounds = snapped
	if !changed {
		return
	}
	if err := t.window.SetBounds(snapped); err != nil {
		e.logger.Debug("snap correction failed", "window", t.window.ID(), "error", err)
	}
}

func (e *Engine) targets(self platform.WindowID) Targets {
	var tg Targets
	for _, d := range e.displays {
		tg.Screens = append(tg.Screens, d.Bounds)
		tg.Reserved = append(tg.Reserved, d.Reserved...)
	}
	for _, id := range e.order {
		if id == self {
			continue
		}
		tg.Windows = append(tg.Windows, e.attached[id].bounds)
	}
	return tg
}
