// Package overlay provides the full-screen dimming backdrop shown behind
// spotlighted windows.
package overlay

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
)

// WindowName is the _NET_WM_NAME of the backdrop window.
const WindowName = "windeck-backdrop"

// inputMask selects the events the backdrop swallows so clicks and key
// presses never reach the windows below it.
const inputMask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
	xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease | xproto.EventMaskFocusChange

// Surface is an undecorated managed window covering every monitor. It never
// accepts keyboard focus; if the window manager focuses it anyway it sinks
// to the bottom of the stack.
type Surface struct {
	conn        *x11.Connection
	win         xproto.Window
	bounds      platform.Rect
	compositing bool
	mapped      bool
	logger      *slog.Logger
}

// Cover returns the rect spanning all display bounds.
func Cover(displays []platform.Display) (platform.Rect, error) {
	rects := make([]platform.Rect, 0, len(displays))
	for _, d := range displays {
		rects = append(rects, d.Bounds)
	}
	r, ok := platform.Union(rects)
	if !ok || r.Empty() {
		return platform.Rect{}, fmt.Errorf("no displays to cover")
	}
	return r, nil
}

// New creates the backdrop window unmapped. compositing tells whether
// SetOpacity can have any visible effect.
func New(conn *x11.Connection, bounds platform.Rect, compositing bool, logger *slog.Logger) (*Surface, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Surface{
		conn:        conn,
		bounds:      bounds,
		compositing: compositing,
		logger:      logger,
	}
	if err := s.create(0x000000); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) create(tint uint32) error {
	xu := s.conn.XUtil
	conn := xu.Conn()
	screen := xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("allocate backdrop id: %w", err)
	}

	w, h := clampSize(s.bounds)
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		s.conn.Root,
		int16(s.bounds.X), int16(s.bounds.Y),
		w, h,
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		attributeValues(tint),
	).Check()
	if err != nil {
		return fmt.Errorf("create backdrop window: %w", err)
	}
	s.win = wid

	if err := motif.WmHintsSet(xu, wid, &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motif.DecorationNone,
	}); err != nil {
		s.logger.Debug("backdrop decoration hint rejected", "error", err)
	}
	if err := icccm.WmHintsSet(xu, wid, &icccm.Hints{
		Flags: icccm.HintInput,
		Input: 0,
	}); err != nil {
		s.logger.Debug("backdrop input hint rejected", "error", err)
	}
	if err := ewmh.WmStateSet(xu, wid, []string{x11.StateSkipTaskbar, x11.StateSkipPager}); err != nil {
		s.logger.Debug("backdrop state hint rejected", "error", err)
	}
	if err := ewmh.WmNameSet(xu, wid, WindowName); err != nil {
		s.logger.Debug("backdrop name rejected", "error", err)
	}

	xevent.FocusInFun(func(xu *xgbutil.XUtil, ev xevent.FocusInEvent) {
		s.logger.Debug("backdrop received focus, lowering")
		if err := s.Lower(); err != nil {
			s.logger.Warn("failed to lower backdrop", "error", err)
		}
	}).Connect(xu, wid)

	return nil
}

// Window returns the X window ID of the backdrop.
func (s *Surface) Window() xproto.Window {
	return s.win
}

// Show maps the backdrop and stretches it over its bounds.
func (s *Surface) Show() error {
	if s.mapped {
		return nil
	}
	if err := s.conn.SetMapped(s.win, true); err != nil {
		return fmt.Errorf("map backdrop: %w", err)
	}
	s.mapped = true
	return s.conn.MoveResizeWindow(s.win, s.bounds.X, s.bounds.Y, s.bounds.Width, s.bounds.Height)
}

// Hide unmaps the backdrop.
func (s *Surface) Hide() error {
	if !s.mapped {
		return nil
	}
	s.mapped = false
	if err := s.conn.SetMapped(s.win, false); err != nil {
		return fmt.Errorf("unmap backdrop: %w", err)
	}
	return nil
}

// Visible reports whether the backdrop is mapped.
func (s *Surface) Visible() bool {
	return s.mapped
}

// Raise puts the backdrop on top of the normal stacking layer. Windows
// flagged always-on-top stay above it.
func (s *Surface) Raise() error {
	return s.conn.Restack(s.win, true)
}

// Lower sends the backdrop to the bottom of the stack.
func (s *Surface) Lower() error {
	return s.conn.Restack(s.win, false)
}

// SetTint changes the background colour (0xRRGGBB on TrueColor visuals).
func (s *Surface) SetTint(rgb uint32) error {
	conn := s.conn.XUtil.Conn()
	if err := xproto.ChangeWindowAttributesChecked(conn, s.win, xproto.CwBackPixel, []uint32{rgb & 0xffffff}).Check(); err != nil {
		return fmt.Errorf("set backdrop tint: %w", err)
	}
	return xproto.ClearAreaChecked(conn, false, s.win, 0, 0, 0, 0).Check()
}

// SetOpacity sets the backdrop opacity. Without a compositing manager it
// returns platform.ErrCapabilityUnsupported.
func (s *Surface) SetOpacity(v float64) error {
	if err := checkOpacity(v); err != nil {
		return err
	}
	if !s.compositing {
		return platform.ErrCapabilityUnsupported
	}
	return s.conn.SetOpacity(s.win, v)
}

// Resize changes the covered area, e.g. after a monitor change.
func (s *Surface) Resize(bounds platform.Rect) error {
	s.bounds = bounds
	if !s.mapped {
		return nil
	}
	return s.conn.MoveResizeWindow(s.win, bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// SetCompositing updates whether translucency is available.
func (s *Surface) SetCompositing(on bool) {
	s.compositing = on
}

// Close destroys the backdrop window.
func (s *Surface) Close() {
	if s.win == 0 {
		return
	}
	xevent.Detach(s.conn.XUtil, s.win)
	xproto.DestroyWindow(s.conn.XUtil.Conn(), s.win)
	s.win = 0
	s.mapped = false
}

// attributeValues lists CreateWindow values in mask bit order:
// CwBackPixel (bit 1) before CwEventMask (bit 11).
func attributeValues(tint uint32) []uint32 {
	return []uint32{tint & 0xffffff, inputMask}
}

func checkOpacity(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("backdrop opacity %.2f out of range [0,1]", v)
	}
	return nil
}

func clampSize(r platform.Rect) (uint16, uint16) {
	w, h := r.Width, r.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return uint16(min(w, 0xffff)), uint16(min(h, 0xffff))
}
