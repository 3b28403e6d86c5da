package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// EWMH state atoms used by window handles.
const (
	StateAbove         = "_NET_WM_STATE_ABOVE"
	StateHidden        = "_NET_WM_STATE_HIDDEN"
	StateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	StateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	StateSkipTaskbar   = "_NET_WM_STATE_SKIP_TASKBAR"
	StateSkipPager     = "_NET_WM_STATE_SKIP_PAGER"
)

// Area is a rectangle in root window coordinates.
type Area struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Extents are the frame sizes the window manager draws around a client.
type Extents struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Outer grows a client rectangle by the frame.
func (e Extents) Outer(client Area) Area {
	return Area{
		X:      client.X - e.Left,
		Y:      client.Y - e.Top,
		Width:  client.Width + e.Left + e.Right,
		Height: client.Height + e.Top + e.Bottom,
	}
}

// ClientSize returns the client size that fills an outer rectangle. Both
// dimensions are at least 1.
func (e Extents) ClientSize(outer Area) (width, height int) {
	return max(outer.Width-e.Left-e.Right, 1), max(outer.Height-e.Top-e.Bottom, 1)
}

// FrameExtents returns the window's _NET_FRAME_EXTENTS. Unframed windows
// and window managers that do not publish extents report zeros.
func (c *Connection) FrameExtents(windowID xproto.Window) Extents {
	fe, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return Extents{}
	}
	return Extents{Left: fe.Left, Right: fe.Right, Top: fe.Top, Bottom: fe.Bottom}
}

// MoveResizeWindow places the window's frame so its outer rectangle is
// (x, y, width, height) in root coordinates.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// _NET_MOVERESIZE_WINDOW with NorthWest gravity positions the frame's
	// top-left corner but sizes the client.
	cw, ch := c.FrameExtents(windowID).ClientSize(Area{X: x, Y: y, Width: width, Height: height})
	if err := ewmh.MoveresizeWindowExtra(c.XUtil, windowID, x, y, cw, ch, xproto.GravityNorthWest, 2, true, true); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, cw, ch)
	}
	return nil
}

// Geometry returns the window's outer rectangle, frame included, in root
// coordinates. It is the rectangle MoveResizeWindow takes.
func (c *Connection) Geometry(windowID xproto.Window) (Area, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Area{}, fmt.Errorf("get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return Area{}, fmt.Errorf("translate coordinates: %w", err)
	}

	client := Area{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}
	return c.FrameExtents(windowID).Outer(client), nil
}

// HasState reports whether the window currently carries the EWMH state atom.
func (c *Connection) HasState(windowID xproto.Window, state string) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		// An unset _NET_WM_STATE is an empty state list.
		return false, nil
	}
	for _, s := range states {
		if s == state {
			return true, nil
		}
	}
	return false, nil
}

// SetState asks the window manager to add or remove an EWMH state atom.
func (c *Connection) SetState(windowID xproto.Window, state string, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, state)
}

// SetMaximized adds or removes both maximized states in one request.
func (c *Connection) SetMaximized(windowID xproto.Window, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReqExtra(c.XUtil, windowID, action, StateMaximizedHorz, StateMaximizedVert, 2)
}

// Decorated reports whether the window manager is allowed to frame the
// window. Windows without Motif hints are decorated.
func (c *Connection) Decorated(windowID xproto.Window) bool {
	mh, err := motif.WmHintsGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	return motif.Decor(mh)
}

// SetDecorated updates the Motif decoration hint, keeping other hint fields.
func (c *Connection) SetDecorated(windowID xproto.Window, on bool) error {
	mh, err := motif.WmHintsGet(c.XUtil, windowID)
	if err != nil {
		mh = &motif.Hints{}
	}
	mh.Flags |= motif.HintDecorations
	if on {
		mh.Decoration = motif.DecorationAll
	} else {
		mh.Decoration = motif.DecorationNone
	}
	return motif.WmHintsSet(c.XUtil, windowID, mh)
}

// Iconic reports whether the window is in the ICCCM iconic state.
func (c *Connection) Iconic(windowID xproto.Window) bool {
	st, err := icccm.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	return st.State == icccm.StateIconic
}

// Iconify minimizes a window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{icccm.StateIconic, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Opacity returns the _NET_WM_WINDOW_OPACITY value, 1 when unset.
func (c *Connection) Opacity(windowID xproto.Window) float64 {
	v, err := ewmh.WmWindowOpacityGet(c.XUtil, windowID)
	if err != nil {
		return 1
	}
	return v
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY. The compositor applies it.
func (c *Connection) SetOpacity(windowID xproto.Window, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("opacity %.2f out of range [0,1]", v)
	}
	return ewmh.WmWindowOpacitySet(c.XUtil, windowID, v)
}

// Viewable reports whether the window is mapped and all its ancestors are.
func (c *Connection) Viewable(windowID xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false, fmt.Errorf("get window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// SetMapped maps or unmaps the window.
func (c *Connection) SetMapped(windowID xproto.Window, on bool) error {
	if on {
		return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
	}
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// Restack moves the window to the top or bottom of its siblings.
func (c *Connection) Restack(windowID xproto.Window, top bool) error {
	mode := uint32(xproto.StackModeBelow)
	if top {
		mode = xproto.StackModeAbove
	}
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.ConfigWindowStackMode,
		[]uint32{mode},
	).Check()
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// GetActiveWindow returns the window holding _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// ClientWindows returns the managed client list.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// watcher fans one ConfigureNotify subscription out to many listeners.
type watcher struct {
	listeners map[int]func(Area)
	next      int
}

// WatchGeometry calls fn with the window's root geometry after every
// configure notification. The returned function removes fn; the X
// subscription is dropped with the last listener.
func (c *Connection) WatchGeometry(windowID xproto.Window, fn func(Area)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.watchers[windowID]
	if !ok {
		if err := xwindow.New(c.XUtil, windowID).Listen(xproto.EventMaskStructureNotify); err != nil {
			return nil, fmt.Errorf("listen for configure events: %w", err)
		}
		w = &watcher{listeners: make(map[int]func(Area))}
		c.watchers[windowID] = w
		xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
			c.dispatchGeometry(windowID)
		}).Connect(c.XUtil, windowID)
	}

	id := w.next
	w.next++
	w.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(w.listeners, id)
		if len(w.listeners) == 0 && c.watchers[windowID] == w {
			delete(c.watchers, windowID)
			xevent.Detach(c.XUtil, windowID)
		}
	}, nil
}

func (c *Connection) dispatchGeometry(windowID xproto.Window) {
	c.mu.Lock()
	w := c.watchers[windowID]
	var fns []func(Area)
	if w != nil {
		for _, fn := range w.listeners {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	area, err := c.Geometry(windowID)
	if err != nil {
		return
	}
	for _, fn := range fns {
		fn(area)
	}
}
