//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/windeck/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection

	supported   map[string]bool
	compositing bool
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	b := &LinuxBackend{conn: conn}
	b.Refresh()
	return b
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// Refresh re-reads the window manager's supported hints and whether a
// compositor is running. Capabilities of handles resolved afterwards follow.
func (b *LinuxBackend) Refresh() {
	if b == nil || b.conn == nil {
		return
	}
	b.supported = b.conn.Supported()
	b.compositing = b.conn.CompositorActive()
}

// Compositing reports whether translucent windows are rendered.
func (b *LinuxBackend) Compositing() bool {
	return b != nil && b.compositing
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays with their usable areas and the
// dock regions overlapping each of them.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	docks, err := conn.DockAreas()
	if err != nil {
		docks = nil
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m, conn.Workarea(m), docks))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	if wid == 0 {
		return 0, ErrWindowNotFound
	}
	return WindowID(wid), nil
}

// ClientWindows lists the IDs of every window the window manager manages.
func (b *LinuxBackend) ClientWindows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}
	ids := make([]WindowID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, WindowID(c))
	}
	return ids, nil
}

// Window returns a handle for a live top-level window.
func (b *LinuxBackend) Window(id WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Geometry(xproto.Window(id)); err != nil {
		return nil, fmt.Errorf("window %s: %w", id, ErrWindowNotFound)
	}
	return &x11Window{conn: conn, id: xproto.Window(id), caps: b.capsFor()}, nil
}

func (b *LinuxBackend) capsFor() Capability {
	caps := CapGeometry | CapDecoration
	if b.supported[x11.StateAbove] {
		caps |= CapOnTop
	}
	if b.supported[x11.StateMaximizedHorz] && b.supported[x11.StateMaximizedVert] {
		caps |= CapExtendedState
	}
	if b.compositing {
		caps |= CapOpacity
	}
	return caps
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m, work x11.Monitor, docks []x11.Area) Display {
	bounds := rectFromArea(m.Area())
	d := Display{
		ID:      m.ID,
		Name:    m.Name,
		Primary: m.Primary,
		Bounds:  bounds,
		Usable:  rectFromArea(work.Area()),
	}
	for _, a := range docks {
		r := rectFromArea(a)
		if r.Intersects(bounds) {
			d.Reserved = append(d.Reserved, r)
		}
	}
	return d
}

func rectFromArea(a x11.Area) Rect {
	return Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}
