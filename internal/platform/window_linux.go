//go:build linux

package platform

import (
	"github.com/1broseidon/windeck/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// x11Window is a handle to a managed client window.
type x11Window struct {
	conn *x11.Connection
	id   xproto.Window
	caps Capability
}

var _ Window = (*x11Window)(nil)

func (w *x11Window) ID() WindowID     { return WindowID(w.id) }
func (w *x11Window) Caps() Capability { return w.caps }

func (w *x11Window) require(c Capability) error {
	if !w.caps.Has(c) {
		return ErrCapabilityUnsupported
	}
	return nil
}

func (w *x11Window) Bounds() (Rect, error) {
	a, err := w.conn.Geometry(w.id)
	if err != nil {
		return Rect{}, err
	}
	return rectFromArea(a), nil
}

func (w *x11Window) SetBounds(r Rect) error {
	return w.conn.MoveResizeWindow(w.id, r.X, r.Y, r.Width, r.Height)
}

func (w *x11Window) Decorated() (bool, error) {
	return w.conn.Decorated(w.id), nil
}

func (w *x11Window) SetDecorated(on bool) error {
	return w.conn.SetDecorated(w.id, on)
}

func (w *x11Window) OnTop() (bool, error) {
	if err := w.require(CapOnTop); err != nil {
		return false, err
	}
	return w.conn.HasState(w.id, x11.StateAbove)
}

func (w *x11Window) SetOnTop(on bool) error {
	if err := w.require(CapOnTop); err != nil {
		return err
	}
	return w.conn.SetState(w.id, x11.StateAbove, on)
}

func (w *x11Window) ExtendedState() (ExtendedState, error) {
	if err := w.require(CapExtendedState); err != nil {
		return StateNormal, err
	}
	if w.conn.Iconic(w.id) {
		return StateMinimized, nil
	}
	hidden, _ := w.conn.HasState(w.id, x11.StateHidden)
	if hidden {
		return StateMinimized, nil
	}
	horz, _ := w.conn.HasState(w.id, x11.StateMaximizedHorz)
	vert, _ := w.conn.HasState(w.id, x11.StateMaximizedVert)
	if horz && vert {
		return StateMaximizedBoth, nil
	}
	return StateNormal, nil
}

func (w *x11Window) SetExtendedState(s ExtendedState) error {
	if err := w.require(CapExtendedState); err != nil {
		return err
	}
	switch s {
	case StateMinimized:
		return w.conn.Iconify(w.id)
	case StateMaximizedBoth:
		return w.conn.SetMaximized(w.id, true)
	default:
		if err := w.conn.SetMaximized(w.id, false); err != nil {
			return err
		}
		if w.conn.Iconic(w.id) {
			return w.conn.SetMapped(w.id, true)
		}
		return nil
	}
}

func (w *x11Window) Opacity() (float64, error) {
	if err := w.require(CapOpacity); err != nil {
		return 1, err
	}
	return w.conn.Opacity(w.id), nil
}

func (w *x11Window) SetOpacity(v float64) error {
	if err := w.require(CapOpacity); err != nil {
		return err
	}
	return w.conn.SetOpacity(w.id, v)
}

func (w *x11Window) Visible() (bool, error) {
	return w.conn.Viewable(w.id)
}

func (w *x11Window) SetVisible(on bool) error {
	return w.conn.SetMapped(w.id, on)
}

func (w *x11Window) Raise() error {
	return w.conn.Restack(w.id, true)
}

func (w *x11Window) Lower() error {
	return w.conn.Restack(w.id, false)
}

func (w *x11Window) OnMove(fn func(Rect)) (func(), error) {
	return w.conn.WatchGeometry(w.id, func(a x11.Area) {
		fn(rectFromArea(a))
	})
}
