package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// CompositorActive reports whether a compositing manager owns the
// _NET_WM_CM_Sn selection for the default screen. Window opacity has no
// visible effect without one.
func (c *Connection) CompositorActive() bool {
	name := fmt.Sprintf("_NET_WM_CM_S%d", c.XUtil.Conn().DefaultScreen)
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return false
	}
	reply, err := xproto.GetSelectionOwner(c.XUtil.Conn(), atom).Reply()
	if err != nil {
		return false
	}
	return reply.Owner != xproto.WindowNone
}

// Supported returns the set of hints listed in the window manager's
// _NET_SUPPORTED property.
func (c *Connection) Supported() map[string]bool {
	atoms, err := ewmh.SupportedGet(c.XUtil)
	if err != nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(atoms))
	for _, a := range atoms {
		set[a] = true
	}
	return set
}
