package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	mu       sync.Mutex
	watchers map[xproto.Window]*watcher
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	return &Connection{
		XUtil:    xu,
		Root:     xu.RootWin(),
		watchers: make(map[xproto.Window]*watcher),
	}, nil
}

// Ping starts the X event dispatcher on its own goroutine and returns its
// ping channels. Between a receive on before and a receive on after the
// dispatcher runs callbacks; the receiver must not touch X state
// concurrently. quit is signalled once the dispatcher exits.
func (c *Connection) Ping() (before, after, quit <-chan struct{}) {
	b, a, q := xevent.MainPing(c.XUtil)
	return b, a, q
}

// Quit stops the event dispatcher started by Ping.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
