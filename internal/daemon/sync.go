package daemon

import (
	"log/slog"

	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ClientLister lists live client windows.
type ClientLister interface {
	ClientWindows() ([]platform.WindowID, error)
}

// StateSynchronizer reacts to root window notifications: client list
// changes drop closed windows, RandR screen changes refresh the layout.
// Its callbacks run in the X dispatcher, which the event loop serializes.
type StateSynchronizer struct {
	conn    *x11.Connection
	clients ClientLister
	target  Target
	logger  *slog.Logger

	onScreenChange func()
}

// NewStateSynchronizer creates a new state synchronizer.
func NewStateSynchronizer(conn *x11.Connection, clients ClientLister, target Target, logger *slog.Logger) *StateSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateSynchronizer{
		conn:    conn,
		clients: clients,
		target:  target,
		logger:  logger,
	}
}

// OnScreenChange registers fn to run when the root window is resized.
func (s *StateSynchronizer) OnScreenChange(fn func()) {
	s.onScreenChange = fn
}

// Start subscribes to root window property and structure changes.
func (s *StateSynchronizer) Start() error {
	xu := s.conn.XUtil
	root := xwindow.New(xu, s.conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return err
	}

	clientList, err := xprop.Atm(xu, "_NET_CLIENT_LIST")
	if err != nil {
		return err
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom != clientList {
			return
		}
		s.HandleClientListChanged()
	}).Connect(xu, s.conn.Root)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window != s.conn.Root {
			return
		}
		s.logger.Info("screen layout changed", "width", ev.Width, "height", ev.Height)
		if s.onScreenChange != nil {
			s.onScreenChange()
		}
	}).Connect(xu, s.conn.Root)

	return nil
}

// HandleClientListChanged drops tracked windows no longer in the client list.
func (s *StateSynchronizer) HandleClientListChanged() {
	live, err := s.clients.ClientWindows()
	if err != nil {
		s.logger.Warn("failed to read client list", "error", err)
		return
	}
	if dropped := s.target.Reconcile(live); dropped > 0 {
		s.logger.Info("window closed, cleaned up", "count", dropped)
	}
}
