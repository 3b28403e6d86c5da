package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/windeck/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Actions are the window operations bound to global shortcuts. They run
// in the X dispatcher, which the event loop serializes.
type Actions interface {
	ToggleSpotlight(ids []platform.WindowID) (bool, error)
	ToggleSnap(id platform.WindowID) (bool, error)
}

// ActiveWindow reports the focused window.
type ActiveWindow interface {
	ActiveWindow() (platform.WindowID, error)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	active  ActiveWindow
	actions Actions
	bound   []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend ActiveWindow, actions Actions) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    root,
		active:  backend,
		actions: actions,
	}
}

// RegisterSpotlight binds the spotlight toggle for the focused window.
func (h *Handler) RegisterSpotlight(keySequence string) error {
	if keySequence == "" {
		return nil
	}
	return h.RegisterFunc(keySequence, func() {
		id, err := h.active.ActiveWindow()
		if err != nil {
			log.Printf("Spotlight hotkey: no active window: %v", err)
			return
		}
		if _, err := h.actions.ToggleSpotlight([]platform.WindowID{id}); err != nil {
			log.Printf("Spotlight toggle failed: %v", err)
		}
	})
}

// RegisterSnap binds the snap toggle for the focused window.
func (h *Handler) RegisterSnap(keySequence string) error {
	if keySequence == "" {
		return nil
	}
	return h.RegisterFunc(keySequence, func() {
		id, err := h.active.ActiveWindow()
		if err != nil {
			log.Printf("Snap hotkey: no active window: %v", err)
			return
		}
		on, err := h.actions.ToggleSnap(id)
		if err != nil {
			log.Printf("Snap toggle failed: %v", err)
			return
		}
		log.Printf("Snapping for window %s: %v", id, on)
	})
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys require an X11 backend")
	}
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("bind %q: %w", keySequence, err)
	}
	h.bound = append(h.bound, keySequence)
	return nil
}

// UnregisterAll releases every grabbed key, e.g. before rebinding on reload.
func (h *Handler) UnregisterAll() {
	if h.xu == nil {
		return
	}
	keybind.Detach(h.xu, h.root)
	h.bound = nil
}

// Bound returns the registered key sequences.
func (h *Handler) Bound() []string {
	return append([]string(nil), h.bound...)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	if xu == nil {
		return
	}
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for _, mask := range ignoreMasks(base) {
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

// ignoreMasks returns every non-empty combination of the base modifiers.
func ignoreMasks(base []uint16) []uint16 {
	var out []uint16
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
