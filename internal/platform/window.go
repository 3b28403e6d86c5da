package platform

import "strings"

// Capability is a bit set of the attribute groups a window supports.
type Capability uint8

const (
	CapGeometry Capability = 1 << iota
	CapDecoration
	CapOnTop
	CapExtendedState
	CapOpacity
)

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	names := []struct {
		cap  Capability
		name string
	}{
		{CapGeometry, "geometry"},
		{CapDecoration, "decoration"},
		{CapOnTop, "on-top"},
		{CapExtendedState, "extended-state"},
		{CapOpacity, "opacity"},
	}
	var parts []string
	for _, n := range names {
		if c.Has(n.cap) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ExtendedState is the coarse presentation state of a window.
type ExtendedState int

const (
	StateNormal ExtendedState = iota
	StateMinimized
	StateMaximizedBoth
)

func (s ExtendedState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateMinimized:
		return "minimized"
	case StateMaximizedBoth:
		return "maximized"
	default:
		return "unknown"
	}
}

// ParseExtendedState is the inverse of ExtendedState.String.
func ParseExtendedState(s string) (ExtendedState, bool) {
	switch s {
	case "normal":
		return StateNormal, true
	case "minimized":
		return StateMinimized, true
	case "maximized":
		return StateMaximizedBoth, true
	default:
		return StateNormal, false
	}
}

// Window is a non-owning handle to a top-level window. Every variant
// implements the full method set; operations outside Caps() return
// ErrCapabilityUnsupported. Callers query Caps before use.
//
// All methods must be called from the event loop.
type Window interface {
	ID() WindowID
	Caps() Capability

	Bounds() (Rect, error)
	SetBounds(r Rect) error

	Decorated() (bool, error)
	SetDecorated(on bool) error

	OnTop() (bool, error)
	SetOnTop(on bool) error

	ExtendedState() (ExtendedState, error)
	SetExtendedState(s ExtendedState) error

	Opacity() (float64, error)
	SetOpacity(v float64) error

	Visible() (bool, error)
	SetVisible(on bool) error

	Raise() error
	Lower() error

	// OnMove subscribes fn to move and resize notifications. The returned
	// function detaches the subscription.
	OnMove(fn func(Rect)) (detach func(), err error)
}
