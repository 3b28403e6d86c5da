package platform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCapabilityUnsupported is returned by window operations outside a
// window's capability set and by cosmetic effects the display cannot provide.
var ErrCapabilityUnsupported = errors.New("capability unsupported")

// ErrWindowNotFound is returned by a Resolver for unknown window IDs.
var ErrWindowNotFound = errors.New("window not found")

// WindowID is a platform-neutral window identifier.
type WindowID uint32

func (id WindowID) String() string {
	return fmt.Sprintf("0x%x", uint32(id))
}

// ParseWindowID accepts decimal or 0x-prefixed hexadecimal IDs.
func ParseWindowID(s string) (WindowID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return WindowID(v), nil
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Intersects reports whether a and r share a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Union returns the smallest rect covering all rects.
func Union(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.Right())
		maxY = max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Display describes a physical display, its usable work area and the
// regions reserved by docks and trays.
type Display struct {
	ID       int
	Name     string
	Primary  bool
	Bounds   Rect
	Usable   Rect
	Reserved []Rect
}

// Screens reports the current monitor configuration.
type Screens interface {
	Displays() ([]Display, error)
}

// Resolver looks up window handles by ID.
type Resolver interface {
	Window(id WindowID) (Window, error)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Screens
	Resolver
	ActiveWindow() (WindowID, error)
}

// PrimaryDisplay returns the display flagged primary, or the first one.
func PrimaryDisplay(displays []Display) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	return displays[0], true
}
