package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/windeck/internal/platform"
)

var (
	// ErrStorageUnavailable wraps every backend read or write failure.
	ErrStorageUnavailable = errors.New("window state storage unavailable")
	// ErrInvalidGeometry marks saved bounds that fit on no current display.
	ErrInvalidGeometry = errors.New("saved geometry outside every display")
	// ErrInvalidKey is returned for identities that yield an empty key.
	ErrInvalidKey = errors.New("invalid window identity")
)

// recordVersion is bumped whenever the encoded layout changes.
const recordVersion = 1

// State is the persisted snapshot of one window.
type State struct {
	X         int
	Y         int
	Width     int
	Height    int
	Decorated bool
	Extended  platform.ExtendedState
}

// Bounds returns the saved geometry as a rect.
func (s State) Bounds() platform.Rect {
	return platform.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Key is the stable storage identity of a logical window.
type Key string

// KeyFor derives a Key from a caller-supplied identity such as a logical
// window name. The result only contains [a-z0-9._-].
func KeyFor(identity string) (Key, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return "", ErrInvalidKey
	}
	var sb strings.Builder
	sb.WriteString("window.")
	for _, r := range identity {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	key := sb.String()
	for strings.Contains(key, "..") {
		key = strings.ReplaceAll(key, "..", "._")
	}
	return Key(key), nil
}

type record struct {
	V int    `json:"v"`
	X int    `json:"x"`
	Y int    `json:"y"`
	W int    `json:"w"`
	H int    `json:"h"`
	D bool   `json:"d"`
	S string `json:"s"`
}

// Encode serializes a state into its compact record form.
func Encode(s State) ([]byte, error) {
	return json.Marshal(record{
		V: recordVersion,
		X: s.X,
		Y: s.Y,
		W: s.Width,
		H: s.Height,
		D: s.Decorated,
		S: s.Extended.String(),
	})
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (State, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return State{}, fmt.Errorf("failed to parse window state: %w", err)
	}
	if rec.V != recordVersion {
		return State{}, fmt.Errorf("unsupported window state version %d", rec.V)
	}
	if rec.W <= 0 || rec.H <= 0 {
		return State{}, fmt.Errorf("window state has empty size %dx%d", rec.W, rec.H)
	}
	ext, ok := platform.ParseExtendedState(rec.S)
	if !ok {
		return State{}, fmt.Errorf("unknown extended state %q", rec.S)
	}
	return State{
		X:         rec.X,
		Y:         rec.Y,
		Width:     rec.W,
		Height:    rec.H,
		Decorated: rec.D,
		Extended:  ext,
	}, nil
}
