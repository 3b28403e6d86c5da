package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/windeck/internal/platform"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandStatus    CommandType = "STATUS"
	CommandSpotlight CommandType = "SPOTLIGHT"
	CommandSnap      CommandType = "SNAP"
	CommandRestore   CommandType = "RESTORE"
	CommandPersist   CommandType = "PERSIST"
	CommandSlide     CommandType = "SLIDE"
	CommandDecorate  CommandType = "DECORATE"
	CommandReload    CommandType = "RELOAD"
	CommandPing      CommandType = "PING"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Mode selects how a toggleable feature changes.
type Mode string

const (
	ModeOn     Mode = "on"
	ModeOff    Mode = "off"
	ModeToggle Mode = "toggle"
)

// ParseMode accepts on/off/toggle; empty means toggle.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeToggle:
		return ModeToggle, nil
	case ModeOn, ModeOff:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (want on, off or toggle)", s)
}

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Window IDs travel as strings ("0x3a00007" or decimal) and are parsed
// with platform.ParseWindowID.

type SpotlightPayload struct {
	Windows []string `json:"windows"`
	Mode    Mode     `json:"mode,omitempty"`
}

type SnapPayload struct {
	Window string `json:"window"`
	Mode   Mode   `json:"mode,omitempty"`
}

// WindowPayload addresses RESTORE and PERSIST. Identity is the stable
// name the window's state is stored under.
type WindowPayload struct {
	Window   string `json:"window"`
	Identity string `json:"identity,omitempty"`
}

type SlidePayload struct {
	Window     string `json:"window"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	DurationMS int    `json:"duration_ms,omitempty"`
	Cancel     bool   `json:"cancel,omitempty"`
}

type DecoratePayload struct {
	Window    string `json:"window"`
	Decorated bool   `json:"decorated"`
}

// ToggleData reports the resulting state of a SPOTLIGHT or SNAP request.
type ToggleData struct {
	Active  bool `json:"active"`
	Changed bool `json:"changed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func parseWindows(values []string) ([]platform.WindowID, error) {
	ids := make([]platform.WindowID, 0, len(values))
	for _, v := range values {
		id, err := platform.ParseWindowID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
