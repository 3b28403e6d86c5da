package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/windeck/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) send(cmd CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Ping checks that the daemon is reachable.
func (c *Client) Ping() error {
	return c.send(CommandPing, nil, nil)
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.send(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.send(CommandStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Spotlight turns a spotlight session on, off or toggles it.
func (c *Client) Spotlight(windows []string, mode Mode) (*ToggleData, error) {
	var out ToggleData
	if err := c.send(CommandSpotlight, SpotlightPayload{Windows: windows, Mode: mode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Snap changes edge snapping for one window.
func (c *Client) Snap(window string, mode Mode) (*ToggleData, error) {
	var out ToggleData
	if err := c.send(CommandSnap, SnapPayload{Window: window, Mode: mode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Restore hides a window, applies its saved state and reveals it.
func (c *Client) Restore(window, identity string) error {
	return c.send(CommandRestore, WindowPayload{Window: window, Identity: identity}, nil)
}

// Persist saves a window's current state.
func (c *Client) Persist(window, identity string) error {
	return c.send(CommandPersist, WindowPayload{Window: window, Identity: identity}, nil)
}

// Slide animates a window to x,y. durationMS 0 uses the configured default.
func (c *Client) Slide(window string, x, y, durationMS int) error {
	return c.send(CommandSlide, SlidePayload{Window: window, X: x, Y: y, DurationMS: durationMS}, nil)
}

// CancelSlide stops a running slide and returns the window to its origin.
func (c *Client) CancelSlide(window string) error {
	return c.send(CommandSlide, SlidePayload{Window: window, Cancel: true}, nil)
}

// Decorate shows or hides window decorations.
func (c *Client) Decorate(window string, decorated bool) error {
	return c.send(CommandDecorate, DecoratePayload{Window: window, Decorated: decorated}, nil)
}
