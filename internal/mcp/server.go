package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/windeck/internal/ipc"
)

const (
	ServerName    = "windeck"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools need.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	Spotlight(windows []string, mode ipc.Mode) (*ipc.ToggleData, error)
	Snap(window string, mode ipc.Mode) (*ipc.ToggleData, error)
	Restore(window, identity string) error
	Persist(window, identity string) error
	Slide(window string, x, y, durationMS int) error
	CancelSlide(window string) error
}

// Server is the MCP server exposing windeck window operations.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a new MCP server that forwards to the running daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "spotlight",
		Description: "Promote a set of windows above a dimming backdrop, or end the current spotlight session. Window IDs are X11 IDs (hex like 0x3a00007 or decimal). Mode is on, off or toggle (default toggle). Every window must support always-on-top or nothing changes.",
	}, s.handleSpotlight)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snap",
		Description: "Enable, disable or toggle live edge snapping for a window. While enabled, moving the window near a screen edge, a panel or another snapping window pulls it flush.",
	}, s.handleSnap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_window",
		Description: "Apply a window's saved geometry and decoration without flicker: the window is hidden, restored, then faded back in. Identity is the stable name the state is stored under (e.g. the application name).",
	}, s.handleRestore)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "persist_window",
		Description: "Save a window's current geometry, decoration and maximized/minimized state under an identity so restore_window can reapply it later. Identity may be omitted when the window was restored earlier.",
	}, s.handlePersist)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "slide_window",
		Description: "Animate a window to a new position. Set cancel to stop a running slide and return the window to where it started.",
	}, s.handleSlide)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the spotlight session, snapping windows, pending reveals and running slides.",
	}, s.handleGetStatus)
}
