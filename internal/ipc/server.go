package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/windeck/internal/desk"
	"github.com/1broseidon/windeck/internal/platform"
)

// Desk is the subset of desk.Manager the server drives. Its methods must
// run on the event loop, so every call goes through Dispatch.
type Desk interface {
	Status() desk.Status
	Spotlight(ids []platform.WindowID, on bool) (bool, error)
	ToggleSpotlight(ids []platform.WindowID) (bool, error)
	EnableSnap(id platform.WindowID) (bool, error)
	DisableSnap(id platform.WindowID) (bool, error)
	ToggleSnap(id platform.WindowID) (bool, error)
	Snapping(id platform.WindowID) bool
	RestoreOnOpen(id platform.WindowID, identity string) error
	PersistOnClose(id platform.WindowID, identity string) error
	Slide(id platform.WindowID, x, y int, d time.Duration) error
	CancelSlide(id platform.WindowID) bool
	SetDecorated(id platform.WindowID, on bool) error
}

// Dispatch runs fn on the event loop and waits for it.
type Dispatch func(ctx context.Context, fn func()) error

// ServerConfig wires the server to the daemon.
type ServerConfig struct {
	SocketPath string
	Desk       Desk
	Dispatch   Dispatch
	// Reload re-reads configuration; optional.
	Reload func() error
	// Timeout bounds each request's time on the loop.
	Timeout time.Duration
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	desk         Desk
	dispatch     Dispatch
	reload       func() error
	timeout      time.Duration
	startTime    time.Time
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("IPC socket path is required")
	}
	if cfg.Desk == nil || cfg.Dispatch == nil {
		return nil, fmt.Errorf("IPC server requires a desk and a dispatcher")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Remove existing socket if present
	os.Remove(cfg.SocketPath)

	return &Server{
		socketPath: cfg.SocketPath,
		desk:       cfg.Desk,
		dispatch:   cfg.Dispatch,
		reload:     cfg.Reload,
		timeout:    timeout,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("IPC accept error: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * s.timeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	var (
		data interface{}
		err  error
	)
	switch req.Command {
	case CommandPing:
	case CommandStatus:
		data, err = s.handleStatus()
	case CommandSpotlight:
		data, err = s.handleSpotlight(req.Payload)
	case CommandSnap:
		data, err = s.handleSnap(req.Payload)
	case CommandRestore:
		err = s.handleRestore(req.Payload)
	case CommandPersist:
		err = s.handlePersist(req.Payload)
	case CommandSlide:
		err = s.handleSlide(req.Payload)
	case CommandDecorate:
		err = s.handleDecorate(req.Payload)
	case CommandReload:
		err = s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
	if err != nil {
		log.Printf("IPC: %s failed: %v", req.Command, err)
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// onLoop runs fn on the event loop, bounded by the server timeout.
func (s *Server) onLoop(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// Buffered so a call that outlives the timeout does not block the loop.
	result := make(chan error, 1)
	if err := s.dispatch(ctx, func() { result <- fn() }); err != nil {
		return fmt.Errorf("event loop unavailable: %w", err)
	}
	return <-result
}

// StatusData is returned by STATUS.
type StatusData struct {
	desk.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
}

func (s *Server) handleStatus() (*StatusData, error) {
	var st desk.Status
	if err := s.onLoop(func() error {
		st = s.desk.Status()
		return nil
	}); err != nil {
		return nil, err
	}
	return &StatusData{
		Status:        st,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}, nil
}

func (s *Server) handleSpotlight(raw json.RawMessage) (*ToggleData, error) {
	var p SpotlightPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(p.Mode))
	if err != nil {
		return nil, err
	}
	ids, err := parseWindows(p.Windows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 && mode != ModeOff {
		return nil, fmt.Errorf("spotlight needs at least one window")
	}

	var out ToggleData
	err = s.onLoop(func() error {
		var err error
		switch mode {
		case ModeToggle:
			before := s.desk.Status().Spotlight.Phase
			out.Active, err = s.desk.ToggleSpotlight(ids)
			out.Changed = err == nil && before != s.desk.Status().Spotlight.Phase
		default:
			out.Changed, err = s.desk.Spotlight(ids, mode == ModeOn)
			out.Active = s.desk.Status().Spotlight.Phase == "active"
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Server) handleSnap(raw json.RawMessage) (*ToggleData, error) {
	var p SnapPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(p.Mode))
	if err != nil {
		return nil, err
	}
	id, err := platform.ParseWindowID(p.Window)
	if err != nil {
		return nil, err
	}

	var out ToggleData
	err = s.onLoop(func() error {
		var err error
		switch mode {
		case ModeOn:
			out.Changed, err = s.desk.EnableSnap(id)
			out.Active = s.desk.Snapping(id)
		case ModeOff:
			out.Changed, err = s.desk.DisableSnap(id)
			out.Active = s.desk.Snapping(id)
		default:
			out.Active, err = s.desk.ToggleSnap(id)
			out.Changed = err == nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Server) handleRestore(raw json.RawMessage) error {
	var p WindowPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	id, err := platform.ParseWindowID(p.Window)
	if err != nil {
		return err
	}
	return s.onLoop(func() error { return s.desk.RestoreOnOpen(id, p.Identity) })
}

func (s *Server) handlePersist(raw json.RawMessage) error {
	var p WindowPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	id, err := platform.ParseWindowID(p.Window)
	if err != nil {
		return err
	}
	return s.onLoop(func() error { return s.desk.PersistOnClose(id, p.Identity) })
}

func (s *Server) handleSlide(raw json.RawMessage) error {
	var p SlidePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	id, err := platform.ParseWindowID(p.Window)
	if err != nil {
		return err
	}
	if p.DurationMS < 0 {
		return fmt.Errorf("duration_ms must be >= 0")
	}
	if p.Cancel {
		return s.onLoop(func() error {
			if !s.desk.CancelSlide(id) {
				return fmt.Errorf("no slide running for window %s", id)
			}
			return nil
		})
	}
	d := time.Duration(p.DurationMS) * time.Millisecond
	return s.onLoop(func() error { return s.desk.Slide(id, p.X, p.Y, d) })
}

func (s *Server) handleDecorate(raw json.RawMessage) error {
	var p DecoratePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	id, err := platform.ParseWindowID(p.Window)
	if err != nil {
		return err
	}
	return s.onLoop(func() error { return s.desk.SetDecorated(id, p.Decorated) })
}

// handleReload reloads the configuration
func (s *Server) handleReload() error {
	log.Println("IPC: Received RELOAD command")
	if s.reload == nil {
		return fmt.Errorf("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	log.Println("IPC: Config reloaded successfully")
	return nil
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return fmt.Errorf("failed to close listener: %w", err)
		}
	}
	s.wg.Wait()

	// Remove socket file
	os.Remove(s.socketPath)

	return nil
}
