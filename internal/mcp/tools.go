package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/windeck/internal/ipc"
)

func (s *Server) handleSpotlight(_ context.Context, _ *mcpsdk.CallToolRequest, args SpotlightInput) (*mcpsdk.CallToolResult, ToggleOutput, error) {
	mode, err := ipc.ParseMode(args.Mode)
	if err != nil {
		return nil, ToggleOutput{}, err
	}
	if len(args.Windows) == 0 && mode != ipc.ModeOff {
		return nil, ToggleOutput{}, fmt.Errorf("windows is required unless mode is off")
	}
	res, err := s.daemon.Spotlight(args.Windows, mode)
	if err != nil {
		return nil, ToggleOutput{}, fmt.Errorf("spotlight: %w", err)
	}
	return nil, ToggleOutput{Active: res.Active, Changed: res.Changed}, nil
}

func (s *Server) handleSnap(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapInput) (*mcpsdk.CallToolResult, ToggleOutput, error) {
	if args.Window == "" {
		return nil, ToggleOutput{}, fmt.Errorf("window is required")
	}
	mode, err := ipc.ParseMode(args.Mode)
	if err != nil {
		return nil, ToggleOutput{}, err
	}
	res, err := s.daemon.Snap(args.Window, mode)
	if err != nil {
		return nil, ToggleOutput{}, fmt.Errorf("snap: %w", err)
	}
	return nil, ToggleOutput{Active: res.Active, Changed: res.Changed}, nil
}

func (s *Server) handleRestore(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowStateInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == "" || args.Identity == "" {
		return nil, OKOutput{}, fmt.Errorf("window and identity are required")
	}
	if err := s.daemon.Restore(args.Window, args.Identity); err != nil {
		return nil, OKOutput{}, fmt.Errorf("restore_window: %w", err)
	}
	return nil, OKOutput{OK: true, Message: fmt.Sprintf("Restoring %s as %q", args.Window, args.Identity)}, nil
}

func (s *Server) handlePersist(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowStateInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == "" {
		return nil, OKOutput{}, fmt.Errorf("window is required")
	}
	if err := s.daemon.Persist(args.Window, args.Identity); err != nil {
		return nil, OKOutput{}, fmt.Errorf("persist_window: %w", err)
	}
	return nil, OKOutput{OK: true, Message: fmt.Sprintf("Saving state of %s", args.Window)}, nil
}

func (s *Server) handleSlide(_ context.Context, _ *mcpsdk.CallToolRequest, args SlideInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == "" {
		return nil, OKOutput{}, fmt.Errorf("window is required")
	}
	if args.Cancel {
		if err := s.daemon.CancelSlide(args.Window); err != nil {
			return nil, OKOutput{}, fmt.Errorf("slide_window: %w", err)
		}
		return nil, OKOutput{OK: true, Message: fmt.Sprintf("Slide of %s cancelled", args.Window)}, nil
	}
	if args.DurationMS < 0 {
		return nil, OKOutput{}, fmt.Errorf("duration_ms must be >= 0")
	}
	if err := s.daemon.Slide(args.Window, args.X, args.Y, args.DurationMS); err != nil {
		return nil, OKOutput{}, fmt.Errorf("slide_window: %w", err)
	}
	return nil, OKOutput{OK: true, Message: fmt.Sprintf("Sliding %s to %d,%d", args.Window, args.X, args.Y)}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("get_status: %w", err)
	}
	out := StatusOutput{
		SpotlightPhase:   st.Spotlight.Phase,
		SpotlightSession: st.Spotlight.Session,
		SpotlightWindows: st.Spotlight.Windows,
		SnapThreshold:    st.Snap.Threshold,
		SnapWindows:      st.Snap.Windows,
		Revealing:        st.Revealing,
		Sliding:          st.Sliding,
		UptimeSeconds:    st.UptimeSeconds,
	}
	if out.SnapWindows == nil {
		out.SnapWindows = []string{}
	}
	if out.Sliding == nil {
		out.Sliding = []string{}
	}
	return nil, out, nil
}
