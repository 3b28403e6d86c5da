package ipc

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/windeck/internal/desk"
	"github.com/1broseidon/windeck/internal/platform"
)

type fakeDesk struct {
	spotlight []platform.WindowID
	snapped   map[platform.WindowID]bool
	restored  map[platform.WindowID]string
	persisted map[platform.WindowID]string
	slides    map[platform.WindowID][2]int
	decorated map[platform.WindowID]bool
	immovable map[platform.WindowID]bool
	failWith  error
}

func newFakeDesk() *fakeDesk {
	return &fakeDesk{
		snapped:   map[platform.WindowID]bool{},
		restored:  map[platform.WindowID]string{},
		persisted: map[platform.WindowID]string{},
		slides:    map[platform.WindowID][2]int{},
		decorated: map[platform.WindowID]bool{},
		immovable: map[platform.WindowID]bool{},
	}
}

func (f *fakeDesk) Status() desk.Status {
	phase := "idle"
	if len(f.spotlight) > 0 {
		phase = "active"
	}
	return desk.Status{Spotlight: desk.SpotlightStatus{Phase: phase}, Snap: desk.SnapStatus{Threshold: 10}}
}

func (f *fakeDesk) Spotlight(ids []platform.WindowID, on bool) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if on {
		if len(f.spotlight) > 0 {
			return false, nil
		}
		f.spotlight = ids
		return true, nil
	}
	changed := len(f.spotlight) > 0
	f.spotlight = nil
	return changed, nil
}

func (f *fakeDesk) ToggleSpotlight(ids []platform.WindowID) (bool, error) {
	if len(f.spotlight) > 0 {
		_, err := f.Spotlight(nil, false)
		return false, err
	}
	_, err := f.Spotlight(ids, true)
	return err == nil, err
}

func (f *fakeDesk) EnableSnap(id platform.WindowID) (bool, error) {
	if f.snapped[id] || f.immovable[id] {
		return false, nil
	}
	f.snapped[id] = true
	return true, nil
}

func (f *fakeDesk) DisableSnap(id platform.WindowID) (bool, error) {
	if !f.snapped[id] {
		return false, nil
	}
	delete(f.snapped, id)
	return true, nil
}

func (f *fakeDesk) ToggleSnap(id platform.WindowID) (bool, error) {
	if f.snapped[id] {
		_, err := f.DisableSnap(id)
		return false, err
	}
	_, err := f.EnableSnap(id)
	return f.snapped[id], err
}

func (f *fakeDesk) Snapping(id platform.WindowID) bool { return f.snapped[id] }

func (f *fakeDesk) RestoreOnOpen(id platform.WindowID, identity string) error {
	f.restored[id] = identity
	return nil
}

func (f *fakeDesk) PersistOnClose(id platform.WindowID, identity string) error {
	f.persisted[id] = identity
	return nil
}

func (f *fakeDesk) Slide(id platform.WindowID, x, y int, d time.Duration) error {
	f.slides[id] = [2]int{x, y}
	return nil
}

func (f *fakeDesk) CancelSlide(id platform.WindowID) bool {
	_, ok := f.slides[id]
	delete(f.slides, id)
	return ok
}

func (f *fakeDesk) SetDecorated(id platform.WindowID, on bool) error {
	f.decorated[id] = on
	return nil
}

func inline(ctx context.Context, fn func()) error {
	fn()
	return nil
}

func startServer(t *testing.T, d Desk, dispatch Dispatch, reload func() error) *Client {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "windeck.sock")
	srv, err := NewServer(ServerConfig{SocketPath: sock, Desk: d, Dispatch: dispatch, Reload: reload})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return NewClientAt(sock)
}

func TestRoundTrip(t *testing.T) {
	d := newFakeDesk()
	reloads := 0
	c := startServer(t, d, inline, func() error { reloads++; return nil })

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	res, err := c.Spotlight([]string{"0x10", "32"}, ModeOn)
	if err != nil {
		t.Fatalf("Spotlight on: %v", err)
	}
	if !res.Active || !res.Changed {
		t.Fatalf("spotlight on = %+v", res)
	}
	if len(d.spotlight) != 2 || d.spotlight[0] != 0x10 || d.spotlight[1] != 32 {
		t.Fatalf("spotlight windows = %v", d.spotlight)
	}

	st, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Spotlight.Phase != "active" || st.Snap.Threshold != 10 {
		t.Fatalf("status = %+v", st)
	}

	res, err = c.Spotlight(nil, ModeOff)
	if err != nil || res.Active || !res.Changed {
		t.Fatalf("spotlight off = %+v, %v", res, err)
	}

	res, err = c.Snap("0x20", ModeToggle)
	if err != nil || !res.Active {
		t.Fatalf("snap toggle = %+v, %v", res, err)
	}
	res, err = c.Snap("0x20", ModeOn)
	if err != nil || res.Changed {
		t.Fatalf("snap on twice = %+v, %v", res, err)
	}

	if err := c.Restore("0x30", "editor"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if d.restored[0x30] != "editor" {
		t.Fatalf("restored = %v", d.restored)
	}
	if err := c.Persist("0x30", ""); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, ok := d.persisted[0x30]; !ok {
		t.Fatalf("persisted = %v", d.persisted)
	}

	if err := c.Slide("0x30", 100, 200, 0); err != nil {
		t.Fatalf("Slide: %v", err)
	}
	if d.slides[0x30] != [2]int{100, 200} {
		t.Fatalf("slides = %v", d.slides)
	}
	if err := c.CancelSlide("0x30"); err != nil {
		t.Fatalf("CancelSlide: %v", err)
	}
	if err := c.CancelSlide("0x30"); err == nil {
		t.Fatal("second CancelSlide should fail")
	}

	if err := c.Decorate("0x30", false); err != nil {
		t.Fatalf("Decorate: %v", err)
	}
	if on, ok := d.decorated[0x30]; !ok || on {
		t.Fatalf("decorated = %v", d.decorated)
	}

	if err := c.Reload(); err != nil || reloads != 1 {
		t.Fatalf("Reload: %v (reloads=%d)", err, reloads)
	}
}

func TestErrorsReachClient(t *testing.T) {
	d := newFakeDesk()
	d.failWith = platform.ErrCapabilityUnsupported
	c := startServer(t, d, inline, nil)

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"desk error", func() error { _, err := c.Spotlight([]string{"0x1"}, ModeOn); return err }, "unsupported"},
		{"bad window id", func() error { _, err := c.Snap("nope", ModeOn); return err }, "window"},
		{"zero window id", func() error { return c.Restore("0", "x") }, "window"},
		{"bad mode", func() error { _, err := c.Snap("0x1", Mode("sideways")); return err }, "invalid mode"},
		{"empty spotlight", func() error { _, err := c.Spotlight(nil, ModeOn); return err }, "at least one"},
		{"negative duration", func() error { return c.Slide("0x1", 0, 0, -5) }, "duration_ms"},
		{"reload unsupported", c.Reload, "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestDispatchFailure(t *testing.T) {
	down := func(ctx context.Context, fn func()) error { return errors.New("loop stopped") }
	c := startServer(t, newFakeDesk(), down, nil)

	if _, err := c.GetStatus(); err == nil || !strings.Contains(err.Error(), "event loop unavailable") {
		t.Fatalf("GetStatus error = %v", err)
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{`{"command":"STATUS"}`, false},
		{`{"command":"SNAP","payload":{"window":"0x1"}}`, false},
		{`{}`, true},
		{`not json`, true},
	}
	for _, tt := range tests {
		_, err := ParseRequest([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRequest(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	s := &Server{desk: newFakeDesk(), dispatch: inline, timeout: time.Second}
	resp := s.handleCommand(&Request{Command: "TILE"})
	if resp.Status != StatusError || !strings.Contains(resp.Error, "Unknown command") {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSnapReportsAttachment(t *testing.T) {
	d := newFakeDesk()
	d.immovable[0x40] = true
	c := startServer(t, d, inline, nil)

	res, err := c.Snap("0x40", ModeOn)
	if err != nil {
		t.Fatalf("Snap on: %v", err)
	}
	if res.Active || res.Changed {
		t.Fatalf("snap on for a window that cannot report moves = %+v", res)
	}

	res, err = c.Snap("0x41", ModeOn)
	if err != nil || !res.Active || !res.Changed {
		t.Fatalf("snap on = %+v, %v", res, err)
	}
	res, err = c.Snap("0x41", ModeOn)
	if err != nil || !res.Active || res.Changed {
		t.Fatalf("snap on twice = %+v, %v", res, err)
	}
	res, err = c.Snap("0x41", ModeOff)
	if err != nil || res.Active || !res.Changed {
		t.Fatalf("snap off = %+v, %v", res, err)
	}
}

func TestLoopTimeoutIgnoresLateResult(t *testing.T) {
	finished := make(chan struct{})
	late := func(ctx context.Context, fn func()) error {
		<-ctx.Done()
		go func() {
			defer close(finished)
			fn()
		}()
		return ctx.Err()
	}
	s := &Server{desk: newFakeDesk(), dispatch: late, timeout: 10 * time.Millisecond}

	err := s.onLoop(func() error { return errors.New("too late") })
	if !errors.Is(err, context.DeadlineExceeded) || !strings.Contains(err.Error(), "event loop unavailable") {
		t.Fatalf("onLoop error = %v", err)
	}
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("late call blocked on its result")
	}
}
