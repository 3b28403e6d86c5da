//go:build linux

package platform

import (
	"testing"

	"github.com/1broseidon/windeck/internal/x11"
)

func TestDisplayFromMonitor(t *testing.T) {
	mon := x11.Monitor{ID: 1, Name: "DP-1", Primary: true, X: 1920, Width: 1920, Height: 1080}
	work := mon
	work.Height -= 40
	docks := []x11.Area{
		{X: 1920, Y: 1040, Width: 1920, Height: 40},
		{X: 0, Y: 1040, Width: 1920, Height: 40},
	}

	d := displayFromMonitor(mon, work, docks)
	if !d.Primary || d.Name != "DP-1" {
		t.Fatalf("display identity = %+v", d)
	}
	if d.Usable.Height != 1040 || d.Bounds.Height != 1080 {
		t.Fatalf("usable=%+v bounds=%+v", d.Usable, d.Bounds)
	}
	if len(d.Reserved) != 1 || d.Reserved[0].X != 1920 {
		t.Fatalf("reserved = %+v, want only the dock on this monitor", d.Reserved)
	}
}
