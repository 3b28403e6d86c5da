package platform

import "testing"

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{X: 50, Y: 50, Width: 100, Height: 100}, true},
		{"touching edge", Rect{X: 100, Y: 0, Width: 10, Height: 10}, false},
		{"inside", Rect{X: 10, Y: 10, Width: 10, Height: 10}, true},
		{"far away", Rect{X: 500, Y: 500, Width: 10, Height: 10}, false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestUnion(t *testing.T) {
	got, ok := Union([]Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: -200, Width: 1280, Height: 1024},
	})
	want := Rect{X: 0, Y: -200, Width: 3200, Height: 1280}
	if !ok || got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
	if _, ok := Union(nil); ok {
		t.Fatal("Union(nil) reported a result")
	}
}

func TestPrimaryDisplay(t *testing.T) {
	ds := []Display{{ID: 0}, {ID: 1, Primary: true}}
	if d, _ := PrimaryDisplay(ds); d.ID != 1 {
		t.Fatalf("primary = %d, want 1", d.ID)
	}
	if d, _ := PrimaryDisplay(ds[:1]); d.ID != 0 {
		t.Fatalf("fallback primary = %d, want 0", d.ID)
	}
}

func TestCapabilityString(t *testing.T) {
	if got := (CapGeometry | CapOnTop).String(); got != "geometry,on-top" {
		t.Fatalf("String = %q", got)
	}
	if got := Capability(0).String(); got != "none" {
		t.Fatalf("String = %q", got)
	}
}

func TestParseExtendedState(t *testing.T) {
	for _, s := range []ExtendedState{StateNormal, StateMinimized, StateMaximizedBoth} {
		got, ok := ParseExtendedState(s.String())
		if !ok || got != s {
			t.Fatalf("ParseExtendedState(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseExtendedState("fullscreen"); ok {
		t.Fatal("unknown state accepted")
	}
}

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in   string
		want WindowID
		ok   bool
	}{
		{"0x3a00007", 0x3a00007, true},
		{"1234", 1234, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"window", 0, false},
		{"0x1ffffffff", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseWindowID(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseWindowID(%q) = %v, %v", tt.in, got, err)
		}
	}
	if got := WindowID(0x3a00007).String(); got != "0x3a00007" {
		t.Errorf("String = %q", got)
	}
}
