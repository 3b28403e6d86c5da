package overlay

import (
	"testing"

	"github.com/1broseidon/windeck/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
)

func TestCoverSpansAllDisplays(t *testing.T) {
	displays := []platform.Display{
		{Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{Bounds: platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
	}
	got, err := Cover(displays)
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	want := platform.Rect{X: 0, Y: 0, Width: 4480, Height: 1440}
	if got != want {
		t.Fatalf("Cover = %+v, want %+v", got, want)
	}

	if _, err := Cover(nil); err == nil {
		t.Fatal("expected error without displays")
	}
}

func TestAttributeValuesFollowMaskOrder(t *testing.T) {
	vals := attributeValues(0xff123456)
	if len(vals) != 2 {
		t.Fatalf("got %d values, want 2", len(vals))
	}
	if vals[0] != 0x123456 {
		t.Fatalf("back pixel = %#x, want 0x123456", vals[0])
	}
	if vals[1]&xproto.EventMaskButtonPress == 0 || vals[1]&xproto.EventMaskKeyPress == 0 {
		t.Fatalf("event mask %#x does not absorb input", vals[1])
	}
	if vals[1]&xproto.EventMaskFocusChange == 0 {
		t.Fatalf("event mask %#x misses focus changes", vals[1])
	}
}

func TestCheckOpacity(t *testing.T) {
	for _, v := range []float64{0, 0.6, 1} {
		if err := checkOpacity(v); err != nil {
			t.Fatalf("checkOpacity(%v) = %v", v, err)
		}
	}
	for _, v := range []float64{-0.1, 1.01} {
		if err := checkOpacity(v); err == nil {
			t.Fatalf("checkOpacity(%v) accepted", v)
		}
	}
}

func TestClampSize(t *testing.T) {
	w, h := clampSize(platform.Rect{Width: 0, Height: 70000})
	if w != 1 || h != 0xffff {
		t.Fatalf("clampSize = %dx%d", w, h)
	}
}
