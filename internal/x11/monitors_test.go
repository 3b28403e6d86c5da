package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestUpdateStrutsForMonitor(t *testing.T) {
	left := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Monitor{X: 1920, Y: 0, Width: 1920, Height: 1080}
	const rootW, rootH = 3840, 1080

	tests := []struct {
		name  string
		mon   Monitor
		strut ewmh.WmStrutPartial
		want  dockStruts
	}{
		{
			name:  "bottom panel on left monitor only",
			mon:   left,
			strut: ewmh.WmStrutPartial{Bottom: 40, BottomStartX: 0, BottomEndX: 1919},
			want:  dockStruts{bottom: 40},
		},
		{
			name:  "bottom panel misses right monitor",
			mon:   right,
			strut: ewmh.WmStrutPartial{Bottom: 40, BottomStartX: 0, BottomEndX: 1919},
			want:  dockStruts{},
		},
		{
			name:  "top bar spanning both",
			mon:   right,
			strut: ewmh.WmStrutPartial{Top: 28, TopStartX: 0, TopEndX: 3839},
			want:  dockStruts{top: 28},
		},
		{
			name:  "right dock",
			mon:   right,
			strut: ewmh.WmStrutPartial{Right: 64, RightStartY: 0, RightEndY: 1079},
			want:  dockStruts{right: 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acc dockStruts
			sp := tt.strut
			updateStrutsForMonitor(&tt.mon, rootW, rootH, &sp, &acc)
			if acc != tt.want {
				t.Fatalf("struts = %+v, want %+v", acc, tt.want)
			}
		})
	}
}

func TestIntersectionSize(t *testing.T) {
	got := intersectionSize(0, 0, 100, 100, 50, 80, 200, 200)
	if got.w != 50 || got.h != 20 {
		t.Fatalf("intersection = %+v, want 50x20", got)
	}
	if intersects(0, 0, 10, 10, 10, 0, 20, 10) {
		t.Fatal("touching rects must not intersect")
	}
}
