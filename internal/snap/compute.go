package snap

import "github.com/1broseidon/windeck/internal/platform"

// Targets are the rectangles a moving window may align with, listed in
// evaluation order: screen bounds, reserved (tray/dock) regions, then other
// tracked windows.
type Targets struct {
	Screens  []platform.Rect
	Reserved []platform.Rect
	Windows  []platform.Rect
}

// Snap returns r with each axis independently moved onto the nearest
// candidate edge within threshold. Either window edge (left/right,
// top/bottom) may match a candidate. Among equally near candidates the
// first in evaluation order wins. Window edges only count when that window
// overlaps r on the other axis, widened by threshold. Size is never changed.
func Snap(r platform.Rect, threshold int, tg Targets) (platform.Rect, bool) {
	if threshold < 0 {
		threshold = 0
	}
	var xs, ys []int
	for _, s := range tg.Screens {
		xs = append(xs, s.X, s.Right())
		ys = append(ys, s.Y, s.Bottom())
	}
	for _, s := range tg.Reserved {
		xs = append(xs, s.X, s.Right())
		ys = append(ys, s.Y, s.Bottom())
	}
	for _, w := range tg.Windows {
		if spansOverlap(r.Y, r.Bottom(), w.Y, w.Bottom(), threshold) {
			xs = append(xs, w.X, w.Right())
		}
		if spansOverlap(r.X, r.Right(), w.X, w.Right(), threshold) {
			ys = append(ys, w.Y, w.Bottom())
		}
	}

	out := r
	out.X = snapAxis(r.X, r.Width, xs, threshold)
	out.Y = snapAxis(r.Y, r.Height, ys, threshold)
	return out, out != r
}

func snapAxis(pos, size int, candidates []int, threshold int) int {
	best := pos
	bestDist := threshold + 1
	for _, c := range candidates {
		if d := abs(pos - c); d <= threshold && d < bestDist {
			best, bestDist = c, d
		}
		if d := abs(pos + size - c); d <= threshold && d < bestDist {
			best, bestDist = c-size, d
		}
	}
	return best
}

func spansOverlap(a0, a1, b0, b1, slack int) bool {
	return a0 < b1+slack && b0 < a1+slack
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
