// Package overlay controls the floating indicator window: its position,
// its expanded detail panel and the annotation entry flow.
package overlay

// Initial window origin.
const (
	InitialX = 50
	InitialY = 200
)

// Clamp margins, in pixels.
const (
	minX         = -50
	rightMargin  = 70
	bottomMargin = 120
)

// Snap offsets, in pixels.
const (
	snapRight = 50
	snapLeft  = 110
)

// Screen is the size of the monitor hosting the overlay.
type Screen struct {
	Width, Height int
}

// Layout is the window placement. X is measured from the right screen edge,
// matching how the window is anchored.
type Layout struct {
	X, Y     int
	Expanded bool
}

// Clamp bounds x to [-50, w-70] and y to [0, h-120].
// When a screen is too small for the range, the lower bound wins.
func Clamp(s Screen, x, y int) (int, int) {
	return bound(x, minX, s.Width-rightMargin), bound(y, 0, s.Height-bottomMargin)
}

// Snap returns the edge-snapped x for a window released at x.
func Snap(s Screen, x int) int {
	if s.Width-x > s.Width/2 {
		return snapRight
	}
	return s.Width - snapLeft
}

func bound(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
