// Package gesture classifies pointer input on the overlay indicator into taps and drags.
package gesture

import (
	"fmt"
	"time"
)

// Fixed thresholds.
const (
	DragThreshold = 20                     // pointer travel, in pixels, before a press becomes a drag
	TapTimeout    = 300 * time.Millisecond // maximum press duration for a tap
)

// State of the recognizer.
type State int

const (
	Idle State = iota
	Pressed
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Point is a position in screen coordinates.
type Point struct {
	X, Y int
}

// EventKind identifies a pointer event.
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	Cancel
)

// Event is a pointer event in absolute screen coordinates.
type Event struct {
	Kind   EventKind
	X, Y   int
	Time   time.Time
	Origin Point // Window origin at press time; only read for Press
}

// EffectKind identifies an output of the recognizer.
type EffectKind int

const (
	// DragStarted is emitted once per cycle when the threshold is exceeded.
	DragStarted EffectKind = iota
	// Moved carries a new, already clamped window origin.
	Moved
	// Snap asks for the window to be pulled to the nearest edge.
	Snap
	// Tap is a validated tap.
	Tap
)

// Effect is produced by Handle.
type Effect struct {
	Kind     EffectKind
	Position Point // Set for Moved
}

// ClampFunc bounds a proposed window origin.
type ClampFunc func(x, y int) (int, int)

// Recognizer is a press/move/release state machine.
// It is not safe for concurrent use; drive it from the UI context.
type Recognizer struct {
	clamp ClampFunc

	state  State
	press  Point
	at     time.Time
	origin Point
}

// New creates a recognizer. A nil clamp leaves positions unbounded.
func New(clamp ClampFunc) *Recognizer {
	if clamp == nil {
		clamp = func(x, y int) (int, int) { return x, y }
	}
	return &Recognizer{clamp: clamp}
}

// State returns the current state.
func (r *Recognizer) State() State {
	return r.state
}

// Handle feeds one event and returns the resulting effects, if any.
func (r *Recognizer) Handle(ev Event) []Effect {
	switch ev.Kind {
	case Press:
		r.state = Pressed
		r.press = Point{X: ev.X, Y: ev.Y}
		r.at = ev.Time
		r.origin = ev.Origin
		return nil

	case Move:
		switch r.state {
		case Pressed:
			if !r.beyondThreshold(ev) {
				return nil
			}
			r.state = Dragging
			return []Effect{{Kind: DragStarted}, r.moved(ev)}
		case Dragging:
			return []Effect{r.moved(ev)}
		}
		return nil

	case Release:
		prev := r.state
		elapsed := ev.Time.Sub(r.at)
		tap := prev == Pressed && elapsed < TapTimeout && r.withinTap(ev)
		r.reset()

		switch {
		case prev == Dragging:
			return []Effect{{Kind: Snap}}
		case tap:
			return []Effect{{Kind: Tap}}
		}
		return nil

	case Cancel:
		r.reset()
		return nil
	}
	return nil
}

// moved maps pointer travel onto the window origin. The window is anchored
// to the right edge, so horizontal travel is inverted.
func (r *Recognizer) moved(ev Event) Effect {
	x := r.origin.X + (r.press.X - ev.X)
	y := r.origin.Y + (ev.Y - r.press.Y)
	x, y = r.clamp(x, y)
	return Effect{Kind: Moved, Position: Point{X: x, Y: y}}
}

func (r *Recognizer) beyondThreshold(ev Event) bool {
	dx, dy := r.delta(ev)
	return dx > DragThreshold || dy > DragThreshold
}

func (r *Recognizer) withinTap(ev Event) bool {
	dx, dy := r.delta(ev)
	return dx < DragThreshold && dy < DragThreshold
}

func (r *Recognizer) delta(ev Event) (int, int) {
	return abs(ev.X - r.press.X), abs(ev.Y - r.press.Y)
}

func (r *Recognizer) reset() {
	*r = Recognizer{clamp: r.clamp}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
