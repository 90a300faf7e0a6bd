package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func press(x, y int, origin Point) Event {
	return Event{Kind: Press, X: x, Y: y, Time: t0, Origin: origin}
}

func move(x, y int, after time.Duration) Event {
	return Event{Kind: Move, X: x, Y: y, Time: t0.Add(after)}
}

func release(x, y int, after time.Duration) Event {
	return Event{Kind: Release, X: x, Y: y, Time: t0.Add(after)}
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

// run feeds events and collects every effect produced.
func run(r *Recognizer, events ...Event) []Effect {
	var all []Effect
	for _, ev := range events {
		all = append(all, r.Handle(ev)...)
	}
	return all
}

func TestRecognizer_ShortTap(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(100, 100, Point{50, 200}),
		move(105, 103, 50*time.Millisecond),
		release(105, 103, 150*time.Millisecond),
	)

	assert.Equal(t, []EffectKind{Tap}, kinds(effects))
	assert.Equal(t, Idle, r.State())
}

func TestRecognizer_SlowPressIsNotTap(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(100, 100, Point{}),
		release(100, 100, TapTimeout),
	)
	assert.Empty(t, effects)
	assert.Equal(t, Idle, r.State())
}

func TestRecognizer_VerticalDrag(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(100, 100, Point{50, 200}),
		move(100, 140, 40*time.Millisecond),
		release(100, 140, 100*time.Millisecond),
	)

	require.Equal(t, []EffectKind{DragStarted, Moved, Snap}, kinds(effects))
	assert.Equal(t, Point{X: 50, Y: 240}, effects[1].Position)
	assert.Equal(t, Idle, r.State())
}

func TestRecognizer_HorizontalMovementIsInverted(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(100, 100, Point{50, 200}),
		move(160, 110, 10*time.Millisecond),
	)

	require.Equal(t, []EffectKind{DragStarted, Moved}, kinds(effects))
	assert.Equal(t, Point{X: -10, Y: 210}, effects[1].Position)
	assert.Equal(t, Dragging, r.State())

	effects = r.Handle(move(90, 100, 20*time.Millisecond))
	require.Len(t, effects, 1)
	assert.Equal(t, Point{X: 60, Y: 200}, effects[0].Position)
}

func TestRecognizer_MovedIsClamped(t *testing.T) {
	r := New(func(x, y int) (int, int) {
		return min(max(x, 0), 100), min(max(y, 0), 100)
	})

	effects := run(r,
		press(500, 500, Point{50, 50}),
		move(0, 1000, 10*time.Millisecond),
	)
	require.Len(t, effects, 2)
	assert.Equal(t, Point{X: 100, Y: 100}, effects[1].Position)
}

func TestRecognizer_DragStartsOncePerCycle(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(0, 0, Point{}),
		move(30, 0, 10*time.Millisecond),
		move(5, 0, 20*time.Millisecond),
		move(60, 0, 30*time.Millisecond),
		release(5, 0, 40*time.Millisecond),
	)

	var started, taps int
	for _, e := range effects {
		switch e.Kind {
		case DragStarted:
			started++
		case Tap:
			taps++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 0, taps)
	assert.Equal(t, Snap, effects[len(effects)-1].Kind)
}

func TestRecognizer_ThresholdBoundary(t *testing.T) {
	r := New(nil)

	// Exactly at the threshold neither starts a drag nor counts as a tap.
	effects := run(r,
		press(0, 0, Point{}),
		move(DragThreshold, 0, 10*time.Millisecond),
		release(DragThreshold, 0, 20*time.Millisecond),
	)
	assert.Empty(t, effects)
}

func TestRecognizer_Cancel(t *testing.T) {
	r := New(nil)

	effects := run(r,
		press(0, 0, Point{}),
		move(0, 50, 10*time.Millisecond),
		Event{Kind: Cancel, Time: t0.Add(20 * time.Millisecond)},
		release(0, 50, 30*time.Millisecond),
	)
	assert.Equal(t, []EffectKind{DragStarted, Moved}, kinds(effects))
	assert.Equal(t, Idle, r.State())
}

func TestRecognizer_PressRestarts(t *testing.T) {
	r := New(nil)

	run(r, press(0, 0, Point{}), move(0, 50, 10*time.Millisecond))
	require.Equal(t, Dragging, r.State())

	second := Event{Kind: Press, X: 200, Y: 200, Time: t0.Add(time.Second)}
	effects := run(r, second, Event{Kind: Release, X: 201, Y: 201, Time: t0.Add(time.Second + 50*time.Millisecond)})
	assert.Equal(t, []EffectKind{Tap}, kinds(effects))
}

func TestRecognizer_IgnoredEvents(t *testing.T) {
	r := New(nil)

	assert.Empty(t, r.Handle(move(10, 10, 0)))
	assert.Empty(t, r.Handle(release(10, 10, 0)))
	assert.Empty(t, r.Handle(Event{Kind: Cancel}))
	assert.Empty(t, r.Handle(Event{Kind: EventKind(99)}))
	assert.Equal(t, Idle, r.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pressed", Pressed.String())
	assert.Equal(t, "dragging", Dragging.String())
	assert.Equal(t, "state(7)", State(7).String())
}
