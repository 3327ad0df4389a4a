package clock

import (
	"math"
	"time"
)

// DefaultMaxDelta is the largest step, in milliseconds, a Frame will ever carry.
// Anything larger (a backgrounded window, a debugger pause) is clamped to it.
const DefaultMaxDelta = 100.0

// processStart anchors Now so timestamps are small monotonic millisecond values.
var processStart = time.Now()

// Now returns the milliseconds elapsed since the process started, read from the monotonic clock.
//
// Returns:
//   - float64: monotonic timestamp in milliseconds
func Now() float64 {
	return float64(time.Since(processStart)) / float64(time.Millisecond)
}

// Frame is the timing record produced once per render loop iteration.
type Frame struct {
	// Timestamp is the raw host timestamp in milliseconds.
	Timestamp float64

	// Delta is Timestamp minus the previous timestamp, clamped to [0, MaxDelta].
	Delta float64

	// Handle is an optional opaque reference supplied by the host display (e.g. an XR frame).
	Handle any

	// Index counts frames produced by the clock, starting at 0.
	Index uint64
}

// Seconds returns the capped delta in seconds.
func (f Frame) Seconds() float32 {
	return float32(f.Delta / 1000)
}

// clock is the implementation of the Clock interface.
type clock struct {
	last     float64
	maxDelta float64
	frames   uint64

	initial    *float64
	timeSource func() float64
}

// Clock converts raw host timestamps into Frames with a capped delta.
// It is not safe for concurrent use; the render loop owns it.
type Clock interface {
	// Advance computes the delta between raw and the previously persisted timestamp,
	// clamps it to [0, MaxDelta], and stores raw for the next call.
	//
	// Parameters:
	//   - raw: the host timestamp in milliseconds
	//   - handle: optional opaque frame reference passed through to the Frame
	//
	// Returns:
	//   - Frame: the timing record for this iteration
	Advance(raw float64, handle any) Frame

	// Last returns the timestamp the next Advance will measure against.
	//
	// Returns:
	//   - float64: the persisted timestamp in milliseconds
	Last() float64

	// MaxDelta returns the delta cap in milliseconds.
	//
	// Returns:
	//   - float64: the cap
	MaxDelta() float64

	// Frames returns how many frames have been produced.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Reset re-anchors the clock at the given timestamp and zeroes the frame counter.
	//
	// Parameters:
	//   - initial: the timestamp the next Advance measures against
	Reset(initial float64)
}

var _ Clock = &clock{}

// NewClock creates a Clock. Without WithInitialTimestamp the first delta is measured
// against the time source read at construction (Now by default).
//
// Parameters:
//   - options: functional options for the clock
//
// Returns:
//   - Clock: the newly created clock
func NewClock(options ...ClockBuilderOption) Clock {
	c := &clock{
		maxDelta:   DefaultMaxDelta,
		timeSource: Now,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.initial != nil {
		c.last = *c.initial
	} else {
		c.last = c.timeSource()
	}
	return c
}

func (c *clock) Advance(raw float64, handle any) Frame {
	delta := raw - c.last
	switch {
	case math.IsNaN(delta) || delta < 0:
		delta = 0
	case delta > c.maxDelta:
		delta = c.maxDelta
	}

	f := Frame{
		Timestamp: raw,
		Delta:     delta,
		Handle:    handle,
		Index:     c.frames,
	}
	c.frames++
	c.last = raw
	return f
}

func (c *clock) Last() float64 {
	return c.last
}

func (c *clock) MaxDelta() float64 {
	return c.maxDelta
}

func (c *clock) Frames() uint64 {
	return c.frames
}

func (c *clock) Reset(initial float64) {
	c.last = initial
	c.frames = 0
}
