package host

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
)

// headless is the implementation of the Headless interface.
type headless struct {
	mu *sync.Mutex

	width, height int
	now           float64

	loop     func(timestamp float64, handle any)
	onResize func(width, height int)
}

// Headless is a display with no window. The caller drives refreshes with Step or Run,
// which makes it the host for tests and offline rendering.
type Headless interface {
	// SetAnimationLoop registers the per-refresh callback. Nil unregisters it.
	//
	// Parameters:
	//   - fn: called once per refresh with the timestamp in milliseconds and an optional handle
	SetAnimationLoop(fn func(timestamp float64, handle any))

	// SetResizeCallback sets the function called when the display is resized.
	SetResizeCallback(fn func(width, height int))

	// Width returns the display width in pixels.
	Width() int

	// Height returns the display height in pixels.
	Height() int

	// Registered reports whether an animation loop is registered.
	Registered() bool

	// Step runs one refresh at timestamp.
	//
	// Parameters:
	//   - timestamp: the refresh time in milliseconds
	//
	// Returns:
	//   - bool: false if no loop was registered and nothing ran
	Step(timestamp float64) bool

	// Run advances the display clock by stepMs and refreshes, frames times. It stops early
	// once the loop unregisters itself.
	//
	// Parameters:
	//   - frames: the number of refreshes
	//   - stepMs: the time between refreshes in milliseconds
	//
	// Returns:
	//   - int: the number of refreshes that ran a loop
	Run(frames int, stepMs float64) int

	// Now returns the timestamp of the last refresh driven by Run.
	Now() float64

	// Resize changes the display size and fires the resize callback.
	Resize(width, height int)
}

var _ Headless = &headless{}

// NewHeadless creates a headless display.
//
// Parameters:
//   - options: variadic list of HeadlessBuilderOption functions
//
// Returns:
//   - Headless: the new display, 1280x720 at timestamp 0 unless configured
func NewHeadless(options ...HeadlessBuilderOption) Headless {
	h := &headless{
		mu:     &sync.Mutex{},
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *headless) SetAnimationLoop(fn func(timestamp float64, handle any)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = fn
}

func (h *headless) SetResizeCallback(fn func(width, height int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResize = fn
}

func (h *headless) Width() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width
}

func (h *headless) Height() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

func (h *headless) Registered() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop != nil
}

func (h *headless) Step(timestamp float64) bool {
	h.mu.Lock()
	loop := h.loop
	h.mu.Unlock()

	if loop == nil {
		return false
	}
	// the loop may unregister itself, so it runs without the lock
	loop(timestamp, h)
	return true
}

func (h *headless) Run(frames int, stepMs float64) int {
	ran := 0
	for range frames {
		h.mu.Lock()
		h.now += stepMs
		ts := h.now
		h.mu.Unlock()

		if !h.Step(ts) {
			break
		}
		ran++
	}
	return ran
}

func (h *headless) Now() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *headless) Resize(width, height int) {
	h.mu.Lock()
	if width <= 0 || height <= 0 || (width == h.width && height == h.height) {
		h.mu.Unlock()
		return
	}
	h.width, h.height = width, height
	cb := h.onResize
	h.mu.Unlock()

	common.Logger().Debug("headless display resized", "width", width, "height", height)
	if cb != nil {
		cb(width, height)
	}
}
