package engine

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
	"github.com/Carmen-Shannon/oxy-fx/engine/composer"
	"github.com/Carmen-Shannon/oxy-fx/engine/panel"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/tick"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithRenderer sets the renderer the composer submits passes to.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Renderer = r
	}
}

// WithComposer sets the pass composer executed each frame. Without it the engine creates an
// empty composer over the renderer.
//
// Parameters:
//   - c: the composer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithComposer(c composer.Composer) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Composer = c
	}
}

// WithDisplay sets the display that drives the loop, such as a window or a headless host.
//
// Parameters:
//   - d: the display
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDisplay(d Display) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Display = d
	}
}

// WithClock replaces the default clock.
func WithClock(c clock.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Clock = c
	}
}

// WithBroadcaster replaces the default tick broadcaster.
func WithBroadcaster(b tick.Broadcaster) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Broadcaster = b
	}
}

// WithControls sets the controls updated at the start of every frame. A camera also
// publishes its matrices to the shared uniforms and follows the display aspect ratio.
//
// Parameters:
//   - c: the controls
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithControls(c Controls) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Controls = c
	}
}

// WithProfiler enables the stats overlay, updated after the passes each frame.
func WithProfiler(p profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Profiler = p
	}
}

// WithPanel sets the control panel drained during the controls step.
func WithPanel(p panel.Panel) EngineBuilderOption {
	return func(e *engine) {
		e.ctx.Panel = p
	}
}

// WithErrorHandler sets a callback invoked once when a frame error stops the loop.
//
// Parameters:
//   - fn: receives the error that stopped the loop
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithErrorHandler(fn func(err error)) EngineBuilderOption {
	return func(e *engine) {
		e.onError = fn
	}
}
