package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
	"github.com/Carmen-Shannon/oxy-fx/engine/composer"
	"github.com/Carmen-Shannon/oxy-fx/engine/panel"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/tick"
)

var (
	// ErrRendererNotInitialized is returned by StartLoop when the renderer is missing or not ready.
	ErrRendererNotInitialized = errors.New("engine: uninitialized renderer")

	// ErrNoDisplay is returned by StartLoop when no display was configured.
	ErrNoDisplay = errors.New("engine: no display")

	// ErrLoopRunning is returned by StartLoop when the loop is already registered.
	ErrLoopRunning = errors.New("engine: loop already running")

	// ErrNoComposer is returned by AddPass when the engine has no composer.
	ErrNoComposer = errors.New("engine: no composer")

	// ErrFramePanic is recorded by the loop when a frame panics.
	ErrFramePanic = errors.New("engine: frame panicked")
)

// Display is the host surface that drives the loop: it calls the registered animation loop
// once per refresh and reports size changes.
type Display interface {
	// SetAnimationLoop registers the per-refresh callback. Nil unregisters it.
	SetAnimationLoop(fn func(timestamp float64, handle any))

	// SetResizeCallback sets the function called when the display is resized.
	SetResizeCallback(fn func(width, height int))

	// Width returns the display width in pixels.
	Width() int

	// Height returns the display height in pixels.
	Height() int
}

// Controls is the user-input collaborator updated once per frame before subscribers run.
type Controls interface {
	// Update advances the controls by dt milliseconds.
	Update(dt float64)
}

// uniformApplier is implemented by controls that publish shared uniforms (the camera).
type uniformApplier interface {
	Apply(set *renderer.UniformSet)
}

// aspectSetter is implemented by controls that follow the display aspect ratio.
type aspectSetter interface {
	SetAspect(aspect float32)
}

// clockedDisplay is implemented by displays that can report their current timestamp.
type clockedDisplay interface {
	Now() float64
}

// messagePump is implemented by displays that own a blocking message loop.
type messagePump interface {
	ProcessMessages()
}

// Context is the explicit record of everything a frame touches. It is built once by NewEngine
// and handed to whoever needs it instead of living in package state.
type Context struct {
	Renderer    renderer.Renderer
	Composer    composer.Composer
	Broadcaster tick.Broadcaster
	Clock       clock.Clock
	Controls    Controls
	Profiler    profiler.Profiler
	Panel       panel.Panel
	Uniforms    *renderer.UniformSet
	Display     Display
}

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	ctx *Context

	running   bool
	err       error
	frames    uint64
	lastStamp float64

	onError func(err error)
}

// Engine is the main entry point for the engine.
// It owns the render loop: one iteration per display refresh, in a fixed order.
//
//  1. read the refresh timestamp
//  2. advance the clock (delta capped)
//  3. update the controls and drain the control panel
//  4. notify tick subscribers in registration order
//  5. execute the pass composer
//  6. update the stats overlay
//  7. persist the timestamp
type Engine interface {
	// Context returns the record of the engine's collaborators.
	//
	// Returns:
	//   - *Context: the context built at construction
	Context() *Context

	// Subscribe registers a per-frame callback.
	//
	// Parameters:
	//   - fn: the subscriber, run on the loop goroutine after the controls update
	//
	// Returns:
	//   - tick.Handle: the handle to pass to Unsubscribe
	Subscribe(fn tick.Subscriber) tick.Handle

	// Unsubscribe removes a callback registered with Subscribe.
	//
	// Parameters:
	//   - h: the subscription handle
	//
	// Returns:
	//   - bool: true if the subscription existed
	Unsubscribe(h tick.Handle) bool

	// AddPass appends a pass to the composer.
	//
	// Parameters:
	//   - p: the pass to append
	//
	// Returns:
	//   - error: ErrNoComposer or a composer validation error
	AddPass(p composer.Pass) error

	// StartLoop registers the render loop with the display. Nothing is registered when it fails.
	//
	// Returns:
	//   - error: ErrRendererNotInitialized, ErrNoDisplay or ErrLoopRunning
	StartLoop() error

	// Run starts the loop and, when the display owns a message loop, blocks until it exits.
	//
	// Returns:
	//   - error: a StartLoop error or the error that stopped the loop
	Run() error

	// Stop unregisters the render loop. Safe to call when the loop is not running.
	Stop()

	// Running reports whether the loop is registered with the display.
	Running() bool

	// Err returns the error that stopped the loop, or nil.
	Err() error

	// Frames returns how many frames completed every step.
	Frames() uint64

	// LastTimestamp returns the timestamp persisted by the last completed frame.
	LastTimestamp() float64

	// Resize reconfigures the renderer, the composer and the controls for a new display size.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: a renderer or composer resize error
	Resize(width, height int) error

	// RenderFrame runs one loop iteration. The display callback calls it; tests may too.
	//
	// Parameters:
	//   - timestamp: the refresh timestamp in milliseconds
	//   - handle: optional opaque frame reference from the display
	//
	// Returns:
	//   - error: the first error of any step; later steps do not run
	RenderFrame(timestamp float64, handle any) error
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Missing collaborators get defaults: a clock, a broadcaster and, when a renderer is given,
// an empty composer sized to the renderer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:  &sync.Mutex{},
		ctx: &Context{},
	}

	for _, opt := range options {
		opt(e)
	}

	if e.ctx.Clock == nil {
		e.ctx.Clock = clock.NewClock()
	}
	if e.ctx.Broadcaster == nil {
		e.ctx.Broadcaster = tick.NewBroadcaster()
	}
	if e.ctx.Renderer != nil {
		e.ctx.Uniforms = e.ctx.Renderer.Uniforms()
		if e.ctx.Composer == nil {
			e.ctx.Composer = composer.NewComposer(e.ctx.Renderer)
		}
	}

	if e.ctx.Display != nil {
		e.ctx.Display.SetResizeCallback(func(width, height int) {
			if err := e.Resize(width, height); err != nil {
				common.Logger().Error("resize failed", "width", width, "height", height, "error", err)
			}
		})
	}

	return e
}

func (e *engine) Context() *Context {
	return e.ctx
}

func (e *engine) Subscribe(fn tick.Subscriber) tick.Handle {
	return e.ctx.Broadcaster.Subscribe(fn)
}

func (e *engine) Unsubscribe(h tick.Handle) bool {
	return e.ctx.Broadcaster.Unsubscribe(h)
}

func (e *engine) AddPass(p composer.Pass) error {
	if e.ctx.Composer == nil {
		return ErrNoComposer
	}
	return e.ctx.Composer.AddPass(p)
}

func (e *engine) StartLoop() error {
	r := e.ctx.Renderer
	if r == nil || !r.Initialized() {
		return ErrRendererNotInitialized
	}
	d := e.ctx.Display
	if d == nil {
		return ErrNoDisplay
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrLoopRunning
	}
	e.running = true
	e.err = nil
	e.mu.Unlock()

	// the first delta is measured from the display's own clock
	if cd, ok := d.(clockedDisplay); ok {
		e.ctx.Clock.Reset(cd.Now())
	}

	d.SetAnimationLoop(e.animate)
	common.Logger().Info("render loop started", "width", d.Width(), "height", d.Height(), "passes", e.passCount())
	return nil
}

func (e *engine) Run() error {
	if err := e.StartLoop(); err != nil {
		return err
	}
	if pump, ok := e.ctx.Display.(messagePump); ok {
		pump.ProcessMessages()
		e.Stop()
	}
	return e.Err()
}

func (e *engine) Stop() {
	e.mu.Lock()
	wasRunning := e.running
	e.running = false
	e.mu.Unlock()

	if !wasRunning {
		return
	}
	e.ctx.Display.SetAnimationLoop(nil)
	common.Logger().Info("render loop stopped", "frames", e.Frames())
}

func (e *engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) LastTimestamp() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStamp
}

func (e *engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("engine: invalid size %dx%d", width, height)
	}
	if r := e.ctx.Renderer; r != nil {
		if err := r.Resize(width, height); err != nil {
			return fmt.Errorf("renderer resize: %w", err)
		}
	}
	if c := e.ctx.Composer; c != nil {
		if err := c.SetSize(width, height); err != nil {
			return fmt.Errorf("composer resize: %w", err)
		}
	}
	if as, ok := e.ctx.Controls.(aspectSetter); ok {
		as.SetAspect(float32(width) / float32(height))
	}
	common.Logger().Info("display resized", "width", width, "height", height)
	return nil
}

// animate is the callback registered with the display. An error stops the loop for good.
func (e *engine) animate(timestamp float64, handle any) {
	if !e.Running() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			// unregister before re-panicking so the loop can be restarted
			e.fail(fmt.Errorf("%w: %v", ErrFramePanic, r))
			panic(r)
		}
	}()
	if err := e.RenderFrame(timestamp, handle); err != nil {
		e.fail(err)
	}
}

func (e *engine) fail(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()

	e.Stop()
	common.Logger().Error("render loop stopped on error", "error", err)
	if e.onError != nil {
		e.onError(err)
	}
}

func (e *engine) RenderFrame(timestamp float64, handle any) error {
	ctx := e.ctx

	frame := ctx.Clock.Advance(timestamp, handle)

	if ctx.Controls != nil {
		ctx.Controls.Update(frame.Delta)
		if ua, ok := ctx.Controls.(uniformApplier); ok && ctx.Uniforms != nil {
			ua.Apply(ctx.Uniforms)
		}
	}
	if ctx.Panel != nil {
		// a bad panel file must not take the loop down
		if n, err := ctx.Panel.Drain(); err != nil {
			common.Logger().Warn("control panel update rejected", "documents", n, "error", err)
		}
	}

	if err := ctx.Broadcaster.Notify(frame); err != nil {
		return fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	if ctx.Composer != nil && ctx.Composer.Len() > 0 {
		if err := ctx.Composer.Execute(); err != nil {
			return fmt.Errorf("frame %d: %w", frame.Index, err)
		}
	} else {
		common.Logger().Debug("no passes to execute", "frame", frame.Index)
	}

	if ctx.Profiler != nil {
		ctx.Profiler.Update(frame)
	}

	e.mu.Lock()
	e.lastStamp = timestamp
	e.frames++
	e.mu.Unlock()
	return nil
}

func (e *engine) passCount() int {
	if e.ctx.Composer == nil {
		return 0
	}
	return e.ctx.Composer.Len()
}
