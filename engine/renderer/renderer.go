package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
)

type linkedProgram struct {
	program Program
	layout  UniformLayout
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	programCache map[string]linkedProgram
	pending      []Program

	uniforms *UniformSet
	backend  RendererBackend

	width, height int
	submissions   uint64
}

// Renderer is the high-level rendering API the pass composer and materials talk to.
//
// The Renderer owns the shared UniformSet and a cache of linked programs keyed by Program.Key().
// Linking enforces that every shared uniform a program references is registered first.
// The backend does the actual work and is swappable (software or webgpu).
type Renderer interface {
	// Backend returns the underlying backend.
	//
	// Returns:
	//   - RendererBackend: the backend, or nil if none was supplied
	Backend() RendererBackend

	// Initialized reports whether a backend is present and ready.
	//
	// Returns:
	//   - bool: true if frames can be rendered
	Initialized() bool

	// Uniforms returns the shared uniform registry.
	//
	// Returns:
	//   - *UniformSet: the registry
	Uniforms() *UniformSet

	// Program retrieves the cached Program for key, or nil if not registered.
	//
	// Parameters:
	//   - key: the program key
	//
	// Returns:
	//   - Program: the cached program, or nil
	Program(key string) Program

	// Programs returns the keys of every linked program.
	//
	// Returns:
	//   - []string: the program keys
	Programs() []string

	// RegisterPrograms links one or more programs through the backend and caches them.
	// Programs whose keys are already registered are skipped.
	//
	// Parameters:
	//   - programs: the programs to link
	//
	// Returns:
	//   - error: ErrUniformNotRegistered, or a backend link error
	RegisterPrograms(programs ...Program) error

	// CreateSurface allocates an offscreen target.
	//
	// Parameters:
	//   - label: debug label
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - Surface: the new target
	//   - error: an error if allocation fails
	CreateSurface(label string, width, height int) (Surface, error)

	// ReleaseSurface frees an offscreen target.
	//
	// Parameters:
	//   - s: the surface to release
	ReleaseSurface(s Surface)

	// DisplaySurface returns the surface shown to the user.
	//
	// Returns:
	//   - Surface: the display target
	DisplaySurface() Surface

	// Resize configures the backend for a new display size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the backend could not be reconfigured
	Resize(width, height int) error

	// Size returns the current display size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// SetPresentMode sets the present mode. Call Resize for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame starts a frame on the backend.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// SubmitPass looks up a linked program and submits one pass to the backend.
	// Values overlay the shared uniforms for this submission only.
	//
	// Parameters:
	//   - key: the program key
	//   - inputs: input surfaces in the order of the program's Inputs()
	//   - target: the surface to write
	//   - values: per-submission parameters (may be nil)
	//
	// Returns:
	//   - error: ErrProgramNotFound or a backend submission error
	SubmitPass(key string, inputs []Surface, target Surface, values Values) error

	// EndFrame finishes the frame and presents it.
	//
	// Returns:
	//   - error: an error if presentation failed
	EndFrame() error

	// Submissions returns how many passes were submitted since construction.
	//
	// Returns:
	//   - uint64: the submission count
	Submissions() uint64

	// Release frees the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over the given backend. A nil backend yields a renderer that
// reports Initialized() == false, which the render loop rejects at start.
//
// Parameters:
//   - backend: the backend to drive
//   - options: functional options to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:           &sync.Mutex{},
		programCache: make(map[string]linkedProgram),
		uniforms:     NewUniformSet(),
		backend:      backend,
	}

	for _, opt := range options {
		opt(r)
	}

	if backend != nil {
		if ds := backend.DisplaySurface(); ds != nil {
			r.width, r.height = ds.Width(), ds.Height()
		}
		if len(r.pending) > 0 {
			if err := r.RegisterPrograms(r.pending...); err != nil {
				panic(fmt.Sprintf("renderer: %v", err))
			}
		}
	}
	r.pending = nil
	return r
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Initialized() bool {
	return r.backend != nil && r.backend.Initialized()
}

func (r *renderer) Uniforms() *UniformSet {
	return r.uniforms
}

func (r *renderer) Program(key string) Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	lp, ok := r.programCache[key]
	if !ok {
		return nil
	}
	return lp.program
}

func (r *renderer) Programs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.programCache))
	for k := range r.programCache {
		keys = append(keys, k)
	}
	return keys
}

func (r *renderer) RegisterPrograms(programs ...Program) error {
	if r.backend == nil {
		return ErrNoBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range programs {
		key := p.Key()
		if _, exists := r.programCache[key]; exists {
			continue
		}
		layout, err := NewUniformLayout(p, r.uniforms)
		if err != nil {
			return err
		}
		if err := r.backend.LinkProgram(p, layout); err != nil {
			return fmt.Errorf("link program %q: %w", key, err)
		}
		r.programCache[key] = linkedProgram{program: p, layout: layout}
		common.Logger().Debug("program linked", "key", key, "uniform_bytes", layout.Size)
	}
	return nil
}

func (r *renderer) CreateSurface(label string, width, height int) (Surface, error) {
	if r.backend == nil {
		return nil, ErrNoBackend
	}
	return r.backend.CreateSurface(label, width, height)
}

func (r *renderer) ReleaseSurface(s Surface) {
	if r.backend == nil || s == nil {
		return
	}
	r.backend.ReleaseSurface(s)
}

func (r *renderer) DisplaySurface() Surface {
	if r.backend == nil {
		return nil
	}
	return r.backend.DisplaySurface()
}

func (r *renderer) Resize(width, height int) error {
	if r.backend == nil {
		return ErrNoBackend
	}
	if err := r.backend.Resize(width, height); err != nil {
		return fmt.Errorf("resize renderer to %dx%d: %w", width, height, err)
	}
	r.width, r.height = width, height
	return nil
}

func (r *renderer) Size() (int, int) {
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	if r.backend != nil {
		r.backend.SetPresentMode(mode)
	}
}

func (r *renderer) BeginFrame() error {
	if r.backend == nil {
		return ErrNoBackend
	}
	return r.backend.BeginFrame()
}

func (r *renderer) SubmitPass(key string, inputs []Surface, target Surface, values Values) error {
	r.mu.Lock()
	lp, exists := r.programCache[key]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrProgramNotFound, key)
	}
	if want := len(lp.program.Inputs()); want != len(inputs) {
		return fmt.Errorf("program %q expects %d inputs, got %d", key, want, len(inputs))
	}

	reader := Overlay(values, r.uniforms)
	if ps, ok := lp.program.(ParameterSource); ok {
		reader = Overlay(values, ps.ParameterValues(), r.uniforms)
	}
	if err := r.backend.SubmitPass(lp.program, lp.layout, inputs, target, reader); err != nil {
		return fmt.Errorf("submit %q to %q: %w", key, target.Label(), err)
	}
	r.submissions++
	return nil
}

func (r *renderer) EndFrame() error {
	if r.backend == nil {
		return ErrNoBackend
	}
	return r.backend.EndFrame()
}

func (r *renderer) Submissions() uint64 {
	return r.submissions
}

func (r *renderer) Release() {
	if r.backend != nil {
		r.backend.Release()
	}
}
