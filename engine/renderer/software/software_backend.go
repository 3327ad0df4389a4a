package software

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

// Shader is implemented by programs that render a whole target at once on the CPU.
type Shader interface {
	Shade(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader) error
}

// RowShader is implemented by per-pixel programs. Rows [y0, y1) are shaded independently,
// so the backend spreads bands of rows across its worker pool.
type RowShader interface {
	ShadeRows(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader, y0, y1 int)
}

// Submission describes one pass as seen by an observer. Images are copies taken around
// the submission and stay valid after it returns.
type Submission struct {
	Program string
	Target  string
	Inputs  []*image.RGBA
	Output  *image.RGBA
}

var errForeignSurface = errors.New("surface was not created by this backend")

// surface is an RGBA image target.
type surface struct {
	label    string
	img      *image.RGBA
	released bool
}

func (s *surface) Label() string      { return s.label }
func (s *surface) Width() int         { return s.img.Bounds().Dx() }
func (s *surface) Height() int        { return s.img.Bounds().Dy() }
func (s *surface) Image() *image.RGBA { return s.img }

func (s *surface) String() string {
	return fmt.Sprintf("%s(%dx%d)", s.label, s.Width(), s.Height())
}

func (s *surface) resize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// backend is the implementation of the Backend interface.
type backend struct {
	mu *sync.Mutex

	display  *surface
	surfaces map[*surface]struct{}
	programs map[string]renderer.Program

	pool       []worker.Worker
	tasks      chan worker.Task
	stop       chan int
	workers    int
	bandHeight int

	initialized bool
	observer    func(Submission)
	presentMode renderer.PresentMode

	inFrame        bool
	displayWritten bool
	frames         uint64
	presented      uint64
	taskID         int
}

// Backend is a CPU rendering backend over image.RGBA targets. It runs programs that
// implement Shader or RowShader and is used for headless rendering and tests.
type Backend interface {
	renderer.RendererBackend

	// Display returns the image currently backing the display surface.
	//
	// Returns:
	//   - *image.RGBA: the display image
	Display() *image.RGBA

	// Image returns the image backing a surface created by this backend.
	//
	// Parameters:
	//   - s: the surface
	//
	// Returns:
	//   - *image.RGBA: the backing image, or nil for foreign surfaces
	Image(s renderer.Surface) *image.RGBA

	// Frames returns how many frames were begun.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Presented returns how many frames wrote to and presented the display.
	//
	// Returns:
	//   - uint64: the presented frame count
	Presented() uint64

	// LiveSurfaces returns the number of offscreen surfaces not yet released.
	//
	// Returns:
	//   - int: the live surface count
	LiveSurfaces() int

	// Workers returns the number of band workers; zero after Release or when shading inline.
	Workers() int
}

var _ Backend = &backend{}

// NewBackend creates a software backend with a display of the given size.
//
// Parameters:
//   - width: display width in pixels
//   - height: display height in pixels
//   - options: functional options to configure the backend
//
// Returns:
//   - Backend: the new backend
func NewBackend(width, height int, options ...BackendBuilderOption) Backend {
	b := &backend{
		mu:          &sync.Mutex{},
		surfaces:    make(map[*surface]struct{}),
		programs:    make(map[string]renderer.Program),
		workers:     runtime.NumCPU(),
		bandHeight:  32,
		initialized: true,
	}

	for _, opt := range options {
		opt(b)
	}

	b.display = &surface{label: "display"}
	b.display.resize(width, height)
	if b.workers > 1 {
		b.startWorkers()
	}
	return b
}

func (b *backend) Initialized() bool {
	return b.initialized
}

func (b *backend) CreateSurface(label string, width, height int) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface %q: invalid size %dx%d", label, width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &surface{label: label}
	s.resize(width, height)
	b.surfaces[s] = struct{}{}
	return s, nil
}

func (b *backend) ReleaseSurface(s renderer.Surface) {
	ss, ok := s.(*surface)
	if !ok || ss == b.display {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ss.released = true
	delete(b.surfaces, ss)
}

func (b *backend) DisplaySurface() renderer.Surface {
	return b.display
}

func (b *backend) Display() *image.RGBA {
	return b.display.img
}

func (b *backend) Image(s renderer.Surface) *image.RGBA {
	ss, ok := s.(*surface)
	if !ok {
		return nil
	}
	return ss.img
}

func (b *backend) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", width, height)
	}
	b.display.resize(width, height)
	return nil
}

func (b *backend) SetPresentMode(mode renderer.PresentMode) {
	b.presentMode = mode
}

func (b *backend) LinkProgram(p renderer.Program, _ renderer.UniformLayout) error {
	switch p.(type) {
	case Shader, RowShader:
	default:
		return fmt.Errorf("%w: %q has no CPU shader", renderer.ErrUnsupportedProgram, p.Key())
	}
	b.mu.Lock()
	b.programs[p.Key()] = p
	b.mu.Unlock()
	return nil
}

func (b *backend) BeginFrame() error {
	if !b.initialized {
		return errors.New("software backend not initialized")
	}
	b.inFrame = true
	b.displayWritten = false
	b.frames++
	return nil
}

func (b *backend) SubmitPass(p renderer.Program, _ renderer.UniformLayout, inputs []renderer.Surface, target renderer.Surface, values renderer.UniformReader) error {
	if !b.initialized {
		return errors.New("software backend not initialized")
	}
	dst, ok := target.(*surface)
	if !ok {
		return fmt.Errorf("target %q: %w", target.Label(), errForeignSurface)
	}
	if dst.released {
		return fmt.Errorf("target %q was released", dst.label)
	}

	srcs := make([]*image.RGBA, len(inputs))
	for i, in := range inputs {
		s, ok := in.(*surface)
		if !ok {
			return fmt.Errorf("input %d: %w", i, errForeignSurface)
		}
		if s == dst {
			return fmt.Errorf("program %q reads and writes %q in the same pass", p.Key(), dst.label)
		}
		srcs[i] = s.img
	}

	var sub Submission
	if b.observer != nil {
		sub = Submission{Program: p.Key(), Target: dst.label, Inputs: make([]*image.RGBA, len(srcs))}
		for i, img := range srcs {
			sub.Inputs[i] = cloneRGBA(img)
		}
	}

	switch sh := p.(type) {
	case RowShader:
		b.shadeRows(sh, dst.img, srcs, values)
	case Shader:
		if err := sh.Shade(dst.img, srcs, values); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", renderer.ErrUnsupportedProgram, p.Key())
	}

	if dst == b.display {
		b.displayWritten = true
	}
	if b.observer != nil {
		sub.Output = cloneRGBA(dst.img)
		b.observer(sub)
	}
	return nil
}

// shadeRows splits the target into bands and shades them on the worker pool,
// waiting on a WaitGroup barrier before returning.
func (b *backend) shadeRows(sh RowShader, dst *image.RGBA, srcs []*image.RGBA, values renderer.UniformReader) {
	h := dst.Bounds().Dy()
	if b.pool == nil || h <= b.bandHeight {
		sh.ShadeRows(dst, srcs, values, 0, h)
		return
	}

	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += b.bandHeight {
		y1 := min(y0+b.bandHeight, h)
		wg.Add(1)
		lo, hi := y0, y1
		b.taskID++
		b.tasks <- worker.Task{
			ID: b.taskID,
			Do: func() (any, error) {
				defer wg.Done()
				sh.ShadeRows(dst, srcs, values, lo, hi)
				return nil, nil
			},
		}
	}
	wg.Wait()
}

func (b *backend) EndFrame() error {
	if !b.inFrame {
		return errors.New("EndFrame called without BeginFrame")
	}
	b.inFrame = false
	if b.displayWritten {
		b.presented++
		common.Logger().Debug("software frame presented", "frame", b.frames)
	}
	return nil
}

func (b *backend) Frames() uint64 {
	return b.frames
}

func (b *backend) Presented() uint64 {
	return b.presented
}

func (b *backend) LiveSurfaces() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.surfaces)
}

func (b *backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.surfaces {
		s.released = true
	}
	clear(b.surfaces)
	b.initialized = false
	b.stopWorkers()
}

// startWorkers launches the band workers. They share one task channel and exit when the
// stop channel is closed.
func (b *backend) startWorkers() {
	b.tasks = make(chan worker.Task, 256)
	b.stop = make(chan int)
	b.pool = make([]worker.Worker, 0, b.workers)
	for i := range b.workers {
		w := worker.NewWorker(i, b.tasks, b.stop, time.Second, nil)
		w.Start()
		b.pool = append(b.pool, w)
	}
	common.Logger().Debug("software workers started", "workers", b.workers)
}

// stopWorkers closes the stop channel so every worker returns. Safe to call twice.
func (b *backend) stopWorkers() {
	if b.pool == nil {
		return
	}
	close(b.stop)
	b.pool = nil
	b.tasks = nil
	b.stop = nil
}

// Workers returns the number of running band workers.
func (b *backend) Workers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pool)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
