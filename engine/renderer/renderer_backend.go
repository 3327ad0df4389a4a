package renderer

import "errors"

var (
	// ErrProgramNotFound is returned when a pass submits against a key that was never registered.
	ErrProgramNotFound = errors.New("program not found")

	// ErrUniformNotRegistered is returned at link time when a program references a shared
	// uniform missing from the renderer's UniformSet.
	ErrUniformNotRegistered = errors.New("uniform not registered")

	// ErrUnsupportedProgram is returned by a backend that has no way to run a program.
	ErrUnsupportedProgram = errors.New("program not supported by backend")

	// ErrNoBackend is returned by renderer operations when no backend was supplied.
	ErrNoBackend = errors.New("renderer has no backend")
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the host rendering backend the Renderer drives. Implementations live in
// the software and webgpu sub-packages.
type RendererBackend interface {
	// Initialized reports whether the backend acquired everything it needs to render.
	//
	// Returns:
	//   - bool: true once the backend can accept submissions
	Initialized() bool

	// CreateSurface allocates an offscreen render target.
	//
	// Parameters:
	//   - label: debug label for the target
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - Surface: the new target
	//   - error: an error if allocation fails
	CreateSurface(label string, width, height int) (Surface, error)

	// ReleaseSurface frees a target created by CreateSurface. Releasing nil is a no-op.
	//
	// Parameters:
	//   - s: the surface to release
	ReleaseSurface(s Surface)

	// DisplaySurface returns the surface that is shown to the user.
	//
	// Returns:
	//   - Surface: the display target
	DisplaySurface() Surface

	// Resize reconfigures the display surface.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if reconfiguration fails
	Resize(width, height int) error

	// SetPresentMode selects how frames reach the display. Takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// LinkProgram prepares backend resources for a program.
	//
	// Parameters:
	//   - p: the program to link
	//   - layout: the program's packed uniform layout
	//
	// Returns:
	//   - error: ErrUnsupportedProgram or a backend compile/link error
	LinkProgram(p Program, layout UniformLayout) error

	// BeginFrame starts recording a frame.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// SubmitPass runs one linked program, sampling inputs and writing target.
	//
	// Parameters:
	//   - p: the linked program
	//   - layout: the program's packed uniform layout
	//   - inputs: input surfaces in the order of p.Inputs()
	//   - target: the surface to write
	//   - values: uniform and parameter values for this submission
	//
	// Returns:
	//   - error: an error if the submission failed
	SubmitPass(p Program, layout UniformLayout, inputs []Surface, target Surface, values UniformReader) error

	// EndFrame finishes the frame and presents the display surface if it was written.
	//
	// Returns:
	//   - error: an error if submission or presentation failed
	EndFrame() error

	// Release frees every backend resource.
	Release()
}
