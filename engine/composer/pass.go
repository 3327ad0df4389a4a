package composer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

// PassContext carries what a pass needs while rendering one frame.
type PassContext struct {
	// Renderer submits the pass work.
	Renderer renderer.Renderer

	// Display is the surface the terminal pass writes.
	Display renderer.Surface

	inputs   map[string]renderer.Surface
	feedback map[string]*FeedbackBuffer
}

// Input returns the resolved surface for a named input, or nil.
func (c *PassContext) Input(name string) renderer.Surface {
	return c.inputs[name]
}

// Feedback returns a feedback buffer by name, or nil.
func (c *PassContext) Feedback(name string) *FeedbackBuffer {
	return c.feedback[name]
}

// Pass is one step of the pass graph.
type Pass interface {
	// Name returns the unique pass name within a composer.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// Inputs returns the pass inputs and their sources.
	//
	// Returns:
	//   - []Input: the declared inputs, in program binding order
	Inputs() []Input

	// Terminal reports whether this pass writes the display.
	//
	// Returns:
	//   - bool: true for the terminal pass
	Terminal() bool

	// Enabled reports whether the pass runs. A disabled pass is skipped and
	// the previous output flows past it.
	//
	// Returns:
	//   - bool: true if the pass runs
	Enabled() bool

	// SetEnabled toggles the pass.
	//
	// Parameters:
	//   - enabled: whether the pass runs
	SetEnabled(enabled bool)

	// SetSize (re)allocates the pass-owned targets at the given size.
	//
	// Parameters:
	//   - r: the renderer owning the surfaces
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - error: an error if a target could not be allocated
	SetSize(r renderer.Renderer, width, height int) error

	// Render executes the pass and returns its output surface.
	//
	// Parameters:
	//   - ctx: the frame's pass context with resolved inputs
	//
	// Returns:
	//   - renderer.Surface: the output handed to later passes
	//   - error: a submission error
	Render(ctx *PassContext) (renderer.Surface, error)

	// Release frees the pass-owned targets.
	//
	// Parameters:
	//   - r: the renderer owning the surfaces
	Release(r renderer.Renderer)
}

// ProgramProvider is implemented by passes that bring their own programs. The composer
// links them when the pass is added.
type ProgramProvider interface {
	Programs() []renderer.Program
}

// Targeted is implemented by passes that render into a target they own.
type Targeted interface {
	Targets() []renderer.Surface
}

// FeedbackWriter is implemented by passes that write a feedback buffer. Only such passes
// may follow the terminal pass.
type FeedbackWriter interface {
	FeedbackTarget() string
}

// ShaderPass submits one program into a target it owns.
type ShaderPass struct {
	name     string
	program  renderer.Program
	inputs   []Input
	values   renderer.Values
	enabled  bool
	terminal bool

	target renderer.Surface
}

var _ Pass = &ShaderPass{}

func newShaderPass(name string, program renderer.Program, inputs []Input, values renderer.Values) *ShaderPass {
	if values == nil {
		values = renderer.Values{}
	}
	return &ShaderPass{
		name:    name,
		program: program,
		inputs:  inputs,
		values:  values,
		enabled: true,
	}
}

// NewShaderPass creates a stateless full-screen pass running program over the given inputs.
// Input names must match program.Inputs().
//
// Parameters:
//   - name: unique pass name
//   - program: the program to run
//   - inputs: the inputs and their sources
//   - values: initial per-submission parameters (may be nil)
//
// Returns:
//   - *ShaderPass: the new pass
func NewShaderPass(name string, program renderer.Program, inputs []Input, values renderer.Values) *ShaderPass {
	return newShaderPass(name, program, inputs, values)
}

// NewRenderPass creates the pass that renders the scene program with no inputs.
//
// Parameters:
//   - name: unique pass name
//   - program: the scene program (usually a compiled material)
//
// Returns:
//   - *ShaderPass: the new pass
func NewRenderPass(name string, program renderer.Program) *ShaderPass {
	return newShaderPass(name, program, nil, nil)
}

// NewCopyPass creates the terminal pass that copies its input to the display.
//
// Parameters:
//   - name: unique pass name
//
// Returns:
//   - *ShaderPass: the new terminal pass
func NewCopyPass(name string) *ShaderPass {
	p := newShaderPass(name, CopyProgram, []Input{{Name: "source", From: FromPrevious()}}, nil)
	p.terminal = true
	return p
}

func (p *ShaderPass) Name() string            { return p.name }
func (p *ShaderPass) Inputs() []Input         { return p.inputs }
func (p *ShaderPass) Terminal() bool          { return p.terminal }
func (p *ShaderPass) Enabled() bool           { return p.enabled }
func (p *ShaderPass) SetEnabled(enabled bool) { p.enabled = enabled }

func (p *ShaderPass) Programs() []renderer.Program {
	return []renderer.Program{p.program}
}

func (p *ShaderPass) Targets() []renderer.Surface {
	if p.target == nil {
		return nil
	}
	return []renderer.Surface{p.target}
}

// SetParam sets a per-submission parameter read by the program.
func (p *ShaderPass) SetParam(name string, v float32) {
	p.values[name] = v
}

// Param returns a per-submission parameter.
func (p *ShaderPass) Param(name string) float32 {
	return p.values[name]
}

func (p *ShaderPass) SetSize(r renderer.Renderer, width, height int) error {
	if p.terminal {
		return nil
	}
	if p.target != nil {
		r.ReleaseSurface(p.target)
		p.target = nil
	}
	target, err := r.CreateSurface(p.name, width, height)
	if err != nil {
		return fmt.Errorf("pass %q: %w", p.name, err)
	}
	p.target = target
	return nil
}

func (p *ShaderPass) Render(ctx *PassContext) (renderer.Surface, error) {
	target := p.target
	if p.terminal {
		target = ctx.Display
	}
	if target == nil {
		return nil, fmt.Errorf("pass %q has no target; SetSize was not called", p.name)
	}

	inputs := make([]renderer.Surface, len(p.inputs))
	for i, in := range p.inputs {
		inputs[i] = ctx.Input(in.Name)
	}
	if err := ctx.Renderer.SubmitPass(p.program.Key(), inputs, target, p.values); err != nil {
		return nil, err
	}
	return target, nil
}

func (p *ShaderPass) Release(r renderer.Renderer) {
	if p.target != nil {
		r.ReleaseSurface(p.target)
		p.target = nil
	}
}
