package renderer

// Surface is a render target owned by a backend: an offscreen texture or the display.
type Surface interface {
	// Label returns the debug label given at creation.
	Label() string

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int
}

// Program is a linked shading program a pass submits against. Backends discover what they
// can run through optional interfaces (a CPU shade function, WGSL sources, geometry).
type Program interface {
	// Key returns the unique identifier used to cache the program.
	Key() string

	// Inputs returns the names of the textures the program samples, in binding order.
	Inputs() []string

	// Uniforms returns the shared uniforms the program references. Each must be registered
	// on the renderer's UniformSet before the program links.
	Uniforms() []string

	// Parameters returns the per-submission scalar values the program reads.
	Parameters() []string
}

// Geometry is implemented by programs that draw a mesh instead of a full-screen triangle.
// Vertices are interleaved position (xyz) and normal (xyz) floats.
type Geometry interface {
	Vertices() []float32
	Indices() []uint32
}

// ProgramInfo carries the descriptive half of a Program. Concrete programs embed it.
type ProgramInfo struct {
	Name           string
	InputNames     []string
	UniformNames   []string
	ParameterNames []string
}

func (p ProgramInfo) Key() string          { return p.Name }
func (p ProgramInfo) Inputs() []string     { return p.InputNames }
func (p ProgramInfo) Uniforms() []string   { return p.UniformNames }
func (p ProgramInfo) Parameters() []string { return p.ParameterNames }

// FragmentProgram is implemented by programs that carry a WGSL fragment stage with an fs_main entry point.
type FragmentProgram interface {
	FragmentWGSL() string
}

// VertexProgram is implemented by programs that carry their own WGSL vertex stage with a
// vs_main entry point. Programs without one are drawn as a full-screen triangle.
type VertexProgram interface {
	VertexWGSL() string
}

// Wireframe is implemented by geometry programs that can switch to drawing triangle edges.
// It is read on every submission, so the mode may change between frames.
type Wireframe interface {
	Wireframe() bool
}

// LineIndices expands a triangle list into the edge list drawn in wireframe mode.
//
// Parameters:
//   - triangles: the triangle list indices
//
// Returns:
//   - []uint32: two indices per edge, three edges per triangle
func LineIndices(triangles []uint32) []uint32 {
	out := make([]uint32, 0, len(triangles)*2)
	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		out = append(out, a, b, b, c, c, a)
	}
	return out
}

// ParameterSource is implemented by programs that carry their own parameter values, such as
// a material's roughness. Values supplied with a submission take precedence.
type ParameterSource interface {
	ParameterValues() Values
}
