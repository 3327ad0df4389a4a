package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithUniforms replaces the renderer's shared uniform registry, letting several components
// register uniforms before the renderer exists.
//
// Parameters:
//   - set: the registry to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the uniforms option to a renderer
func WithUniforms(set *UniformSet) RendererBuilderOption {
	return func(r *renderer) {
		if set != nil {
			r.uniforms = set
		}
	}
}

// WithProgram links a program during construction. Construction panics if linking fails,
// so every shared uniform the program references must already be registered.
//
// Parameters:
//   - p: the program to link
//
// Returns:
//   - RendererBuilderOption: a function that applies the program option to a renderer
func WithProgram(p Program) RendererBuilderOption {
	return func(r *renderer) {
		r.pending = append(r.pending, p)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		if r.backend != nil {
			r.backend.SetPresentMode(mode)
		}
	}
}
