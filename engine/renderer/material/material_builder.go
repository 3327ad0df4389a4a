package material

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material. The program key is
// derived from it, so names must be unique per renderer.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTemplate replaces the standard template. The template must declare every anchor its
// injections target and read the standard uniforms only if it wants them.
//
// Parameters:
//   - src: the annotated template
//
// Returns:
//   - MaterialBuilderOption: a function that applies the template option to a material
func WithTemplate(src shader.Source) MaterialBuilderOption {
	return func(m *material) {
		m.template = src
	}
}

// WithInjection queues a fragment to place after the named anchor at compile time.
// Repeated injections for one anchor keep their order.
//
// Parameters:
//   - anchor: the anchor name
//   - source: the WGSL fragment
//
// Returns:
//   - MaterialBuilderOption: a function that applies the injection option to a material
func WithInjection(anchor, source string) MaterialBuilderOption {
	return func(m *material) {
		m.injections = append(m.injections, shader.Injection{Anchor: anchor, Source: source})
	}
}

// WithUniform declares a custom scalar uniform registered on the renderer before the
// material links.
//
// Parameters:
//   - name: the uniform name
//   - value: the initial value
//
// Returns:
//   - MaterialBuilderOption: a function that applies the uniform option to a material
func WithUniform(name string, value float32) MaterialBuilderOption {
	return func(m *material) {
		m.uniforms = append(m.uniforms, customUniform{name: name, kind: renderer.UniformFloat, value: [4]float32{value}})
	}
}

// WithVectorUniform declares a custom vec4 uniform registered on the renderer before the
// material links.
//
// Parameters:
//   - name: the uniform name
//   - value: the initial value
//
// Returns:
//   - MaterialBuilderOption: a function that applies the uniform option to a material
func WithVectorUniform(name string, value [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.uniforms = append(m.uniforms, customUniform{name: name, kind: renderer.UniformVec4, value: value})
	}
}

// WithOnBeforeCompile adds a before-compile hook.
func WithOnBeforeCompile(hook CompileHook) MaterialBuilderOption {
	return func(m *material) {
		m.hooks = append(m.hooks, hook)
	}
}

// WithInjector sets the injector used at compile time, for templates that include custom chunks.
func WithInjector(inj shader.Injector) MaterialBuilderOption {
	return func(m *material) {
		m.injector = inj
	}
}

// WithValidator sets a validator run over the complete module before it is registered.
//
// Parameters:
//   - v: the validator, such as shader.NewNagaValidator()
//
// Returns:
//   - MaterialBuilderOption: a function that applies the validator option to a material
func WithValidator(v shader.Validator) MaterialBuilderOption {
	return func(m *material) {
		m.validator = v
	}
}

// WithSoftwareShader gives the compiled program a CPU stand-in so it can run on the
// software backend.
//
// Parameters:
//   - fn: the row shading function
//
// Returns:
//   - MaterialBuilderOption: a function that applies the software shader option to a material
func WithSoftwareShader(fn ShadeFunc) MaterialBuilderOption {
	return func(m *material) {
		m.shade = fn
	}
}

// WithMesh sets the geometry the material draws.
func WithMesh(mesh renderer.Geometry) MaterialBuilderOption {
	return func(m *material) {
		m.mesh = mesh
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Clamp01(roughness)
	}
}

// WithMetalness is an option builder that sets the metalness factor of the material.
//
// Parameters:
//   - metalness: the metalness factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metalness option to a material
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *material) {
		m.metalness = common.Clamp01(metalness)
	}
}

// WithWireframe is an option builder that starts the material in wireframe mode.
func WithWireframe(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.wireframe = enabled
	}
}
