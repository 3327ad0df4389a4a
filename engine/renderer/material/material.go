package material

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

var (
	// ErrNoMesh is returned when a material is compiled without geometry.
	ErrNoMesh = errors.New("material: no mesh")

	// ErrRendererNotReady is returned when a material is compiled against a missing or
	// uninitialized renderer.
	ErrRendererNotReady = errors.New("material: renderer not initialized")
)

// CompileContext is handed to before-compile hooks. Hooks may rewrite the sources, add
// injections and declare uniforms; the material compiles whatever the context holds once
// every hook has returned.
type CompileContext struct {
	// Name is the material name.
	Name string

	// Source is the annotated template, before injection.
	Source shader.Source

	// Injections are placed after their anchors once the hooks have run.
	Injections []shader.Injection

	uniforms *renderer.UniformSet
	declared []string
}

// Uniforms returns the renderer's shared uniform set.
func (c *CompileContext) Uniforms() *renderer.UniformSet {
	return c.uniforms
}

// AddUniform registers a scalar uniform on the shared set and adds it to the material's
// uniform block. An already registered uniform keeps its current value.
//
// Parameters:
//   - name: the uniform name as referenced by injected source
//   - value: the initial value
//
// Returns:
//   - *renderer.Uniform: the registered uniform
func (c *CompileContext) AddUniform(name string, value float32) *renderer.Uniform {
	u := c.uniforms.RegisterFloat(name, value)
	c.declare(name)
	return u
}

// AddVectorUniform registers a vec4 uniform on the shared set and adds it to the material's
// uniform block.
//
// Parameters:
//   - name: the uniform name
//   - value: the initial value, applied only when the uniform is newly registered
//
// Returns:
//   - *renderer.Uniform: the registered uniform
func (c *CompileContext) AddVectorUniform(name string, value [4]float32) *renderer.Uniform {
	existed := c.uniforms.Has(name)
	u := c.uniforms.Register(name, renderer.UniformVec4)
	if !existed {
		u.SetVec4(value)
	}
	c.declare(name)
	return u
}

// Inject queues a fragment to place after the named anchor.
//
// Parameters:
//   - anchor: the anchor name
//   - source: the WGSL fragment
func (c *CompileContext) Inject(anchor, source string) {
	c.Injections = append(c.Injections, shader.Injection{Anchor: anchor, Source: source})
}

func (c *CompileContext) declare(name string) {
	for _, n := range c.declared {
		if n == name {
			return
		}
	}
	c.declared = append(c.declared, name)
}

// CompileHook customizes a material before its sources are injected and linked.
type CompileHook func(ctx *CompileContext) error

// ShadeFunc shades rows [y0, y1) of dst. It stands in for the WGSL stages on the
// software backend.
type ShadeFunc func(dst *image.RGBA, u renderer.UniformReader, y0, y1 int)

type customUniform struct {
	name  string
	kind  renderer.UniformKind
	value [4]float32
}

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name       string
	template   shader.Source
	injections []shader.Injection
	uniforms   []customUniform
	hooks      []CompileHook
	injector   shader.Injector
	validator  shader.Validator
	shade      ShadeFunc
	mesh       renderer.Geometry

	roughness float32
	metalness float32
	wireframe bool

	once     sync.Once
	compiled bool
	program  renderer.Program
	source   shader.Source
	err      error
}

// Material is a lit surface program built from an annotated template. Custom source is
// injected at the template's anchors when the material is compiled, which happens at most
// once per instance.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Key returns the key the compiled program is registered under.
	//
	// Returns:
	//   - string: the program key
	Key() string

	// OnBeforeCompile appends a hook run once, in registration order, when the material
	// compiles. Hooks added after compilation never run.
	//
	// Parameters:
	//   - hook: the hook to run
	OnBeforeCompile(hook CompileHook)

	// Compile registers the material's uniforms on r, runs the before-compile hooks, injects
	// and validates the sources and registers the resulting program with r. Only the first
	// call does any work; later calls return the same program and error.
	//
	// Parameters:
	//   - r: the renderer to register uniforms and the program with
	//
	// Returns:
	//   - renderer.Program: the registered program
	//   - error: an error if any step failed
	Compile(r renderer.Renderer) (renderer.Program, error)

	// Compiled reports whether Compile has run, successfully or not.
	Compiled() bool

	// Program returns the compiled program, or nil before a successful Compile.
	Program() renderer.Program

	// Source returns the injected sources, empty before a successful Compile.
	Source() shader.Source

	// Mesh returns the geometry the material draws.
	Mesh() renderer.Geometry

	// Roughness retrieves the roughness factor in [0, 1].
	Roughness() float32

	// SetRoughness sets the roughness factor, clamped to [0, 1].
	SetRoughness(v float32)

	// Metalness retrieves the metalness factor in [0, 1].
	Metalness() float32

	// SetMetalness sets the metalness factor, clamped to [0, 1].
	SetMetalness(v float32)

	// Wireframe reports whether the mesh is drawn as triangle edges.
	Wireframe() bool

	// SetWireframe switches wireframe drawing. Takes effect on the next submission.
	SetWireframe(enabled bool)
}

var _ Material = &material{}

// NewMaterial creates a new Material using the standard template unless WithTemplate says
// otherwise.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:       &sync.Mutex{},
		name:     "standard",
		template: shader.StandardTemplate(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.injector == nil {
		m.injector = shader.NewInjector()
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Key() string {
	return "material:" + m.name
}

func (m *material) OnBeforeCompile(hook CompileHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.compiled {
		common.Logger().Warn("before-compile hook added after compilation", "material", m.name)
		return
	}
	m.hooks = append(m.hooks, hook)
}

func (m *material) Compile(r renderer.Renderer) (renderer.Program, error) {
	m.once.Do(func() {
		program, source, err := m.compile(r)

		m.mu.Lock()
		m.compiled = true
		m.program, m.source, m.err = program, source, err
		m.mu.Unlock()

		if err != nil {
			common.Logger().Error("material compile failed", "material", m.name, "error", err)
			return
		}
		common.Logger().Info("material compiled", "material", m.name, "key", m.Key())
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.program, m.err
}

func (m *material) compile(r renderer.Renderer) (renderer.Program, shader.Source, error) {
	if r == nil || !r.Initialized() {
		return nil, shader.Source{}, ErrRendererNotReady
	}
	if m.mesh == nil {
		return nil, shader.Source{}, fmt.Errorf("%w: %q", ErrNoMesh, m.name)
	}

	m.mu.Lock()
	hooks := append([]CompileHook(nil), m.hooks...)
	m.mu.Unlock()

	ctx := &CompileContext{
		Name:       m.name,
		Source:     m.template,
		Injections: append([]shader.Injection(nil), m.injections...),
		uniforms:   r.Uniforms(),
	}
	registerStandardUniforms(ctx)
	for _, u := range m.uniforms {
		if u.kind == renderer.UniformVec4 {
			ctx.AddVectorUniform(u.name, u.value)
		} else {
			ctx.AddUniform(u.name, u.value[0])
		}
	}

	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			return nil, shader.Source{}, fmt.Errorf("material %q: before-compile hook %d: %w", m.name, i, err)
		}
	}

	source, err := m.injector.Apply(ctx.Source, ctx.Injections)
	if err != nil {
		return nil, shader.Source{}, fmt.Errorf("material %q: %w", m.name, err)
	}

	base := &program{
		ProgramInfo: renderer.ProgramInfo{
			Name:           m.Key(),
			UniformNames:   ctx.declared,
			ParameterNames: []string{shader.ParamRoughness, shader.ParamMetalness},
		},
		material: m,
		vertex:   source.Vertex,
		fragment: source.Fragment,
	}
	var p renderer.Program = base
	if m.shade != nil {
		p = &softwareProgram{program: base}
	}

	if m.validator != nil {
		layout, err := renderer.NewUniformLayout(p, ctx.uniforms)
		if err != nil {
			return nil, shader.Source{}, fmt.Errorf("material %q: %w", m.name, err)
		}
		module, _ := renderer.WGSLModule(p, layout)
		if err := m.validator.Validate(m.Key(), module); err != nil {
			return nil, shader.Source{}, err
		}
	}

	if err := r.RegisterPrograms(p); err != nil {
		return nil, shader.Source{}, fmt.Errorf("material %q: %w", m.name, err)
	}
	return p, source, nil
}

func (m *material) Compiled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compiled
}

func (m *material) Program() renderer.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.program
}

func (m *material) Source() shader.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *material) Mesh() renderer.Geometry {
	return m.mesh
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) SetRoughness(v float32) {
	m.roughness = common.Clamp01(v)
}

func (m *material) Metalness() float32 {
	return m.metalness
}

func (m *material) SetMetalness(v float32) {
	m.metalness = common.Clamp01(v)
}

func (m *material) Wireframe() bool {
	return m.wireframe
}

func (m *material) SetWireframe(enabled bool) {
	m.wireframe = enabled
}

// registerStandardUniforms declares the uniforms the standard template reads. The light
// defaults are a blue directional key light and a blue ambient fill.
func registerStandardUniforms(ctx *CompileContext) {
	vp := ctx.uniforms.Has(shader.UniformViewProjection)
	u := ctx.uniforms.Register(shader.UniformViewProjection, renderer.UniformMat4)
	if !vp {
		u.SetMat4(identity)
	}
	ctx.declare(shader.UniformViewProjection)

	ctx.AddVectorUniform(shader.UniformCameraPosition, [4]float32{0, 0, 3, 1})
	ctx.AddVectorUniform(shader.UniformLightDirection, [4]float32{2, 2, 2, 0})
	ctx.AddVectorUniform(shader.UniformLightColor, [4]float32{0x52 / 255.0, 0x6c / 255.0, 1, 2})
	ctx.AddVectorUniform(shader.UniformAmbientColor, [4]float32{0x42 / 255.0, 0x55 / 255.0, 1, 0.6})
}

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// program is the compiled form of a material.
type program struct {
	renderer.ProgramInfo
	material *material
	vertex   string
	fragment string
}

var (
	_ renderer.Geometry        = &program{}
	_ renderer.Wireframe       = &program{}
	_ renderer.ParameterSource = &program{}
	_ renderer.VertexProgram   = &program{}
	_ renderer.FragmentProgram = &program{}
)

func (p *program) VertexWGSL() string   { return p.vertex }
func (p *program) FragmentWGSL() string { return p.fragment }
func (p *program) Vertices() []float32  { return p.material.mesh.Vertices() }
func (p *program) Indices() []uint32    { return p.material.mesh.Indices() }
func (p *program) Wireframe() bool      { return p.material.wireframe }

func (p *program) ParameterValues() renderer.Values {
	return renderer.Values{
		shader.ParamRoughness: p.material.roughness,
		shader.ParamMetalness: p.material.metalness,
	}
}

// softwareProgram adds the CPU stand-in to a compiled material.
type softwareProgram struct {
	*program
}

func (p *softwareProgram) ShadeRows(dst *image.RGBA, _ []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	p.material.shade(dst, u, y0, y1)
}
