package material_test

import (
	"errors"
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/model"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const displace = "    transformed = transformed + object_normal * oxy_noise3(transformed + vec3<f32>(params.uTime)) * 0.1;"

// paramShader writes roughness, metalness and uTime into the red, green and blue channels.
func paramShader(dst *image.RGBA, u renderer.UniformReader, y0, y1 int) {
	c := software.RGBA{renderer.Float(u, shader.ParamRoughness), renderer.Float(u, shader.ParamMetalness), renderer.Float(u, "uTime"), 1}
	for y := y0; y < y1; y++ {
		for x := range dst.Bounds().Dx() {
			software.Put(dst, x, y, c)
		}
	}
}

func newRenderer(t *testing.T) (renderer.Renderer, software.Backend) {
	t.Helper()
	b := software.NewBackend(2, 2, software.WithWorkers(1))
	return renderer.NewRenderer(b), b
}

func newMaterial(options ...material.MaterialBuilderOption) material.Material {
	base := []material.MaterialBuilderOption{
		material.WithName("ico"),
		material.WithMesh(model.Icosahedron(1, 1)),
		material.WithSoftwareShader(paramShader),
	}
	return material.NewMaterial(append(base, options...)...)
}

func TestCompile_RunsOnce(t *testing.T) {
	r, _ := newRenderer(t)
	hooks := 0
	m := newMaterial(material.WithOnBeforeCompile(func(ctx *material.CompileContext) error {
		hooks++
		ctx.AddUniform("uTime", 0)
		ctx.Inject(shader.AnchorDisplacementParsVertex, "//@oxy:include noise")
		ctx.Inject(shader.AnchorDisplacementVertex, displace)
		return nil
	}))
	assert.False(t, m.Compiled())
	assert.Nil(t, m.Program())

	p1, err := m.Compile(r)
	require.NoError(t, err)
	p2, err := m.Compile(r)
	require.NoError(t, err)

	assert.Equal(t, 1, hooks)
	assert.Same(t, p1, p2)
	assert.True(t, m.Compiled())
	assert.Equal(t, "material:ico", p1.Key())
	assert.NotNil(t, r.Program("material:ico"))

	src := m.Source()
	assert.Contains(t, src.Vertex, shader.Marker(shader.AnchorDisplacementVertex)+"\n"+displace)
	assert.Contains(t, src.Vertex, "fn oxy_noise3(")
}

func TestCompile_RegistersUniformsBeforeLink(t *testing.T) {
	r, _ := newRenderer(t)
	m := newMaterial(
		material.WithUniform("uTime", 0.25),
		material.WithVectorUniform("uTint", [4]float32{1, 0, 0, 1}),
	)

	p, err := m.Compile(r)
	require.NoError(t, err)

	assert.True(t, r.Uniforms().Has("uTime"))
	assert.Equal(t, float32(0.25), r.Uniforms().Uniform("uTime").Float())
	assert.Equal(t, renderer.UniformVec4, r.Uniforms().Uniform("uTint").Kind())
	for _, name := range []string{
		shader.UniformViewProjection,
		shader.UniformCameraPosition,
		shader.UniformLightDirection,
		shader.UniformLightColor,
		shader.UniformAmbientColor,
		"uTime",
		"uTint",
	} {
		assert.Contains(t, p.Uniforms(), name)
		assert.True(t, r.Uniforms().Has(name), name)
	}
	assert.Equal(t, []string{shader.ParamRoughness, shader.ParamMetalness}, p.Parameters())

	// an existing value is not reset by a second material
	r.Uniforms().Uniform("uTime").Set(7)
	other := newMaterial(material.WithName("other"), material.WithUniform("uTime", 0))
	_, err = other.Compile(r)
	require.NoError(t, err)
	assert.Equal(t, float32(7), r.Uniforms().Uniform("uTime").Float())
}

func TestCompile_MissingAnchorFailsLoudly(t *testing.T) {
	r, _ := newRenderer(t)
	hooks := 0
	tpl := shader.Source{
		Vertex:   shader.StandardTemplate().Vertex,
		Fragment: "@fragment\nfn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {\n    return vec4<f32>(1.0);\n}\n",
	}
	m := newMaterial(
		material.WithTemplate(tpl),
		material.WithInjection(shader.AnchorNormalFragmentMaps, "normal = -normal;"),
		material.WithOnBeforeCompile(func(*material.CompileContext) error {
			hooks++
			return nil
		}),
	)

	_, err := m.Compile(r)
	require.ErrorIs(t, err, shader.ErrAnchorNotFound)
	assert.Contains(t, err.Error(), shader.AnchorNormalFragmentMaps)
	assert.Contains(t, err.Error(), "fragment stage")
	assert.Nil(t, r.Program(m.Key()))

	_, again := m.Compile(r)
	assert.Same(t, err, again)
	assert.Equal(t, 1, hooks)
	assert.True(t, m.Compiled())
}

func TestCompile_Errors(t *testing.T) {
	t.Run("nil renderer", func(t *testing.T) {
		_, err := newMaterial().Compile(nil)
		assert.ErrorIs(t, err, material.ErrRendererNotReady)
	})

	t.Run("uninitialized renderer", func(t *testing.T) {
		r := renderer.NewRenderer(software.NewBackend(1, 1, software.WithUninitialized()))
		_, err := newMaterial().Compile(r)
		assert.ErrorIs(t, err, material.ErrRendererNotReady)
	})

	t.Run("no mesh", func(t *testing.T) {
		r, _ := newRenderer(t)
		_, err := material.NewMaterial().Compile(r)
		assert.ErrorIs(t, err, material.ErrNoMesh)
	})

	t.Run("no software shader", func(t *testing.T) {
		r, _ := newRenderer(t)
		m := material.NewMaterial(material.WithMesh(model.Icosahedron(1, 0)))
		_, err := m.Compile(r)
		assert.ErrorIs(t, err, renderer.ErrUnsupportedProgram)
	})

	t.Run("hook error", func(t *testing.T) {
		r, _ := newRenderer(t)
		boom := errors.New("boom")
		m := newMaterial(material.WithOnBeforeCompile(func(*material.CompileContext) error { return boom }))
		_, err := m.Compile(r)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCompile_Validator(t *testing.T) {
	r, _ := newRenderer(t)
	var module string
	m := newMaterial(
		material.WithUniform("uTime", 0),
		material.WithInjection(shader.AnchorColorFragment, "    diffuse_color = vec4<f32>(params.uTime, 0.0, 1.0, 1.0);"),
		material.WithValidator(shader.ValidatorFunc(func(label, source string) error {
			module = source
			return nil
		})),
	)
	_, err := m.Compile(r)
	require.NoError(t, err)
	assert.Contains(t, module, "struct Params {")
	assert.Contains(t, module, "uTime: f32,")
	assert.Contains(t, module, "fn vs_main(in: VertexInput)")
	assert.Contains(t, module, "diffuse_color = vec4<f32>(params.uTime, 0.0, 1.0, 1.0);")

	rejected := newMaterial(
		material.WithName("rejected"),
		material.WithValidator(shader.ValidatorFunc(func(string, string) error { return shader.ErrInvalidShader })),
	)
	_, err = rejected.Compile(r)
	assert.ErrorIs(t, err, shader.ErrInvalidShader)
	assert.Nil(t, r.Program(rejected.Key()))
}

func TestMaterial_ParametersReachTheProgram(t *testing.T) {
	r, b := newRenderer(t)
	m := newMaterial(material.WithUniform("uTime", 1), material.WithRoughness(2), material.WithMetalness(-1))
	assert.Equal(t, float32(1), m.Roughness())
	assert.Equal(t, float32(0), m.Metalness())

	_, err := m.Compile(r)
	require.NoError(t, err)

	render := func() {
		t.Helper()
		require.NoError(t, r.BeginFrame())
		require.NoError(t, r.SubmitPass(m.Key(), nil, r.DisplaySurface(), nil))
		require.NoError(t, r.EndFrame())
	}

	render()
	px := b.Display().RGBAAt(0, 0)
	assert.Equal(t, uint8(255), px.R)
	assert.Equal(t, uint8(0), px.G)
	assert.Equal(t, uint8(255), px.B)

	m.SetRoughness(0)
	m.SetMetalness(0.5)
	r.Uniforms().Uniform("uTime").Set(0)
	render()
	px = b.Display().RGBAAt(1, 1)
	assert.Equal(t, uint8(0), px.R)
	assert.Equal(t, uint8(128), px.G)
	assert.Equal(t, uint8(0), px.B)

	// submission values win over the material's own
	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.SubmitPass(m.Key(), nil, r.DisplaySurface(), renderer.Values{shader.ParamRoughness: 1}))
	require.NoError(t, r.EndFrame())
	assert.Equal(t, uint8(255), b.Display().RGBAAt(0, 0).R)
}

func TestMaterial_WireframeAndGeometry(t *testing.T) {
	r, _ := newRenderer(t)
	mesh := model.Icosahedron(1, 0)
	m := newMaterial(material.WithMesh(mesh), material.WithWireframe(true))
	p, err := m.Compile(r)
	require.NoError(t, err)

	wf, ok := p.(renderer.Wireframe)
	require.True(t, ok)
	assert.True(t, wf.Wireframe())
	m.SetWireframe(false)
	assert.False(t, wf.Wireframe())

	g, ok := p.(renderer.Geometry)
	require.True(t, ok)
	assert.Equal(t, mesh.Indices(), g.Indices())
	assert.Len(t, g.Vertices(), 60*6)
	assert.Same(t, mesh, m.Mesh())

	_, isVertex := p.(renderer.VertexProgram)
	assert.True(t, isVertex)
}

func TestOnBeforeCompile_AfterCompileIgnored(t *testing.T) {
	r, _ := newRenderer(t)
	m := newMaterial()
	_, err := m.Compile(r)
	require.NoError(t, err)

	ran := false
	m.OnBeforeCompile(func(*material.CompileContext) error {
		ran = true
		return nil
	})
	_, err = m.Compile(r)
	require.NoError(t, err)
	assert.False(t, ran)
}
