package renderer_test

import (
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fillProgram struct{ renderer.ProgramInfo }

func (fillProgram) ShadeRows(dst *image.RGBA, _ []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	c := software.RGBA{renderer.Float(u, "uTime"), renderer.Float(u, "gain"), 0, 1}
	for y := y0; y < y1; y++ {
		for x := range dst.Bounds().Dx() {
			software.Put(dst, x, y, c)
		}
	}
}

func (fillProgram) FragmentWGSL() string {
	return "@fragment\nfn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {\n    return vec4<f32>(params.uTime, params.gain, 0.0, 1.0);\n}\n"
}

var fill = fillProgram{renderer.ProgramInfo{
	Name:           "fill",
	UniformNames:   []string{"uTime"},
	ParameterNames: []string{"gain"},
}}

// descriptiveProgram has no way to run on any backend.
type descriptiveProgram struct{ renderer.ProgramInfo }

func newRenderer(t *testing.T) (renderer.Renderer, software.Backend) {
	t.Helper()
	b := software.NewBackend(4, 4, software.WithWorkers(1))
	return renderer.NewRenderer(b), b
}

func TestRegisterPrograms_RequiresRegisteredUniforms(t *testing.T) {
	r, _ := newRenderer(t)

	err := r.RegisterPrograms(fill)
	require.ErrorIs(t, err, renderer.ErrUniformNotRegistered)
	assert.Contains(t, err.Error(), "uTime")
	assert.Nil(t, r.Program("fill"))

	r.Uniforms().RegisterFloat("uTime", 0)
	require.NoError(t, r.RegisterPrograms(fill))
	assert.NotNil(t, r.Program("fill"))
	assert.Equal(t, []string{"fill"}, r.Programs())

	// second registration is skipped
	require.NoError(t, r.RegisterPrograms(fill))
	assert.Len(t, r.Programs(), 1)
}

func TestRegisterPrograms_UnsupportedProgram(t *testing.T) {
	r, _ := newRenderer(t)
	err := r.RegisterPrograms(descriptiveProgram{renderer.ProgramInfo{Name: "nothing"}})
	assert.ErrorIs(t, err, renderer.ErrUnsupportedProgram)
}

func TestSubmitPass(t *testing.T) {
	r, b := newRenderer(t)
	r.Uniforms().RegisterFloat("uTime", 0.5)
	require.NoError(t, r.RegisterPrograms(fill))

	t.Run("unknown program", func(t *testing.T) {
		err := r.SubmitPass("missing", nil, r.DisplaySurface(), nil)
		assert.ErrorIs(t, err, renderer.ErrProgramNotFound)
	})

	t.Run("input count mismatch", func(t *testing.T) {
		err := r.SubmitPass("fill", []renderer.Surface{r.DisplaySurface()}, r.DisplaySurface(), nil)
		assert.Error(t, err)
	})

	t.Run("values overlay shared uniforms", func(t *testing.T) {
		require.NoError(t, r.BeginFrame())
		require.NoError(t, r.SubmitPass("fill", nil, r.DisplaySurface(), renderer.Values{"gain": 1, "uTime": 0}))
		require.NoError(t, r.EndFrame())

		px := b.Display().RGBAAt(0, 0)
		assert.Equal(t, uint8(0), px.R)
		assert.Equal(t, uint8(255), px.G)
		assert.Equal(t, uint64(1), r.Submissions())
		assert.Equal(t, uint64(1), b.Presented())
	})

	t.Run("shared uniform read without override", func(t *testing.T) {
		require.NoError(t, r.BeginFrame())
		require.NoError(t, r.SubmitPass("fill", nil, r.DisplaySurface(), nil))
		require.NoError(t, r.EndFrame())
		assert.Equal(t, uint8(128), b.Display().RGBAAt(3, 3).R)
	})
}

func TestResize(t *testing.T) {
	r, b := newRenderer(t)
	w, h := r.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	require.NoError(t, r.Resize(20, 10))
	w, h = r.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
	assert.Equal(t, image.Rect(0, 0, 20, 10), b.Display().Bounds())

	assert.Error(t, r.Resize(0, 10))
	w, _ = r.Size()
	assert.Equal(t, 20, w)
}

func TestNilBackend(t *testing.T) {
	r := renderer.NewRenderer(nil)
	assert.False(t, r.Initialized())
	assert.Nil(t, r.DisplaySurface())
	assert.ErrorIs(t, r.RegisterPrograms(fill), renderer.ErrNoBackend)
	assert.ErrorIs(t, r.BeginFrame(), renderer.ErrNoBackend)
	_, err := r.CreateSurface("x", 1, 1)
	assert.ErrorIs(t, err, renderer.ErrNoBackend)
}

func TestWithProgram(t *testing.T) {
	b := software.NewBackend(4, 4, software.WithWorkers(1))

	assert.Panics(t, func() {
		renderer.NewRenderer(b, renderer.WithProgram(fill))
	})

	set := renderer.NewUniformSet()
	set.RegisterFloat("uTime", 0)
	r := renderer.NewRenderer(b, renderer.WithUniforms(set), renderer.WithProgram(fill))
	assert.True(t, r.Initialized())
	assert.Same(t, set, r.Uniforms())
	assert.NotNil(t, r.Program("fill"))
}

func TestUniformLayout(t *testing.T) {
	set := renderer.NewUniformSet()
	set.RegisterFloat("uTime", 0.25)
	set.Register("uColor", renderer.UniformVec4).SetVec4([4]float32{1, 2, 3, 4})
	set.Register("uMVP", renderer.UniformMat4)

	p := renderer.ProgramInfo{
		Name:           "layout",
		UniformNames:   []string{"uTime", "uColor", "uMVP", "uTime"},
		ParameterNames: []string{"mixRatio"},
	}
	l, err := renderer.NewUniformLayout(p, set)
	require.NoError(t, err)

	require.Len(t, l.Fields, 4)
	offsets := map[string]int{}
	for _, f := range l.Fields {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, map[string]int{"uTime": 0, "uColor": 16, "uMVP": 32, "mixRatio": 96}, offsets)
	assert.Equal(t, 112, l.Size)

	packed := l.Pack(renderer.Overlay(renderer.Values{"mixRatio": 0.5}, set))
	require.Len(t, packed, 28)
	assert.Equal(t, float32(0.25), packed[0])
	assert.Equal(t, []float32{1, 2, 3, 4}, packed[4:8])
	assert.Equal(t, float32(0.5), packed[24])

	decl := l.WGSLStruct("Params")
	assert.Contains(t, decl, "uColor: vec4<f32>,")
	assert.Contains(t, decl, "uMVP: mat4x4<f32>,")
	assert.Contains(t, decl, "mixRatio: f32,")
}

func TestUniformLayout_Empty(t *testing.T) {
	l, err := renderer.NewUniformLayout(renderer.ProgramInfo{Name: "empty"}, renderer.NewUniformSet())
	require.NoError(t, err)
	assert.Equal(t, 16, l.Size)
	assert.Contains(t, l.WGSLStruct("Params"), "_pad: f32")
	assert.Len(t, l.Pack(renderer.Values{}), 4)
}

func TestWGSLModule(t *testing.T) {
	set := renderer.NewUniformSet()
	set.RegisterFloat("uTime", 0)
	l, err := renderer.NewUniformLayout(fill, set)
	require.NoError(t, err)

	src, ok := renderer.WGSLModule(fill, l)
	require.True(t, ok)
	assert.Contains(t, src, "var<uniform> params: Params;")
	assert.Contains(t, src, "fn vs_main")
	assert.Contains(t, src, "fn fs_main")

	_, ok = renderer.WGSLModule(descriptiveProgram{renderer.ProgramInfo{Name: "x"}}, l)
	assert.False(t, ok)

	withInputs := renderer.ProgramInfo{Name: "two", InputNames: []string{"current", "history"}}
	prelude := renderer.WGSLPrelude(withInputs, renderer.UniformLayout{Size: 16})
	assert.Contains(t, prelude, "@group(0) @binding(2) var t_current: texture_2d<f32>;")
	assert.Contains(t, prelude, "@group(0) @binding(3) var t_history: texture_2d<f32>;")
}

func TestUniformSet(t *testing.T) {
	set := renderer.NewUniformSet()
	u := set.RegisterFloat("uTime", 3)
	assert.Equal(t, float32(3), u.Float())

	again := set.RegisterFloat("uTime", 9)
	assert.Same(t, u, again)
	assert.Equal(t, float32(3), again.Float())

	assert.Panics(t, func() { set.Register("uTime", renderer.UniformVec4) })

	set.Register("uColor", renderer.UniformVec4)
	assert.Equal(t, []string{"uTime", "uColor"}, set.Names())
	assert.True(t, set.Has("uColor"))
	assert.False(t, set.Has("uMissing"))

	assert.Equal(t, float32(3), renderer.Float(set, "uTime"))
	assert.Equal(t, float32(0), renderer.Float(set, "uMissing"))
	assert.Equal(t, float32(0), renderer.Float(nil, "uTime"))
}

func TestOverlay_FirstReaderWins(t *testing.T) {
	set := renderer.NewUniformSet()
	set.RegisterFloat("a", 1)
	set.RegisterFloat("b", 2)

	r := renderer.Overlay(renderer.Values{"a": 10}, nil, set)
	assert.Equal(t, float32(10), renderer.Float(r, "a"))
	assert.Equal(t, float32(2), renderer.Float(r, "b"))
	_, ok := r.Lookup("c")
	assert.False(t, ok)
}
