package webgpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_WithoutSurfaceIsUninitialized(t *testing.T) {
	b := NewBackend(nil, 640, 480)

	assert.False(t, b.Initialized())
	require.Error(t, b.Err())
	assert.ErrorIs(t, b.BeginFrame(), errNotInitialized)
	_, err := b.CreateSurface("x", 4, 4)
	assert.ErrorIs(t, err, errNotInitialized)

	r := renderer.NewRenderer(b)
	assert.False(t, r.Initialized())
	b.Release()
}

func TestBindGroupLayoutDescriptor(t *testing.T) {
	p := renderer.ProgramInfo{Name: "blend", InputNames: []string{"current", "history"}}
	desc := bindGroupLayoutDescriptor(p)

	require.Len(t, desc.Entries, 4)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, desc.Entries[1].Sampler.Type)
	for i, e := range desc.Entries[2:] {
		assert.Equal(t, renderer.TextureBinding(i), e.Binding)
		assert.Equal(t, wgpu.TextureSampleTypeFloat, e.Texture.SampleType)
		assert.Equal(t, wgpu.TextureViewDimension2D, e.Texture.ViewDimension)
	}
}

func TestLinkProgram_RequiresWGSL(t *testing.T) {
	b := NewBackend(nil, 1, 1)
	err := b.LinkProgram(renderer.ProgramInfo{Name: "cpu-only"}, renderer.UniformLayout{Size: 16})
	assert.ErrorIs(t, err, renderer.ErrUnsupportedProgram)
}
