package software

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gradient struct{ renderer.ProgramInfo }

func (gradient) ShadeRows(dst *image.RGBA, _ []*image.RGBA, _ renderer.UniformReader, y0, y1 int) {
	h := dst.Bounds().Dy()
	for y := y0; y < y1; y++ {
		for x := range dst.Bounds().Dx() {
			Put(dst, x, y, RGBA{float32(y) / float32(h), 0, 0, 1})
		}
	}
}

type invert struct{ renderer.ProgramInfo }

func (invert) Shade(dst *image.RGBA, inputs []*image.RGBA, _ renderer.UniformReader) error {
	b := dst.Bounds()
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := Texel(inputs[0], x, y, b.Dx(), b.Dy())
			Put(dst, x, y, RGBA{1 - c[0], 1 - c[1], 1 - c[2], c[3]})
		}
	}
	return nil
}

var (
	gradientProgram = gradient{renderer.ProgramInfo{Name: "gradient"}}
	invertProgram   = invert{renderer.ProgramInfo{Name: "invert", InputNames: []string{"source"}}}
)

type otherSurface struct{}

func (otherSurface) Label() string { return "other" }
func (otherSurface) Width() int    { return 1 }
func (otherSurface) Height() int   { return 1 }

func TestBackend_SubmitAndPresent(t *testing.T) {
	var subs []Submission
	b := NewBackend(4, 8, WithWorkers(1), WithSubmitObserver(func(s Submission) { subs = append(subs, s) }))
	require.NoError(t, b.LinkProgram(gradientProgram, renderer.UniformLayout{}))
	require.NoError(t, b.LinkProgram(invertProgram, renderer.UniformLayout{}))

	target, err := b.CreateSurface("scene", 4, 8)
	require.NoError(t, err)

	require.NoError(t, b.BeginFrame())
	require.NoError(t, b.SubmitPass(gradientProgram, renderer.UniformLayout{}, nil, target, renderer.Values{}))
	require.NoError(t, b.EndFrame())
	assert.Equal(t, uint64(1), b.Frames())
	assert.Equal(t, uint64(0), b.Presented(), "display untouched")

	require.NoError(t, b.BeginFrame())
	require.NoError(t, b.SubmitPass(invertProgram, renderer.UniformLayout{}, []renderer.Surface{target}, b.DisplaySurface(), renderer.Values{}))
	require.NoError(t, b.EndFrame())
	assert.Equal(t, uint64(1), b.Presented())

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, b.Display().RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 127, G: 255, B: 255, A: 255}, b.Display().RGBAAt(0, 4))

	require.Len(t, subs, 2)
	assert.Equal(t, "invert", subs[1].Program)
	assert.Equal(t, "display", subs[1].Target)
	assert.Equal(t, b.Image(target).Pix, subs[1].Inputs[0].Pix)
	assert.Equal(t, b.Display().Pix, subs[1].Output.Pix)
}

func TestBackend_SubmitErrors(t *testing.T) {
	b := NewBackend(4, 4, WithWorkers(1))
	require.NoError(t, b.LinkProgram(invertProgram, renderer.UniformLayout{}))
	s, err := b.CreateSurface("a", 4, 4)
	require.NoError(t, err)

	t.Run("self read", func(t *testing.T) {
		err := b.SubmitPass(invertProgram, renderer.UniformLayout{}, []renderer.Surface{s}, s, nil)
		assert.ErrorContains(t, err, "reads and writes")
	})

	t.Run("foreign target", func(t *testing.T) {
		err := b.SubmitPass(invertProgram, renderer.UniformLayout{}, []renderer.Surface{s}, otherSurface{}, nil)
		assert.ErrorIs(t, err, errForeignSurface)
	})

	t.Run("foreign input", func(t *testing.T) {
		err := b.SubmitPass(invertProgram, renderer.UniformLayout{}, []renderer.Surface{otherSurface{}}, s, nil)
		assert.ErrorIs(t, err, errForeignSurface)
	})

	t.Run("released target", func(t *testing.T) {
		gone, err := b.CreateSurface("gone", 4, 4)
		require.NoError(t, err)
		b.ReleaseSurface(gone)
		err = b.SubmitPass(invertProgram, renderer.UniformLayout{}, []renderer.Surface{s}, gone, nil)
		assert.ErrorContains(t, err, "released")
	})
}

func TestBackend_Lifecycle(t *testing.T) {
	b := NewBackend(2, 2, WithWorkers(1))
	assert.True(t, b.Initialized())

	_, err := b.CreateSurface("bad", 0, 2)
	assert.Error(t, err)

	assert.Error(t, b.EndFrame(), "EndFrame without BeginFrame")

	err = b.LinkProgram(struct{ renderer.ProgramInfo }{renderer.ProgramInfo{Name: "none"}}, renderer.UniformLayout{})
	assert.ErrorIs(t, err, renderer.ErrUnsupportedProgram)

	_, err = b.CreateSurface("a", 2, 2)
	require.NoError(t, err)
	_, err = b.CreateSurface("b", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.LiveSurfaces())

	b.ReleaseSurface(b.DisplaySurface())
	assert.Equal(t, 2, b.LiveSurfaces())

	require.NoError(t, b.Resize(6, 3))
	assert.Equal(t, 6, b.DisplaySurface().Width())
	assert.Equal(t, 3, b.DisplaySurface().Height())
	assert.Error(t, b.Resize(-1, 3))

	b.Release()
	assert.False(t, b.Initialized())
	assert.Zero(t, b.LiveSurfaces())
	assert.Error(t, b.BeginFrame())
}

func TestBackend_Uninitialized(t *testing.T) {
	b := NewBackend(2, 2, WithUninitialized())
	assert.False(t, b.Initialized())
	assert.Error(t, b.BeginFrame())
}

func TestBackend_BandsMatchInline(t *testing.T) {
	inline := NewBackend(5, 70, WithWorkers(1))
	banded := NewBackend(5, 70, WithWorkers(3), WithBandHeight(4))

	for _, b := range []Backend{inline, banded} {
		require.NoError(t, b.LinkProgram(gradientProgram, renderer.UniformLayout{}))
		require.NoError(t, b.BeginFrame())
		require.NoError(t, b.SubmitPass(gradientProgram, renderer.UniformLayout{}, nil, b.DisplaySurface(), nil))
		require.NoError(t, b.EndFrame())
	}
	assert.Equal(t, inline.Display().Pix, banded.Display().Pix)
}

func TestRelease_StopsWorkers(t *testing.T) {
	before := runtime.NumGoroutine()

	backends := make([]Backend, 10)
	for i := range backends {
		backends[i] = NewBackend(4, 64, WithWorkers(4), WithBandHeight(8))
		assert.Equal(t, 4, backends[i].Workers())
	}
	b := backends[0]
	require.NoError(t, b.LinkProgram(gradientProgram, renderer.UniformLayout{}))
	require.NoError(t, b.BeginFrame())
	require.NoError(t, b.SubmitPass(gradientProgram, renderer.UniformLayout{}, nil, b.DisplaySurface(), nil))
	require.NoError(t, b.EndFrame())

	for _, b := range backends {
		b.Release()
		b.Release()
		assert.Zero(t, b.Workers())
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond, "band workers outlive Release")
}

func TestBackend_InlineHasNoWorkers(t *testing.T) {
	assert.Zero(t, NewBackend(2, 2, WithWorkers(1)).Workers())
}

func TestTexel(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(0, 1, color.RGBA{G: 255, A: 255})

	assert.Equal(t, RGBA{1, 0, 0, 1}, Texel(src, 1, 0, 2, 2))
	// stretched onto a 4x4 target
	assert.Equal(t, RGBA{1, 0, 0, 1}, Texel(src, 3, 1, 4, 4))
	assert.Equal(t, RGBA{0, 1, 0, 1}, Texel(src, 0, 3, 4, 4))
	assert.Equal(t, RGBA{}, Texel(src, 0, 0, 4, 4))
	assert.Equal(t, RGBA{}, Texel(image.NewRGBA(image.Rectangle{}), 0, 0, 1, 1))
}

func TestPutClamps(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	nan := float32(math.NaN())
	Put(dst, 0, 0, RGBA{2, -1, nan, 0.5})
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 128}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 128}, RGBA{2, -1, nan, 0.5}.Color())
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, RGBA{1, 1, 1, 1}.Luminance(), 1e-6)
	assert.InDelta(t, 0.7152, RGBA{0, 1, 0, 1}.Luminance(), 1e-6)
	assert.Zero(t, RGBA{}.Luminance())
}
