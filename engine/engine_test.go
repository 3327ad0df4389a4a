package engine_test

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
	"github.com/Carmen-Shannon/oxy-fx/engine/composer"
	"github.com/Carmen-Shannon/oxy-fx/engine/host"
	"github.com/Carmen-Shannon/oxy-fx/engine/panel"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-fx/engine/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeProgram fills the target with red = uTime.
type timeProgram struct{ renderer.ProgramInfo }

var timeFill = timeProgram{renderer.ProgramInfo{Name: "test.time", UniformNames: []string{"uTime"}}}

func (timeProgram) ShadeRows(dst *image.RGBA, _ []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	c := software.RGBA{renderer.Float(u, "uTime"), 0, 0, 1}
	for y := y0; y < y1; y++ {
		for x := range dst.Bounds().Dx() {
			software.Put(dst, x, y, c)
		}
	}
}

type recorder struct{ events []string }

func (r *recorder) add(e string) { r.events = append(r.events, e) }

type recordingControls struct {
	rec    *recorder
	deltas []float64
}

func (c *recordingControls) Update(dt float64) {
	c.rec.add("controls")
	c.deltas = append(c.deltas, dt)
}

type recordingProfiler struct {
	profiler.Profiler
	rec *recorder
}

func (p *recordingProfiler) Update(clock.Frame) { p.rec.add("stats") }

type fixture struct {
	backend software.Backend
	r       renderer.Renderer
	time    *renderer.Uniform
	display host.Headless
	rec     *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rec: &recorder{}}
	f.backend = software.NewBackend(8, 4,
		software.WithWorkers(1),
		software.WithSubmitObserver(func(s software.Submission) { f.rec.add("pass:" + s.Program) }),
	)
	f.r = renderer.NewRenderer(f.backend)
	f.time = f.r.Uniforms().RegisterFloat("uTime", 0)
	f.display = host.NewHeadless(host.WithSize(8, 4))
	return f
}

func (f *fixture) pipeline(t *testing.T) composer.Composer {
	t.Helper()
	c, err := composer.NewLinearPipeline(f.r, timeFill)
	require.NoError(t, err)
	return c
}

func TestStartLoop_FailsFastWithoutRenderer(t *testing.T) {
	tests := []struct {
		name    string
		options func(d engine.Display) []engine.EngineBuilderOption
		want    error
	}{
		{
			name: "no renderer",
			options: func(d engine.Display) []engine.EngineBuilderOption {
				return []engine.EngineBuilderOption{engine.WithDisplay(d)}
			},
			want: engine.ErrRendererNotInitialized,
		},
		{
			name: "renderer without backend",
			options: func(d engine.Display) []engine.EngineBuilderOption {
				return []engine.EngineBuilderOption{engine.WithDisplay(d), engine.WithRenderer(renderer.NewRenderer(nil))}
			},
			want: engine.ErrRendererNotInitialized,
		},
		{
			name: "uninitialized backend",
			options: func(d engine.Display) []engine.EngineBuilderOption {
				r := renderer.NewRenderer(software.NewBackend(4, 4, software.WithUninitialized()))
				return []engine.EngineBuilderOption{engine.WithDisplay(d), engine.WithRenderer(r)}
			},
			want: engine.ErrRendererNotInitialized,
		},
		{
			name: "no display",
			options: func(engine.Display) []engine.EngineBuilderOption {
				return []engine.EngineBuilderOption{engine.WithRenderer(renderer.NewRenderer(software.NewBackend(4, 4)))}
			},
			want: engine.ErrNoDisplay,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := host.NewHeadless()
			called := false
			e := engine.NewEngine(tt.options(d)...)
			e.Subscribe(tick.Func(func(clock.Frame) { called = true }))

			err := e.StartLoop()
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, e.Running())
			assert.False(t, d.Registered())
			assert.Zero(t, d.Run(3, 16))
			assert.False(t, called)
		})
	}
}

func TestLoop_DeltaAccumulates(t *testing.T) {
	f := newFixture(t)
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display))

	var total float64
	e.Subscribe(tick.Func(func(fr clock.Frame) { total += fr.Delta }))

	require.NoError(t, e.StartLoop())
	assert.ErrorIs(t, e.StartLoop(), engine.ErrLoopRunning)
	assert.Equal(t, 10, f.display.Run(10, 16))

	assert.InDelta(t, 160.0, total, 1e-9)
	assert.Equal(t, uint64(10), e.Frames())
	assert.Equal(t, 160.0, e.LastTimestamp())
	assert.Zero(t, f.r.Submissions(), "an empty composer submits nothing")
}

func TestLoop_DeltaIsCapped(t *testing.T) {
	f := newFixture(t)
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display))
	var deltas []float64
	e.Subscribe(tick.Func(func(fr clock.Frame) { deltas = append(deltas, fr.Delta) }))
	require.NoError(t, e.StartLoop())

	f.display.Step(16)
	f.display.Step(10_000)
	f.display.Step(5_000)
	f.display.Step(5_010)
	assert.Equal(t, []float64{16, 100, 0, 10}, deltas)
}

func TestLoop_FrameOrder(t *testing.T) {
	f := newFixture(t)
	controls := &recordingControls{rec: f.rec}
	e := engine.NewEngine(
		engine.WithRenderer(f.r),
		engine.WithDisplay(f.display),
		engine.WithComposer(f.pipeline(t)),
		engine.WithControls(controls),
		engine.WithProfiler(&recordingProfiler{rec: f.rec}),
	)
	e.Subscribe(func(clock.Frame) error {
		f.rec.add("notify")
		return nil
	})
	require.NoError(t, e.StartLoop())
	f.display.Run(2, 16)

	frame := []string{"controls", "notify", "pass:test.time", "pass:composer.copy", "stats"}
	assert.Equal(t, append(append([]string{}, frame...), frame...), f.rec.events)
	assert.Equal(t, []float64{16, 16}, controls.deltas)
}

func TestLoop_UniformsWrittenBySubscribersReachPasses(t *testing.T) {
	f := newFixture(t)
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display), engine.WithComposer(f.pipeline(t)))
	e.Subscribe(tick.Func(func(fr clock.Frame) { f.time.Set(float32(fr.Timestamp / 5000)) }))
	require.NoError(t, e.StartLoop())

	f.display.Step(2500)
	px := f.backend.Display().RGBAAt(3, 2)
	assert.Equal(t, uint8(128), px.R)
	assert.Equal(t, uint8(255), px.A)
}

func TestLoop_SubscriberErrorStopsLoop(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	var handled []error
	e := engine.NewEngine(
		engine.WithRenderer(f.r),
		engine.WithDisplay(f.display),
		engine.WithComposer(f.pipeline(t)),
		engine.WithErrorHandler(func(err error) { handled = append(handled, err) }),
	)
	calls := 0
	e.Subscribe(func(clock.Frame) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	later := 0
	e.Subscribe(tick.Func(func(clock.Frame) { later++ }))

	require.NoError(t, e.StartLoop())
	assert.Equal(t, 3, f.display.Run(10, 16))

	assert.ErrorIs(t, e.Err(), boom)
	assert.False(t, e.Running())
	assert.False(t, f.display.Registered())
	assert.Len(t, handled, 1)
	assert.Equal(t, 2, later, "subscribers after the failing one do not run")
	assert.Equal(t, uint64(2), e.Frames())
	assert.Equal(t, uint64(4), f.r.Submissions(), "the failing frame submits no passes")

	// a stopped loop can be started again
	require.NoError(t, e.StartLoop())
	assert.Nil(t, e.Err())
	e.Stop()
	e.Stop()
}

func TestLoop_SubscriberPanicStopsLoop(t *testing.T) {
	f := newFixture(t)
	var handled []error
	e := engine.NewEngine(
		engine.WithRenderer(f.r),
		engine.WithDisplay(f.display),
		engine.WithComposer(f.pipeline(t)),
		engine.WithErrorHandler(func(err error) { handled = append(handled, err) }),
	)
	explode := true
	e.Subscribe(tick.Func(func(clock.Frame) {
		if explode {
			panic("subscriber exploded")
		}
	}))

	require.NoError(t, e.StartLoop())
	assert.PanicsWithValue(t, "subscriber exploded", func() { f.display.Step(16) })

	assert.False(t, e.Running())
	assert.False(t, f.display.Registered())
	assert.ErrorIs(t, e.Err(), engine.ErrFramePanic)
	assert.Len(t, handled, 1)
	assert.Equal(t, uint64(0), e.Frames())

	explode = false
	require.NoError(t, e.StartLoop())
	assert.True(t, f.display.Step(32))
	assert.Equal(t, uint64(1), e.Frames())
	e.Stop()
}

func TestLoop_PanelDrainedBeforeSubscribers(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "panel.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Bloom]\nstrength = 2\n"), 0o644))

	strength := float32(1.24)
	p := panel.NewPanel()
	p.Float("Bloom", "strength", &strength, 0, 3)
	require.NoError(t, p.Watch(file))
	t.Cleanup(func() { _ = p.Close() })

	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display), engine.WithPanel(p))
	var seen float32
	e.Subscribe(tick.Func(func(clock.Frame) { seen = strength }))
	require.NoError(t, e.StartLoop())

	assert.Equal(t, float32(1.24), strength, "queued values wait for the loop")
	f.display.Step(16)
	assert.Equal(t, float32(2), seen)
}

func TestLoop_CameraControlsPublishUniforms(t *testing.T) {
	f := newFixture(t)
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display), engine.WithControls(cam))
	require.NoError(t, e.StartLoop())
	f.display.Step(16)

	eye, ok := f.r.Uniforms().Lookup(shader.UniformCameraPosition)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0, 0, 2, 1}, eye, 1e-5)
	assert.Same(t, f.r.Uniforms(), e.Context().Uniforms)
}

func TestResize_PropagatesToRendererComposerAndControls(t *testing.T) {
	f := newFixture(t)
	cam := camera.NewCamera()
	c := f.pipeline(t)
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display), engine.WithComposer(c), engine.WithControls(cam))

	f.display.Resize(64, 32)

	w, h := f.r.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	w, h = c.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	assert.Equal(t, float32(2), cam.Aspect())

	assert.Error(t, e.Resize(0, 10))
}

func TestAddPass(t *testing.T) {
	f := newFixture(t)
	e := engine.NewEngine(engine.WithRenderer(f.r), engine.WithDisplay(f.display))
	require.NoError(t, e.AddPass(composer.NewRenderPass("render", timeFill)))
	require.NoError(t, e.AddPass(composer.NewCopyPass("copy")))
	assert.Equal(t, 2, e.Context().Composer.Len())

	require.NoError(t, e.StartLoop())
	f.display.Step(16)
	assert.Equal(t, uint64(2), f.r.Submissions())

	bare := engine.NewEngine()
	assert.ErrorIs(t, bare.AddPass(composer.NewCopyPass("copy")), engine.ErrNoComposer)
}
