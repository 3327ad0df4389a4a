package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time { return f.t }

func TestProfiler_FPSFromDeltas(t *testing.T) {
	p := NewProfiler(WithLogging(false))
	assert.Zero(t, p.FPS())

	for i := range 10 {
		p.Update(clock.Frame{Timestamp: float64(i * 16), Delta: 16})
	}
	assert.InDelta(t, 62.5, p.FPS(), 1e-9)
	assert.Equal(t, uint64(10), p.Frames())
}

func TestProfiler_HistoryWraps(t *testing.T) {
	p := NewProfiler(WithLogging(false), WithHistory(3))
	for _, d := range []float64{1, 2, 3, 4, 5} {
		p.Update(clock.Frame{Delta: d})
	}
	assert.Equal(t, []float64{3, 4, 5}, p.Deltas())
	assert.Equal(t, uint64(5), p.Frames())
}

func TestProfiler_ZeroDeltas(t *testing.T) {
	p := NewProfiler(WithLogging(false))
	p.Update(clock.Frame{Delta: 0})
	assert.Zero(t, p.FPS())
}

func TestProfiler_TickInterval(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	p := NewProfiler(WithNow(ft.now), WithUpdateInterval(500*time.Millisecond), WithLogging(false))

	assert.False(t, p.Tick())
	ft.t = ft.t.Add(499 * time.Millisecond)
	assert.False(t, p.Tick())
	ft.t = ft.t.Add(time.Millisecond)
	assert.True(t, p.Tick())
	assert.False(t, p.Tick(), "the interval restarts after logging")
}

func TestProfiler_Overlay(t *testing.T) {
	p := NewProfiler(WithLogging(false), WithOverlaySize(100, 40), WithHistory(50))
	for range 50 {
		p.Update(clock.Frame{Delta: 50})
	}

	img := p.Overlay()
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 40, img.Bounds().Dy())

	// the newest bar reaches half of the graph area, the oldest column left of the graph is empty
	bottom := img.RGBAAt(99, 39)
	assert.Equal(t, overlaySlowBar, bottom)
	assert.Equal(t, overlayBackground, img.RGBAAt(10, 39))

	// the FPS label leaves white pixels in the top-left corner
	white := 0
	for y := range 14 {
		for x := range 50 {
			if img.RGBAAt(x, y) == overlayText {
				white++
			}
		}
	}
	assert.Positive(t, white)
}
