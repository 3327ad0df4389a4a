package clock

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceFixedStep(t *testing.T) {
	c := NewClock(WithInitialTimestamp(1000))

	for i := 1; i <= 5; i++ {
		f := c.Advance(1000+float64(i)*16, nil)
		assert.InDelta(t, 16, f.Delta, 1e-9)
		assert.Equal(t, uint64(i-1), f.Index)
	}
	assert.Equal(t, 1080.0, c.Last())
	assert.Equal(t, uint64(5), c.Frames())
}

func TestAdvanceClampsDelta(t *testing.T) {
	tests := []struct {
		name string
		last float64
		raw  float64
		want float64
	}{
		{name: "negative jump", last: 500, raw: 100, want: 0},
		{name: "huge gap", last: 0, raw: 1e9, want: DefaultMaxDelta},
		{name: "exact cap", last: 0, raw: 100, want: 100},
		{name: "nan", last: 0, raw: math.NaN(), want: 0},
		{name: "no movement", last: 42, raw: 42, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(WithInitialTimestamp(tt.last))
			f := c.Advance(tt.raw, nil)
			assert.Equal(t, tt.want, f.Delta)
		})
	}
}

func TestAdvanceDeltaAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := NewClock(WithInitialTimestamp(0))

	ts := 0.0
	for range 10000 {
		switch rng.Intn(4) {
		case 0:
			ts -= rng.Float64() * 1e6
		case 1:
			ts += rng.Float64() * 1e7
		default:
			ts += rng.Float64() * 40
		}
		f := c.Advance(ts, nil)
		require.GreaterOrEqual(t, f.Delta, 0.0)
		require.LessOrEqual(t, f.Delta, DefaultMaxDelta)
	}
}

func TestAdvancePassesHandle(t *testing.T) {
	c := NewClock(WithInitialTimestamp(0))
	handle := &struct{ id int }{id: 3}
	f := c.Advance(10, handle)
	assert.Same(t, handle, f.Handle)
	assert.InDelta(t, 0.01, f.Seconds(), 1e-6)
}

func TestWithMaxDelta(t *testing.T) {
	c := NewClock(WithInitialTimestamp(0), WithMaxDelta(33))
	assert.Equal(t, 33.0, c.Advance(1000, nil).Delta)

	c = NewClock(WithInitialTimestamp(0), WithMaxDelta(-1))
	assert.Equal(t, DefaultMaxDelta, c.MaxDelta())
}

func TestInitialTimestampFromTimeSource(t *testing.T) {
	c := NewClock(WithTimeSource(func() float64 { return 250 }))
	assert.Equal(t, 250.0, c.Last())
	assert.Equal(t, 16.0, c.Advance(266, nil).Delta)
}

func TestReset(t *testing.T) {
	c := NewClock(WithInitialTimestamp(0))
	c.Advance(50, nil)
	c.Reset(1000)
	f := c.Advance(1010, nil)
	assert.Equal(t, 10.0, f.Delta)
	assert.Equal(t, uint64(0), f.Index)
}
