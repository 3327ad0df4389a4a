package panel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bloomSettings struct {
	strength  float32
	radius    float32
	threshold float32
}

func newBloomPanel(t *testing.T) (Panel, *bloomSettings, *int) {
	t.Helper()
	s := &bloomSettings{strength: 1.24, threshold: 0.1}
	updates := 0
	p := NewPanel()
	onChange := func() { updates++ }
	p.Float("Bloom", "strength", &s.strength, 0, 3).OnChange(onChange)
	p.Float("Bloom", "radius", &s.radius, 0, 1).OnChange(onChange)
	p.Float("Bloom", "threshold", &s.threshold, 0, 1).OnChange(onChange)
	return p, s, &updates
}

func TestPanel_SetClampsAndNotifies(t *testing.T) {
	p, s, updates := newBloomPanel(t)

	require.NoError(t, p.Set("Bloom.strength", 2.5))
	assert.Equal(t, float32(2.5), s.strength)
	assert.Equal(t, 1, *updates)

	require.NoError(t, p.Set("Bloom.strength", 9))
	assert.Equal(t, float32(3), s.strength)
	assert.Equal(t, 2, *updates)

	// unchanged values do not notify
	require.NoError(t, p.Set("Bloom.strength", float32(3)))
	assert.Equal(t, 2, *updates)

	require.NoError(t, p.Set("Bloom.radius", -1))
	assert.Zero(t, s.radius)
	assert.Equal(t, 2, *updates, "radius was already at its lower bound")
}

func TestPanel_SetErrors(t *testing.T) {
	p, _, updates := newBloomPanel(t)
	wireframe := false
	p.Bool("Material", "wireframe", &wireframe)

	err := p.Set("Bloom.exposure", 1)
	assert.ErrorIs(t, err, ErrUnknownControl)

	err = p.Set("Bloom.strength", true)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	err = p.Set("Material.wireframe", 1)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	require.NoError(t, p.Set("Material.wireframe", true))
	assert.True(t, wireframe)
	assert.Zero(t, *updates)
}

func TestPanel_DuplicatePanics(t *testing.T) {
	p, s, _ := newBloomPanel(t)
	assert.Panics(t, func() {
		p.Float("Bloom", "strength", &s.strength, 0, 3)
	})
}

func TestPanel_FuncBindings(t *testing.T) {
	p := NewPanel()
	var z float32 = 2
	var calls int
	p.FloatFunc("Camera", "z", func() float32 { return z }, func(v float32) { z = v; calls++ }, 10, 0)

	c := p.Control("Camera.z")
	require.NotNil(t, c)
	lo, hi := c.Range()
	assert.Equal(t, float32(0), lo)
	assert.Equal(t, float32(10), hi)

	require.NoError(t, p.Set("Camera.z", 4))
	assert.Equal(t, float32(4), z)
	assert.Equal(t, 1, calls)
	assert.Equal(t, float32(4), c.Value())
}

func TestPanel_ApplyTOML(t *testing.T) {
	p, s, updates := newBloomPanel(t)
	exposure := float32(1)
	p.Float("", "exposure", &exposure, 0, 4)

	doc := []byte(`
exposure = 2

[Bloom]
strength = 2
radius = 0.5
glow = 1
`)
	err := p.ApplyTOML(doc)
	assert.ErrorIs(t, err, ErrUnknownControl, "the unknown entry is reported")
	assert.Equal(t, float32(2), exposure)
	assert.Equal(t, float32(2), s.strength)
	assert.Equal(t, float32(0.5), s.radius)
	assert.Equal(t, 2, *updates)

	assert.Error(t, p.ApplyTOML([]byte("[Bloom")))
}

func TestPanel_SnapshotRoundTrip(t *testing.T) {
	p, s, _ := newBloomPanel(t)
	s.strength, s.radius = 2, 0.25
	wireframe := true
	p.Bool("Material", "wireframe", &wireframe)

	data, err := p.Snapshot()
	require.NoError(t, err)

	q, r, _ := newBloomPanel(t)
	var wf bool
	q.Bool("Material", "wireframe", &wf)
	require.NoError(t, q.ApplyTOML(data))
	assert.Equal(t, *s, *r)
	assert.True(t, wf)

	assert.Equal(t, []string{"Bloom.strength", "Bloom.radius", "Bloom.threshold", "Material.wireframe"}, q.Paths())
}

func TestPanel_DrainWithoutWatch(t *testing.T) {
	p, _, _ := newBloomPanel(t)
	n, err := p.Drain()
	assert.Zero(t, n)
	assert.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPanel_QueueLimit(t *testing.T) {
	p := NewPanel(WithQueueLimit(1)).(*panel)
	var v float32
	p.Float("", "v", &v, 0, 10)

	p.enqueue(pending{source: "a", data: []byte("v = 1")})
	p.enqueue(pending{source: "b", data: []byte("v = 2")})

	n, err := p.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, float32(2), v)
}

func TestPanel_DrainCountsOnlyCleanDocuments(t *testing.T) {
	p := NewPanel().(*panel)
	var v float32
	p.Float("", "v", &v, 0, 10)

	p.enqueue(pending{source: "good", data: []byte("v = 3")})
	p.enqueue(pending{source: "syntax", data: []byte("v = ")})
	p.enqueue(pending{source: "unknown", data: []byte("w = 1")})
	p.enqueue(pending{source: "read", err: errors.New("read failed")})

	n, err := p.Drain()
	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownControl)
	assert.Contains(t, err.Error(), "syntax")
	assert.Contains(t, err.Error(), "read failed")
	assert.Equal(t, float32(3), v)
}

func TestPanel_WatchFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "controls.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Bloom]\nstrength = 1.5\n"), 0o644))

	p, s, _ := newBloomPanel(t)
	require.NoError(t, p.Watch(file))
	t.Cleanup(func() { _ = p.Close() })
	assert.ErrorIs(t, p.Watch(file), ErrAlreadyWatching)

	// the initial contents are queued, not applied
	assert.Equal(t, float32(1.24), s.strength)
	n, err := p.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, float32(1.5), s.strength)

	// other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("[Bloom]\nstrength = 0\n"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("[Bloom]\nstrength = 2.75\n"), 0o644))

	require.Eventually(t, func() bool {
		_, _ = p.Drain()
		return s.strength == 2.75
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestPanel_String(t *testing.T) {
	p, _, _ := newBloomPanel(t)
	assert.Contains(t, p.(*panel).String(), "Bloom.strength = 1.24\n")
}
