package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/pelletier/go-toml/v2"
)

// Pipeline shapes the composer can be assembled in.
const (
	PipelineLinear   = "linear"
	PipelineFeedback = "feedback"
)

// Present modes accepted in the renderer section.
const (
	PresentVSync    = "vsync"
	PresentUncapped = "uncapped"
)

// Window holds the host window settings.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// Resize bounds for the client area. Zero leaves a bound unconstrained.
	MinWidth  int `toml:"min_width"`
	MinHeight int `toml:"min_height"`
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
}

// Loop holds render loop settings.
type Loop struct {
	// MaxDelta caps the per-frame delta, in milliseconds.
	MaxDelta float64 `toml:"max_delta"`
}

// Renderer holds backend settings.
type Renderer struct {
	PresentMode string `toml:"present_mode"`
}

// Pipeline selects the post-processing shape.
type Pipeline struct {
	Shape string `toml:"shape"`
	// MixRatio is the history weight of the motion-blur blend pass.
	MixRatio float32 `toml:"mix_ratio"`
}

// Bloom holds the bloom chain parameters.
type Bloom struct {
	Strength  float32 `toml:"strength"`
	Radius    float32 `toml:"radius"`
	Threshold float32 `toml:"threshold"`
}

// Profiler holds the stats overlay settings.
type Profiler struct {
	Enabled bool `toml:"enabled"`
	// Interval is the log interval in milliseconds.
	Interval int `toml:"interval"`
}

// Controls holds orbit control and control panel settings.
type Controls struct {
	Damping float32 `toml:"damping"`
	// PanelFile is a TOML file of panel values watched for edits. Empty disables watching.
	PanelFile string `toml:"panel_file"`
}

// Scene holds the demo scene settings.
type Scene struct {
	// Detail is the icosahedron subdivision level.
	Detail int `toml:"detail"`
	// TimeScale divides the frame timestamp to produce the time uniform.
	TimeScale float64 `toml:"time_scale"`
}

// Config holds runtime configuration for the window, loop, renderer and effects.
// Fields may be loaded from a TOML file.
type Config struct {
	Window   Window   `toml:"window"`
	Loop     Loop     `toml:"loop"`
	Renderer Renderer `toml:"renderer"`
	Pipeline Pipeline `toml:"pipeline"`
	Bloom    Bloom    `toml:"bloom"`
	Profiler Profiler `toml:"profiler"`
	Controls Controls `toml:"controls"`
	Scene    Scene    `toml:"scene"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Title:     "oxy-fx",
			Width:     1280,
			Height:    720,
			MinWidth:  320,
			MinHeight: 240,
		},
		Loop: Loop{
			MaxDelta: clock.DefaultMaxDelta,
		},
		Renderer: Renderer{
			PresentMode: PresentVSync,
		},
		Pipeline: Pipeline{
			Shape:    PipelineLinear,
			MixRatio: 0.8,
		},
		Bloom: Bloom{
			Strength:  1.24,
			Radius:    0,
			Threshold: 0.1,
		},
		Profiler: Profiler{
			Enabled:  true,
			Interval: 1000,
		},
		Controls: Controls{
			Damping: 3,
		},
		Scene: Scene{
			Detail:    64,
			TimeScale: 5000,
		},
	}
}

// Validate clamps/normalizes values to safe ranges. Unknown enumerations are errors.
func (c *Config) Validate() error {
	d := DefaultConfig()
	c.Window.Title = common.Coalesce(c.Window.Title, d.Window.Title)
	c.Renderer.PresentMode = common.Coalesce(c.Renderer.PresentMode, d.Renderer.PresentMode)
	c.Pipeline.Shape = common.Coalesce(c.Pipeline.Shape, d.Pipeline.Shape)
	if c.Window.Width <= 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = d.Window.Height
	}
	c.Window.Width, c.Window.MinWidth, c.Window.MaxWidth = fitLimits(c.Window.Width, c.Window.MinWidth, c.Window.MaxWidth)
	c.Window.Height, c.Window.MinHeight, c.Window.MaxHeight = fitLimits(c.Window.Height, c.Window.MinHeight, c.Window.MaxHeight)
	if c.Loop.MaxDelta <= 0 {
		c.Loop.MaxDelta = d.Loop.MaxDelta
	}
	c.Pipeline.MixRatio = common.Clamp(c.Pipeline.MixRatio, 0, 1)
	c.Bloom.Strength = common.Clamp(c.Bloom.Strength, 0, 3)
	c.Bloom.Radius = common.Clamp(c.Bloom.Radius, 0, 1)
	c.Bloom.Threshold = common.Clamp(c.Bloom.Threshold, 0, 1)
	if c.Profiler.Interval <= 0 {
		c.Profiler.Interval = d.Profiler.Interval
	}
	c.Controls.Damping = max(0, c.Controls.Damping)
	c.Scene.Detail = max(0, c.Scene.Detail)
	if c.Scene.TimeScale <= 0 {
		c.Scene.TimeScale = d.Scene.TimeScale
	}

	var errs []error
	switch c.Pipeline.Shape {
	case PipelineLinear, PipelineFeedback:
	default:
		errs = append(errs, fmt.Errorf("config: unknown pipeline shape %q", c.Pipeline.Shape))
	}
	switch c.Renderer.PresentMode {
	case PresentVSync, PresentUncapped:
	default:
		errs = append(errs, fmt.Errorf("config: unknown present mode %q", c.Renderer.PresentMode))
	}
	return errors.Join(errs...)
}

// fitLimits zeroes negative bounds, raises a max below the min and clamps size into range.
func fitLimits(size, lo, hi int) (int, int, int) {
	lo, hi = max(0, lo), max(0, hi)
	if hi > 0 && hi < lo {
		hi = lo
	}
	size = max(size, lo)
	if hi > 0 {
		size = min(size, hi)
	}
	return size, lo, hi
}

// PresentMode translates the renderer section into a renderer.PresentMode.
func (c *Config) PresentMode() renderer.PresentMode {
	if c.Renderer.PresentMode == PresentUncapped {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

// ProfilerInterval returns the profiler log interval as a duration.
func (c *Config) ProfilerInterval() time.Duration {
	return time.Duration(c.Profiler.Interval) * time.Millisecond
}

// Parse decodes a TOML document over the defaults and validates the result.
// Keys the document omits keep their default values.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - *Config: the decoded configuration, defaults on decode error
//   - error: decode or validation error
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load attempts to read configuration from the given TOML file path. If the file does not
// exist it returns DefaultConfig(). On TOML error it returns defaults with the error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}
	return Parse(data)
}

// Save writes the configuration to the given path in TOML format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
