package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a distant light placed at a position and shining toward
	// the origin. Affects all fragments uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypeAmbient represents a flat light applied to every fragment regardless of normal.
	LightTypeAmbient
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu        *sync.Mutex
	lightType LightType
	position  [3]float32
	color     [3]float32
	intensity float32
	enabled   bool
}

// Light is a light source that publishes itself into the shared uniforms each frame.
//
// A directional light writes uLightDirection (its position, the shader normalizes it) and
// uLightColor with the intensity in w. An ambient light writes uAmbientColor. A disabled light
// publishes zero intensity. Setters may be called from any goroutine; Apply runs on the loop.
type Light interface {
	// Type returns the kind of light source.
	Type() LightType

	// Position returns the world-space position of the light. Meaningless for ambient lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Color returns the RGB color of the light in [0, 1].
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier.
	Intensity() float32

	// Enabled reports whether the light contributes to shading.
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: the position components
	SetPosition(x, y, z float32)

	// SetAxis sets a single position component, 0 for x through 2 for z. Out of range axes are ignored.
	//
	// Parameters:
	//   - axis: the component index
	//   - v: the new value
	SetAxis(axis int, v float32)

	// SetColor sets the RGB color of the light.
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier. Negative values are clamped to zero.
	SetIntensity(intensity float32)

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)

	// Apply writes the light into the shared uniforms, registering its uniform on first use.
	//
	// Parameters:
	//   - set: the renderer's shared uniform set
	Apply(set *renderer.UniformSet)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type.
// Defaults are white, intensity 1, enabled, positioned at (0, 1, 0).
//
// Parameters:
//   - lightType: the kind of light
//   - opts: functional options applied after the defaults
//
// Returns:
//   - Light: the newly created light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: lightType,
		position:  [3]float32{0, 1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetAxis(axis int, v float32) {
	if axis < 0 || axis > 2 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position[axis] = v
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = max(0, intensity)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) Apply(set *renderer.UniformSet) {
	if set == nil {
		return
	}
	l.mu.Lock()
	color := [4]float32{l.color[0], l.color[1], l.color[2], l.intensity}
	if !l.enabled {
		color[3] = 0
	}
	pos := l.position
	l.mu.Unlock()

	switch l.lightType {
	case LightTypeAmbient:
		set.Register(shader.UniformAmbientColor, renderer.UniformVec4).SetVec4(color)
	default:
		// a light sitting on the origin has no direction; keep the last one
		if pos != [3]float32{} {
			set.Register(shader.UniformLightDirection, renderer.UniformVec4).SetVec4([4]float32{pos[0], pos[1], pos[2], 0})
		}
		set.Register(shader.UniformLightColor, renderer.UniformVec4).SetVec4(color)
	}
}

// hexToRGB splits a 0xRRGGBB color into components in [0, 1].
func hexToRGB(hex uint32) [3]float32 {
	return [3]float32{
		float32((hex>>16)&0xff) / 255.0,
		float32((hex>>8)&0xff) / 255.0,
		float32(hex&0xff) / 255.0,
	}
}

// Direction returns the unit vector pointing from the origin toward the light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - [3]float32: the normalized position, or zero when the light sits on the origin
func Direction(l Light) [3]float32 {
	p := l.Position()
	n := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
	if n == 0 {
		return [3]float32{}
	}
	return [3]float32{p[0] / n, p[1] / n, p[2] / n}
}
