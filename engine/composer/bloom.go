package composer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

// Bloom defaults.
const (
	DefaultBloomStrength  float32 = 1.24
	DefaultBloomRadius    float32 = 0
	DefaultBloomThreshold float32 = 0.1

	bloomSmoothWidth float32 = 0.01
)

// BloomPass extracts the bright parts of its input, blurs them and adds them back.
// It owns three targets (extract, blur, output) and submits three programs per frame.
type BloomPass struct {
	name    string
	enabled bool

	strength  float32
	radius    float32
	threshold float32

	extract renderer.Surface
	blurred renderer.Surface
	output  renderer.Surface
}

var _ Pass = &BloomPass{}

// Bloom creates a bloom pass reading the previous output.
//
// Parameters:
//   - name: unique pass name
//   - strength: how much of the blurred highlights is added back
//   - radius: blur spread in [0, 1]
//   - threshold: luminance above which a pixel blooms
//
// Returns:
//   - *BloomPass: the new pass
func Bloom(name string, strength, radius, threshold float32) *BloomPass {
	p := &BloomPass{name: name, enabled: true}
	p.SetStrength(strength)
	p.SetRadius(radius)
	p.SetThreshold(threshold)
	return p
}

func (p *BloomPass) Name() string            { return p.name }
func (p *BloomPass) Terminal() bool          { return false }
func (p *BloomPass) Enabled() bool           { return p.enabled }
func (p *BloomPass) SetEnabled(enabled bool) { p.enabled = enabled }

func (p *BloomPass) Inputs() []Input {
	return []Input{{Name: "scene", From: FromPrevious()}}
}

func (p *BloomPass) Programs() []renderer.Program {
	return []renderer.Program{HighPassProgram, BlurProgram, BloomCompositeProgram}
}

func (p *BloomPass) Targets() []renderer.Surface {
	var out []renderer.Surface
	for _, s := range []renderer.Surface{p.extract, p.blurred, p.output} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Strength returns the composite strength.
func (p *BloomPass) Strength() float32 { return p.strength }

// SetStrength sets the composite strength. Negative values clamp to 0.
func (p *BloomPass) SetStrength(v float32) { p.strength = max(v, 0) }

// Radius returns the blur spread.
func (p *BloomPass) Radius() float32 { return p.radius }

// SetRadius sets the blur spread, clamped to [0, 1].
func (p *BloomPass) SetRadius(v float32) { p.radius = common.Clamp01(v) }

// Threshold returns the luminance threshold.
func (p *BloomPass) Threshold() float32 { return p.threshold }

// SetThreshold sets the luminance threshold, clamped to [0, 1].
func (p *BloomPass) SetThreshold(v float32) { p.threshold = common.Clamp01(v) }

func (p *BloomPass) SetSize(r renderer.Renderer, width, height int) error {
	p.Release(r)
	var err error
	if p.extract, err = r.CreateSurface(p.name+":extract", width, height); err != nil {
		return fmt.Errorf("pass %q: %w", p.name, err)
	}
	if p.blurred, err = r.CreateSurface(p.name+":blur", width, height); err != nil {
		return fmt.Errorf("pass %q: %w", p.name, err)
	}
	if p.output, err = r.CreateSurface(p.name, width, height); err != nil {
		return fmt.Errorf("pass %q: %w", p.name, err)
	}
	return nil
}

func (p *BloomPass) Render(ctx *PassContext) (renderer.Surface, error) {
	if p.output == nil {
		return nil, fmt.Errorf("pass %q has no target; SetSize was not called", p.name)
	}
	scene := ctx.Input("scene")

	err := ctx.Renderer.SubmitPass(HighPassProgram.Key(), []renderer.Surface{scene}, p.extract, renderer.Values{
		ParamThreshold:   p.threshold,
		ParamSmoothWidth: bloomSmoothWidth,
	})
	if err != nil {
		return nil, err
	}
	err = ctx.Renderer.SubmitPass(BlurProgram.Key(), []renderer.Surface{p.extract}, p.blurred, renderer.Values{
		ParamRadius: p.radius,
	})
	if err != nil {
		return nil, err
	}
	err = ctx.Renderer.SubmitPass(BloomCompositeProgram.Key(), []renderer.Surface{scene, p.blurred}, p.output, renderer.Values{
		ParamStrength: p.strength,
	})
	if err != nil {
		return nil, err
	}
	return p.output, nil
}

func (p *BloomPass) Release(r renderer.Renderer) {
	for _, s := range []*renderer.Surface{&p.extract, &p.blurred, &p.output} {
		if *s != nil {
			r.ReleaseSurface(*s)
			*s = nil
		}
	}
}
