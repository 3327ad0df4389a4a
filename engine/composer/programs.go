package composer

import (
	"image"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/software"
	"github.com/anthonynsimon/bild/blur"
	"golang.org/x/image/draw"
)

// Parameter names read by the built-in programs.
const (
	ParamMixRatio    = "mixRatio"
	ParamThreshold   = "threshold"
	ParamSmoothWidth = "smoothWidth"
	ParamRadius      = "radius"
	ParamStrength    = "strength"
)

// Built-in programs. Each runs on the software backend and carries a WGSL fragment stage
// for the webgpu backend.
var (
	CopyProgram renderer.Program = copyProgram{renderer.ProgramInfo{
		Name:       "composer.copy",
		InputNames: []string{"source"},
	}}

	BlendProgram renderer.Program = blendProgram{renderer.ProgramInfo{
		Name:           "composer.blend",
		InputNames:     []string{"current", "history"},
		ParameterNames: []string{ParamMixRatio},
	}}

	HighPassProgram renderer.Program = highPassProgram{renderer.ProgramInfo{
		Name:           "composer.bloom.highpass",
		InputNames:     []string{"source"},
		ParameterNames: []string{ParamThreshold, ParamSmoothWidth},
	}}

	BlurProgram renderer.Program = blurProgram{renderer.ProgramInfo{
		Name:           "composer.bloom.blur",
		InputNames:     []string{"source"},
		ParameterNames: []string{ParamRadius},
	}}

	BloomCompositeProgram renderer.Program = bloomCompositeProgram{renderer.ProgramInfo{
		Name:           "composer.bloom.composite",
		InputNames:     []string{"scene", "bloom"},
		ParameterNames: []string{ParamStrength},
	}}
)

type copyProgram struct{ renderer.ProgramInfo }

func (copyProgram) ShadeRows(dst *image.RGBA, inputs []*image.RGBA, _ renderer.UniformReader, y0, y1 int) {
	src := inputs[0]
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	if src.Bounds().Size() == dst.Bounds().Size() {
		for y := y0; y < y1; y++ {
			copy(dst.Pix[dst.PixOffset(0, y):dst.PixOffset(w, y)], src.Pix[src.PixOffset(0, y):src.PixOffset(w, y)])
		}
		return
	}
	for y := y0; y < y1; y++ {
		for x := range w {
			software.Put(dst, x, y, software.Texel(src, x, y, w, h))
		}
	}
}

func (copyProgram) FragmentWGSL() string {
	return `@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(t_source, linear_sampler, in.uv);
}
`
}

type blendProgram struct{ renderer.ProgramInfo }

func (blendProgram) ShadeRows(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	current, history := inputs[0], inputs[1]
	t := common.Clamp01(renderer.Float(u, ParamMixRatio))
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := y0; y < y1; y++ {
		for x := range w {
			a := software.Texel(current, x, y, w, h)
			b := software.Texel(history, x, y, w, h)
			var out software.RGBA
			for k := range out {
				out[k] = common.Lerp(a[k], b[k], t)
			}
			software.Put(dst, x, y, out)
		}
	}
}

func (blendProgram) FragmentWGSL() string {
	return `@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let current = textureSample(t_current, linear_sampler, in.uv);
    let history = textureSample(t_history, linear_sampler, in.uv);
    return mix(current, history, params.mixRatio);
}
`
}

type highPassProgram struct{ renderer.ProgramInfo }

func (highPassProgram) ShadeRows(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	src := inputs[0]
	threshold := renderer.Float(u, ParamThreshold)
	smooth := renderer.Float(u, ParamSmoothWidth)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := y0; y < y1; y++ {
		for x := range w {
			c := software.Texel(src, x, y, w, h)
			alpha := smoothstep(threshold, threshold+smooth, c.Luminance())
			for k := range c {
				c[k] *= alpha
			}
			software.Put(dst, x, y, c)
		}
	}
}

func (highPassProgram) FragmentWGSL() string {
	return `@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let texel = textureSample(t_source, linear_sampler, in.uv);
    let v = dot(texel.rgb, vec3<f32>(0.2126, 0.7152, 0.0722));
    let alpha = smoothstep(params.threshold, params.threshold + params.smoothWidth, v);
    return mix(vec4<f32>(0.0), texel, alpha);
}
`
}

// blurProgram blurs at half resolution: downsample, gaussian, upsample.
type blurProgram struct{ renderer.ProgramInfo }

func (blurProgram) Shade(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader) error {
	src := inputs[0]
	db := dst.Bounds()
	half := image.NewRGBA(image.Rect(0, 0, max(db.Dx()/2, 1), max(db.Dy()/2, 1)))
	draw.BiLinear.Scale(half, half.Bounds(), src, src.Bounds(), draw.Src, nil)

	sigma := 2 + float64(common.Clamp(renderer.Float(u, ParamRadius), 0, 1))*8
	blurred := blur.Gaussian(half, sigma)

	draw.BiLinear.Scale(dst, db, blurred, blurred.Bounds(), draw.Src, nil)
	return nil
}

func (blurProgram) FragmentWGSL() string {
	return `@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let texel = (1.0 + params.radius * 8.0) / vec2<f32>(textureDimensions(t_source));
    var weights = array<f32, 5>(0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216);
    var sum = textureSample(t_source, linear_sampler, in.uv) * weights[0];
    for (var i = 1; i < 5; i++) {
        let o = texel * f32(i);
        let w = weights[i] * 0.5;
        sum += textureSample(t_source, linear_sampler, in.uv + vec2<f32>(o.x, 0.0)) * w;
        sum += textureSample(t_source, linear_sampler, in.uv - vec2<f32>(o.x, 0.0)) * w;
        sum += textureSample(t_source, linear_sampler, in.uv + vec2<f32>(0.0, o.y)) * w;
        sum += textureSample(t_source, linear_sampler, in.uv - vec2<f32>(0.0, o.y)) * w;
    }
    return sum;
}
`
}

type bloomCompositeProgram struct{ renderer.ProgramInfo }

func (bloomCompositeProgram) ShadeRows(dst *image.RGBA, inputs []*image.RGBA, u renderer.UniformReader, y0, y1 int) {
	scene, bloom := inputs[0], inputs[1]
	strength := renderer.Float(u, ParamStrength)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := y0; y < y1; y++ {
		for x := range w {
			s := software.Texel(scene, x, y, w, h)
			b := software.Texel(bloom, x, y, w, h)
			for k := range 3 {
				s[k] += b[k] * strength
			}
			software.Put(dst, x, y, s)
		}
	}
}

func (bloomCompositeProgram) FragmentWGSL() string {
	return `@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let scene = textureSample(t_scene, linear_sampler, in.uv);
    let bloom = textureSample(t_bloom, linear_sampler, in.uv);
    return vec4<f32>(scene.rgb + bloom.rgb * params.strength, scene.a);
}
`
}

func smoothstep(edge0, edge1, x float32) float32 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := common.Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}
