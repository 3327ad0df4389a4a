package renderer

import (
	"fmt"
	"strings"
)

// UniformField is one member of a program's packed uniform block.
type UniformField struct {
	Name   string
	Kind   UniformKind
	Offset int // in bytes
}

// UniformLayout describes how a program's uniforms and parameters are packed into a single
// uniform buffer using WGSL alignment rules (f32 align 4, vec4 and mat4x4 align 16).
type UniformLayout struct {
	Fields []UniformField
	Size   int // in bytes, rounded up to 16
}

// NewUniformLayout builds the packed layout for p. Shared uniform kinds come from the set;
// parameters are always scalars. Shared uniforms come first, then parameters, each in
// declaration order. Names are de-duplicated.
//
// Parameters:
//   - p: the program to lay out
//   - shared: the registry holding the program's shared uniforms
//
// Returns:
//   - UniformLayout: the packed layout
//   - error: ErrUniformNotRegistered if a shared uniform is missing from the set
func NewUniformLayout(p Program, shared *UniformSet) (UniformLayout, error) {
	var l UniformLayout
	seen := make(map[string]bool)
	offset := 0

	add := func(name string, kind UniformKind) {
		if seen[name] {
			return
		}
		seen[name] = true
		align := 4
		if kind != UniformFloat {
			align = 16
		}
		offset = alignUp(offset, align)
		l.Fields = append(l.Fields, UniformField{Name: name, Kind: kind, Offset: offset})
		offset += kind.Components() * 4
	}

	for _, name := range p.Uniforms() {
		u := shared.Uniform(name)
		if u == nil {
			return UniformLayout{}, fmt.Errorf("%w: %q referenced by program %q", ErrUniformNotRegistered, name, p.Key())
		}
		add(name, u.Kind())
	}
	for _, name := range p.Parameters() {
		add(name, UniformFloat)
	}

	l.Size = alignUp(max(offset, 16), 16)
	return l, nil
}

// Pack writes every field's current value into a float32 slice of Size/4 elements.
// Unknown names pack as zero.
//
// Parameters:
//   - r: the reader supplying values
//
// Returns:
//   - []float32: the packed block
func (l UniformLayout) Pack(r UniformReader) []float32 {
	out := make([]float32, l.Size/4)
	for _, f := range l.Fields {
		v, ok := r.Lookup(f.Name)
		if !ok {
			continue
		}
		copy(out[f.Offset/4:f.Offset/4+f.Kind.Components()], v)
	}
	return out
}

// WGSLStruct renders the layout as a WGSL struct declaration. An empty layout gets a
// single padding member since WGSL structs cannot be empty.
//
// Parameters:
//   - name: the struct type name
//
// Returns:
//   - string: the WGSL declaration
func (l UniformLayout) WGSLStruct(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", name)
	if len(l.Fields) == 0 {
		sb.WriteString("    _pad: f32,\n")
	}
	for _, f := range l.Fields {
		fmt.Fprintf(&sb, "    %s: %s,\n", f.Name, f.Kind.WGSLType())
	}
	sb.WriteString("};\n")
	return sb.String()
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

// FullscreenVertexWGSL draws a single triangle covering the target with uv in [0, 1].
const FullscreenVertexWGSL = `@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var out: VertexOutput;
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    out.position = vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
    out.uv = vec2<f32>(uv.x, 1.0 - uv.y);
    out.normal = vec3<f32>(0.0, 0.0, 1.0);
    out.world = vec3<f32>(0.0);
    return out;
}
`

// TextureBinding returns the binding index of the i-th input texture. Binding 0 is the
// uniform block and binding 1 the shared linear sampler.
func TextureBinding(i int) uint32 {
	return uint32(i + 2)
}

// WGSLPrelude renders the declarations every program module starts with: the Params
// uniform block, the sampler, one texture_2d per input named t_<input>, and VertexOutput.
//
// Parameters:
//   - p: the program
//   - l: the program's uniform layout
//
// Returns:
//   - string: WGSL source
func WGSLPrelude(p Program, l UniformLayout) string {
	var sb strings.Builder
	sb.WriteString(l.WGSLStruct("Params"))
	sb.WriteString("@group(0) @binding(0) var<uniform> params: Params;\n")
	sb.WriteString("@group(0) @binding(1) var linear_sampler: sampler;\n")
	for i, name := range p.Inputs() {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var t_%s: texture_2d<f32>;\n", TextureBinding(i), name)
	}
	sb.WriteString(`struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) world: vec3<f32>,
};
`)
	return sb.String()
}

// WGSLModule assembles the complete WGSL module for a program: prelude, vertex stage
// (the program's own or the full-screen triangle) and fragment stage.
//
// Parameters:
//   - p: the program
//   - l: the program's uniform layout
//
// Returns:
//   - string: the module source
//   - bool: false if the program has no fragment stage
func WGSLModule(p Program, l UniformLayout) (string, bool) {
	fp, ok := p.(FragmentProgram)
	if !ok {
		return "", false
	}
	vertex := FullscreenVertexWGSL
	if vp, ok := p.(VertexProgram); ok {
		vertex = vp.VertexWGSL()
	}
	return WGSLPrelude(p, l) + "\n" + vertex + "\n" + fp.FragmentWGSL(), true
}
