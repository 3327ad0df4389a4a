package renderer

import (
	"fmt"
	"sort"
)

// UniformKind is the shape of a uniform value as seen by the shading stage.
type UniformKind int

const (
	// UniformFloat is a single f32.
	UniformFloat UniformKind = iota

	// UniformVec4 is a vec4<f32>; colors and positions use it (w is padding for vec3 data).
	UniformVec4

	// UniformMat4 is a column-major mat4x4<f32>.
	UniformMat4
)

// Components returns how many float32 values a uniform of this kind holds.
func (k UniformKind) Components() int {
	switch k {
	case UniformVec4:
		return 4
	case UniformMat4:
		return 16
	default:
		return 1
	}
}

// WGSLType returns the WGSL type name for the kind.
func (k UniformKind) WGSLType() string {
	switch k {
	case UniformVec4:
		return "vec4<f32>"
	case UniformMat4:
		return "mat4x4<f32>"
	default:
		return "f32"
	}
}

// Uniform is a named value exposed to the shading stage. Subscribers mutate it during
// the notify step of a frame; passes read it during execution.
type Uniform struct {
	name string
	kind UniformKind
	data [16]float32
}

// Name returns the uniform's name as referenced by shader source.
func (u *Uniform) Name() string { return u.name }

// Kind returns the uniform's shape.
func (u *Uniform) Kind() UniformKind { return u.kind }

// Float returns the first component of the uniform.
func (u *Uniform) Float() float32 { return u.data[0] }

// Data returns the active components of the uniform. The slice aliases the uniform's storage.
func (u *Uniform) Data() []float32 { return u.data[:u.kind.Components()] }

// Set writes a scalar value into the first component.
func (u *Uniform) Set(v float32) { u.data[0] = v }

// SetVec4 writes four components.
func (u *Uniform) SetVec4(v [4]float32) { copy(u.data[:4], v[:]) }

// SetMat4 writes a column-major 4x4 matrix.
func (u *Uniform) SetMat4(m [16]float32) { u.data = m }

// UniformReader resolves uniform values by name for a pass submission.
type UniformReader interface {
	// Lookup returns the components of the named value.
	//
	// Parameters:
	//   - name: the uniform or parameter name
	//
	// Returns:
	//   - []float32: the value's components
	//   - bool: false if no value exists under that name
	Lookup(name string) ([]float32, bool)
}

// Float reads a scalar from r, returning 0 when the name is unknown.
//
// Parameters:
//   - r: the reader to query
//   - name: the value name
//
// Returns:
//   - float32: the first component of the value, or 0
func Float(r UniformReader, name string) float32 {
	if r == nil {
		return 0
	}
	v, ok := r.Lookup(name)
	if !ok || len(v) == 0 {
		return 0
	}
	return v[0]
}

// UniformSet is the registry of shared uniforms. A program may only link once every
// uniform it references is registered here.
type UniformSet struct {
	order  []string
	byName map[string]*Uniform
}

// NewUniformSet creates an empty registry.
//
// Returns:
//   - *UniformSet: the newly created registry
func NewUniformSet() *UniformSet {
	return &UniformSet{byName: make(map[string]*Uniform)}
}

// Register adds a uniform, or returns the existing one when the name is already registered
// with the same kind. Registering a name twice with different kinds panics.
//
// Parameters:
//   - name: the uniform name as referenced by shader source
//   - kind: the uniform's shape
//
// Returns:
//   - *Uniform: the registered uniform
func (s *UniformSet) Register(name string, kind UniformKind) *Uniform {
	if u, ok := s.byName[name]; ok {
		if u.kind != kind {
			panic(fmt.Sprintf("renderer: uniform %q already registered as %s", name, u.kind.WGSLType()))
		}
		return u
	}
	u := &Uniform{name: name, kind: kind}
	s.byName[name] = u
	s.order = append(s.order, name)
	return u
}

// RegisterFloat registers a scalar uniform and sets its initial value if it was newly added.
//
// Parameters:
//   - name: the uniform name
//   - value: the initial value
//
// Returns:
//   - *Uniform: the registered uniform
func (s *UniformSet) RegisterFloat(name string, value float32) *Uniform {
	_, existed := s.byName[name]
	u := s.Register(name, UniformFloat)
	if !existed {
		u.Set(value)
	}
	return u
}

// Uniform returns the named uniform, or nil if it is not registered.
func (s *UniformSet) Uniform(name string) *Uniform {
	return s.byName[name]
}

// Has reports whether a uniform is registered under name.
func (s *UniformSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns the registered names in registration order.
func (s *UniformSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *UniformSet) Lookup(name string) ([]float32, bool) {
	u, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return u.Data(), true
}

// Values holds per-submission scalar parameters supplied by a pass (mix ratio, bloom strength).
type Values map[string]float32

func (v Values) Lookup(name string) ([]float32, bool) {
	f, ok := v[name]
	if !ok {
		return nil, false
	}
	return []float32{f}, true
}

// Keys returns the parameter names in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type overlay []UniformReader

func (o overlay) Lookup(name string) ([]float32, bool) {
	for _, r := range o {
		if r == nil {
			continue
		}
		if v, ok := r.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Overlay combines readers; the first reader that knows a name wins.
//
// Parameters:
//   - readers: readers in priority order
//
// Returns:
//   - UniformReader: the combined reader
func Overlay(readers ...UniformReader) UniformReader {
	return overlay(readers)
}
