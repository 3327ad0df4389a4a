// injector.go implements anchor-based source injection. A template declares named anchors
// with //@oxy:anchor lines; the injector places custom fragments directly below the
// matching anchor and expands //@oxy:include lines from its chunk registry. Unlike plain
// string replacement, a fragment aimed at an anchor the template does not declare is an
// error rather than a silent no-op.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-fx/common"
)

var (
	// ErrAnchorNotFound is returned when an injection names an anchor the source does not declare.
	ErrAnchorNotFound = errors.New("shader: anchor not found")

	// ErrUnknownAnchor is returned when a name is not in the anchor registry.
	ErrUnknownAnchor = errors.New("shader: unknown anchor")

	// ErrDuplicateAnchor is returned when a source declares the same anchor twice.
	ErrDuplicateAnchor = errors.New("shader: duplicate anchor")

	// ErrStageMismatch is returned when a source declares an anchor registered for the other stage.
	ErrStageMismatch = errors.New("shader: anchor declared in the wrong stage")

	// ErrUnknownChunk is returned when an include names a chunk that is not registered.
	ErrUnknownChunk = errors.New("shader: unknown chunk")
)

// Injection is a fragment of WGSL to place directly after an anchor.
type Injection struct {
	Anchor string
	Source string
}

// Source holds the two stages of a template. Both halves are linked into a single module.
type Source struct {
	Vertex   string
	Fragment string
}

// Stage returns the half of the source for the given stage.
func (s Source) Stage(stage Stage) string {
	if stage == StageFragment {
		return s.Fragment
	}
	return s.Vertex
}

// injector is the implementation of the Injector interface.
type injector struct {
	chunks map[string]string
}

// Injector validates anchors and injects custom source into templates.
type Injector interface {
	// Inject places every injection whose anchor belongs to stage directly after that anchor's
	// marker line, then expands include annotations. Repeated injections for one anchor are
	// placed in declaration order. Injections aimed at the other stage are ignored.
	//
	// Parameters:
	//   - stage: the stage source belongs to
	//   - source: the annotated template stage
	//   - injections: the fragments to place
	//
	// Returns:
	//   - string: the processed source
	//   - error: ErrAnchorNotFound naming the anchor and stage when a matching anchor is absent,
	//     or a declaration error (unknown, duplicate or misplaced anchor, unknown chunk)
	Inject(stage Stage, source string, injections []Injection) (string, error)

	// Apply runs Inject over both stages of src.
	//
	// Parameters:
	//   - src: the template
	//   - injections: the fragments to place, for either stage
	//
	// Returns:
	//   - Source: the processed template
	//   - error: the first error from either stage
	Apply(src Source, injections []Injection) (Source, error)

	// Declared lists the anchors source declares, in source order.
	//
	// Parameters:
	//   - stage: the stage source belongs to
	//   - source: the annotated template stage
	//
	// Returns:
	//   - []Annotation: the anchor annotations
	//   - error: a declaration error if the anchors are invalid
	Declared(stage Stage, source string) ([]Annotation, error)

	// Chunk returns the source registered under name.
	Chunk(name string) (string, bool)
}

var _ Injector = &injector{}

// NewInjector creates an Injector with the built-in chunks registered.
//
// Parameters:
//   - options: variadic list of InjectorBuilderOption functions
//
// Returns:
//   - Injector: the new injector
func NewInjector(options ...InjectorBuilderOption) Injector {
	inj := &injector{
		chunks: map[string]string{
			ChunkNoise: noiseChunk,
		},
	}
	for _, opt := range options {
		opt(inj)
	}
	return inj
}

func (inj *injector) Declared(stage Stage, source string) ([]Annotation, error) {
	var out []Annotation
	seen := make(map[string]int)
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return nil, err
		}
		if a == nil || a.Type != AnnotationTypeAnchor {
			continue
		}
		anchor, ok := LookupAnchor(a.Name)
		if !ok {
			return nil, fmt.Errorf("line %d: %w %q", a.Line, ErrUnknownAnchor, a.Name)
		}
		if anchor.Stage != stage {
			return nil, fmt.Errorf("line %d: %w: %q is a %s anchor, found in %s stage", a.Line, ErrStageMismatch, a.Name, anchor.Stage, stage)
		}
		if prev, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("line %d: %w %q (first declared on line %d)", a.Line, ErrDuplicateAnchor, a.Name, prev)
		}
		seen[a.Name] = a.Line
		out = append(out, *a)
	}
	return out, nil
}

func (inj *injector) Inject(stage Stage, source string, injections []Injection) (string, error) {
	declared, err := inj.Declared(stage, source)
	if err != nil {
		return "", err
	}
	present := make(map[string]bool, len(declared))
	for _, a := range declared {
		present[a.Name] = true
	}

	byAnchor := make(map[string][]string)
	for _, in := range injections {
		anchor, ok := LookupAnchor(in.Anchor)
		if !ok {
			return "", fmt.Errorf("%w %q", ErrUnknownAnchor, in.Anchor)
		}
		if anchor.Stage != stage {
			continue
		}
		if !present[in.Anchor] {
			return "", fmt.Errorf("%w: %q in %s stage", ErrAnchorNotFound, in.Anchor, stage)
		}
		byAnchor[in.Anchor] = append(byAnchor[in.Anchor], in.Source)
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		out = append(out, line)
		a, _ := parseAnnotation(line, i+1)
		if a == nil || a.Type != AnnotationTypeAnchor {
			continue
		}
		for _, frag := range byAnchor[a.Name] {
			out = append(out, strings.TrimRight(frag, "\n"))
		}
	}

	expanded, err := inj.expandIncludes(strings.Join(out, "\n"))
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", stage, err)
	}
	common.Logger().Debug("shader injected", "stage", stage.String(), "anchors", len(declared), "fragments", len(injections))
	return expanded, nil
}

func (inj *injector) Apply(src Source, injections []Injection) (Source, error) {
	vertex, err := inj.Inject(StageVertex, src.Vertex, injections)
	if err != nil {
		return Source{}, err
	}
	fragment, err := inj.Inject(StageFragment, src.Fragment, injections)
	if err != nil {
		return Source{}, err
	}
	return Source{Vertex: vertex, Fragment: fragment}, nil
}

func (inj *injector) Chunk(name string) (string, bool) {
	src, ok := inj.chunks[name]
	return src, ok
}

// expandIncludes replaces include annotations with chunk sources. Each chunk is emitted at
// most once per stage; later includes of the same chunk are dropped.
func (inj *injector) expandIncludes(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[string]bool)
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil || a.Type != annotationTypeInclude {
			out = append(out, line)
			continue
		}
		chunk, ok := inj.chunks[a.Name]
		if !ok {
			return "", fmt.Errorf("line %d: %w %q", a.Line, ErrUnknownChunk, a.Name)
		}
		if included[a.Name] {
			continue
		}
		included[a.Name] = true
		out = append(out, strings.TrimRight(chunk, "\n"))
	}
	return strings.Join(out, "\n"), nil
}
