package shader

import "sort"

// Stage identifies the shader stage an anchor lives in.
type Stage int

const (
	// StageVertex is the vertex stage, the half of a template ending in vs_main.
	StageVertex Stage = iota

	// StageFragment is the fragment stage, the half of a template ending in fs_main.
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Anchor is a named insertion point in a template stage.
type Anchor struct {
	Name  string
	Stage Stage
}

// Marker returns the annotation line that declares the anchor in a template.
func (a Anchor) Marker() string {
	return Marker(a.Name)
}

const (
	// AnchorCommonPars sits at module scope ahead of vs_main. Both stages are linked into
	// one module, so declarations injected here are visible to the fragment stage too.
	AnchorCommonPars = "common_pars"

	// AnchorDisplacementParsVertex sits at module scope, for vertex-stage helper functions.
	AnchorDisplacementParsVertex = "displacementmap_pars_vertex"

	// AnchorDisplacementVertex sits inside vs_main after `transformed` and `object_normal`
	// are declared and before they are projected.
	AnchorDisplacementVertex = "displacementmap_vertex"

	// AnchorBumpParsFragment sits at module scope, for fragment-stage helper functions.
	AnchorBumpParsFragment = "bumpmap_pars_fragment"

	// AnchorColorFragment sits inside fs_main after `diffuse_color` is declared.
	AnchorColorFragment = "color_fragment"

	// AnchorNormalFragmentMaps sits inside fs_main after `normal` is declared and before lighting.
	AnchorNormalFragmentMaps = "normal_fragment_maps"
)

var standardAnchors = map[string]Anchor{
	AnchorCommonPars:             {Name: AnchorCommonPars, Stage: StageVertex},
	AnchorDisplacementParsVertex: {Name: AnchorDisplacementParsVertex, Stage: StageVertex},
	AnchorDisplacementVertex:     {Name: AnchorDisplacementVertex, Stage: StageVertex},
	AnchorBumpParsFragment:       {Name: AnchorBumpParsFragment, Stage: StageFragment},
	AnchorColorFragment:          {Name: AnchorColorFragment, Stage: StageFragment},
	AnchorNormalFragmentMaps:     {Name: AnchorNormalFragmentMaps, Stage: StageFragment},
}

// LookupAnchor returns the registered anchor with the given name.
//
// Parameters:
//   - name: the anchor name
//
// Returns:
//   - Anchor: the anchor
//   - bool: false if no anchor is registered under name
func LookupAnchor(name string) (Anchor, bool) {
	a, ok := standardAnchors[name]
	return a, ok
}

// Anchors returns every registered anchor of the given stage, sorted by name.
func Anchors(stage Stage) []Anchor {
	var out []Anchor
	for _, a := range standardAnchors {
		if a.Stage == stage {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
