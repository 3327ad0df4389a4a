// annotations.go defines the annotation parser for oxy-fx WGSL templates. Annotations are
// single-line WGSL comments prefixed with @oxy: that mark injection anchors and pull in
// registered source chunks. Because they are comments, an annotated template is still
// valid WGSL before and after processing.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeAnchor declares a named insertion point. The line is kept in the output
	// and injected fragments are placed directly below it.
	//
	// Syntax: //@oxy:anchor <anchor_name>
	//
	// Example: //@oxy:anchor displacementmap_vertex
	AnnotationTypeAnchor AnnotationType = "anchor"

	// annotationTypeInclude is replaced by the source of a registered chunk.
	//
	// Syntax: //@oxy:include <chunk_name>
	//
	// Example: //@oxy:include noise
	annotationTypeInclude AnnotationType = "include"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Name is the annotation's single argument: the anchor or chunk name.
	Name string

	// Line is the 1-based line number in the source the annotation was found on.
	Line int
}

// parseAnnotation parses one source line. Lines that are not annotations return nil
// without error.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeAnchor:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy anchor annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: AnnotationTypeAnchor, Name: args[1], Line: lineNum}, nil
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: annotationTypeInclude, Name: args[1], Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

// Marker returns the annotation line that declares the named anchor.
//
// Parameters:
//   - name: the anchor name
//
// Returns:
//   - string: the marker line, without a trailing newline
func Marker(name string) string {
	return "//" + annotationPrefix + string(AnnotationTypeAnchor) + " " + name
}
