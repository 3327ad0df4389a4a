package composer

import "fmt"

// SourceKind says where a pass input comes from.
type SourceKind int

const (
	// SourcePrevious is the output of the closest enabled pass before this one.
	SourcePrevious SourceKind = iota

	// SourcePass is the output of a named earlier pass in the same frame.
	SourcePass

	// SourceFeedback is a named feedback buffer, holding what a save pass wrote last frame
	// (or earlier in this frame if the save pass already ran).
	SourceFeedback
)

// Source is the origin of one pass input: an edge in the pass graph.
type Source struct {
	Kind SourceKind
	Name string
}

// FromPrevious sources an input from the previous pass output.
func FromPrevious() Source {
	return Source{Kind: SourcePrevious}
}

// FromPass sources an input from the output of a named earlier pass.
func FromPass(name string) Source {
	return Source{Kind: SourcePass, Name: name}
}

// FromFeedback sources an input from a named feedback buffer.
func FromFeedback(buffer string) Source {
	return Source{Kind: SourceFeedback, Name: buffer}
}

func (s Source) String() string {
	switch s.Kind {
	case SourcePass:
		return fmt.Sprintf("pass(%s)", s.Name)
	case SourceFeedback:
		return fmt.Sprintf("feedback(%s)", s.Name)
	default:
		return "previous"
	}
}

// Input is a named pass input and where it is sourced from. Names match the inputs of the
// pass program, in the same order.
type Input struct {
	Name string
	From Source
}
