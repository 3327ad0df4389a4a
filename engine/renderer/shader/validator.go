package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrInvalidShader wraps compiler diagnostics for a module that failed validation.
var ErrInvalidShader = errors.New("shader: invalid WGSL")

// Validator checks a complete WGSL module before it is handed to a backend.
type Validator interface {
	// Validate compiles or parses source and reports the first problem.
	//
	// Parameters:
	//   - label: a name used in the error message
	//   - source: the complete WGSL module
	//
	// Returns:
	//   - error: ErrInvalidShader wrapping the diagnostic, or nil
	Validate(label, source string) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(label, source string) error

func (f ValidatorFunc) Validate(label, source string) error { return f(label, source) }

// nagaValidator compiles WGSL to SPIR-V with naga and discards the output.
type nagaValidator struct{}

var _ Validator = nagaValidator{}

// NewNagaValidator creates a Validator backed by the pure Go naga compiler, so injected
// sources are checked without a GPU device.
//
// Returns:
//   - Validator: the validator
func NewNagaValidator() Validator {
	return nagaValidator{}
}

func (nagaValidator) Validate(label, source string) error {
	spirv, err := naga.Compile(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidShader, label, err)
	}
	if len(spirv) == 0 {
		return fmt.Errorf("%w: %s: empty SPIR-V output", ErrInvalidShader, label)
	}
	return nil
}
