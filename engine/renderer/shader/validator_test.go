package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNagaValidator_RejectsBrokenSource(t *testing.T) {
	v := NewNagaValidator()
	err := v.Validate("broken", "@fragment fn fs_main( -> {")
	assert.ErrorIs(t, err, ErrInvalidShader)
	assert.ErrorContains(t, err, "broken")
}

func TestNagaValidator_AcceptsMinimalModule(t *testing.T) {
	src := `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
	assert.NoError(t, NewNagaValidator().Validate("minimal", src))
}

func TestValidatorFunc(t *testing.T) {
	sentinel := errors.New("nope")
	var seen string
	v := ValidatorFunc(func(label, _ string) error {
		seen = label
		return sentinel
	})
	assert.ErrorIs(t, v.Validate("material", ""), sentinel)
	assert.Equal(t, "material", seen)
}
