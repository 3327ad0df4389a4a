package composer

// ComposerBuilderOption is a functional option applied to a composer during construction via NewComposer.
type ComposerBuilderOption func(*composer)

// WithSize sets the initial target size instead of the renderer's display size.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - ComposerBuilderOption: a function that applies the size option to a composer
func WithSize(width, height int) ComposerBuilderOption {
	return func(c *composer) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithFeedbackBuffer creates a feedback buffer during construction. Buffers are created
// before any WithPass pass is added.
//
// Parameters:
//   - name: the buffer name
//
// Returns:
//   - ComposerBuilderOption: a function that applies the feedback buffer option to a composer
func WithFeedbackBuffer(name string) ComposerBuilderOption {
	return func(c *composer) {
		c.pendingFeedback = append(c.pendingFeedback, name)
	}
}

// WithPass appends a pass during construction, in option order.
//
// Parameters:
//   - p: the pass to append
//
// Returns:
//   - ComposerBuilderOption: a function that applies the pass option to a composer
func WithPass(p Pass) ComposerBuilderOption {
	return func(c *composer) {
		c.pendingPasses = append(c.pendingPasses, p)
	}
}
