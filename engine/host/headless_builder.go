package host

// HeadlessBuilderOption is a functional option for configuring a Headless display.
type HeadlessBuilderOption func(*headless)

// WithSize sets the initial display size. Non-positive values are ignored.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - HeadlessBuilderOption: option function to apply
func WithSize(width, height int) HeadlessBuilderOption {
	return func(h *headless) {
		if width > 0 && height > 0 {
			h.width, h.height = width, height
		}
	}
}

// WithStartTime sets the timestamp Run counts up from.
func WithStartTime(ms float64) HeadlessBuilderOption {
	return func(h *headless) {
		h.now = ms
	}
}
