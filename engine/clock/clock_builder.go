package clock

// ClockBuilderOption is a functional option for configuring a Clock.
type ClockBuilderOption func(*clock)

// WithInitialTimestamp sets the timestamp the first Advance call measures against.
//
// Parameters:
//   - ms: the initial timestamp in milliseconds
//
// Returns:
//   - ClockBuilderOption: option function to apply
func WithInitialTimestamp(ms float64) ClockBuilderOption {
	return func(c *clock) {
		c.initial = &ms
	}
}

// WithMaxDelta overrides the delta cap. Values <= 0 keep DefaultMaxDelta.
//
// Parameters:
//   - ms: the largest delta in milliseconds
//
// Returns:
//   - ClockBuilderOption: option function to apply
func WithMaxDelta(ms float64) ClockBuilderOption {
	return func(c *clock) {
		if ms > 0 {
			c.maxDelta = ms
		}
	}
}

// WithTimeSource replaces the function read for the initial timestamp when
// WithInitialTimestamp is not given.
//
// Parameters:
//   - source: returns a monotonic timestamp in milliseconds
//
// Returns:
//   - ClockBuilderOption: option function to apply
func WithTimeSource(source func() float64) ClockBuilderOption {
	return func(c *clock) {
		if source != nil {
			c.timeSource = source
		}
	}
}
