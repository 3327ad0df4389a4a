package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*profiler)

// WithUpdateInterval sets how often stats are logged. Values <= 0 keep the default of one second.
//
// Parameters:
//   - interval: the log interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogging enables or disables the periodic stats line.
func WithLogging(enabled bool) ProfilerBuilderOption {
	return func(p *profiler) {
		p.logging = enabled
	}
}

// WithHistory sets how many frame deltas are kept for FPS and the overlay graph.
//
// Parameters:
//   - frames: the history length, values < 1 are ignored
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithHistory(frames int) ProfilerBuilderOption {
	return func(p *profiler) {
		if frames > 0 {
			p.history = make([]float64, frames)
		}
	}
}

// WithOverlaySize sets the pixel size of the image returned by Overlay.
func WithOverlaySize(width, height int) ProfilerBuilderOption {
	return func(p *profiler) {
		if width > 0 && height > 0 {
			p.overlayWidth, p.overlayHeight = width, height
		}
	}
}

// WithNow replaces the wall clock used for the log interval.
func WithNow(now func() time.Time) ProfilerBuilderOption {
	return func(p *profiler) {
		if now != nil {
			p.now = now
		}
	}
}
