package software

// BackendBuilderOption is a functional option for configuring a software Backend.
type BackendBuilderOption func(*backend)

// WithWorkers sets how many workers shade row bands in parallel. Values <= 1 shade inline.
//
// Parameters:
//   - n: the worker count (default runtime.NumCPU())
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithWorkers(n int) BackendBuilderOption {
	return func(b *backend) {
		b.workers = n
	}
}

// WithBandHeight sets how many rows each worker task shades.
//
// Parameters:
//   - rows: rows per band (default 32)
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithBandHeight(rows int) BackendBuilderOption {
	return func(b *backend) {
		if rows > 0 {
			b.bandHeight = rows
		}
	}
}

// WithSubmitObserver registers a callback invoked after every pass with copies of the
// pass inputs and output. Copying costs a full image per input, so use it for tests and capture only.
//
// Parameters:
//   - fn: the observer
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithSubmitObserver(fn func(Submission)) BackendBuilderOption {
	return func(b *backend) {
		b.observer = fn
	}
}

// WithUninitialized builds a backend that reports Initialized() == false and rejects
// every frame, standing in for a GPU backend that failed to acquire a device.
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithUninitialized() BackendBuilderOption {
	return func(b *backend) {
		b.initialized = false
	}
}
