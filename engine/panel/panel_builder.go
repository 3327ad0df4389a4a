package panel

// PanelBuilderOption is a functional option for configuring a Panel.
type PanelBuilderOption func(*panel)

// WithQueueLimit caps the number of documents held for Drain. When full, the oldest is dropped.
// Zero or less means unbounded.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - PanelBuilderOption: functional option to set the queue limit
func WithQueueLimit(n int) PanelBuilderOption {
	return func(p *panel) {
		p.queueLimit = max(n, 0)
	}
}
