package shader

// InjectorBuilderOption is a functional option for configuring an Injector.
type InjectorBuilderOption func(*injector)

// WithChunk registers a source chunk that templates and injections can pull in with
// //@oxy:include <name>. Registering an existing name replaces it.
//
// Parameters:
//   - name: the chunk name
//   - source: the WGSL source of the chunk
//
// Returns:
//   - InjectorBuilderOption: option function to apply
func WithChunk(name, source string) InjectorBuilderOption {
	return func(inj *injector) {
		inj.chunks[name] = source
	}
}
