package webgpu

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option for configuring a webgpu Backend.
type BackendBuilderOption func(*wgpuRendererBackendImpl)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: if true, the fallback adapter is requested
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.forceFallback = force
	}
}

// WithPresentMode sets the initial present mode. Defaults to VSync.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithPresentMode(mode renderer.PresentMode) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		if mode == renderer.PresentModeUncapped {
			b.presentMode = wgpu.PresentModeImmediate
		} else {
			b.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithClearColor sets the color geometry passes clear their target to.
//
// Parameters:
//   - r, g, bl, a: the clear color components in [0, 1]
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithClearColor(r, g, bl, a float64) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	}
}
