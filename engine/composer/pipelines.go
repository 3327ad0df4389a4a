package composer

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

// Pass and buffer names used by the pipeline helpers.
const (
	PassRender = "render"
	PassBlend  = "blend"
	PassSave   = "save"
	PassCopy   = "copy"

	HistoryBuffer = "history"
)

// NewLinearPipeline assembles render → effects → copy.
//
// Parameters:
//   - r: the renderer
//   - scene: the scene program drawn by the render pass
//   - effects: stateless passes run between render and copy, in order
//
// Returns:
//   - Composer: the assembled composer
//   - error: the first AddPass error
func NewLinearPipeline(r renderer.Renderer, scene renderer.Program, effects ...Pass) (Composer, error) {
	c := NewComposer(r)
	passes := append([]Pass{NewRenderPass(PassRender, scene)}, effects...)
	passes = append(passes, NewCopyPass(PassCopy))
	for _, p := range passes {
		if err := c.AddPass(p); err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}

// NewFeedbackPipeline assembles the motion blur shape: render → effects → blend → save → copy.
// The blend pass mixes the current frame with the history buffer, the save pass writes
// the blended result back into it, and copy shows the blended result.
//
// Parameters:
//   - r: the renderer
//   - scene: the scene program drawn by the render pass
//   - mixRatio: initial history weight in [0, 1]
//   - effects: stateless passes run between render and blend, in order
//
// Returns:
//   - Composer: the assembled composer; the blend pass is reachable as Pass(PassBlend)
//   - error: the first AddPass error
func NewFeedbackPipeline(r renderer.Renderer, scene renderer.Program, mixRatio float32, effects ...Pass) (Composer, error) {
	c := NewComposer(r)
	if _, err := c.AddFeedbackBuffer(HistoryBuffer); err != nil {
		return nil, err
	}
	passes := append([]Pass{NewRenderPass(PassRender, scene)}, effects...)
	passes = append(passes,
		NewBlendPass(PassBlend, HistoryBuffer, mixRatio),
		NewSavePass(PassSave, HistoryBuffer),
		NewCopyPass(PassCopy),
	)
	for _, p := range passes {
		if err := c.AddPass(p); err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}
