package composer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

// FeedbackBuffer is a persistent surface carrying one frame's output into the next.
// The composer owns it; a resize recreates it and drops its contents.
type FeedbackBuffer struct {
	name       string
	surface    renderer.Surface
	generation int
}

// Name returns the buffer name used by FromFeedback sources.
func (f *FeedbackBuffer) Name() string { return f.name }

// Surface returns the current backing surface.
func (f *FeedbackBuffer) Surface() renderer.Surface { return f.surface }

// Generation counts how many times the buffer was (re)created.
func (f *FeedbackBuffer) Generation() int { return f.generation }

func (f *FeedbackBuffer) recreate(r renderer.Renderer, width, height int) error {
	if f.surface != nil {
		r.ReleaseSurface(f.surface)
		f.surface = nil
	}
	s, err := r.CreateSurface("feedback:"+f.name, width, height)
	if err != nil {
		return fmt.Errorf("feedback buffer %q: %w", f.name, err)
	}
	f.surface = s
	f.generation++
	return nil
}

func (f *FeedbackBuffer) release(r renderer.Renderer) {
	if f.surface != nil {
		r.ReleaseSurface(f.surface)
		f.surface = nil
	}
}

// BlendPass mixes the current frame with a feedback buffer: mix(current, history, mixRatio).
// A ratio of 0 shows only the current frame; 1 freezes the output on the history.
type BlendPass struct {
	*ShaderPass
	feedback string
}

var _ Pass = &BlendPass{}

// NewBlendPass creates a blend pass reading the previous output and the named feedback buffer.
//
// Parameters:
//   - name: unique pass name
//   - feedback: the feedback buffer holding history
//   - mixRatio: history weight, clamped to [0, 1]
//
// Returns:
//   - *BlendPass: the new pass
func NewBlendPass(name, feedback string, mixRatio float32) *BlendPass {
	p := &BlendPass{
		ShaderPass: newShaderPass(name, BlendProgram, []Input{
			{Name: "current", From: FromPrevious()},
			{Name: "history", From: FromFeedback(feedback)},
		}, nil),
		feedback: feedback,
	}
	p.SetMixRatio(mixRatio)
	return p
}

// MixRatio returns the history weight.
func (p *BlendPass) MixRatio() float32 {
	return p.Param(ParamMixRatio)
}

// SetMixRatio sets the history weight, clamped to [0, 1].
func (p *BlendPass) SetMixRatio(v float32) {
	p.SetParam(ParamMixRatio, common.Clamp01(v))
}

// SavePass copies its input into a feedback buffer and passes the input through unchanged,
// so a following copy pass still sees the same frame.
type SavePass struct {
	name     string
	feedback string
	enabled  bool
}

var _ Pass = &SavePass{}

// NewSavePass creates a pass that writes the previous output into the named feedback buffer.
//
// Parameters:
//   - name: unique pass name
//   - feedback: the feedback buffer to write
//
// Returns:
//   - *SavePass: the new pass
func NewSavePass(name, feedback string) *SavePass {
	return &SavePass{name: name, feedback: feedback, enabled: true}
}

func (p *SavePass) Name() string            { return p.name }
func (p *SavePass) Terminal() bool          { return false }
func (p *SavePass) Enabled() bool           { return p.enabled }
func (p *SavePass) SetEnabled(enabled bool) { p.enabled = enabled }
func (p *SavePass) FeedbackTarget() string  { return p.feedback }

func (p *SavePass) Inputs() []Input {
	return []Input{{Name: "source", From: FromPrevious()}}
}

func (p *SavePass) Programs() []renderer.Program {
	return []renderer.Program{CopyProgram}
}

func (p *SavePass) SetSize(renderer.Renderer, int, int) error { return nil }
func (p *SavePass) Release(renderer.Renderer)                 {}

func (p *SavePass) Render(ctx *PassContext) (renderer.Surface, error) {
	fb := ctx.Feedback(p.feedback)
	if fb == nil || fb.Surface() == nil {
		return nil, fmt.Errorf("save pass %q: feedback buffer %q missing", p.name, p.feedback)
	}
	src := ctx.Input("source")
	if err := ctx.Renderer.SubmitPass(CopyProgram.Key(), []renderer.Surface{src}, fb.Surface(), nil); err != nil {
		return nil, err
	}
	return src, nil
}
