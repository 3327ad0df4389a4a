package composer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
)

var (
	// ErrNoTerminalPass is returned when a non-empty composer has no pass writing the display.
	ErrNoTerminalPass = errors.New("no terminal pass")

	// ErrMultipleTerminalPasses is returned when a second terminal pass is added.
	ErrMultipleTerminalPasses = errors.New("more than one terminal pass")

	// ErrDuplicatePass is returned when a pass name is already in use.
	ErrDuplicatePass = errors.New("duplicate pass name")

	// ErrUnknownSource is returned when an input names a pass that is not an earlier pass,
	// or reads the previous output with nothing before it.
	ErrUnknownSource = errors.New("unknown input source")

	// ErrSelfRead is returned when a pass reads its own output.
	ErrSelfRead = errors.New("pass reads its own output")

	// ErrUnknownFeedback is returned when an input or save pass names a missing feedback buffer.
	ErrUnknownFeedback = errors.New("unknown feedback buffer")

	// ErrDuplicateFeedback is returned when a feedback buffer name is already in use.
	ErrDuplicateFeedback = errors.New("duplicate feedback buffer")

	// ErrAfterTerminal is returned when a pass other than a feedback writer follows the terminal pass.
	ErrAfterTerminal = errors.New("only feedback writers may follow the terminal pass")
)

// composer is the implementation of the Composer interface.
type composer struct {
	mu *sync.Mutex

	r      renderer.Renderer
	passes []Pass
	byName map[string]int

	feedback      map[string]*FeedbackBuffer
	feedbackOrder []string

	width, height int

	pendingFeedback []string
	pendingPasses   []Pass
}

// Composer is an ordered pass graph executed once per frame. Passes run in insertion order;
// each input is an explicit edge to the previous output, a named earlier pass, or a feedback buffer.
type Composer interface {
	// AddPass validates and appends a pass, links its programs and sizes its targets.
	//
	// Parameters:
	//   - p: the pass to append
	//
	// Returns:
	//   - error: a validation, link or allocation error; the pass is not added on error
	AddPass(p Pass) error

	// AddFeedbackBuffer creates a persistent buffer that survives across frames.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - *FeedbackBuffer: the new buffer
	//   - error: ErrDuplicateFeedback or an allocation error
	AddFeedbackBuffer(name string) (*FeedbackBuffer, error)

	// Passes returns the passes in execution order.
	//
	// Returns:
	//   - []Pass: a copy of the pass list
	Passes() []Pass

	// Pass returns the named pass, or nil.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - Pass: the pass, or nil
	Pass(name string) Pass

	// Feedback returns the named feedback buffer, or nil.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - *FeedbackBuffer: the buffer, or nil
	Feedback(name string) *FeedbackBuffer

	// Len returns the number of passes.
	//
	// Returns:
	//   - int: the pass count
	Len() int

	// Validate checks that a non-empty composer has exactly one terminal pass.
	//
	// Returns:
	//   - error: ErrNoTerminalPass, ErrMultipleTerminalPasses, or nil
	Validate() error

	// Execute runs every enabled pass in order inside one backend frame. With no passes it
	// does nothing and submits nothing.
	//
	// Returns:
	//   - error: the first validation or pass error
	Execute() error

	// SetSize recreates every pass target and feedback buffer at the new size.
	// Feedback contents are dropped.
	//
	// Parameters:
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - error: an error if the size is invalid or allocation fails
	SetSize(width, height int) error

	// Size returns the current target size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// Release frees every pass target and feedback buffer.
	Release()
}

var _ Composer = &composer{}

// NewComposer creates a Composer submitting through r. Targets are sized to the renderer's
// display unless WithSize is given. Construction panics if a WithPass or WithFeedbackBuffer
// option fails.
//
// Parameters:
//   - r: the renderer passes submit to
//   - options: functional options to configure the Composer
//
// Returns:
//   - Composer: the new composer
func NewComposer(r renderer.Renderer, options ...ComposerBuilderOption) Composer {
	if r == nil {
		panic("composer: renderer is nil")
	}
	c := &composer{
		mu:       &sync.Mutex{},
		r:        r,
		byName:   make(map[string]int),
		feedback: make(map[string]*FeedbackBuffer),
	}
	c.width, c.height = r.Size()

	for _, opt := range options {
		opt(c)
	}

	for _, name := range c.pendingFeedback {
		if _, err := c.AddFeedbackBuffer(name); err != nil {
			panic(fmt.Sprintf("composer: %v", err))
		}
	}
	for _, p := range c.pendingPasses {
		if err := c.AddPass(p); err != nil {
			panic(fmt.Sprintf("composer: %v", err))
		}
	}
	c.pendingFeedback, c.pendingPasses = nil, nil
	return c
}

func (c *composer) AddPass(p Pass) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := p.Name()
	if _, exists := c.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePass, name)
	}

	for _, in := range p.Inputs() {
		switch in.From.Kind {
		case SourcePrevious:
			if len(c.passes) == 0 {
				return fmt.Errorf("%w: pass %q input %q reads the previous output but is first", ErrUnknownSource, name, in.Name)
			}
		case SourcePass:
			if in.From.Name == name {
				return fmt.Errorf("%w: pass %q input %q", ErrSelfRead, name, in.Name)
			}
			if _, ok := c.byName[in.From.Name]; !ok {
				return fmt.Errorf("%w: pass %q input %q reads %s", ErrUnknownSource, name, in.Name, in.From)
			}
		case SourceFeedback:
			if _, ok := c.feedback[in.From.Name]; !ok {
				return fmt.Errorf("%w: pass %q input %q reads %s", ErrUnknownFeedback, name, in.Name, in.From)
			}
		}
	}

	fw, writesFeedback := p.(FeedbackWriter)
	if writesFeedback {
		if _, ok := c.feedback[fw.FeedbackTarget()]; !ok {
			return fmt.Errorf("%w: pass %q writes %q", ErrUnknownFeedback, name, fw.FeedbackTarget())
		}
	}
	if t := c.terminal(); t != nil {
		if p.Terminal() {
			return fmt.Errorf("%w: %q and %q", ErrMultipleTerminalPasses, t.Name(), name)
		}
		if !writesFeedback {
			return fmt.Errorf("%w: %q follows %q", ErrAfterTerminal, name, t.Name())
		}
	}

	if pp, ok := p.(ProgramProvider); ok {
		if err := c.r.RegisterPrograms(pp.Programs()...); err != nil {
			return fmt.Errorf("pass %q: %w", name, err)
		}
	}
	if c.width > 0 && c.height > 0 {
		if err := p.SetSize(c.r, c.width, c.height); err != nil {
			return err
		}
	}

	c.byName[name] = len(c.passes)
	c.passes = append(c.passes, p)
	common.Logger().Debug("pass added", "pass", name, "index", len(c.passes)-1, "terminal", p.Terminal())
	return nil
}

func (c *composer) terminal() Pass {
	for _, p := range c.passes {
		if p.Terminal() {
			return p
		}
	}
	return nil
}

func (c *composer) AddFeedbackBuffer(name string) (*FeedbackBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.feedback[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateFeedback, name)
	}
	fb := &FeedbackBuffer{name: name}
	if c.width > 0 && c.height > 0 {
		if err := fb.recreate(c.r, c.width, c.height); err != nil {
			return nil, err
		}
	}
	c.feedback[name] = fb
	c.feedbackOrder = append(c.feedbackOrder, name)
	return fb, nil
}

func (c *composer) Passes() []Pass {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Pass, len(c.passes))
	copy(out, c.passes)
	return out
}

func (c *composer) Pass(name string) Pass {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.byName[name]
	if !ok {
		return nil
	}
	return c.passes[i]
}

func (c *composer) Feedback(name string) *FeedbackBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback[name]
}

func (c *composer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.passes)
}

func (c *composer) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate()
}

func (c *composer) validate() error {
	if len(c.passes) == 0 {
		return nil
	}
	var terminals []string
	for _, p := range c.passes {
		if p.Terminal() {
			terminals = append(terminals, p.Name())
		}
	}
	switch len(terminals) {
	case 0:
		return ErrNoTerminalPass
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrMultipleTerminalPasses, terminals)
	}
}

func (c *composer) Execute() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.passes) == 0 {
		return nil
	}
	if err := c.validate(); err != nil {
		return err
	}
	if err := c.r.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	ctx := &PassContext{
		Renderer: c.r,
		Display:  c.r.DisplaySurface(),
		feedback: c.feedback,
	}
	outputs := make(map[string]renderer.Surface, len(c.passes))
	var previous renderer.Surface

	for _, p := range c.passes {
		if !p.Enabled() {
			outputs[p.Name()] = previous
			continue
		}

		inputs := make(map[string]renderer.Surface, len(p.Inputs()))
		for _, in := range p.Inputs() {
			var s renderer.Surface
			switch in.From.Kind {
			case SourcePrevious:
				s = previous
			case SourcePass:
				s = outputs[in.From.Name]
			case SourceFeedback:
				if fb := c.feedback[in.From.Name]; fb != nil {
					s = fb.Surface()
				}
			}
			if s == nil {
				return errors.Join(fmt.Errorf("pass %q: input %q from %s has no surface", p.Name(), in.Name, in.From), c.r.EndFrame())
			}
			inputs[in.Name] = s
		}
		ctx.inputs = inputs

		out, err := p.Render(ctx)
		if err != nil {
			// close the frame so the backend does not hold an unpresented surface
			return errors.Join(fmt.Errorf("pass %q: %w", p.Name(), err), c.r.EndFrame())
		}
		outputs[p.Name()] = out
		previous = out
	}

	if err := c.r.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

func (c *composer) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid composer size %dx%d", width, height)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.width, c.height = width, height
	for _, name := range c.feedbackOrder {
		if err := c.feedback[name].recreate(c.r, width, height); err != nil {
			return err
		}
	}
	for _, p := range c.passes {
		if err := p.SetSize(c.r, width, height); err != nil {
			return err
		}
	}
	common.Logger().Debug("composer resized", "width", width, "height", height, "passes", len(c.passes))
	return nil
}

func (c *composer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *composer) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.passes {
		p.Release(c.r)
	}
	for _, name := range c.feedbackOrder {
		c.feedback[name].release(c.r)
	}
}
