package panel

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrUnknownControl is returned when a path names no bound control.
	ErrUnknownControl = errors.New("panel: unknown control")

	// ErrTypeMismatch is returned when a value cannot be assigned to a control.
	ErrTypeMismatch = errors.New("panel: type mismatch")

	// ErrDuplicateControl is returned when a path is bound twice.
	ErrDuplicateControl = errors.New("panel: duplicate control")

	// ErrAlreadyWatching is returned by Watch when a file is already being watched.
	ErrAlreadyWatching = errors.New("panel: already watching a file")
)

type controlKind int

const (
	controlFloat controlKind = iota
	controlBool
)

// Control is a named binding to a live value.
type Control struct {
	folder string
	name   string
	kind   controlKind

	min, max float32
	getFloat func() float32
	setFloat func(float32)
	getBool  func() bool
	setBool  func(bool)

	onChange []func()
}

// Path returns the control's address, "folder.name", or just the name for top-level controls.
func (c *Control) Path() string {
	return joinPath(c.folder, c.name)
}

// Range returns the bounds numeric values are clamped to. Boolean controls return 0, 1.
func (c *Control) Range() (float32, float32) {
	if c.kind == controlBool {
		return 0, 1
	}
	return c.min, c.max
}

// OnChange registers a callback run after the value changes through the panel.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - *Control: the control, for chaining
func (c *Control) OnChange(fn func()) *Control {
	c.onChange = append(c.onChange, fn)
	return c
}

// Value returns the current value: float32 or bool.
func (c *Control) Value() any {
	if c.kind == controlBool {
		return c.getBool()
	}
	return c.getFloat()
}

func (c *Control) set(v any) (bool, error) {
	switch c.kind {
	case controlBool:
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("%w: %s wants a bool, got %T", ErrTypeMismatch, c.Path(), v)
		}
		if c.getBool() == b {
			return false, nil
		}
		c.setBool(b)
	default:
		f, ok := toFloat(v)
		if !ok {
			return false, fmt.Errorf("%w: %s wants a number, got %T", ErrTypeMismatch, c.Path(), v)
		}
		f = common.Clamp(f, c.min, c.max)
		if c.getFloat() == f {
			return false, nil
		}
		c.setFloat(f)
	}
	for _, fn := range c.onChange {
		fn()
	}
	return true, nil
}

func toFloat(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	default:
		return 0, false
	}
}

func joinPath(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "." + name
}

type pending struct {
	source string
	data   []byte
	err    error
}

// panel is the implementation of the Panel interface.
type panel struct {
	mu *sync.Mutex

	controls map[string]*Control
	order    []string

	queue      []pending
	queueLimit int
	watcher    *fsnotify.Watcher
	done    chan struct{}
	wg      *sync.WaitGroup
}

// Panel is a control panel of named, ranged bindings to live values. Values change
// immediately through Set and ApplyTOML; updates read from a watched file are queued
// and applied by Drain, which the render loop calls from its own goroutine.
type Panel interface {
	// Float binds a numeric control to a live field.
	//
	// Parameters:
	//   - folder: the group the control is listed under, may be empty
	//   - name: the control name
	//   - ptr: the field to read and write
	//   - min, max: the range values are clamped to
	//
	// Returns:
	//   - *Control: the new control
	Float(folder, name string, ptr *float32, min, max float32) *Control

	// FloatFunc binds a numeric control through accessor functions.
	//
	// Parameters:
	//   - folder: the group the control is listed under, may be empty
	//   - name: the control name
	//   - get: reads the current value
	//   - set: writes a new value
	//   - min, max: the range values are clamped to
	//
	// Returns:
	//   - *Control: the new control
	FloatFunc(folder, name string, get func() float32, set func(float32), min, max float32) *Control

	// Bool binds a toggle to a live field.
	Bool(folder, name string, ptr *bool) *Control

	// BoolFunc binds a toggle through accessor functions.
	BoolFunc(folder, name string, get func() bool, set func(bool)) *Control

	// Control returns the control at path, or nil.
	Control(path string) *Control

	// Paths returns every control path in binding order.
	Paths() []string

	// Set assigns a value to the control at path, clamping numbers to the control's range.
	// Change callbacks run only when the value actually changes.
	//
	// Parameters:
	//   - path: the control path
	//   - value: a number (float32, float64, int, int64) or a bool
	//
	// Returns:
	//   - error: ErrUnknownControl or ErrTypeMismatch
	Set(path string, value any) error

	// ApplyTOML sets every control named in a TOML document. Tables are folders, keys are
	// control names. Every valid entry is applied even when others fail.
	//
	// Parameters:
	//   - data: the TOML document
	//
	// Returns:
	//   - error: the joined errors of all failing entries
	ApplyTOML(data []byte) error

	// Snapshot encodes the current values in the format ApplyTOML reads.
	//
	// Returns:
	//   - []byte: the TOML document
	//   - error: an encoding error
	Snapshot() ([]byte, error)

	// Watch loads path now and again whenever it is written. Loaded documents are queued
	// until Drain.
	//
	// Parameters:
	//   - path: the TOML file to watch
	//
	// Returns:
	//   - error: an error if the watcher could not be started
	Watch(path string) error

	// Drain applies queued documents in arrival order.
	//
	// Returns:
	//   - int: the number of documents applied
	//   - error: the joined read and apply errors
	Drain() (int, error)

	// Close stops watching. It is safe to call more than once.
	Close() error
}

var _ Panel = &panel{}

// NewPanel creates an empty Panel.
//
// Parameters:
//   - options: variadic list of PanelBuilderOption functions
//
// Returns:
//   - Panel: the new panel
func NewPanel(options ...PanelBuilderOption) Panel {
	p := &panel{
		mu:       &sync.Mutex{},
		controls: make(map[string]*Control),
		wg:       &sync.WaitGroup{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *panel) add(c *Control) *Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	path := c.Path()
	if _, exists := p.controls[path]; exists {
		panic(fmt.Sprintf("panel: %v: %s", ErrDuplicateControl, path))
	}
	p.controls[path] = c
	p.order = append(p.order, path)
	return c
}

func (p *panel) Float(folder, name string, ptr *float32, min, max float32) *Control {
	return p.FloatFunc(folder, name, func() float32 { return *ptr }, func(v float32) { *ptr = v }, min, max)
}

func (p *panel) FloatFunc(folder, name string, get func() float32, set func(float32), min, max float32) *Control {
	if min > max {
		min, max = max, min
	}
	return p.add(&Control{folder: folder, name: name, kind: controlFloat, min: min, max: max, getFloat: get, setFloat: set})
}

func (p *panel) Bool(folder, name string, ptr *bool) *Control {
	return p.BoolFunc(folder, name, func() bool { return *ptr }, func(v bool) { *ptr = v })
}

func (p *panel) BoolFunc(folder, name string, get func() bool, set func(bool)) *Control {
	return p.add(&Control{folder: folder, name: name, kind: controlBool, getBool: get, setBool: set})
}

func (p *panel) Control(path string) *Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controls[path]
}

func (p *panel) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

func (p *panel) Set(path string, value any) error {
	c := p.Control(path)
	if c == nil {
		return fmt.Errorf("%w: %q", ErrUnknownControl, path)
	}
	changed, err := c.set(value)
	if err != nil {
		return err
	}
	if changed {
		common.Logger().Debug("panel control changed", "path", path, "value", c.Value())
	}
	return nil
}

func (p *panel) ApplyTOML(data []byte) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("panel: decode: %w", err)
	}

	var errs []error
	for _, key := range sortedKeys(doc) {
		table, isTable := doc[key].(map[string]any)
		if !isTable {
			errs = append(errs, p.Set(key, doc[key]))
			continue
		}
		for _, name := range sortedKeys(table) {
			errs = append(errs, p.Set(joinPath(key, name), table[name]))
		}
	}
	return errors.Join(errs...)
}

func (p *panel) Snapshot() ([]byte, error) {
	doc := make(map[string]any)
	for _, path := range p.Paths() {
		c := p.Control(path)
		if c.folder == "" {
			doc[c.name] = c.Value()
			continue
		}
		table, ok := doc[c.folder].(map[string]any)
		if !ok {
			table = make(map[string]any)
			doc[c.folder] = table
		}
		table[c.name] = c.Value()
	}
	return toml.Marshal(doc)
}

func (p *panel) enqueue(item pending) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queueLimit > 0 && len(p.queue) >= p.queueLimit {
		common.Logger().Warn("panel queue full, dropping oldest update", "source", p.queue[0].source)
		p.queue = p.queue[1:]
	}
	p.queue = append(p.queue, item)
}

func (p *panel) Drain() (int, error) {
	p.mu.Lock()
	queue := p.queue
	p.queue = nil
	p.mu.Unlock()

	applied := 0
	var errs []error
	for _, item := range queue {
		if item.err != nil {
			errs = append(errs, item.err)
			continue
		}
		if err := p.ApplyTOML(item.data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.source, err))
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String lists the controls and their values, one per line.
func (p *panel) String() string {
	var sb strings.Builder
	for _, path := range p.Paths() {
		fmt.Fprintf(&sb, "%s = %v\n", path, p.Control(path).Value())
	}
	return sb.String()
}
