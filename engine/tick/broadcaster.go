package tick

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/clock"
)

// Subscriber is a per-frame callback. It may mutate uniforms and other state it captured,
// but must not retain the Frame. A non-nil error halts the frame.
type Subscriber func(frame clock.Frame) error

// Func adapts a callback with no error result into a Subscriber.
//
// Parameters:
//   - fn: the side-effect-only callback
//
// Returns:
//   - Subscriber: a subscriber that always returns nil
func Func(fn func(frame clock.Frame)) Subscriber {
	return func(frame clock.Frame) error {
		fn(frame)
		return nil
	}
}

// Handle identifies a registered subscriber. The zero Handle is never issued.
type Handle uint64

type entry struct {
	handle Handle
	fn     Subscriber
}

// broadcaster is the implementation of the Broadcaster interface.
type broadcaster struct {
	entries []entry
	next    Handle
}

// Broadcaster fans a Frame out to registered subscribers in registration order.
// It is driven from the render loop goroutine only and holds no locks.
type Broadcaster interface {
	// Subscribe registers a callback invoked once per frame.
	// A subscriber added while Notify is running is first called on the next frame.
	//
	// Parameters:
	//   - fn: the subscriber to register
	//
	// Returns:
	//   - Handle: the handle used to unsubscribe
	Subscribe(fn Subscriber) Handle

	// Unsubscribe removes a subscriber. A subscriber removed while Notify is running
	// still receives the current frame and is gone from the next one.
	//
	// Parameters:
	//   - h: the handle returned by Subscribe
	//
	// Returns:
	//   - bool: true if the handle was registered
	Unsubscribe(h Handle) bool

	// Notify calls every subscriber with the frame, in registration order.
	// The first error stops the iteration and is returned; panics are not recovered.
	//
	// Parameters:
	//   - frame: the frame to deliver
	//
	// Returns:
	//   - error: the first subscriber error, wrapped with its handle
	Notify(frame clock.Frame) error

	// Len returns the number of registered subscribers.
	//
	// Returns:
	//   - int: the subscriber count
	Len() int
}

var _ Broadcaster = &broadcaster{}

// NewBroadcaster creates an empty Broadcaster.
//
// Returns:
//   - Broadcaster: the newly created broadcaster
func NewBroadcaster() Broadcaster {
	return &broadcaster{}
}

func (b *broadcaster) Subscribe(fn Subscriber) Handle {
	if fn == nil {
		panic("tick: nil subscriber")
	}
	b.next++
	// Copy-on-write so a Notify in progress keeps iterating its own snapshot.
	entries := make([]entry, len(b.entries), len(b.entries)+1)
	copy(entries, b.entries)
	b.entries = append(entries, entry{handle: b.next, fn: fn})
	return b.next
}

func (b *broadcaster) Unsubscribe(h Handle) bool {
	for i, e := range b.entries {
		if e.handle != h {
			continue
		}
		entries := make([]entry, 0, len(b.entries)-1)
		entries = append(entries, b.entries[:i]...)
		b.entries = append(entries, b.entries[i+1:]...)
		return true
	}
	return false
}

func (b *broadcaster) Notify(frame clock.Frame) error {
	snapshot := b.entries
	for _, e := range snapshot {
		if err := e.fn(frame); err != nil {
			return fmt.Errorf("tick subscriber %d: %w", e.handle, err)
		}
	}
	return nil
}

func (b *broadcaster) Len() int {
	return len(b.entries)
}
