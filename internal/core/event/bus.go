package event

import (
	"reflect"
	"sync"
)

// Bus is a deferred event bus. Emitted events are buffered and only delivered
// by Flush, so an emitter iterating some structure never sees a handler
// mutate it mid-iteration. Events emitted by handlers during a Flush are
// delivered by the next Flush.
type Bus struct {
	mu       sync.Mutex // protects back and handler registration
	front    []pending
	back     []pending
	handlers map[reflect.Type][]func(any)
}

type pending struct {
	key reflect.Type
	ev  any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event for the next Flush.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeFor[T]()
	b.mu.Lock()
	b.back = append(b.back, pending{key: t, ev: event})
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeFor[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Pending returns the number of events waiting for Flush.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// Flush swaps buffers and delivers every queued event in emission order.
// It returns the number of events delivered.
func (b *Bus) Flush() int {
	b.mu.Lock()
	b.front, b.back = b.back, b.front[:0]
	b.mu.Unlock()

	for _, p := range b.front {
		b.mu.Lock()
		handlers := b.handlers[p.key]
		b.mu.Unlock()
		for _, h := range handlers {
			h(p.ev)
		}
	}
	n := len(b.front)
	clear(b.front)
	b.front = b.front[:0]
	return n
}
