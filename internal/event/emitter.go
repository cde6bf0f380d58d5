// Package event defines the Observable capability shared by every collaborator
// that can trigger or stop light programs (buttons, encoders, proximity, remote
// control) and a small Emitter implementing it.
package event

import (
	"sync"
)

// Name identifies an event on an Observable. Each collaborator declares its own
// constants of this type.
type Name string

// Event is delivered to listeners. Value carries the collaborator-specific
// payload (for example the press count of a multi-press).
type Event struct {
	Name  Name
	Value any
}

// Listener handles an event.
type Listener func(Event)

// Subscription identifies one registered listener.
type Subscription struct {
	Name Name
	id   uint64
}

// Valid reports whether s was returned by On.
func (s Subscription) Valid() bool { return s.id != 0 }

// Observable is anything that supports named-event subscription.
type Observable interface {
	On(name Name, fn Listener) Subscription
	RemoveListener(sub Subscription) bool
}

type entry struct {
	id uint64
	fn Listener
}

// Emitter is a concurrency-safe Observable. Listeners run synchronously on the
// goroutine calling Emit, in registration order.
type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Name][]entry
}

var _ Observable = (*Emitter)(nil)

// On registers fn for name.
func (e *Emitter) On(name Name, fn Listener) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = map[Name][]entry{}
	}
	e.nextID++
	e.listeners[name] = append(e.listeners[name], entry{id: e.nextID, fn: fn})
	return Subscription{Name: name, id: e.nextID}
}

// Once registers fn for a single delivery of name.
func (e *Emitter) Once(name Name, fn Listener) Subscription {
	var sub Subscription
	var once sync.Once
	sub = e.On(name, func(ev Event) {
		once.Do(func() {
			e.RemoveListener(sub)
			fn(ev)
		})
	})
	return sub
}

// RemoveListener unregisters sub. It returns false if sub was not registered.
func (e *Emitter) RemoveListener(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[sub.Name]
	for i, l := range ls {
		if l.id == sub.id {
			e.listeners[sub.Name] = append(ls[:i:i], ls[i+1:]...)
			if len(e.listeners[sub.Name]) == 0 {
				delete(e.listeners, sub.Name)
			}
			return true
		}
	}
	return false
}

// Emit delivers an event to the listeners registered at the time of the call.
func (e *Emitter) Emit(name Name, value any) {
	e.mu.Lock()
	ls := append([]entry(nil), e.listeners[name]...)
	e.mu.Unlock()

	ev := Event{Name: name, Value: value}
	for _, l := range ls {
		l.fn(ev)
	}
}

// ListenerCount returns the number of listeners registered for name.
func (e *Emitter) ListenerCount(name Name) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}
