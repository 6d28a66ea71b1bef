// Package events is a small synchronous publish/subscribe registry for
// credential lifecycle notifications.
package events

import "sync"

// Kind identifies a credential lifecycle event
type Kind int

const (
	// Loaded fires when a credential is restored from local storage
	Loaded Kind = iota + 1
	// Updated fires after Set changed the in-memory credential
	Updated
	// Cleared fires after the credential was removed
	Cleared
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Loaded:
		return "credential-loaded"
	case Updated:
		return "credential-updated"
	case Cleared:
		return "credential-cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to observers. Credential is empty for Cleared.
type Event struct {
	Kind       Kind
	Credential string
}

// Observer receives events it subscribed to.
// Observers run on the publisher's goroutine and must not panic; a panic
// propagates to whoever called Publish.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Notify calls f(e)
func (f ObserverFunc) Notify(e Event) { f(e) }

// Bus maps event kinds to ordered observer lists.
// Registration order is invocation order; the same observer registered twice
// is invoked twice.
type Bus struct {
	mu        sync.RWMutex
	observers map[Kind][]Observer
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{observers: make(map[Kind][]Observer)}
}

// Subscribe appends o to the observers of kind
func (b *Bus) Subscribe(kind Kind, o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers[kind] = append(b.observers[kind], o)
}

// SubscribeFunc is Subscribe for plain functions
func (b *Bus) SubscribeFunc(kind Kind, fn func(Event)) {
	b.Subscribe(kind, ObserverFunc(fn))
}

// Publish invokes every observer of e.Kind in registration order.
// Observers registered during Publish are not called for this event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	observers := b.observers[e.Kind]
	b.mu.RUnlock()

	for _, o := range observers {
		o.Notify(e)
	}
}

// Len returns the number of observers for kind
func (b *Bus) Len(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers[kind])
}
