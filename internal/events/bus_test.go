package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.SubscribeFunc(Updated, func(e Event) { calls = append(calls, "first:"+e.Credential) })
	bus.SubscribeFunc(Updated, func(e Event) { calls = append(calls, "second:"+e.Credential) })

	bus.Publish(Event{Kind: Updated, Credential: "k"})

	assert.Equal(t, []string{"first:k", "second:k"}, calls)
}

func TestSubscribeSameObserverTwice(t *testing.T) {
	bus := NewBus()
	count := 0
	observer := ObserverFunc(func(Event) { count++ })

	bus.Subscribe(Cleared, observer)
	bus.Subscribe(Cleared, observer)
	bus.Publish(Event{Kind: Cleared})

	assert.Equal(t, 2, count)
	assert.Equal(t, 2, bus.Len(Cleared))
}

func TestPublishOnlyMatchingKind(t *testing.T) {
	bus := NewBus()
	var got []Kind
	bus.SubscribeFunc(Loaded, func(e Event) { got = append(got, e.Kind) })

	bus.Publish(Event{Kind: Updated, Credential: "x"})
	bus.Publish(Event{Kind: Loaded, Credential: "y"})

	assert.Equal(t, []Kind{Loaded}, got)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Kind: Cleared})
	})
	assert.Zero(t, bus.Len(Cleared))
}

func TestObserverPanicPropagates(t *testing.T) {
	bus := NewBus()
	bus.SubscribeFunc(Updated, func(Event) { panic("boom") })

	assert.PanicsWithValue(t, "boom", func() {
		bus.Publish(Event{Kind: Updated})
	})
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{Loaded, "credential-loaded"},
		{Updated, "credential-updated"},
		{Cleared, "credential-cleared"},
		{Kind(0), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}
