package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies events are stamped with an id and timestamp.
func TestNew(t *testing.T) {
	evt := New(TypeNodeAdded, "wf-1", NodeChange{})

	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Time.IsZero())
	assert.Equal(t, TypeNodeAdded, evt.Type)
	assert.Equal(t, "wf-1", evt.WorkflowID)

	other := New(TypeNodeAdded, "wf-1", NodeChange{})
	assert.NotEqual(t, evt.ID, other.ID)
}

// TestBus_TypedSubscription verifies handlers only see subscribed types.
func TestBus_TypedSubscription(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []Type
	bus.Subscribe([]Type{TypeNodeAdded, TypeNodeRemoved}, func(evt Event) {
		got = append(got, evt.Type)
	})

	bus.Publish(New(TypeNodeAdded, "wf-1", nil))
	bus.Publish(New(TypeEdgeAdded, "wf-1", nil))
	bus.Publish(New(TypeNodeRemoved, "wf-1", nil))

	assert.Equal(t, []Type{TypeNodeAdded, TypeNodeRemoved}, got)
}

// TestBus_SubscribeAll verifies wildcard subscribers see every event in
// publish order.
func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []Type
	bus.SubscribeAll(func(evt Event) {
		got = append(got, evt.Type)
	})

	bus.Publish(New(TypeSaveStarted, "wf-1", nil))
	bus.Publish(New(TypeSaveSucceeded, "wf-1", nil))
	bus.Publish(New(TypeGraphChanged, "wf-1", nil))

	assert.Equal(t, []Type{TypeSaveStarted, TypeSaveSucceeded, TypeGraphChanged}, got)
}

// TestBus_MultipleSubscribers verifies fan-out reaches every subscriber.
func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var a, b int
	bus.Subscribe([]Type{TypeGraphChanged}, func(Event) { a++ })
	bus.SubscribeAll(func(Event) { b++ })

	bus.Publish(New(TypeGraphChanged, "wf-1", nil))
	bus.Publish(New(TypeSaveFailed, "wf-1", nil))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

// TestBus_Unsubscribe verifies delivery stops after unsubscribing.
func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	sub := bus.Subscribe([]Type{TypeGraphChanged}, func(Event) { count++ })

	bus.Publish(New(TypeGraphChanged, "wf-1", nil))
	sub.Unsubscribe()
	bus.Publish(New(TypeGraphChanged, "wf-1", nil))

	assert.Equal(t, 1, count)
}

// TestBus_PauseResume verifies paused subscriptions skip events.
func TestBus_PauseResume(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	sub := bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(New(TypeGraphChanged, "wf-1", nil))

	sub.Pause()
	assert.True(t, sub.IsPaused())
	bus.Publish(New(TypeGraphChanged, "wf-1", nil))

	sub.Resume()
	assert.False(t, sub.IsPaused())
	bus.Publish(New(TypeGraphChanged, "wf-1", nil))

	assert.Equal(t, 2, count)
}

// TestBus_PublishAfterClose verifies closed buses drop events quietly.
func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus()

	var count int
	bus.SubscribeAll(func(Event) { count++ })

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	bus.Publish(New(TypeGraphChanged, "wf-1", nil))
	assert.Equal(t, 0, count)
}

// TestBus_SubscribeDuringDispatch verifies handlers may touch the bus
// without deadlocking.
func TestBus_SubscribeDuringDispatch(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var late int
	bus.SubscribeAll(func(evt Event) {
		if evt.Type == TypeGraphChanged {
			bus.Subscribe([]Type{TypeSaveStarted}, func(Event) { late++ })
		}
	})

	bus.Publish(New(TypeGraphChanged, "wf-1", nil))
	bus.Publish(New(TypeSaveStarted, "wf-1", nil))

	assert.Equal(t, 1, late)
}
