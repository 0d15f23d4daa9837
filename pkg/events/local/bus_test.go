package local

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

func TestPublishIsSynchronous(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []events.LinkStateEvent
	bus.Subscribe(events.TopicLinkState, func(e events.Event) {
		got = append(got, e.Data.(events.LinkStateEvent))
	})

	bus.Publish(events.TopicLinkState, events.NewEvent("test", events.LinkStateEvent{
		Port: fdb.PhysicalPort(1),
		Name: "eth1",
	}))

	require.Len(t, got, 1, "handler must run before Publish returns")
	require.Equal(t, fdb.PhysicalPort(1), got[0].Port)
}

func TestPublishFillsEnvelope(t *testing.T) {
	bus := NewBus()

	var got events.Event
	bus.SubscribeAll(func(e events.Event) {
		got = e
	})

	bus.Publish(events.TopicMacIntent, events.Event{Data: "x"})

	require.NotEmpty(t, got.ID)
	require.False(t, got.Timestamp.IsZero())
	require.Equal(t, events.TopicMacIntent, got.Type)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(events.TopicFdbEntry, func(events.Event) { order = append(order, "first") })
	bus.SubscribeAll(func(events.Event) { order = append(order, "global") })
	bus.Subscribe(events.TopicFdbEntry, func(events.Event) { order = append(order, "third") })

	bus.Publish(events.TopicFdbEntry, events.Event{})

	require.Equal(t, []string{"first", "global", "third"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	sub := bus.Subscribe(events.TopicLinkState, func(events.Event) { calls++ })
	bus.Publish(events.TopicLinkState, events.Event{})
	sub.Unsubscribe()
	bus.Publish(events.TopicLinkState, events.Event{})

	require.Equal(t, 1, calls)
	stats := bus.Stats()
	require.Empty(t, stats.Topics)
	require.Equal(t, uint64(2), stats.Published)
	require.Equal(t, uint64(1), stats.Delivered)
}

func TestReentrantPublish(t *testing.T) {
	bus := NewBus()

	var seen []string
	bus.Subscribe(events.TopicMacIntent, func(e events.Event) {
		seen = append(seen, "intent")
		bus.Publish(events.TopicFdbEntry, events.Event{})
	})
	bus.Subscribe(events.TopicFdbEntry, func(events.Event) {
		seen = append(seen, "entry")
	})

	bus.Publish(events.TopicMacIntent, events.Event{})

	require.Equal(t, []string{"intent", "entry"}, seen)
}

func TestClosedBusDrops(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.SubscribeAll(func(events.Event) { calls++ })

	require.NoError(t, bus.Close())
	bus.Publish(events.TopicLinkState, events.Event{})

	require.Zero(t, calls)
}

func TestDebugTopics(t *testing.T) {
	bus := NewBus()

	bus.SetDebugTopics([]string{events.TopicLinkState, events.TopicFdbEntry})
	require.Equal(t, []string{events.TopicFdbEntry, events.TopicLinkState}, bus.DebugTopics())

	bus.SetDebugTopics(nil)
	require.Nil(t, bus.DebugTopics())
}
