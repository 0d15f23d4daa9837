package local

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/logger"
)

type subscription struct {
	id      uint64
	handler events.Handler
}

type sub struct {
	bus   *Bus
	topic string
	id    uint64
}

func (s *sub) Unsubscribe() {
	s.bus.removeSub(s.topic, s.id)
}

type globalSub struct {
	bus *Bus
	id  uint64
}

func (s *globalSub) Unsubscribe() {
	s.bus.removeGlobalSub(s.id)
}

// Bus is an in-process events.Bus. Publish runs every matching handler in the
// caller's goroutine, in subscription order, before returning.
type Bus struct {
	subs        map[string]map[uint64]*subscription
	globalSubs  map[uint64]*subscription
	mu          sync.RWMutex
	nextID      atomic.Uint64
	logger      *slog.Logger
	published   atomic.Uint64
	delivered   atomic.Uint64
	closed      atomic.Bool
	debugTopics map[string]bool
	debugSub    events.Subscription
}

func NewBus() events.Bus {
	return &Bus{
		subs:       make(map[string]map[uint64]*subscription),
		globalSubs: make(map[uint64]*subscription),
		logger:     logger.Get(logger.Events),
	}
}

func (b *Bus) Publish(topic string, event events.Event) {
	if b.closed.Load() {
		b.logger.Warn("Publish on closed bus, dropping event", "topic", topic)
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		event.Type = topic
	}

	handlers := b.handlersFor(topic)
	b.published.Add(1)

	for _, h := range handlers {
		h(event)
		b.delivered.Add(1)
	}
}

func (b *Bus) handlersFor(topic string) []events.Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topicSubs := b.subs[topic]
	ordered := make([]*subscription, 0, len(topicSubs)+len(b.globalSubs))
	for _, s := range topicSubs {
		ordered = append(ordered, s)
	}
	for _, s := range b.globalSubs {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].id < ordered[j].id
	})

	handlers := make([]events.Handler, len(ordered))
	for i, s := range ordered {
		handlers[i] = s.handler
	}
	return handlers
}

func (b *Bus) Subscribe(topic string, handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*subscription)
	}
	b.subs[topic][id] = &subscription{id: id, handler: handler}
	handlerCount := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Debug("Subscribed to topic", "topic", topic, "handler_count", handlerCount)

	return &sub{bus: b, topic: topic, id: id}
}

func (b *Bus) SubscribeAll(handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.globalSubs[id] = &subscription{id: id, handler: handler}
	count := len(b.globalSubs)
	b.mu.Unlock()

	b.logger.Debug("Subscribed to all topics", "global_subscriber_count", count)

	return &globalSub{bus: b, id: id}
}

func (b *Bus) removeSub(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topicSubs, ok := b.subs[topic]; ok {
		delete(topicSubs, id)
		if len(topicSubs) == 0 {
			delete(b.subs, topic)
		}
	}
}

func (b *Bus) removeGlobalSub(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.globalSubs, id)
}

func (b *Bus) Stats() events.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]events.TopicStats, 0, len(b.subs))
	for topic, subs := range b.subs {
		topics = append(topics, events.TopicStats{
			Topic:       topic,
			Subscribers: len(subs),
		})
	}
	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Topic < topics[j].Topic
	})

	var debugTopics []string
	for t := range b.debugTopics {
		debugTopics = append(debugTopics, t)
	}
	sort.Strings(debugTopics)

	return events.Stats{
		Topics:      topics,
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		DebugTopics: debugTopics,
	}
}

func (b *Bus) SetDebugTopics(topics []string) {
	b.mu.Lock()

	if len(topics) == 0 {
		b.debugTopics = nil
		oldSub := b.debugSub
		b.debugSub = nil
		b.mu.Unlock()
		if oldSub != nil {
			oldSub.Unsubscribe()
		}
		b.logger.Info("Event debug logging disabled")
		return
	}

	b.debugTopics = make(map[string]bool, len(topics))
	for _, t := range topics {
		b.debugTopics[t] = true
	}

	needSub := b.debugSub == nil
	b.mu.Unlock()

	if needSub {
		sub := b.SubscribeAll(func(e events.Event) {
			b.mu.RLock()
			match := b.debugTopics[e.Type]
			b.mu.RUnlock()
			if match {
				b.logger.Info("Event", "topic", e.Type, "source", e.Source, "data", e.Data)
			}
		})
		b.mu.Lock()
		b.debugSub = sub
		b.mu.Unlock()
	}

	b.logger.Info("Event debug logging enabled", "topics", topics)
}

func (b *Bus) DebugTopics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.debugTopics) == 0 {
		return nil
	}

	topics := make([]string, 0, len(b.debugTopics))
	for t := range b.debugTopics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func (b *Bus) Close() error {
	b.closed.Store(true)
	return nil
}
