package events

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

type TopicStats struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

type Stats struct {
	Topics      []TopicStats `json:"topics"`
	Published   uint64       `json:"published"`
	Delivered   uint64       `json:"delivered"`
	DebugTopics []string     `json:"debug-topics,omitempty"`
}

// Bus delivers events to subscribers synchronously, in the publisher's call
// stack. Handlers that need another goroutine must hand off themselves.
type Bus interface {
	Publish(topic string, event Event)
	Subscribe(topic string, handler Handler) Subscription
	SubscribeAll(handler Handler) Subscription
	Stats() Stats
	SetDebugTopics(topics []string)
	DebugTopics() []string
	Close() error
}
