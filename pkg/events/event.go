package events

import "time"

type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	Data      any
}

func NewEvent(source string, data any) Event {
	return Event{
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
