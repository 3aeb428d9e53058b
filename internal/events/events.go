// Package events fans composer broadcasts out to websocket clients and NATS.
package events

import (
	"encoding/json"
	"time"

	"Quill/internal/core/composer"
)

// Message is the wire form of a broadcast event
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
}

func encode(event composer.Event, now time.Time) ([]byte, error) {
	return json.Marshal(Message{Event: string(event), Timestamp: now.UTC()})
}

// Fanout delivers every event to each of its broadcasters in order
type Fanout []composer.Broadcaster

// NewFanout skips nil broadcasters
func NewFanout(broadcasters ...composer.Broadcaster) Fanout {
	f := make(Fanout, 0, len(broadcasters))
	for _, b := range broadcasters {
		if b != nil {
			f = append(f, b)
		}
	}
	return f
}

func (f Fanout) Broadcast(event composer.Event) {
	for _, b := range f {
		b.Broadcast(event)
	}
}
