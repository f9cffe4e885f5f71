// Package publisher composes the outbound destinations of mutation outcome
// events: the live per-session broadcast plus an optional Kafka audit topic.
package publisher

import (
	"github.com/simplur/cart-events-service/internal/domain"
)

// EventPublisher is one destination for outcome events.
type EventPublisher interface {
	Publish(sessionID string, event domain.Event)
}

// NewFanout delivers every event to each target in order.
func NewFanout(targets ...EventPublisher) *Fanout {
	return &Fanout{targets: targets}
}

type Fanout struct {
	targets []EventPublisher
}

func (f *Fanout) Publish(sessionID string, event domain.Event) {
	for _, target := range f.targets {
		target.Publish(sessionID, event)
	}
}
