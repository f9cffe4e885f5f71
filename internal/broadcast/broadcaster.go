// Package broadcast fans mutation outcome events out to the push-stream
// consumers attached to a session. Delivery is live-only: no buffering
// beyond each subscriber's channel, no replay for late subscribers.
package broadcast

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/simplur/cart-events-service/internal/domain"
)

// subscriberBuffer absorbs short consumer stalls; a full buffer drops the
// event rather than blocking the publisher.
const subscriberBuffer = 8

// Subscription is one consumer's attachment to a session topic. Events
// arrive on C until Unsubscribe, which closes it.
type Subscription struct {
	ID        string
	SessionID string
	C         chan domain.Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		sessions: make(map[string]map[string]*Subscription),
	}
}

type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Subscription
}

// Subscribe attaches a new consumer to the session's topic. Multiple
// concurrent subscribers per session are fine (multiple tabs).
func (b *Broadcaster) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		C:         make(chan domain.Event, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.sessions[sessionID]
	if !ok {
		subs = make(map[string]*Subscription)
		b.sessions[sessionID] = subs
	}
	subs[sub.ID] = sub

	return sub
}

// Unsubscribe detaches a consumer and closes its channel. Idempotent;
// called automatically when a push-stream connection closes.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.sessions[sub.SessionID]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}

	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(b.sessions, sub.SessionID)
	}
	close(sub.C)
}

// Publish delivers the event to every current subscriber of the session.
// At-most-once: a subscriber with a full buffer misses the event.
func (b *Broadcaster) Publish(sessionID string, event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.sessions[sessionID] {
		select {
		case sub.C <- event:
		default:
			log.Printf("broadcast: dropping %s event for slow subscriber %s", event.Type, sub.ID)
		}
	}
}

// SubscriberCount reports how many consumers a session currently has.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions[sessionID])
}
