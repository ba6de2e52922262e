package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventUserUpdated      EventType = "USER_UPDATED"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// Event is an auth state change for one user.
type Event struct {
	Type   EventType `json:"event"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

const subscriberBuffer = 16

// EventBus fans auth events out to per-user subscribers. A subscriber that
// falls behind loses events rather than blocking publishers.
type EventBus struct {
	mu   sync.RWMutex
	next int
	subs map[uuid.UUID]map[int]chan Event
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[uuid.UUID]map[int]chan Event)}
}

// Subscribe returns a channel of events for userID and a function that
// ends the subscription and closes the channel. The function is safe to
// call more than once.
func (b *EventBus) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
}

func (b *EventBus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e.UserID] {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers reports how many subscriptions are open for userID.
func (b *EventBus) Subscribers(userID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
