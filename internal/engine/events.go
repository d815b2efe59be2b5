package engine

import (
	"log/slog"
	"sync"
	"time"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// behind misses events rather than blocking the recording path.
const subscriberBuffer = 8

// AttemptEvent announces a recorded attempt to stream subscribers.
type AttemptEvent struct {
	LearnerID string    `json:"learner_id"`
	TopicID   string    `json:"topic_id"`
	Correct   bool      `json:"correct"`
	Level     float64   `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// Broker fans attempt events out to per-learner subscribers.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan AttemptEvent
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan AttemptEvent)}
}

// Subscribe registers for one learner's events. The returned cancel function
// must be called to release the subscription; the channel closes after
// cancellation.
func (b *Broker) Subscribe(learnerID string) (<-chan AttemptEvent, func()) {
	ch := make(chan AttemptEvent, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[learnerID] == nil {
		b.subs[learnerID] = make(map[int]chan AttemptEvent)
	}
	b.subs[learnerID][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subs[learnerID]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.subs, learnerID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its learner. Delivery is
// best-effort; a full subscriber drops the event.
func (b *Broker) Publish(ev AttemptEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.LearnerID] {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropping attempt event for slow subscriber", "learner_id", ev.LearnerID)
		}
	}
}
