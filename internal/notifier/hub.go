package notifier

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

const subscriberBuffer = 64

// WindowSource supplies the current auction window for late-joiner catch-up.
type WindowSource func() models.AuctionWindow

// Subscriber is one registered observer. Events arrive on C in publish order;
// once the buffer is full further events are dropped for this subscriber.
type Subscriber struct {
	id string
	ch chan models.Event
}

// C is the subscriber's event channel. It is closed on Unsubscribe.
func (s *Subscriber) C() <-chan models.Event {
	return s.ch
}

func (s *Subscriber) ID() string {
	return s.id
}

// Hub fans state-change events out to every subscriber. Delivery is
// best-effort and at-most-once per publish; a slow subscriber loses events
// instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	window WindowSource
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// SetWindowSource installs the provider of the synthetic windowChanged event
// sent to every new subscriber. Must be set before the first Subscribe.
func (h *Hub) SetWindowSource(src WindowSource) {
	h.mu.Lock()
	h.window = src
	h.mu.Unlock()
}

// Subscribe registers a new observer. The subscriber immediately receives the
// current auction window as a windowChanged event; historical newBid and
// productsChanged events are not replayed.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.New().String(),
		ch: make(chan models.Event, subscriberBuffer),
	}

	// the snapshot is queued while the lock is held: Publish takes the read
	// lock, so no windowChanged can land ahead of it and leave the snapshot
	// stale
	h.mu.Lock()
	h.subs[sub.id] = sub
	if h.window != nil {
		sub.ch <- models.Event{Kind: models.EventWindowChanged, Payload: h.window()}
	}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the observer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
		close(sub.ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			log.WithFields(log.Fields{"subscriber": sub.id, "kind": ev.Kind}).
				Warn("subscriber queue full, dropping event")
		}
	}
}

// SubscriberCount returns the number of registered observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
