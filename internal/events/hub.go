// Package events implements the in-process broadcast hub behind the SSE
// endpoint. Delivery is best-effort, at-most-once: a subscriber whose
// buffer is full misses the event and catches up on its next full fetch.
package events

import (
	"sync"

	"github.com/charmbracelet/log"
)

type Type string

const (
	// BoardChanged carries a fresh board snapshot as payload.
	BoardChanged Type = "board_changed"
	// TagsChanged is a content-less signal; observers re-fetch tags.
	TagsChanged Type = "tags_changed"
)

type Event struct {
	Type Type
	Data any
}

// subscriberBuffer bounds how many undelivered events a slow client may
// hold before broadcasts start dropping for it.
const subscriberBuffer = 8

type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	logger *log.Logger
}

type Subscriber struct {
	hub *Hub
	ch  chan Event
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new observer. The caller must call Close when the
// connection goes away.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{hub: h, ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Broadcast delivers the event to every connected subscriber without
// blocking; events to saturated subscribers are dropped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Debug("dropping event for slow subscriber", "event", ev.Type)
		}
	}
}

// SubscriberCount reports how many observers are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Events is the subscriber's receive channel.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscriber. Events broadcast afterwards are not
// delivered; the channel itself is left open so a concurrent Broadcast
// never sends on a closed channel.
func (s *Subscriber) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
}
