// Package identity publishes session changes to whoever listens.
//
// A sign-in callback publishes (session, identity); a sign-out publishes
// (session, nil). Subscribers receive events over a buffered channel, in
// publish order, until they unsubscribe.
//
// DELIVERY:
// Publish blocks until every current subscriber has room in its buffer, or
// until ctx is done. A slow consumer therefore slows sign-in down rather than
// silently losing a session change.
package identity

import (
	"context"
	"sync"

	"github.com/sakif/editorialchain/internal/model"
)

// DefaultBuffer is the per-subscriber channel capacity used by NewHub(0).
const DefaultBuffer = 64

// Event is one session change. A nil Identity means the session signed out.
type Event struct {
	SessionID string
	Identity  *model.Identity
}

// SignedOut reports whether the event ends the session.
func (e Event) SignedOut() bool { return e.Identity == nil }

// Hub fans events out to subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewHub creates a Hub whose subscribers get a channel of the given capacity.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. Events published after this call
// returns are delivered to it.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub:  h,
		ch:   make(chan Event, h.buffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish delivers ev to every subscriber.
// It returns ctx.Err() if ctx ends before all subscribers accepted the event.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		select {
		case s.ch <- ev:
		case <-s.done:
			// unsubscribing; skip it
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SignIn publishes an identity for the session.
func (h *Hub) SignIn(ctx context.Context, sessionID string, id model.Identity) error {
	return h.Publish(ctx, Event{SessionID: sessionID, Identity: &id})
}

// SignOut publishes the end of the session.
func (h *Hub) SignOut(ctx context.Context, sessionID string) error {
	return h.Publish(ctx, Event{SessionID: sessionID})
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Subscription is a cancellable handle on the event stream.
type Subscription struct {
	hub  *Hub
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// Events returns the receive side of the stream. It is closed by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe stops delivery and closes the Events channel.
// Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		// Wake any Publish blocked on this subscriber before taking the
		// write lock, otherwise it would hold the read lock forever.
		close(s.done)

		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}
