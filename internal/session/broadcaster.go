// Package session owns the local session: the signed cookie, the registry of
// active sessions, and the auth-state-change stream.
package session

import (
	"sync"
	"time"

	"github.com/authdeck/internal/domain"
)

// subscriberBuffer bounds each subscriber channel. Publish never blocks; a
// slow subscriber misses intermediate states, never the publisher.
const subscriberBuffer = 8

// Broadcaster fans auth-state changes out to subscribers. It implements
// domain.AuthStateStream.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan domain.AuthState
	next int
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan domain.AuthState),
	}
}

// Subscribe registers a new subscriber. The cancel func releases the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan domain.AuthState, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan domain.AuthState, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a state change to all subscribers without blocking
func (b *Broadcaster) Publish(state domain.AuthState) {
	if state.At.IsZero() {
		state.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscriptions
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
