package auth

import (
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	SignedIn  EventType = "SIGNED_IN"
	SignedOut EventType = "SIGNED_OUT"
)

// SessionEvent is published after every successful auth state change.
// Delivery is asynchronous; subscribers must not assume they observe the
// change before the call that caused it returns.
type SessionEvent struct {
	Type      EventType
	UserID    uuid.UUID
	SessionID uuid.UUID
}

// Broadcaster fans session events out to subscribers. Publish never blocks:
// a subscriber whose buffer is full is dropped and its channel closed, so a
// laggard learns it missed events and can rebuild from the sessions table.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan SessionEvent
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan SessionEvent)}
}

func (b *Broadcaster) Subscribe() (<-chan SessionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan SessionEvent, 16)
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

func (b *Broadcaster) Publish(ev SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}
