package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Watcher keeps an in-memory view of revoked sessions so the auth middleware
// can reject a signed-out token without a database read per request. It seeds
// itself from the sessions table once, then stays current by subscribing to
// the session-change broadcast.
type Watcher struct {
	DB     *gorm.DB
	Events *Broadcaster

	mu      sync.RWMutex
	revoked map[uuid.UUID]struct{}
	seeded  bool
}

func NewWatcher(db *gorm.DB, events *Broadcaster) *Watcher {
	return &Watcher{DB: db, Events: events, revoked: make(map[uuid.UUID]struct{})}
}

// Run seeds the revoked set and then applies events until ctx is cancelled.
// If the broadcaster drops the subscription for lagging, Run subscribes
// again and re-seeds, so a missed revocation is repaired from the table.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		ch, cancel := w.Events.Subscribe()
		if err := w.seed(ctx); err != nil {
			cancel()
			return err
		}

		kicked := w.follow(ctx, ch)
		cancel()
		if !kicked {
			return nil
		}
	}
}

// follow applies events until ctx is done or the channel closes. A closed
// channel means the broadcaster dropped this subscription for lagging; the
// revoked set may now have holes, so it is marked stale before returning.
func (w *Watcher) follow(ctx context.Context, ch <-chan SessionEvent) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				w.markStale()
				return true
			}
			w.apply(ev)
		}
	}
}

// Revoked reports whether the session has been signed out. Before the first
// seed completes it falls back to the database, so a restart never lets a
// revoked token through.
func (w *Watcher) Revoked(sessionID uuid.UUID) bool {
	w.mu.RLock()
	seeded := w.seeded
	_, rv := w.revoked[sessionID]
	w.mu.RUnlock()

	if seeded {
		return rv
	}

	var sess Session
	if err := w.DB.First(&sess, "id = ?", sessionID).Error; err != nil {
		// Unknown session: treat as revoked.
		return true
	}
	return sess.Revoked() || sess.ExpiresAt.Before(time.Now())
}

func (w *Watcher) seed(ctx context.Context) error {
	// Only unexpired sessions matter; an expired token already fails JWT
	// verification.
	var ids []uuid.UUID
	err := w.DB.WithContext(ctx).
		Model(&Session{}).
		Where("revoked_at IS NOT NULL AND expires_at > ?", time.Now()).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}

	w.mu.Lock()
	for _, id := range ids {
		w.revoked[id] = struct{}{}
	}
	w.seeded = true
	w.mu.Unlock()
	return nil
}

func (w *Watcher) markStale() {
	w.mu.Lock()
	w.seeded = false
	w.mu.Unlock()
}

func (w *Watcher) apply(ev SessionEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Type {
	case SignedOut:
		w.revoked[ev.SessionID] = struct{}{}
	case SignedIn:
		delete(w.revoked, ev.SessionID)
	}
}
