package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"jot/internal/auth"
)

// Manager hands out one Store per user, created lazily on first use.
type Manager struct {
	gw Gateway

	mu     sync.RWMutex
	stores map[uuid.UUID]*Store
}

func NewManager(gw Gateway) *Manager {
	return &Manager{gw: gw, stores: make(map[uuid.UUID]*Store)}
}

func (m *Manager) ForUser(userID uuid.UUID) *Store {
	m.mu.RLock()
	s, ok := m.stores[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[userID]; ok {
		return s
	}
	s = New(m.gw, userID)
	m.stores[userID] = s
	return s
}

func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	delete(m.stores, userID)
	m.mu.Unlock()
}

// Watch drops a user's cache when they sign out, so a later sign-in starts
// from a fresh load instead of a stale snapshot. A subscription dropped by
// the broadcaster for lagging is reopened; a store whose sign-out event was
// missed merely skips the eviction and keeps that user's own cache.
func (m *Manager) Watch(ctx context.Context, events *auth.Broadcaster) {
	for {
		ch, cancel := events.Subscribe()
		open := m.drain(ctx, ch)
		cancel()
		if !open {
			return
		}
	}
}

func (m *Manager) drain(ctx context.Context, ch <-chan auth.SessionEvent) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return true
			}
			if ev.Type == auth.SignedOut {
				m.Drop(ev.UserID)
			}
		}
	}
}
