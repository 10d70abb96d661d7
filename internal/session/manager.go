// Package session owns the single authenticated identity of the running
// client: one in-memory record replaced wholesale on login, cleared on
// logout, persisted through a Store so the session survives restarts.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/models"
)

type Manager struct {
	mu      sync.RWMutex
	current *models.Session

	store  Store
	logger *logrus.Logger

	// invalidation hooks fire whenever the owning identity changes, so
	// caches keyed by the previous identity can be discarded
	hooks []func()
}

func NewManager(store Store, logger *logrus.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// OnInvalidate registers a hook fired after every identity change (login
// with a different account, or logout). Hooks must not block.
func (m *Manager) OnInvalidate(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Restore loads a persisted session record, if any, into memory. Called
// once at startup.
func (m *Manager) Restore(ctx context.Context) error {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("session: restore: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	if sess != nil {
		m.logger.WithFields(logrus.Fields{
			"identity_id": sess.Identity.ID,
			"role":        sess.Identity.Role,
		}).Info("Restored persisted session")
	}
	return nil
}

// Current returns a copy of the active session, or nil when logged out.
func (m *Manager) Current() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// Replace atomically swaps in a new session and persists it. When the
// owning identity differs from the previous one, invalidation hooks fire so
// no cached data leaks across accounts.
func (m *Manager) Replace(ctx context.Context, sess *models.Session) error {
	if !sess.Authenticated() {
		return fmt.Errorf("session: refusing to install a session without a token")
	}

	m.mu.Lock()
	identityChanged := m.current == nil || m.current.Identity.ID != sess.Identity.ID
	m.current = sess
	hooks := m.hooks
	m.mu.Unlock()

	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}

	if identityChanged {
		for _, fn := range hooks {
			fn()
		}
	}

	m.logger.WithFields(logrus.Fields{
		"identity_id": sess.Identity.ID,
		"role":        sess.Identity.Role,
	}).Info("Session replaced")
	return nil
}

// Logout clears the in-memory session and the persisted record, then fires
// invalidation hooks.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	hooks := m.hooks
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return err
	}

	if hadSession {
		for _, fn := range hooks {
			fn()
		}
	}

	m.logger.Info("Session cleared")
	return nil
}
