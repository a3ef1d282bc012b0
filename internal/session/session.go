// Package session tracks the logged-in user and the online flag.
package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/store"
	"github.com/jonboulle/clockwork"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for lastOnline timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// Manager owns the current user and the online flag and mirrors both into the store.
type Manager struct {
	kv    store.KV
	clock clockwork.Clock
	log   *log.Logger

	mu     sync.RWMutex
	user   *models.User
	online bool

	unsubscribe []func()
}

// New derives the session from the store. The online flag is only read when a
// user snapshot exists and defaults to online.
func New(ctx context.Context, kv store.KV, opts ...Option) (*Manager, error) {
	m := &Manager{
		kv:     kv,
		clock:  clockwork.NewRealClock(),
		log:    log.Default().WithPrefix("session"),
		online: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	raw, ok, err := kv.Get(ctx, store.KeyUser)
	if err != nil {
		return nil, err
	}
	if ok {
		user, err := models.DecodeUser(store.KeyUser, raw)
		if err != nil {
			return nil, err
		}
		m.user = user

		status, ok, err := kv.Get(ctx, store.KeyOnlineStatus)
		if err != nil {
			return nil, err
		}
		if ok {
			m.online = status == "true"
		}
	}

	m.unsubscribe = []func(){
		kv.Subscribe(store.KeyOnlineStatus, m.onOnlineStatus),
		kv.Subscribe(store.KeyUser, m.onUser),
	}
	return m, nil
}

func (m *Manager) onOnlineStatus(ev store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = !ev.Removed && ev.Value == "true"
}

func (m *Manager) onUser(ev store.Event) {
	if ev.Removed {
		m.mu.Lock()
		m.user = nil
		m.mu.Unlock()
		return
	}
	user, err := models.DecodeUser(store.KeyUser, ev.Value)
	if err != nil {
		m.log.Warn("Ignoring invalid user snapshot", "error", err)
		return
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

// CurrentUser returns a copy of the current user, nil when logged out.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsOnline reports the online flag.
func (m *Manager) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Login makes user the current user and marks the session online.
func (m *Manager) Login(ctx context.Context, user models.User) error {
	m.mu.Lock()
	m.user = &user
	m.online = true
	m.mu.Unlock()

	if err := store.SetJSON(ctx, m.kv, store.KeyUser, user); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, store.KeyOnlineStatus, "true"); err != nil {
		return err
	}
	m.log.Info("User logged in", "userid", user.UserID)
	return nil
}

// Logout clears the current user and marks the session offline.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.kv.Set(ctx, store.KeyOnlineStatus, "false"); err != nil {
		return err
	}

	m.mu.Lock()
	m.user = nil
	m.online = false
	m.mu.Unlock()

	if err := m.kv.Remove(ctx, store.KeyUser); err != nil {
		return err
	}
	if err := m.kv.Remove(ctx, store.KeyLoggedInUserID); err != nil {
		return err
	}
	m.log.Info("User logged out")
	return nil
}

// UpdateOnlineStatus sets and persists the online flag. Going offline while a
// user is logged in stamps lastOnline on that user's record.
func (m *Manager) UpdateOnlineStatus(ctx context.Context, online bool) error {
	m.mu.Lock()
	m.online = online
	user := m.user
	m.mu.Unlock()

	if err := m.kv.Set(ctx, store.KeyOnlineStatus, strconv.FormatBool(online)); err != nil {
		return err
	}
	if online || user == nil {
		return nil
	}

	now := m.clock.Now().UTC().Truncate(time.Millisecond)
	id := user.UserID.String()
	return models.UpdateUsers(ctx, m.kv, func(users []models.User) ([]models.User, error) {
		idx := models.FindUser(users, id)
		if idx < 0 {
			m.log.Debug("Current user has no record, skipping lastOnline", "userid", id)
			return nil, store.ErrSkipWrite
		}
		users[idx].EnsurePrivacy().LastOnline = &now
		return users, nil
	})
}

// Close stops following store changes.
func (m *Manager) Close() {
	for _, unsubscribe := range m.unsubscribe {
		unsubscribe()
	}
	m.unsubscribe = nil
}
