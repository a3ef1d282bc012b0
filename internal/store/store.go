// Package store implements the key-value store every agora component reads
// from and writes to, with a synchronous per-key publish/subscribe channel.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/apperr"
)

// Event describes a change to a single key.
type Event struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Removed bool   `json:"removed"`
	// Remote is set for events relayed from another process.
	Remote bool `json:"-"`
}

// Listener is called synchronously after a key changed.
type Listener func(Event)

// ErrSkipWrite can be returned by an UpdateFunc to leave the key untouched.
// Update then returns nil.
var ErrSkipWrite = errors.New("skip write")

// UpdateFunc receives the current value of a key and returns the value to store.
type UpdateFunc func(current string, exists bool) (string, error)

// KV is the store contract the managers depend on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Subscribe(key string, fn Listener) (unsubscribe func())
}

var _ KV = (*Store)(nil)

// Store wraps a Backend with per-key locking and change notifications.
type Store struct {
	backend Backend
	relay   Relay
	log     *log.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	subsMu sync.RWMutex
	subs   map[string]map[uint64]Listener
	nextID uint64
}

// Option configures a Store.
type Option func(*Store)

// WithRelay publishes every local change to r so other processes observe it.
func WithRelay(r Relay) Option {
	return func(s *Store) {
		s.relay = r
	}
}

// New creates a store on top of backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     log.Default().WithPrefix("store"),
		locks:   make(map[string]*sync.Mutex),
		subs:    make(map[string]map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", false, apperr.Persistence("read", key, err)
	}
	return value, ok, nil
}

// Set stores value under key and notifies the key's subscribers.
func (s *Store) Set(ctx context.Context, key, value string) error {
	mu := s.keyLock(key)
	mu.Lock()
	err := s.backend.Set(ctx, key, value)
	mu.Unlock()
	if err != nil {
		return apperr.Persistence("write", key, err)
	}
	s.publish(ctx, Event{Key: key, Value: value})
	return nil
}

// Remove deletes key and notifies the key's subscribers.
func (s *Store) Remove(ctx context.Context, key string) error {
	mu := s.keyLock(key)
	mu.Lock()
	err := s.backend.Delete(ctx, key)
	mu.Unlock()
	if err != nil {
		return apperr.Persistence("remove", key, err)
	}
	s.publish(ctx, Event{Key: key, Removed: true})
	return nil
}

// Update runs a read-modify-write sequence on key while holding the key's lock,
// so writers in the same process can't interleave between the read and the write.
// Errors returned by fn are passed through unchanged and nothing is written.
func (s *Store) Update(ctx context.Context, key string, fn UpdateFunc) error {
	mu := s.keyLock(key)
	mu.Lock()

	current, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		mu.Unlock()
		return apperr.Persistence("read", key, err)
	}
	next, err := fn(current, ok)
	if errors.Is(err, ErrSkipWrite) {
		mu.Unlock()
		return nil
	}
	if err != nil {
		mu.Unlock()
		return err
	}
	if ok && next == current {
		mu.Unlock()
		return nil
	}
	if err := s.backend.Set(ctx, key, next); err != nil {
		mu.Unlock()
		return apperr.Persistence("write", key, err)
	}
	mu.Unlock()

	s.publish(ctx, Event{Key: key, Value: next})
	return nil
}

// Subscribe registers fn for changes of key. The returned function removes it.
func (s *Store) Subscribe(key string, fn Listener) func() {
	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]Listener)
	}
	s.subs[key][id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs[key], id)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

// Listen dispatches changes made by other processes to local subscribers
// until ctx is cancelled. It returns immediately if no relay is configured.
func (s *Store) Listen(ctx context.Context) error {
	if s.relay == nil {
		return nil
	}
	return s.relay.Listen(ctx, func(ev Event) {
		ev.Remote = true
		s.notify(ev)
	})
}

// Close closes the relay and the backend.
func (s *Store) Close() error {
	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			s.log.Warn("failed to close relay", "error", err)
		}
	}
	return s.backend.Close()
}

func (s *Store) publish(ctx context.Context, ev Event) {
	s.notify(ev)
	if s.relay == nil {
		return
	}
	if err := s.relay.Publish(ctx, ev); err != nil {
		// the write itself succeeded, other processes just won't hear about it
		s.log.Warn("failed to relay store change", "key", ev.Key, "error", err)
	}
}

func (s *Store) notify(ev Event) {
	s.subsMu.RLock()
	listeners := make([]Listener, 0, len(s.subs[ev.Key]))
	for _, fn := range s.subs[ev.Key] {
		listeners = append(listeners, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}
