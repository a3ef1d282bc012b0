package store

import (
	"context"
	"errors"
	"strings"

	lib_cache "github.com/eko/gocache/lib/v4/cache"
	lib_store "github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Backend is the raw string storage a Store writes through.
// Implementations don't need to be safe for read-modify-write sequences,
// the Store serializes those.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the resources held by the backend.
	Close() error
}

var _ Backend = (*CacheBackend)(nil)

// CacheBackend stores values in a gocache cache (in-memory or redis).
type CacheBackend struct {
	cache *lib_cache.Cache[string]
	kind  string
	close func() error
}

// NewMemoryBackend creates a backend that lives as long as the process.
func NewMemoryBackend() *CacheBackend {
	// entries never expire, the store is the source of truth
	client := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	return &CacheBackend{
		cache: lib_cache.New[string](go_store.NewGoCache(client)),
		kind:  "memory",
		close: func() error { return nil },
	}
}

// NewRedisBackend creates a backend on top of an existing redis client.
// The client is closed together with the backend.
func NewRedisBackend(client *redis.Client) *CacheBackend {
	return &CacheBackend{
		cache: lib_cache.New[string](redis_store.NewRedis(client)),
		kind:  "redis",
		close: client.Close,
	}
}

func (b *CacheBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.cache.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (b *CacheBackend) Set(ctx context.Context, key, value string) error {
	return b.cache.Set(ctx, key, value)
}

func (b *CacheBackend) Delete(ctx context.Context, key string) error {
	return b.cache.Delete(ctx, key)
}

func (b *CacheBackend) Close() error {
	return b.close()
}

// Kind returns memory or redis.
func (b *CacheBackend) Kind() string {
	return b.kind
}

func isNotFound(err error) bool {
	var notFound *lib_store.NotFound
	if errors.As(err, &notFound) || errors.Is(err, redis.Nil) {
		return true
	}
	return strings.Contains(err.Error(), "value not found")
}
