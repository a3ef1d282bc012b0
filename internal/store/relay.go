package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Relay carries store changes between processes sharing a backend.
type Relay interface {
	Publish(ctx context.Context, ev Event) error
	// Listen blocks until ctx is done, calling fn for every change published by another process.
	Listen(ctx context.Context, fn func(Event)) error
	Close() error
}

var _ Relay = (*RedisRelay)(nil)

type relayMessage struct {
	Origin string `json:"origin"`
	Event
}

// RedisRelay relays store changes over a redis pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	log     *log.Logger
}

// NewRedisRelay creates a relay publishing on channel.
// Each relay has its own origin id so it ignores its own messages.
func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		log:     log.Default().WithPrefix("relay"),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(relayMessage{Origin: r.origin, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

func (r *RedisRelay) Listen(ctx context.Context, fn func(Event)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close() //nolint:errcheck

	// wait for the subscription to be confirmed before consuming messages
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.log.Debug("listening for store changes", "channel", r.channel, "origin", r.origin)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var m relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.log.Warn("dropping malformed relay message", "error", err)
				continue
			}
			if m.Origin == r.origin {
				continue
			}
			fn(m.Event)
		}
	}
}

// Close is a no-op, the redis client is owned by the backend.
func (r *RedisRelay) Close() error {
	return nil
}
