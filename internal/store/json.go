package store

import (
	"context"
	"encoding/json"

	"github.com/jon4hz/agora/internal/apperr"
)

// GetJSON decodes the JSON value stored under key into dst.
// It reports false, leaving dst untouched, when the key doesn't exist.
func GetJSON(ctx context.Context, kv KV, key string, dst any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, apperr.Persistence("decode", key, err)
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperr.Persistence("encode", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
