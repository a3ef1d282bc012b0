package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/store"
	"github.com/samber/lo"
)

// DecodeUsers parses and validates the users collection.
// Any malformed or invalid record fails the whole collection.
func DecodeUsers(raw string) ([]User, error) {
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, apperr.Persistence("decode", store.KeyUsers, err)
	}
	for i := range users {
		if err := users[i].Validate(); err != nil {
			return nil, apperr.Persistence("validate", store.KeyUsers, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return users, nil
}

// EncodeUsers serializes the users collection.
func EncodeUsers(users []User) (string, error) {
	if users == nil {
		users = []User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return "", apperr.Persistence("encode", store.KeyUsers, err)
	}
	return string(data), nil
}

// LoadUsers returns the users collection, empty if the key doesn't exist.
func LoadUsers(ctx context.Context, kv store.KV) ([]User, error) {
	raw, ok, err := kv.Get(ctx, store.KeyUsers)
	if err != nil || !ok {
		return nil, err
	}
	return DecodeUsers(raw)
}

// UpdateUsers runs fn on the users collection and writes the result back
// as a single read-modify-write sequence. fn may return store.ErrSkipWrite
// to leave the collection untouched.
func UpdateUsers(ctx context.Context, kv store.KV, fn func(users []User) ([]User, error)) error {
	return kv.Update(ctx, store.KeyUsers, func(current string, exists bool) (string, error) {
		var users []User
		if exists {
			var err error
			if users, err = DecodeUsers(current); err != nil {
				return "", err
			}
		}
		updated, err := fn(users)
		if err != nil {
			return "", err
		}
		return EncodeUsers(updated)
	})
}

// FindUser returns the index of the user with the given identifier, or -1.
func FindUser(users []User, id string) int {
	_, idx, _ := lo.FindIndexOf(users, func(u User) bool {
		return u.UserID.Matches(id)
	})
	return idx
}

// FindUserByEmail returns the index of the user with the given email, or -1.
// Emails are compared case-insensitively.
func FindUserByEmail(users []User, email string) int {
	email = strings.TrimSpace(email)
	_, idx, _ := lo.FindIndexOf(users, func(u User) bool {
		return email != "" && strings.EqualFold(u.Email, email)
	})
	return idx
}

// DecodeUser parses and validates a single user snapshot.
func DecodeUser(key, raw string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, apperr.Persistence("decode", key, err)
	}
	if err := u.Validate(); err != nil {
		return nil, apperr.Persistence("validate", key, err)
	}
	return &u, nil
}

// DecodeProfiles parses and validates the userProfiles mapping.
func DecodeProfiles(raw string) (map[string]Profile, error) {
	var profiles map[string]Profile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		return nil, apperr.Persistence("decode", store.KeyUserProfiles, err)
	}
	for email, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, apperr.Persistence("validate", store.KeyUserProfiles, fmt.Errorf("profile %s: %w", email, err))
		}
	}
	return profiles, nil
}

// LoadProfiles returns the userProfiles mapping, empty if the key doesn't exist.
func LoadProfiles(ctx context.Context, kv store.KV) (map[string]Profile, error) {
	raw, ok, err := kv.Get(ctx, store.KeyUserProfiles)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]Profile{}, nil
	}
	profiles, err := DecodeProfiles(raw)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = map[string]Profile{}
	}
	return profiles, nil
}

// UpdateProfiles runs fn on the userProfiles mapping and writes the result back.
func UpdateProfiles(ctx context.Context, kv store.KV, fn func(profiles map[string]Profile) error) error {
	return kv.Update(ctx, store.KeyUserProfiles, func(current string, exists bool) (string, error) {
		profiles := map[string]Profile{}
		if exists {
			decoded, err := DecodeProfiles(current)
			if err != nil {
				return "", err
			}
			if decoded != nil {
				profiles = decoded
			}
		}
		if err := fn(profiles); err != nil {
			return "", err
		}
		data, err := json.Marshal(profiles)
		if err != nil {
			return "", apperr.Persistence("encode", store.KeyUserProfiles, err)
		}
		return string(data), nil
	})
}
