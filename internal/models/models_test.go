package models

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/store"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		encoded string
	}{
		{name: "string", input: `"42"`, want: "42", encoded: `"42"`},
		{name: "number", input: `42`, want: "42", encoded: `42`},
		{name: "uuid", input: `"5f1c0c2e-8a4e-4d0b-a7a5-1c9d9e3b8f10"`, want: "5f1c0c2e-8a4e-4d0b-a7a5-1c9d9e3b8f10", encoded: `"5f1c0c2e-8a4e-4d0b-a7a5-1c9d9e3b8f10"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id.String())
			assert.True(t, id.Matches(tt.want))

			data, err := json.Marshal(id)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, string(data))
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
	assert.False(t, NewID("").Matches(""))
}

func TestUserRoundTripKeepsUnknownFields(t *testing.T) {
	raw := `{
		"userid": 42,
		"email": "ada@example.com",
		"password": "Old1!abcd",
		"joined": "2024-01-01",
		"profile": {
			"avatarColor": "teal",
			"preferences": {"displayTheme": "Dark", "language": "fr", "fontSize": "large", "density": "compact"},
			"privacy": {"profileVisibility": false, "shareActivity": true}
		}
	}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	require.NoError(t, u.Validate())

	assert.Equal(t, "42", u.UserID.String())
	assert.Equal(t, "Dark", u.Profile.Preferences.DisplayTheme)
	assert.False(t, *u.Profile.Privacy.ProfileVisibility)
	assert.Nil(t, u.Profile.Privacy.LastOnline)
	assert.Contains(t, u.Extra, "joined")

	u.Profile.Preferences.Language = "en"
	data, err := json.Marshal(u)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, float64(42), generic["userid"])
	assert.Equal(t, "2024-01-01", generic["joined"])

	profile := generic["profile"].(map[string]any)
	assert.Equal(t, "teal", profile["avatarColor"])
	prefs := profile["preferences"].(map[string]any)
	assert.Equal(t, "compact", prefs["density"])
	assert.Equal(t, "en", prefs["language"])
	privacy := profile["privacy"].(map[string]any)
	assert.Equal(t, true, privacy["shareActivity"])
	assert.Equal(t, false, privacy["profileVisibility"])
}

func TestUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "minimal", input: `{"userid":"1","password":"x"}`, valid: true},
		{name: "missing id", input: `{"password":"x"}`, valid: false},
		{name: "bad email", input: `{"userid":"1","email":"not-an-email"}`, valid: false},
		{name: "bad language", input: `{"userid":"1","profile":{"preferences":{"language":"de"}}}`, valid: false},
		{name: "bad theme", input: `{"userid":"1","profile":{"preferences":{"displayTheme":"Sepia"}}}`, valid: false},
		{name: "bad font size", input: `{"userid":"1","profile":{"preferences":{"fontSize":"huge"}}}`, valid: false},
		{name: "lower case theme", input: `{"userid":"1","profile":{"preferences":{"displayTheme":"dark"}}}`, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			require.NoError(t, json.Unmarshal([]byte(tt.input), &u))
			if tt.valid {
				assert.NoError(t, u.Validate())
			} else {
				assert.Error(t, u.Validate())
			}
		})
	}
}

func TestDecodeUsersFailsClosed(t *testing.T) {
	_, err := DecodeUsers(`[{"userid":"1"},{"email":"nobody@example.com"}]`)
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	_, err = DecodeUsers(`{"userid":"1"}`)
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	_, err = DecodeUsers(`[{"userid":"1","profile":{"privacy":{"onlineStatus":"yes"}}}]`)
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	users, err := DecodeUsers(`null`)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFindUser(t *testing.T) {
	users, err := DecodeUsers(`[{"userid":7,"email":"Bob@Example.com"},{"userid":"42","email":"ada@example.com"}]`)
	require.NoError(t, err)

	assert.Equal(t, 0, FindUser(users, "7"))
	assert.Equal(t, 1, FindUser(users, "42"))
	assert.Equal(t, -1, FindUser(users, "8"))
	assert.Equal(t, -1, FindUser(users, ""))

	assert.Equal(t, 0, FindUserByEmail(users, " bob@example.com "))
	assert.Equal(t, -1, FindUserByEmail(users, ""))
}

func TestUpdateUsers(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())

	users, err := LoadUsers(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, UpdateUsers(ctx, kv, func(users []User) ([]User, error) {
		return append(users, User{UserID: NewID("1"), Email: "ada@example.com"}), nil
	}))

	raw, ok, err := kv.Get(ctx, store.KeyUsers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"userid":"1","email":"ada@example.com","password":""}]`, raw)

	require.NoError(t, kv.Set(ctx, store.KeyUsers, "[{"))
	err = UpdateUsers(ctx, kv, func(users []User) ([]User, error) {
		t.Fatal("must not be called for malformed data")
		return users, nil
	})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())

	profiles, err := LoadProfiles(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, UpdateProfiles(ctx, kv, func(profiles map[string]Profile) error {
		profiles["ada@example.com"] = Profile{
			Email:       "ada@example.com",
			Interests:   []string{"music"},
			LastUpdated: lo.ToPtr(now),
			Extra:       Extra{"banner": json.RawMessage(`"blue"`)},
		}
		return nil
	}))

	profiles, err = LoadProfiles(ctx, kv)
	require.NoError(t, err)
	p := profiles["ada@example.com"]
	assert.Equal(t, []string{"music"}, p.Interests)
	assert.True(t, now.Equal(*p.LastUpdated))
	assert.JSONEq(t, `"blue"`, string(p.Extra["banner"]))

	_, err = DecodeProfiles(`{"ada@example.com":{"interests":["knitting"]}}`)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestProfileClone(t *testing.T) {
	p := Profile{Interests: []string{"art"}, Skills: []string{"sql"}}
	c := p.Clone()
	c.Interests[0] = "music"
	c.SetTags(TagSkills, append(c.Tags(TagSkills), "java"))

	assert.Equal(t, []string{"art"}, p.Interests)
	assert.Equal(t, []string{"sql"}, p.Skills)
	assert.Equal(t, []string{"sql", "java"}, c.Skills)
}

func TestTagKind(t *testing.T) {
	assert.True(t, TagInterests.Valid())
	assert.False(t, TagSkills.Allows("golang"))
	assert.True(t, TagSkills.Allows("python"))
	assert.False(t, TagKind("hobbies").Valid())
	assert.Nil(t, TagKind("hobbies").Options())
}
