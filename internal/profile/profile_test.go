package profile

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIdentity struct {
	user *models.User
}

func (s staticIdentity) CurrentUser() *models.User {
	return s.user
}

var testNow = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func newEditor(t *testing.T, kv store.KV, user *models.User) *Editor {
	t.Helper()
	return NewEditor(kv, staticIdentity{user: user}, WithClock(clockwork.NewFakeClockAt(testNow)))
}

func ada() *models.User {
	return &models.User{UserID: models.NewID("1"), Email: "ada@example.com", Username: "ada"}
}

func TestLoadDefaults(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())

	p, err := e.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "ada", p.Username)
	assert.Empty(t, p.Bio)
	assert.Equal(t, []string{}, p.Interests)
	assert.Equal(t, []string{}, p.Skills)
	assert.Equal(t, PlaceholderPicture, p.ProfilePicture)
}

func TestLoadWithoutSession(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), nil)
	_, err := e.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, err = e.Save(context.Background(), Default())
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestLoadStored(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())
	require.NoError(t, kv.Set(ctx, store.KeyUserProfiles,
		`{"ada@example.com":{"username":"countess","bio":"engines","interests":["music"],"skills":["python"],"theme":"x"}}`))

	e := newEditor(t, kv, ada())
	p, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "countess", p.Username)
	assert.Equal(t, "engines", p.Bio)
	assert.Equal(t, []string{"music"}, p.Interests)

	other, err := e.LoadByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", other.Email)
	assert.Empty(t, other.Username)
}

func TestLoadMalformedProfiles(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())
	require.NoError(t, kv.Set(ctx, store.KeyUserProfiles, `["not","a","map"]`))

	_, err := newEditor(t, kv, ada()).Load(ctx)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestToggleTagIsInvolution(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	sequences := [][]string{
		{"music"},
		{"music", "art"},
		{"art", "music", "travel"},
	}
	for _, seq := range sequences {
		for _, tag := range seq {
			require.NoError(t, e.ToggleTag(models.TagInterests, tag))
		}
		before := e.Form().Interests

		for _, tag := range []string{"gaming", "music"} {
			require.NoError(t, e.ToggleTag(models.TagInterests, tag))
			require.NoError(t, e.ToggleTag(models.TagInterests, tag))
			assert.ElementsMatch(t, before, e.Form().Interests)
		}

		for _, tag := range seq {
			require.NoError(t, e.RemoveTag(models.TagInterests, tag))
		}
		assert.Empty(t, e.Form().Interests)
	}
}

func TestToggleTagNoDuplicates(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())
	require.NoError(t, e.ToggleTag(models.TagSkills, "sql"))
	require.NoError(t, e.ToggleTag(models.TagSkills, "java"))
	require.NoError(t, e.ToggleTag(models.TagSkills, "sql"))
	require.NoError(t, e.ToggleTag(models.TagSkills, "sql"))
	assert.Equal(t, []string{"java", "sql"}, e.Form().Skills)
	assert.Empty(t, e.Form().Interests)
}

func TestToggleTagRejectsUnknown(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())
	assert.Error(t, e.ToggleTag("hobbies", "music"))
	assert.Error(t, e.ToggleTag(models.TagSkills, "cobol"))
	assert.Error(t, e.RemoveTag("hobbies", "music"))
	assert.Empty(t, e.Form().Skills)
}

func TestSetField(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())
	require.NoError(t, e.SetField("bio", "hello"))
	require.NoError(t, e.SetField("location", "London"))
	assert.Error(t, e.SetField("password", "x"))

	p := e.Form()
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, "London", p.Location)
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())
	require.NoError(t, kv.Set(ctx, store.KeyUserProfiles, `{"bob@example.com":{"username":"bob"}}`))

	e := newEditor(t, kv, ada())
	_, err := e.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, e.SetField("bio", "first"))
	require.NoError(t, e.ToggleTag(models.TagInterests, "art"))

	saved, err := e.Save(ctx, e.Form())
	require.NoError(t, err)
	require.NotNil(t, saved.LastUpdated)
	assert.True(t, testNow.Equal(*saved.LastUpdated))

	raw, _, err := kv.Get(ctx, store.KeyUserProfiles)
	require.NoError(t, err)
	var stored map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "bob", stored["bob@example.com"]["username"])
	assert.Equal(t, "first", stored["ada@example.com"]["bio"])
	assert.Equal(t, "2026-10-14T08:00:00Z", stored["ada@example.com"]["lastUpdated"])

	// the whole entry is overwritten
	_, err = e.Save(ctx, models.Profile{Username: "ada2"})
	require.NoError(t, err)
	profiles, err := models.LoadProfiles(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, profiles["ada@example.com"].Bio)
	assert.Equal(t, "ada2", profiles["ada@example.com"].Username)
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	ctx := context.Background()
	kv := store.New(store.NewMemoryBackend())
	e := newEditor(t, kv, ada())

	_, err := e.Save(ctx, models.Profile{Email: "not an email"})
	assert.Error(t, err)
	_, ok, _ := kv.Get(ctx, store.KeyUserProfiles)
	assert.False(t, ok)
}

func encodeTestImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) (string, []byte) {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:"))
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ";base64,")
	require.True(t, ok)
	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return header, data
}

func TestEncodePicture(t *testing.T) {
	cfg := *config.Default().Profile

	t.Run("png is kept as png", func(t *testing.T) {
		uri, err := EncodePicture(bytes.NewReader(encodeTestImage(t, 40, 30, imaging.PNG)), cfg)
		require.NoError(t, err)
		contentType, data := decodeDataURI(t, uri)
		assert.Equal(t, "image/png", contentType)

		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 30, img.Bounds().Dy())
	})

	t.Run("large jpeg is scaled down", func(t *testing.T) {
		uri, err := EncodePicture(bytes.NewReader(encodeTestImage(t, 1024, 512, imaging.JPEG)), cfg)
		require.NoError(t, err)
		contentType, data := decodeDataURI(t, uri)
		assert.Equal(t, "image/jpeg", contentType)

		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 512, img.Bounds().Dx())
		assert.Equal(t, 256, img.Bounds().Dy())
	})

	t.Run("gif becomes png", func(t *testing.T) {
		uri, err := EncodePicture(bytes.NewReader(encodeTestImage(t, 10, 10, imaging.GIF)), cfg)
		require.NoError(t, err)
		contentType, _ := decodeDataURI(t, uri)
		assert.Equal(t, "image/png", contentType)
	})

	t.Run("too large", func(t *testing.T) {
		small := cfg
		small.MaxPictureBytes = 16
		_, err := EncodePicture(bytes.NewReader(encodeTestImage(t, 40, 40, imaging.PNG)), small)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "16 B")
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := EncodePicture(strings.NewReader("%PDF-1.4 definitely not a picture"), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported picture type")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := EncodePicture(strings.NewReader(""), cfg)
		assert.Error(t, err)
	})
}

func TestSetPicture(t *testing.T) {
	e := newEditor(t, store.New(store.NewMemoryBackend()), ada())
	require.NoError(t, e.SetPicture(bytes.NewReader(encodeTestImage(t, 8, 8, imaging.PNG))))
	assert.True(t, strings.HasPrefix(e.Form().ProfilePicture, "data:image/png;base64,"))
	assert.Equal(t, e.Form().ProfilePicture, e.PictureURL())

	assert.Error(t, e.SetPicture(strings.NewReader("nope")))
}

func TestGravatarURL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		config   *config.GravatarConfig
		expected string
	}{
		{
			name:     "disabled gravatar",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: false},
			expected: "",
		},
		{
			name:     "nil config",
			email:    "test@example.com",
			expected: "",
		},
		{
			name:     "empty email",
			email:    "  ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "",
		},
		{
			name:     "basic enabled config",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "https://www.gravatar.com/avatar/973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b",
		},
		{
			name:  "normalized email with all options",
			email: "  TEST@EXAMPLE.COM ",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "identicon",
				Rating:       "pg",
				Size:         120,
			},
			expected: "https://www.gravatar.com/avatar/973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b?d=identicon&r=pg&s=120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GravatarURL(tt.email, tt.config))
		})
	}
}

func TestPictureURL(t *testing.T) {
	enabled := &config.GravatarConfig{Enabled: true}

	assert.Equal(t, PlaceholderPicture, PictureURL(Default(), nil))
	assert.Equal(t, PlaceholderPicture, PictureURL(models.Profile{}, enabled))
	assert.Equal(t, "data:image/png;base64,AA==", PictureURL(models.Profile{ProfilePicture: "data:image/png;base64,AA==", Email: "test@example.com"}, enabled))
	assert.True(t, strings.HasPrefix(
		PictureURL(models.Profile{ProfilePicture: PlaceholderPicture, Email: "test@example.com"}, enabled),
		"https://www.gravatar.com/avatar/",
	))
}
