package preferences

import (
	"context"
	"testing"

	"github.com/jon4hz/agora/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageManager(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, nil)

	m, err := NewLanguageManager(ctx, kv)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "en", m.Language())
	assert.Equal(t, "Settings saved successfully", m.Translate("settings.alerts.success"))

	require.NoError(t, m.SetLanguage(ctx, "fr"))
	assert.Equal(t, "fr", m.Language())
	assert.Equal(t, "Paramètres", m.Translate("settings.title"))
	assert.Equal(t, "nope.missing", m.Translate("nope.missing"))

	stored, ok, err := kv.Get(ctx, store.KeyLanguagePreference)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fr", stored)

	assert.Equal(t,
		"Trop de tentatives. Veuillez réessayer dans 30 secondes",
		m.Translatef("setPassword.locked", map[string]any{"seconds": 30}),
	)
}

func TestLanguageManagerUnknownLanguage(t *testing.T) {
	ctx := context.Background()
	m, err := NewLanguageManager(ctx, newKV(t, map[string]string{"languagePreference": "de"}))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "de", m.Language())
	assert.Equal(t, "settings.title", m.Translate("settings.title"))
}

func TestLanguageManagerFollowsStore(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, map[string]string{"languagePreference": "fr"})
	m, err := NewLanguageManager(ctx, kv)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, "fr", m.Language())

	require.NoError(t, kv.Set(ctx, store.KeyLanguagePreference, "en"))
	assert.Equal(t, "en", m.Language())

	require.NoError(t, kv.Remove(ctx, store.KeyLanguagePreference))
	assert.Equal(t, "en", m.Language())
}
