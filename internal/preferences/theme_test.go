package preferences

import (
	"context"
	"math"
	"testing"

	"github.com/jon4hz/agora/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKV(t *testing.T, seed map[string]string) *store.Store {
	t.Helper()
	kv := store.New(store.NewMemoryBackend())
	for k, v := range seed {
		require.NoError(t, kv.Set(context.Background(), k, v))
	}
	return kv
}

func TestThemeManagerInitialState(t *testing.T) {
	tests := []struct {
		name     string
		seed     map[string]string
		dark     bool
		fontSize int
	}{
		{name: "empty store", seed: nil, dark: false, fontSize: 16},
		{name: "dark", seed: map[string]string{"theme": "dark", "fontSize": "18"}, dark: true, fontSize: 18},
		{name: "unknown theme", seed: map[string]string{"theme": "Dark"}, dark: false, fontSize: 16},
		{name: "too small", seed: map[string]string{"fontSize": "4"}, fontSize: 12},
		{name: "too large", seed: map[string]string{"fontSize": "40"}, fontSize: 20},
		{name: "px suffix", seed: map[string]string{"fontSize": "14px"}, fontSize: 14},
		{name: "beyond int range", seed: map[string]string{"fontSize": "99999999999999999999"}, fontSize: 20},
		{name: "below int range", seed: map[string]string{"fontSize": "-99999999999999999999"}, fontSize: 12},
		{name: "garbage", seed: map[string]string{"fontSize": "big"}, fontSize: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewThemeManager(context.Background(), newKV(t, tt.seed))
			require.NoError(t, err)
			defer m.Close()

			assert.Equal(t, tt.dark, m.DarkMode())
			assert.Equal(t, tt.fontSize, m.FontSize())
		})
	}
}

func TestThemeManagerToggle(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, nil)
	m, err := NewThemeManager(ctx, kv)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.ToggleDarkMode(ctx))
	assert.True(t, m.DarkMode())
	v, _, _ := kv.Get(ctx, store.KeyTheme)
	assert.Equal(t, "dark", v)

	require.NoError(t, m.ToggleDarkMode(ctx))
	assert.False(t, m.DarkMode())
	v, _, _ = kv.Get(ctx, store.KeyTheme)
	assert.Equal(t, "light", v)

	require.NoError(t, m.SetDarkMode(ctx, true))
	require.NoError(t, m.SetDarkMode(ctx, true))
	assert.True(t, m.DarkMode())
}

func TestThemeManagerChangeFontSize(t *testing.T) {
	tests := []struct {
		px       float64
		accepted bool
	}{
		{px: 12, accepted: true},
		{px: 20, accepted: true},
		{px: 16, accepted: true},
		{px: 11, accepted: false},
		{px: 21, accepted: false},
		{px: 14.5, accepted: false},
		{px: math.NaN(), accepted: false},
		{px: math.Inf(1), accepted: false},
	}

	for _, tt := range tests {
		ctx := context.Background()
		kv := newKV(t, map[string]string{"fontSize": "18"})
		m, err := NewThemeManager(ctx, kv)
		require.NoError(t, err)

		ok, err := m.ChangeFontSize(ctx, tt.px)
		require.NoError(t, err)
		assert.Equal(t, tt.accepted, ok, "px=%v", tt.px)

		stored, _, _ := kv.Get(ctx, store.KeyFontSize)
		if tt.accepted {
			assert.Equal(t, int(tt.px), m.FontSize())
			assert.Equal(t, int(tt.px), parseFontSize(stored))
		} else {
			assert.Equal(t, 18, m.FontSize())
			assert.Equal(t, "18", stored)
		}
		m.Close()
	}
}

func TestThemeDerived(t *testing.T) {
	ctx := context.Background()
	m, err := NewThemeManager(ctx, newKV(t, map[string]string{"fontSize": "16"}))
	require.NoError(t, err)
	defer m.Close()

	theme := m.Theme()
	assert.Equal(t, FontSizes{Small: 12, Medium: 16, Large: 20}, theme.FontSizes)
	assert.Equal(t, "#f0f2f5", theme.Colors.Background)
	assert.Equal(t, "#333", theme.Colors.Text)

	require.NoError(t, m.ToggleDarkMode(ctx))
	theme = m.Theme()
	assert.True(t, theme.DarkMode)
	assert.Equal(t, "#333", theme.Colors.Background)
	assert.Equal(t, "#fff", theme.Colors.Text)
}

func TestThemeManagerFollowsStore(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, nil)
	m, err := NewThemeManager(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, store.KeyTheme, "dark"))
	require.NoError(t, kv.Set(ctx, store.KeyFontSize, "99"))
	assert.True(t, m.DarkMode())
	assert.Equal(t, 20, m.FontSize())

	require.NoError(t, kv.Remove(ctx, store.KeyFontSize))
	assert.Equal(t, 16, m.FontSize())

	m.Close()
	require.NoError(t, kv.Set(ctx, store.KeyTheme, "light"))
	assert.True(t, m.DarkMode())
}

func TestTwoThemeManagersStayInSync(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, nil)
	a, err := NewThemeManager(ctx, kv)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewThemeManager(ctx, kv)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.ToggleDarkMode(ctx))
	assert.True(t, b.DarkMode())

	ok, err := b.ChangeFontSize(ctx, 13)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 13, a.FontSize())
}
