package preferences

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/i18n"
	"github.com/jon4hz/agora/internal/store"
	"github.com/samber/lo"
)

// LanguageManager owns the active language.
type LanguageManager struct {
	kv      store.KV
	catalog *i18n.Catalog
	log     *log.Logger

	mu       sync.RWMutex
	language string

	unsubscribe func()
}

// NewLanguageManager reads the persisted language, English when none is stored.
func NewLanguageManager(ctx context.Context, kv store.KV) (*LanguageManager, error) {
	m := &LanguageManager{
		kv:       kv,
		catalog:  i18n.Default,
		log:      log.Default().WithPrefix("language"),
		language: i18n.English,
	}

	lang, ok, err := kv.Get(ctx, store.KeyLanguagePreference)
	if err != nil {
		return nil, err
	}
	if ok && lang != "" {
		m.language = lang
	}

	m.unsubscribe = kv.Subscribe(store.KeyLanguagePreference, func(ev store.Event) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.language = lo.Ternary(ev.Removed || ev.Value == "", i18n.English, ev.Value)
	})
	return m, nil
}

// Language returns the active language code.
func (m *LanguageManager) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.language
}

// SetLanguage changes and persists the active language.
// Codes without a translation table are stored too, lookups then return the key.
func (m *LanguageManager) SetLanguage(ctx context.Context, code string) error {
	if !m.catalog.Has(code) {
		m.log.Warn("No translations for language", "language", code)
	}
	m.mu.Lock()
	m.language = code
	m.mu.Unlock()
	return m.kv.Set(ctx, store.KeyLanguagePreference, code)
}

// Translate resolves a dotted key in the active language.
func (m *LanguageManager) Translate(key string) string {
	return m.catalog.Translate(m.Language(), key)
}

// Translatef resolves key and fills its {{name}} placeholders.
func (m *LanguageManager) Translatef(key string, vars map[string]any) string {
	return m.catalog.Translatef(m.Language(), key, vars)
}

// Close stops following store changes.
func (m *LanguageManager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
