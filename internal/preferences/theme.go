// Package preferences holds the display and language preferences shared by all views.
package preferences

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/store"
)

const (
	// MinFontSize is the smallest accepted base font size in pixels.
	MinFontSize = 12
	// MaxFontSize is the largest accepted base font size in pixels.
	MaxFontSize = 20
	// DefaultFontSize is used when no valid size is stored.
	DefaultFontSize = 16

	themeDark  = "dark"
	themeLight = "light"
)

// Palette is the colour scheme of a theme.
type Palette struct {
	Background string
	Text       string
}

var (
	darkPalette  = Palette{Background: "#333", Text: "#fff"}
	lightPalette = Palette{Background: "#f0f2f5", Text: "#333"}
)

// FontSizes are the derived text sizes in pixels.
type FontSizes struct {
	Small  float64
	Medium float64
	Large  float64
}

// Theme is the derived display theme.
type Theme struct {
	DarkMode       bool
	FontSizePixels int
	FontSizes      FontSizes
	Colors         Palette
}

// ThemeManager owns the dark mode flag and the base font size.
type ThemeManager struct {
	kv  store.KV
	log *log.Logger

	mu       sync.RWMutex
	dark     bool
	fontSize int

	unsubscribe []func()
}

// NewThemeManager reads the persisted theme and font size and starts following
// changes other components make to them.
func NewThemeManager(ctx context.Context, kv store.KV) (*ThemeManager, error) {
	m := &ThemeManager{
		kv:       kv,
		log:      log.Default().WithPrefix("theme"),
		fontSize: DefaultFontSize,
	}

	theme, _, err := kv.Get(ctx, store.KeyTheme)
	if err != nil {
		return nil, err
	}
	m.dark = theme == themeDark

	size, ok, err := kv.Get(ctx, store.KeyFontSize)
	if err != nil {
		return nil, err
	}
	if ok {
		m.fontSize = parseFontSize(size)
	}

	m.unsubscribe = []func(){
		kv.Subscribe(store.KeyTheme, m.onTheme),
		kv.Subscribe(store.KeyFontSize, m.onFontSize),
	}
	return m, nil
}

func (m *ThemeManager) onTheme(ev store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dark = !ev.Removed && ev.Value == themeDark
}

func (m *ThemeManager) onFontSize(ev store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Removed {
		m.fontSize = DefaultFontSize
		return
	}
	m.fontSize = parseFontSize(ev.Value)
}

// DarkMode reports whether the dark theme is active.
func (m *ThemeManager) DarkMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dark
}

// FontSize returns the base font size in pixels.
func (m *ThemeManager) FontSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fontSize
}

// ToggleDarkMode flips dark mode and persists it.
func (m *ThemeManager) ToggleDarkMode(ctx context.Context) error {
	m.mu.Lock()
	m.dark = !m.dark
	dark := m.dark
	m.mu.Unlock()
	return m.persistTheme(ctx, dark)
}

// SetDarkMode sets dark mode and persists it.
func (m *ThemeManager) SetDarkMode(ctx context.Context, dark bool) error {
	m.mu.Lock()
	m.dark = dark
	m.mu.Unlock()
	return m.persistTheme(ctx, dark)
}

func (m *ThemeManager) persistTheme(ctx context.Context, dark bool) error {
	value := themeLight
	if dark {
		value = themeDark
	}
	m.log.Debug("Changing theme", "theme", value)
	return m.kv.Set(ctx, store.KeyTheme, value)
}

// ChangeFontSize sets the base font size if px is a whole number between
// MinFontSize and MaxFontSize. Other values are ignored and reported as false.
func (m *ThemeManager) ChangeFontSize(ctx context.Context, px float64) (bool, error) {
	size, ok := validFontSize(px)
	if !ok {
		m.log.Debug("Ignoring font size", "size", px)
		return false, nil
	}

	m.mu.Lock()
	m.fontSize = size
	m.mu.Unlock()

	if err := m.kv.Set(ctx, store.KeyFontSize, strconv.Itoa(size)); err != nil {
		return false, err
	}
	return true, nil
}

// Theme returns the derived theme.
func (m *ThemeManager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()

	base := float64(m.fontSize)
	colors := lightPalette
	if m.dark {
		colors = darkPalette
	}
	return Theme{
		DarkMode:       m.dark,
		FontSizePixels: m.fontSize,
		FontSizes: FontSizes{
			Small:  base * 0.75,
			Medium: base,
			Large:  base * 1.25,
		},
		Colors: colors,
	}
}

// Close stops following store changes.
func (m *ThemeManager) Close() {
	for _, unsubscribe := range m.unsubscribe {
		unsubscribe()
	}
	m.unsubscribe = nil
}

func validFontSize(px float64) (int, bool) {
	if math.IsNaN(px) || px != math.Trunc(px) || px < MinFontSize || px > MaxFontSize {
		return 0, false
	}
	size, err := safecast.ToInt(px)
	if err != nil {
		return 0, false
	}
	return size, true
}

// parseFontSize reads the leading integer of a stored size ("18", "18px")
// and clamps it. Values out of the int range clamp like any other
// out-of-bounds size. Unreadable values fall back to the default.
func parseFontSize(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) {
		c := raw[end]
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	// on ErrRange Atoi returns the nearest representable int
	n, err := strconv.Atoi(raw[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return DefaultFontSize
	}
	return min(max(n, MinFontSize), MaxFontSize)
}
