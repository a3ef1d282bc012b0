// Package settings composes the session, the preference managers and the
// current user's record into one editable settings view.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/scheduler"
	"github.com/jon4hz/agora/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
)

// ErrNotLoaded is returned when the view is edited or committed before Load.
var ErrNotLoaded = errors.New("settings are not loaded")

const (
	KeySaved     = "settings.alerts.success"
	KeySaveError = "settings.alerts.error"

	dismissTaskName = "settings-alert-dismiss"
)

// FontSizes maps the font size labels to pixel sizes.
var FontSizes = map[string]int{
	"small":  14,
	"medium": 16,
	"large":  20,
}

var (
	themes    = []string{"light", "dark"}
	languages = []string{"en", "fr"}
)

// Session is the part of the session manager the settings depend on.
type Session interface {
	CurrentUser() *models.User
	IsOnline() bool
	UpdateOnlineStatus(ctx context.Context, online bool) error
}

// Theme is the part of the theme manager the settings depend on.
type Theme interface {
	DarkMode() bool
	SetDarkMode(ctx context.Context, dark bool) error
	ChangeFontSize(ctx context.Context, px float64) (bool, error)
}

// Language is the part of the language manager the settings depend on.
type Language interface {
	SetLanguage(ctx context.Context, code string) error
	Translate(key string) string
}

// Preferences are the display settings of a View.
type Preferences struct {
	Theme    string
	Language string
	FontSize string
}

// Privacy are the privacy settings of a View.
type Privacy struct {
	ProfileVisibility bool
	OnlineStatus      bool
}

// View is the flattened, editable settings of the current user.
type View struct {
	Email       string
	Preferences Preferences
	Privacy     Privacy
}

// DefaultView returns the settings used for absent fields.
func DefaultView() View {
	return View{
		Preferences: Preferences{Theme: "light", Language: "en", FontSize: "medium"},
		Privacy:     Privacy{ProfileVisibility: true},
	}
}

// Kind is the kind of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a transient message shown after a save.
type Notification struct {
	Kind    Kind
	Key     string
	Message string
}

// Config holds the dependencies of an Orchestrator.
type Config struct {
	Store    store.KV
	Session  Session
	Theme    Theme
	Language Language
	Timers   scheduler.Timers
	Clock    clockwork.Clock
	// AlertDuration is how long a notification stays visible.
	AlertDuration time.Duration
}

// Orchestrator loads, edits and commits the settings of the current user.
type Orchestrator struct {
	kv            store.KV
	session       Session
	theme         Theme
	language      Language
	timers        scheduler.Timers
	clock         clockwork.Clock
	alertDuration time.Duration
	log           *log.Logger

	mu           sync.Mutex
	view         View
	loaded       bool
	notification *Notification
	dismiss      scheduler.Task
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		kv:            cfg.Store,
		session:       cfg.Session,
		theme:         cfg.Theme,
		language:      cfg.Language,
		timers:        cfg.Timers,
		clock:         clock,
		alertDuration: lo.Ternary(cfg.AlertDuration > 0, cfg.AlertDuration, 3*time.Second),
		log:           log.Default().WithPrefix("settings"),
		view:          DefaultView(),
	}
}

// Load resolves the current user and flattens its record into the view.
func (o *Orchestrator) Load(ctx context.Context) (View, error) {
	user := o.session.CurrentUser()
	if user == nil {
		return View{}, apperr.ErrNotAuthenticated
	}

	users, err := models.LoadUsers(ctx, o.kv)
	if err != nil {
		o.log.Error("Failed to load user settings", "error", err)
		o.notify(KindError, KeySaveError)
		return View{}, err
	}

	view := DefaultView()
	if idx := models.FindUser(users, user.UserID.String()); idx >= 0 {
		view = flatten(users[idx])
	} else {
		view.Email = user.Email
	}
	view.Privacy.OnlineStatus = o.session.IsOnline()

	o.mu.Lock()
	o.view = view
	o.loaded = true
	o.mu.Unlock()
	return view, nil
}

func flatten(u models.User) View {
	view := DefaultView()
	view.Email = u.Email
	if u.Profile == nil {
		return view
	}
	if p := u.Profile.Preferences; p != nil {
		if p.DisplayTheme != "" {
			view.Preferences.Theme = lo.Ternary(p.DisplayTheme == "Dark" || p.DisplayTheme == "dark", "dark", "light")
		}
		view.Preferences.Language = lo.CoalesceOrEmpty(p.Language, view.Preferences.Language)
		view.Preferences.FontSize = lo.CoalesceOrEmpty(p.FontSize, view.Preferences.FontSize)
	}
	if p := u.Profile.Privacy; p != nil && p.ProfileVisibility != nil {
		view.Privacy.ProfileVisibility = *p.ProfileVisibility
	}
	return view
}

// View returns the current view.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// ApplyChange edits one field of the view and pushes the change to the
// component that owns it.
func (o *Orchestrator) ApplyChange(ctx context.Context, category, field, value string) error {
	o.mu.Lock()
	if !o.loaded {
		o.mu.Unlock()
		return ErrNotLoaded
	}
	view := o.view
	o.mu.Unlock()

	var cascade func() error
	switch category + "." + field {
	case "preferences.theme":
		if !lo.Contains(themes, value) {
			return fmt.Errorf("invalid theme %q, expected light or dark", value)
		}
		view.Preferences.Theme = value
		cascade = func() error {
			dark := value == "dark"
			if o.theme.DarkMode() == dark {
				return nil
			}
			return o.theme.SetDarkMode(ctx, dark)
		}
	case "preferences.language":
		if !lo.Contains(languages, value) {
			return fmt.Errorf("invalid language %q, expected en or fr", value)
		}
		view.Preferences.Language = value
		cascade = func() error {
			return o.language.SetLanguage(ctx, value)
		}
	case "preferences.fontSize":
		px, ok := FontSizes[value]
		if !ok {
			return fmt.Errorf("invalid font size %q, expected small, medium or large", value)
		}
		view.Preferences.FontSize = value
		cascade = func() error {
			_, err := o.theme.ChangeFontSize(ctx, float64(px))
			return err
		}
	case "privacy.profileVisibility":
		visible, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid profile visibility %q: %w", value, err)
		}
		view.Privacy.ProfileVisibility = visible
	case "privacy.onlineStatus":
		online, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid online status %q: %w", value, err)
		}
		view.Privacy.OnlineStatus = online
		cascade = func() error {
			return o.session.UpdateOnlineStatus(ctx, online)
		}
	default:
		return fmt.Errorf("unknown setting %s.%s", category, field)
	}

	o.mu.Lock()
	o.view = view
	o.mu.Unlock()

	if cascade == nil {
		return nil
	}
	if err := cascade(); err != nil {
		return fmt.Errorf("failed to apply %s.%s: %w", category, field, err)
	}
	return nil
}

// Commit merges the view into the current user's record and reports the
// outcome as a notification. The notification never carries the cause.
func (o *Orchestrator) Commit(ctx context.Context) error {
	err := o.commit(ctx)
	switch {
	case err == nil:
		o.notify(KindSuccess, KeySaved)
	case errors.Is(err, apperr.ErrNotAuthenticated):
		o.log.Warn("Cannot save settings without a user", "error", err)
		o.notify(KindError, apperr.KeyLoginAgain)
	default:
		o.log.Error("Failed to save settings", "error", err)
		o.notify(KindError, KeySaveError)
	}
	return err
}

func (o *Orchestrator) commit(ctx context.Context) error {
	user := o.session.CurrentUser()
	if user == nil {
		return apperr.ErrNotAuthenticated
	}

	o.mu.Lock()
	loaded, view := o.loaded, o.view
	o.mu.Unlock()
	// an unloaded view holds defaults, merging it would overwrite the record
	if !loaded {
		return ErrNotLoaded
	}
	id := user.UserID.String()
	now := o.clock.Now().UTC().Truncate(time.Millisecond)

	return models.UpdateUsers(ctx, o.kv, func(users []models.User) ([]models.User, error) {
		idx := models.FindUser(users, id)
		if idx < 0 {
			return nil, fmt.Errorf("no record for user %s: %w", id, apperr.ErrNotAuthenticated)
		}

		u := users[idx]
		u.Email = view.Email
		profile := u.EnsureProfile()
		profile.Preferences.DisplayTheme = lo.Ternary(view.Preferences.Theme == "dark", models.DisplayThemeDark, models.DisplayThemeLight)
		profile.Preferences.Language = view.Preferences.Language
		profile.Preferences.FontSize = view.Preferences.FontSize
		profile.Privacy.ProfileVisibility = lo.ToPtr(view.Privacy.ProfileVisibility)
		profile.Privacy.OnlineStatus = lo.ToPtr(view.Privacy.OnlineStatus)
		profile.Privacy.LastOnline = &now

		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
		users[idx] = u
		return users, nil
	})
}

func (o *Orchestrator) notify(kind Kind, key string) {
	n := &Notification{Kind: kind, Key: key, Message: o.language.Translate(key)}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dismiss != nil {
		o.dismiss.Cancel()
		o.dismiss = nil
	}
	o.notification = n

	task, err := o.timers.After(o.alertDuration, dismissTaskName, func(context.Context) {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.notification == n {
			o.notification = nil
			o.dismiss = nil
		}
	})
	if err != nil {
		o.log.Warn("Failed to schedule notification dismissal", "error", err)
		return
	}
	o.dismiss = task
}

// Notification returns the visible notification, if any.
func (o *Orchestrator) Notification() (Notification, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.notification == nil {
		return Notification{}, false
	}
	return *o.notification, true
}

// Close cancels the pending dismissal.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dismiss != nil {
		o.dismiss.Cancel()
		o.dismiss = nil
	}
}
