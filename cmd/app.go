package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/auth"
	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/password"
	"github.com/jon4hz/agora/internal/preferences"
	"github.com/jon4hz/agora/internal/profile"
	"github.com/jon4hz/agora/internal/scheduler"
	"github.com/jon4hz/agora/internal/session"
	"github.com/jon4hz/agora/internal/settings"
	"github.com/jon4hz/agora/internal/store"
	"github.com/redis/go-redis/v9"
)

// app bundles every component a command may need.
type app struct {
	cfg       *config.Config
	store     *store.Store
	scheduler *scheduler.Scheduler
	session   *session.Manager
	theme     *preferences.ThemeManager
	language  *preferences.LanguageManager
	profile   *profile.Editor
	settings  *settings.Orchestrator
	password  *password.Workflow
	auth      *auth.Authenticator

	// redirects receives the paths the password workflow navigates to.
	redirects chan string
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel == "" && cfg.LogLevel != "" {
		setLogLevel(cfg.LogLevel)
	}
	return cfg, nil
}

// openStore opens the configured backend. The redis backend also relays
// changes over pub/sub so other processes observe them.
func openStore(cfg *config.StoreConfig) (*store.Store, error) {
	switch cfg.Type {
	case config.StoreTypeSQLite:
		backend, err := store.NewSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store.New(backend), nil
	case config.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		relay := store.NewRedisRelay(client, cfg.Channel)
		return store.New(store.NewRedisBackend(client), store.WithRelay(relay)), nil
	case config.StoreTypeMemory:
		log.Warn("using the memory store, nothing will be persisted")
		return store.New(store.NewMemoryBackend()), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		store:     kv,
		redirects: make(chan string, 1),
	}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	var err error

	a.scheduler, err = scheduler.New()
	if err != nil {
		return err
	}
	a.scheduler.Start()

	a.session, err = session.New(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	a.theme, err = preferences.NewThemeManager(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to load theme: %w", err)
	}
	a.language, err = preferences.NewLanguageManager(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to load language: %w", err)
	}

	a.profile = profile.NewEditor(a.store, a.session, profile.WithConfig(a.cfg.Profile, a.cfg.Gravatar))
	a.settings = settings.New(settings.Config{
		Store:         a.store,
		Session:       a.session,
		Theme:         a.theme,
		Language:      a.language,
		Timers:        a.scheduler,
		AlertDuration: a.cfg.Settings.AlertDuration,
	})
	a.password = password.New(password.Config{
		Store:      a.store,
		Timers:     a.scheduler,
		Translator: a.language,
		Navigate: func(path string) {
			select {
			case a.redirects <- path:
			default:
			}
		},
		MaxAttempts:   a.cfg.Password.MaxAttempts,
		Lockout:       a.cfg.Password.Lockout,
		RedirectDelay: a.cfg.Password.RedirectDelay,
	})
	a.auth = auth.New(a.store, a.session)
	return nil
}

// Close tears the components down in reverse order.
func (a *app) Close() {
	if a.password != nil {
		a.password.Close()
	}
	if a.settings != nil {
		a.settings.Close()
	}
	if a.language != nil {
		a.language.Close()
	}
	if a.theme != nil {
		a.theme.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			log.Warn("failed to stop scheduler", "error", err)
		}
	}
	if err := a.store.Close(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("failed to close store", "error", err)
	}
}

// withApp runs fn with a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
