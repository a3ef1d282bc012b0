// Package profile edits the user-authored profile records stored under userProfiles.
package profile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
)

// PlaceholderPicture is shown when a profile has no picture.
const PlaceholderPicture = "/api/placeholder/150/150"

// Identity provides the logged-in user.
type Identity interface {
	CurrentUser() *models.User
}

// Option configures an Editor.
type Option func(*Editor)

// WithClock sets the clock used for lastUpdated timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(e *Editor) {
		e.clock = c
	}
}

// WithConfig sets the picture limits and the gravatar fallback.
func WithConfig(profile *config.ProfileConfig, gravatar *config.GravatarConfig) Option {
	return func(e *Editor) {
		if profile != nil {
			e.pictures = *profile
		}
		e.gravatar = gravatar
	}
}

// Editor holds the profile form of the session user.
type Editor struct {
	kv       store.KV
	identity Identity
	clock    clockwork.Clock
	pictures config.ProfileConfig
	gravatar *config.GravatarConfig
	log      *log.Logger

	mu   sync.Mutex
	form models.Profile
}

// NewEditor creates an editor with an empty form.
func NewEditor(kv store.KV, identity Identity, opts ...Option) *Editor {
	e := &Editor{
		kv:       kv,
		identity: identity,
		clock:    clockwork.NewRealClock(),
		pictures: *config.Default().Profile,
		log:      log.Default().WithPrefix("profile"),
		form:     Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default returns an empty profile form.
func Default() models.Profile {
	return models.Profile{
		Interests:      []string{},
		Skills:         []string{},
		ProfilePicture: PlaceholderPicture,
	}
}

// Load fills the form with the session user's stored profile, or with defaults
// pre-filled from the session user when none is stored.
func (e *Editor) Load(ctx context.Context) (models.Profile, error) {
	user := e.identity.CurrentUser()
	if user == nil {
		return models.Profile{}, apperr.ErrNotAuthenticated
	}
	if user.Email == "" {
		e.setForm(Default())
		return e.Form(), nil
	}

	p, found, err := e.lookup(ctx, user.Email)
	if err != nil {
		return models.Profile{}, err
	}
	if !found {
		p.Email = user.Email
		p.Username = user.Username
	}
	e.setForm(p)
	return e.Form(), nil
}

// LoadByEmail fills the form with the profile stored for email, or with defaults.
func (e *Editor) LoadByEmail(ctx context.Context, email string) (models.Profile, error) {
	p, found, err := e.lookup(ctx, email)
	if err != nil {
		return models.Profile{}, err
	}
	if !found {
		p.Email = email
	}
	e.setForm(p)
	return e.Form(), nil
}

func (e *Editor) lookup(ctx context.Context, email string) (models.Profile, bool, error) {
	profiles, err := models.LoadProfiles(ctx, e.kv)
	if err != nil {
		return models.Profile{}, false, err
	}
	p, ok := profiles[email]
	if !ok {
		return Default(), false, nil
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return p, true, nil
}

func (e *Editor) setForm(p models.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = p.Clone()
}

// Form returns a copy of the current form.
func (e *Editor) Form() models.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Clone()
}

// SetField changes one of the free-text fields of the form.
func (e *Editor) SetField(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch field {
	case "username":
		e.form.Username = value
	case "bio":
		e.form.Bio = value
	case "email":
		e.form.Email = value
	case "location":
		e.form.Location = value
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

// ToggleTag adds value to the tag set of kind if it is absent and removes it otherwise.
func (e *Editor) ToggleTag(kind models.TagKind, value string) error {
	if err := checkTag(kind, value); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tags := e.form.Tags(kind)
	if lo.Contains(tags, value) {
		e.form.SetTags(kind, lo.Without(tags, value))
	} else {
		e.form.SetTags(kind, append(tags, value))
	}
	return nil
}

// RemoveTag removes value from the tag set of kind.
func (e *Editor) RemoveTag(kind models.TagKind, value string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown tag kind %q", kind)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.SetTags(kind, lo.Without(e.form.Tags(kind), value))
	return nil
}

func checkTag(kind models.TagKind, value string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown tag kind %q", kind)
	}
	if !kind.Allows(value) {
		return fmt.Errorf("unknown %s tag %q, expected one of %s", kind, value, strings.Join(kind.Options(), ", "))
	}
	return nil
}

// Save stores a copy of p, stamped with the current time, as the session user's
// profile. The previous entry is overwritten.
func (e *Editor) Save(ctx context.Context, p models.Profile) (models.Profile, error) {
	user := e.identity.CurrentUser()
	if user == nil || user.Email == "" {
		return models.Profile{}, apperr.ErrNotAuthenticated
	}

	saved := p.Clone()
	now := e.clock.Now().UTC().Truncate(time.Millisecond)
	saved.LastUpdated = &now
	if err := saved.Validate(); err != nil {
		return models.Profile{}, fmt.Errorf("invalid profile: %w", err)
	}

	err := models.UpdateProfiles(ctx, e.kv, func(profiles map[string]models.Profile) error {
		profiles[user.Email] = saved
		return nil
	})
	if err != nil {
		return models.Profile{}, err
	}

	e.setForm(saved)
	e.log.Info("Saved profile", "email", user.Email)
	return saved.Clone(), nil
}

// SetPicture encodes the picture read from r and puts it on the form.
func (e *Editor) SetPicture(r io.Reader) error {
	uri, err := EncodePicture(r, e.pictures)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.ProfilePicture = uri
	return nil
}

// PictureURL returns the picture to display for the form.
func (e *Editor) PictureURL() string {
	return PictureURL(e.Form(), e.gravatar)
}
