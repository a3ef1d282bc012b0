// Package auth resolves email and password against the users collection and
// starts the session.
package auth

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/store"
)

// Session is the part of the session manager used to log in and out.
type Session interface {
	Login(ctx context.Context, user models.User) error
	Logout(ctx context.Context) error
}

// Authenticator logs users in with their email and password.
type Authenticator struct {
	kv      store.KV
	session Session
	log     *log.Logger
}

// New creates an authenticator.
func New(kv store.KV, session Session) *Authenticator {
	return &Authenticator{
		kv:      kv,
		session: session,
		log:     log.Default().WithPrefix("auth"),
	}
}

// Login finds the user with the given email, compares the trimmed passwords
// and starts the session. It also records the user id under loggedInUserId.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*models.User, error) {
	users, err := models.LoadUsers(ctx, a.kv)
	if err != nil {
		return nil, err
	}

	idx := models.FindUserByEmail(users, email)
	if idx < 0 {
		a.log.Warn("Login for unknown email", "email", email)
		return nil, apperr.ErrInvalidCredential
	}
	user := users[idx]
	if strings.TrimSpace(user.Password) != strings.TrimSpace(password) {
		a.log.Warn("Login with wrong password", "userid", user.UserID)
		return nil, apperr.ErrInvalidCredential
	}

	if err := a.kv.Set(ctx, store.KeyLoggedInUserID, user.UserID.String()); err != nil {
		return nil, err
	}
	if err := a.session.Login(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}
