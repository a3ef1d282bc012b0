// Package apperr defines the error taxonomy shared by the session, settings,
// profile and password packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a current user and none can be resolved.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredential is returned when the supplied current password does not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrPolicyViolation is returned when a new password fails the strength rules.
	ErrPolicyViolation = errors.New("password policy violation")
	// ErrRateLimited is returned while the password workflow is locked out.
	ErrRateLimited = errors.New("too many attempts")
	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("persistence error")
)

// PersistenceError wraps a store read, parse or write failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

// Persistence builds a PersistenceError for the given operation and key.
func Persistence(op, key string, err error) error {
	return &PersistenceError{Op: op, Key: key, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports ErrPersistence as a match so callers don't need errors.As.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Localization keys for user facing messages.
const (
	KeyIncorrect    = "setPassword.errorMessages.incorrect"
	KeyRequirements = "setPassword.errorMessages.requirements"
	KeyLoginAgain   = "setPassword.errorMessages.loginAgain"
	KeyLocked       = "setPassword.locked"
	KeyGeneric      = "setPassword.errorMessages.error"
)

// MessageKey maps an error to the localization key shown to the user.
// Persistence failures and unknown errors collapse into the generic key,
// the cause stays in the logs.
func MessageKey(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return KeyLoginAgain
	case errors.Is(err, ErrInvalidCredential):
		return KeyIncorrect
	case errors.Is(err, ErrPolicyViolation):
		return KeyRequirements
	case errors.Is(err, ErrRateLimited):
		return KeyLocked
	default:
		return KeyGeneric
	}
}
