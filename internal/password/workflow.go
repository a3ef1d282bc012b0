package password

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/models"
	"github.com/jon4hz/agora/internal/scheduler"
	"github.com/jon4hz/agora/internal/store"
	"github.com/samber/lo"
)

// ErrBusy is returned when a submission arrives while another one is validated.
var ErrBusy = errors.New("a password change is already in progress")

const (
	// SettingsPath is where the workflow navigates after a successful change.
	SettingsPath = "/settings"
	// KeySuccess is the translation key of the success message.
	KeySuccess = "setPassword.success"

	countdownTaskName = "password-lockout-countdown"
	redirectTaskName  = "password-redirect"
)

// State is the state of the workflow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateLocked
	StateRejected
	StateAccepted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateLocked:
		return "locked"
	case StateRejected:
		return "rejected"
	case StateAccepted:
		return "accepted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Translator resolves user facing messages.
type Translator interface {
	Translate(key string) string
	Translatef(key string, vars map[string]any) string
}

// Navigator moves the user to another page.
type Navigator func(path string)

// Config holds the dependencies and limits of a Workflow.
type Config struct {
	Store      store.KV
	Timers     scheduler.Timers
	Translator Translator
	Navigate   Navigator
	// MaxAttempts is the number of consecutive wrong current passwords before locking.
	MaxAttempts int
	// Lockout is how long the workflow stays locked.
	Lockout time.Duration
	// RedirectDelay is the delay before navigating away after a successful change.
	RedirectDelay time.Duration
}

// Workflow validates and applies password changes for the logged-in user.
// The attempt counter and the lock live in memory only.
type Workflow struct {
	kv            store.KV
	timers        scheduler.Timers
	translator    Translator
	navigate      Navigator
	maxAttempts   int
	lockout       time.Duration
	redirectDelay time.Duration
	log           *log.Logger

	mu        sync.Mutex
	state     State
	attempts  int
	remaining int
	lastErr   error
	countdown scheduler.Task
	redirect  scheduler.Task
	// epoch invalidates callbacks of tasks that were replaced or cancelled.
	epoch uint64
}

// New creates a workflow in the Idle state.
func New(cfg Config) *Workflow {
	return &Workflow{
		kv:            cfg.Store,
		timers:        cfg.Timers,
		translator:    cfg.Translator,
		navigate:      cfg.Navigate,
		maxAttempts:   lo.Ternary(cfg.MaxAttempts > 0, cfg.MaxAttempts, 3),
		lockout:       lo.Ternary(cfg.Lockout > 0, cfg.Lockout, 30*time.Second),
		redirectDelay: cfg.RedirectDelay,
		log:           log.Default().WithPrefix("password"),
	}
}

// Submit validates a password change and applies it when the current password
// matches. The returned error is one of the apperr sentinels, ErrBusy or a
// persistence error.
func (w *Workflow) Submit(ctx context.Context, current, newPassword, confirm string) error {
	w.mu.Lock()
	switch w.state {
	case StateLocked:
		w.mu.Unlock()
		return apperr.ErrRateLimited
	case StateValidating:
		w.mu.Unlock()
		return ErrBusy
	}
	prev := w.state
	w.state = StateValidating
	w.lastErr = nil
	w.mu.Unlock()

	if r := Check(newPassword, confirm); !r.Met() {
		err := fmt.Errorf("%w: unmet requirements %s", apperr.ErrPolicyViolation, strings.Join(r.Failed(), ", "))
		return w.refuse(prev, err)
	}

	userID, ok, err := w.kv.Get(ctx, store.KeyLoggedInUserID)
	if err != nil {
		return w.reject(err)
	}
	if !ok || userID == "" {
		return w.reject(apperr.ErrNotAuthenticated)
	}

	err = models.UpdateUsers(ctx, w.kv, func(users []models.User) ([]models.User, error) {
		idx := models.FindUser(users, userID)
		if idx < 0 {
			return nil, fmt.Errorf("no record for user %s: %w", userID, apperr.ErrNotAuthenticated)
		}
		if strings.TrimSpace(current) != strings.TrimSpace(users[idx].Password) {
			return nil, apperr.ErrInvalidCredential
		}
		users[idx].Password = newPassword
		return users, nil
	})
	switch {
	case errors.Is(err, apperr.ErrInvalidCredential):
		return w.failAttempt(userID)
	case err != nil:
		return w.reject(err)
	}

	w.accept(userID)
	return nil
}

func (w *Workflow) reject(err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateRejected
	w.lastErr = err
	if errors.Is(err, apperr.ErrPersistence) {
		w.log.Error("Password change failed", "error", err)
	} else {
		w.log.Debug("Password change rejected", "error", err)
	}
	return err
}

// refuse reports err without a state change: the workflow goes back to the
// state it had before the submission.
func (w *Workflow) refuse(prev State, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = prev
	w.lastErr = err
	w.log.Debug("Password change refused", "error", err)
	return err
}

func (w *Workflow) failAttempt(userID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++
	w.lastErr = apperr.ErrInvalidCredential
	w.log.Warn("Wrong current password", "userid", userID, "attempts", w.attempts)

	if w.attempts < w.maxAttempts {
		w.state = StateRejected
		return apperr.ErrInvalidCredential
	}
	w.lockLocked()
	return apperr.ErrInvalidCredential
}

// lockLocked enters the Locked state. w.mu must be held.
func (w *Workflow) lockLocked() {
	w.cancelTasksLocked()
	w.state = StateLocked
	w.remaining = int(w.lockout.Round(time.Second) / time.Second)
	epoch := w.epoch

	task, err := w.timers.Every(time.Second, countdownTaskName, func(context.Context) {
		w.tick(epoch)
	})
	if err != nil {
		// without a countdown the lock would never lift
		w.log.Error("Failed to start lockout countdown", "error", err)
		w.state = StateRejected
		w.attempts = 0
		return
	}
	w.countdown = task
	w.log.Info("Password change locked", "seconds", w.remaining)
}

func (w *Workflow) tick(epoch uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if epoch != w.epoch || w.state != StateLocked {
		return
	}
	w.remaining--
	if w.remaining > 0 {
		return
	}
	w.cancelTasksLocked()
	w.state = StateIdle
	w.attempts = 0
	w.lastErr = nil
	w.log.Info("Password change unlocked")
}

func (w *Workflow) accept(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelTasksLocked()
	w.state = StateAccepted
	w.attempts = 0
	w.log.Info("Password changed", "userid", userID)

	epoch := w.epoch
	task, err := w.timers.After(w.redirectDelay, redirectTaskName, func(context.Context) {
		w.finishRedirect(epoch)
	})
	if err != nil {
		w.log.Warn("Failed to schedule redirect", "error", err)
		return
	}
	w.redirect = task
}

func (w *Workflow) finishRedirect(epoch uint64) {
	w.mu.Lock()
	if epoch != w.epoch {
		w.mu.Unlock()
		return
	}
	w.redirect = nil
	if w.state == StateAccepted {
		w.state = StateIdle
	}
	navigate := w.navigate
	w.mu.Unlock()

	if navigate != nil {
		navigate(SettingsPath)
	}
}

// cancelTasksLocked cancels the countdown and the redirect. w.mu must be held.
func (w *Workflow) cancelTasksLocked() {
	w.epoch++
	if w.countdown != nil {
		w.countdown.Cancel()
		w.countdown = nil
	}
	if w.redirect != nil {
		w.redirect.Cancel()
		w.redirect = nil
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Attempts returns the number of consecutive wrong current passwords.
func (w *Workflow) Attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

// Remaining returns the seconds left on the lock, zero when not locked.
func (w *Workflow) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateLocked {
		return 0
	}
	return w.remaining
}

// LockMessage returns the localized lock notice, empty when not locked.
func (w *Workflow) LockMessage() string {
	remaining := w.Remaining()
	if remaining == 0 || w.translator == nil {
		return ""
	}
	return w.translator.Translatef(apperr.KeyLocked, map[string]any{"seconds": remaining})
}

// Message returns the localized outcome of the last submission.
func (w *Workflow) Message() string {
	w.mu.Lock()
	state, lastErr := w.state, w.lastErr
	w.mu.Unlock()

	if w.translator == nil {
		return ""
	}
	switch {
	case state == StateLocked:
		return w.LockMessage()
	case lastErr != nil:
		return w.translator.Translate(apperr.MessageKey(lastErr))
	case state == StateAccepted:
		return w.translator.Translate(KeySuccess)
	default:
		return ""
	}
}

// Close cancels the countdown and the pending redirect.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelTasksLocked()
}
