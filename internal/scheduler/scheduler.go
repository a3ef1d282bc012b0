package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context)

// Task is a scheduled job that can be cancelled.
// Cancelling a task that already ran or was cancelled is a no-op.
type Task interface {
	Cancel()
}

// Timers schedules delayed and periodic work.
type Timers interface {
	// After runs fn once after d.
	After(d time.Duration, name string, fn JobFunc) (Task, error)
	// Every runs fn every d until the task is cancelled.
	Every(d time.Duration, name string, fn JobFunc) (Task, error)
}

var _ Timers = (*Scheduler)(nil)

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	clock  clockwork.Clock
	logger *log.Logger
}

// WithClock sets the clock the scheduler measures time with.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger used by the scheduler.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Scheduler runs timers on top of a gocron scheduler.
type Scheduler struct {
	gocron gocron.Scheduler
	clock  clockwork.Clock
	log    *log.Logger

	mu    sync.Mutex
	tasks map[uuid.UUID]*task

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler. Call Start before scheduling work.
func New(opts ...Option) (*Scheduler, error) {
	o := options{clock: clockwork.NewRealClock(), logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	gocronScheduler, err := gocron.NewScheduler(
		gocron.WithLogger(newLogger(o.logger)),
		gocron.WithClock(o.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		clock:  o.clock,
		log:    o.logger.WithPrefix("scheduler"),
		tasks:  make(map[uuid.UUID]*task),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Debug("Starting timer scheduler")
	s.gocron.Start()
}

// Stop cancels all pending tasks and stops the scheduler.
func (s *Scheduler) Stop() error {
	s.log.Debug("Stopping timer scheduler")
	s.cancel()

	s.mu.Lock()
	for _, t := range s.tasks {
		t.cancelled.Store(true)
	}
	clear(s.tasks)
	s.mu.Unlock()

	return s.gocron.Shutdown()
}

// After runs fn once after d. A non-positive d runs fn as soon as possible.
func (s *Scheduler) After(d time.Duration, name string, fn JobFunc) (Task, error) {
	start := gocron.OneTimeJobStartImmediately()
	if d > 0 {
		start = gocron.OneTimeJobStartDateTime(s.clock.Now().Add(d))
	}
	return s.add(gocron.OneTimeJob(start), name, fn, true)
}

// Every runs fn every d until the returned task is cancelled.
func (s *Scheduler) Every(d time.Duration, name string, fn JobFunc) (Task, error) {
	if d <= 0 {
		return nil, fmt.Errorf("invalid interval %s for %s", d, name)
	}
	return s.add(gocron.DurationJob(d), name, fn, false)
}

func (s *Scheduler) add(def gocron.JobDefinition, name string, fn JobFunc, once bool) (Task, error) {
	t := &task{scheduler: s, name: name}

	// hold the lock until the task is registered, an immediate run waits for it
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.gocron.NewJob(def,
		gocron.NewTask(s.wrapJobFunc(t, fn, once)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	t.id = job.ID()
	s.tasks[t.id] = t

	s.log.Debug("Scheduled task", "name", name, "id", t.id)
	return t, nil
}

// wrapJobFunc wraps fn so a cancelled task never reaches fn.
func (s *Scheduler) wrapJobFunc(t *task, fn JobFunc, once bool) func() {
	return func() {
		if t.cancelled.Load() {
			return
		}
		if once {
			s.forget(t)
		}
		fn(s.ctx)
	}
}

func (s *Scheduler) forget(t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, t.id)
}

// Pending returns the number of tasks that are scheduled and not cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type task struct {
	scheduler *Scheduler
	id        uuid.UUID
	name      string
	cancelled atomic.Bool
}

func (t *task) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	t.scheduler.forget(t)
	if err := t.scheduler.gocron.RemoveJob(t.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		t.scheduler.log.Warn("Failed to remove task", "name", t.name, "error", err)
	}
}
