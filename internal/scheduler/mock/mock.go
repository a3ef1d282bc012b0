package mock

import (
	"context"
	"sync"
	"time"

	"github.com/jon4hz/agora/internal/scheduler"
)

// Timers is a manual implementation of scheduler.Timers for testing.
// Nothing runs until a test calls Fire.
type Timers struct {
	mu    sync.Mutex
	tasks []*Task

	// AfterError and EveryError are returned by the matching method when set.
	AfterError error
	EveryError error
}

var _ scheduler.Timers = (*Timers)(nil)

// Task is a task registered on the mock.
type Task struct {
	Name     string
	Delay    time.Duration
	Repeat   bool
	fn       scheduler.JobFunc
	owner    *Timers
	done     bool
	canceled bool
	Runs     int
}

// NewTimers creates a new mock scheduler.
func NewTimers() *Timers {
	return &Timers{}
}

func (m *Timers) After(d time.Duration, name string, fn scheduler.JobFunc) (scheduler.Task, error) {
	return m.add(d, name, fn, false, m.AfterError)
}

func (m *Timers) Every(d time.Duration, name string, fn scheduler.JobFunc) (scheduler.Task, error) {
	return m.add(d, name, fn, true, m.EveryError)
}

func (m *Timers) add(d time.Duration, name string, fn scheduler.JobFunc, repeat bool, err error) (scheduler.Task, error) {
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &Task{Name: name, Delay: d, Repeat: repeat, fn: fn, owner: m}
	m.tasks = append(m.tasks, t)
	return t, nil
}

// Cancel marks the task as cancelled.
func (t *Task) Cancel() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.canceled = true
}

// Canceled reports whether the task was cancelled.
func (t *Task) Canceled() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.canceled
}

// Pending returns the active tasks with the given name.
func (m *Timers) Pending(name string) []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Task
	for _, t := range m.tasks {
		if t.Name == name && !t.done && !t.canceled {
			out = append(out, t)
		}
	}
	return out
}

// All returns every task registered with the given name, including finished ones.
func (m *Timers) All(name string) []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Task
	for _, t := range m.tasks {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// Fire runs every active task with the given name once and returns how many ran.
// One-shot tasks are finished afterwards. Task functions run without the mock's lock
// held, so they may schedule or cancel tasks.
func (m *Timers) Fire(name string) int {
	pending := m.Pending(name)
	ran := 0
	for _, t := range pending {
		m.mu.Lock()
		if t.canceled || t.done {
			m.mu.Unlock()
			continue
		}
		if !t.Repeat {
			t.done = true
		}
		t.Runs++
		fn := t.fn
		m.mu.Unlock()

		fn(context.Background())
		ran++
	}
	return ran
}

// FireN calls Fire n times and returns the total number of runs.
func (m *Timers) FireN(name string, n int) int {
	total := 0
	for range n {
		total += m.Fire(name)
	}
	return total
}
