package chron

import (
	"context"
	"sync"
	"sync/atomic"
)

// taskCounter issues process-wide task identities. It is owned by this
// package and reset only at process start.
var taskCounter atomic.Int64

func nextTaskID() int64 {
	return taskCounter.Add(1)
}

// Action is the invocable body of a Task. It is a closed two-variant
// interface: SyncAction runs inline on the scheduler loop, AsyncAction
// is either awaited inline or launched detached, depending on the
// scheduler configuration.
type Action interface {
	// Invoke is called by a Scheduler when the schedule associated
	// with the task fires.
	Invoke(context.Context) error

	// async tags the variant and seals the interface.
	async() bool
}

// SyncAction is a synchronous task body; it blocks the scheduler loop
// for the duration of the call.
type SyncAction func(context.Context) error

// AsyncAction is an asynchronous task body.
type AsyncAction func(context.Context) error

var (
	_ Action = (SyncAction)(nil)
	_ Action = (AsyncAction)(nil)
)

// Invoke calls the function.
func (a SyncAction) Invoke(ctx context.Context) error { return a(ctx) }

func (SyncAction) async() bool { return false }

// Invoke calls the function.
func (a AsyncAction) Invoke(ctx context.Context) error { return a(ctx) }

func (AsyncAction) async() bool { return true }

// Task binds a schedule to an action under an immutable numeric
// identity. The schedule reference may be swapped at any time; a
// running scheduler picks the change up on its next recompute (see
// Scheduler.Refresh).
type Task struct {
	id       int64
	mu       sync.RWMutex
	schedule *Schedule
	action   Action
}

// NewTask returns a new Task with a unique process-wide identity.
// It will panic if the schedule or action is nil.
func NewTask(schedule *Schedule, action Action) *Task {
	if schedule == nil {
		panic("nil schedule")
	}
	if action == nil {
		panic("nil action")
	}
	return &Task{
		id:       nextTaskID(),
		schedule: schedule,
		action:   action,
	}
}

// ID returns the task identity.
func (t *Task) ID() int64 {
	return t.id
}

// Schedule returns the current schedule of the task.
func (t *Task) Schedule() *Schedule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schedule
}

// SetSchedule swaps the schedule of the task. It will panic if the
// schedule is nil.
func (t *Task) SetSchedule(schedule *Schedule) {
	if schedule == nil {
		panic("nil schedule")
	}
	t.mu.Lock()
	t.schedule = schedule
	t.mu.Unlock()
}

// Action returns the action of the task.
func (t *Task) Action() Action {
	return t.action
}
