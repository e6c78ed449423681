package chron

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reugn/go-chron/logger"
)

// DefaultDensity is the default extra wait margin added on top of the
// time remaining to the next occurrence.
const DefaultDensity = 100 * time.Millisecond

// BatchEvent describes one dispatch batch: the tasks whose next
// occurrence was exactly equal at a loop iteration.
type BatchEvent struct {
	// TaskIDs are the identities of the tasks in the batch.
	TaskIDs []int64

	// Start is the batch dispatch start time.
	Start time.Time

	// End is the batch completion time; it is zero in the enter
	// notification.
	End time.Time

	// Elapsed is End minus Start; it is zero in the enter notification.
	Elapsed time.Duration
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Density is the minimum extra wait margin. Each wait rounds the
	// remaining time up to whole seconds and adds Density, absorbing
	// scheduling jitter without ever under-sleeping. Defaults to
	// DefaultDensity when not positive.
	Density time.Duration

	// DetachAsync launches asynchronous actions detached instead of
	// awaiting them inline. Detached actions do not serialize the
	// batch and their failures are only logged; a task slower than
	// its own schedule may overlap itself.
	DetachAsync bool

	// PropagateErrors terminates the loop on the first task failure.
	// When false (the default), failures are logged per task and the
	// batch and the loop continue.
	PropagateErrors bool

	// Logger receives the scheduler's structured events. Defaults to
	// a no-op logger.
	Logger logger.Logger

	// OnBatchStart, when set, is called before each batch dispatch.
	OnBatchStart func(BatchEvent)

	// OnBatchEnd, when set, is called after each batch dispatch,
	// including batches with swallowed task failures.
	OnBatchEnd func(BatchEvent)
}

// Due pairs an occurrence instant with the tasks due at exactly that
// instant.
type Due struct {
	At    time.Time
	Tasks []*Task
}

// Scheduler owns a mutable task registry and drives the wait/dispatch
// cycle: each iteration computes the minimum next occurrence across
// the registered tasks, sleeps until it on a cancellable timer, and
// dispatches the tied tasks as one batch.
type Scheduler struct {
	mu         sync.Mutex
	wg         sync.WaitGroup
	tasks      []*Task
	interrupt  chan struct{}
	cancel     context.CancelFunc
	started    bool
	generation int64
	iterations int64
	opts       SchedulerOptions
}

// NewScheduler returns a new Scheduler with the default configuration.
func NewScheduler() *Scheduler {
	return NewSchedulerWithOptions(SchedulerOptions{})
}

// NewSchedulerWithOptions returns a new Scheduler configured as
// specified.
func NewSchedulerWithOptions(opts SchedulerOptions) *Scheduler {
	if opts.Density <= 0 {
		opts.Density = DefaultDensity
	}
	if opts.Logger == nil {
		opts.Logger = logger.NoOpLogger{}
	}
	return &Scheduler{
		interrupt: make(chan struct{}),
		opts:      opts,
	}
}

// Start launches the scheduler loop. The loop runs until Stop is
// called or the context is canceled; use Wait to block until it has
// fully shut down. Starting a running scheduler fails with
// ErrSchedulerRunning.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.generation++

	s.opts.Logger.Info("scheduler started")
	s.wg.Add(1)
	go s.run(ctx, s.generation)

	return nil
}

// Run is the synchronous entry point: it starts the scheduler and
// blocks until it stops or the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	s.Wait(ctx)
	return nil
}

// Wait blocks until the scheduler loop and all tracked detached tasks
// have returned, or until the context expires.
func (s *Scheduler) Wait(ctx context.Context) {
	sig := make(chan struct{})
	go func() { defer close(sig); s.wg.Wait() }()
	select {
	case <-ctx.Done():
	case <-sig:
	}
}

// IsStarted reports whether the scheduler is running.
func (s *Scheduler) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Stop signals the scheduler loop to exit. It is idempotent and safe
// to call from any goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.opts.Logger.Info("scheduler stopping")
	s.cancel()
	s.started = false
}

// Add registers the task. A running scheduler recomputes its pending
// wait, so a task due sooner than the current wait is not missed.
func (s *Scheduler) Add(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, task)
	s.opts.Logger.Info("task added", "task", task.ID(),
		"schedule", task.Schedule().String())
	s.resetLocked()
}

// AddFunc registers a synchronous function under the given schedule
// and returns the created task.
func (s *Scheduler) AddFunc(schedule *Schedule, fn func(context.Context) error) *Task {
	task := NewTask(schedule, SyncAction(fn))
	s.Add(task)
	return task
}

// Remove deregisters the task with the given identity.
func (s *Scheduler) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, task := range s.tasks {
		if task.ID() == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.opts.Logger.Info("task removed", "task", id)
			s.resetLocked()
			return nil
		}
	}
	return taskNotFoundError("no task with the given id found")
}

// RemoveTask deregisters the task by reference.
func (s *Scheduler) RemoveTask(task *Task) error {
	return s.Remove(task.ID())
}

// RemoveTasks deregisters the tasks with the given identities and
// returns the number actually removed.
func (s *Scheduler) RemoveTasks(ids ...int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		for i, task := range s.tasks {
			if task.ID() == id {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				removed++
				break
			}
		}
	}
	if removed > 0 {
		s.opts.Logger.Info("tasks removed", "count", removed)
		s.resetLocked()
	}
	return removed
}

// RemoveAll deregisters every task. A running scheduler falls back to
// an indefinite wait until the next mutation or cancellation.
func (s *Scheduler) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.tasks)
	s.tasks = nil
	s.opts.Logger.Info("all tasks removed", "count", count)
	s.resetLocked()
}

// Find returns the registered task with the given identity.
func (s *Scheduler) Find(id int64) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		if task.ID() == id {
			return task, nil
		}
	}
	return nil, taskNotFoundError("no task with the given id found")
}

// Count returns the number of registered tasks.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Tasks returns a snapshot of the registered tasks.
func (s *Scheduler) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*Task, len(s.tasks))
	copy(snapshot, s.tasks)
	return snapshot
}

// Refresh forces a running scheduler to recompute its pending wait.
// Call it after swapping a task's schedule with Task.SetSchedule.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Upcoming returns every occurrence of every registered task strictly
// after base and before end, grouped by instant and ordered by time.
// It is read-only and has no dispatch side effects; the caller bounds
// the range.
func (s *Scheduler) Upcoming(base, end time.Time) []Due {
	tasks := s.Tasks()

	type entry struct {
		at   time.Time
		task *Task
	}
	entries := make([]entry, 0, len(tasks))
	for _, task := range tasks {
		it := task.Schedule().Occurrences(base, end)
		for {
			next, ok := it.Next()
			if !ok {
				break
			}
			entries = append(entries, entry{next, task})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at.Equal(entries[j].at) {
			return entries[i].task.ID() < entries[j].task.ID()
		}
		return entries[i].at.Before(entries[j].at)
	})

	var due []Due
	for _, e := range entries {
		if n := len(due); n > 0 && due[n-1].At.Equal(e.at) {
			due[n-1].Tasks = append(due[n-1].Tasks, e.task)
			continue
		}
		due = append(due, Due{At: e.at, Tasks: []*Task{e.task}})
	}
	return due
}

// resetLocked replaces the interrupt source, waking the loop out of
// its current wait. Callers must hold the mutex.
func (s *Scheduler) resetLocked() {
	close(s.interrupt)
	s.interrupt = make(chan struct{})
}

func (s *Scheduler) run(ctx context.Context, generation int64) {
	defer s.wg.Done()
	defer s.markStopped(generation)

	for {
		s.mu.Lock()
		s.iterations++
		iteration := s.iterations
		interrupt := s.interrupt
		now := time.Now()
		batch, at := s.dueLocked(now)
		s.mu.Unlock()

		if len(batch) == 0 {
			// nothing scheduled; park until a mutation or shutdown
			s.opts.Logger.Trace("scheduler parked", "iteration", iteration)
			select {
			case <-ctx.Done():
				return
			case <-interrupt:
				s.opts.Logger.Debug("wait canceled", "reason", "tasks changed")
				continue
			}
		}

		timer := time.NewTimer(s.waitDuration(now, at))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-interrupt:
			timer.Stop()
			s.opts.Logger.Debug("wait canceled", "reason", "tasks changed")
			continue
		case <-timer.C:
		}

		if err := s.dispatch(ctx, batch); err != nil {
			s.opts.Logger.Error("scheduler loop terminated", "error", err)
			return
		}
	}
}

// markStopped is the terminal state transition, guaranteed on every
// loop exit path. A loop outlived by a restart must not touch the
// successor's state or cancel its context.
func (s *Scheduler) markStopped(generation int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}
	s.cancel()
	s.started = false
	s.opts.Logger.Info("scheduler stopped")
}

// dueLocked computes the minimum next occurrence across the registry
// and the set of tasks tied to that exact instant. Callers must hold
// the mutex.
func (s *Scheduler) dueLocked(now time.Time) ([]*Task, time.Time) {
	var batch []*Task
	var at time.Time
	for _, task := range s.tasks {
		next := task.Schedule().NextOccurrence(now, EndOfTime)
		if !next.Before(EndOfTime) {
			// no further occurrence for this task
			continue
		}
		switch {
		case at.IsZero() || next.Before(at):
			at = next
			batch = append(batch[:0], task)
		case next.Equal(at):
			batch = append(batch, task)
		}
	}
	return batch, at
}

// waitDuration rounds the time remaining to the occurrence up to whole
// seconds and adds the density margin; it never under-sleeps.
func (s *Scheduler) waitDuration(now, at time.Time) time.Duration {
	remaining := at.Sub(now)
	if remaining <= 0 {
		return 0
	}
	d := remaining.Truncate(time.Second)
	if d < remaining {
		d += time.Second
	}
	return d + s.opts.Density
}

// dispatch executes one batch. Tasks removed during the wait window
// are skipped; per-task failures are isolated unless PropagateErrors
// is set.
func (s *Scheduler) dispatch(ctx context.Context, batch []*Task) error {
	batch = s.registered(batch)
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	ids := make([]int64, len(batch))
	for i, task := range batch {
		ids[i] = task.ID()
	}
	if s.opts.OnBatchStart != nil {
		s.opts.OnBatchStart(BatchEvent{TaskIDs: ids, Start: start})
	}

	var failure error
	for _, task := range batch {
		if ctx.Err() != nil {
			break
		}
		s.opts.Logger.Debug("task dispatched", "task", task.ID())
		if err := s.invoke(ctx, task); err != nil {
			s.opts.Logger.Error("task failed", "task", task.ID(), "error", err)
			if s.opts.PropagateErrors {
				failure = err
				break
			}
		}
	}

	end := time.Now()
	elapsed := end.Sub(start)
	if s.opts.OnBatchEnd != nil {
		s.opts.OnBatchEnd(BatchEvent{
			TaskIDs: ids,
			Start:   start,
			End:     end,
			Elapsed: elapsed,
		})
	}
	s.opts.Logger.Debug("batch complete", "count", len(batch),
		"elapsed", elapsed)
	return failure
}

// invoke runs a single task body: synchronous actions inline, and
// asynchronous ones inline or detached per the DetachAsync option.
// Detached failures are logged, never propagated.
func (s *Scheduler) invoke(ctx context.Context, task *Task) error {
	action := task.Action()
	if action.async() && s.opts.DetachAsync {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := action.Invoke(ctx); err != nil {
				s.opts.Logger.Error("task failed", "task", task.ID(),
					"error", err)
			}
		}()
		return nil
	}
	return action.Invoke(ctx)
}

// registered filters the batch down to tasks still present in the
// registry.
func (s *Scheduler) registered(batch []*Task) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[int64]struct{}, len(s.tasks))
	for _, task := range s.tasks {
		current[task.ID()] = struct{}{}
	}
	kept := batch[:0]
	for _, task := range batch {
		if _, ok := current[task.ID()]; ok {
			kept = append(kept, task)
		}
	}
	return kept
}
