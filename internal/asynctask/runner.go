// Package asynctask simulates slow backend work: a submitted task stays
// pending for a fixed delay and then resolves in place to done or failed.
package asynctask

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotPending   = errors.New("task is not pending")
	ErrClosed       = errors.New("runner is closed")
)

const subscriberBuffer = 16

// Operation produces the output for a task once its delay has elapsed.
type Operation[I, O any] func(ctx context.Context, input I) (O, error)

// FailureInjector is consulted before the operation runs; a non-nil error
// fails the task.
type FailureInjector func() error

type Task[I, O any] struct {
	ID          string     `json:"id"`
	Input       I          `json:"input"`
	Output      O          `json:"output"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Event reports a task after a status change.
type Event[I, O any] struct {
	Task Task[I, O]
}

type Options struct {
	Delay  time.Duration
	Inject FailureInjector
	Now    func() time.Time
	NewID  func() string
}

type entry[I, O any] struct {
	task   Task[I, O]
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner tracks tasks from submission to completion. There is no cap on the
// number of pending tasks.
type Runner[I, O any] struct {
	mu          sync.Mutex
	op          Operation[I, O]
	delay       time.Duration
	inject      FailureInjector
	now         func() time.Time
	newID       func() string
	tasks       map[string]*entry[I, O]
	order       []string
	subscribers map[chan Event[I, O]]struct{}
	closed      bool
}

func NewRunner[I, O any](op Operation[I, O], opts Options) *Runner[I, O] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Runner[I, O]{
		op:          op,
		delay:       opts.Delay,
		inject:      opts.Inject,
		now:         opts.Now,
		newID:       opts.NewID,
		tasks:       make(map[string]*entry[I, O]),
		subscribers: make(map[chan Event[I, O]]struct{}),
	}
}

// Submit registers a pending task and returns its id without waiting.
func (r *Runner[I, O]) Submit(input I) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry[I, O]{
		task: Task[I, O]{
			ID:          r.newID(),
			Input:       input,
			Status:      StatusPending,
			SubmittedAt: r.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.tasks[e.task.ID] = e
	r.order = append(r.order, e.task.ID)
	r.publishLocked(e.task)

	go r.run(ctx, e)
	return e.task.ID, nil
}

func (r *Runner[I, O]) run(ctx context.Context, e *entry[I, O]) {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	var (
		output O
		err    error
	)
	if r.inject != nil {
		err = r.inject()
	}
	if err == nil {
		output, err = r.op(ctx, e.task.Input)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Canceled, removed or closed while the operation ran: drop the result.
	if current, ok := r.tasks[e.task.ID]; !ok || current != e || e.task.Status != StatusPending {
		return
	}

	completedAt := r.now()
	e.task.CompletedAt = &completedAt
	if err != nil {
		e.task.Status = StatusFailed
		e.task.Error = err.Error()
	} else {
		e.task.Status = StatusDone
		e.task.Output = output
	}
	e.cancel()
	close(e.done)
	r.publishLocked(e.task)
}

func (r *Runner[I, O]) Get(id string) (Task[I, O], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return Task[I, O]{}, ErrTaskNotFound
	}
	return e.task, nil
}

// List returns tasks in submission order.
func (r *Runner[I, O]) List() []Task[I, O] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task[I, O], 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].task)
	}
	return out
}

// Pending reports how many tasks have not resolved yet.
func (r *Runner[I, O]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, e := range r.tasks {
		if e.task.Status == StatusPending {
			count++
		}
	}
	return count
}

// Wait blocks until the task leaves pending or ctx ends.
func (r *Runner[I, O]) Wait(ctx context.Context, id string) (Task[I, O], error) {
	r.mu.Lock()
	e, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return Task[I, O]{}, ErrTaskNotFound
	}

	select {
	case <-ctx.Done():
		return Task[I, O]{}, ctx.Err()
	case <-e.done:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return e.task, nil
}

func (r *Runner[I, O]) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if e.task.Status != StatusPending {
		return ErrNotPending
	}
	r.cancelLocked(e)
	return nil
}

// Remove forgets a task, canceling it first when still pending.
func (r *Runner[I, O]) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if e.task.Status == StatusPending {
		r.cancelLocked(e)
	}

	delete(r.tasks, id)
	for idx, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	return nil
}

// Subscribe returns a channel of status changes and a func to stop listening.
// Slow subscribers miss events rather than block the runner.
func (r *Runner[I, O]) Subscribe() (<-chan Event[I, O], func()) {
	ch := make(chan Event[I, O], subscriberBuffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.subscribers[ch]; ok {
				delete(r.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Close cancels every pending task and closes subscriber channels. Later
// submissions fail with ErrClosed.
func (r *Runner[I, O]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for _, id := range r.order {
		if e := r.tasks[id]; e.task.Status == StatusPending {
			r.cancelLocked(e)
		}
	}
	for ch := range r.subscribers {
		delete(r.subscribers, ch)
		close(ch)
	}
}

func (r *Runner[I, O]) cancelLocked(e *entry[I, O]) {
	completedAt := r.now()
	e.task.Status = StatusCanceled
	e.task.CompletedAt = &completedAt
	e.cancel()
	close(e.done)
	r.publishLocked(e.task)
}

func (r *Runner[I, O]) publishLocked(task Task[I, O]) {
	for ch := range r.subscribers {
		select {
		case ch <- Event[I, O]{Task: task}:
		default:
		}
	}
}
