// Package worker runs one cancellable background task at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// ErrBusy is returned by Start while a task is still running.
var ErrBusy = errors.New("a task is already running")

// Task is a handle to one background run.
type Task[T any] struct {
	done   chan struct{}
	result T
}

// Done is closed when the task has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Result returns the task's value. It is only meaningful after Done.
func (t *Task[T]) Result() T {
	return t.result
}

// Wait blocks until the task returns and yields its value.
func (t *Task[T]) Wait() T {
	<-t.done
	return t.result
}

// Runner executes at most one task at a time.
type Runner[T any] struct {
	name   string
	logger *zap.SugaredLogger

	// Recover converts a panic value into the task result. A nil Recover
	// yields the zero value.
	Recover func(v any) T

	mu     sync.Mutex
	task   *Task[T]
	cancel context.CancelFunc
}

// NewRunner creates a Runner. name only appears in log output.
func NewRunner[T any](name string, logger *zap.SugaredLogger) *Runner[T] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner[T]{name: name, logger: logger}
}

// Start runs fn on a new goroutine with a context derived from ctx. The
// context is cancelled by Stop.
func (r *Runner[T]) Start(ctx context.Context, fn func(ctx context.Context) T) (*Task[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.task != nil {
		select {
		case <-r.task.done:
		default:
			return nil, ErrBusy
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	task := &Task[T]{done: make(chan struct{})}
	r.task = task
	r.cancel = cancel

	go r.run(runCtx, cancel, task, fn)

	return task, nil
}

func (r *Runner[T]) run(ctx context.Context, cancel context.CancelFunc, task *Task[T], fn func(ctx context.Context) T) {
	defer close(task.done)
	defer cancel()
	defer func() {
		if v := recover(); v != nil {
			r.logger.Errorw("Task panicked", "runner", r.name, "panic", fmt.Sprint(v), "stack", string(debug.Stack()))
			var zero T
			task.result = zero
			if r.Recover != nil {
				task.result = r.Recover(v)
			}
		}
	}()

	r.logger.Debugw("Task started", "runner", r.name)
	task.result = fn(ctx)
	r.logger.Debugw("Task finished", "runner", r.name)
}

// Stop cancels the running task, if any, without waiting for it.
func (r *Runner[T]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
}

// StopWait cancels the running task and blocks until it has returned.
func (r *Runner[T]) StopWait() {
	r.mu.Lock()
	task := r.task
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	if task != nil {
		<-task.done
	}
}

// Busy reports whether a task is running.
func (r *Runner[T]) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.task == nil {
		return false
	}
	select {
	case <-r.task.done:
		return false
	default:
		return true
	}
}
