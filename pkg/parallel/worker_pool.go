// Package parallel provides a generic worker pool for concurrent batch work.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// MaxWorkers is the number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// QueueSize is the buffer size of the internal work queue.
	// Default: MaxWorkers * 2
	QueueSize int

	// Timeout bounds the whole batch. 0 means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers: workers,
		QueueSize:  workers * 2,
	}
}

// WithWorkers returns a copy of the config with n workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy of the config with a batch timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// Task is a unit of work executed by the pool.
type Task[T any, R any] interface {
	// Execute performs the task and returns the result.
	Execute(ctx context.Context) (R, error)
	// Input returns the input data for this task.
	Input() T
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc[T any, R any] struct {
	input   T
	execute func(ctx context.Context, input T) (R, error)
}

// NewTask creates a task from a function.
func NewTask[T any, R any](input T, fn func(ctx context.Context, input T) (R, error)) *TaskFunc[T, R] {
	return &TaskFunc[T, R]{input: input, execute: fn}
}

// Execute implements Task.
func (t *TaskFunc[T, R]) Execute(ctx context.Context) (R, error) {
	return t.execute(ctx, t.input)
}

// Input implements Task.
func (t *TaskFunc[T, R]) Input() T {
	return t.input
}

// TaskResult holds the outcome of one task.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool runs batches of tasks on a fixed number of workers.
type WorkerPool[T any, R any] struct {
	config PoolConfig
}

// NewWorkerPool creates a worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.MaxWorkers * 2
	}
	return &WorkerPool[T, R]{config: config}
}

// Execute runs all tasks and returns one result per task, in input order.
// A canceled or timed-out context leaves the remaining results with their
// zero value.
func (p *WorkerPool[T, R]) Execute(ctx context.Context, tasks []Task[T, R]) []TaskResult[T, R] {
	if len(tasks) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(tasks))
	queue := make(chan int, p.config.QueueSize)

	workers := p.config.MaxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-queue:
					if !ok {
						return
					}
					task := tasks[idx]
					start := time.Now()
					result, err := task.Execute(ctx)
					results[idx] = TaskResult[T, R]{
						Input:    task.Input(),
						Result:   result,
						Error:    err,
						Duration: time.Since(start),
					}
				}
			}
		}()
	}

	go func() {
		defer close(queue)
		for i := range tasks {
			select {
			case <-ctx.Done():
				return
			case queue <- i:
			}
		}
	}()

	wg.Wait()
	return results
}

// ExecuteFunc runs fn over every input and returns one result per input,
// in input order.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	tasks := make([]Task[T, R], len(inputs))
	for i, input := range inputs {
		tasks[i] = NewTask(input, fn)
	}
	return p.Execute(ctx, tasks)
}
