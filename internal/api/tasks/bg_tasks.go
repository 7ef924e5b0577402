package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull = errors.New("background tasks queue is full")
	ErrStopped   = errors.New("background tasks are stopped")
)

type Task = func()

type BackgroudTasks struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func New(log *slog.Logger, maxWorkers int, maxTasksQueueSize int) *BackgroudTasks {
	return &BackgroudTasks{
		log:        log,
		maxWorkers: max(maxWorkers, 1),
		tasks:      make(chan Task, max(maxTasksQueueSize, 0)),
	}
}

func (t *BackgroudTasks) Run() {
	t.wg.Add(t.maxWorkers)
	for i := 0; i < t.maxWorkers; i++ {
		go func(worker int) {
			defer t.wg.Done()
			log := t.log.With("worker", worker)
			for task := range t.tasks {
				t.execute(log, task)
			}
		}(i)
	}
}

func (t *BackgroudTasks) execute(log *slog.Logger, task Task) {
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic in background task", "err", err)
		}
	}()
	task()
}

// Add schedules task without blocking the caller.
func (t *BackgroudTasks) Add(task Task) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.stopped {
		return ErrStopped
	}
	select {
	case t.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (t *BackgroudTasks) Shutdown(ctx context.Context) error {
	const op = "tasks.BackgroudTasks.Shutdown"
	log := t.log.With("op", op)
	log.Info("shutting down background tasks")
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		close(t.tasks)
	}
	t.mu.Unlock()
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("Background tasks succesfully stopped")
		return nil
	}
}

func (t *BackgroudTasks) IsEmpty() bool {
	return len(t.tasks) == 0
}
