// Package queue delivers fire-and-forget tasks to registered handlers.
// Delivery is at-least-once and unordered; handlers must be idempotent.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler processes one task payload. A failing handler is retried once;
// after that the task is logged and dropped.
type Handler func(ctx context.Context, payload []byte) error

type task struct {
	name    string
	payload []byte
}

// InProc is an in-process queue backed by a buffered channel and a small
// worker pool. It backs local development and tests; deployments use the
// SQS adapter.
type InProc struct {
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler

	tasks chan task
	wg    sync.WaitGroup
}

func NewInProc(buffer int, logger *slog.Logger) *InProc {
	return &InProc{
		logger:   logger,
		handlers: make(map[string]Handler),
		tasks:    make(chan task, buffer),
	}
}

// Register binds a handler to a task name. Must be called before Start.
func (q *InProc) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Enqueue hands a task to the workers. It fails only when the queue is
// saturated or the context is done; callers treat that as a lost task,
// not a reason to fail their own operation.
func (q *InProc) Enqueue(ctx context.Context, name string, payload []byte) error {
	select {
	case q.tasks <- task{name: name, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("task queue full, dropping %s", name)
	}
}

// Start launches the worker pool. Workers drain remaining tasks after the
// context is cancelled and exit when the channel is closed via Stop.
func (q *InProc) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for t := range q.tasks {
				q.dispatch(ctx, t)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (q *InProc) Stop() {
	close(q.tasks)
	q.wg.Wait()
}

func (q *InProc) dispatch(ctx context.Context, t task) {
	q.mu.Lock()
	h, ok := q.handlers[t.name]
	q.mu.Unlock()
	if !ok {
		q.logger.Warn("no handler for task", "task", t.name)
		return
	}
	err := h(ctx, t.payload)
	if err == nil {
		return
	}
	// One retry, then drop. Nobody is waiting on the result.
	if err = h(ctx, t.payload); err != nil {
		q.logger.Error("task failed after retry, dropping", "task", t.name, "error", err)
	}
}
