package service

import (
	"context"
	"errors"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"ladder-tracker/internal/constants"
)

// ErrQueueFull is returned when the task backlog is at capacity.
var ErrQueueFull = errors.New("service: task queue full")

// Task is one queued unit of work.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Queue serializes computation runs on a single worker so no two runs touch
// the same season's persisted rows concurrently. Requests queue rather than
// interleave.
type Queue struct {
	tasks  chan Task
	logger zerolog.Logger

	mu      sync.Mutex
	pending int
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewQueue(logger zerolog.Logger) *Queue {
	return &Queue{
		tasks:  make(chan Task, constants.QueueCapacity),
		logger: logger,
	}
}

// Enqueue schedules a task and returns its id without waiting for it to run.
func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	task := Task{ID: id, Name: name, Run: run}

	select {
	case q.tasks <- task:
	default:
		return "", ErrQueueFull
	}

	q.mu.Lock()
	q.pending++
	q.mu.Unlock()

	q.logger.Info().Str("task_id", id).Str("task", name).Msg("task queued")
	return id, nil
}

// Pending returns the number of tasks queued or running.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Start launches the single worker goroutine.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})
	go q.work(ctx)
}

// Stop cancels the running task and waits for the worker to exit.
func (q *Queue) Stop(ctx context.Context) error {
	q.cancel()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) work(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.run(ctx, task)
		}
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	defer func() {
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
	}()

	logger := q.logger.With().Str("task_id", task.ID).Str("task", task.Name).Logger()
	logger.Info().Msg("task started")

	taskCtx, cancel := context.WithTimeout(ctx, constants.RecomputeTimeout)
	defer cancel()

	if err := task.Run(taskCtx); err != nil {
		logger.Error().Err(err).Msg("task failed")
		return
	}
	logger.Info().Msg("task finished")
}
