package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize     = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type Scheduler struct {
	planners       []Planner
	interval       time.Duration
	workerCount    int
	retryBaseDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

func NewScheduler(workerCount int, interval time.Duration, planners ...Planner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		planners:       planners,
		interval:       interval,
		workerCount:    max(workerCount, 1),
		retryBaseDelay: time.Second,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers to exit. Queued tasks
// are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	now := time.Now()

	for _, planner := range s.planners {
		for _, task := range planner.PlanTasks(now) {
			if err := s.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue task", "task", task, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	if s.ctx.Err() != nil {
		slog.Debug("Scheduler stopped, task abandoned", "task", task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "task", task, "duration", task.GetDuration().Round(time.Millisecond).String(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "task", task, "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(s.retryBaseDelay<<uint(task.GetRetryCount()-1), maxRetryDelay)

	slog.Warn("Task retry scheduled", "task", task, "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "task", task)
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "task", task, "error", retryErr)
			}
		}
	}()
}
