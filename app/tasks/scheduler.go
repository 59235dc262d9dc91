package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/quickwatch/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize   = 100
	taskTimeout = 5 * time.Minute
	maxBackoff  = 30 * time.Second
)

// ArchiveLister is implemented by sources.Registry.
type ArchiveLister interface {
	List() []*sources.Archive
}

type Scheduler struct {
	liveFeed     LiveFeedRefresher
	bootstrapper ArchiveBootstrapper
	archives     ArchiveLister
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

// NewScheduler wires the worker pool. A zero interval disables periodic
// live feed refreshes; startup tasks still run.
func NewScheduler(liveFeed LiveFeedRefresher, bootstrapper ArchiveBootstrapper, archives ArchiveLister,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		liveFeed:     liveFeed,
		bootstrapper: bootstrapper,
		archives:     archives,
		interval:     interval,
		workerCount:  max(workerCount, 1),
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, queueSize),
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

		s.enqueueStartupTasks()

		if s.interval <= 0 {
			slog.Debug("Periodic live feed refresh disabled")
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

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

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	archives := s.archives.List()
	slog.Debug("Scheduling archive bootstrap", "count", len(archives))

	for _, archive := range archives {
		task := NewBootstrapArchiveTask(archive, s.bootstrapper)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue BootstrapArchiveTask", "archive", archive.Name, "error", err)
		}
	}

	s.enqueueTasks()
}

func (s *Scheduler) enqueueTasks() {
	if err := s.EnqueueTask(NewRefreshLiveFeedTask(s.liveFeed)); err != nil {
		slog.Warn("Failed to enqueue RefreshLiveFeedTask", "error", err)
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

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second and caps at maxBackoff.
func retryDelay(retryCount int) time.Duration {
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	return min(delay, maxBackoff)
}
