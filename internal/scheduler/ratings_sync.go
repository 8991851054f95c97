// Package scheduler enqueues periodic background work on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bookcatalog/internal/config"
	"bookcatalog/internal/tasks"
)

// RatingsSyncScheduler periodically enqueues a rating refresh task so the
// snapshot cache never grows too stale. The actual work runs on the task
// queue; the scheduler only enqueues.
type RatingsSyncScheduler struct {
	taskClient *tasks.Client
	config     config.RatingsSync

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	generation int
	cancelFunc context.CancelFunc
}

// NewRatingsSyncScheduler creates a new scheduler instance.
func NewRatingsSyncScheduler(taskClient *tasks.Client, cfg config.RatingsSync) *RatingsSyncScheduler {
	return &RatingsSyncScheduler{
		taskClient: taskClient,
		config:     cfg,
	}
}

// Start begins the scheduler if ratings sync is enabled.
func (s *RatingsSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Ratings sync scheduler: disabled")
		return nil
	}

	if s.taskClient == nil {
		log.Printf("Ratings sync scheduler: task queue not configured, skipping")
		return nil
	}

	// A fresh cron per run so a restart does not accumulate entries
	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))

	entryID, err := c.AddFunc(s.config.Schedule, func() {
		s.enqueueRefresh()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}
	s.cron = c
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	c.Start()
	s.isRunning = true
	s.generation++
	gen := s.generation

	log.Printf("Ratings sync scheduler: started with schedule %q", s.config.Schedule)

	// The watcher only stops the run it belongs to; a watcher woken by its
	// own Stop finds the generation advanced or the run already down.
	go func() {
		<-cancelCtx.Done()
		s.stopGeneration(gen)
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running enqueue to
// finish, and releases the cancellation watcher started in Start.
func (s *RatingsSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *RatingsSyncScheduler) stopGeneration(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.stopLocked()
}

func (s *RatingsSyncScheduler) stopLocked() {
	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Ratings sync scheduler: stopped")
}

// RunNow triggers an immediate refresh enqueue.
func (s *RatingsSyncScheduler) RunNow() {
	go s.enqueueRefresh()
}

// IsRunning returns whether the scheduler is active.
func (s *RatingsSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next refresh will be enqueued.
func (s *RatingsSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *RatingsSyncScheduler) enqueueRefresh() {
	if _, err := s.taskClient.Add(tasks.RefreshRatingsTask{}).Save(); err != nil {
		log.Printf("Ratings sync: failed to enqueue refresh task: %v", err)
		return
	}
	log.Printf("Ratings sync: refresh task enqueued")
}
