// Package scheduler drives periodic pipeline runs in daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mzaleski/psesync/internal/entities"
)

// Runner executes one pipeline run. Implemented by pipeline.Pipeline.
type Runner interface {
	DefaultBusinessDate() string
	Run(ctx context.Context, businessDate string) *entities.RunResult
}

// SyncScheduler manages cron-driven pipeline runs with overlap protection:
// a tick that fires while a run is still in flight is skipped.
type SyncScheduler struct {
	runner   Runner
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isSyncing bool
	lastRun   *entities.RunResult
}

// NewSyncScheduler creates a scheduler for the given cron schedule.
func NewSyncScheduler(runner Runner, schedule string) *SyncScheduler {
	return &SyncScheduler{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins scheduling runs.
func (s *SyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("scheduler: started with schedule %q, next run: %v",
		s.schedule, s.cron.Entry(entryID).Schedule.Next(time.Now()))

	return nil
}

// Stop stops accepting new runs and waits for a running one to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Printf("scheduler: stopped")
}

// RunNow triggers an immediate run in the background.
func (s *SyncScheduler) RunNow() {
	go s.runSync()
}

// IsSyncing reports whether a run is currently in flight.
func (s *SyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastRun returns the most recent run result, or nil before the first run.
func (s *SyncScheduler) LastRun() *entities.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// NextRunTime returns when the next scheduled run will fire.
func (s *SyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

func (s *SyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("scheduler: run skipped (previous run still in flight)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result := s.runner.Run(ctx, s.runner.DefaultBusinessDate())

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
}
