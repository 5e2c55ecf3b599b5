// Package scheduler runs periodic maintenance jobs for the library.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule retries failed writes every 15 minutes.
const DefaultSchedule = "*/15 * * * *"

// Reconciler re-persists the cache when a previous durable write failed.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ReconcileScheduler periodically asks the library to reconcile its store.
type ReconcileScheduler struct {
	reconciler Reconciler
	schedule   string
	timeout    time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewReconcileScheduler creates a scheduler for the given cron schedule. An
// empty schedule uses DefaultSchedule.
func NewReconcileScheduler(reconciler Reconciler, schedule string) *ReconcileScheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &ReconcileScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    time.Minute,
		cron:       cron.New(cron.WithParser(parser())),
	}
}

func parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser().Parse(schedule)
	return err
}

// Describe returns a human-readable description of common schedules.
func Describe(schedule string) string {
	switch schedule {
	case "* * * * *":
		return "Every minute"
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// Start registers the job and starts cron. It stops when ctx is cancelled.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SCHEDULER] Reconcile started with schedule '%s' (%s)", s.schedule, Describe(s.schedule))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[SCHEDULER] Reconcile stopped")
}

// RunNow reconciles synchronously, outside the schedule.
func (s *ReconcileScheduler) RunNow(ctx context.Context) error {
	return s.reconcile(ctx)
}

// IsRunning returns whether the scheduler is active.
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the job runs next, or nil when stopped.
func (s *ReconcileScheduler) NextRunTime() *time.Time {
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

func (s *ReconcileScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.reconcile(ctx)
}

func (s *ReconcileScheduler) reconcile(ctx context.Context) error {
	if err := s.reconciler.Reconcile(ctx); err != nil {
		log.Printf("[SCHEDULER] Reconcile failed: %v", err)
		return err
	}
	return nil
}
