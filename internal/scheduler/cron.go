package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner executes one backup
type Runner interface {
	Run(ctx context.Context) (*controllers.RunReport, error)
}

// Scheduler runs backups on a cron schedule and on demand, one at a time
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	logger   *logrus.Logger

	mu      sync.Mutex
	running bool
	last    *controllers.RunReport
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, schedule string, logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the backup job and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		if !s.Trigger() {
			s.logger.Warn("Previous backup still running, skipping scheduled run")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add backup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running backup to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

// Trigger starts a backup in the background; it returns false if one is already running
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.runBackup()
	}()
	return true
}

// Running reports whether a backup is in progress
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastReport returns the report of the most recent finished backup, or nil
func (s *Scheduler) LastReport() *controllers.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) runBackup() {
	s.logger.Info("Running backup")

	report, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.WithError(err).Error("Backup job failed")
	} else {
		s.logger.Info("Backup job completed successfully")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if report != nil {
		s.last = report
	}
}
