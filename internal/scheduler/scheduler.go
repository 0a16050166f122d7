// Package scheduler runs the background cache-warming jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"laci-tracker/internal/directory"
)

// Scheduler re-warms the directory users and groups caches on a cron
// schedule so interactive searches rarely pay the fetch cost. Warm failures
// are logged and retried at the next tick; they never surface.
type Scheduler struct {
	cron      *cron.Cron
	directory *directory.Service
	logger    *slog.Logger
}

func New(dir *directory.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		directory: dir,
		logger:    logger,
	}
}

// Start registers the warm job under the given cron spec and starts the
// scheduler. An empty spec disables warming.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info("directory cache warming disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.warm); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("directory cache warming scheduled", "spec", spec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if _, err := s.directory.Users(ctx, true); err != nil {
		s.logger.Warn("directory user cache warm failed", "error", err)
		return
	}
	if _, err := s.directory.Groups(ctx, true); err != nil {
		s.logger.Warn("directory group cache warm failed", "error", err)
		return
	}
	s.logger.Info("directory caches warmed", "took", time.Since(start))
}
