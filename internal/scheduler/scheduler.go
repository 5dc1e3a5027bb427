package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/airaware/aqibot/internal/bot"
)

// Scheduler runs the daily posting job on a cron schedule (UTC).
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *bot.Service
	cronExpr  string
	timeout   time.Duration
}

// New creates a new Scheduler. cronExpr is a standard 5-field expression,
// already validated by config.
func New(cronExpr string, service *bot.Service, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		scheduler: s,
		service:   service,
		cronExpr:  cronExpr,
		timeout:   timeout,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cronExpr).Do(func() {
		log.Println("scheduler: running daily posting job")

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.service.RunAll(ctx); err != nil {
			log.Printf("scheduler: posting job failed: %v", err)
			return
		}
		log.Println("scheduler: completed daily posting job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
