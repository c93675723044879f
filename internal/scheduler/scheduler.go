// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper expires stale pending meetings.
type Sweeper interface {
	Execute(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
}

func New(sweeper Sweeper, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  time.Minute,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweepPending); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] pending meeting sweep scheduled %q", s.schedule)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) sweepPending() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweeper.Execute(ctx); err != nil {
		log.Printf("[scheduler] sweep pending meetings: %v", err)
	}
}
