// Package schedule triggers the category sweep on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job is one scheduled sweep. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
}

// New parses a standard five-field cron expression such as "0 0 * * *".
func New(spec string, loc *time.Location) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		schedule: schedule,
		spec:     spec,
	}, nil
}

// Next reports when the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run registers job and blocks until ctx is done. A sweep still running
// when ctx is cancelled is waited for.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		started := time.Now()
		if err := job(ctx); err != nil {
			log.Errorf("❌ Scheduled sweep failed after %s: %v", time.Since(started).Round(time.Second), err)
			return
		}
		log.Infof("⏰ Next sweep at %s", s.Next(time.Now()).Format(time.RFC3339))
	}))

	s.cron.Start()
	log.Infof("⏰ Scheduler started (%s), first sweep at %s", s.spec, s.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	log.Info("🛑 Stopping scheduler...")
	<-s.cron.Stop().Done()
	return nil
}
