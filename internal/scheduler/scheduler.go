package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance task run on a cron spec (e.g. "@every 10m", "0 3 * * *").
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Scheduler runs maintenance jobs in the background of the API process.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// New validates every job spec and returns a scheduler that has not started yet.
func New(jobs ...Job) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("scheduler: job %q has no func", j.Name)
		}
		if _, err := cron.ParseStandard(j.Spec); err != nil {
			return nil, fmt.Errorf("scheduler: job %q: invalid spec %q: %w", j.Name, j.Spec, err)
		}
	}
	return &Scheduler{cron: c, jobs: jobs}, nil
}

// Run registers the jobs and blocks until ctx is cancelled, then waits for
// running jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, j := range s.jobs {
		job := j
		_, err := s.cron.AddFunc(job.Spec, func() {
			slog.Debug("scheduler: running job", "job", job.Name)
			job.Run(ctx)
		})
		if err != nil {
			return fmt.Errorf("scheduler: add job %q: %w", job.Name, err)
		}
		slog.Info("scheduler: added job", "job", job.Name, "spec", job.Spec)
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("scheduler: stopped")
	return nil
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
