package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// Job is one step of the daily run.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

// Runner runs its jobs in sequence once a day at a fixed local time.
type Runner struct {
	jobs []Job
	at   domain.TimeOfDay
	loc  *time.Location
	now  func() time.Time
}

func NewRunner(at domain.TimeOfDay, loc *time.Location, jobs ...Job) *Runner {
	return &Runner{jobs: jobs, at: at, loc: loc, now: time.Now}
}

// NewDefaultRunner constructs the reminder -> backup sequence.
func NewDefaultRunner(tr interaction.Transport, store domain.Store, at domain.TimeOfDay, loc *time.Location) *Runner {
	return NewRunner(at, loc,
		NewReminderJob(tr, store, agenda.NewService(store, loc)),
		NewBackupJob(tr, store, loc),
	)
}

// NextRun returns the first occurrence of at in loc that is not before now.
func NextRun(now time.Time, at domain.TimeOfDay, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, at.Hour, at.Minute, 0, 0, loc)
	if next.Before(local) {
		next = time.Date(y, m, d+1, at.Hour, at.Minute, 0, 0, loc)
	}
	return next
}

// RunOnce executes every job. A failing job does not stop the ones after it.
func (r *Runner) RunOnce(ctx context.Context) error {
	if len(r.jobs) == 0 {
		return fmt.Errorf("no jobs configured in runner")
	}

	log := observability.LoggerFromContext(ctx)
	log.Info("daily run started", zap.Int("jobs_count", len(r.jobs)))

	now := r.now()
	var errs []error
	for _, job := range r.jobs {
		start := time.Now()
		log.Info("job run start", zap.String("job", job.Name()))

		if err := job.Run(ctx, now); err != nil {
			log.Error("job failed", zap.String("job", job.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("job %s failed: %w", job.Name(), err))
			continue
		}

		log.Info("job run end", zap.String("job", job.Name()), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	}

	log.Info("daily run end")
	return errors.Join(errs...)
}

// Loop sleeps until each next run and executes the jobs, until ctx is done.
func (r *Runner) Loop(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx)
	var last time.Time
	for {
		now := r.now()
		if !now.After(last) {
			now = last.Add(time.Second)
		}
		next := NextRun(now, r.at, r.loc)
		wait := next.Sub(r.now())
		log.Info("daily job scheduled", zap.Time("next_run", next), zap.Duration("sleep", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		// errors are logged per job; the schedule keeps going
		_ = r.RunOnce(ctx)
		last = next
	}
}
