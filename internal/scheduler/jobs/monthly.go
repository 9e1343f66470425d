package jobs

import (
	"context"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/sink"
)

// MonthlyOptions are the CLI-overridable knobs of the monthly job
type MonthlyOptions struct {
	Limit int
	Start time.Time
}

// DefaultMonthlyOptions returns the first 25 constituents since 1990
func DefaultMonthlyOptions() MonthlyOptions {
	return MonthlyOptions{Limit: 25, Start: dateOnly(1990, time.January, 1)}
}

// MonthlyJob stores the winning monthly bar of every month
// ⭐ SSOT: monthly_winners is written by this job only
type MonthlyJob struct {
	deps Deps
	opts MonthlyOptions
}

// NewMonthlyJob creates a new monthly job
func NewMonthlyJob(deps Deps, opts MonthlyOptions) *MonthlyJob {
	return &MonthlyJob{deps: deps, opts: opts}
}

// Name returns the job name
func (j *MonthlyJob) Name() string {
	return "monthly"
}

// Schedule returns the cron schedule (with seconds)
func (j *MonthlyJob) Schedule() string {
	return j.deps.Config.Schedule.Monthly
}

// Run executes the monthly pipeline
func (j *MonthlyJob) Run(ctx context.Context) error {
	return j.deps.execute(ctx, j.Name(), func(ctx context.Context, r *run) error {
		symbols, err := j.deps.symbols(ctx, r, j.opts.Limit)
		if err != nil {
			return err
		}

		now := j.deps.now()
		panel, err := j.deps.panel(ctx, r, symbols, yahoo.Request{
			Start:    j.opts.Start,
			End:      now,
			Interval: contracts.Monthly,
		})
		if err != nil {
			return err
		}

		winners, skipped := j.deps.newReducer(r).MonthlyWinners(symbols, panel, j.opts.Start, now, now)
		r.stats.Skipped = len(skipped)

		if err := j.deps.Sink.Replace(ctx, sink.MonthlyWinners, sink.WinnerRows(winners, j.deps.suffix())); err != nil {
			return err
		}
		r.stats.Winners = len(winners)
		return nil
	})
}
