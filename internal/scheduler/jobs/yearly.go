package jobs

import (
	"context"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/sink"
)

// YearlyOptions are the CLI-overridable knobs of the yearly job
type YearlyOptions struct {
	Limit int
	Start time.Time
}

// DefaultYearlyOptions returns the first 25 constituents since 1992
func DefaultYearlyOptions() YearlyOptions {
	return YearlyOptions{Limit: 25, Start: dateOnly(1992, time.January, 1)}
}

// YearlyJob stores the best full-year performer of every year
// ⭐ SSOT: yearly_top_performers is written by this job only
type YearlyJob struct {
	deps Deps
	opts YearlyOptions
}

// NewYearlyJob creates a new yearly job
func NewYearlyJob(deps Deps, opts YearlyOptions) *YearlyJob {
	return &YearlyJob{deps: deps, opts: opts}
}

// Name returns the job name
func (j *YearlyJob) Name() string {
	return "yearly"
}

// Schedule returns the cron schedule (with seconds)
func (j *YearlyJob) Schedule() string {
	return j.deps.Config.Schedule.Yearly
}

// Run executes the yearly pipeline
func (j *YearlyJob) Run(ctx context.Context) error {
	return j.deps.execute(ctx, j.Name(), func(ctx context.Context, r *run) error {
		symbols, err := j.deps.symbols(ctx, r, j.opts.Limit)
		if err != nil {
			return err
		}

		panel, err := j.deps.panel(ctx, r, symbols, yahoo.Request{
			Start:    j.opts.Start,
			End:      j.deps.now(),
			Interval: contracts.Monthly,
		})
		if err != nil {
			return err
		}

		winners, skipped := j.deps.newReducer(r).YearlyTopPerformers(symbols, panel)
		r.stats.Skipped = len(skipped)

		if err := j.deps.Sink.Replace(ctx, sink.YearlyTopPerformers, sink.YearlyRows(winners, j.deps.suffix())); err != nil {
			return err
		}
		r.stats.Winners = len(winners)
		return nil
	})
}
