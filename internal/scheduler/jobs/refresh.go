package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/sink"
)

// RefreshOptions are the CLI-overridable knobs of the refresh job
type RefreshOptions struct {
	Limit int
	// Date selects the session; zero means the latest session in the download
	Date        time.Time
	WinnersOnly bool
}

// DefaultRefreshOptions returns every constituent, latest session, full snapshot
func DefaultRefreshOptions() RefreshOptions {
	return RefreshOptions{}
}

// RefreshJob stores the latest daily bar of every constituent
// ⭐ SSOT: stock_data is written by this job only
type RefreshJob struct {
	deps Deps
	opts RefreshOptions
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(deps Deps, opts RefreshOptions) *RefreshJob {
	return &RefreshJob{deps: deps, opts: opts}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh"
}

// Schedule returns the cron schedule (with seconds)
func (j *RefreshJob) Schedule() string {
	return j.deps.Config.Schedule.Refresh
}

// Run executes the daily refresh pipeline
func (j *RefreshJob) Run(ctx context.Context) error {
	return j.deps.execute(ctx, j.Name(), func(ctx context.Context, r *run) error {
		symbols, err := j.deps.symbols(ctx, r, j.opts.Limit)
		if err != nil {
			return err
		}

		req := yahoo.Request{Range: "1d", Interval: contracts.Daily}
		if !j.opts.Date.IsZero() {
			// an explicit session needs an absolute window around it
			req = yahoo.Request{
				Start:    j.opts.Date.AddDate(0, 0, -1),
				End:      j.opts.Date.AddDate(0, 0, 2),
				Interval: contracts.Daily,
			}
		}

		panel, err := j.deps.panel(ctx, r, symbols, req)
		if err != nil {
			return err
		}

		// rows carry the session date of the bars, not the date the job ran
		day := j.opts.Date
		if day.IsZero() {
			day = latestSession(panel)
		}

		snapshot, skipped := j.deps.newReducer(r).DailySnapshot(symbols, panel, day, j.deps.now())
		r.stats.Skipped = len(skipped)
		if len(snapshot.Records) == 0 {
			return fmt.Errorf("%w: no bars for %s", contracts.ErrNoPriceData, snapshot.Day.Format("2006-01-02"))
		}

		records := snapshot.Records
		if j.opts.WinnersOnly {
			records = []contracts.WinnerRecord{*snapshot.Winner}
		}

		r.logger.WithFields(map[string]interface{}{
			"day":    snapshot.Day.Format("2006-01-02"),
			"winner": snapshot.Winner.Symbol,
			"gain":   snapshot.Winner.GainPct.String(),
		}).Info("Daily winner")

		if err := j.deps.Sink.Replace(ctx, sink.StockData, sink.WinnerRows(records, j.deps.suffix())); err != nil {
			return err
		}
		r.stats.Winners = len(records)
		return nil
	})
}

// latestSession returns the most recent bar time in the panel, in the exchange's zone
func latestSession(panel *contracts.Panel) time.Time {
	var latest time.Time
	for _, bars := range panel.Bars {
		if n := len(bars); n > 0 && bars[n-1].Time.After(latest) {
			latest = bars[n-1].Time
		}
	}
	return latest
}
