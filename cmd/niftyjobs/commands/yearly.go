package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/scheduler"
	"github.com/wonny/niftyjobs/internal/scheduler/jobs"
)

var yearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Store the best full-year performer of every year",
	Long: `Downloads monthly bars for the first constituents, computes each
symbol's full-year return (first open, last close) and replaces
yearly_top_performers with the best symbol per year.

Example:
  go run ./cmd/niftyjobs yearly
  go run ./cmd/niftyjobs yearly --limit 50 --start 2000-01-01`,
	RunE: runYearly,
}

var (
	yearlyLimit int
	yearlyStart string
)

func init() {
	rootCmd.AddCommand(yearlyCmd)

	defaults := jobs.DefaultYearlyOptions()
	yearlyCmd.Flags().IntVar(&yearlyLimit, "limit", defaults.Limit, "number of constituents (0 = all)")
	yearlyCmd.Flags().StringVar(&yearlyStart, "start", defaults.Start.Format(dateLayout), "first date to download (YYYY-MM-DD)")
}

func runYearly(cmd *cobra.Command, args []string) error {
	start, err := parseDate("start", yearlyStart)
	if err != nil {
		return err
	}
	opts := jobs.YearlyOptions{Limit: yearlyLimit, Start: start}

	period := &Period{StartDate: yearlyStart, EndDate: time.Now().Format(dateLayout)}
	return runOnce(cmd, "Yearly Top Performers", period, func(a *app) scheduler.Job {
		return jobs.NewYearlyJob(a.deps, opts)
	})
}
