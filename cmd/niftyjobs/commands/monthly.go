package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/scheduler"
	"github.com/wonny/niftyjobs/internal/scheduler/jobs"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Store the winning monthly bar of every month",
	Long: `Downloads monthly bars for the first constituents and replaces
monthly_winners with, for every month, the bar of the symbol with the
highest open-to-close gain.

Example:
  go run ./cmd/niftyjobs monthly
  go run ./cmd/niftyjobs monthly --start 2015-01-01`,
	RunE: runMonthly,
}

var (
	monthlyLimit int
	monthlyStart string
)

func init() {
	rootCmd.AddCommand(monthlyCmd)

	defaults := jobs.DefaultMonthlyOptions()
	monthlyCmd.Flags().IntVar(&monthlyLimit, "limit", defaults.Limit, "number of constituents (0 = all)")
	monthlyCmd.Flags().StringVar(&monthlyStart, "start", defaults.Start.Format(dateLayout), "first month to download (YYYY-MM-DD)")
}

func runMonthly(cmd *cobra.Command, args []string) error {
	start, err := parseDate("start", monthlyStart)
	if err != nil {
		return err
	}
	opts := jobs.MonthlyOptions{Limit: monthlyLimit, Start: start}

	period := &Period{StartDate: monthlyStart, EndDate: time.Now().Format(dateLayout)}
	return runOnce(cmd, "Monthly Winners", period, func(a *app) scheduler.Job {
		return jobs.NewMonthlyJob(a.deps, opts)
	})
}
