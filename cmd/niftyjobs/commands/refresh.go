package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/scheduler"
	"github.com/wonny/niftyjobs/internal/scheduler/jobs"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace stock_data with the latest daily session",
	Long: `Downloads the latest daily bar of every constituent and replaces
stock_data with the whole session, or with only the day's winner when
--winners-only is set.

Example:
  go run ./cmd/niftyjobs refresh
  go run ./cmd/niftyjobs refresh --winners-only
  go run ./cmd/niftyjobs refresh --date 2024-05-17`,
	RunE: runRefresh,
}

var (
	refreshLimit       int
	refreshDate        string
	refreshWinnersOnly bool
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 0, "number of constituents (0 = all)")
	refreshCmd.Flags().StringVar(&refreshDate, "date", "", "session date (YYYY-MM-DD, default latest)")
	refreshCmd.Flags().BoolVar(&refreshWinnersOnly, "winners-only", false, "store only the day's winner")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	opts := jobs.RefreshOptions{Limit: refreshLimit, WinnersOnly: refreshWinnersOnly}

	var period *Period
	if refreshDate != "" {
		day, err := parseDate("date", refreshDate)
		if err != nil {
			return err
		}
		opts.Date = day
		period = &Period{StartDate: refreshDate, EndDate: refreshDate}
	}

	return runOnce(cmd, "Daily Refresh", period, func(a *app) scheduler.Job {
		return jobs.NewRefreshJob(a.deps, opts)
	})
}
