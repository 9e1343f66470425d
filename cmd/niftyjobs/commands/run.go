package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/scheduler"
)

const dateLayout = "2006-01-02"

// runOnce bootstraps the app, builds one job and runs it in the foreground
func runOnce(cmd *cobra.Command, title string, period *Period, build func(a *app) scheduler.Job) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	job := build(a)
	started := time.Now()

	PrintJobHeader(JobMetadata{
		JobType:   title,
		Tag:       job.Name(),
		Timestamp: started.Format("2006-01-02 15:04:05"),
		Period:    period,
	})

	if err := job.Run(cmd.Context()); err != nil {
		PrintError(err.Error())
		return fmt.Errorf("%s: %w", job.Name(), err)
	}

	PrintJobCompletion(job.Name(), time.Since(started))
	return nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}
