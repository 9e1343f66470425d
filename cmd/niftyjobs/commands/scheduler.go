package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/scheduler"
	"github.com/wonny/niftyjobs/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the batch jobs on their cron schedules",
	Long: `Runs yearly, monthly and refresh on the CRON_* schedules.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and schedules
  run     - run one job now, in the foreground

Example:
  go run ./cmd/niftyjobs scheduler start
  go run ./cmd/niftyjobs scheduler run refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler (Ctrl+C to stop)",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	runErr := sched.RunJob(cmd.Context(), args[0])
	if history, err := sched.GetJobHistory(args[0]); err == nil {
		printLastResult(history)
	}
	if runErr != nil {
		return fmt.Errorf("run job: %w", runErr)
	}
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	widths := []int{10, 20, 6, 8, 20}

	fmt.Println()
	PrintTableHeader([]string{"JOB", "SCHEDULE", "RUNS", "SUCCESS", "LAST RUN"}, widths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow(jobRow(stats[name]), widths)
	}
}

// jobRow renders one job's stats as a table row
func jobRow(st scheduler.JobStats) []string {
	lastRun := "-"
	if st.LastRun != nil {
		lastRun = st.LastRun.Format("2006-01-02 15:04:05")
	}
	return []string{
		st.JobName,
		st.Schedule,
		strconv.Itoa(st.TotalRuns),
		fmt.Sprintf("%.0f%%", st.SuccessRate*100),
		lastRun,
	}
}

// printLastResult prints the outcome of the most recent run in history
func printLastResult(history *scheduler.JobHistory) {
	latest := history.GetLatestResults(1)
	if len(latest) == 0 {
		return
	}

	res := latest[0]
	if res.Success {
		PrintJobCompletion(res.JobName, res.Duration)
		return
	}
	PrintError(fmt.Sprintf("%s failed after %.2fs: %s", res.JobName, res.Duration.Seconds(), res.Error))
}

// initScheduler registers every pipeline with its default options
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	for _, job := range []scheduler.Job{
		jobs.NewYearlyJob(a.deps, jobs.DefaultYearlyOptions()),
		jobs.NewMonthlyJob(a.deps, jobs.DefaultMonthlyOptions()),
		jobs.NewRefreshJob(a.deps, jobs.DefaultRefreshOptions()),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
