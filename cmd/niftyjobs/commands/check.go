package commands

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/sink"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the destination store and the result tables",
	Long: `Connects to the configured store, pings it and reports the row
count of every result table. Postgres connections also print pool
statistics.

Example:
  go run ./cmd/niftyjobs check
  go run ./cmd/niftyjobs check --env production`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("ENV      : %s\n", a.cfg.Env)
	fmt.Printf("Driver   : %s\n", a.cfg.Database.Driver)
	if a.cfg.Database.Driver == string(sink.SQLite) {
		fmt.Printf("Database : %s\n", a.cfg.Database.SQLitePath)
	} else {
		fmt.Printf("Database : %s\n", redactURL(a.cfg.Database.PostgresURL()))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if err := a.sink.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Println("✅ Ping successful")

	if pg, ok := a.sink.(*sink.PostgresSink); ok {
		status, err := pg.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Printf("   Response Time: %v\n", status.ResponseTime)
		fmt.Printf("   Connections  : %d total, %d idle, %d max\n",
			status.Stats.TotalConns, status.Stats.IdleConns, status.Stats.MaxConns)
	}

	widths := []int{24, 8}
	fmt.Println()
	PrintTableHeader([]string{"TABLE", "ROWS"}, widths)
	for _, schema := range []sink.Schema{sink.YearlyTopPerformers, sink.MonthlyWinners, sink.StockData} {
		count := "missing"
		if n, err := a.sink.Count(ctx, schema); err == nil {
			count = strconv.FormatInt(n, 10)
		}
		PrintTableRow([]string{schema.Table, count}, widths)
	}

	return nil
}

// redactURL masks the password of a connection URL for display
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
