package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyjobs/internal/api"
	"github.com/wonny/niftyjobs/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the read-only results API",
	Long: `Serves the tables written by the batch jobs.

Endpoints:
  GET /health               - store health check
  GET /api/v1/yearly        - yearly_top_performers (?from=&to=)
  GET /api/v1/monthly       - monthly_winners (?ticker=)
  GET /api/v1/stock-data    - stock_data (?ticker=)

Example:
  go run ./cmd/niftyjobs api
  go run ./cmd/niftyjobs api --port 9000`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default API_PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.APIPort = apiPort
	}

	results := handlers.NewResultsHandler(a.sink, a.log)
	server := api.New(a.cfg, a.log, api.NewRouter(results, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("API server stopped")
	return nil
}
