package commands

import (
	"context"
	"fmt"

	"github.com/wonny/niftyjobs/internal/external/nifty"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/scheduler/jobs"
	"github.com/wonny/niftyjobs/internal/sink"
	"github.com/wonny/niftyjobs/pkg/config"
	"github.com/wonny/niftyjobs/pkg/httputil"
	"github.com/wonny/niftyjobs/pkg/logger"
	"github.com/wonny/niftyjobs/pkg/metrics"
)

// app holds the wired dependencies of one CLI invocation
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	sink sink.Sink
	deps jobs.Deps
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid --env: %w", err)
	}
	return cfg, nil
}

// bootstrap wires config, logger, sink and the external clients
// ⭐ SSOT: components are constructed here and nowhere else
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"env":    cfg.Env,
		"driver": cfg.Database.Driver,
	}).Debug("Configuration loaded")

	store, err := sink.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}

	httpClient := httputil.New(cfg, log)

	return &app{
		cfg:  cfg,
		log:  log,
		sink: store,
		deps: jobs.Deps{
			Config:  cfg,
			Symbols: nifty.NewClient(httpClient, log, cfg.Sources.ConstituentsURL, cfg.Sources.MarketSuffix),
			Prices:  yahoo.NewClient(httpClient, log, cfg.Sources.YahooBaseURL, cfg.Sources.FetchWorkers),
			Sink:    store,
			Metrics: metrics.NewRecorder(metrics.WithPushgateway(cfg.PushgatewayURL)),
			Logger:  log,
		},
	}, nil
}

// Close releases the sink
func (a *app) Close() {
	if err := a.sink.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close sink")
	}
}
