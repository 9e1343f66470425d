package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/reducer"
	"github.com/wonny/niftyjobs/internal/sink"
	"github.com/wonny/niftyjobs/pkg/config"
	"github.com/wonny/niftyjobs/pkg/logger"
	"github.com/wonny/niftyjobs/pkg/metrics"
)

// SymbolSource returns index constituents in file order
type SymbolSource interface {
	FetchSymbols(ctx context.Context, limit int) ([]string, error)
}

// PriceFetcher downloads a price panel
type PriceFetcher interface {
	FetchPanel(ctx context.Context, symbols []string, req yahoo.Request) (*contracts.Panel, error)
}

// Deps are the collaborators shared by every pipeline job
type Deps struct {
	Config  *config.Config
	Symbols SymbolSource
	Prices  PriceFetcher
	Sink    sink.Sink
	Metrics *metrics.Recorder
	Logger  *logger.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// run is one execution of a pipeline: run id, scoped logger and counters
type run struct {
	id     string
	logger *logger.Logger
	stats  metrics.RunStats
}

// execute wraps a pipeline body with run-id logging and metrics
func (d Deps) execute(ctx context.Context, name string, body func(ctx context.Context, r *run) error) error {
	r := &run{
		id:    uuid.NewString(),
		stats: metrics.RunStats{Job: name},
	}
	r.logger = d.Logger.WithFields(map[string]interface{}{
		"job":    name,
		"run_id": r.id,
	})

	start := time.Now()
	r.logger.Info("Job run started")

	err := body(ctx, r)

	r.stats.Duration = time.Since(start)
	r.stats.Err = err

	fields := map[string]interface{}{
		"symbols":  r.stats.Symbols,
		"bars":     r.stats.Bars,
		"skipped":  r.stats.Skipped,
		"rows":     r.stats.Winners,
		"duration": r.stats.Duration.String(),
	}
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Job run failed")
	} else {
		r.logger.WithFields(fields).Info("Job run completed")
	}

	if d.Metrics != nil {
		d.Metrics.Observe(r.stats)
		if pushErr := d.Metrics.Push(context.WithoutCancel(ctx), name); pushErr != nil {
			r.logger.WithError(pushErr).Warn("Failed to push metrics")
		}
	}

	return err
}

// symbols fetches the constituents, failing with ErrNoSymbols on an empty list
func (d Deps) symbols(ctx context.Context, r *run, limit int) ([]string, error) {
	symbols, err := d.Symbols.FetchSymbols(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contracts.ErrNoSymbols, err)
	}
	if len(symbols) == 0 {
		return nil, contracts.ErrNoSymbols
	}
	r.stats.Symbols = len(symbols)
	return symbols, nil
}

// panel downloads prices, failing with ErrNoPriceData when nothing came back
func (d Deps) panel(ctx context.Context, r *run, symbols []string, req yahoo.Request) (*contracts.Panel, error) {
	panel, err := d.Prices.FetchPanel(ctx, symbols, req)
	if err != nil {
		if errors.Is(err, contracts.ErrDownload) {
			return nil, fmt.Errorf("%w: %w", contracts.ErrNoPriceData, err)
		}
		return nil, err
	}
	if panel == nil || panel.Empty() {
		return nil, contracts.ErrNoPriceData
	}
	r.stats.Bars = panel.BarCount()
	return panel, nil
}

func (d Deps) newReducer(r *run) *reducer.Reducer {
	return reducer.New(r.logger)
}

func (d Deps) suffix() string {
	return d.Config.Sources.MarketSuffix
}

func dateOnly(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
