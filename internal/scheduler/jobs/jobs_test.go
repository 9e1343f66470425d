package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/internal/external/yahoo"
	"github.com/wonny/niftyjobs/internal/sink"
	"github.com/wonny/niftyjobs/pkg/config"
	"github.com/wonny/niftyjobs/pkg/database"
	"github.com/wonny/niftyjobs/pkg/logger"
	"github.com/wonny/niftyjobs/pkg/metrics"
)

var ist = time.FixedZone("IST", 19800)

type fakeSource struct {
	symbols []string
	err     error
	limit   int
}

func (f *fakeSource) FetchSymbols(_ context.Context, limit int) ([]string, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.symbols) {
		return f.symbols[:limit], nil
	}
	return f.symbols, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	bars  map[string][]contracts.PriceBar
	err   error
	calls []yahoo.Request
}

func (f *fakeFetcher) FetchPanel(_ context.Context, symbols []string, req yahoo.Request) (*contracts.Panel, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	panel := contracts.NewPanel()
	for _, s := range symbols {
		if bars, ok := f.bars[s]; ok {
			panel.Put(s, append([]contracts.PriceBar(nil), bars...))
		} else {
			panel.Fail(s, errors.New("not found"))
		}
	}
	return panel, nil
}

func bar(symbol string, t time.Time, open, close float64) contracts.PriceBar {
	return contracts.PriceBar{Symbol: symbol, Time: t, Open: open, High: close + 1, Low: open - 1, Close: close, Volume: 500}
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, ist)
}

type harness struct {
	deps     Deps
	sink     *sink.SQLiteSink
	source   *fakeSource
	fetcher  *fakeFetcher
	registry *prometheus.Registry
}

func newHarness(t *testing.T, symbols []string, bars map[string][]contracts.PriceBar) *harness {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	s := sink.NewSQLiteSink(db, logger.Nop())
	t.Cleanup(func() { s.Close() })

	cfg := &config.Config{
		Sources:  config.SourceConfig{MarketSuffix: ".NS"},
		Schedule: config.ScheduleConfig{Yearly: "0 0 2 1 1 *", Monthly: "0 0 2 1 * *", Refresh: "0 30 16 * * 1-5"},
	}
	h := &harness{
		sink:     s,
		source:   &fakeSource{symbols: symbols},
		fetcher:  &fakeFetcher{bars: bars},
		registry: prometheus.NewRegistry(),
	}
	h.deps = Deps{
		Config:  cfg,
		Symbols: h.source,
		Prices:  h.fetcher,
		Sink:    s,
		Metrics: metrics.NewRecorder(metrics.WithRegistry(h.registry)),
		Logger:  logger.Nop(),
		Now:     func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

func (h *harness) load(t *testing.T, schema sink.Schema) []sink.Row {
	t.Helper()
	rows, err := h.sink.Load(context.Background(), schema)
	require.NoError(t, err)
	return rows
}

func TestYearlyJob(t *testing.T) {
	h := newHarness(t, []string{"A.NS", "B.NS", "GONE.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {bar("A.NS", month(2020, time.January), 100, 120), bar("A.NS", month(2020, time.December), 120, 150)},
		"B.NS": {bar("B.NS", month(2020, time.January), 200, 180), bar("B.NS", month(2021, time.March), 180, 198)},
	})
	job := NewYearlyJob(h.deps, DefaultYearlyOptions())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 25, h.source.limit)
	require.Len(t, h.fetcher.calls, 1)
	assert.Equal(t, contracts.Monthly, h.fetcher.calls[0].Interval)
	assert.Equal(t, time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC), h.fetcher.calls[0].Start)

	rows := h.load(t, sink.YearlyTopPerformers)
	require.Len(t, rows, 2)
	assert.Equal(t, sink.Row{int64(2020), "A", 50.0}, rows[0])
	assert.Equal(t, sink.Row{int64(2021), "B", 10.0}, rows[1])

	runs, err := testutil.GatherAndCount(h.registry, "niftyjobs_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestYearlyJobLimitOverride(t *testing.T) {
	h := newHarness(t, []string{"A.NS", "B.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {bar("A.NS", month(2020, time.January), 100, 101)},
		"B.NS": {bar("B.NS", month(2020, time.January), 100, 200)},
	})
	opts := DefaultYearlyOptions()
	opts.Limit = 1

	require.NoError(t, NewYearlyJob(h.deps, opts).Run(context.Background()))

	rows := h.load(t, sink.YearlyTopPerformers)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0][1])
}

func TestMonthlyJob(t *testing.T) {
	h := newHarness(t, []string{"A.NS", "B.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {
			bar("A.NS", month(2024, time.March), 100, 110),
			bar("A.NS", month(2024, time.April), 100, 90),
		},
		"B.NS": {
			bar("B.NS", month(2024, time.March), 100, 105),
			bar("B.NS", month(2024, time.April), 100, 101),
			bar("B.NS", month(2024, time.May), 100, 102),
		},
	})
	opts := DefaultMonthlyOptions()
	opts.Start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, NewMonthlyJob(h.deps, opts).Run(context.Background()))

	rows := h.load(t, sink.MonthlyWinners)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0][0])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[0][1])
	assert.Equal(t, "B", rows[1][0])
	assert.Equal(t, "B", rows[2][0])
	assert.Equal(t, time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC), rows[2][8])
}

func TestRefreshJobSnapshot(t *testing.T) {
	session := time.Date(2024, 5, 17, 9, 15, 0, 0, ist)
	h := newHarness(t, []string{"A.NS", "B.NS", "C.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {bar("A.NS", session, 100, 101)},
		"B.NS": {bar("B.NS", session, 100, 104)},
		"C.NS": {bar("C.NS", session.AddDate(0, 0, -1), 100, 150)},
	})

	require.NoError(t, NewRefreshJob(h.deps, DefaultRefreshOptions()).Run(context.Background()))

	require.Len(t, h.fetcher.calls, 1)
	assert.Equal(t, "1d", h.fetcher.calls[0].Range)
	assert.Equal(t, contracts.Daily, h.fetcher.calls[0].Interval)
	assert.Equal(t, 0, h.source.limit)

	rows := h.load(t, sink.StockData)
	require.Len(t, rows, 2, "C has no bar in the latest session")
	assert.Equal(t, "A", rows[0][0])
	assert.Equal(t, "B", rows[1][0])
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), rows[1][1])
}

func TestRefreshJobWinnersOnly(t *testing.T) {
	session := time.Date(2024, 5, 17, 9, 15, 0, 0, ist)
	h := newHarness(t, []string{"A.NS", "B.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {bar("A.NS", session, 100, 101)},
		"B.NS": {bar("B.NS", session, 100, 104)},
	})

	opts := DefaultRefreshOptions()
	opts.WinnersOnly = true
	require.NoError(t, NewRefreshJob(h.deps, opts).Run(context.Background()))

	rows := h.load(t, sink.StockData)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0][0])
}

func TestRefreshJobExplicitDateWithoutBars(t *testing.T) {
	h := newHarness(t, []string{"A.NS"}, map[string][]contracts.PriceBar{
		"A.NS": {bar("A.NS", time.Date(2024, 5, 17, 9, 15, 0, 0, ist), 100, 101)},
	})

	opts := DefaultRefreshOptions()
	opts.Date = time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC)
	err := NewRefreshJob(h.deps, opts).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNoPriceData))
	require.Len(t, h.fetcher.calls, 1)
	assert.Empty(t, h.fetcher.calls[0].Range)
	assert.True(t, h.fetcher.calls[0].Start.Before(opts.Date))
}

func TestJobsFailWithoutSymbols(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.sink.Replace(context.Background(), sink.YearlyTopPerformers,
		[]sink.Row{{int64(2000), "KEEP", 1.0}}))

	err := NewYearlyJob(h.deps, DefaultYearlyOptions()).Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrNoSymbols))
	assert.Empty(t, h.fetcher.calls)
	assert.Len(t, h.load(t, sink.YearlyTopPerformers), 1, "table untouched")

	h.source.err = contracts.ErrFetch
	err = NewMonthlyJob(h.deps, DefaultMonthlyOptions()).Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrNoSymbols))
	assert.True(t, errors.Is(err, contracts.ErrFetch))
}

func TestJobsFailWithoutPriceData(t *testing.T) {
	h := newHarness(t, []string{"A.NS"}, nil)
	h.fetcher.err = contracts.ErrDownload

	err := NewRefreshJob(h.deps, DefaultRefreshOptions()).Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrNoPriceData))
	assert.True(t, errors.Is(err, contracts.ErrDownload))

	successes, gatherErr := testutil.GatherAndCount(h.registry, "niftyjobs_last_success_timestamp_seconds")
	require.NoError(t, gatherErr)
	assert.Equal(t, 0, successes)
}

func TestSchedules(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.Equal(t, "0 0 2 1 1 *", NewYearlyJob(h.deps, DefaultYearlyOptions()).Schedule())
	assert.Equal(t, "0 0 2 1 * *", NewMonthlyJob(h.deps, DefaultMonthlyOptions()).Schedule())
	assert.Equal(t, "0 30 16 * * 1-5", NewRefreshJob(h.deps, DefaultRefreshOptions()).Schedule())
}
