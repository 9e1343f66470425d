package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/pkg/httputil"
	"github.com/wonny/niftyjobs/pkg/logger"
)

// Client downloads OHLCV bars from the Yahoo Finance chart API
// ⭐ SSOT: market-data retrieval happens only here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	workers    int
}

// NewClient creates a new Yahoo chart client; workers bounds concurrent requests
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, workers int) *Client {
	if workers < 1 {
		workers = 1
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    baseURL,
		workers:    workers,
	}
}

// Request describes one panel download.
// Either Range (relative, e.g. "1d") or the absolute [Start, End) window is used.
type Request struct {
	Start    time.Time
	End      time.Time
	Range    string
	Interval contracts.Granularity
}

func (r Request) query() url.Values {
	q := url.Values{}
	q.Set("interval", string(r.Interval))
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits")
	if r.Range != "" {
		q.Set("range", r.Range)
	} else {
		q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(r.End.Unix(), 10))
	}
	return q
}

// fetchResult is one worker's outcome for one symbol
type fetchResult struct {
	symbol string
	bars   []contracts.PriceBar
	err    error
}

// FetchPanel downloads bars for every symbol with a bounded worker pool.
// Per-symbol failures land in Panel.Failures; if no symbol succeeds the
// call fails with ErrDownload.
func (c *Client) FetchPanel(ctx context.Context, symbols []string, req Request) (*contracts.Panel, error) {
	c.logger.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"interval": req.Interval,
		"range":    req.Range,
		"workers":  c.workers,
	}).Info("Starting price download")

	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, symbolCh, resultCh, req)
		}()
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	panel := contracts.NewPanel()
	for result := range resultCh {
		if result.err != nil {
			c.logger.WithError(result.err).WithField("symbol", result.symbol).Warn("Skipping symbol, download failed")
			panel.Fail(result.symbol, result.err)
			continue
		}
		panel.Put(result.symbol, result.bars)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrDownload, err)
	}
	if len(symbols) > 0 && panel.Empty() {
		return nil, fmt.Errorf("%w: no bars returned for any of %d symbols", contracts.ErrDownload, len(symbols))
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": panel.SymbolCount(),
		"failed":  len(panel.Failures),
		"bars":    panel.BarCount(),
	}).Info("Price download completed")

	return panel, nil
}

func (c *Client) worker(ctx context.Context, symbolCh <-chan string, resultCh chan<- fetchResult, req Request) {
	for symbol := range symbolCh {
		if err := ctx.Err(); err != nil {
			resultCh <- fetchResult{symbol: symbol, err: err}
			continue
		}

		bars, err := c.FetchBars(ctx, symbol, req)
		resultCh <- fetchResult{symbol: symbol, bars: bars, err: err}
	}
}

// FetchBars downloads one symbol's bars
func (c *Client) FetchBars(ctx context.Context, symbol string, req Request) ([]contracts.PriceBar, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), req.query().Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	// Unknown symbols come back as 404 with a chart.error payload
	bars, parseErr := ParseChart(symbol, body)
	if !httputil.IsSuccess(resp.StatusCode) {
		if parseErr != nil {
			return nil, fmt.Errorf("unexpected status code %d: %w", resp.StatusCode, parseErr)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
	}).Debug("Fetched bars")

	return bars, nil
}

// ParseChart decodes a chart API payload into bars. Bars with a null open or
// close are dropped.
func ParseChart(symbol string, body []byte) ([]contracts.PriceBar, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error: %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result")
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty series")
	}

	loc := result.Meta.location()
	quote := result.Indicators.Quote[0]
	var adjclose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjclose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]contracts.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		openPx, closePx := at(quote.Open, i), at(quote.Close, i)
		if openPx == nil || closePx == nil {
			continue
		}

		bar := contracts.PriceBar{
			Symbol:   symbol,
			Time:     time.Unix(ts, 0).In(loc),
			Open:     *openPx,
			Close:    *closePx,
			High:     valueOr(at(quote.High, i), *closePx),
			Low:      valueOr(at(quote.Low, i), *closePx),
			AdjClose: at(adjclose, i),
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("empty series")
	}
	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
