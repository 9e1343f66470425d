package nifty

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/niftyjobs/internal/contracts"
	"github.com/wonny/niftyjobs/pkg/httputil"
	"github.com/wonny/niftyjobs/pkg/logger"
)

// symbolColumn is the exchange symbol column of the constituents CSV
// (Company Name, Industry, Symbol, Series, ISIN Code)
const symbolColumn = 2

// Client fetches index constituents from niftyindices.com
// ⭐ SSOT: constituent list retrieval happens only here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	csvURL     string
	suffix     string
}

// NewClient creates a new constituents client
func NewClient(httpClient *httputil.Client, log *logger.Logger, csvURL, marketSuffix string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "nifty"),
		csvURL:     csvURL,
		suffix:     marketSuffix,
	}
}

// FetchSymbols returns at most limit symbols in file order (limit <= 0 means all)
func (c *Client) FetchSymbols(ctx context.Context, limit int) ([]string, error) {
	resp, err := c.httpClient.Get(ctx, c.csvURL)
	if err != nil {
		return nil, fmt.Errorf("%w: constituents request: %v", contracts.ErrFetch, err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: constituents request: unexpected status code %d", contracts.ErrFetch, resp.StatusCode)
	}

	symbols, err := ParseSymbols(resp.Body, limit, c.suffix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFetch, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"count": len(symbols),
		"limit": limit,
	}).Info("Fetched index constituents")

	return symbols, nil
}

// ParseSymbols reads the constituents CSV: header skipped, symbol column
// normalized ("&" -> "and") and suffixed.
func ParseSymbols(r io.Reader, limit int, suffix string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var symbols []string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse constituents csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) <= symbolColumn {
			continue
		}

		name := NormalizeSymbol(record[symbolColumn])
		if name == "" {
			continue
		}
		symbols = append(symbols, name+suffix)

		if limit > 0 && len(symbols) == limit {
			break
		}
	}

	return symbols, nil
}

// NormalizeSymbol trims whitespace and replaces "&" with "and"
func NormalizeSymbol(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "&", "and")
}
