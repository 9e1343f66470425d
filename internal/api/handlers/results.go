package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/niftyjobs/internal/sink"
	"github.com/wonny/niftyjobs/pkg/logger"
)

// Store is the read side of a sink
type Store interface {
	Load(ctx context.Context, schema sink.Schema) ([]sink.Row, error)
	Ping(ctx context.Context) error
}

// ResultsHandler serves the tables written by the batch jobs
// ⭐ SSOT: result API handlers live in this struct only
type ResultsHandler struct {
	store  Store
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(store Store, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:  store,
		logger: log.WithField("module", "api"),
	}
}

// ListResponse is the envelope of every table listing
type ListResponse struct {
	Success bool             `json:"success"`
	Table   string           `json:"table"`
	Count   int              `json:"count"`
	Data    []map[string]any `json:"data"`
}

// GetYearly returns the yearly top performers
// GET /api/v1/yearly?from=2000&to=2010
func (h *ResultsHandler) GetYearly(w http.ResponseWriter, r *http.Request) {
	from, errFrom := optionalInt(r, "from")
	to, errTo := optionalInt(r, "to")
	if errFrom != nil || errTo != nil {
		respondError(w, http.StatusBadRequest, "from/to must be years")
		return
	}

	h.list(w, r, sink.YearlyTopPerformers, func(rec map[string]any) bool {
		year, _ := rec["year"].(int64)
		return (from == 0 || year >= int64(from)) && (to == 0 || year <= int64(to))
	})
}

// GetMonthly returns the monthly winners
// GET /api/v1/monthly?ticker=TCS
func (h *ResultsHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, sink.MonthlyWinners, tickerFilter(r))
}

// GetStockData returns the latest daily refresh
// GET /api/v1/stock-data?ticker=TCS
func (h *ResultsHandler) GetStockData(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, sink.StockData, tickerFilter(r))
}

// Health pings the store
// GET /health
func (h *ResultsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unavailable",
			"service": "niftyjobs-api",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "niftyjobs-api",
	})
}

func (h *ResultsHandler) list(w http.ResponseWriter, r *http.Request, schema sink.Schema, keep func(map[string]any) bool) {
	rows, err := h.store.Load(r.Context(), schema)
	if err != nil {
		h.logger.WithError(err).WithField("table", schema.Table).Error("Failed to load table")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve "+schema.Table)
		return
	}

	data := make([]map[string]any, 0, len(rows))
	for _, rec := range sink.Records(schema, rows) {
		if keep == nil || keep(rec) {
			data = append(data, rec)
		}
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Table:   schema.Table,
		Count:   len(data),
		Data:    data,
	})
}

func tickerFilter(r *http.Request) func(map[string]any) bool {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		return nil
	}
	return func(rec map[string]any) bool {
		t, _ := rec["ticker"].(string)
		return strings.ToUpper(t) == ticker
	}
}

func optionalInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
