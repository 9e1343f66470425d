package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyjobs/internal/sink"
	"github.com/wonny/niftyjobs/pkg/logger"
)

type fakeStore struct {
	tables  map[string][]sink.Row
	loadErr error
	pingErr error
}

func (f *fakeStore) Load(_ context.Context, schema sink.Schema) ([]sink.Row, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.tables[schema.Table], nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func newStore() *fakeStore {
	day := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 5, 17, 11, 0, 0, 0, time.UTC)
	return &fakeStore{tables: map[string][]sink.Row{
		"yearly_top_performers": {
			{int64(2019), "TCS", 30.0},
			{int64(2020), "INFY", 12.5},
			{int64(2021), "WIPRO", 40.1},
		},
		"stock_data": {
			{"TCS", day, 1.0, 2.0, 0.5, 1.5, 1.5, int64(10), at},
			{"INFY", day, 1.0, 2.0, 0.5, 1.8, 1.8, int64(20), at},
		},
	}}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) ListResponse {
	t.Helper()
	var resp ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGetYearly(t *testing.T) {
	h := NewResultsHandler(newStore(), logger.Nop())

	rec := httptest.NewRecorder()
	h.GetYearly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/yearly", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "TCS", resp.Data[0]["company"])
	assert.Equal(t, 30.0, resp.Data[0]["return_pct"])
}

func TestGetYearlyRange(t *testing.T) {
	h := NewResultsHandler(newStore(), logger.Nop())

	rec := httptest.NewRecorder()
	h.GetYearly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/yearly?from=2020&to=2020", nil))
	resp := decode(t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "INFY", resp.Data[0]["company"])

	rec = httptest.NewRecorder()
	h.GetYearly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/yearly?from=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStockDataTickerFilter(t *testing.T) {
	h := NewResultsHandler(newStore(), logger.Nop())

	rec := httptest.NewRecorder()
	h.GetStockData(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stock-data?ticker=infy", nil))

	resp := decode(t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "INFY", resp.Data[0]["ticker"])
	assert.Equal(t, "2024-05-17", resp.Data[0]["date"])
}

func TestGetMonthlyEmptyTable(t *testing.T) {
	h := NewResultsHandler(newStore(), logger.Nop())

	rec := httptest.NewRecorder()
	h.GetMonthly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/monthly", nil))

	resp := decode(t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Data)
}

func TestLoadFailure(t *testing.T) {
	store := newStore()
	store.loadErr = errors.New("no such table")
	h := NewResultsHandler(store, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetMonthly(rec, httptest.NewRequest(http.MethodGet, "/api/v1/monthly", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	store := newStore()
	h := NewResultsHandler(store, logger.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	store.pingErr = errors.New("down")
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
