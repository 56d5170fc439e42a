package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/clients/feargreed"
	"github.com/quantdesk/quantdesk/internal/database"
	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/internal/modules/backtest"
	"github.com/quantdesk/quantdesk/internal/modules/timing"
	"github.com/quantdesk/quantdesk/internal/modules/universe"
	"github.com/quantdesk/quantdesk/internal/scheduler"
)

type fakeSentiment struct {
	index *feargreed.Index
	err   error
}

func (f *fakeSentiment) Latest(context.Context) (*feargreed.Index, error) {
	return f.index, f.err
}

func newTestServer(t *testing.T) (*Server, *repositories.BarRepository, *universe.Service) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.Nop()
	bars := repositories.NewBarRepository(db.Conn(), log)
	universes := universe.NewService(t.TempDir(), log)

	srv := New(Config{
		Port:      0,
		Log:       log,
		Bars:      bars,
		SyncLog:   repositories.NewSyncLogRepository(db.Conn(), log),
		Rankings:  repositories.NewRankingRepository(db.Conn(), log),
		Scanner:   timing.NewScanner(bars, nil, "^VIX", log),
		Sentiment: &fakeSentiment{index: &feargreed.Index{Score: 12, Rating: "extreme fear"}},
		Universes: universes,
		Schedule:  &scheduler.SyncSchedule{Enabled: true, Time: "18:00", Targets: []string{"sp500"}},
	})
	return srv, bars, universes
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func seedBars(t *testing.T, bars *repositories.BarRepository, ticker string, closes []float64) {
	t.Helper()
	rows := make([]domain.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		rows[i] = domain.Bar{
			Date: start.AddDate(0, 0, i).Format("2006-01-02"),
			Open: c, High: c, Low: c, Close: c, Volume: 1_000_000,
		}
	}
	require.NoError(t, bars.UpsertBars(ticker, rows))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "quantdesk", body["service"])
}

func TestScheduleEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/system/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body scheduler.SyncSchedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Enabled)
	assert.Equal(t, "18:00", body.Time)
}

func TestScanSentimentEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/scan/sentiment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reading timing.SentimentReading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reading))
	assert.Equal(t, timing.SentimentExtremeFear, reading.Signal)
	assert.Equal(t, 12.0, reading.Score)
}

func TestScanPEADEndpoint_RequiresTickers(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/scan/pead", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanPEADEndpoint_EmptyResult(t *testing.T) {
	srv, bars, _ := newTestServer(t)
	seedBars(t, bars, "AAPL", flatSeries(30, 100))

	rec := doRequest(srv, http.MethodGet, "/api/scan/pead?tickers=AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var signals []timing.PEADSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signals))
	assert.Empty(t, signals)
}

func TestBacktestEndpoint(t *testing.T) {
	srv, bars, _ := newTestServer(t)
	seedBars(t, bars, "AAPL", []float64{100, 110, 99, 121})

	payload := []byte(`{"strategy":"buy_and_hold","tickers":["aapl"]}`)
	rec := doRequest(srv, http.MethodPost, "/api/backtest/", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var result backtest.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Buy & Hold", result.Strategy)
	assert.InDelta(t, 0.21, result.TotalReturn, 1e-9)
}

func TestBacktestEndpoint_UnknownStrategy(t *testing.T) {
	srv, bars, _ := newTestServer(t)
	seedBars(t, bars, "AAPL", []float64{100, 110})

	payload := []byte(`{"strategy":"nope","tickers":["AAPL"]}`)
	rec := doRequest(srv, http.MethodPost, "/api/backtest/", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBacktestEndpoint_NoCachedData(t *testing.T) {
	srv, _, _ := newTestServer(t)

	payload := []byte(`{"strategy":"sma_cross","tickers":["AAPL"]}`)
	rec := doRequest(srv, http.MethodPost, "/api/backtest/", payload)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUniverseEndpoints(t *testing.T) {
	srv, _, universes := newTestServer(t)
	require.NoError(t, universes.Save("tech", []string{"AAPL", "MSFT"}))

	rec := doRequest(srv, http.MethodGet, "/api/universes/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"tech"}, names)

	rec = doRequest(srv, http.MethodGet, "/api/universes/tech", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tickers []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickers))
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	rec = doRequest(srv, http.MethodGet, "/api/universes/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncStatusEndpoint_EmptyLog(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func flatSeries(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}
