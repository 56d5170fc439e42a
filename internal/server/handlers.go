package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/internal/modules/backtest"
	"github.com/quantdesk/quantdesk/internal/modules/ranking"
	"github.com/quantdesk/quantdesk/internal/modules/timing"
	"github.com/quantdesk/quantdesk/internal/modules/universe"
)

// --- Sync ---

type syncRequest struct {
	Tickers  []string `json:"tickers"`
	Universe string   `json:"universe"`
}

func (s *Server) handleSyncPrices(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := s.syncer.SyncPrices(r.Context(), tickers)
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSyncFundamentals(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := s.syncer.SyncFundamentals(r.Context(), tickers)
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.syncLog.Statuses()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read sync log")
		return
	}
	s.writeJSON(w, http.StatusOK, statuses)
}

// --- Rankings ---

func (s *Server) handleRankComposite(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := s.engine.RankComposite(tickers, ranking.DefaultWeights)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleRankMagicFormula(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := s.engine.RankMagicFormula(tickers)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleRankGARP(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := s.engine.RankGARP(tickers)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ranked)
}

// --- Scans ---

func (s *Server) handleScanPEAD(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := timing.DefaultPEADParams()
	if v := queryFloat(r, "gap_pct"); v != nil {
		params.GapPct = *v
	}
	if v := queryFloat(r, "min_rvol"); v != nil {
		params.MinRVol = *v
	}
	params.Confirm = r.URL.Query().Get("confirm") == "true"

	s.writeJSON(w, http.StatusOK, s.scanner.ScanPEAD(r.Context(), tickers, params))
}

func (s *Server) handleScanVaRBreach(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickersFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := timing.DefaultVaRParams()
	if v := queryFloat(r, "percentile"); v != nil {
		params.Percentile = *v
	}
	if v := queryFloat(r, "min_rvol"); v != nil {
		params.MinRVol = *v
	}
	if v := queryFloat(r, "lookback"); v != nil {
		params.Lookback = int(*v)
	}

	s.writeJSON(w, http.StatusOK, s.scanner.ScanVaRBreach(tickers, params))
}

func (s *Server) handleScanSentiment(w http.ResponseWriter, r *http.Request) {
	reading, err := timing.ScanSentiment(r.Context(), s.sentiment, timing.DefaultSentimentParams())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, reading)
}

// --- Backtest ---

type backtestRequest struct {
	Strategy string               `json:"strategy"`
	Tickers  []string             `json:"tickers"`
	Universe string               `json:"universe"`
	Start    string               `json:"start"`
	Params   backtest.Params      `json:"params"`
	Grid     map[string][]float64 `json:"grid"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tickers, err := s.resolveTickers(req.Tickers, req.Universe)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.loadMarketData(tickers, req.Start)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Strategy == "buy_and_hold" {
		if len(tickers) != 1 {
			s.writeError(w, http.StatusBadRequest, "buy_and_hold expects exactly one ticker")
			return
		}
		result, err := backtest.RunBuyAndHold(tickers[0], data[tickers[0]])
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	strategy, ok := backtest.Registry()[req.Strategy]
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown strategy %q", req.Strategy))
		return
	}

	result, err := backtest.Run(strategy, data, req.Params)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	strategy, ok := backtest.Registry()[req.Strategy]
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown strategy %q", req.Strategy))
		return
	}
	if len(req.Grid) == 0 {
		s.writeError(w, http.StatusBadRequest, "parameter grid is required")
		return
	}

	tickers, err := s.resolveTickers(req.Tickers, req.Universe)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.loadMarketData(tickers, req.Start)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results, err := backtest.GridSearch(strategy, data, req.Grid)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// --- Universes ---

func (s *Server) handleUniverseList(w http.ResponseWriter, r *http.Request) {
	names, err := s.universes.Names()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleUniverseGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tickers, err := s.universes.List(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tickers)
}

// handleUniverseRefresh re-scrapes the index constituents and replaces
// the named universe file
func (s *Server) handleUniverseRefresh(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tickers, err := universe.FetchSP500(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := s.universes.Save(name, tickers); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"universe": name,
		"tickers":  len(tickers),
	})
}

// --- News ---

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := queryFloat(r, "limit"); v != nil {
		limit = int(*v)
	}

	articles, err := s.news.MarketNews(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleTickerNews(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	limit := 20
	if v := queryFloat(r, "limit"); v != nil {
		limit = int(*v)
	}

	articles, err := s.news.TickerNews(r.Context(), ticker, r.URL.Query().Get("name"), limit)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, articles)
}

// --- Helpers ---

func (s *Server) tickersFromQuery(r *http.Request) ([]string, error) {
	return s.resolveTickers(
		splitTickers(r.URL.Query().Get("tickers")),
		r.URL.Query().Get("universe"),
	)
}

func (s *Server) tickersFromBody(r *http.Request) ([]string, error) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	return s.resolveTickers(req.Tickers, req.Universe)
}

// resolveTickers prefers an explicit ticker list over a universe name
func (s *Server) resolveTickers(tickers []string, universeName string) ([]string, error) {
	if len(tickers) > 0 {
		upper := make([]string, len(tickers))
		for i, t := range tickers {
			upper[i] = strings.ToUpper(strings.TrimSpace(t))
		}
		return upper, nil
	}
	if universeName == "" {
		return nil, fmt.Errorf("either tickers or universe is required")
	}
	return s.universes.List(universeName)
}

func (s *Server) loadMarketData(tickers []string, start string) (map[string][]domain.Bar, error) {
	data := make(map[string][]domain.Bar, len(tickers))
	for _, ticker := range tickers {
		bars, err := s.bars.GetBars(ticker, start)
		if err != nil {
			return nil, fmt.Errorf("failed to load bars for %s: %w", ticker, err)
		}
		if len(bars) > 0 {
			data[ticker] = bars
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no cached price data for the requested tickers")
	}
	return data, nil
}

func splitTickers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
