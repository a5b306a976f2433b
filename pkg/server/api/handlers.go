package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/StrathCole/zentro-oracle/pkg/amm"
	"github.com/StrathCole/zentro-oracle/pkg/cache"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
	"github.com/StrathCole/zentro-oracle/pkg/stats"
)

const maxBodyBytes = 1 << 20

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Account string `json:"account"`
}

// HistoryResponse is returned by /v1/prices/history.
type HistoryResponse struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Step   string         `json:"step"`
	Quotes []oracle.Quote `json:"quotes"`
	Stats  stats.Summary  `json:"stats"`
}

// MarketPriceResponse is returned by /v1/market/price. Prices, payouts and
// amounts are in basis points.
type MarketPriceResponse struct {
	PriceBps       uint64 `json:"price_bps"`
	PayoutYesBps   uint64 `json:"payout_yes_bps"`
	PayoutNoBps    uint64 `json:"payout_no_bps"`
	Side           string `json:"side"`
	Shares         uint64 `json:"shares"`
	BuyCost        uint64 `json:"buy_cost"`
	SellProceeds   uint64 `json:"sell_proceeds"`
	Investment     uint64 `json:"investment"`
	ExpectedReturn uint64 `json:"expected_return"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency per route template.
func (s *Server) instrument(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		h(rec, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), time.Since(start))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := s.feed.State()
	resp := HealthResponse{Status: "ok", State: state.String(), Account: s.feed.Address()}
	if state == feed.StateDestroyed {
		resp.Status = "unavailable"
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q, err := s.feed.GetCurrentPrice(ctx)
	if err != nil {
		s.writeFeedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		q, err := s.cache.Latest(r.Context())
		if err == nil {
			s.writeJSON(w, http.StatusOK, q)
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to read cached quote", "error", err)
		}
	}

	q, ok := s.feed.LastQuote()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no quote published yet")
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleAggregateSources(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q, err := s.feed.AggregateSources(ctx)
	if err != nil {
		s.writeFeedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var updates []oracle.PriceUpdate
	if err := decodeBody(w, r, &updates); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.feed.Ingest(updates)
	if errors.Is(err, oracle.ErrNoValidSources) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeFeedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := parseTime(query.Get("start"), "start")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTime(query.Get("end"), "end")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	step, err := time.ParseDuration(query.Get("step"))
	if err != nil || step <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: step must be a positive duration", ErrInvalidQuery))
		return
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: end before start", ErrInvalidQuery))
		return
	}
	if points := int64(end.Sub(start)/step) + 1; points > int64(s.maxHistoryPoints) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s: window yields %d points, limit is %d", ErrInvalidQuery, points, s.maxHistoryPoints))
		return
	}

	quotes := slices.AppendSeq(make([]oracle.Quote, 0), s.feed.GetHistoricalPrices(start, end, step))
	prices := stats.PricesFromQuotes(slices.Values(quotes))

	s.writeJSON(w, http.StatusOK, HistoryResponse{
		Start:  start,
		End:    end,
		Step:   step.String(),
		Quotes: quotes,
		Stats:  stats.Summarize(prices, s.riskFreeRate),
	})
}

func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	yes, err := parseFloat(query.Get("yes"), "yes")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	no, err := parseFloat(query.Get("no"), "no")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	odds, err := amm.OddsFromPrices(yes, no)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, odds)
}

func (s *Server) handleTradeQuote(w http.ResponseWriter, r *http.Request) {
	var req amm.TradeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q, err := s.feed.GetCurrentPrice(ctx)
	if err != nil {
		s.writeFeedError(w, err)
		return
	}

	tq, err := s.engine.QuoteTrade(q, req)
	switch {
	case errors.Is(err, amm.ErrQuoteUnusable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, tq)
	}
}

func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var yesShares, noShares, liquidity, shares, investment uint64
	for _, p := range []struct {
		name     string
		dst      *uint64
		optional bool
	}{
		{"yes_shares", &yesShares, false},
		{"no_shares", &noShares, false},
		{"liquidity", &liquidity, false},
		{"shares", &shares, true},
		{"investment", &investment, true},
	} {
		v, err := parseUint(query.Get(p.name), p.name, p.optional)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		*p.dst = v
	}

	side := query.Get("side")
	if side == "" {
		side = "yes"
	}
	if side != "yes" && side != "no" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: side must be yes or no", ErrInvalidQuery))
		return
	}
	yesSide := side == "yes"

	price := amm.MarketPrice(yesShares, noShares, liquidity, s.market)
	payoutYes, payoutNo := amm.PayoutOdds(price)
	s.writeJSON(w, http.StatusOK, MarketPriceResponse{
		PriceBps:       price,
		PayoutYesBps:   payoutYes,
		PayoutNoBps:    payoutNo,
		Side:           side,
		Shares:         shares,
		BuyCost:        amm.BuyPrice(price, shares, liquidity, yesSide),
		SellProceeds:   amm.SellPrice(price, shares, liquidity, yesSide),
		Investment:     investment,
		ExpectedReturn: amm.ExpectedReturn(investment, price, yesSide),
	})
}

func (s *Server) handlePoolOdds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	yes, err := parseUint(query.Get("yes_amount"), "yes_amount", false)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	no, err := parseUint(query.Get("no_amount"), "no_amount", false)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, amm.PoolOdds(yes, no))
}

// writeFeedError maps feed and reader errors to HTTP statuses.
func (s *Server) writeFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, oracle.ErrAccountNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, oracle.ErrNoValidSources), errors.Is(err, feed.ErrFeedDestroyed):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("Oracle read failed", "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON sends a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

func parseTime(value, name string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", ErrInvalidQuery, name)
	}
	return t, nil
}

func parseFloat(value, name string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidQuery, name)
	}
	return f, nil
}

func parseUint(value, name string, optional bool) (uint64, error) {
	if value == "" && optional {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, name)
	}
	return n, nil
}
