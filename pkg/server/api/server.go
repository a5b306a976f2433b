// Package api provides HTTP and WebSocket API endpoints for the oracle feed
// and the AMM pricing engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/StrathCole/zentro-oracle/pkg/amm"
	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
)

const (
	defaultMaxHistoryPoints = 10_000
	requestTimeout          = 10 * time.Second
)

// PriceFeed is the feed surface served over HTTP.
type PriceFeed interface {
	Address() string
	State() feed.State
	GetCurrentPrice(ctx context.Context) (oracle.Quote, error)
	LastQuote() (oracle.Quote, bool)
	AggregateSources(ctx context.Context) (oracle.Quote, error)
	Ingest(updates []oracle.PriceUpdate) (oracle.Quote, error)
	GetHistoricalPrices(start, end time.Time, step time.Duration) iter.Seq[oracle.Quote]
}

// QuoteStore returns the latest cached quote.
type QuoteStore interface {
	Latest(ctx context.Context) (oracle.Quote, error)
}

// Options configures the HTTP API server.
type Options struct {
	Addr   string
	Feed   PriceFeed
	Engine *amm.Engine
	// Market tunes the basis-point market endpoints. Zero means
	// amm.DefaultPricingParams.
	Market amm.PricingParams
	// Cache is optional; /v1/price/latest falls back to the feed's last quote.
	Cache QuoteStore

	AllowedOrigins   []string
	RateLimit        float64 // requests per second per client, 0 disables
	RateBurst        int
	RiskFreeRate     float64
	MaxHistoryPoints int

	Logger *logging.Logger
}

// Server represents the HTTP API server.
type Server struct {
	addr             string
	feed             PriceFeed
	engine           *amm.Engine
	market           amm.PricingParams
	cache            QuoteStore
	riskFreeRate     float64
	maxHistoryPoints int
	logger           *logging.Logger

	router  *mux.Router
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP API server.
func NewServer(opts Options) (*Server, error) {
	if opts.Feed == nil {
		return nil, ErrFeedRequired
	}
	if opts.Engine == nil {
		return nil, ErrEngineRequired
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoopLogger()
	}
	if opts.MaxHistoryPoints <= 0 {
		opts.MaxHistoryPoints = defaultMaxHistoryPoints
	}
	if opts.Market == (amm.PricingParams{}) {
		opts.Market = amm.DefaultPricingParams
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		addr:             opts.Addr,
		feed:             opts.Feed,
		engine:           opts.Engine,
		market:           opts.Market,
		cache:            opts.Cache,
		riskFreeRate:     opts.RiskFreeRate,
		maxHistoryPoints: opts.MaxHistoryPoints,
		logger:           opts.Logger,
		router:           mux.NewRouter(),
	}
	s.routes()

	var handler http.Handler = s.router
	if opts.RateLimit > 0 {
		handler = NewRateLimiter(opts.RateLimit, opts.RateBurst, opts.Logger).Handler(handler)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(handler)
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.instrument(s.handleHealth)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/price", s.instrument(s.handleCurrentPrice)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/price/latest", s.instrument(s.handleLatestPrice)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/price/aggregate", s.instrument(s.handleAggregateSources)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/price/aggregate", s.instrument(s.handleIngest)).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/prices/history", s.instrument(s.handleHistory)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/odds", s.instrument(s.handleOdds)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/trade/quote", s.instrument(s.handleTradeQuote)).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/market/price", s.instrument(s.handleMarketPrice)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/market/pool-odds", s.instrument(s.handlePoolOdds)).Methods(http.MethodGet)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
