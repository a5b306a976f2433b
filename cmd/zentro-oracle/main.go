package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/StrathCole/zentro-oracle/pkg/amm"
	"github.com/StrathCole/zentro-oracle/pkg/cache"
	"github.com/StrathCole/zentro-oracle/pkg/config"
	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/aggregator"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/ledger"
	"github.com/StrathCole/zentro-oracle/pkg/server/api"
	"github.com/StrathCole/zentro-oracle/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	envFile    = flag.String("env", "", "Optional .env file loaded before the configuration")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.AgentString())
		os.Exit(0)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	// Load configuration
	cfg, err := config.Load(*configFile, envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("Starting zentro-oracle", "version", version.Version, "account", cfg.Feed.Account, "ledger", cfg.Ledger.Kind)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Oracle stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	accounts, err := ledger.Create(cfg.Ledger.Kind, cfg.LedgerOptions())
	if err != nil {
		return fmt.Errorf("failed to create ledger reader: %w", err)
	}

	mode := strings.ToLower(cfg.Feed.AggregateMode)
	agg, err := aggregator.NewAggregator(mode, cfg.Feed.MaxAge.ToDuration(), logger)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}
	logger.Info("Created aggregator", "mode", mode)

	priceFeed, err := feed.New(feed.Config{
		Address:        cfg.Feed.Account,
		Symbol:         cfg.Feed.Symbol,
		SourceAccounts: cfg.Feed.SourceAccounts,
		PollInterval:   cfg.Feed.PollInterval.ToDuration(),
		MaxAge:         cfg.Feed.MaxAge.ToDuration(),
		Reader:         oracle.NewReader(accounts),
		Aggregator:     agg,
		Logger:         logger,
		OnTickFailed: func(err error) {
			logger.Warn("Oracle update failed", "account", cfg.Feed.Account, "error", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}
	defer priceFeed.Destroy()

	engine, err := amm.NewEngine(cfg.Pricing.AMM(), cfg.Feed.MaxAge.ToDuration())
	if err != nil {
		return fmt.Errorf("failed to create pricing engine: %w", err)
	}

	opts := api.Options{
		Addr:             cfg.Server.HTTP.Addr,
		Feed:             priceFeed,
		Engine:           engine,
		Market:           cfg.Pricing.Market,
		AllowedOrigins:   cfg.Server.CORS.AllowedOrigins,
		RiskFreeRate:     cfg.Pricing.RiskFreeRate,
		MaxHistoryPoints: cfg.Server.MaxHistoryPoints,
		Logger:           logger,
	}
	if cfg.Server.RateLimit.Enabled {
		opts.RateLimit = cfg.Server.RateLimit.RequestsPerSecond
		opts.RateBurst = cfg.Server.RateLimit.Burst
	}

	var quoteCache *cache.QuoteCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		defer client.Close()

		quoteCache, err = cache.New(client, cfg.Feed.Account, cache.Options{
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.Cache.TTL.ToDuration(),
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create quote cache: %w", err)
		}
		priceFeed.Subscribe("cache", quoteCache.Callback())
		opts.Cache = quoteCache
		logger.Info("Publishing quotes to Redis", "addr", cfg.Cache.Redis.Addr, "key", quoteCache.Key())
	}

	server, err := api.NewServer(opts)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if err := priceFeed.Initialize(ctx); err != nil {
		if errors.Is(err, feed.ErrOracleAccountNotFound) {
			return fmt.Errorf("oracle account %s does not exist: %w", cfg.Feed.Account, err)
		}
		return fmt.Errorf("failed to initialize feed: %w", err)
	}
	logger.Info("Feed polling", "account", priceFeed.Address(), "interval", cfg.Feed.PollInterval.ToDuration())

	errChan := make(chan error, 2)
	go func() {
		errChan <- server.Start()
	}()

	if cfg.Server.WebSocket.Enabled {
		var quotes api.QuoteSubscriber = priceFeed
		if cfg.Server.WebSocket.Source == config.StreamSourceCache {
			relay := cache.NewRelay(quoteCache)
			go func() {
				if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Quote relay stopped", "error", err)
				}
			}()
			quotes = relay
			logger.Info("Streaming quotes relayed from Redis", "channel", cache.Channel(cfg.Feed.Account))
		}

		wsServer, err := api.NewWebSocketServer(cfg.Server.WebSocket.Addr, quotes, logger)
		if err != nil {
			return fmt.Errorf("failed to create WebSocket server: %w", err)
		}
		go func() {
			errChan <- wsServer.Start(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err = <-errChan:
		if err != nil {
			logger.Error("Server failed", "error", err)
		}
	}

	priceFeed.Destroy()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("HTTP server shutdown failed", "error", stopErr)
	}

	select {
	case <-priceFeed.Done():
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for feed loop to exit")
	}
	return err
}
