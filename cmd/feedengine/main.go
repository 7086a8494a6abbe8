package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emperorhan/celo-feed-engine/internal/alert"
	"github.com/emperorhan/celo-feed-engine/internal/circuitbreaker"
	"github.com/emperorhan/celo-feed-engine/internal/config"
	"github.com/emperorhan/celo-feed-engine/internal/currency"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/emitter"
	"github.com/emperorhan/celo-feed-engine/internal/engine"
	"github.com/emperorhan/celo-feed-engine/internal/enrich"
	"github.com/emperorhan/celo-feed-engine/internal/feed"
	"github.com/emperorhan/celo-feed-engine/internal/fetch"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/emperorhan/celo-feed-engine/internal/ops"
	"github.com/emperorhan/celo-feed-engine/internal/ratecache"
	"github.com/emperorhan/celo-feed-engine/internal/ratelimit"
	"github.com/emperorhan/celo-feed-engine/internal/registry"
	"github.com/emperorhan/celo-feed-engine/internal/store/postgres"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env file is not an error; env vars may come from the
	// deployment environment directly.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting celo-feed-engine",
		"indexer_url", cfg.Indexer.BaseURL,
		"oracle_url", cfg.Sources.OracleURL,
		"fx_url", cfg.Sources.FxURL,
		"kafka_topic", cfg.Kafka.Topic,
		"local_currency", cfg.Feed.LocalCurrency,
		"watched_addresses", len(cfg.Feed.WatchedAddresses),
		"poll_interval", cfg.Feed.PollInterval,
	)

	watched, err := parseWatchedAddresses(cfg.Feed.WatchedAddresses)
	if err != nil {
		logger.Error("invalid watched addresses", "error", err)
		os.Exit(1)
	}

	contracts, err := registry.ContractsFromMap(cfg.Contracts)
	if err != nil {
		logger.Error("failed to resolve system contracts", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := postgres.New(postgres.Config{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := db.RunMigrations(cfg.DB.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	tokenRegistry := registry.NewTokenRegistry(postgres.NewTokenRepo(db), cfg.Feed.TokenRefreshInterval, logger)
	if err := tokenRegistry.Refresh(context.Background()); err != nil {
		logger.Error("initial token load failed", "error", err)
		os.Exit(1)
	}
	logger.Info("token registry loaded", "tokens", tokenRegistry.Snapshot().Len())

	rateCache, err := buildRateCache(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize rate cache", "error", err)
		os.Exit(1)
	}
	defer rateCache.Close()

	alerter := buildAlerter(cfg, logger)

	oracle := currency.NewGuardedOracleSource(
		currency.NewHTTPOracleSource(cfg.Sources.OracleURL, logger),
		ratelimit.NewLimiter(cfg.Sources.RatePerSec, cfg.Sources.Burst, "oracle"),
		newSourceBreaker(cfg, "oracle", alerter, logger),
		rateCache, logger,
	)
	fx := currency.NewGuardedFxSource(
		currency.NewHTTPFxSource(cfg.Sources.FxURL, logger),
		ratelimit.NewLimiter(cfg.Sources.RatePerSec, cfg.Sources.Burst, "fx"),
		newSourceBreaker(cfg, "fx", alerter, logger),
		rateCache, logger,
	)

	universe := currency.NewUniverse(tokenRegistry.Snapshot().Tokens())
	resolver := currency.NewResolver(universe, oracle, fx, logger)

	var display *enrich.CachedDisplayLookup
	if cfg.Enrich.DisplayURL != "" {
		display = enrich.NewCachedDisplayLookup(enrich.NewHTTPDisplayLookup(cfg.Enrich.DisplayURL), logger)
	}
	var nfts *enrich.NftEnricher
	if cfg.Enrich.NftURL != "" {
		nfts = enrich.NewNftEnricher(enrich.NewHTTPNftMetadataFetcher(cfg.Enrich.NftURL), logger)
	}

	builder := engine.NewBuilder(resolver, display, nfts, model.CurrencyCode(cfg.Feed.LocalCurrency), logger)
	eng := engine.New(contracts, tokenRegistry, builder, logger)

	fetcher := fetch.NewHTTPTransferFetcher(cfg.Indexer.BaseURL, logger)

	kafkaEmitter := emitter.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	defer func() {
		if err := kafkaEmitter.Close(); err != nil {
			logger.Warn("kafka emitter close error", "error", err)
		}
	}()

	poller := feed.NewPoller(fetcher, eng, kafkaEmitter, alerter, watched, cfg.Feed.PollInterval, logger)

	opsServer := ops.NewServer(logger,
		ops.WithReadinessCheck("postgres", func(ctx context.Context) error {
			return db.PingContext(ctx)
		}),
		ops.WithReadinessCheck("tokens", func(context.Context) error {
			if tokenRegistry.Snapshot().Len() == 0 {
				return fmt.Errorf("token snapshot is empty")
			}
			return nil
		}),
		ops.WithStatus(func() any { return poller.Status() }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return opsServer.Run(gCtx, cfg.Server.HealthPort)
	})

	g.Go(func() error {
		return tokenRegistry.Start(gCtx)
	})

	g.Go(func() error {
		return poller.Run(gCtx)
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("feed engine exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("feed engine shut down gracefully")
}

func parseWatchedAddresses(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("not a hex address: %q", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

func buildRateCache(cfg *config.Config, logger *slog.Logger) (*ratecache.Cache, error) {
	if cfg.Redis.URL == "" {
		return ratecache.New(logger), nil
	}
	return ratecache.NewWithRedis(cfg.Redis.URL, logger)
}

func newSourceBreaker(cfg *config.Config, source string, alerter alert.Alerter, logger *slog.Logger) *circuitbreaker.Breaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Sources.BreakerThreshold,
		OpenTimeout:      cfg.Sources.BreakerCooldown,
		OnStateChange: func(_, to circuitbreaker.State) {
			metrics.BreakerStateChanges.WithLabelValues(source, to.String()).Inc()
			if to != circuitbreaker.StateOpen {
				return
			}
			err := alerter.Send(context.Background(), alert.Alert{
				Type:      alert.AlertTypeBreakerOpen,
				Component: source,
				Title:     "rate source circuit opened",
				Message:   fmt.Sprintf("%s source exceeded the failure threshold, calls are being rejected", source),
			})
			if err != nil {
				logger.Warn("failed to dispatch breaker alert", "source", source, "error", err)
			}
		},
	})
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	var channels []alert.Alerter
	if cfg.Alert.SlackWebhookURL != "" {
		channels = append(channels, alert.NewSlackAlerter(cfg.Alert.SlackWebhookURL))
	}
	if cfg.Alert.WebhookURL != "" {
		channels = append(channels, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}
	if len(channels) == 0 {
		return &alert.NoopAlerter{}
	}
	return alert.NewMultiAlerter(cfg.Alert.Cooldown, logger, channels...)
}
