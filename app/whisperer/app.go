package whisperer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JoodasCode/wallet-whisperer/app/whisperer/types"
	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/cache"
	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
	"github.com/JoodasCode/wallet-whisperer/pkg/db"
	"github.com/JoodasCode/wallet-whisperer/pkg/logging"
	"github.com/JoodasCode/wallet-whisperer/pkg/metrics"
	"github.com/JoodasCode/wallet-whisperer/pkg/narrative"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
	"github.com/JoodasCode/wallet-whisperer/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Unable to load configuration", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	// Cache backend: Redis when enabled, otherwise in-process with a
	// periodic purge sweep so expired entries don't pile up.
	var store cache.Store
	var cronRunner *cron.Cron
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisStore, redisErr := cache.NewRedisStore(ctx, logger)
		if redisErr != nil {
			logger.Fatal("Unable to initialize Redis cache", zap.Error(redisErr))
		}
		store = redisStore
		logger.Info("Redis cache initialized")
	} else {
		memStore := cache.NewMemoryStore()
		store = memStore
		cronRunner = cron.New()
		if _, cronErr := cronRunner.AddFunc("@every 5m", func() {
			if purged := memStore.PurgeExpired(); purged > 0 {
				logger.Debug("Purged expired cache entries", zap.Int("count", purged))
			}
		}); cronErr != nil {
			logger.Fatal("Unable to schedule cache purge", zap.Error(cronErr))
		}
		cronRunner.Start()
		logger.Info("In-memory cache initialized with purge sweep")
	}

	client := analytics.NewHTTPClientFromEnv()
	provider := analytics.NewProvider(client, store, logger, m, cfg.Cache.SnapshotTTL)

	// ClickHouse persistence is optional; without it cards are still
	// served from the analytics pipeline and cache.
	var cardStore *db.Store
	var persist cards.PersistenceStore
	if utils.Env("CLICKHOUSE_ENABLED", "false") == "true" {
		cardStore, err = db.NewStore(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to initialize ClickHouse store", zap.Error(err))
		}
		persist = cardStore
		logger.Info("ClickHouse persistence initialized")
	} else {
		logger.Info("ClickHouse disabled - card history will not be available")
	}

	registry := cards.NewRegistry(cfg.Scoring)
	service := cards.NewService(registry, provider, store, persist, logger, m, cfg.Cache.CardTTL)
	orchestrator := pipeline.NewOrchestrator(service, cfg.Pipeline.WorkerLimit, logger)

	var generator narrative.Generator
	if g := narrative.NewHTTPGenerator(); g != nil {
		generator = g
		logger.Info("Narrative generation endpoint configured")
	} else {
		logger.Info("No narrative endpoint configured - using template narratives")
	}
	synthesizer := narrative.NewSynthesizer(generator, logger)

	return &types.App{
		Config:       &cfg,
		Registry:     registry,
		Orchestrator: orchestrator,
		Synthesizer:  synthesizer,
		Store:        cardStore,
		PromRegistry: promRegistry,
		Cron:         cronRunner,
		Logger:       logger,
	}
}
