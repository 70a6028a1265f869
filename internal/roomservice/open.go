package roomservice

import (
	"context"
	"fmt"

	"roomservice/internal/catalog"
	"roomservice/internal/config"
	"roomservice/internal/database"
	"roomservice/internal/dialogue"
	"roomservice/internal/extraction"
	"roomservice/internal/inquiry"
	"roomservice/internal/intent"
	"roomservice/internal/logging"
	"roomservice/internal/matcher"
	"roomservice/internal/models/providers"
	"roomservice/internal/monitoring"
	"roomservice/internal/orders"
	"roomservice/internal/validation"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const embeddingCachePrefix = "roomservice:embeddings"

// Open builds a Service from configuration: catalog files, inference
// backends, the embedding cache and the order store.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) (*Service, error) {
	logger = logging.OrNop(logger)
	var closers []func() error
	fail := func(err error) (*Service, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	store, err := catalog.Open(cfg.Catalog.MenuPath, cfg.Catalog.InventoryPath, logger.Named("catalog"))
	if err != nil {
		return fail(fmt.Errorf("failed to load catalog: %w", err))
	}

	backends := providers.NewRegistry(cfg.Models, metrics, logger.Named("models"))
	embedder, err := backends.Embedder(ctx)
	if err != nil {
		return fail(err)
	}
	extractModel, err := backends.Provider(providers.StageExtraction)
	if err != nil {
		return fail(err)
	}
	classifyModel, err := backends.Provider(providers.StageClassifier)
	if err != nil {
		return fail(err)
	}

	cache, closeCache := openCache(ctx, cfg.Cache, logger)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	m := matcher.New(matcher.OptionsFromConfig(cfg.Matcher), embedder, cache, logger.Named("matcher"), metrics)
	if err := m.Warm(ctx, matcher.ItemVocabulary(store.Items())); err != nil {
		logger.Warn("embedding warm-up failed, vectors will be computed on demand", zap.Error(err))
	}

	orderStore, closeStore, err := openOrderStore(cfg.Store)
	if err != nil {
		return fail(err)
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	var intentChain []intent.Strategy
	if embedder != nil {
		intentChain = append(intentChain, intent.NewZeroShot(embedder))
	}
	if classifyModel != nil {
		intentChain = append(intentChain, intent.NewInference(classifyModel))
	}
	classifier := intent.NewClassifier(store, cfg.Intent.Threshold, intent.DefaultKeywords(), logger.Named("intent"), metrics, intentChain...)

	var extractChain []extraction.Strategy
	if extractModel != nil {
		extractChain = append(extractChain, extraction.NewLLM(extractModel, cfg.Extraction.RepairAttempts))
	}
	extractor := extraction.NewExtractor(store, m, logger.Named("extraction"), metrics, extractChain...)

	validator := validation.New(store, m, validation.Options{
		RoomMin:          cfg.Validation.RoomMin,
		RoomMax:          cfg.Validation.RoomMax,
		MaxSubstitutions: cfg.Validation.MaxSubstitutions,
	}, logger.Named("validation"))

	processor := orders.NewProcessor(store, orderStore, logger, metrics)

	machine := dialogue.NewMachine(dialogue.Deps{
		Classifier: classifier,
		Extractor:  extractor,
		Validator:  validator,
		Inquirer:   inquiry.New(store, m, logger.Named("inquiry")),
		Orders:     processor,
		Menu:       store,
		Matcher:    m,
		Logger:     logger,
		Metrics:    metrics,
	}, cfg.Dialogue.MaxRetries)

	sessions := dialogue.NewRegistry(cfg.Dialogue.SessionTTL, cfg.Dialogue.JanitorInterval, logger, metrics)

	logger.Info("room service ready",
		zap.Int("menu_items", len(store.Items())),
		zap.Bool("embeddings", embedder != nil),
		zap.Bool("extraction_model", extractModel != nil),
		zap.Bool("classifier_model", classifyModel != nil),
		zap.String("store", cfg.Store.Driver))

	return New(Parts{
		Catalog:    store,
		Matcher:    m,
		Classifier: classifier,
		Machine:    machine,
		Sessions:   sessions,
		Orders:     processor,
		Logger:     logger,
		Metrics:    metrics,
		closers:    closers,
	}), nil
}

// openCache returns the shared Redis tier when configured. An unreachable
// Redis is logged and the process-local cache is used instead.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (matcher.VectorCache, func() error) {
	if cfg.RedisAddr == "" {
		return matcher.NewMemoryCache(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	remote, err := matcher.NewRedisCache(ctx, client, embeddingCachePrefix, cfg.TTL, logger.Named("cache"))
	if err != nil {
		logger.Warn("redis cache unavailable, using in-process cache",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return matcher.NewMemoryCache(), nil
	}
	return matcher.NewTieredCache(remote), client.Close
}

func openOrderStore(cfg config.StoreConfig) (orders.Store, func() error, error) {
	if cfg.Driver == "" || cfg.Driver == "memory" {
		return orders.NewMemoryStore(), nil, nil
	}

	db, err := database.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	store, err := orders.NewGormStore(db)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return store, func() error { return database.Close(db) }, nil
}
