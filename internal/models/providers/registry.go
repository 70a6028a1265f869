package providers

import (
	"context"
	"fmt"
	"sync"

	"roomservice/internal/config"
	"roomservice/internal/monitoring"

	"go.uber.org/zap"
)

// Stage names the pipeline component a chat backend serves
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageClassifier Stage = "classifier"
)

// Registry builds and caches the inference backends named in configuration
type Registry struct {
	cfg       config.ModelsConfig
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	providers map[Stage]Provider
	embedder  Embedder
	mu        sync.Mutex
}

// NewRegistry creates a new model registry
func NewRegistry(cfg config.ModelsConfig, metrics *monitoring.Metrics, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		providers: make(map[Stage]Provider),
	}
}

// Provider returns the guarded chat backend for a stage. A nil Provider
// with a nil error means the stage runs without a model.
func (r *Registry) Provider(stage Stage) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Return cached instance if available
	if p, exists := r.providers[stage]; exists {
		return p, nil
	}

	var cfg config.BackendConfig
	switch stage {
	case StageExtraction:
		cfg = r.cfg.Extraction
	case StageClassifier:
		cfg = r.cfg.Classifier
	default:
		return nil, fmt.Errorf("unknown model stage: %s", stage)
	}

	p, err := NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", stage, err)
	}
	if p != nil {
		p = NewGuardedProvider(p, NewGuard(cfg.Backend, r.cfg.RateLimit, r.cfg.Burst, r.cfg.Timeout, r.metrics))
		r.logger.Info("chat backend ready", zap.String("stage", string(stage)), zap.String("backend", cfg.Backend))
	}

	// Cache the instance
	r.providers[stage] = p
	return p, nil
}

// Embedder returns the guarded embedding backend, or nil when disabled
func (r *Registry) Embedder(ctx context.Context) (Embedder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.embedder != nil {
		return r.embedder, nil
	}

	cfg := r.cfg.Embeddings
	e, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding backend: %w", err)
	}
	if e == nil {
		return nil, nil
	}

	r.embedder = NewGuardedEmbedder(e, NewGuard(cfg.Backend, r.cfg.RateLimit, r.cfg.Burst, r.cfg.Timeout, r.metrics))
	r.logger.Info("embedding backend ready", zap.String("backend", cfg.Backend))
	return r.embedder, nil
}

// NewProvider creates an unguarded chat backend
func NewProvider(cfg config.BackendConfig) (Provider, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "openai", "github":
		return NewLangChainProvider(cfg)
	case "azure":
		return NewAzureOpenAIProvider(cfg)
	case "goopenai":
		return NewGoOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported chat backend: %s", cfg.Backend)
	}
}

// NewEmbedder creates an unguarded embedding backend
func NewEmbedder(ctx context.Context, cfg config.BackendConfig) (Embedder, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "hashing":
		return NewHashingEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewLangChainEmbedder(cfg)
	case "goopenai":
		return NewGoOpenAIEmbedder(cfg)
	case "genai":
		return NewGenAIEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s", cfg.Backend)
	}
}
