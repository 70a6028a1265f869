package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// VectorCache stores embeddings keyed by canonical vocabulary text
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
	Purge(ctx context.Context)
}

// MemoryCache is a process-local VectorCache
type MemoryCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{vectors: make(map[string][]float32)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vectors[key]
	return vec, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[key] = vec
}

func (c *MemoryCache) Purge(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = make(map[string][]float32)
}

// Len returns the number of cached vectors
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// RedisCache shares embeddings between processes. Keys carry a generation
// number held in Redis; Purge bumps it so stale vectors are never read.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	generation atomic.Int64
	logger     *zap.Logger
}

// NewRedisCache connects to Redis and loads the current generation
func NewRedisCache(ctx context.Context, client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	gen, err := client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis GET error: %w", err)
	}
	c.generation.Store(gen)
	return c, nil
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *RedisCache) key(key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, c.generation.Load(), key)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis GET error", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.logger.Warn("discarding corrupt cached vector", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis SET error", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Purge(ctx context.Context) {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		c.logger.Warn("redis INCR error, bumping generation locally", zap.Error(err))
		c.generation.Add(1)
		return
	}
	c.generation.Store(gen)
}

// TieredCache reads through a local cache to a shared one
type TieredCache struct {
	local  *MemoryCache
	remote VectorCache
}

// NewTieredCache fronts remote with an in-memory cache
func NewTieredCache(remote VectorCache) *TieredCache {
	return &TieredCache{local: NewMemoryCache(), remote: remote}
}

func (c *TieredCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := c.local.Get(ctx, key); ok {
		return vec, true
	}
	vec, ok := c.remote.Get(ctx, key)
	if ok {
		c.local.Set(ctx, key, vec)
	}
	return vec, ok
}

func (c *TieredCache) Set(ctx context.Context, key string, vec []float32) {
	c.local.Set(ctx, key, vec)
	c.remote.Set(ctx, key, vec)
}

func (c *TieredCache) Purge(ctx context.Context) {
	c.local.Purge(ctx)
	c.remote.Purge(ctx)
}
