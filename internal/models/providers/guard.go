package providers

import (
	"context"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/monitoring"

	"golang.org/x/time/rate"
)

// Guard applies a shared token bucket and a per-call timeout to backend
// calls, and converts every failure into an apperr.ModelError.
type Guard struct {
	backend string
	limiter *rate.Limiter
	timeout time.Duration
	metrics *monitoring.Metrics
}

// NewGuard creates a guard; a non-positive limit disables rate limiting
func NewGuard(backend string, limit float64, burst int, timeout time.Duration, metrics *monitoring.Metrics) *Guard {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if limit > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return &Guard{
		backend: backend,
		limiter: limiter,
		timeout: timeout,
		metrics: metrics,
	}
}

// Do runs fn under the rate limit and timeout
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return apperr.NewModelError(g.backend, op, err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(callCtx)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	g.metrics.ObserveModelCall(g.backend, op, time.Since(start), err)

	if err != nil {
		return apperr.NewModelError(g.backend, op, err)
	}
	return nil
}

// GuardedProvider wraps a Provider with a Guard
type GuardedProvider struct {
	Provider
	guard *Guard
}

// NewGuardedProvider wraps p
func NewGuardedProvider(p Provider, guard *Guard) *GuardedProvider {
	return &GuardedProvider{Provider: p, guard: guard}
}

// Complete generates a completion under the guard
func (p *GuardedProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	var out string
	err := p.guard.Do(ctx, "complete", func(ctx context.Context) error {
		var err error
		out, err = p.Provider.Complete(ctx, messages)
		return err
	})
	return out, err
}

// GuardedEmbedder wraps an Embedder with a Guard
type GuardedEmbedder struct {
	embedder Embedder
	guard    *Guard
}

// NewGuardedEmbedder wraps e
func NewGuardedEmbedder(e Embedder, guard *Guard) *GuardedEmbedder {
	return &GuardedEmbedder{embedder: e, guard: guard}
}

// EmbedDocuments embeds texts under the guard
func (e *GuardedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.guard.Do(ctx, "embed_documents", func(ctx context.Context) error {
		var err error
		out, err = e.embedder.EmbedDocuments(ctx, texts)
		return err
	})
	return out, err
}

// EmbedQuery embeds text under the guard
func (e *GuardedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.guard.Do(ctx, "embed_query", func(ctx context.Context) error {
		var err error
		out, err = e.embedder.EmbedQuery(ctx, text)
		return err
	})
	return out, err
}
