// Package providertest provides deterministic inference backends for tests.
package providertest

import (
	"context"
	"errors"
	"sync"

	"roomservice/internal/models/providers"
)

// ErrExhausted is returned once a ScriptedProvider has no replies left
var ErrExhausted = errors.New("scripted provider exhausted")

// Reply is one scripted completion result
type Reply struct {
	Text string
	Err  error
}

// ScriptedProvider replays canned replies in order and records every request
type ScriptedProvider struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]providers.Message
}

// NewScriptedProvider creates a provider that answers with replies in order
func NewScriptedProvider(replies ...Reply) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// Text is shorthand for a successful reply
func Text(s string) Reply {
	return Reply{Text: s}
}

// Fail is shorthand for a failed reply
func Fail(err error) Reply {
	return Reply{Err: err}
}

func (p *ScriptedProvider) Name() string { return "scripted" }

func (p *ScriptedProvider) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, append([]providers.Message(nil), messages...))
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.replies) == 0 {
		return "", ErrExhausted
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply.Text, reply.Err
}

// Calls returns the recorded requests
func (p *ScriptedProvider) Calls() [][]providers.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]providers.Message(nil), p.calls...)
}

// FailingEmbedder always returns Err
type FailingEmbedder struct {
	Err error
}

func (e FailingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, e.Err
}

func (e FailingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, e.Err
}

// CountingEmbedder wraps an embedder and counts the texts it embeds
type CountingEmbedder struct {
	providers.Embedder

	mu    sync.Mutex
	texts int
}

func (e *CountingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.texts += len(texts)
	e.mu.Unlock()
	return e.Embedder.EmbedDocuments(ctx, texts)
}

func (e *CountingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.texts++
	e.mu.Unlock()
	return e.Embedder.EmbedQuery(ctx, text)
}

// Texts returns how many texts were embedded
func (e *CountingEmbedder) Texts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.texts
}
