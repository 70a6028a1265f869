package dialogue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/logging"
	"roomservice/internal/monitoring"

	"go.uber.org/zap"
)

type session struct {
	mu       sync.Mutex
	conv     *ConversationState
	lastSeen time.Time
	inUse    int
}

// Registry maps session ids to conversations. Each conversation is handled
// by one turn at a time; idle sessions are evicted by a janitor goroutine.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a registry and starts its janitor. A non-positive
// interval disables the janitor; Sweep can still be called directly.
func NewRegistry(ttl, interval time.Duration, logger *zap.Logger, metrics *monitoring.Metrics) *Registry {
	r := &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logging.OrNop(logger).Named("sessions"),
		metrics:  metrics,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if interval > 0 {
		go r.janitor(interval)
	} else {
		close(r.done)
	}
	return r
}

func (r *Registry) janitor(interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		case <-r.stop:
			return
		}
	}
}

// Do runs fn on the conversation for id, creating it when absent. Calls for
// the same id are serialized.
func (r *Registry) Do(ctx context.Context, id string, fn func(*ConversationState) error) error {
	if id == "" {
		return fmt.Errorf("session id is required: %w", apperr.ErrInvalidInput)
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &session{conv: NewConversation(id)}
		r.sessions[id] = s
		r.metrics.SetActiveSessions(len(r.sessions))
	}
	s.inUse++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		s.inUse--
		s.lastSeen = r.now()
		r.mu.Unlock()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.conv)
}

// Get returns a copy of the conversation for id
func (r *Registry) Get(id string) (*ConversationState, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Clone(), nil
}

// End forgets a session
func (r *Registry) End(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.sessions, id)
	r.metrics.SetActiveSessions(len(r.sessions))
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a turn in progress are kept.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for id, s := range r.sessions {
		if s.inUse == 0 && s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.metrics.SetActiveSessions(len(r.sessions))
	}
	return evicted
}

// Close stops the janitor and waits for it to exit
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}
