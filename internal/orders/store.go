// Package orders confirms validated drafts and tracks submitted orders.
package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"roomservice/internal/apperr"
	"roomservice/internal/models"
)

// Store is the order registry
type Store interface {
	Create(ctx context.Context, order models.ConfirmedOrder) error
	Get(ctx context.Context, id string) (models.ConfirmedOrder, error)
	// List returns orders newest first; room 0 lists every room
	List(ctx context.Context, room int) ([]models.ConfirmedOrder, error)
	// CompareAndSetStatus moves an order from one status to another, failing
	// with apperr.ErrInvalidTransition when the order is not in from.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus) (models.ConfirmedOrder, error)
}

// MemoryStore keeps orders in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*models.ConfirmedOrder
	seq    map[string]int
	next   int
}

// NewMemoryStore creates an empty in-memory registry
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*models.ConfirmedOrder),
		seq:    make(map[string]int),
	}
}

func (s *MemoryStore) Create(ctx context.Context, order models.ConfirmedOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("order %s already exists: %w", order.OrderID, apperr.ErrInvalidInput)
	}
	stored := cloneOrder(order)
	s.orders[order.OrderID] = &stored
	s.seq[order.OrderID] = s.next
	s.next++
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.ConfirmedOrder{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return cloneOrder(*order), nil
}

func (s *MemoryStore) List(ctx context.Context, room int) ([]models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ConfirmedOrder, 0, len(s.orders))
	for _, order := range s.orders {
		if room != 0 && order.RoomNumber != room {
			continue
		}
		out = append(out, cloneOrder(*order))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return s.seq[out[i].OrderID] > s.seq[out[j].OrderID]
	})
	return out, nil
}

func (s *MemoryStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus) (models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.ConfirmedOrder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	if order.Status != from {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s is %s, not %s: %w", id, order.Status, from, apperr.ErrInvalidTransition)
	}
	order.Status = to
	return cloneOrder(*order), nil
}

func cloneOrder(o models.ConfirmedOrder) models.ConfirmedOrder {
	out := o
	out.Lines = make([]models.ConfirmedLine, len(o.Lines))
	for i, line := range o.Lines {
		line.Modifications = append([]string(nil), line.Modifications...)
		out.Lines[i] = line
	}
	return out
}
