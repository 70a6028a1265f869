// Package roomservice ties the pipeline stages together behind the
// operations exposed to the API, the CLI and the evaluator.
package roomservice

import (
	"context"
	"fmt"
	"strings"

	"roomservice/internal/apperr"
	"roomservice/internal/catalog"
	"roomservice/internal/dialogue"
	"roomservice/internal/intent"
	"roomservice/internal/logging"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
	"roomservice/internal/monitoring"
	"roomservice/internal/orders"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TurnResult is the reply to one guest utterance
type TurnResult = dialogue.Result

// Classification is the label given to a piece of text
type Classification = intent.Result

// Parts are the assembled pipeline stages a Service runs on
type Parts struct {
	Catalog    *catalog.Store
	Matcher    *matcher.Matcher
	Classifier *intent.Classifier
	Machine    *dialogue.Machine
	Sessions   *dialogue.Registry
	Orders     *orders.Processor
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics

	// closers run in reverse order on Close
	closers []func() error
}

// Service is the room service ordering core
type Service struct {
	catalog    *catalog.Store
	matcher    *matcher.Matcher
	classifier *intent.Classifier
	machine    *dialogue.Machine
	sessions   *dialogue.Registry
	orders     *orders.Processor
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	closers    []func() error
	newID      func() string
}

// New creates a service from assembled parts. Embeddings cached by the
// matcher are dropped whenever the catalog reloads.
func New(p Parts) *Service {
	s := &Service{
		catalog:    p.Catalog,
		matcher:    p.Matcher,
		classifier: p.Classifier,
		machine:    p.Machine,
		sessions:   p.Sessions,
		orders:     p.Orders,
		logger:     logging.OrNop(p.Logger).Named("service"),
		metrics:    p.Metrics,
		closers:    p.closers,
		newID:      uuid.NewString,
	}
	s.catalog.Subscribe(s.matcher.Invalidate)
	return s
}

// ProcessTurn runs one utterance through the conversation for sessionID.
// An empty sessionID starts a new conversation; the generated id is
// returned in the result.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, utterance string, roomNumber int) (TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return TurnResult{}, fmt.Errorf("utterance is required: %w", apperr.ErrInvalidInput)
	}
	if roomNumber < 0 {
		return TurnResult{}, fmt.Errorf("room number %d: %w", roomNumber, apperr.ErrInvalidInput)
	}
	if sessionID == "" {
		sessionID = s.newID()
	}

	var res TurnResult
	err := s.sessions.Do(ctx, sessionID, func(conv *dialogue.ConversationState) error {
		res = s.machine.Step(ctx, conv, utterance, roomNumber)
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	res.SessionID = sessionID

	s.logger.Debug("turn processed",
		zap.String("session", sessionID),
		zap.String("state", string(res.State)),
		zap.Int("issues", len(res.Issues)),
		zap.Bool("ended", res.Ended))
	return res, nil
}

// Session returns a snapshot of a conversation
func (s *Service) Session(id string) (*dialogue.ConversationState, error) {
	return s.sessions.Get(id)
}

// EndSession discards a conversation and its pending draft
func (s *Service) EndSession(id string) error {
	return s.sessions.End(id)
}

// GetOrderStatus returns the status of a confirmed order
func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	return s.orders.Status(ctx, orderID)
}

// GetOrder returns a confirmed order
func (s *Service) GetOrder(ctx context.Context, orderID string) (models.ConfirmedOrder, error) {
	return s.orders.Order(ctx, orderID)
}

// ListOrderHistory returns confirmed orders newest first; room 0 lists all
func (s *Service) ListOrderHistory(ctx context.Context, room int) ([]models.ConfirmedOrder, error) {
	if room < 0 {
		return nil, fmt.Errorf("room number %d: %w", room, apperr.ErrInvalidInput)
	}
	return s.orders.History(ctx, room)
}

// CancelOrder cancels a queued or preparing order and returns its stock
func (s *Service) CancelOrder(ctx context.Context, orderID string) (models.ConfirmedOrder, error) {
	return s.orders.Cancel(ctx, orderID)
}

// AdvanceOrder moves an order to the next kitchen status
func (s *Service) AdvanceOrder(ctx context.Context, orderID string) (models.ConfirmedOrder, error) {
	return s.orders.Advance(ctx, orderID)
}

// KitchenQueue returns the orders the kitchen still has to finish, oldest first
func (s *Service) KitchenQueue(ctx context.Context) ([]models.ConfirmedOrder, error) {
	return s.orders.Queue(ctx)
}

// GetMenu returns the whole menu, or one category of it
func (s *Service) GetMenu(category string) ([]models.MenuItem, error) {
	if strings.TrimSpace(category) == "" {
		return s.catalog.Items(), nil
	}
	return s.catalog.Category(category)
}

// AvailableItems returns the menu items currently in stock
func (s *Service) AvailableItems() []models.MenuItem {
	return s.catalog.Available()
}

func (s *Service) Categories() []string {
	return s.catalog.Categories()
}

func (s *Service) ItemDetails(name string) (models.ItemDetails, error) {
	return s.catalog.Details(name)
}

func (s *Service) Inventory() []models.InventoryRecord {
	return s.catalog.Inventory()
}

// ClassifyInquiry labels text without touching any conversation
func (s *Service) ClassifyInquiry(ctx context.Context, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, fmt.Errorf("text is required: %w", apperr.ErrInvalidInput)
	}
	return s.classifier.Classify(ctx, text), nil
}

// ReloadCatalog re-reads the menu and inventory files
func (s *Service) ReloadCatalog(menuPath, inventoryPath string) error {
	if err := s.catalog.ReloadFiles(menuPath, inventoryPath); err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}
	return nil
}

// ActiveSessions returns the number of live conversations
func (s *Service) ActiveSessions() int {
	return s.sessions.Len()
}

// Metrics returns the collector the service records into
func (s *Service) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Close stops the session janitor and releases stores and connections
func (s *Service) Close() error {
	s.sessions.Close()

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
