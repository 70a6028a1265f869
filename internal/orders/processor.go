package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/logging"
	"roomservice/internal/models"
	"roomservice/internal/monitoring"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Inventory is the catalog surface the processor prices against and reserves from
type Inventory interface {
	Item(name string) (models.MenuItem, error)
	Reserve(quantities map[string]int) error
	Restore(quantities map[string]int)
}

// Processor turns order-ready drafts into confirmed orders and runs the
// mock kitchen lifecycle.
type Processor struct {
	inventory Inventory
	store     Store
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	now   func() time.Time
	newID func() string
}

// NewProcessor creates a processor over the given inventory and order store
func NewProcessor(inventory Inventory, store Store, logger *zap.Logger, metrics *monitoring.Metrics) *Processor {
	return &Processor{
		inventory: inventory,
		store:     store,
		logger:    logging.OrNop(logger).Named("orders"),
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Price converts matched draft lines to priced lines. It fails with
// apperr.ErrInvalidInput when a line is unresolved or asks for a
// modification the item does not offer.
func (p *Processor) Price(draft *models.DraftOrder) ([]models.ConfirmedLine, decimal.Decimal, error) {
	if draft.IsEmpty() {
		return nil, decimal.Zero, fmt.Errorf("order has no items: %w", apperr.ErrInvalidInput)
	}

	lines := make([]models.ConfirmedLine, 0, len(draft.Lines))
	total := decimal.Zero
	for i, line := range draft.Lines {
		if line.Status != models.ResolutionMatched {
			return nil, decimal.Zero, fmt.Errorf("line %d (%q) is %s: %w", i, line.RawText, line.Status, apperr.ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("line %d has quantity %d: %w", i, line.Quantity, apperr.ErrInvalidInput)
		}
		item, err := p.inventory.Item(line.ItemName)
		if err != nil {
			return nil, decimal.Zero, err
		}

		mods := make([]string, 0, len(line.Modifications))
		for _, mod := range line.Modifications {
			canonical, ok := item.Modification(mod)
			if !ok {
				return nil, decimal.Zero, fmt.Errorf("%s does not offer %q: %w", item.Name, mod, apperr.ErrInvalidInput)
			}
			mods = append(mods, canonical)
		}
		if len(mods) == 0 {
			mods = nil
		}

		linePrice := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(linePrice)
		lines = append(lines, models.ConfirmedLine{
			ItemName:      item.Name,
			Quantity:      line.Quantity,
			Modifications: mods,
			UnitPrice:     item.Price,
			LinePrice:     linePrice,
		})
	}
	return lines, total, nil
}

// Submit reserves stock for an order-ready draft and records it as queued.
// A stock shortfall returns *apperr.InventoryConflictError and reserves nothing.
func (p *Processor) Submit(ctx context.Context, draft *models.DraftOrder) (models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.ConfirmedOrder{}, err
	}
	if draft == nil || draft.RoomNumber < 1 {
		return models.ConfirmedOrder{}, fmt.Errorf("order needs a room number: %w", apperr.ErrInvalidInput)
	}

	lines, total, err := p.Price(draft)
	if err != nil {
		return models.ConfirmedOrder{}, err
	}

	quantities := reservation(lines)
	if err := p.inventory.Reserve(quantities); err != nil {
		p.logger.Info("reservation rejected", zap.Int("room", draft.RoomNumber), zap.Error(err))
		return models.ConfirmedOrder{}, err
	}

	order := models.ConfirmedOrder{
		OrderID:     p.newID(),
		RoomNumber:  draft.RoomNumber,
		Lines:       lines,
		Total:       total,
		SubmittedAt: p.now().UTC().Truncate(time.Microsecond),
		Status:      models.OrderStatusQueued,
	}
	if err := p.store.Create(ctx, order); err != nil {
		p.inventory.Restore(quantities)
		return models.ConfirmedOrder{}, fmt.Errorf("failed to record order: %w", err)
	}

	p.logger.Info("order submitted",
		zap.String("order_id", order.OrderID),
		zap.Int("room", order.RoomNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Lines)),
	)
	p.metrics.RecordOrder(string(order.Status))
	return order, nil
}

// Status returns the current status of an order
func (p *Processor) Status(ctx context.Context, id string) (models.OrderStatus, error) {
	order, err := p.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// Order returns a confirmed order by id
func (p *Processor) Order(ctx context.Context, id string) (models.ConfirmedOrder, error) {
	return p.store.Get(ctx, id)
}

// History lists orders newest first; room 0 lists every room
func (p *Processor) History(ctx context.Context, room int) ([]models.ConfirmedOrder, error) {
	return p.store.List(ctx, room)
}

// Cancel moves a queued or preparing order to cancelled and returns its
// stock. The status change is a compare-and-set so concurrent cancels or
// kitchen updates restore stock at most once.
func (p *Processor) Cancel(ctx context.Context, id string) (models.ConfirmedOrder, error) {
	for {
		order, err := p.store.Get(ctx, id)
		if err != nil {
			return models.ConfirmedOrder{}, err
		}
		if !order.Status.Cancellable() {
			return models.ConfirmedOrder{}, fmt.Errorf("order %s is already %s: %w", id, order.Status, apperr.ErrInvalidTransition)
		}

		cancelled, err := p.store.CompareAndSetStatus(ctx, id, order.Status, models.OrderStatusCancelled)
		if errors.Is(err, apperr.ErrInvalidTransition) {
			// status moved underneath us; re-read and decide again
			continue
		}
		if err != nil {
			return models.ConfirmedOrder{}, err
		}

		p.inventory.Restore(reservation(cancelled.Lines))
		p.logger.Info("order cancelled", zap.String("order_id", id), zap.String("from", string(order.Status)))
		p.metrics.RecordOrder(string(models.OrderStatusCancelled))
		return cancelled, nil
	}
}

// Advance moves an order one step through the kitchen: queued, preparing,
// completed.
func (p *Processor) Advance(ctx context.Context, id string) (models.ConfirmedOrder, error) {
	order, err := p.store.Get(ctx, id)
	if err != nil {
		return models.ConfirmedOrder{}, err
	}
	next, ok := order.Status.Next()
	if !ok {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s is %s and cannot advance: %w", id, order.Status, apperr.ErrInvalidTransition)
	}

	advanced, err := p.store.CompareAndSetStatus(ctx, id, order.Status, next)
	if err != nil {
		return models.ConfirmedOrder{}, err
	}
	p.logger.Debug("order advanced", zap.String("order_id", id), zap.String("status", string(next)))
	p.metrics.RecordOrder(string(next))
	return advanced, nil
}

// Queue returns the kitchen's open orders, oldest first
func (p *Processor) Queue(ctx context.Context) ([]models.ConfirmedOrder, error) {
	all, err := p.store.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	open := make([]models.ConfirmedOrder, 0, len(all))
	for _, order := range all {
		if order.Status.Cancellable() {
			open = append(open, order)
		}
	}
	// List is newest first; reverse into kitchen order
	for i, j := 0, len(open)-1; i < j; i, j = i+1, j-1 {
		open[i], open[j] = open[j], open[i]
	}
	return open, nil
}

func reservation(lines []models.ConfirmedLine) map[string]int {
	quantities := make(map[string]int, len(lines))
	for _, line := range lines {
		quantities[line.ItemName] += line.Quantity
	}
	return quantities
}
