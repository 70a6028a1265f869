package orders

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/database"
	"roomservice/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// StringSlice stores a list of strings as a JSON column
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// OrderRecord is the database row for a confirmed order
type OrderRecord struct {
	ID          string            `gorm:"primary_key;size:36"`
	RoomNumber  int               `gorm:"index"`
	Total       string            `gorm:"not null"`
	Status      string            `gorm:"index;not null"`
	SubmittedAt time.Time         `gorm:"index"`
	Lines       []OrderLineRecord `gorm:"foreignkey:OrderRecordID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLineRecord is the database row for one priced line
type OrderLineRecord struct {
	ID            uint   `gorm:"primary_key"`
	OrderRecordID string `gorm:"index;size:36"`
	Position      int
	ItemName      string
	Quantity      int
	Modifications StringSlice `gorm:"type:text"`
	UnitPrice     string
	LinePrice     string
}

// GormStore keeps orders in a SQL database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the order tables and returns a store over db
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := database.Migrate(db, &OrderRecord{}, &OrderLineRecord{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, order models.ConfirmedOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := toRecord(order)
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store order %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.ConfirmedOrder{}, err
	}
	var record OrderRecord
	err := s.preload().Where("id = ?", id).First(&record).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.ConfirmedOrder{}, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return fromRecord(record)
}

func (s *GormStore) List(ctx context.Context, room int) ([]models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := s.preload().Order("submitted_at desc").Order("created_at desc")
	if room != 0 {
		query = query.Where("room_number = ?", room)
	}

	var records []OrderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]models.ConfirmedOrder, 0, len(records))
	for _, record := range records {
		order, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *GormStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus) (models.ConfirmedOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.ConfirmedOrder{}, err
	}
	res := s.db.Model(&OrderRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return models.ConfirmedOrder{}, fmt.Errorf("failed to update order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.Get(ctx, id)
		if err != nil {
			return models.ConfirmedOrder{}, err
		}
		return models.ConfirmedOrder{}, fmt.Errorf("order %s is %s, not %s: %w", id, current.Status, from, apperr.ErrInvalidTransition)
	}
	return s.Get(ctx, id)
}

func (s *GormStore) preload() *gorm.DB {
	return s.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})
}

func toRecord(order models.ConfirmedOrder) OrderRecord {
	record := OrderRecord{
		ID:          order.OrderID,
		RoomNumber:  order.RoomNumber,
		Total:       order.Total.StringFixed(2),
		Status:      string(order.Status),
		SubmittedAt: order.SubmittedAt,
	}
	for i, line := range order.Lines {
		record.Lines = append(record.Lines, OrderLineRecord{
			Position:      i,
			ItemName:      line.ItemName,
			Quantity:      line.Quantity,
			Modifications: StringSlice(line.Modifications),
			UnitPrice:     line.UnitPrice.StringFixed(2),
			LinePrice:     line.LinePrice.StringFixed(2),
		})
	}
	return record
}

func fromRecord(record OrderRecord) (models.ConfirmedOrder, error) {
	total, err := decimal.NewFromString(record.Total)
	if err != nil {
		return models.ConfirmedOrder{}, fmt.Errorf("order %s has a corrupt total: %w", record.ID, err)
	}
	order := models.ConfirmedOrder{
		OrderID:     record.ID,
		RoomNumber:  record.RoomNumber,
		Total:       total,
		Status:      models.OrderStatus(record.Status),
		SubmittedAt: record.SubmittedAt.UTC(),
		Lines:       make([]models.ConfirmedLine, 0, len(record.Lines)),
	}
	for _, line := range record.Lines {
		unit, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			return models.ConfirmedOrder{}, fmt.Errorf("order %s has a corrupt unit price: %w", record.ID, err)
		}
		linePrice, err := decimal.NewFromString(line.LinePrice)
		if err != nil {
			return models.ConfirmedOrder{}, fmt.Errorf("order %s has a corrupt line price: %w", record.ID, err)
		}
		var mods []string
		if len(line.Modifications) > 0 {
			mods = []string(line.Modifications)
		}
		order.Lines = append(order.Lines, models.ConfirmedLine{
			ItemName:      line.ItemName,
			Quantity:      line.Quantity,
			Modifications: mods,
			UnitPrice:     unit,
			LinePrice:     linePrice,
		})
	}
	return order, nil
}
