package orders

import (
	"context"
	"testing"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/database"
	"roomservice/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	gormStore, err := NewGormStore(db)
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   gormStore,
	}
}

func sampleOrder(id string, room int, at time.Time) models.ConfirmedOrder {
	return models.ConfirmedOrder{
		OrderID:    id,
		RoomNumber: room,
		Lines: []models.ConfirmedLine{
			{
				ItemName:      "Club Sandwich",
				Quantity:      1,
				Modifications: []string{"extra bacon", "no mayo"},
				UnitPrice:     decimal.RequireFromString("14.50"),
				LinePrice:     decimal.RequireFromString("14.50"),
			},
			{
				ItemName:  "Still Water",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("3.00"),
				LinePrice: decimal.RequireFromString("6.00"),
			},
		},
		Total:       decimal.RequireFromString("20.50"),
		SubmittedAt: at,
		Status:      models.OrderStatusQueued,
	}
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestStores(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := sampleOrder("order-1", 312, base)
			second := sampleOrder("order-2", 312, base.Add(time.Minute))
			other := sampleOrder("order-3", 404, base.Add(2*time.Minute))

			for _, o := range []models.ConfirmedOrder{first, second, other} {
				require.NoError(t, store.Create(ctx, o))
			}

			got, err := store.Get(ctx, "order-1")
			require.NoError(t, err)
			if diff := cmp.Diff(first, got, decimalEqual); diff != "" {
				t.Errorf("stored order mismatch (-want +got):\n%s", diff)
			}

			_, err = store.Get(ctx, "nope")
			assert.ErrorIs(t, err, apperr.ErrNotFound)

			list, err := store.List(ctx, 312)
			require.NoError(t, err)
			assert.Equal(t, []string{"order-2", "order-1"}, ids(list))

			all, err := store.List(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"order-3", "order-2", "order-1"}, ids(all))

			updated, err := store.CompareAndSetStatus(ctx, "order-1", models.OrderStatusQueued, models.OrderStatusPreparing)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPreparing, updated.Status)

			_, err = store.CompareAndSetStatus(ctx, "order-1", models.OrderStatusQueued, models.OrderStatusCancelled)
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

			_, err = store.CompareAndSetStatus(ctx, "nope", models.OrderStatusQueued, models.OrderStatusCancelled)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, sampleOrder("order-1", 312, time.Now().UTC())))

	got, err := store.Get(ctx, "order-1")
	require.NoError(t, err)
	got.Lines[0].Modifications[0] = "changed"

	again, err := store.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "extra bacon", again.Lines[0].Modifications[0])

	assert.ErrorIs(t, store.Create(ctx, again), apperr.ErrInvalidInput)
}

func TestStringSlice(t *testing.T) {
	v, err := StringSlice(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var s StringSlice
	require.NoError(t, s.Scan([]byte(`["no mayo","extra bacon"]`)))
	assert.Equal(t, StringSlice{"no mayo", "extra bacon"}, s)

	assert.Error(t, s.Scan(42))
}
