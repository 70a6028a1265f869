package catalog_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"roomservice/internal/apperr"
	"roomservice/internal/catalog"
	"roomservice/internal/catalog/catalogtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemLookup(t *testing.T) {
	store := catalogtest.New(t)

	item, err := store.Item("  caesar   SALAD ")
	require.NoError(t, err)
	assert.Equal(t, "Caesar Salad", item.Name)
	assert.Equal(t, "Main", item.Category)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("12.00")))
	assert.Contains(t, item.AvailableModifications, "add anchovies")

	byAlias, err := store.Item("water")
	require.NoError(t, err)
	assert.Equal(t, "Still Water", byAlias.Name)

	_, err = store.Item("lobster thermidor")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCategoriesAndAvailability(t *testing.T) {
	store := catalogtest.New(t)

	assert.Equal(t, []string{"Beverage", "Dessert", "Main", "Side"}, store.Categories())

	desserts, err := store.Category("dessert")
	require.NoError(t, err)
	require.Len(t, desserts, 3)
	assert.Equal(t, "Apple Pie", desserts[0].Name)

	_, err = store.Category("Breakfast")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, item := range store.Available() {
		assert.NotEqual(t, "Apple Pie", item.Name)
	}
	assert.Len(t, store.Available(), len(store.Items())-1)
}

func TestAllergenIndex(t *testing.T) {
	store := catalogtest.New(t)

	fish := store.ItemsWithAllergen("Fish")
	names := make([]string, len(fish))
	for i, item := range fish {
		names[i] = item.Name
	}
	assert.Equal(t, []string{"Caesar Salad", "Grilled Salmon"}, names)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	store := catalogtest.New(t)

	err := store.Reserve(map[string]int{"Club Sandwich": 2, "Orange Juice": 3})
	require.Error(t, err)

	var conflict *apperr.InventoryConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, map[string]int{"Orange Juice": 2}, conflict.Available)

	stock, err := store.Stock("Club Sandwich")
	require.NoError(t, err)
	assert.Equal(t, 10, stock, "no stock may move when any line is short")

	require.NoError(t, store.Reserve(map[string]int{"Club Sandwich": 2, "Orange Juice": 2}))
	stock, _ = store.Stock("Orange Juice")
	assert.Equal(t, 0, stock)

	store.Restore(map[string]int{"Orange Juice": 2})
	stock, _ = store.Stock("Orange Juice")
	assert.Equal(t, 2, stock)
}

func TestReserveRejectsUnknownItems(t *testing.T) {
	store := catalogtest.New(t)

	err := store.Reserve(map[string]int{"Unicorn Steak": 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	store := catalogtest.New(t)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Reserve(map[string]int{"Grilled Salmon": 1}); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	stock, err := store.Stock("Grilled Salmon")
	require.NoError(t, err)
	assert.Equal(t, int32(4), granted.Load())
	assert.Equal(t, 0, stock)
}

func TestReloadNotifiesSubscribers(t *testing.T) {
	store := catalogtest.New(t)

	calls := 0
	store.Subscribe(func() { calls++ })

	before := store.Version()
	require.NoError(t, store.Reload([]byte(catalogtest.MenuJSON), []byte(`{"Club Sandwich": 1}`)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, before+1, store.Version())

	stock, _ := store.Stock("Caesar Salad")
	assert.Equal(t, 0, stock, "items missing from inventory are out of stock")
}

func TestReloadKeepsCatalogOnError(t *testing.T) {
	store := catalogtest.New(t)

	err := store.Reload([]byte(`{"categories": {}}`), []byte(`{}`))
	require.Error(t, err)

	_, err = store.Item("Club Sandwich")
	assert.NoError(t, err)
}

func TestNewRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name      string
		menu      string
		inventory string
	}{
		{"malformed menu", `{`, `{}`},
		{"zero price", `{"categories":{"Main":{"Toast":{"price":0,"preparation_time":5}}}}`, `{}`},
		{"prep time too long", `{"categories":{"Main":{"Toast":{"price":2,"preparation_time":500}}}}`, `{}`},
		{"negative stock", `{"categories":{"Main":{"Toast":{"price":2,"preparation_time":5}}}}`, `{"Toast": -1}`},
		{"non-integer stock", `{"categories":{"Main":{"Toast":{"price":2,"preparation_time":5}}}}`, `{"Toast": "many"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.New([]byte(tt.menu), []byte(tt.inventory), nil)
			assert.Error(t, err)
		})
	}
}

func TestDetailsAndInventory(t *testing.T) {
	store := catalogtest.New(t)

	details, err := store.Details("Orange Juice")
	require.NoError(t, err)
	assert.Equal(t, 2, details.Stock)
	assert.Equal(t, "low", string(details.Status))

	records := store.Inventory()
	require.Len(t, records, len(store.Items()))
	assert.Equal(t, "Apple Pie", records[0].Item)
	assert.Equal(t, "out_of_stock", string(records[0].Status))
}
