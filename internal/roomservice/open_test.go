package roomservice

import (
	"context"
	"testing"

	"roomservice/internal/config"
	"roomservice/internal/matcher"
	"roomservice/internal/monitoring"
	"roomservice/internal/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Catalog.MenuPath = "../../data/menu.json"
	cfg.Catalog.InventoryPath = "../../data/inventory.json"
	cfg.Store = config.StoreConfig{Driver: "sqlite3", DSN: ":memory:"}
	return cfg
}

func TestOpenFromConfig(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, testConfig(), nil, monitoring.NewMetrics())
	require.NoError(t, err)
	defer s.Close()

	menu, err := s.GetMenu("")
	require.NoError(t, err)
	assert.NotEmpty(t, menu)

	res, err := s.ProcessTurn(ctx, "", "What ingredients are in the club sandwich?", 0)
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "Club Sandwich")

	history, err := s.ListOrderHistory(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestOpenFailsOnMissingCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.MenuPath = "does/not/exist.json"

	_, err := Open(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "failed to load catalog")
}

func TestOpenOrderStore(t *testing.T) {
	store, closeStore, err := openOrderStore(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &orders.MemoryStore{}, store)
	assert.Nil(t, closeStore)

	store, closeStore, err = openOrderStore(config.StoreConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &orders.GormStore{}, store)
	require.NoError(t, closeStore())

	_, _, err = openOrderStore(config.StoreConfig{Driver: "sqlite3"})
	assert.Error(t, err)
}

func TestOpenCacheFallsBackWithoutRedis(t *testing.T) {
	cache, closeCache := openCache(context.Background(), config.CacheConfig{}, nil)
	assert.IsType(t, &matcher.MemoryCache{}, cache)
	assert.Nil(t, closeCache)
}
