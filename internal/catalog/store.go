package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"roomservice/internal/apperr"
	"roomservice/internal/models"

	"go.uber.org/zap"
)

// Store holds the menu and live inventory. Menu entries are immutable
// between reloads; stock changes only through Reserve and Restore, which
// check and mutate under the same lock.
type Store struct {
	mu          sync.RWMutex
	snap        *snapshot
	version     uint64
	subscribers []func()
	logger      *zap.Logger
}

// New parses the menu and inventory documents into a Store
func New(menuData, inventoryData []byte, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	if err := s.Reload(menuData, inventoryData); err != nil {
		return nil, err
	}
	return s, nil
}

// Open reads the menu and inventory files into a Store
func Open(menuPath, inventoryPath string, logger *zap.Logger) (*Store, error) {
	menuData, inventoryData, err := readDocuments(menuPath, inventoryPath)
	if err != nil {
		return nil, err
	}
	return New(menuData, inventoryData, logger)
}

func readDocuments(menuPath, inventoryPath string) ([]byte, []byte, error) {
	menuData, err := os.ReadFile(menuPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read menu: %w", err)
	}
	inventoryData, err := os.ReadFile(inventoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return menuData, inventoryData, nil
}

// Reload replaces the catalog and stock, then notifies subscribers. On a
// parse error the current catalog is kept.
func (s *Store) Reload(menuData, inventoryData []byte) error {
	snap, missing, err := buildSnapshot(menuData, inventoryData)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.version++
	version := s.version
	subscribers := append([]func(){}, s.subscribers...)
	s.mu.Unlock()

	if len(missing) > 0 {
		s.logger.Warn("menu items without inventory, treating as out of stock", zap.Strings("items", missing))
	}
	s.logger.Info("catalog loaded", zap.Int("items", len(snap.items)), zap.Uint64("version", version))

	for _, fn := range subscribers {
		fn()
	}
	return nil
}

// ReloadFiles re-reads the catalog from disk
func (s *Store) ReloadFiles(menuPath, inventoryPath string) error {
	menuData, inventoryData, err := readDocuments(menuPath, inventoryPath)
	if err != nil {
		return err
	}
	return s.Reload(menuData, inventoryData)
}

// Subscribe registers fn to run after every reload
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Version increases on every reload
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Item looks up a menu item by name or alias
func (s *Store) Item(name string) (models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lookup(name)
	if !ok {
		return models.MenuItem{}, fmt.Errorf("menu item %q: %w", name, apperr.ErrNotFound)
	}
	return *item, nil
}

func (s *Store) lookup(name string) (*models.MenuItem, bool) {
	key := normalizeKey(name)
	if item, ok := s.snap.items[key]; ok {
		return item, true
	}
	if canonical, ok := s.snap.aliases[key]; ok {
		item, ok := s.snap.items[normalizeKey(canonical)]
		return item, ok
	}
	return nil, false
}

// Items returns every menu item ordered by name
func (s *Store) Items() []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.snap.names, false)
}

// Available returns the items with stock on hand
func (s *Store) Available() []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.snap.names, true)
}

// Category returns the items of one category
func (s *Store) Category(name string) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, ok := s.snap.categories[normalizeKey(name)]
	if !ok {
		return nil, fmt.Errorf("menu category %q: %w", name, apperr.ErrNotFound)
	}
	return s.collect(names, false), nil
}

// Categories returns the category names in alphabetical order
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.snap.catNames))
	for _, name := range s.snap.catNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ItemsWithAllergen returns the items declaring an allergen
func (s *Store) ItemsWithAllergen(allergen string) []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.snap.allergens[normalizeKey(allergen)], false)
}

func (s *Store) collect(names []string, inStockOnly bool) []models.MenuItem {
	out := make([]models.MenuItem, 0, len(names))
	for _, name := range names {
		key := normalizeKey(name)
		if inStockOnly && s.snap.stock[key] <= 0 {
			continue
		}
		out = append(out, *s.snap.items[key])
	}
	return out
}

// Stock returns the current stock for an item
func (s *Store) Stock(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lookup(name)
	if !ok {
		return 0, fmt.Errorf("menu item %q: %w", name, apperr.ErrNotFound)
	}
	return s.snap.stock[normalizeKey(item.Name)], nil
}

// Details returns a menu item with its live stock
func (s *Store) Details(name string) (models.ItemDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lookup(name)
	if !ok {
		return models.ItemDetails{}, fmt.Errorf("menu item %q: %w", name, apperr.ErrNotFound)
	}
	stock := s.snap.stock[normalizeKey(item.Name)]
	return models.ItemDetails{MenuItem: *item, Stock: stock, Status: models.StockStatus(stock)}, nil
}

// Inventory returns a stock record for every item ordered by name
func (s *Store) Inventory() []models.InventoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.InventoryRecord, 0, len(s.snap.names))
	for _, name := range s.snap.names {
		stock := s.snap.stock[normalizeKey(name)]
		out = append(out, models.InventoryRecord{Item: name, Stock: stock, Status: models.StockStatus(stock)})
	}
	return out
}

// Reserve decrements stock for every requested item, or for none of them.
// A shortfall returns *apperr.InventoryConflictError with the stock that
// was available for each short item.
func (s *Store) Reserve(quantities map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make(map[string]int, len(quantities))
	for name, qty := range quantities {
		item, ok := s.lookup(name)
		if !ok {
			return fmt.Errorf("menu item %q: %w", name, apperr.ErrNotFound)
		}
		if qty < 1 {
			return fmt.Errorf("quantity %d for %q: %w", qty, name, apperr.ErrInvalidInput)
		}
		keys[normalizeKey(item.Name)] += qty
	}

	// Check everything before touching anything
	short := make(map[string]int)
	for key, qty := range keys {
		if available := s.snap.stock[key]; available < qty {
			short[s.snap.items[key].Name] = available
		}
	}
	if len(short) > 0 {
		return &apperr.InventoryConflictError{Available: short}
	}

	for key, qty := range keys {
		s.snap.stock[key] -= qty
	}
	return nil
}

// Restore returns previously reserved stock. Items no longer on the menu
// after a reload are skipped.
func (s *Store) Restore(quantities map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, qty := range quantities {
		item, ok := s.lookup(name)
		if !ok || qty < 1 {
			s.logger.Warn("skipping inventory restore", zap.String("item", name), zap.Int("quantity", qty))
			continue
		}
		s.snap.stock[normalizeKey(item.Name)] += qty
	}
}
