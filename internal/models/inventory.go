package models

// InventoryRecord represents the stock count for one menu item
type InventoryRecord struct {
	Item   string          `json:"item"`
	Stock  int             `json:"stock"`
	Status InventoryStatus `json:"status"`
}

// InventoryStatus represents the status of an inventory record
type InventoryStatus string

const (
	// Inventory statuses
	StatusInStock    InventoryStatus = "in_stock"
	StatusLow        InventoryStatus = "low"
	StatusOutOfStock InventoryStatus = "out_of_stock"
)

// LowStockThreshold is the count at or below which an item reports as low
const LowStockThreshold = 3

// StockStatus classifies a stock count
func StockStatus(stock int) InventoryStatus {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= LowStockThreshold:
		return StatusLow
	default:
		return StatusInStock
	}
}

// ItemDetails combines a menu item with its live inventory record
type ItemDetails struct {
	MenuItem
	Stock  int             `json:"stock"`
	Status InventoryStatus `json:"status"`
}
