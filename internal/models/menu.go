package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem represents a dish or drink on the room service menu
type MenuItem struct {
	Name                   string          `json:"name"`
	Category               string          `json:"category"`
	Price                  decimal.Decimal `json:"price"`
	Description            string          `json:"description"`
	ModificationsAllowed   bool            `json:"modifications_allowed"`
	AvailableModifications []string        `json:"available_modifications"`
	Allergens              []string        `json:"allergens"`
	PreparationTime        int             `json:"preparation_time"`
	Aliases                []string        `json:"aliases,omitempty"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	// Menu categories
	MenuCategoryMain     MenuCategory = "Main"
	MenuCategorySide     MenuCategory = "Side"
	MenuCategoryBeverage MenuCategory = "Beverage"
	MenuCategoryDessert  MenuCategory = "Dessert"
)

// Allergen represents a food allergen
type Allergen string

const (
	// Common allergens
	AllergenDairy     Allergen = "dairy"
	AllergenEggs      Allergen = "eggs"
	AllergenFish      Allergen = "fish"
	AllergenShellfish Allergen = "shellfish"
	AllergenNuts      Allergen = "nuts"
	AllergenPeanuts   Allergen = "peanuts"
	AllergenGluten    Allergen = "gluten"
	AllergenSoy       Allergen = "soy"
	AllergenSesame    Allergen = "sesame"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("999.99")
)

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("menu item name is required")
	}
	if strings.TrimSpace(item.Category) == "" {
		return fmt.Errorf("menu item %q must belong to a category", item.Name)
	}
	if item.Price.LessThan(minPrice) || item.Price.GreaterThan(maxPrice) {
		return fmt.Errorf("menu item %q price must be between %s and %s", item.Name, minPrice, maxPrice)
	}
	if item.PreparationTime < 1 || item.PreparationTime > 180 {
		return fmt.Errorf("menu item %q preparation time must be between 1 and 180 minutes", item.Name)
	}
	if !item.ModificationsAllowed && len(item.AvailableModifications) > 0 {
		return fmt.Errorf("menu item %q lists modifications but does not allow them", item.Name)
	}
	return nil
}

// HasAllergen checks if the item contains a specific allergen
func (mi *MenuItem) HasAllergen(allergen string) bool {
	for _, alg := range mi.Allergens {
		if strings.EqualFold(alg, allergen) {
			return true
		}
	}
	return false
}

// Modification returns the catalog spelling of a supported modification
func (mi *MenuItem) Modification(mod string) (string, bool) {
	if !mi.ModificationsAllowed {
		return "", false
	}
	for _, m := range mi.AvailableModifications {
		if strings.EqualFold(strings.TrimSpace(m), strings.TrimSpace(mod)) {
			return m, true
		}
	}
	return "", false
}

// IsInCategory checks if the item belongs to a specific category
func (mi *MenuItem) IsInCategory(category string) bool {
	return strings.EqualFold(mi.Category, category)
}
