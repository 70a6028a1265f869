package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"roomservice/internal/models"

	"github.com/shopspring/decimal"
)

// menuDocument is the on-disk menu layout: category -> item name -> entry
type menuDocument struct {
	Categories map[string]map[string]menuEntry `json:"categories"`
}

type menuEntry struct {
	Price                  decimal.Decimal `json:"price"`
	Description            string          `json:"description"`
	ModificationsAllowed   bool            `json:"modifications_allowed"`
	AvailableModifications []string        `json:"available_modifications"`
	Allergens              []string        `json:"allergens"`
	PreparationTime        int             `json:"preparation_time"`
	Aliases                []string        `json:"aliases"`
}

// snapshot is an immutable parsed catalog plus its starting stock
type snapshot struct {
	items      map[string]*models.MenuItem
	names      []string
	categories map[string][]string
	catNames   map[string]string
	allergens  map[string][]string
	aliases    map[string]string
	stock      map[string]int
}

// normalizeKey folds case and whitespace for lookups
func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func parseMenu(data []byte) (map[string]*models.MenuItem, error) {
	var doc menuDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse menu document: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("menu document has no categories")
	}

	items := make(map[string]*models.MenuItem)
	for category, entries := range doc.Categories {
		for name, entry := range entries {
			item := &models.MenuItem{
				Name:                   strings.TrimSpace(name),
				Category:               strings.TrimSpace(category),
				Price:                  entry.Price,
				Description:            entry.Description,
				ModificationsAllowed:   entry.ModificationsAllowed,
				AvailableModifications: append([]string(nil), entry.AvailableModifications...),
				Allergens:              append([]string(nil), entry.Allergens...),
				PreparationTime:        entry.PreparationTime,
				Aliases:                append([]string(nil), entry.Aliases...),
			}
			if err := models.ValidateMenuItem(item); err != nil {
				return nil, err
			}

			key := normalizeKey(item.Name)
			if _, dup := items[key]; dup {
				return nil, fmt.Errorf("menu item %q appears more than once", item.Name)
			}
			items[key] = item
		}
	}
	return items, nil
}

// parseInventory accepts either a flat item -> count object or the same
// nested under "categories".
func parseInventory(data []byte) (map[string]int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse inventory document: %w", err)
	}

	stock := make(map[string]int)
	add := func(name string, count int) error {
		if count < 0 {
			return fmt.Errorf("inventory for %q is negative", name)
		}
		stock[normalizeKey(name)] = count
		return nil
	}

	if nested, ok := raw["categories"]; ok {
		var byCategory map[string]map[string]int
		if err := json.Unmarshal(nested, &byCategory); err != nil {
			return nil, fmt.Errorf("failed to parse inventory categories: %w", err)
		}
		for _, entries := range byCategory {
			for name, count := range entries {
				if err := add(name, count); err != nil {
					return nil, err
				}
			}
		}
		return stock, nil
	}

	for name, value := range raw {
		var count int
		if err := json.Unmarshal(value, &count); err != nil {
			return nil, fmt.Errorf("inventory for %q is not an integer: %w", name, err)
		}
		if err := add(name, count); err != nil {
			return nil, err
		}
	}
	return stock, nil
}

func buildSnapshot(menuData, inventoryData []byte) (*snapshot, []string, error) {
	items, err := parseMenu(menuData)
	if err != nil {
		return nil, nil, err
	}
	stock, err := parseInventory(inventoryData)
	if err != nil {
		return nil, nil, err
	}

	s := &snapshot{
		items:      items,
		categories: make(map[string][]string),
		catNames:   make(map[string]string),
		allergens:  make(map[string][]string),
		aliases:    make(map[string]string),
		stock:      make(map[string]int, len(items)),
	}

	var missing []string
	for key, item := range items {
		s.names = append(s.names, item.Name)

		catKey := normalizeKey(item.Category)
		s.categories[catKey] = append(s.categories[catKey], item.Name)
		s.catNames[catKey] = item.Category

		for _, allergen := range item.Allergens {
			aKey := normalizeKey(allergen)
			s.allergens[aKey] = append(s.allergens[aKey], item.Name)
		}
		for _, alias := range item.Aliases {
			s.aliases[normalizeKey(alias)] = item.Name
		}

		count, ok := stock[key]
		if !ok {
			missing = append(missing, item.Name)
		}
		s.stock[key] = count
	}

	sort.Strings(s.names)
	for _, names := range s.categories {
		sort.Strings(names)
	}
	for _, names := range s.allergens {
		sort.Strings(names)
	}
	sort.Strings(missing)

	return s, missing, nil
}
