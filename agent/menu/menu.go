package menu

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidItem = errors.New("invalid menu item")
	ErrEmptyMenu   = errors.New("menu has no items")
)

// Category is the section of the menu an item belongs to.
type Category string

const (
	CategoryStarter Category = "starter"
	CategoryMain    Category = "main"
	CategoryDessert Category = "dessert"
	CategoryDrink   Category = "drink"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink:
		return true
	default:
		return false
	}
}

// Price is an amount of money in cents.
type Price int64

// PriceFromFloat rounds a decimal amount to the nearest cent.
func PriceFromFloat(amount float64) Price {
	return Price(math.Round(amount * 100))
}

func (p Price) Times(quantity int) Price {
	return p * Price(quantity)
}

func (p Price) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

type Item struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	UnitPrice   Price    `json:"unit_price"`
	Category    Category `json:"category"`
}

// allSynonyms are queries that list the whole menu.
var allSynonyms = map[string]struct{}{
	"all":        {},
	"everything": {},
	"menu":       {},
	"full menu":  {},
	"todo":       {},
	"todos":      {},
	"menú":       {},
}

// Menu is the immutable catalogue plus the store hours. Safe for concurrent reads.
type Menu struct {
	items []Item
	byKey map[string]Item
	hours Hours
}

func New(items []Item, hours Hours) (*Menu, error) {
	if len(items) == 0 {
		return nil, ErrEmptyMenu
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}

	m := &Menu{
		items: make([]Item, 0, len(items)),
		byKey: make(map[string]Item, len(items)),
		hours: hours,
	}
	for _, it := range items {
		it.Key = strings.ToLower(strings.TrimSpace(it.Key))
		it.DisplayName = strings.TrimSpace(it.DisplayName)
		if it.Key == "" {
			return nil, fmt.Errorf("%w: key is empty", ErrInvalidItem)
		}
		if it.DisplayName == "" {
			it.DisplayName = it.Key
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: %s has a negative price", ErrInvalidItem, it.Key)
		}
		if !it.Category.Valid() {
			return nil, fmt.Errorf("%w: %s has unknown category %q", ErrInvalidItem, it.Key, it.Category)
		}
		if _, dup := m.byKey[it.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrInvalidItem, it.Key)
		}
		m.byKey[it.Key] = it
		m.items = append(m.items, it)
	}
	return m, nil
}

// Items returns every item in menu order.
func (m *Menu) Items() []Item {
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Menu) Hours() Hours {
	return m.hours
}

// Lookup matches query case-insensitively as a substring of the key or the
// display name. An "all" synonym returns the whole menu. No match is an empty
// slice, not an error.
func (m *Menu) Lookup(query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if IsAllQuery(q) {
		return m.Items()
	}
	if q == "" {
		return nil
	}

	var found []Item
	for _, it := range m.items {
		if strings.Contains(it.Key, q) || strings.Contains(strings.ToLower(it.DisplayName), q) {
			found = append(found, it)
		}
	}
	return found
}

// Find resolves an exact item by key or display name, ignoring case.
func (m *Menu) Find(name string) (Item, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if it, ok := m.byKey[n]; ok {
		return it, true
	}
	for _, it := range m.items {
		if strings.ToLower(it.DisplayName) == n {
			return it, true
		}
	}
	return Item{}, false
}

func IsAllQuery(query string) bool {
	_, ok := allSynonyms[strings.ToLower(strings.TrimSpace(query))]
	return ok
}
