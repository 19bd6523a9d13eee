package models

import (
	"sort"
	"time"
)

// MenuItem represents a dish or drink on the menu
type MenuItem struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Price      int64     `gorm:"not null;default:0" json:"price"` // Minor currency unit (VND has no decimals)
	CategoryID *int64    `json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CategoryName returns the category display name, or "" when uncategorised
func (m MenuItem) CategoryName() string {
	if m.Category == nil {
		return ""
	}
	return m.Category.Name
}

// Category represents a menu category
type Category struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;unique" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MenuLookup resolves item ids to menu entries.
type MenuLookup interface {
	LookupItem(id int64) (MenuItem, bool)
}

// Menu is an in-memory MenuLookup keyed by item id
type Menu map[int64]MenuItem

// NewMenu indexes items by id. Later duplicates win.
func NewMenu(items []MenuItem) Menu {
	menu := make(Menu, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}
	return menu
}

// LookupItem implements MenuLookup
func (m Menu) LookupItem(id int64) (MenuItem, bool) {
	item, ok := m[id]
	return item, ok
}

// SortedItemIDs returns the keys of a quantity map in ascending order.
// Tickets render items in this order.
func SortedItemIDs(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
