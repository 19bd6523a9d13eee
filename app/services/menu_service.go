package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PosPrint/app/models"
)

// MenuService reads menu items for ticket rendering
type MenuService struct {
	BaseService
}

// NewMenuService creates a new menu service
func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{BaseService: NewBaseService(db)}
}

// GetAllItems returns every menu item with its category, ordered by id
func (s *MenuService) GetAllItems(ctx context.Context) ([]models.MenuItem, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := db.Preload("Category").Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	return items, nil
}

// Lookup loads the whole menu into an id-indexed lookup
func (s *MenuService) Lookup(ctx context.Context) (models.Menu, error) {
	items, err := s.GetAllItems(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewMenu(items), nil
}

// UpsertItems inserts or updates items by id
func (s *MenuService) UpsertItems(ctx context.Context, items ...models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Omit("Category").Create(&items).Error
	})
}

// CreateCategory creates a menu category
func (s *MenuService) CreateCategory(ctx context.Context, category *models.Category) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(category).Error
}
