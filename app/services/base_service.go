package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrDatabaseNotInitialized is returned by services built without a database
var ErrDatabaseNotInitialized = errors.New("database not initialized")

// BaseService provides common functionality for the gorm backed services
type BaseService struct {
	db *gorm.DB
}

// NewBaseService creates a new base service instance
func NewBaseService(db *gorm.DB) BaseService {
	return BaseService{db: db}
}

// GetDB returns the database connection
func (b *BaseService) GetDB() *gorm.DB {
	return b.db
}

// SetDB sets the database connection (useful for testing)
func (b *BaseService) SetDB(db *gorm.DB) {
	b.db = db
}

// EnsureDB checks if database is initialized and returns an error if not
func (b *BaseService) EnsureDB() error {
	if b.db == nil {
		return ErrDatabaseNotInitialized
	}
	return nil
}

// conn returns the database bound to ctx
func (b *BaseService) conn(ctx context.Context) (*gorm.DB, error) {
	if err := b.EnsureDB(); err != nil {
		return nil, err
	}
	return b.db.WithContext(ctx), nil
}

// WithTransaction executes a function within a database transaction
func (b *BaseService) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := b.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}
