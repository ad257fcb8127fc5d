package stores

import (
	"context"

	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

// Repository reads the store table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a store repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every store. The table is small enough that the radius
// filter runs in memory.
func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	var out []models.Store
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
