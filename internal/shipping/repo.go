package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

// MethodRepository reads the shipping method table.
type MethodRepository struct {
	db *gorm.DB
}

// NewMethodRepository constructs a method repository bound to the provided DB.
func NewMethodRepository(db *gorm.DB) *MethodRepository {
	return &MethodRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *MethodRepository) WithTx(tx *gorm.DB) *MethodRepository {
	if tx == nil {
		return r
	}
	return &MethodRepository{db: tx}
}

// List returns every shipping method in display order.
func (r *MethodRepository) List(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, id ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// ApplicableTo filters methods for a shipment. Store pickup methods only
// apply to the default shipment; everything else applies everywhere.
func ApplicableTo(methods []models.ShippingMethod, shipment *models.Shipment) []models.ShippingMethod {
	if shipment == nil {
		return methods
	}
	out := make([]models.ShippingMethod, 0, len(methods))
	for _, m := range methods {
		if m.StorePickup && !shipment.IsDefault {
			continue
		}
		out = append(out, m)
	}
	return out
}
