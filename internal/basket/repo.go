package basket

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
)

// Repository persists the basket aggregate: the basket row plus its
// shipments, line items, and payment instruments.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a basket repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new basket with a default shipment.
func (r *Repository) Create(ctx context.Context, basket *models.Basket) (*models.Basket, error) {
	if basket.ID == uuid.Nil {
		basket.ID = uuid.New()
	}
	if basket.Status == "" {
		basket.Status = enums.BasketStatusActive
	}
	if len(basket.Shipments) == 0 {
		basket.Shipments = []models.Shipment{{
			ID:        uuid.New(),
			BasketID:  basket.ID,
			IsDefault: true,
		}}
	}
	if err := r.db.WithContext(ctx).Create(basket).Error; err != nil {
		return nil, err
	}
	return basket, nil
}

// ByID loads the full aggregate. Returns nil without error when absent.
func (r *Repository) ByID(ctx context.Context, id uuid.UUID) (*models.Basket, error) {
	var basket models.Basket
	err := r.db.WithContext(ctx).
		Preload("Shipments", func(db *gorm.DB) *gorm.DB {
			return db.Order("shipments.created_at ASC")
		}).
		Preload("Shipments.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_items.created_at ASC")
		}).
		Preload("Instruments").
		First(&basket, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// ActiveByCustomer loads the newest active basket for a customer, nil when
// none exists.
func (r *Repository) ActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Basket, error) {
	var row models.Basket
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.BasketStatusActive).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, row.ID)
}

// Save writes the aggregate back, replacing the child rows wholesale so
// deleted shipments and moved line items disappear from storage.
func (r *Repository) Save(ctx context.Context, basket *models.Basket) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("basket_id = ?", basket.ID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("basket_id = ?", basket.ID).Delete(&models.Shipment{}).Error; err != nil {
		return err
	}
	if err := db.Where("basket_id = ?", basket.ID).Delete(&models.PaymentInstrument{}).Error; err != nil {
		return err
	}

	if err := db.Omit("Shipments", "Instruments").Save(basket).Error; err != nil {
		return err
	}
	for i := range basket.Shipments {
		basket.Shipments[i].BasketID = basket.ID
		for j := range basket.Shipments[i].Items {
			basket.Shipments[i].Items[j].BasketID = basket.ID
			basket.Shipments[i].Items[j].ShipmentID = basket.Shipments[i].ID
		}
	}
	if len(basket.Shipments) > 0 {
		if err := db.Create(&basket.Shipments).Error; err != nil {
			return err
		}
	}
	for i := range basket.Instruments {
		basket.Instruments[i].BasketID = basket.ID
	}
	if len(basket.Instruments) > 0 {
		if err := db.Create(&basket.Instruments).Error; err != nil {
			return err
		}
	}
	return nil
}

// MarkConverted flips an active basket to converted.
func (r *Repository) MarkConverted(ctx context.Context, basketID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Basket{}).
		Where("id = ? AND status = ?", basketID, enums.BasketStatusActive).
		Update("status", enums.BasketStatusConverted).Error
}
