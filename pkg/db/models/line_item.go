package models

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is a product entry in a basket, always attached to exactly
// one shipment.
type LineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BasketID       uuid.UUID `gorm:"column:basket_id;type:uuid;not null"`
	ShipmentID     uuid.UUID `gorm:"column:shipment_id;type:uuid;not null"`
	ProductID      string    `gorm:"column:product_id;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
