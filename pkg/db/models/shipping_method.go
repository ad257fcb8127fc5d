package models

import (
	"time"
)

// ShippingMethod is a carrier option applicable to a shipment. Methods
// are seeded by migration and keyed by a stable string ID so carts can
// reference them across sessions.
type ShippingMethod struct {
	ID            string    `gorm:"column:id;primaryKey"`
	DisplayName   string    `gorm:"column:display_name;not null"`
	Description   string    `gorm:"column:description"`
	CostCents     int       `gorm:"column:cost_cents;not null"`
	IsDefault     bool      `gorm:"column:is_default;not null;default:false"`
	StorePickup   bool      `gorm:"column:store_pickup;not null;default:false"`
	EstimatedDays int       `gorm:"column:estimated_days;not null;default:0"`
	SortOrder     int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
