package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/types"
)

// Shipment groups line items that travel together under one shipping
// address and method. Every basket keeps exactly one default shipment.
type Shipment struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BasketID         uuid.UUID      `gorm:"column:basket_id;type:uuid;not null"`
	IsDefault        bool           `gorm:"column:is_default;not null;default:false"`
	ShippingMethodID *string        `gorm:"column:shipping_method_id"`
	ShippingAddress  *types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ShippingCents    int            `gorm:"column:shipping_cents;not null;default:0"`
	Items            []LineItem     `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Empty reports whether the shipment carries no line items.
func (s *Shipment) Empty() bool {
	return len(s.Items) == 0
}

// SubtotalCents sums the line item totals for the shipment.
func (s *Shipment) SubtotalCents() int {
	total := 0
	for _, it := range s.Items {
		total += it.TotalCents
	}
	return total
}
