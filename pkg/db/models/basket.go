package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/enums"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// Basket is the mutable pre-order cart owned by one customer session. Every
// line item belongs to exactly one of its shipments, and exactly one shipment
// carries the default flag.
type Basket struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	CustomerEmail  string              `gorm:"column:customer_email"`
	Status         enums.BasketStatus  `gorm:"column:status;not null;default:'active'"`
	MultiShip      bool                `gorm:"column:multi_ship;not null;default:false"`
	BillingAddress *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	SubtotalCents  int                 `gorm:"column:subtotal_cents;not null;default:0"`
	ShippingCents  int                 `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents       int                 `gorm:"column:tax_cents;not null;default:0"`
	TotalCents     int                 `gorm:"column:total_cents;not null;default:0"`
	Shipments      []Shipment          `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	Instruments    []PaymentInstrument `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// DefaultShipment returns the shipment flagged as default, or nil when the
// basket is malformed.
func (b *Basket) DefaultShipment() *Shipment {
	if b == nil {
		return nil
	}
	for i := range b.Shipments {
		if b.Shipments[i].IsDefault {
			return &b.Shipments[i]
		}
	}
	return nil
}

// ShipmentByID returns the shipment with the given id, or nil.
func (b *Basket) ShipmentByID(id uuid.UUID) *Shipment {
	if b == nil {
		return nil
	}
	for i := range b.Shipments {
		if b.Shipments[i].ID == id {
			return &b.Shipments[i]
		}
	}
	return nil
}

// LineItemByID scans every shipment for the line item, or nil.
func (b *Basket) LineItemByID(id uuid.UUID) *LineItem {
	if b == nil {
		return nil
	}
	for i := range b.Shipments {
		for j := range b.Shipments[i].Items {
			if b.Shipments[i].Items[j].ID == id {
				return &b.Shipments[i].Items[j]
			}
		}
	}
	return nil
}

// LineItems returns all line items across shipments in shipment order.
func (b *Basket) LineItems() []LineItem {
	if b == nil {
		return nil
	}
	var items []LineItem
	for i := range b.Shipments {
		items = append(items, b.Shipments[i].Items...)
	}
	return items
}
