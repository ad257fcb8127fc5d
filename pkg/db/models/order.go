package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/enums"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// Order is the immutable snapshot produced from a basket at checkout.
// Creation freezes line items, addresses and totals; placement flips the
// status exactly once.
type Order struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      int64              `gorm:"column:order_number;not null;uniqueIndex"`
	BasketID         uuid.UUID          `gorm:"column:basket_id;type:uuid;not null"`
	CustomerID       *uuid.UUID         `gorm:"column:customer_id;type:uuid"`
	CustomerEmail    string             `gorm:"column:customer_email;not null"`
	Status           enums.OrderStatus  `gorm:"column:status;not null;default:'created'"`
	ShippingAddress  *types.Address     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress   *types.Address     `gorm:"column:billing_address;type:jsonb;serializer:json"`
	PaymentMethodID  *string            `gorm:"column:payment_method_id"`
	MaskedCardNumber *string            `gorm:"column:masked_card_number"`
	SubtotalCents    int                `gorm:"column:subtotal_cents;not null"`
	ShippingCents    int                `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents         int                `gorm:"column:tax_cents;not null;default:0"`
	TotalCents       int                `gorm:"column:total_cents;not null"`
	FailureReason    *string            `gorm:"column:failure_reason"`
	Items            []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt         *time.Time         `gorm:"column:placed_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
