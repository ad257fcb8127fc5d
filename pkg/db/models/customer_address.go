package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/types"
)

// CustomerAddress is an address book entry owned by a customer.
type CustomerAddress struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID     `gorm:"column:customer_id;type:uuid;not null"`
	Address    types.Address `gorm:"column:address;type:jsonb;serializer:json;not null"`
	Preferred  bool          `gorm:"column:preferred;not null;default:false"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
