package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a registered storefront account.
type Customer struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string            `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash      string            `gorm:"column:password_hash;not null"`
	FirstName         string            `gorm:"column:first_name"`
	LastName          string            `gorm:"column:last_name"`
	Phone             string            `gorm:"column:phone"`
	ResetTokenHash    *string           `gorm:"column:reset_token_hash"`
	ResetTokenExpires *time.Time        `gorm:"column:reset_token_expires"`
	Addresses         []CustomerAddress `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// PreferredAddress returns the customer's preferred address book entry,
// or nil when none is flagged.
func (c *Customer) PreferredAddress() *CustomerAddress {
	for i := range c.Addresses {
		if c.Addresses[i].Preferred {
			return &c.Addresses[i]
		}
	}
	return nil
}

// AddressByID looks up an address book entry by primary key.
func (c *Customer) AddressByID(id uuid.UUID) *CustomerAddress {
	for i := range c.Addresses {
		if c.Addresses[i].ID == id {
			return &c.Addresses[i]
		}
	}
	return nil
}
