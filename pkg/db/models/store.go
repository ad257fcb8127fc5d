package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical retail location surfaced by the store locator.
type Store struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Address1    string    `gorm:"column:address1;not null"`
	Address2    *string   `gorm:"column:address2"`
	City        string    `gorm:"column:city;not null"`
	StateCode   string    `gorm:"column:state_code;not null"`
	PostalCode  string    `gorm:"column:postal_code;not null"`
	CountryCode string    `gorm:"column:country_code;not null;default:'US'"`
	Phone       string    `gorm:"column:phone"`
	Latitude    float64   `gorm:"column:latitude;not null"`
	Longitude   float64   `gorm:"column:longitude;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
