package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/enums"
)

// PaymentInstrument records a tender applied to a basket. Card numbers
// are stored masked; the raw PAN never reaches the database.
type PaymentInstrument struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BasketID         uuid.UUID             `gorm:"column:basket_id;type:uuid;not null"`
	MethodID         enums.PaymentMethodID `gorm:"column:method_id;not null"`
	MaskedCardNumber string                `gorm:"column:masked_card_number"`
	CardType         string                `gorm:"column:card_type"`
	CardholderName   string                `gorm:"column:cardholder_name"`
	ExpirationMonth  int                   `gorm:"column:expiration_month"`
	ExpirationYear   int                   `gorm:"column:expiration_year"`
	AmountCents      int                   `gorm:"column:amount_cents;not null"`
	TransactionID    *string               `gorm:"column:transaction_id"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
