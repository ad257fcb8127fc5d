package checkout

import (
	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/internal/payment"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// ShippingSubmission is the shipping stage form. Selector carries the raw
// shipment selector string; it is decoded once into a shipping.Intent.
type ShippingSubmission struct {
	Selector           string
	OriginalShipmentID *uuid.UUID
	ProductLineItemID  *uuid.UUID
	Address            types.Address
	MethodID           string
}

// ShippingResult reports the outcome of a shipping submission. A non-empty
// FieldErrors map means validation failed and no state advanced.
type ShippingResult struct {
	FieldErrors map[string]string
	Basket      *models.Basket
	ShipmentID  uuid.UUID
	AllValid    bool
}

// PaymentSubmission is the combined billing + payment form.
type PaymentSubmission struct {
	Billing              types.Address
	UseShippingAsBilling bool
	Email                string
	Payment              payment.Submission
}

// PaymentResult reports the outcome of a payment submission. Field and
// server errors from the billing form and the payment handler are combined.
type PaymentResult struct {
	FieldErrors  map[string]string
	ServerErrors []string
	Basket       *models.Basket
}

// HasErrors reports whether the submission was rejected.
func (r *PaymentResult) HasErrors() bool {
	return len(r.FieldErrors) > 0 || len(r.ServerErrors) > 0
}

// PlacementResult is the success payload of the place-order pipeline.
type PlacementResult struct {
	OrderID     uuid.UUID
	OrderNumber int64
	ContinueURL string
}

// StartView is the checkout entry payload.
type StartView struct {
	Basket  *models.Basket
	Methods []models.ShippingMethod
	Stage   enums.CheckoutStage
}
