package controllers

import (
	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// OrderView is the storefront-facing basket shape shared by every checkout
// response.
type OrderView struct {
	BasketID           uuid.UUID        `json:"basketId"`
	UsingMultiShipping bool             `json:"usingMultiShipping"`
	CustomerEmail      string           `json:"customerEmail,omitempty"`
	Shipping           []ShipmentView   `json:"shipping"`
	BillingAddress     *types.Address   `json:"billingAddress,omitempty"`
	PaymentInstruments []InstrumentView `json:"paymentInstruments"`
	Totals             TotalsView       `json:"totals"`
}

type ShipmentView struct {
	UUID             uuid.UUID      `json:"uuid"`
	Default          bool           `json:"default"`
	ShippingMethodID *string        `json:"selectedShippingMethod,omitempty"`
	ShippingAddress  *types.Address `json:"shippingAddress,omitempty"`
	ShippingCents    int            `json:"shippingCents"`
	Items            []LineItemView `json:"productLineItems"`
}

type LineItemView struct {
	UUID           uuid.UUID `json:"uuid"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unitPriceCents"`
	TotalCents     int       `json:"totalCents"`
}

type InstrumentView struct {
	PaymentMethod    string `json:"paymentMethod"`
	MaskedCardNumber string `json:"maskedCardNumber,omitempty"`
	CardType         string `json:"cardType,omitempty"`
	AmountCents      int    `json:"amountCents"`
}

type TotalsView struct {
	SubtotalCents int `json:"subtotalCents"`
	ShippingCents int `json:"shippingCents"`
	TaxCents      int `json:"taxCents"`
	GrandTotal    int `json:"grandTotalCents"`
}

type ShippingMethodView struct {
	ID            string `json:"ID"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description,omitempty"`
	CostCents     int    `json:"costCents"`
	EstimatedDays int    `json:"estimatedArrivalDays,omitempty"`
	StorePickup   bool   `json:"storePickupEnabled"`
	Default       bool   `json:"default"`
}

func orderViewFrom(b *models.Basket) OrderView {
	view := OrderView{
		BasketID:           b.ID,
		UsingMultiShipping: b.MultiShip,
		CustomerEmail:      b.CustomerEmail,
		BillingAddress:     b.BillingAddress,
		Shipping:           make([]ShipmentView, 0, len(b.Shipments)),
		PaymentInstruments: make([]InstrumentView, 0, len(b.Instruments)),
		Totals: TotalsView{
			SubtotalCents: b.SubtotalCents,
			ShippingCents: b.ShippingCents,
			TaxCents:      b.TaxCents,
			GrandTotal:    b.TotalCents,
		},
	}
	for i := range b.Shipments {
		view.Shipping = append(view.Shipping, shipmentViewFrom(&b.Shipments[i]))
	}
	for _, inst := range b.Instruments {
		view.PaymentInstruments = append(view.PaymentInstruments, InstrumentView{
			PaymentMethod:    inst.MethodID.String(),
			MaskedCardNumber: inst.MaskedCardNumber,
			CardType:         inst.CardType,
			AmountCents:      inst.AmountCents,
		})
	}
	return view
}

func shipmentViewFrom(s *models.Shipment) ShipmentView {
	view := ShipmentView{
		UUID:             s.ID,
		Default:          s.IsDefault,
		ShippingMethodID: s.ShippingMethodID,
		ShippingAddress:  s.ShippingAddress,
		ShippingCents:    s.ShippingCents,
		Items:            make([]LineItemView, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		view.Items = append(view.Items, LineItemView{
			UUID:           it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Qty,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     it.TotalCents,
		})
	}
	return view
}

func methodViewsFrom(methods []models.ShippingMethod) []ShippingMethodView {
	views := make([]ShippingMethodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, ShippingMethodView{
			ID:            m.ID,
			DisplayName:   m.DisplayName,
			Description:   m.Description,
			CostCents:     m.CostCents,
			EstimatedDays: m.EstimatedDays,
			StorePickup:   m.StorePickup,
			Default:       m.IsDefault,
		})
	}
	return views
}
