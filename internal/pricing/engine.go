package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

// Engine recomputes basket totals after every checkout mutation. The
// calculation is deterministic over basket state so repeated runs settle
// on the same numbers.
type Engine interface {
	Calculate(basket *models.Basket, methods []models.ShippingMethod) error
}

type engine struct {
	taxRate decimal.Decimal
}

// NewEngine builds the default calculator with the configured flat tax rate.
func NewEngine(cfg config.PricingConfig) (Engine, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("parsing tax rate %q: %w", cfg.TaxRate, err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &engine{taxRate: rate}, nil
}

// Calculate refreshes line totals, per-shipment shipping cost, tax and the
// basket grand total in place.
func (e *engine) Calculate(basket *models.Basket, methods []models.ShippingMethod) error {
	if basket == nil {
		return fmt.Errorf("basket is required")
	}

	costByMethod := make(map[string]int, len(methods))
	for _, m := range methods {
		costByMethod[m.ID] = m.CostCents
	}

	subtotal := 0
	shipping := 0
	for si := range basket.Shipments {
		shipment := &basket.Shipments[si]
		for li := range shipment.Items {
			item := &shipment.Items[li]
			item.TotalCents = item.UnitPriceCents * item.Qty
			subtotal += item.TotalCents
		}

		shipment.ShippingCents = 0
		if shipment.ShippingMethodID != nil && !shipment.Empty() {
			cost, ok := costByMethod[*shipment.ShippingMethodID]
			if !ok {
				return fmt.Errorf("unknown shipping method %q", *shipment.ShippingMethodID)
			}
			shipment.ShippingCents = cost
		}
		shipping += shipment.ShippingCents
	}

	taxable := decimal.NewFromInt(int64(subtotal + shipping))
	tax := taxable.Mul(e.taxRate).Round(0)

	basket.SubtotalCents = subtotal
	basket.ShippingCents = shipping
	basket.TaxCents = int(tax.IntPart())
	basket.TotalCents = subtotal + shipping + basket.TaxCents
	return nil
}
