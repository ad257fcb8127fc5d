package shipping

import (
	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
)

// Manager mutates the shipment structure of a basket aggregate. All
// operations work in memory; the caller persists the aggregate afterwards.
type Manager struct {
	defaultMethodID string
}

// NewManager builds a shipment manager with the configured fallback method.
func NewManager(cfg config.CheckoutConfig) *Manager {
	return &Manager{defaultMethodID: cfg.DefaultShippingMethodID}
}

// Create appends a fresh, empty, non-default shipment to the basket and
// returns it.
func (m *Manager) Create(basket *models.Basket) (*models.Shipment, error) {
	if basket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no active basket")
	}
	if basket.Status != enums.BasketStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "basket is not active")
	}

	shipment := models.Shipment{
		ID:       uuid.New(),
		BasketID: basket.ID,
	}
	basket.Shipments = append(basket.Shipments, shipment)
	return &basket.Shipments[len(basket.Shipments)-1], nil
}

// ByUUID finds a shipment on the basket, nil when absent. Callers branch on
// the nil rather than handling an error.
func ByUUID(basket *models.Basket, id uuid.UUID) *models.Shipment {
	if basket == nil {
		return nil
	}
	return basket.ShipmentByID(id)
}

// AssignLineItem moves a line item to the target shipment. Only the
// attachment changes; the item itself is untouched.
func AssignLineItem(basket *models.Basket, itemID, targetID uuid.UUID) error {
	if basket == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no active basket")
	}
	target := basket.ShipmentByID(targetID)
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "target shipment not found")
	}

	for si := range basket.Shipments {
		source := &basket.Shipments[si]
		for li := range source.Items {
			if source.Items[li].ID != itemID {
				continue
			}
			if source.ID == target.ID {
				return nil
			}
			item := source.Items[li]
			source.Items = append(source.Items[:li], source.Items[li+1:]...)
			item.ShipmentID = target.ID
			target.Items = append(target.Items, item)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
}

// PruneEmpty deletes empty non-default shipments. Runs after every
// reassignment so the basket never carries hollow shipments.
func PruneEmpty(basket *models.Basket) {
	if basket == nil {
		return
	}
	kept := basket.Shipments[:0]
	for _, s := range basket.Shipments {
		if !s.IsDefault && len(s.Items) == 0 {
			continue
		}
		kept = append(kept, s)
	}
	basket.Shipments = kept
}

// EnsureMethod assigns a shipping method when the shipment has none or
// references one that no longer applies. Preference order: the configured
// default, the method table's own default, the cheapest.
func (m *Manager) EnsureMethod(shipment *models.Shipment, methods []models.ShippingMethod) {
	if shipment == nil || len(methods) == 0 {
		return
	}
	if shipment.ShippingMethodID != nil {
		for _, method := range methods {
			if method.ID == *shipment.ShippingMethodID {
				return
			}
		}
	}

	var tableDefault, cheapest *models.ShippingMethod
	for i := range methods {
		method := &methods[i]
		if method.ID == m.defaultMethodID {
			id := method.ID
			shipment.ShippingMethodID = &id
			return
		}
		if method.IsDefault && tableDefault == nil {
			tableDefault = method
		}
		if cheapest == nil || method.CostCents < cheapest.CostCents {
			cheapest = method
		}
	}

	pick := tableDefault
	if pick == nil {
		pick = cheapest
	}
	id := pick.ID
	shipment.ShippingMethodID = &id
}

// FillEmptyDefault refills an emptied default shipment from the next
// shipment carrying items, then deletes that shipment. The default must
// never sit empty while other shipments hold items.
func FillEmptyDefault(basket *models.Basket) {
	if basket == nil {
		return
	}
	def := basket.DefaultShipment()
	if def == nil || len(def.Items) > 0 {
		return
	}
	for i := range basket.Shipments {
		s := &basket.Shipments[i]
		if !s.IsDefault && len(s.Items) > 0 {
			_ = MergeIntoDefault(basket, s.ID)
			return
		}
	}
}

// MergeIntoDefault migrates the shipment's items into the default shipment,
// then deletes it. The default shipment itself can never be merged away.
func MergeIntoDefault(basket *models.Basket, shipmentID uuid.UUID) error {
	if basket == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no active basket")
	}
	source := basket.ShipmentByID(shipmentID)
	if source == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	if source.IsDefault {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "default shipment cannot be merged away")
	}
	def := basket.DefaultShipment()
	if def == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "basket has no default shipment")
	}

	for _, item := range source.Items {
		item.ShipmentID = def.ID
		def.Items = append(def.Items, item)
	}
	source.Items = nil

	kept := basket.Shipments[:0]
	for _, s := range basket.Shipments {
		if s.ID == shipmentID {
			continue
		}
		kept = append(kept, s)
	}
	basket.Shipments = kept
	return nil
}
