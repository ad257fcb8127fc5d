package shipping

import (
	"testing"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func activeBasket() *models.Basket {
	basketID := uuid.New()
	defID := uuid.New()
	itemA := models.LineItem{ID: uuid.New(), BasketID: basketID, ShipmentID: defID, ProductID: "sku-a", Qty: 1, UnitPriceCents: 1000}
	itemB := models.LineItem{ID: uuid.New(), BasketID: basketID, ShipmentID: defID, ProductID: "sku-b", Qty: 2, UnitPriceCents: 500}
	return &models.Basket{
		ID:     basketID,
		Status: enums.BasketStatusActive,
		Shipments: []models.Shipment{
			{ID: defID, BasketID: basketID, IsDefault: true, Items: []models.LineItem{itemA, itemB}},
		},
	}
}

func TestCreateShipment(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{DefaultShippingMethodID: "ground"})
	basket := activeBasket()

	shipment, err := mgr.Create(basket)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if shipment.IsDefault {
		t.Fatal("new shipment must not be default")
	}
	if len(shipment.Items) != 0 {
		t.Fatal("new shipment must start empty")
	}
	if len(basket.Shipments) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(basket.Shipments))
	}
}

func TestCreateRequiresActiveBasket(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{})

	if _, err := mgr.Create(nil); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for nil basket, got %v", err)
	}

	converted := activeBasket()
	converted.Status = enums.BasketStatusConverted
	if _, err := mgr.Create(converted); err == nil {
		t.Fatal("expected error for converted basket")
	}
}

func TestByUUIDNilForUnknown(t *testing.T) {
	t.Parallel()

	basket := activeBasket()
	if got := ByUUID(basket, basket.Shipments[0].ID); got == nil {
		t.Fatal("known shipment not found")
	}
	if got := ByUUID(basket, uuid.New()); got != nil {
		t.Fatal("unknown shipment should yield nil")
	}
}

func TestAssignLineItemMovesAttachmentOnly(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{})
	basket := activeBasket()
	itemID := basket.Shipments[0].Items[0].ID

	shipment, err := mgr.Create(basket)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	targetID := shipment.ID

	if err := AssignLineItem(basket, itemID, targetID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	def := basket.DefaultShipment()
	if len(def.Items) != 1 {
		t.Fatalf("expected 1 item left on default, got %d", len(def.Items))
	}
	target := basket.ShipmentByID(targetID)
	if len(target.Items) != 1 {
		t.Fatalf("expected 1 item on target, got %d", len(target.Items))
	}
	moved := target.Items[0]
	if moved.ID != itemID || moved.ShipmentID != targetID {
		t.Fatalf("item attachment wrong: %+v", moved)
	}
	if moved.ProductID != "sku-a" || moved.UnitPriceCents != 1000 {
		t.Fatalf("item payload changed during move: %+v", moved)
	}
}

func TestAssignLineItemSameShipmentIsNoop(t *testing.T) {
	t.Parallel()

	basket := activeBasket()
	def := basket.DefaultShipment()
	if err := AssignLineItem(basket, def.Items[0].ID, def.ID); err != nil {
		t.Fatalf("assign to same shipment: %v", err)
	}
	if len(def.Items) != 2 {
		t.Fatalf("items changed on noop move: %d", len(def.Items))
	}
}

func TestAssignLineItemErrors(t *testing.T) {
	t.Parallel()

	basket := activeBasket()
	if err := AssignLineItem(basket, uuid.New(), basket.Shipments[0].ID); err == nil {
		t.Fatal("expected error for unknown item")
	}
	if err := AssignLineItem(basket, basket.Shipments[0].Items[0].ID, uuid.New()); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestPruneEmptyKeepsDefault(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{})
	basket := activeBasket()
	if _, err := mgr.Create(basket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mgr.Create(basket); err != nil {
		t.Fatalf("create: %v", err)
	}

	// empty the default too; prune must still keep it
	def := basket.DefaultShipment()
	def.Items = nil

	PruneEmpty(basket)

	if len(basket.Shipments) != 1 {
		t.Fatalf("expected only default to survive, got %d", len(basket.Shipments))
	}
	if !basket.Shipments[0].IsDefault {
		t.Fatal("surviving shipment is not the default")
	}
}

func TestEnsureMethod(t *testing.T) {
	t.Parallel()

	methods := []models.ShippingMethod{
		{ID: "overnight", CostCents: 1999},
		{ID: "ground", CostCents: 599, IsDefault: true},
		{ID: "economy", CostCents: 299},
	}

	mgr := NewManager(config.CheckoutConfig{DefaultShippingMethodID: "ground"})

	s := &models.Shipment{}
	mgr.EnsureMethod(s, methods)
	if s.ShippingMethodID == nil || *s.ShippingMethodID != "ground" {
		t.Fatalf("expected configured default, got %v", s.ShippingMethodID)
	}

	// an already valid selection is left alone
	s = &models.Shipment{ShippingMethodID: strPtr("overnight")}
	mgr.EnsureMethod(s, methods)
	if *s.ShippingMethodID != "overnight" {
		t.Fatalf("valid selection replaced: %v", *s.ShippingMethodID)
	}

	// a stale selection is re-derived
	s = &models.Shipment{ShippingMethodID: strPtr("discontinued")}
	mgr.EnsureMethod(s, methods)
	if *s.ShippingMethodID != "ground" {
		t.Fatalf("stale selection not re-derived: %v", *s.ShippingMethodID)
	}

	// without the configured default, fall back to the cheapest
	mgr = NewManager(config.CheckoutConfig{DefaultShippingMethodID: "missing"})
	s = &models.Shipment{}
	mgr.EnsureMethod(s, []models.ShippingMethod{
		{ID: "overnight", CostCents: 1999},
		{ID: "economy", CostCents: 299},
	})
	if *s.ShippingMethodID != "economy" {
		t.Fatalf("expected cheapest fallback, got %v", *s.ShippingMethodID)
	}
}

func TestMergeIntoDefault(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{})
	basket := activeBasket()
	itemID := basket.Shipments[0].Items[0].ID

	shipment, err := mgr.Create(basket)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	extraID := shipment.ID
	if err := AssignLineItem(basket, itemID, extraID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := MergeIntoDefault(basket, extraID); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if len(basket.Shipments) != 1 {
		t.Fatalf("merged shipment not deleted, %d remain", len(basket.Shipments))
	}
	def := basket.DefaultShipment()
	if len(def.Items) != 2 {
		t.Fatalf("expected both items back on default, got %d", len(def.Items))
	}
	for _, item := range def.Items {
		if item.ShipmentID != def.ID {
			t.Fatalf("item %s still attached to %s", item.ID, item.ShipmentID)
		}
	}
}

func TestMergeIntoDefaultRefusesDefault(t *testing.T) {
	t.Parallel()

	basket := activeBasket()
	err := MergeIntoDefault(basket, basket.Shipments[0].ID)
	if perr := pkgerrors.As(err); perr == nil || perr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestFillEmptyDefaultFoldsNextShipmentIn(t *testing.T) {
	t.Parallel()

	mgr := NewManager(config.CheckoutConfig{})
	basket := activeBasket()
	def := basket.DefaultShipment()
	ids := make([]uuid.UUID, 0, len(def.Items))
	for _, item := range def.Items {
		ids = append(ids, item.ID)
	}

	shipment, err := mgr.Create(basket)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	extraID := shipment.ID
	for _, id := range ids {
		if err := AssignLineItem(basket, id, extraID); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	FillEmptyDefault(basket)

	if len(basket.Shipments) != 1 {
		t.Fatalf("expected the extra shipment folded away, %d remain", len(basket.Shipments))
	}
	def = basket.DefaultShipment()
	if def == nil || len(def.Items) != 2 {
		t.Fatalf("expected both items back on default")
	}
	for _, item := range def.Items {
		if item.ShipmentID != def.ID {
			t.Fatalf("item %s still attached to %s", item.ID, item.ShipmentID)
		}
	}
}

func TestFillEmptyDefaultNoopWhenPopulated(t *testing.T) {
	t.Parallel()

	basket := activeBasket()
	FillEmptyDefault(basket)
	if len(basket.Shipments) != 1 || len(basket.DefaultShipment().Items) != 2 {
		t.Fatal("populated default should be left alone")
	}
}
