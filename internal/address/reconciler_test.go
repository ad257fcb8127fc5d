package address

import (
	"testing"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

func strPtr(s string) *string { return &s }

func sampleAddress() types.Address {
	return types.Address{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address1:    "1 Analytical Way",
		Address2:    strPtr("Suite 2"),
		City:        "London",
		StateCode:   "LN",
		PostalCode:  "EC1",
		CountryCode: "GB",
		Phone:       "555-0100",
	}
}

func TestCopyFieldsIsFullOverwrite(t *testing.T) {
	t.Parallel()

	dst := sampleAddress()
	src := types.Address{FirstName: "Grace", Address1: "2 Navy St"}

	CopyFields(src, &dst)

	if dst.FirstName != "Grace" || dst.Address1 != "2 Navy St" {
		t.Fatalf("copied fields missing: %+v", dst)
	}
	if dst.LastName != "" || dst.City != "" || dst.Phone != "" {
		t.Fatalf("stale fields survived the copy: %+v", dst)
	}
	if dst.Address2 != nil {
		t.Fatalf("empty address2 should clear, got %q", *dst.Address2)
	}
}

func TestApplyShippingAddressCreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	shipment := &models.Shipment{}
	ApplyShippingAddress(sampleAddress(), shipment)

	if shipment.ShippingAddress == nil {
		t.Fatal("shipping address not created")
	}
	if shipment.ShippingAddress.FirstName != "Ada" {
		t.Fatalf("unexpected address %+v", shipment.ShippingAddress)
	}
}

func TestApplyBillingAddressIndependentOfShipments(t *testing.T) {
	t.Parallel()

	basket := &models.Basket{
		Shipments: []models.Shipment{{IsDefault: true}},
	}
	ApplyBillingAddress(basket, sampleAddress())

	if basket.BillingAddress == nil || basket.BillingAddress.City != "London" {
		t.Fatalf("billing address not written: %+v", basket.BillingAddress)
	}

	// mutating the default shipment's address must not touch billing
	def := basket.DefaultShipment()
	ApplyShippingAddress(types.Address{FirstName: "Someone", City: "Paris"}, def)
	if basket.BillingAddress.City != "London" {
		t.Fatal("billing address changed by shipment edit")
	}
}

func TestEquivalent(t *testing.T) {
	t.Parallel()

	a := sampleAddress()
	b := sampleAddress()

	if !Equivalent(&a, &a) {
		t.Fatal("not reflexive")
	}
	if !Equivalent(&a, &b) || !Equivalent(&b, &a) {
		t.Fatal("not symmetric")
	}

	b.PostalCode = "EC2"
	if Equivalent(&a, &b) {
		t.Fatal("postal code difference undetected")
	}

	if !Equivalent(nil, nil) {
		t.Fatal("nil pair should be equivalent")
	}
	zero := types.Address{}
	if !Equivalent(nil, &zero) {
		t.Fatal("nil vs zero address should be equivalent")
	}
	if Equivalent(nil, &a) {
		t.Fatal("nil vs populated address should differ")
	}
}

func TestShippingAddressInitialized(t *testing.T) {
	t.Parallel()

	if ShippingAddressInitialized(nil) {
		t.Fatal("nil basket can't be initialized")
	}

	basket := &models.Basket{Shipments: []models.Shipment{{IsDefault: true}}}
	if ShippingAddressInitialized(basket) {
		t.Fatal("shipment without address reported initialized")
	}

	addr := sampleAddress()
	basket.Shipments[0].ShippingAddress = &addr
	if !ShippingAddressInitialized(basket) {
		t.Fatal("populated default shipment not reported initialized")
	}
}

func TestSeedFromAddressBook(t *testing.T) {
	t.Parallel()

	basket := &models.Basket{Shipments: []models.Shipment{{IsDefault: true}}}
	customer := &models.Customer{
		Addresses: []models.CustomerAddress{
			{Address: types.Address{FirstName: "Alt", City: "Leeds"}},
			{Address: sampleAddress(), Preferred: true},
		},
	}

	SeedFromAddressBook(basket, customer)

	def := basket.DefaultShipment()
	if def.ShippingAddress == nil || def.ShippingAddress.City != "London" {
		t.Fatalf("preferred address not seeded onto shipment: %+v", def.ShippingAddress)
	}
	if basket.BillingAddress == nil || basket.BillingAddress.City != "London" {
		t.Fatalf("preferred address not seeded onto billing: %+v", basket.BillingAddress)
	}

	// a basket that already has addresses keeps them
	existing := types.Address{FirstName: "Keep", City: "York"}
	basket2 := &models.Basket{
		BillingAddress: &existing,
		Shipments:      []models.Shipment{{IsDefault: true, ShippingAddress: &existing}},
	}
	SeedFromAddressBook(basket2, customer)
	if basket2.BillingAddress.City != "York" || basket2.Shipments[0].ShippingAddress.City != "York" {
		t.Fatal("existing addresses were overwritten by seed")
	}
}
