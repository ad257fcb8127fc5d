package address

import (
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// CopyFields overwrites every field of dst with the corresponding field of
// src. Empty source fields clear the destination; nothing survives the copy.
func CopyFields(src types.Address, dst *types.Address) {
	if dst == nil {
		return
	}
	*dst = src.Normalized()
}

// ApplyShippingAddress writes the submitted address onto the shipment,
// creating the address when the shipment has none yet.
func ApplyShippingAddress(form types.Address, shipment *models.Shipment) {
	if shipment == nil {
		return
	}
	if shipment.ShippingAddress == nil {
		shipment.ShippingAddress = &types.Address{}
	}
	CopyFields(form, shipment.ShippingAddress)
}

// ApplyBillingAddress writes the source address onto the basket's billing
// address, creating it when absent. Billing is its own record; later shipment
// edits never bleed into it.
func ApplyBillingAddress(basket *models.Basket, src types.Address) {
	if basket == nil {
		return
	}
	if basket.BillingAddress == nil {
		basket.BillingAddress = &types.Address{}
	}
	CopyFields(src, basket.BillingAddress)
}

// Equivalent reports field-wise equality of two addresses. Nil compares
// equal only to nil or a zero address.
func Equivalent(a, b *types.Address) bool {
	if a == nil || b == nil {
		return addrOrZero(a).IsZero() && addrOrZero(b).IsZero()
	}
	an, bn := a.Normalized(), b.Normalized()
	return an.FirstName == bn.FirstName &&
		an.LastName == bn.LastName &&
		an.Address1 == bn.Address1 &&
		strOrEmpty(an.Address2) == strOrEmpty(bn.Address2) &&
		an.City == bn.City &&
		an.StateCode == bn.StateCode &&
		an.PostalCode == bn.PostalCode &&
		an.CountryCode == bn.CountryCode &&
		an.Phone == bn.Phone
}

// ShippingAddressInitialized reports whether the basket's default shipment
// carries an address.
func ShippingAddressInitialized(basket *models.Basket) bool {
	if basket == nil {
		return false
	}
	def := basket.DefaultShipment()
	return def != nil && def.ShippingAddress != nil && !def.ShippingAddress.IsZero()
}

// SeedFromAddressBook fills missing shipping and billing addresses from the
// customer's preferred address book entry. Existing addresses are left alone.
func SeedFromAddressBook(basket *models.Basket, customer *models.Customer) {
	if basket == nil || customer == nil {
		return
	}
	preferred := customer.PreferredAddress()
	if preferred == nil {
		return
	}

	if def := basket.DefaultShipment(); def != nil && (def.ShippingAddress == nil || def.ShippingAddress.IsZero()) {
		ApplyShippingAddress(preferred.Address, def)
	}
	if basket.BillingAddress == nil || basket.BillingAddress.IsZero() {
		ApplyBillingAddress(basket, preferred.Address)
	}
}

func addrOrZero(a *types.Address) types.Address {
	if a == nil {
		return types.Address{}
	}
	return *a
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
