package enums

import "fmt"

// ShipmentValidity is the per-shipment tag stored in the session validity
// cache. A shipment with no entry is treated as not yet validated, which
// blocks advancing to payment the same way an invalid entry does.
type ShipmentValidity string

const (
	ShipmentValid   ShipmentValidity = "valid"
	ShipmentInvalid ShipmentValidity = "invalid"
)

var validShipmentValidities = []ShipmentValidity{
	ShipmentValid,
	ShipmentInvalid,
}

// String implements fmt.Stringer.
func (s ShipmentValidity) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentValidity.
func (s ShipmentValidity) IsValid() bool {
	for _, candidate := range validShipmentValidities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentValidity converts raw input into a ShipmentValidity.
func ParseShipmentValidity(value string) (ShipmentValidity, error) {
	for _, candidate := range validShipmentValidities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment validity %q", value)
}
