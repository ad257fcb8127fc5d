package enums

import "fmt"

// OrderStatus models the order lifecycle from creation through placement.
// Orders are created in OrderStatusCreated, move to OrderStatusPlaced exactly
// once, and land in OrderStatusFailed when payment capture fails after the
// order record already exists.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPlaced  OrderStatus = "placed"
	OrderStatusFailed  OrderStatus = "failed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPlaced,
	OrderStatusFailed,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
