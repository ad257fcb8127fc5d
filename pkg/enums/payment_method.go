package enums

import "fmt"

// PaymentMethodID identifies a customer-facing payment method. Methods map to
// processors in the payment dispatcher configuration; a method without a
// processor is a deployment error, not user input.
type PaymentMethodID string

const (
	PaymentMethodCreditCard      PaymentMethodID = "CREDIT_CARD"
	PaymentMethodGiftCertificate PaymentMethodID = "GIFT_CERTIFICATE"
)

var validPaymentMethods = []PaymentMethodID{
	PaymentMethodCreditCard,
	PaymentMethodGiftCertificate,
}

// String implements fmt.Stringer.
func (p PaymentMethodID) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethodID.
func (p PaymentMethodID) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodID converts raw input into a PaymentMethodID.
func ParsePaymentMethodID(value string) (PaymentMethodID, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
