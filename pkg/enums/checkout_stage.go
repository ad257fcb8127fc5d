package enums

import "fmt"

// CheckoutStage names the screens of the checkout flow. Stage requests come
// from the client; the orchestrator validates preconditions per stage rather
// than walking the sequence automatically.
type CheckoutStage string

const (
	CheckoutStageLogin    CheckoutStage = "login"
	CheckoutStageShipping CheckoutStage = "shipping"
	CheckoutStagePayment  CheckoutStage = "payment"
	CheckoutStageReview   CheckoutStage = "review"
	CheckoutStagePlaced   CheckoutStage = "placed"
)

var validCheckoutStages = []CheckoutStage{
	CheckoutStageLogin,
	CheckoutStageShipping,
	CheckoutStagePayment,
	CheckoutStageReview,
	CheckoutStagePlaced,
}

// String implements fmt.Stringer.
func (c CheckoutStage) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStage.
func (c CheckoutStage) IsValid() bool {
	for _, candidate := range validCheckoutStages {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStage converts raw input into a CheckoutStage, defaulting to
// shipping for empty input the way the checkout entry point does.
func ParseCheckoutStage(value string) (CheckoutStage, error) {
	if value == "" {
		return CheckoutStageShipping, nil
	}
	for _, candidate := range validCheckoutStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout stage %q", value)
}
