package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
)

// CreditHandler is the stock credit card processor. It validates the card,
// masks the number, and swaps the basket's payment instruments for a single
// credit instrument covering the basket total.
type CreditHandler struct {
	now func() time.Time
}

// NewCreditHandler builds the handler with a wall clock.
func NewCreditHandler() *CreditHandler {
	return &CreditHandler{now: time.Now}
}

// Handle validates and applies the credit card submission.
func (h *CreditHandler) Handle(ctx context.Context, basket *models.Basket, sub Submission) (Result, error) {
	fieldErrors := map[string]string{}

	number := strings.ReplaceAll(strings.TrimSpace(sub.CardNumber), " ", "")
	switch {
	case number == "":
		fieldErrors["cardNumber"] = "Card number is required."
	case !isDigits(number) || len(number) < 13 || len(number) > 19:
		fieldErrors["cardNumber"] = "Card number is invalid."
	case !luhnValid(number):
		fieldErrors["cardNumber"] = "Card number is invalid."
	}

	if strings.TrimSpace(sub.CardType) == "" {
		fieldErrors["cardType"] = "Card type is required."
	}

	now := h.now()
	if sub.ExpirationMonth < 1 || sub.ExpirationMonth > 12 {
		fieldErrors["expirationMonth"] = "Expiration month is invalid."
	}
	if sub.ExpirationYear < now.Year() {
		fieldErrors["expirationYear"] = "Expiration year is invalid."
	} else if sub.ExpirationYear == now.Year() && sub.ExpirationMonth >= 1 && sub.ExpirationMonth <= 12 && time.Month(sub.ExpirationMonth) < now.Month() {
		fieldErrors["expirationMonth"] = "Card is expired."
	}

	code := strings.TrimSpace(sub.SecurityCode)
	if code == "" {
		fieldErrors["securityCode"] = "Security code is required."
	} else if !isDigits(code) || len(code) < 3 || len(code) > 4 {
		fieldErrors["securityCode"] = "Security code is invalid."
	}

	if len(fieldErrors) > 0 {
		return Result{FieldErrors: fieldErrors}, nil
	}

	basket.Instruments = []models.PaymentInstrument{{
		ID:               uuid.New(),
		BasketID:         basket.ID,
		MethodID:         enums.PaymentMethodCreditCard,
		MaskedCardNumber: MaskCardNumber(number),
		CardType:         strings.TrimSpace(sub.CardType),
		CardholderName:   strings.TrimSpace(sub.CardholderName),
		ExpirationMonth:  sub.ExpirationMonth,
		ExpirationYear:   sub.ExpirationYear,
		AmountCents:      basket.TotalCents,
	}}
	return Result{}, nil
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
