package checkout

import (
	"errors"
	"fmt"

	"github.com/stonebridge/storefront-backend/pkg/enums"
)

// ErrNoBasket is returned by every operation when the session has no active
// basket. The API layer turns it into the cart redirect payload.
var ErrNoBasket = errors.New("no active basket")

// Step names identify the failing precondition inside a stage so the client
// can resume at the right screen.
const (
	StepAddress           = "address"
	StepBillingAddress    = "billingAddress"
	StepPaymentInstrument = "paymentInstrument"
)

const technicalErrorMessage = "a technical error occurred, please try again"

// StageError reports a placement pipeline failure with enough stage/step
// metadata to resume checkout. Technical failures carry an empty stage and
// an opaque message.
type StageError struct {
	Stage   enums.CheckoutStage
	Step    string
	Message string
	cause   error
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return e.Message
	}
	return fmt.Sprintf("%s/%s: %s", e.Stage, e.Step, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.cause
}

// NewStageError builds a stage precondition failure.
func NewStageError(stage enums.CheckoutStage, step, message string) *StageError {
	return &StageError{Stage: stage, Step: step, Message: message}
}

// TechnicalError wraps a downstream failure as an opaque placement error.
// The cause stays available for logging but never reaches the client.
func TechnicalError(err error) *StageError {
	return &StageError{Message: technicalErrorMessage, cause: err}
}
