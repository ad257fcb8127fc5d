package payment

import (
	"context"
	"fmt"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
)

// Processor identifiers known to the dispatcher.
const (
	ProcessorBasicCredit     = "basic_credit"
	ProcessorGiftCertificate = "gift_certificate"
)

// Submission carries the transient payment form. Raw card fields live here
// and nowhere else; persistence only ever sees the masked instrument.
type Submission struct {
	MethodID        enums.PaymentMethodID
	CardholderName  string
	CardType        string
	CardNumber      string
	ExpirationMonth int
	ExpirationYear  int
	SecurityCode    string
}

// Result is what a processor handler reports back. Field errors are keyed by
// form field; server errors are display strings. Either being non-empty
// rejects the submission.
type Result struct {
	FieldErrors  map[string]string
	ServerErrors []string
}

// HasErrors reports whether the handler rejected the submission.
func (r Result) HasErrors() bool {
	return len(r.FieldErrors) > 0 || len(r.ServerErrors) > 0
}

// Handler processes one payment submission against the basket.
type Handler interface {
	Handle(ctx context.Context, basket *models.Basket, sub Submission) (Result, error)
}

// Dispatcher routes submissions to the processor registered for the chosen
// payment method.
type Dispatcher struct {
	processors map[enums.PaymentMethodID]string
	handlers   map[string]Handler
	fallback   Handler
}

// NewDispatcher wires the stock method table and the basic credit handler.
// Methods without a registered handler fall through to a no-op handler that
// accepts the submission untouched.
func NewDispatcher(credit Handler) (*Dispatcher, error) {
	if credit == nil {
		return nil, fmt.Errorf("credit handler required")
	}
	return &Dispatcher{
		processors: map[enums.PaymentMethodID]string{
			enums.PaymentMethodCreditCard:      ProcessorBasicCredit,
			enums.PaymentMethodGiftCertificate: ProcessorGiftCertificate,
		},
		handlers: map[string]Handler{
			ProcessorBasicCredit: credit,
		},
		fallback: noopHandler{},
	}, nil
}

// Register binds a handler to a processor id, replacing any existing one.
func (d *Dispatcher) Register(processorID string, h Handler) {
	if processorID == "" || h == nil {
		return
	}
	d.handlers[processorID] = h
}

// Dispatch resolves the processor for the submission's method and runs its
// handler. A method with no processor entry is a server configuration
// problem, not a user input problem.
func (d *Dispatcher) Dispatch(ctx context.Context, basket *models.Basket, sub Submission) (Result, error) {
	processorID, ok := d.processors[sub.MethodID]
	if !ok {
		return Result{}, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("no processor configured for payment method %q", sub.MethodID))
	}
	handler, ok := d.handlers[processorID]
	if !ok {
		handler = d.fallback
	}
	return handler.Handle(ctx, basket, sub)
}

// noopHandler accepts any submission without touching the basket.
type noopHandler struct{}

func (noopHandler) Handle(context.Context, *models.Basket, Submission) (Result, error) {
	return Result{}, nil
}
