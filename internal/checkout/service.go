package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/internal/address"
	"github.com/stonebridge/storefront-backend/internal/basket"
	"github.com/stonebridge/storefront-backend/internal/orders"
	"github.com/stonebridge/storefront-backend/internal/payment"
	"github.com/stonebridge/storefront-backend/internal/pricing"
	"github.com/stonebridge/storefront-backend/internal/shipping"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
	"github.com/stonebridge/storefront-backend/pkg/logger"
	"github.com/stonebridge/storefront-backend/pkg/metrics"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// Service is the checkout stage orchestrator. Every operation loads the
// basket, mutates it through the shipping and address components, reprices,
// and persists the result inside one transaction.
type Service interface {
	Start(ctx context.Context, basketID uuid.UUID, customer *models.Customer, stage enums.CheckoutStage) (*StartView, error)
	ToggleMultiShip(ctx context.Context, basketID uuid.UUID, on bool) (*models.Basket, error)
	SelectShippingMethod(ctx context.Context, basketID uuid.UUID, selector, methodID string, addr *types.Address) (*models.Basket, error)
	UpdateShippingMethods(ctx context.Context, basketID uuid.UUID, selector string, addr *types.Address) (*models.Basket, []models.ShippingMethod, error)
	CreateShipmentForItem(ctx context.Context, basketID, itemID uuid.UUID) (*models.Basket, uuid.UUID, error)
	SubmitShipping(ctx context.Context, basketID uuid.UUID, customer *models.Customer, sub ShippingSubmission) (*ShippingResult, error)
	SubmitPayment(ctx context.Context, basketID uuid.UUID, sub PaymentSubmission) (*PaymentResult, error)
	PlaceOrder(ctx context.Context, basketID uuid.UUID) (*PlacementResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentDispatcher interface {
	Dispatch(ctx context.Context, basket *models.Basket, sub payment.Submission) (payment.Result, error)
}

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, email string, orderNumber int64) error
}

type service struct {
	baskets    *basket.Repository
	methods    *shipping.MethodRepository
	shipments  *shipping.Manager
	engine     pricing.Engine
	dispatcher paymentDispatcher
	authorizer payment.Authorizer
	orders     orders.Service
	validity   ValidityCache
	confirm    confirmationSender
	tx         txRunner
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
	cfg        config.CheckoutConfig
	validate   *validator.Validate
}

// ServiceParams bundles the orchestrator dependencies.
type ServiceParams struct {
	Baskets    *basket.Repository
	Methods    *shipping.MethodRepository
	Shipments  *shipping.Manager
	Engine     pricing.Engine
	Dispatcher paymentDispatcher
	Authorizer payment.Authorizer
	Orders     orders.Service
	Validity   ValidityCache
	Confirm    confirmationSender
	Tx         txRunner
	Metrics    *metrics.CheckoutMetrics
	Logger     *logger.Logger
	Config     config.CheckoutConfig
}

// NewService constructs the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Baskets == nil {
		return nil, fmt.Errorf("basket repository is required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("shipping method repository is required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipment manager is required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("pricing engine is required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("payment dispatcher is required")
	}
	if params.Authorizer == nil {
		return nil, fmt.Errorf("payment authorizer is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service is required")
	}
	if params.Validity == nil {
		return nil, fmt.Errorf("validity cache is required")
	}
	if params.Confirm == nil {
		return nil, fmt.Errorf("confirmation sender is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		baskets:    params.Baskets,
		methods:    params.Methods,
		shipments:  params.Shipments,
		engine:     params.Engine,
		dispatcher: params.Dispatcher,
		authorizer: params.Authorizer,
		orders:     params.Orders,
		validity:   params.Validity,
		confirm:    params.Confirm,
		tx:         params.Tx,
		metrics:    params.Metrics,
		logg:       params.Logger,
		cfg:        params.Config,
		validate:   validator.New(),
	}, nil
}

// Start prunes empty shipments, seeds addresses for registered customers and
// reprices the basket on checkout entry.
func (s *service) Start(ctx context.Context, basketID uuid.UUID, customer *models.Customer, stage enums.CheckoutStage) (*StartView, error) {
	defer s.observe(enums.CheckoutStageLogin.String(), time.Now())

	var view *StartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}
		shipping.PruneEmpty(b)
		if customer != nil {
			address.SeedFromAddressBook(b, customer)
			if b.CustomerEmail == "" {
				b.CustomerEmail = customer.Email
			}
		}
		for i := range b.Shipments {
			s.shipments.EnsureMethod(&b.Shipments[i], methods)
		}
		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		view = &StartView{Basket: b, Methods: methods, Stage: stage}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ToggleMultiShip flips multi-ship mode. Turning it off merges every
// non-default shipment into the default one, migrate-then-delete.
func (s *service) ToggleMultiShip(ctx context.Context, basketID uuid.UUID, on bool) (*models.Basket, error) {
	defer s.observe(enums.CheckoutStageShipping.String(), time.Now())

	var out *models.Basket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}

		b.MultiShip = on
		if !on {
			for _, sh := range nonDefaultIDs(b) {
				if err := shipping.MergeIntoDefault(b, sh); err != nil {
					return err
				}
			}
		}
		for i := range b.Shipments {
			s.shipments.EnsureMethod(&b.Shipments[i], methods)
		}
		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		out = b
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStageShipping.String())
		return nil, err
	}
	return out, nil
}

// SelectShippingMethod applies a method (and optional address fields) to the
// shipment named by selector, default shipment when the selector is empty.
func (s *service) SelectShippingMethod(ctx context.Context, basketID uuid.UUID, selector, methodID string, addr *types.Address) (*models.Basket, error) {
	defer s.observe(enums.CheckoutStageShipping.String(), time.Now())

	var out *models.Basket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}

		target, err := s.resolveShipment(b, selector)
		if err != nil {
			return err
		}
		if addr != nil {
			address.ApplyShippingAddress(*addr, target)
		}
		if methodID != "" {
			if !methodApplicable(methodID, shipping.ApplicableTo(methods, target)) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
			}
			id := methodID
			target.ShippingMethodID = &id
		}
		s.shipments.EnsureMethod(target, methods)

		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		out = b
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStageShipping.String())
		return nil, err
	}
	return out, nil
}

// UpdateShippingMethods applies submitted address fields and re-derives the
// applicable method list for the shipment, keeping the current selection
// when it remains applicable.
func (s *service) UpdateShippingMethods(ctx context.Context, basketID uuid.UUID, selector string, addr *types.Address) (*models.Basket, []models.ShippingMethod, error) {
	defer s.observe(enums.CheckoutStageShipping.String(), time.Now())

	var out *models.Basket
	var applicable []models.ShippingMethod
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}

		target, err := s.resolveShipment(b, selector)
		if err != nil {
			return err
		}
		if addr != nil {
			address.ApplyShippingAddress(*addr, target)
		}
		applicable = shipping.ApplicableTo(methods, target)
		if target.ShippingMethodID != nil && !methodApplicable(*target.ShippingMethodID, applicable) {
			target.ShippingMethodID = nil
		}
		s.shipments.EnsureMethod(target, methods)

		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		out = b
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStageShipping.String())
		return nil, nil, err
	}
	return out, applicable, nil
}

// CreateShipmentForItem moves a line item onto a fresh shipment.
func (s *service) CreateShipmentForItem(ctx context.Context, basketID, itemID uuid.UUID) (*models.Basket, uuid.UUID, error) {
	defer s.observe(enums.CheckoutStageShipping.String(), time.Now())

	var out *models.Basket
	var shipmentID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}
		if b.LineItemByID(itemID) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}

		created, err := s.shipments.Create(b)
		if err != nil {
			return err
		}
		if err := shipping.AssignLineItem(b, itemID, created.ID); err != nil {
			return err
		}
		shipping.PruneEmpty(b)
		s.shipments.EnsureMethod(created, methods)

		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		out = b
		shipmentID = created.ID
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStageShipping.String())
		return nil, uuid.Nil, err
	}
	return out, shipmentID, nil
}

// addressForm lists the required address fields for both the shipping and
// billing forms.
type addressForm struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	Address1    string `validate:"required"`
	City        string `validate:"required"`
	StateCode   string `validate:"required"`
	PostalCode  string `validate:"required"`
	CountryCode string `validate:"required"`
}

// SubmitShipping is the two-phase shipping stage commit: validate the
// address form first, and only mutate the basket when validation passes.
func (s *service) SubmitShipping(ctx context.Context, basketID uuid.UUID, customer *models.Customer, sub ShippingSubmission) (*ShippingResult, error) {
	defer s.observe(enums.CheckoutStageShipping.String(), time.Now())

	result, err := s.submitShipping(ctx, basketID, customer, sub)
	if err != nil {
		s.fail(enums.CheckoutStageShipping.String())
	}
	return result, err
}

func (s *service) submitShipping(ctx context.Context, basketID uuid.UUID, customer *models.Customer, sub ShippingSubmission) (*ShippingResult, error) {
	fieldErrors := s.validateShippingAddress(sub.Address)
	if len(fieldErrors) > 0 {
		// mark the targeted shipment invalid without touching the basket
		b, err := s.baskets.ByID(ctx, basketID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load basket")
		}
		if b == nil || b.Status != enums.BasketStatusActive {
			return nil, ErrNoBasket
		}
		target := s.validationTarget(b, sub)
		if err := s.validity.Mark(ctx, basketID, target.String(), enums.ShipmentInvalid); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark shipment invalid")
		}
		return &ShippingResult{FieldErrors: fieldErrors, ShipmentID: target}, nil
	}

	var result *ShippingResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}

		target, addr, err := s.commitTarget(b, customer, sub)
		if err != nil {
			return err
		}
		address.ApplyShippingAddress(addr, target)
		if sub.MethodID != "" && methodApplicable(sub.MethodID, shipping.ApplicableTo(methods, target)) {
			id := sub.MethodID
			target.ShippingMethodID = &id
		}
		s.shipments.EnsureMethod(target, methods)
		shipping.PruneEmpty(b)

		if err := s.validity.Mark(ctx, basketID, target.ID.String(), enums.ShipmentValid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark shipment valid")
		}
		allValid, err := s.recomputeAllValid(ctx, b)
		if err != nil {
			return err
		}

		// seed billing so the payment stage starts from something sensible
		if b.BillingAddress == nil {
			if customer != nil {
				address.SeedFromAddressBook(b, customer)
			}
			if b.BillingAddress == nil {
				if def := b.DefaultShipment(); def != nil && def.ShippingAddress != nil {
					address.ApplyBillingAddress(b, *def.ShippingAddress)
				}
			}
		}

		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		result = &ShippingResult{Basket: b, ShipmentID: target.ID, AllValid: allValid}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitPayment validates billing and payment together so the client sees
// every field error at once, then dispatches to the payment processor.
func (s *service) SubmitPayment(ctx context.Context, basketID uuid.UUID, sub PaymentSubmission) (*PaymentResult, error) {
	defer s.observe(enums.CheckoutStagePayment.String(), time.Now())

	var result *PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, methods, err := s.load(ctx, tx, basketID)
		if err != nil {
			return err
		}

		fieldErrors := map[string]string{}
		if !sub.UseShippingAsBilling {
			for field, msg := range s.validateBillingAddress(sub.Billing) {
				fieldErrors["billing."+field] = msg
			}
		}
		if strings.TrimSpace(sub.Email) == "" {
			fieldErrors["email"] = "email is required"
		}

		// payment validation always runs, even when billing failed
		dispatched, err := s.dispatcher.Dispatch(ctx, b, sub.Payment)
		if err != nil {
			return err
		}
		for field, msg := range dispatched.FieldErrors {
			fieldErrors[field] = msg
		}
		if len(fieldErrors) > 0 || len(dispatched.ServerErrors) > 0 {
			result = &PaymentResult{FieldErrors: fieldErrors, ServerErrors: dispatched.ServerErrors}
			return nil
		}

		if sub.UseShippingAsBilling {
			def := b.DefaultShipment()
			if def == nil || def.ShippingAddress == nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no shipping address to bill against")
			}
			if !address.Equivalent(b.BillingAddress, def.ShippingAddress) {
				address.ApplyBillingAddress(b, *def.ShippingAddress)
			}
		} else {
			address.ApplyBillingAddress(b, sub.Billing)
		}
		b.CustomerEmail = strings.TrimSpace(sub.Email)

		if err := s.engine.Calculate(b, methods); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate basket")
		}
		recomputeInstrumentAmounts(b)

		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save basket")
		}
		result = &PaymentResult{Basket: b}
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStagePayment.String())
		return nil, err
	}
	return result, nil
}

// PlaceOrder runs the guarded placement pipeline. Each step short-circuits
// with stage/step metadata; only the last yields the success payload.
func (s *service) PlaceOrder(ctx context.Context, basketID uuid.UUID) (*PlacementResult, error) {
	defer s.observe(enums.CheckoutStagePlaced.String(), time.Now())

	b, err := s.baskets.ByID(ctx, basketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load basket")
	}
	if b == nil || b.Status != enums.BasketStatusActive {
		return nil, ErrNoBasket
	}

	if err := validateBasketIntegrity(b); err != nil {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, err
	}
	def := b.DefaultShipment()
	if def == nil || def.ShippingAddress == nil || def.ShippingAddress.IsZero() {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, NewStageError(enums.CheckoutStageShipping, StepAddress, "shipping address is missing")
	}
	if b.BillingAddress == nil || b.BillingAddress.IsZero() {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, NewStageError(enums.CheckoutStagePayment, StepBillingAddress, "billing address is missing")
	}

	methods, err := s.methods.List(ctx)
	if err != nil {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, TechnicalError(err)
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.engine.Calculate(b, methods); err != nil {
			return TechnicalError(err)
		}
		if err := validateInstruments(b); err != nil {
			return err
		}
		recomputeInstrumentAmounts(b)
		if err := s.baskets.WithTx(tx).Save(ctx, b); err != nil {
			return TechnicalError(err)
		}
		return nil
	})
	if err != nil {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, err
	}

	order, err := s.orders.Create(ctx, b)
	if err != nil {
		s.fail(enums.CheckoutStagePlaced.String())
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeStateConflict {
			// stale basket, already converted by an earlier placement
			return nil, ErrNoBasket
		}
		return nil, TechnicalError(err)
	}

	txnID, err := s.authorizer.Authorize(ctx, order)
	if err != nil {
		// no in-band rollback of the created order: record the failure
		// and let the client restart from a fresh basket
		if failErr := s.orders.Fail(ctx, order, err.Error()); failErr != nil {
			s.logg.Error(ctx, "mark order failed", multierr.Append(err, failErr))
		}
		s.metrics.IncOrderFailed()
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, TechnicalError(err)
	}
	if err := s.orders.RecordTransaction(ctx, b.ID, txnID); err != nil {
		s.logg.Error(ctx, "record payment transaction", err)
	}

	if err := s.orders.Place(ctx, order); err != nil {
		s.fail(enums.CheckoutStagePlaced.String())
		return nil, TechnicalError(err)
	}

	// side effects after placement never fail the response
	if err := s.confirm.SendOrderConfirmation(ctx, order.CustomerEmail, order.OrderNumber); err != nil {
		s.logg.Error(ctx, "send order confirmation", err)
	}
	if err := s.validity.Clear(ctx, b.ID); err != nil {
		s.logg.Error(ctx, "clear validity cache", err)
	}
	s.metrics.IncOrderPlaced()

	return &PlacementResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ContinueURL: s.cfg.ConfirmURL,
	}, nil
}

func (s *service) load(ctx context.Context, tx *gorm.DB, basketID uuid.UUID) (*models.Basket, []models.ShippingMethod, error) {
	b, err := s.baskets.WithTx(tx).ByID(ctx, basketID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load basket")
	}
	if b == nil || b.Status != enums.BasketStatusActive {
		return nil, nil, ErrNoBasket
	}
	methods, err := s.methods.WithTx(tx).List(ctx)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipping methods")
	}
	return b, methods, nil
}

// resolveShipment maps an optional selector to a shipment, the default one
// when the selector is empty.
func (s *service) resolveShipment(b *models.Basket, selector string) (*models.Shipment, error) {
	if strings.TrimSpace(selector) == "" {
		def := b.DefaultShipment()
		if def == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "basket has no default shipment")
		}
		return def, nil
	}
	intent, err := shipping.DecodeIntent(selector)
	if err != nil {
		return nil, err
	}
	if intent.Kind != shipping.UseExisting {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment selector")
	}
	target := shipping.ByUUID(b, intent.ShipmentID)
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return target, nil
}

// validationTarget names the shipment a failed validation should mark
// invalid, without mutating the basket.
func (s *service) validationTarget(b *models.Basket, sub ShippingSubmission) uuid.UUID {
	if strings.TrimSpace(sub.Selector) != "" {
		if intent, err := shipping.DecodeIntent(sub.Selector); err == nil && intent.Kind == shipping.UseExisting {
			return intent.ShipmentID
		}
	}
	if sub.OriginalShipmentID != nil {
		return *sub.OriginalShipmentID
	}
	if def := b.DefaultShipment(); def != nil {
		return def.ID
	}
	return uuid.Nil
}

// commitTarget resolves the submission's intent into the shipment to write,
// creating or merging shipments as the intent demands. It also returns the
// address to apply, which an address book intent sources from the customer.
func (s *service) commitTarget(b *models.Basket, customer *models.Customer, sub ShippingSubmission) (*models.Shipment, types.Address, error) {
	addr := sub.Address

	// the very first address submission always lands on the default
	// shipment, whatever the selector says
	if strings.TrimSpace(sub.Selector) == "" || !address.ShippingAddressInitialized(b) {
		def := b.DefaultShipment()
		if def == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeStateConflict, "basket has no default shipment")
		}
		return def, addr, nil
	}

	intent, err := shipping.DecodeIntent(sub.Selector)
	if err != nil {
		return nil, addr, err
	}

	switch intent.Kind {
	case shipping.UseExisting:
		target := shipping.ByUUID(b, intent.ShipmentID)
		if target == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		// with a line item in play this routes the item onto the chosen
		// shipment; without one it is an in-place address edit
		if sub.ProductLineItemID != nil {
			item := b.LineItemByID(*sub.ProductLineItemID)
			if item == nil {
				return nil, addr, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
			}
			if item.ShipmentID != target.ID {
				if err := shipping.AssignLineItem(b, item.ID, target.ID); err != nil {
					return nil, addr, err
				}
				// the move may have hollowed out the origin shipment
				shipping.PruneEmpty(b)
				shipping.FillEmptyDefault(b)
				if target = shipping.ByUUID(b, intent.ShipmentID); target == nil {
					// the chosen shipment was folded into the default
					target = b.DefaultShipment()
				}
			}
		}
		return target, addr, nil

	case shipping.CreateNew:
		if sub.ProductLineItemID == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeValidation, "product line item is required for a new shipment")
		}
		item := b.LineItemByID(*sub.ProductLineItemID)
		if item == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		// when the default shipment holds exactly this item, reuse it
		// instead of splitting a single-item basket
		def := b.DefaultShipment()
		if def != nil && len(def.Items) == 1 && def.Items[0].ID == item.ID {
			return def, addr, nil
		}
		created, err := s.shipments.Create(b)
		if err != nil {
			return nil, addr, err
		}
		if err := shipping.AssignLineItem(b, item.ID, created.ID); err != nil {
			return nil, addr, err
		}
		return created, addr, nil

	case shipping.AddressBook:
		var target *models.Shipment
		if sub.OriginalShipmentID != nil {
			target = shipping.ByUUID(b, *sub.OriginalShipmentID)
		}
		if target == nil {
			target = b.DefaultShipment()
		}
		if target == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		if customer == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeUnauthorized, "address book requires a signed-in customer")
		}
		entry := customer.AddressByID(intent.AddressID)
		if entry == nil {
			return nil, addr, pkgerrors.New(pkgerrors.CodeNotFound, "address book entry not found")
		}
		return target, entry.Address, nil
	}
	return nil, addr, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment selector")
}

// recomputeAllValid scans every shipment's cache entry; a missing entry
// blocks payment the same as an invalid one. The result is stored under the
// multi-ship sentinel field.
func (s *service) recomputeAllValid(ctx context.Context, b *models.Basket) (bool, error) {
	entries, err := s.validity.All(ctx, b.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read validity cache")
	}
	allValid := true
	for i := range b.Shipments {
		if entries[b.Shipments[i].ID.String()] != enums.ShipmentValid {
			allValid = false
			break
		}
	}
	sentinel := enums.ShipmentInvalid
	if allValid {
		sentinel = enums.ShipmentValid
	}
	if err := s.validity.Mark(ctx, b.ID, MultiShipKey, sentinel); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store validity sentinel")
	}
	return allValid, nil
}

func (s *service) validateShippingAddress(addr types.Address) map[string]string {
	return s.validateAddressForm(addr)
}

func (s *service) validateBillingAddress(addr types.Address) map[string]string {
	return s.validateAddressForm(addr)
}

func (s *service) validateAddressForm(addr types.Address) map[string]string {
	form := addressForm{
		FirstName:   addr.FirstName,
		LastName:    addr.LastName,
		Address1:    addr.Address1,
		City:        addr.City,
		StateCode:   addr.StateCode,
		PostalCode:  addr.PostalCode,
		CountryCode: addr.CountryCode,
	}
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	fieldErrors := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			name := fe.Field()
			name = strings.ToLower(name[:1]) + name[1:]
			fieldErrors[name] = fmt.Sprintf("%s is required", name)
		}
	}
	return fieldErrors
}

func (s *service) observe(stage string, start time.Time) {
	s.metrics.ObserveStage(stage, time.Since(start))
}

func (s *service) fail(stage string) {
	s.metrics.IncStageFailure(stage)
}

func validateBasketIntegrity(b *models.Basket) error {
	items := b.LineItems()
	if len(items) == 0 {
		return NewStageError(enums.CheckoutStageShipping, StepAddress, "basket is empty")
	}
	for _, item := range items {
		if item.Qty <= 0 || item.UnitPriceCents <= 0 {
			return TechnicalError(fmt.Errorf("line item %s is not purchasable", item.ID))
		}
	}
	return nil
}

func validateInstruments(b *models.Basket) error {
	if len(b.Instruments) == 0 {
		return NewStageError(enums.CheckoutStagePayment, StepPaymentInstrument, "no payment instrument on basket")
	}
	for _, inst := range b.Instruments {
		if !inst.MethodID.IsValid() {
			return NewStageError(enums.CheckoutStagePayment, StepPaymentInstrument, "payment instrument is no longer valid")
		}
	}
	return nil
}

// recomputeInstrumentAmounts pins every instrument to the basket total.
// Split tender is not supported, so a single instrument carries it all.
func recomputeInstrumentAmounts(b *models.Basket) {
	for i := range b.Instruments {
		b.Instruments[i].AmountCents = b.TotalCents
	}
}

func nonDefaultIDs(b *models.Basket) []uuid.UUID {
	out := []uuid.UUID{}
	for i := range b.Shipments {
		if !b.Shipments[i].IsDefault {
			out = append(out, b.Shipments[i].ID)
		}
	}
	return out
}

func methodApplicable(methodID string, methods []models.ShippingMethod) bool {
	for _, m := range methods {
		if m.ID == methodID {
			return true
		}
	}
	return false
}
