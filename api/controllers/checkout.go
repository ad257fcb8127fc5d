package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/api/middleware"
	"github.com/stonebridge/storefront-backend/api/responses"
	"github.com/stonebridge/storefront-backend/api/validators"
	"github.com/stonebridge/storefront-backend/internal/checkout"
	"github.com/stonebridge/storefront-backend/internal/customers"
	"github.com/stonebridge/storefront-backend/internal/payment"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
	"github.com/stonebridge/storefront-backend/pkg/logger"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

// CustomerLoader resolves the authenticated customer for address book and
// dashboard seeding.
type CustomerLoader interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// CheckoutLogin reports whether the caller may skip the login stage.
func CheckoutLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registered := middleware.CustomerIDFromContext(r.Context()) != uuid.Nil
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"registered":  registered,
			"continueUrl": "/checkout/start",
		})
	}
}

// CheckoutStart returns the full checkout view for the requested stage.
func CheckoutStart(svc checkout.Service, loader CustomerLoader, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		stage := enums.CheckoutStageShipping
		if raw := r.URL.Query().Get("stage"); raw != "" {
			parsed, err := enums.ParseCheckoutStage(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage"))
				return
			}
			stage = parsed
		}

		customer := loadCustomer(r.Context(), loader, logg)
		view, err := svc.Start(r.Context(), middleware.BasketIDFromContext(r.Context()), customer, stage)
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}

		payload := map[string]any{
			"order": orderViewFrom(view.Basket),
			"stage": view.Stage.String(),

			"shippingMethods": methodViewsFrom(view.Methods),
		}
		if customer != nil {
			payload["customer"] = customers.FromModel(customer)
		}
		responses.WriteJSON(w, http.StatusOK, payload)
	}
}

type multiShipRequest struct {
	UsingMultiShipping bool `json:"usingMultiShipping"`
}

// CheckoutToggleMultiShip flips multi-ship mode for the basket.
func CheckoutToggleMultiShip(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body multiShipRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, err := svc.ToggleMultiShip(r.Context(), middleware.BasketIDFromContext(r.Context()), body.UsingMultiShipping)
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error": false,
			"order": orderViewFrom(b),
		})
	}
}

type selectMethodRequest struct {
	ShipmentUUID string         `json:"shipmentUUID,omitempty"`
	MethodID     string         `json:"methodID" validate:"required"`
	Address      *types.Address `json:"address,omitempty"`
}

// CheckoutSelectShippingMethod applies a method to the named shipment.
func CheckoutSelectShippingMethod(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body selectMethodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, err := svc.SelectShippingMethod(r.Context(), middleware.BasketIDFromContext(r.Context()), body.ShipmentUUID, body.MethodID, body.Address)
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error": false,
			"order": orderViewFrom(b),
		})
	}
}

type updateMethodsRequest struct {
	ShipmentUUID string         `json:"shipmentUUID,omitempty"`
	Address      *types.Address `json:"address,omitempty"`
}

// CheckoutUpdateShippingMethods refreshes the applicable method list for a
// shipment after address fields change.
func CheckoutUpdateShippingMethods(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body updateMethodsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, applicable, err := svc.UpdateShippingMethods(r.Context(), middleware.BasketIDFromContext(r.Context()), body.ShipmentUUID, body.Address)
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error":           false,
			"order":           orderViewFrom(b),
			"shippingMethods": methodViewsFrom(applicable),
		})
	}
}

type createShipmentRequest struct {
	ProductLineItemUUID uuid.UUID `json:"productLineItemUUID" validate:"required"`
}

// CheckoutCreateShipment moves a line item onto a fresh shipment.
func CheckoutCreateShipment(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body createShipmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, shipmentID, err := svc.CreateShipmentForItem(r.Context(), middleware.BasketIDFromContext(r.Context()), body.ProductLineItemUUID)
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error": false,
			"uuid":  shipmentID,
			"order": orderViewFrom(b),
		})
	}
}

type submitShippingRequest struct {
	ShipmentSelector     string        `json:"shipmentSelector,omitempty"`
	OriginalShipmentUUID *uuid.UUID    `json:"originalShipmentUUID,omitempty"`
	ProductLineItemUUID  *uuid.UUID    `json:"productLineItemUUID,omitempty"`
	Address              types.Address `json:"address"`
	MethodID             string        `json:"methodID,omitempty"`
}

// CheckoutSubmitShipping runs the shipping stage submission: address form
// validation first, basket mutation only when the form passes.
func CheckoutSubmitShipping(svc checkout.Service, loader CustomerLoader, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body submitShippingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer := loadCustomer(r.Context(), loader, logg)
		result, err := svc.SubmitShipping(r.Context(), middleware.BasketIDFromContext(r.Context()), customer, checkout.ShippingSubmission{
			Selector:           body.ShipmentSelector,
			OriginalShipmentID: body.OriginalShipmentUUID,
			ProductLineItemID:  body.ProductLineItemUUID,
			Address:            body.Address,
			MethodID:           body.MethodID,
		})
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}

		if len(result.FieldErrors) > 0 {
			responses.WriteJSON(w, http.StatusOK, map[string]any{
				"error":        true,
				"fieldErrors":  result.FieldErrors,
				"serverErrors": []string{},
			})
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error":        false,
			"order":        orderViewFrom(result.Basket),
			"shipmentUUID": result.ShipmentID,
			"allValid":     result.AllValid,
		})
	}
}

type paymentForm struct {
	PaymentMethod   string `json:"paymentMethod" validate:"required"`
	CardholderName  string `json:"cardholderName,omitempty"`
	CardType        string `json:"cardType,omitempty"`
	CardNumber      string `json:"cardNumber,omitempty"`
	ExpirationMonth int    `json:"expirationMonth,omitempty"`
	ExpirationYear  int    `json:"expirationYear,omitempty"`
	SecurityCode    string `json:"securityCode,omitempty"`
}

type submitPaymentRequest struct {
	BillingAddress       types.Address `json:"billingAddress"`
	UseShippingAsBilling bool          `json:"useShippingAsBilling"`
	Email                string        `json:"email" validate:"required,email"`
	Payment              paymentForm   `json:"payment"`
}

// CheckoutSubmitPayment validates billing and payment together, then stores
// the payment instrument on the basket.
func CheckoutSubmitPayment(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body submitPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := enums.ParsePaymentMethodID(body.Payment.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.SubmitPayment(r.Context(), middleware.BasketIDFromContext(r.Context()), checkout.PaymentSubmission{
			Billing:              body.BillingAddress,
			UseShippingAsBilling: body.UseShippingAsBilling,
			Email:                body.Email,
			Payment: payment.Submission{
				MethodID:        methodID,
				CardholderName:  body.Payment.CardholderName,
				CardType:        body.Payment.CardType,
				CardNumber:      body.Payment.CardNumber,
				ExpirationMonth: body.Payment.ExpirationMonth,
				ExpirationYear:  body.Payment.ExpirationYear,
				SecurityCode:    body.Payment.SecurityCode,
			},
		})
		if err != nil {
			writeCheckoutError(r.Context(), logg, w, cfg, err)
			return
		}

		if result.HasErrors() {
			serverErrors := result.ServerErrors
			if serverErrors == nil {
				serverErrors = []string{}
			}
			responses.WriteJSON(w, http.StatusOK, map[string]any{
				"error":        true,
				"fieldErrors":  result.FieldErrors,
				"serverErrors": serverErrors,
			})
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error": false,
			"order": orderViewFrom(result.Basket),
		})
	}
}

// CheckoutPlaceOrder runs the guarded placement pipeline. Stage failures are
// reported with resume metadata instead of HTTP errors.
func CheckoutPlaceOrder(svc checkout.Service, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := svc.PlaceOrder(r.Context(), middleware.BasketIDFromContext(r.Context()))
		if err != nil {
			var stageErr *checkout.StageError
			switch {
			case errors.Is(err, checkout.ErrNoBasket):
				responses.WriteCartError(w, cfg.CartURL)
			case errors.As(err, &stageErr):
				payload := map[string]any{
					"error":        true,
					"errorMessage": stageErr.Message,
				}
				if stageErr.Stage != "" {
					payload["errorStage"] = map[string]string{
						"stage": stageErr.Stage.String(),
						"step":  stageErr.Step,
					}
				}
				responses.WriteJSON(w, http.StatusOK, payload)
			default:
				responses.WriteError(r.Context(), logg, w, err)
			}
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"error":       false,
			"orderID":     result.OrderID,
			"orderNo":     result.OrderNumber,
			"continueUrl": result.ContinueURL,
		})
	}
}

// writeCheckoutError maps missing-basket failures to the cart redirect and
// everything else to the standard error envelope.
func writeCheckoutError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, cfg config.CheckoutConfig, err error) {
	if errors.Is(err, checkout.ErrNoBasket) {
		responses.WriteCartError(w, cfg.CartURL)
		return
	}
	responses.WriteError(ctx, logg, w, err)
}

func loadCustomer(ctx context.Context, loader CustomerLoader, logg *logger.Logger) *models.Customer {
	customerID := middleware.CustomerIDFromContext(ctx)
	if customerID == uuid.Nil || loader == nil {
		return nil
	}
	customer, err := loader.ByID(ctx, customerID)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "load customer for checkout", err)
		}
		return nil
	}
	return customer
}
