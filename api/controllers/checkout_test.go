package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/api/middleware"
	"github.com/stonebridge/storefront-backend/internal/checkout"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	"github.com/stonebridge/storefront-backend/pkg/types"
)

type stubCheckoutService struct {
	startView *checkout.StartView
	basket    *models.Basket
	methods   []models.ShippingMethod
	shipment  uuid.UUID
	shipping  *checkout.ShippingResult
	payment   *checkout.PaymentResult
	placement *checkout.PlacementResult
	err       error
}

func (s stubCheckoutService) Start(ctx context.Context, basketID uuid.UUID, customer *models.Customer, stage enums.CheckoutStage) (*checkout.StartView, error) {
	return s.startView, s.err
}

func (s stubCheckoutService) ToggleMultiShip(ctx context.Context, basketID uuid.UUID, on bool) (*models.Basket, error) {
	return s.basket, s.err
}

func (s stubCheckoutService) SelectShippingMethod(ctx context.Context, basketID uuid.UUID, selector, methodID string, addr *types.Address) (*models.Basket, error) {
	return s.basket, s.err
}

func (s stubCheckoutService) UpdateShippingMethods(ctx context.Context, basketID uuid.UUID, selector string, addr *types.Address) (*models.Basket, []models.ShippingMethod, error) {
	return s.basket, s.methods, s.err
}

func (s stubCheckoutService) CreateShipmentForItem(ctx context.Context, basketID, itemID uuid.UUID) (*models.Basket, uuid.UUID, error) {
	return s.basket, s.shipment, s.err
}

func (s stubCheckoutService) SubmitShipping(ctx context.Context, basketID uuid.UUID, customer *models.Customer, sub checkout.ShippingSubmission) (*checkout.ShippingResult, error) {
	return s.shipping, s.err
}

func (s stubCheckoutService) SubmitPayment(ctx context.Context, basketID uuid.UUID, sub checkout.PaymentSubmission) (*checkout.PaymentResult, error) {
	return s.payment, s.err
}

func (s stubCheckoutService) PlaceOrder(ctx context.Context, basketID uuid.UUID) (*checkout.PlacementResult, error) {
	return s.placement, s.err
}

func checkoutTestConfig() config.CheckoutConfig {
	return config.CheckoutConfig{CartURL: "/cart", ConfirmURL: "/order-confirm"}
}

func testBasket() *models.Basket {
	basketID := uuid.New()
	shipmentID := uuid.New()
	return &models.Basket{
		ID:     basketID,
		Status: enums.BasketStatusActive,
		Shipments: []models.Shipment{
			{
				ID:        shipmentID,
				BasketID:  basketID,
				IsDefault: true,
				Items: []models.LineItem{
					{ID: uuid.New(), BasketID: basketID, ShipmentID: shipmentID, ProductID: "sku-1", ProductName: "Canvas Tote", Qty: 2, UnitPriceCents: 1250, TotalCents: 2500},
				},
			},
		},
		SubtotalCents: 2500,
		TotalCents:    2500,
	}
}

func basketRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithBasketID(req.Context(), uuid.New()))
	return req
}

func TestCheckoutPlaceOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	handler := CheckoutPlaceOrder(stubCheckoutService{
		placement: &checkout.PlacementResult{OrderID: orderID, OrderNumber: 1000, ContinueURL: "/order-confirm"},
	}, checkoutTestConfig(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/place-order", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error       bool      `json:"error"`
		OrderID     uuid.UUID `json:"orderID"`
		OrderNo     int64     `json:"orderNo"`
		ContinueURL string    `json:"continueUrl"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error {
		t.Fatal("expected error false")
	}
	if body.OrderID != orderID {
		t.Fatalf("expected order id %s got %s", orderID, body.OrderID)
	}
	if body.OrderNo != 1000 {
		t.Fatalf("expected order number 1000 got %d", body.OrderNo)
	}
	if body.ContinueURL != "/order-confirm" {
		t.Fatalf("unexpected continue url %q", body.ContinueURL)
	}
}

func TestCheckoutPlaceOrderStageError(t *testing.T) {
	handler := CheckoutPlaceOrder(stubCheckoutService{
		err: checkout.NewStageError(enums.CheckoutStagePayment, checkout.StepPaymentInstrument, "no payment instrument"),
	}, checkoutTestConfig(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/place-order", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error      bool `json:"error"`
		ErrorStage struct {
			Stage string `json:"stage"`
			Step  string `json:"step"`
		} `json:"errorStage"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Error {
		t.Fatal("expected error true")
	}
	if body.ErrorStage.Stage != "payment" || body.ErrorStage.Step != "paymentInstrument" {
		t.Fatalf("unexpected error stage %+v", body.ErrorStage)
	}
	if body.ErrorMessage == "" {
		t.Fatal("expected an error message")
	}
}

func TestCheckoutPlaceOrderNoBasket(t *testing.T) {
	handler := CheckoutPlaceOrder(stubCheckoutService{err: checkout.ErrNoBasket}, checkoutTestConfig(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/place-order", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body types.CartError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Error || !body.CartError {
		t.Fatalf("expected cart error payload, got %+v", body)
	}
	if body.RedirectURL != "/cart" {
		t.Fatalf("expected redirect to /cart got %q", body.RedirectURL)
	}
}

func TestCheckoutSubmitShippingFieldErrors(t *testing.T) {
	handler := CheckoutSubmitShipping(stubCheckoutService{
		shipping: &checkout.ShippingResult{FieldErrors: map[string]string{"postalCode": "postalCode is required"}},
	}, nil, checkoutTestConfig(), nil)

	payload := `{"address":{"firstName":"Ada","lastName":"Lovelace","address1":"1 Analytical Way","city":"London","stateCode":"MA","postalCode":"","countryCode":"US","phone":""}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/shipping", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error       bool              `json:"error"`
		FieldErrors map[string]string `json:"fieldErrors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Error {
		t.Fatal("expected error true")
	}
	if _, ok := body.FieldErrors["postalCode"]; !ok {
		t.Fatalf("expected postalCode field error, got %v", body.FieldErrors)
	}
}

func TestCheckoutSubmitShippingSuccess(t *testing.T) {
	b := testBasket()
	shipmentID := b.Shipments[0].ID
	handler := CheckoutSubmitShipping(stubCheckoutService{
		shipping: &checkout.ShippingResult{Basket: b, ShipmentID: shipmentID, AllValid: true},
	}, nil, checkoutTestConfig(), nil)

	payload := `{"address":{"firstName":"Ada","lastName":"Lovelace","address1":"1 Analytical Way","city":"London","stateCode":"MA","postalCode":"01803","countryCode":"US","phone":""},"methodID":"ground"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/shipping", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error        bool      `json:"error"`
		Order        OrderView `json:"order"`
		ShipmentUUID uuid.UUID `json:"shipmentUUID"`
		AllValid     bool      `json:"allValid"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error {
		t.Fatal("expected error false")
	}
	if body.ShipmentUUID != shipmentID {
		t.Fatalf("expected shipment %s got %s", shipmentID, body.ShipmentUUID)
	}
	if !body.AllValid {
		t.Fatal("expected allValid true")
	}
	if len(body.Order.Shipping) != 1 || len(body.Order.Shipping[0].Items) != 1 {
		t.Fatalf("unexpected order shape %+v", body.Order)
	}
}

func TestCheckoutToggleMultiShip(t *testing.T) {
	b := testBasket()
	b.MultiShip = true
	handler := CheckoutToggleMultiShip(stubCheckoutService{basket: b}, checkoutTestConfig(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/multiship", `{"usingMultiShipping":true}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error bool      `json:"error"`
		Order OrderView `json:"order"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Order.UsingMultiShipping {
		t.Fatal("expected usingMultiShipping true")
	}
}

func TestCheckoutSelectShippingMethodNoBasket(t *testing.T) {
	handler := CheckoutSelectShippingMethod(stubCheckoutService{err: checkout.ErrNoBasket}, checkoutTestConfig(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/shipping-method", `{"methodID":"ground"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body types.CartError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.CartError {
		t.Fatal("expected cartError true")
	}
}

func TestCheckoutSubmitPaymentInvalidMethod(t *testing.T) {
	handler := CheckoutSubmitPayment(stubCheckoutService{}, checkoutTestConfig(), nil)

	payload := `{"email":"ada@example.com","useShippingAsBilling":true,"billingAddress":{"firstName":"","lastName":"","address1":"","city":"","stateCode":"","postalCode":"","countryCode":"","phone":""},"payment":{"paymentMethod":"WIRE_TRANSFER"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/payment", payload))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutSubmitPaymentFieldErrors(t *testing.T) {
	handler := CheckoutSubmitPayment(stubCheckoutService{
		payment: &checkout.PaymentResult{FieldErrors: map[string]string{"cardNumber": "Card number is invalid."}},
	}, checkoutTestConfig(), nil)

	payload := `{"email":"ada@example.com","useShippingAsBilling":true,"billingAddress":{"firstName":"","lastName":"","address1":"","city":"","stateCode":"","postalCode":"","countryCode":"","phone":""},"payment":{"paymentMethod":"CREDIT_CARD","cardNumber":"1234"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, basketRequest(http.MethodPost, "/checkout/payment", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Error        bool              `json:"error"`
		FieldErrors  map[string]string `json:"fieldErrors"`
		ServerErrors []string          `json:"serverErrors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Error {
		t.Fatal("expected error true")
	}
	if _, ok := body.FieldErrors["cardNumber"]; !ok {
		t.Fatalf("expected cardNumber field error, got %v", body.FieldErrors)
	}
	if body.ServerErrors == nil {
		t.Fatal("expected serverErrors to be an empty array, not null")
	}
}
