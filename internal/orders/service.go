package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stonebridge/storefront-backend/internal/basket"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	"github.com/stonebridge/storefront-backend/pkg/enums"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service finalizes baskets into orders.
type Service interface {
	Create(ctx context.Context, basket *models.Basket) (*models.Order, error)
	Place(ctx context.Context, order *models.Order) error
	Fail(ctx context.Context, order *models.Order, reason string) error
	RecordTransaction(ctx context.Context, basketID uuid.UUID, txnID string) error
	MostRecent(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    *Repository
	baskets *basket.Repository
	tx      txRunner
	now     func() time.Time
}

// NewService builds the order finalizer.
func NewService(repo *Repository, baskets *basket.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if baskets == nil {
		return nil, fmt.Errorf("basket repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, baskets: baskets, tx: tx, now: time.Now}, nil
}

// Create snapshots the basket into a new order and marks the basket
// converted, both inside one transaction. A failure rolls everything back
// and leaves the basket retryable.
func (s *service) Create(ctx context.Context, basket *models.Basket) (*models.Order, error) {
	if basket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no active basket")
	}
	if basket.Status != enums.BasketStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "basket already converted")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order := snapshot(basket, number)
		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := s.baskets.WithTx(tx).MarkConverted(ctx, basket.ID); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	basket.Status = enums.BasketStatusConverted
	return created, nil
}

// Place transitions a created order to placed, at most once.
func (s *service) Place(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order required")
	}
	at := s.now().UTC()
	won, err := s.repo.MarkPlaced(ctx, order.ID, at)
	if err != nil {
		return err
	}
	if !won {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in a placeable state")
	}
	order.Status = enums.OrderStatusPlaced
	order.PlacedAt = &at
	return nil
}

// Fail records a placement failure on the order.
func (s *service) Fail(ctx context.Context, order *models.Order, reason string) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order required")
	}
	if err := s.repo.MarkFailed(ctx, order.ID, reason); err != nil {
		return err
	}
	order.Status = enums.OrderStatusFailed
	order.FailureReason = &reason
	return nil
}

// RecordTransaction stores the capture transaction id against the source
// basket's instruments.
func (s *service) RecordTransaction(ctx context.Context, basketID uuid.UUID, txnID string) error {
	return s.repo.SetInstrumentTransaction(ctx, basketID, txnID)
}

// MostRecent returns the customer's latest order, nil when they have none.
func (s *service) MostRecent(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.MostRecentByCustomer(ctx, customerID)
}

func snapshot(basket *models.Basket, number int64) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    number,
		BasketID:       basket.ID,
		CustomerID:     basket.CustomerID,
		CustomerEmail:  basket.CustomerEmail,
		Status:         enums.OrderStatusCreated,
		BillingAddress: basket.BillingAddress,
		SubtotalCents:  basket.SubtotalCents,
		ShippingCents:  basket.ShippingCents,
		TaxCents:       basket.TaxCents,
		TotalCents:     basket.TotalCents,
	}
	if def := basket.DefaultShipment(); def != nil {
		order.ShippingAddress = def.ShippingAddress
	}
	if len(basket.Instruments) > 0 {
		inst := basket.Instruments[0]
		methodID := inst.MethodID.String()
		order.PaymentMethodID = &methodID
		if inst.MaskedCardNumber != "" {
			masked := inst.MaskedCardNumber
			order.MaskedCardNumber = &masked
		}
	}
	for _, item := range basket.LineItems() {
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	return order
}
