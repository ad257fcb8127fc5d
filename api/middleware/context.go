package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxBasketID   contextKey = "basket_id"
)

// CustomerIDFromContext returns the authenticated customer id, uuid.Nil for
// guest requests.
func CustomerIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// BasketIDFromContext returns the basket id seeded by the basket middleware.
func BasketIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxBasketID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithCustomerID injects the customer id into the context.
func WithCustomerID(ctx context.Context, customerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithBasketID injects the basket id into the context.
func WithBasketID(ctx context.Context, basketID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBasketID, basketID)
}
