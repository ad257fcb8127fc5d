package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/api/responses"
	"github.com/stonebridge/storefront-backend/pkg/logger"
)

const basketIDHeader = "X-Basket-Id"

// Basket requires the caller to name its basket. A missing or malformed id
// yields the cart redirect payload; existence is checked downstream by the
// checkout service.
func Basket(cartURL string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(basketIDHeader)
			if raw == "" {
				responses.WriteCartError(w, cartURL)
				return
			}
			basketID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteCartError(w, cartURL)
				return
			}

			ctx := WithBasketID(r.Context(), basketID)
			if logg != nil {
				ctx = logg.WithBasketID(ctx, basketID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
