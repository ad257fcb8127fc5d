package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stonebridge/storefront-backend/api/controllers"
	"github.com/stonebridge/storefront-backend/api/middleware"
	"github.com/stonebridge/storefront-backend/internal/checkout"
	"github.com/stonebridge/storefront-backend/internal/customers"
	"github.com/stonebridge/storefront-backend/internal/stores"
	"github.com/stonebridge/storefront-backend/pkg/auth/session"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/logger"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	RedisPinger    controllers.Pinger
	SessionChecker session.AccessSessionChecker
	Customers      customers.Service
	CustomerLoader controllers.CustomerLoader
	Checkout       checkout.Service
	Stores         stores.Service
	MetricsHandler http.Handler
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DBPinger, p.RedisPinger))
	})

	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/account", func(r chi.Router) {
		r.Post("/login", controllers.AccountLogin(p.Customers, p.Logger))
		r.Post("/register", controllers.AccountRegister(p.Customers, p.Logger))
		r.Post("/password-reset", controllers.AccountPasswordReset(p.Customers, p.Logger))
		r.Post("/password-reset/confirm", controllers.AccountPasswordResetConfirm(p.Customers, p.Logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Config.JWT, p.SessionChecker, p.Logger))
			r.Get("/", controllers.AccountDashboard(p.Customers, p.Logger))
			r.Put("/profile", controllers.AccountUpdateProfile(p.Customers, p.Logger))
			r.Put("/password", controllers.AccountChangePassword(p.Customers, p.Logger))
		})
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Use(
			middleware.OptionalAuth(p.Config.JWT, p.SessionChecker, p.Logger),
			middleware.Basket(p.Config.Checkout.CartURL, p.Logger),
		)
		r.Get("/login", controllers.CheckoutLogin(p.Logger))
		r.Get("/start", controllers.CheckoutStart(p.Checkout, p.CustomerLoader, p.Config.Checkout, p.Logger))
		r.Post("/multiship", controllers.CheckoutToggleMultiShip(p.Checkout, p.Config.Checkout, p.Logger))
		r.Post("/shipping-method", controllers.CheckoutSelectShippingMethod(p.Checkout, p.Config.Checkout, p.Logger))
		r.Post("/shipping-methods", controllers.CheckoutUpdateShippingMethods(p.Checkout, p.Config.Checkout, p.Logger))
		r.Post("/shipments", controllers.CheckoutCreateShipment(p.Checkout, p.Config.Checkout, p.Logger))
		r.Post("/shipments/address", controllers.CheckoutSubmitShipping(p.Checkout, p.CustomerLoader, p.Config.Checkout, p.Logger))
		r.Post("/shipping", controllers.CheckoutSubmitShipping(p.Checkout, p.CustomerLoader, p.Config.Checkout, p.Logger))
		r.Post("/payment", controllers.CheckoutSubmitPayment(p.Checkout, p.Config.Checkout, p.Logger))
		r.Post("/place-order", controllers.CheckoutPlaceOrder(p.Checkout, p.Config.Checkout, p.Logger))
	})

	r.Get("/stores", controllers.FindStores(p.Stores, p.Logger))

	return r
}
