package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stonebridge/storefront-backend/api/routes"
	"github.com/stonebridge/storefront-backend/internal/basket"
	"github.com/stonebridge/storefront-backend/internal/checkout"
	"github.com/stonebridge/storefront-backend/internal/customers"
	"github.com/stonebridge/storefront-backend/internal/orders"
	"github.com/stonebridge/storefront-backend/internal/payment"
	"github.com/stonebridge/storefront-backend/internal/pricing"
	"github.com/stonebridge/storefront-backend/internal/shipping"
	"github.com/stonebridge/storefront-backend/internal/stores"
	"github.com/stonebridge/storefront-backend/pkg/auth/session"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db"
	"github.com/stonebridge/storefront-backend/pkg/logger"
	"github.com/stonebridge/storefront-backend/pkg/metrics"
	"github.com/stonebridge/storefront-backend/pkg/migrate"
	"github.com/stonebridge/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	basketRepo := basket.NewRepository(dbClient.DB())
	methodRepo := shipping.NewMethodRepository(dbClient.DB())
	customerRepo := customers.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), basketRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	mailer, err := customers.NewLogMailer(logg, cfg.Mail)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.ServiceParams{
		Repo:           customerRepo,
		Orders:         ordersService,
		SessionManager: sessionManager,
		Store:          redisClient,
		Mailer:         mailer,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	pricingEngine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}

	dispatcher, err := payment.NewDispatcher(payment.NewCreditHandler())
	if err != nil {
		logg.Error(context.Background(), "failed to create payment dispatcher", err)
		os.Exit(1)
	}

	validityCache, err := checkout.NewRedisValidityCache(redisClient, cfg.Checkout.ValidityTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create validity cache", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Baskets:    basketRepo,
		Methods:    methodRepo,
		Shipments:  shipping.NewManager(cfg.Checkout),
		Engine:     pricingEngine,
		Dispatcher: dispatcher,
		Authorizer: &payment.AutoApprove{},
		Orders:     ordersService,
		Validity:   validityCache,
		Confirm:    mailer,
		Tx:         dbClient,
		Metrics:    checkoutMetrics,
		Logger:     logg,
		Config:     cfg.Checkout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	storesService, err := stores.NewService(stores.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create stores service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			SessionChecker: sessionManager,
			Customers:      customersService,
			CustomerLoader: customerRepo,
			Checkout:       checkoutService,
			Stores:         storesService,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(stopCtx); err != nil {
			logg.Error(stopCtx, "server shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
