package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yawboateng/marketgh-backend/api/routes"
	"github.com/yawboateng/marketgh-backend/internal/cart"
	"github.com/yawboateng/marketgh-backend/internal/catalog"
	"github.com/yawboateng/marketgh-backend/internal/checkout"
	"github.com/yawboateng/marketgh-backend/internal/coupons"
	"github.com/yawboateng/marketgh-backend/internal/delivery"
	"github.com/yawboateng/marketgh-backend/internal/orders"
	"github.com/yawboateng/marketgh-backend/internal/pricing"
	"github.com/yawboateng/marketgh-backend/internal/rates"
	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
	"github.com/yawboateng/marketgh-backend/pkg/metrics"
	"github.com/yawboateng/marketgh-backend/pkg/migrate"
	"github.com/yawboateng/marketgh-backend/pkg/outbox"
	"github.com/yawboateng/marketgh-backend/pkg/redis"
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

	ratesProvider := rates.NewProvider(cfg.Rates, redisClient, rates.NewRepository(dbClient.DB()), logg)
	pricingEngine := pricing.NewEngine(cfg.Pricing, ratesProvider)
	deliveryCalc := delivery.NewCalculator(cfg.Delivery)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cartRepo, catalogRepo, pricingEngine, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, deliveryCalc, ratesProvider)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:    cartRepo,
		Catalog:  catalogRepo,
		Orders:   ordersRepo,
		Coupons:  couponsRepo,
		Pricing:  pricingEngine,
		Delivery: deliveryCalc,
		Rates:    ratesProvider,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			OrdersDB: ordersRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
