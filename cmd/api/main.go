package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bizlinkhq/bizlink-backend/api/routes"
	"github.com/bizlinkhq/bizlink-backend/internal/billing"
	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	razorpaywebhook "github.com/bizlinkhq/bizlink-backend/internal/webhooks/razorpay"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/db"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
	"github.com/bizlinkhq/bizlink-backend/pkg/metrics"
	"github.com/bizlinkhq/bizlink-backend/pkg/migrate"
	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
	"github.com/bizlinkhq/bizlink-backend/pkg/redis"
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

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	repo := billing.NewRepository(dbClient.DB())
	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	billingService, err := billing.NewService(billing.ServiceParams{Repo: repo})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Repo:     repo,
		Gateway:  gateway,
		TxRunner: dbClient,
		Billing:  cfg.Billing,
		Metrics:  settlementMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Repo:     repo,
		TxRunner: dbClient,
		Billing:  cfg.Billing,
		Metrics:  settlementMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard := razorpaywebhook.NewEventGuard(redisClient, cfg.Billing.WebhookEventTTL)

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gateway,
			billingService,
			settlementService,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
