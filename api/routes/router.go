package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bizlinkhq/bizlink-backend/api/controllers"
	webhookcontrollers "github.com/bizlinkhq/bizlink-backend/api/controllers/webhooks"
	"github.com/bizlinkhq/bizlink-backend/api/middleware"
	razorpaywebhook "github.com/bizlinkhq/bizlink-backend/internal/webhooks/razorpay"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/db"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
	"github.com/bizlinkhq/bizlink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gateway *razorpay.Client,
	billingService controllers.BillingService,
	settlementService controllers.SettlementService,
	webhookService webhookcontrollers.RazorpayWebhookService,
	webhookGuard *razorpaywebhook.EventGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/razorpay", webhookcontrollers.RazorpayWebhook(webhookService, gateway, webhookGuard, logg))
		r.Get("/billing/plans", controllers.ListPlans(billingService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Post("/payments/verify", controllers.VerifyPayment(settlementService, logg))
			r.Post("/billing/checkout", controllers.Checkout(settlementService, logg))
			r.Get("/billing/subscription", controllers.GetSubscription(billingService, logg))
			r.Get("/billing/invoices", controllers.ListInvoices(billingService, logg))
		})
	})

	return r
}
