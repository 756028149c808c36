package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	razorpaywebhook "github.com/bizlinkhq/bizlink-backend/internal/webhooks/razorpay"
	pkgauth "github.com/bizlinkhq/bizlink-backend/pkg/auth"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
	"github.com/bizlinkhq/bizlink-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubBillingService struct{}

func (stubBillingService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return []models.SubscriptionPlan{}, nil
}

func (stubBillingService) CurrentSubscription(ctx context.Context, requesterID, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	return &models.BusinessSubscription{
		ID:           uuid.New(),
		BusinessID:   businessID,
		Status:       enums.SubscriptionStatusActive,
		BillingCycle: enums.BillingCycleMonthly,
	}, nil
}

func (stubBillingService) ListInvoices(ctx context.Context, requesterID, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	return []models.Invoice{}, nil
}

type stubSettlementService struct{}

func (stubSettlementService) VerifyPayment(ctx context.Context, requesterID uuid.UUID, input settlement.VerifyInput) (*settlement.VerifyResult, error) {
	return &settlement.VerifyResult{}, nil
}

func (stubSettlementService) InitiateCheckout(ctx context.Context, requesterID uuid.UUID, input settlement.CheckoutInput) (*settlement.CheckoutResult, error) {
	return &settlement.CheckoutResult{}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) HandleEvent(ctx context.Context, event *razorpaywebhook.Event) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "bizlink-test",
			ExpirationMinutes: 5,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		(*razorpay.Client)(nil),
		stubBillingService{},
		stubSettlementService{},
		stubWebhookService{},
		(*razorpaywebhook.EventGuard)(nil),
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPlanCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/plans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for plan catalog got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, target := range []string{
		"/api/v1/billing/subscription",
		"/api/v1/billing/invoices",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", target, resp.Code)
		}
	}

	verify := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, verify)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for payment verify got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscription?business_id="+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBusinessOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for subscription fetch got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
